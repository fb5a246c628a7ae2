package prog_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	. "src.guictl.dev/pkg/prog"
	"src.guictl.dev/pkg/logutil"
	"src.guictl.dev/pkg/prog/progtest"
	"src.guictl.dev/pkg/testutil"
)

var (
	Test = progtest.Test
	That = progtest.That
)

func TestCommonFlagHandling(t *testing.T) {
	Test(t, testProgram{},
		That("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		That("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),

		That("-help").
			WritesStdoutContaining("Usage: guictl [flags]"),
	)
}

func TestLogFlag(t *testing.T) {
	t.Cleanup(func() { logutil.SetOutput(io.Discard) })
	logFile := filepath.Join(t.TempDir(), "log")
	Test(t, testProgram{},
		That("-log", logFile).DoesNothing(),
		That("-log", "/a/bad/path/log").WritesAnythingToStderr(),
	)
	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestComposite(t *testing.T) {
	Test(t,
		Composite(testProgram{next: true}, testProgram{writeOut: "program 2"}),
		That().WritesStdout("program 2"),
	)
}

func TestComposite_NoSuitableSubprogram(t *testing.T) {
	Test(t,
		Composite(testProgram{next: true}, testProgram{next: true}),
		That().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite_PreferEarlierSubprogram(t *testing.T) {
	Test(t,
		Composite(
			testProgram{writeOut: "program 1"}, testProgram{writeOut: "program 2"}),
		That().WritesStdout("program 1"),
	)
}

func TestComposite_RunsCleanups(t *testing.T) {
	var order []string
	cleanup := func(name string) func([3]*os.File) {
		return func([3]*os.File) { order = append(order, name) }
	}
	Test(t,
		Composite(
			testProgram{next: true, cleanup: cleanup("first")},
			testProgram{next: true, cleanup: cleanup("second")},
			testProgram{writeOut: "program 3"}),
		That().WritesStdout("program 3"),
	)
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("cleanups run in order %v, want [second first]", order)
	}
}

func TestSharedFlags(t *testing.T) {
	Test(t,
		Composite(testProgram{next: true, sharedFlags: true}, testProgram{sharedFlags: true}),
		That("-addr", "10.0.0.1:7100", "-json").DoesNothing(),
	)
}

func TestBadUsageError(t *testing.T) {
	Test(t,
		testProgram{returnErr: BadUsage("lorem ipsum")},
		That().ExitsWith(2).WritesStderrContaining("lorem ipsum\n"),
	)
}

func TestWrappedBadUsageError(t *testing.T) {
	err := errors.Join(BadUsage("lorem ipsum"))
	Test(t,
		testProgram{returnErr: err},
		That().ExitsWith(2).WritesStderrContaining("lorem ipsum\nUsage:"),
	)
}

func TestExitError(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(3)},
		That().ExitsWith(3),
	)
}

func TestExitError_0(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(0)},
		That().ExitsWith(0),
	)
}

func TestOtherError(t *testing.T) {
	Test(t, testProgram{returnErr: errors.New("boom")},
		That().ExitsWith(2).WritesStderr("boom\n"),
	)
}

var resolveTests = []struct {
	name        string
	flags       Endpoint
	env         string
	wantNetwork string
	wantAddr    string
}{
	{"defaults", Endpoint{}, "", "tcp", "127.0.0.1:7100"},
	{"flags", Endpoint{Network: "tcp6", Addr: "[::1]:9000"}, "10.0.0.1:1", "tcp6", "[::1]:9000"},
	{"environment", Endpoint{}, "10.0.0.1:1", "tcp", "10.0.0.1:1"},
	{"path implies unix", Endpoint{Addr: "/tmp/guictl.sock"}, "", "unix", "/tmp/guictl.sock"},
}

func TestEndpoint_Resolve(t *testing.T) {
	for _, tc := range resolveTests {
		t.Run(tc.name, func(t *testing.T) {
			testutil.Setenv(t, "GUICTL_ADDR", tc.env)
			got := tc.flags.Resolve("tcp", "127.0.0.1:7100")
			if got.Network != tc.wantNetwork || got.Addr != tc.wantAddr {
				t.Errorf("Resolve -> %v, want {%v %v}", got, tc.wantNetwork, tc.wantAddr)
			}
		})
	}
}

type testProgram struct {
	next        bool
	cleanup     func([3]*os.File)
	sharedFlags bool
	writeOut    string
	returnErr   error
}

func (p testProgram) RegisterFlags(f *FlagSet) {
	if p.sharedFlags {
		f.Endpoint()
		f.JSON()
	}
}

func (p testProgram) Run(fds [3]*os.File, args []string) error {
	if p.next {
		if p.cleanup != nil {
			return NextProgram(p.cleanup)
		}
		return NextProgram()
	}
	fds[1].WriteString(p.writeOut)
	return p.returnErr
}
