// Package progtest contains utilities for testing [prog.Program]
// implementations.
package progtest

import (
	"io"
	"os"
	"strings"
	"testing"

	"src.guictl.dev/pkg/must"
	"src.guictl.dev/pkg/prog"
)

// Case is a test case for Test. It is built with That and refined with its
// methods.
type Case struct {
	args  []string
	stdin string
	want  result
}

type result struct {
	exit   int
	stdout output
	stderr output
}

type output struct {
	content  string
	partial  bool
	anything bool
}

func (o output) String() string {
	if o.anything {
		return "anything"
	}
	if o.partial {
		return "text containing " + quote(o.content)
	}
	return quote(o.content)
}

func (o output) matches(s string) bool {
	switch {
	case o.anything:
		return true
	case o.partial:
		return strings.Contains(s, o.content)
	default:
		return s == o.content
	}
}

// That returns a new Case that runs guictl with the given arguments. By
// default the case expects an exit status of 0 and no output.
func That(args ...string) Case {
	return Case{args: args}
}

// WithStdin returns an altered Case that provides the given input.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// DoesNothing returns c itself. It is useful to mark that a case doesn't
// expect any output or a non-zero exit status.
func (c Case) DoesNothing() Case { return c }

// ExitsWith returns an altered Case that expects the given exit status.
func (c Case) ExitsWith(code int) Case {
	c.want.exit = code
	return c
}

// WritesStdout returns an altered Case that expects exactly the given text
// on stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.stdout = output{content: s}
	return c
}

// WritesStdoutContaining returns an altered Case that expects stdout to
// contain the given text.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.stdout = output{content: s, partial: true}
	return c
}

// WritesStderr returns an altered Case that expects exactly the given text
// on stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.stderr = output{content: s}
	return c
}

// WritesStderrContaining returns an altered Case that expects stderr to
// contain the given text.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.stderr = output{content: s, partial: true}
	return c
}

// WritesAnythingToStderr returns an altered Case that accepts any stderr.
func (c Case) WritesAnythingToStderr() Case {
	c.want.stderr = output{anything: true}
	return c
}

// Test runs test cases against a given program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			t.Helper()
			exit, stdout, stderr := RunWithStdin(p, c.stdin, c.args...)
			if exit != c.want.exit {
				t.Errorf("got exit %v, want %v", exit, c.want.exit)
			}
			if !c.want.stdout.matches(stdout) {
				t.Errorf("got stdout %v, want %v", quote(stdout), c.want.stdout)
			}
			if !c.want.stderr.matches(stderr) {
				t.Errorf("got stderr %v, want %v", quote(stderr), c.want.stderr)
			}
		})
	}
}

// Run runs a Program with the given arguments and empty input. It returns
// the exit status and the output written to stdout and stderr.
func Run(p prog.Program, args ...string) (exit int, stdout, stderr string) {
	return RunWithStdin(p, "", args...)
}

// RunWithStdin is like Run, but provides the given input.
func RunWithStdin(p prog.Program, stdin string, args ...string) (exit int, stdout, stderr string) {
	r0, w0 := must.Pipe()
	// TODO: This will block if stdin is larger than the pipe buffer. Write it
	// from a goroutine if a test ever needs that.
	must.OK1(w0.WriteString(stdin))
	w0.Close()
	defer r0.Close()

	// Read output concurrently so that a program that writes a lot does not
	// block on a full pipe.
	r1, w1 := must.Pipe()
	r2, w2 := must.Pipe()
	stdoutCh := capture(r1)
	stderrCh := capture(r2)

	exit = prog.Run([3]*os.File{r0, w1, w2}, append([]string{"guictl"}, args...), p)
	w1.Close()
	w2.Close()
	return exit, <-stdoutCh, <-stderrCh
}

func capture(r *os.File) <-chan string {
	ch := make(chan string, 1)
	go func() {
		defer r.Close()
		ch <- string(must.OK1(io.ReadAll(r)))
	}()
	return ch
}

func quote(s string) string {
	if s == "" {
		return "empty"
	}
	return "`" + s + "`"
}
