package progtest

import (
	"os"
	"testing"

	"src.guictl.dev/pkg/prog"
)

// Verify we don't deadlock if more output is written to stdout than can be
// buffered by a pipe.
func TestOutputCaptureDoesNotDeadlock(t *testing.T) {
	Test(t, noisyProgram{},
		That().WritesStdoutContaining("hello"),
	)
}

func TestStdin(t *testing.T) {
	Test(t, echoProgram{},
		That().WithStdin("lorem ipsum").WritesStdout("lorem ipsum"),
	)
}

type noisyProgram struct{}

func (noisyProgram) RegisterFlags(*prog.FlagSet) {}

func (noisyProgram) Run(fds [3]*os.File, args []string) error {
	// Pipes typically buffer 8 to 128 KiB.
	bytes := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	for i := 0; i < 128*1024/len(bytes); i++ {
		fds[1].Write(bytes)
	}
	fds[1].WriteString("hello")
	return nil
}

type echoProgram struct{}

func (echoProgram) RegisterFlags(*prog.FlagSet) {}

func (echoProgram) Run(fds [3]*os.File, args []string) error {
	buf := make([]byte, 64)
	n, _ := fds[0].Read(buf)
	fds[1].Write(buf[:n])
	return nil
}
