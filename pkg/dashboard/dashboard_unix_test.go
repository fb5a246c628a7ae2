//go:build unix

package dashboard

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"src.guictl.dev/pkg/must"
	"src.guictl.dev/pkg/testutil"
)

func TestEnabled(t *testing.T) {
	ptmx, tty := must.OK2(pty.Open())
	defer ptmx.Close()
	defer tty.Close()
	if !Enabled(tty) {
		t.Errorf("Enabled(tty) = false, want true")
	}

	r, w := must.Pipe()
	defer r.Close()
	defer w.Close()
	if Enabled(w) {
		t.Errorf("Enabled(pipe) = true, want false")
	}
	if Enabled(nil) {
		t.Errorf("Enabled(nil) = true, want false")
	}
}

func TestDraw_Terminal(t *testing.T) {
	ptmx, tty := must.OK2(pty.Open())
	defer ptmx.Close()
	defer tty.Close()

	d := New(tty, newToolkit(t))
	go d.Draw()

	got := readUntil(ptmx, "Wavemeter", testutil.Scaled(2*time.Second))
	if !strings.Contains(got, "Wavemeter") {
		t.Errorf("terminal output %q does not contain the title", got)
	}
}

// Reads from f until the output contains want or the timeout elapses.
func readUntil(f *os.File, want string, timeout time.Duration) string {
	ch := make(chan []byte, 64)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				ch <- bytes.Clone(buf[:n])
			}
			if err != nil {
				close(ch)
				return
			}
		}
	}()
	var out []byte
	deadline := time.After(timeout)
	for {
		select {
		case data, ok := <-ch:
			if !ok {
				return string(out)
			}
			out = append(out, data...)
			if strings.Contains(string(out), want) {
				return string(out)
			}
		case <-deadline:
			return string(out)
		}
	}
}
