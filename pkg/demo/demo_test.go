package demo

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/client"
	"src.guictl.dev/pkg/host"
	"src.guictl.dev/pkg/must"
	"src.guictl.dev/pkg/prog/progtest"
	"src.guictl.dev/pkg/state"
	"src.guictl.dev/pkg/toolkit/headless"
	"src.guictl.dev/pkg/transport"
)

var (
	Test = progtest.Test
	That = progtest.That
)

var discard = log.New(io.Discard, "", 0)

func TestProgram_Usage(t *testing.T) {
	Test(t, &Program{},
		That().ExitsWith(2).WritesStderr("internal error: no suitable subprogram\n"),
		That("-demo", "foo").
			ExitsWith(2).
			WritesStderrContaining("arguments are not allowed with -demo"),
		That("-demo", "-interval", "0s").
			ExitsWith(2).
			WritesStderrContaining("-interval must be positive"),
		That("-demo", "-iterations", "-1").
			ExitsWith(2).
			WritesStderrContaining("-iterations must not be negative"),
	)
}

// Starts a render host with the default template. The returned function
// stops the host; the toolkit may only be inspected after that.
func startHost(t *testing.T, sock string) (*headless.Toolkit, func()) {
	t.Helper()
	tk := must.OK1(headless.New(headless.DefaultTemplate()))
	h := host.New(tk, host.Options{TickInterval: time.Millisecond, Logger: discard})
	l := must.OK1(transport.Listen("unix", sock))
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan struct{})
	go func() {
		transport.NewServer(h.Methods(), discard).Serve(ctx, l)
		close(serveDone)
	}()
	h.OnStop(cancel)
	go h.Run(ctx)
	stop := func() {
		// Let the host apply all pending data first.
		if c, err := client.Dial(ctx, "unix", sock, client.Options{Logger: discard}); err == nil {
			c.ForceUpdate(ctx)
			c.Close()
		}
		h.Stop()
		<-h.Done()
		<-serveDone
	}
	t.Cleanup(stop)
	return tk, stop
}

func widget[W any](t *testing.T, tk *headless.Toolkit, name string) W {
	t.Helper()
	w, ok := tk.Widget(name)
	require.True(t, ok, "no widget %s", name)
	return w.(W)
}

func TestProgram_DrivesHost(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "guictl.sock")
	tk, stop := startHost(t, sock)

	exit, _, stderr := progtest.Run(&Program{},
		"-demo", "-addr", sock, "-iterations", "3", "-interval", "1ms")
	require.Equal(t, 0, exit, "stderr: %s", stderr)
	stop()

	plot := widget[*headless.Plot](t, tk, "graph_widget_1")
	assert.Equal(t, "signal", plot.Title())
	require.Len(t, plot.Series(), 2)
	assert.Len(t, plot.Series()[0].X(), nSamples)
	assert.Len(t, plot.Series()[0].Errors(), nSamples)
	assert.Len(t, plot.Series()[1].Y(), nSamples)
	assert.Equal(t, 2, widget[*headless.Legend](t, tk, "legend_widget_1").ItemCount())

	assert.Equal(t, "iteration 3 on channel 0", widget[*headless.Label](t, tk, "label_widget_1").Text())
	assert.Equal(t, 1.0, widget[*headless.SpinBox](t, tk, "number_widget_2").Value())
	assert.True(t, widget[*headless.CheckBox](t, tk, "boolean_widget_1").Checked())
}

func TestProgram_RestoresState(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "guictl.sock")
	db := filepath.Join(dir, "state.db")
	store := must.OK1(state.Open(db))
	must.OK(store.Save(snapshotName, state.Snapshot{
		Scalars: map[string]api.Value{amplitude: api.Number(2.5), running: api.Bool(false)},
		Labels:  map[string]string{status: "restored"},
	}))
	must.OK(store.Close())

	tk, stop := startHost(t, sock)
	exit, _, stderr := progtest.Run(&Program{},
		"-demo", "-addr", sock, "-iterations", "1", "-interval", "1ms", "-state", db)
	require.Equal(t, 0, exit, "stderr: %s", stderr)
	stop()

	assert.Equal(t, 2.5, widget[*headless.SpinBox](t, tk, "number_widget_2").Value())
	assert.False(t, widget[*headless.CheckBox](t, tk, "boolean_widget_1").Checked())
	// Not running, so the curves are left empty.
	assert.Empty(t, widget[*headless.Plot](t, tk, "graph_widget_1").Series()[0].Y())
	assert.Equal(t, "paused at iteration 1", widget[*headless.Label](t, tk, "label_widget_1").Text())
}

func TestProgram_Headless(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "guictl.sock")
	exit, _, stderr := progtest.Run(&Program{},
		"-demo", "-addr", sock, "-iterations", "2", "-interval", "1ms")
	assert.Equal(t, 0, exit)
	assert.True(t, strings.Contains(stderr, "running headless"), "stderr: %s", stderr)
}

func TestProgram_SurvivesHostLoss(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "guictl.sock")
	_, stop := startHost(t, sock)
	var steps []int
	p := &Program{afterStep: func(i int) {
		steps = append(steps, i)
		if i == 1 {
			stop()
		}
	}}
	exit, _, stderr := progtest.Run(p, "-demo", "-addr", sock, "-iterations", "5", "-interval", "1ms")
	assert.Equal(t, 0, exit, "stderr: %s", stderr)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, steps)
	assert.Contains(t, stderr, "render host went away at iteration 2, running headless")
}

func TestProgram_StopsOnSignal(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "guictl.sock")
	startHost(t, sock)
	sigCh := make(chan os.Signal)
	close(sigCh)
	exit, _, stderr := progtest.Run(&Program{signals: sigCh}, "-demo", "-addr", sock, "-interval", "1ms")
	assert.Equal(t, 0, exit, "stderr: %s", stderr)
}
