package client

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/host"
	"src.guictl.dev/pkg/state"
	"src.guictl.dev/pkg/testutil"
	"src.guictl.dev/pkg/toolkit/headless"
	"src.guictl.dev/pkg/transport"
)

const testTemplate = `
widgets:
  - {name: pw, kind: plot}
  - {name: lw, kind: legend}
  - {name: spin, kind: spinbox}
  - {name: check, kind: checkbox}
  - {name: text, kind: label}
  - {name: button, kind: button}
  - name: list
    kind: list
    items: [{text: wavemeter, annotation: "10.0.0.2:9000"}, {text: laser}]
`

var (
	bg      = context.Background()
	discard = log.New(io.Discard, "", 0)
)

type env struct {
	tk   *headless.Toolkit
	host *host.Host
	addr string
}

// Starts a render host with a headless toolkit, serving on a unix socket.
// Ticks only happen with ForceUpdate.
func startHost(t *testing.T, sock string) *env {
	t.Helper()
	tpl, err := headless.ParseTemplate([]byte(testTemplate))
	require.NoError(t, err)
	tk, err := headless.New(tpl)
	require.NoError(t, err)
	h := host.New(tk, host.Options{TickInterval: time.Hour, Logger: discard})

	l, err := transport.Listen("unix", sock)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(bg)
	serveDone := make(chan struct{})
	go func() {
		transport.NewServer(h.Methods(), discard).Serve(ctx, l)
		close(serveDone)
	}()
	h.OnStop(cancel)
	go h.Run(ctx)
	t.Cleanup(func() {
		h.Stop()
		<-h.Done()
		<-serveDone
	})
	return &env{tk, h, sock}
}

func stopHost(t *testing.T, e *env) {
	t.Helper()
	e.host.Stop()
	<-e.host.Done()
}

func sockPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "guictl.sock")
}

func dial(t *testing.T, e *env) *Client {
	t.Helper()
	c, err := Dial(bg, "unix", e.addr, Options{Logger: discard})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func widget[W any](t *testing.T, tk *headless.Toolkit, name string) W {
	t.Helper()
	w, ok := tk.Widget(name)
	require.True(t, ok, "no widget %s", name)
	return w.(W)
}

func TestDial(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, api.Version, c.HostVersion())
	assert.NotZero(t, c.HostPid())

	c2, err := Dial(bg, "unix", e.addr, Options{ID: "script-2", Logger: discard})
	require.NoError(t, err)
	defer c2.Close()
	assert.Equal(t, "script-2", c2.ID())
	assert.NotEqual(t, c.ID(), c2.ID())
}

func TestCurves(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)

	// Curves first, the plot afterwards, and a duplicate.
	require.NoError(t, c.AssignCurve(bg, "p", "signal", true))
	require.NoError(t, c.AssignCurve(bg, "p", "signal", true))
	require.NoError(t, c.AssignCurve(bg, "p", "reference", false))
	require.NoError(t, c.AssignPlot(bg, "pw", "p", "lw"))
	require.NoError(t, c.ForceUpdate(bg))

	plot := widget[*headless.Plot](t, e.tk, "pw")
	legend := widget[*headless.Legend](t, e.tk, "lw")
	require.Len(t, plot.Series(), 2)
	assert.Equal(t, 2, legend.ItemCount())
	assert.Equal(t, "p", plot.Title())

	x, y := []float64{0, 1, 2}, []float64{1, 4, 9}
	require.NoError(t, c.SetCurveData(bg, "p", "signal", api.XY(x, y), []float64{.1, .1, .1}))
	require.NoError(t, c.SetCurveData(bg, "p", "reference", api.Y(5, 5), nil))
	require.NoError(t, c.ForceUpdate(bg))
	assert.Equal(t, x, plot.Series()[0].X())
	assert.Equal(t, y, plot.Series()[0].Y())
	assert.Equal(t, []float64{.1, .1, .1}, plot.Series()[0].Errors())
	assert.Equal(t, []float64{5, 5}, plot.Series()[1].Y())

	require.NoError(t, c.RemoveCurve(bg, "p", "reference"))
	require.NoError(t, c.ForceUpdate(bg))
	assert.Equal(t, 1, legend.ItemCount())

	require.NoError(t, c.ClearPlot(bg, "pw"))
	require.NoError(t, c.ForceUpdate(bg))
	assert.Equal(t, 0, legend.ItemCount())
	assert.Empty(t, plot.Series())
	err := c.SetCurveData(bg, "p", "signal", api.Y(1), nil)
	assert.ErrorIs(t, err, api.ErrNotConfigured)
}

func TestNotConfiguredIsNotEndpointGone(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	err := c.SetScalar(bg, "power", api.Number(1))
	assert.ErrorIs(t, err, api.ErrNotConfigured)
	assert.NotErrorIs(t, err, transport.ErrEndpointGone)
	_, err = c.GetText(bg, "status")
	assert.ErrorIs(t, err, api.ErrNotConfigured)
}

func TestScalarsAndLabels(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	require.NoError(t, c.AssignScalar(bg, "spin", "power"))
	require.NoError(t, c.AssignLabel(bg, "text", "status"))
	require.NoError(t, c.ForceUpdate(bg))

	require.NoError(t, c.SetScalar(bg, "power", api.Number(2.5)))
	require.NoError(t, c.SetLabel(bg, "status", "locked"))
	require.NoError(t, c.ForceUpdate(bg))
	assert.Equal(t, 2.5, widget[*headless.SpinBox](t, e.tk, "spin").Value())
	text, err := c.GetText(bg, "status")
	require.NoError(t, err)
	assert.Equal(t, "locked", text)

	require.NoError(t, c.DeactivateScalar(bg, "power"))
	require.NoError(t, e.tk.Edit("spin", 7))
	require.NoError(t, c.ForceUpdate(bg))
	v, err := c.GetScalar(bg, "power")
	require.NoError(t, err)
	assert.Equal(t, api.Number(7), v)
}

func TestButtons(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	require.NoError(t, c.AssignEventButton(bg, "button", "go"))
	require.NoError(t, c.ForceUpdate(bg))

	require.NoError(t, e.tk.Click("button"))
	require.NoError(t, c.ForceUpdate(bg))
	pressed, err := c.WasButtonPressed(bg, "go")
	require.NoError(t, err)
	assert.True(t, pressed)
	pressed, err = c.WasButtonPressed(bg, "go")
	require.NoError(t, err)
	assert.False(t, pressed)
	released, err := c.WasButtonReleased(bg, "go")
	require.NoError(t, err)
	assert.True(t, released)
	down, err := c.IsPressed(bg, "go")
	require.NoError(t, err)
	assert.False(t, down)

	require.NoError(t, c.ResetButton(bg, "go"))
	require.NoError(t, c.ChangeButtonColor(bg, "go", "#3CD070"))
	assert.Equal(t, "#3CD070", widget[*headless.Button](t, e.tk, "button").Color())
}

func TestContainers(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	require.NoError(t, c.AssignContainer(bg, "list", "clients"))
	require.NoError(t, c.ForceUpdate(bg))

	info, err := c.GetContainerInfo(bg, "clients")
	require.NoError(t, err)
	assert.Equal(t, -1, info.Selected)
	assert.Equal(t, "10.0.0.2:9000", info.Items[0].Annotation)

	require.NoError(t, c.SetItemIndex(bg, "clients", 1))
	i, err := c.GetItemIndex(bg, "clients")
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	text, err := c.GetItemText(bg, "clients", -1)
	require.NoError(t, err)
	assert.Equal(t, "laser", text)
	text, err = c.GetItemText(bg, "clients", 0)
	require.NoError(t, err)
	assert.Equal(t, "wavemeter", text)
	_, err = c.GetItemText(bg, "clients", 5)
	assert.ErrorIs(t, err, api.ErrInvalidParams)
}

func TestEndpointGone(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	stopHost(t, e)

	select {
	case <-c.Done():
	case <-time.After(testutil.Scaled(2 * time.Second)):
		t.Fatal("connection not closed after host stopped")
	}
	assert.ErrorIs(t, c.SetScalar(bg, "power", api.Number(1)), transport.ErrEndpointGone)
	assert.ErrorIs(t, c.AssignScalar(bg, "spin", "power"), transport.ErrEndpointGone)
	_, err := c.GetScalar(bg, "power")
	assert.ErrorIs(t, err, transport.ErrEndpointGone)
}

func TestCloseHost(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	require.NoError(t, c.CloseHost(bg))
	select {
	case <-e.host.Done():
	case <-time.After(testutil.Scaled(2 * time.Second)):
		t.Fatal("host not stopped after CloseHost")
	}
	_, err := Dial(bg, "unix", e.addr, Options{Logger: discard})
	assert.ErrorIs(t, err, transport.ErrEndpointGone)
}

func TestSaveLoadState(t *testing.T) {
	e := startHost(t, sockPath(t))
	c := dial(t, e)
	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, c.AssignScalar(bg, "spin", "power"))
	require.NoError(t, c.AssignScalar(bg, "check", "enabled"))
	require.NoError(t, c.AssignLabel(bg, "text", "status"))
	require.NoError(t, c.ForceUpdate(bg))
	require.NoError(t, c.SetScalar(bg, "power", api.Number(3)))
	require.NoError(t, c.SetScalar(bg, "enabled", api.Bool(true)))
	require.NoError(t, c.SetLabel(bg, "status", "saved"))
	// Saved right away, without waiting for a tick.
	require.NoError(t, c.SaveState(bg, store, "run", []string{"power", "enabled"}, []string{"status"}))

	require.NoError(t, c.SetScalar(bg, "power", api.Number(0)))
	require.NoError(t, c.SetScalar(bg, "enabled", api.Bool(false)))
	require.NoError(t, c.SetLabel(bg, "status", "changed"))
	require.NoError(t, c.ForceUpdate(bg))

	require.NoError(t, c.LoadState(bg, store, "run"))
	require.NoError(t, c.ForceUpdate(bg))
	assert.Equal(t, 3.0, widget[*headless.SpinBox](t, e.tk, "spin").Value())
	assert.True(t, widget[*headless.CheckBox](t, e.tk, "check").Checked())
	text, err := c.GetText(bg, "status")
	require.NoError(t, err)
	assert.Equal(t, "saved", text)

	// Loaded scalars are left to local input.
	require.NoError(t, e.tk.Check("check", false))
	require.NoError(t, c.ForceUpdate(bg))
	v, err := c.GetScalar(bg, "enabled")
	require.NoError(t, err)
	assert.Equal(t, api.Bool(false), v)

	assert.ErrorIs(t, c.LoadState(bg, store, "missing"), state.ErrNoSnapshot)
}

func TestHandler_Headless(t *testing.T) {
	sock := sockPath(t)
	e := startHost(t, sock)
	h, err := DialHandler(bg, "unix", sock, Options{Logger: discard})
	require.NoError(t, err)
	defer h.Close()
	require.False(t, h.Headless())
	require.NoError(t, h.AssignScalar(bg, "spin", "power"))
	require.NoError(t, h.ForceUpdate(bg))

	stopHost(t, e)
	ok := testutil.Eventually(2*time.Second, func() bool {
		err := h.SetScalar(bg, "power", api.Number(1))
		return err == nil && h.Headless()
	})
	require.True(t, ok, "handler did not go headless")

	// All calls are now no-ops.
	v, err := h.GetScalar(bg, "power")
	assert.NoError(t, err)
	assert.False(t, v.IsSet())
	pressed, err := h.WasButtonPressed(bg, "go")
	assert.NoError(t, err)
	assert.False(t, pressed)

	// A new host on the same socket.
	e2 := startHost(t, sock)
	require.NoError(t, h.Reconnect(bg))
	assert.False(t, h.Headless())
	require.NoError(t, h.AssignLabel(bg, "text", "status"))
	require.NoError(t, h.ForceUpdate(bg))
	require.NoError(t, h.SetLabel(bg, "status", "back"))
	require.NoError(t, h.ForceUpdate(bg))
	assert.Equal(t, "back", widget[*headless.Label](t, e2.tk, "text").Text())
}

func TestHandler_OtherErrorsPassThrough(t *testing.T) {
	sock := sockPath(t)
	startHost(t, sock)
	h, err := DialHandler(bg, "unix", sock, Options{Logger: discard})
	require.NoError(t, err)
	defer h.Close()
	assert.ErrorIs(t, h.SetScalar(bg, "power", api.Number(1)), api.ErrNotConfigured)
	assert.False(t, h.Headless())
}

func TestDialHandler_Unreachable(t *testing.T) {
	h, err := DialHandler(bg, "unix", sockPath(t), Options{Logger: discard})
	require.NoError(t, err)
	assert.True(t, h.Headless())
	assert.NoError(t, h.SetLabel(bg, "status", "x"))
}
