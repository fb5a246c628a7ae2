// Package demo implements a script that drives the widgets of the built-in
// template with generated data.
package demo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/client"
	"src.guictl.dev/pkg/config"
	"src.guictl.dev/pkg/logutil"
	"src.guictl.dev/pkg/prog"
	"src.guictl.dev/pkg/state"
)

var logger = logutil.GetLogger("[demo] ")

// Name of the snapshot saved when the save button is pressed, and restored
// on start.
const snapshotName = "demo"

const nSamples = 100

// Program is the demo subprogram.
type Program struct {
	run        bool
	iterations int
	interval   time.Duration
	statePath  string
	endpoint   *prog.Endpoint
	// Used in tests.
	signals   <-chan os.Signal
	afterStep func(i int)
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "demo", false, "run a demo script against a render host")
	fs.IntVar(&p.iterations, "iterations", 0, "number of updates to push with -demo; 0 means forever")
	fs.DurationVar(&p.interval, "interval", 100*time.Millisecond, "time between updates with -demo")
	fs.StringVar(&p.statePath, "state", "", "database for saving and restoring widget values with -demo")
	p.endpoint = fs.Endpoint()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.NextProgram()
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -demo")
	}
	if p.iterations < 0 {
		return prog.BadUsage("-iterations must not be negative")
	}
	if p.interval <= 0 {
		return prog.BadUsage("-interval must be positive")
	}

	sigCh := p.signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(ch)
		sigCh = ch
	}

	var store *state.Store
	if p.statePath != "" {
		var err error
		store, err = state.Open(p.statePath)
		if err != nil {
			return fmt.Errorf("cannot open state database: %w", err)
		}
		defer store.Close()
	}

	ctx := context.Background()
	ep := p.endpoint.Resolve(config.DefaultNetwork, config.DefaultAddress)
	h, err := client.DialHandler(ctx, ep.Network, ep.Addr, client.Options{})
	if err != nil {
		return err
	}
	defer h.Close()
	if h.Headless() {
		fmt.Fprintf(fds[2], "no render host at %s %s, running headless\n", ep.Network, ep.Addr)
	}

	d := &demo{h: h, store: store}
	if err := d.setup(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for i := 1; ; i++ {
		d.step(ctx, i)
		if h.Headless() && !d.wasHeadless {
			fmt.Fprintf(fds[2], "render host went away at iteration %d, running headless\n", i)
			d.wasHeadless = true
		}
		if p.afterStep != nil {
			p.afterStep(i)
		}
		if i == p.iterations {
			return nil
		}
		select {
		case sig := <-sigCh:
			logger.Printf("received signal %v", sig)
			return nil
		case <-ticker.C:
		}
	}
}

// Widget labels.
const (
	plot      = "signal"
	sine      = "sine"
	noise     = "noise"
	mean      = "mean"
	amplitude = "amplitude"
	running   = "running"
	status    = "status"
	save      = "save"
	channel   = "channel"
)

type demo struct {
	h           *client.Handler
	store       *state.Store
	wasHeadless bool
}

func (d *demo) setup(ctx context.Context) error {
	d.wasHeadless = d.h.Headless()
	h := d.h
	err := errors.Join(
		h.AssignPlot(ctx, "graph_widget_1", plot, "legend_widget_1"),
		h.AssignCurve(ctx, plot, sine, true),
		h.AssignCurve(ctx, plot, noise, false),
		h.AssignScalar(ctx, "number_widget_1", mean),
		h.AssignScalar(ctx, "number_widget_2", amplitude),
		h.AssignScalar(ctx, "boolean_widget_1", running),
		h.AssignLabel(ctx, "label_widget_1", status),
		h.AssignEventButton(ctx, "event_button_1", save),
		h.AssignContainer(ctx, "channel_select", channel),
		// Wait for the assignments to be applied.
		h.ForceUpdate(ctx),
	)
	if err != nil {
		return err
	}

	// Amplitude and running are left to the operator after being preset.
	if err := errors.Join(
		preset(ctx, h, amplitude, api.Number(1)),
		preset(ctx, h, running, api.Bool(true)),
	); err != nil {
		return err
	}
	if d.store != nil {
		err := h.LoadState(ctx, d.store, snapshotName)
		if err != nil && !errors.Is(err, state.ErrNoSnapshot) {
			logger.Println("cannot restore state:", err)
		}
	}
	return h.ForceUpdate(ctx)
}

func preset(ctx context.Context, h *client.Handler, label string, v api.Value) error {
	return errors.Join(
		h.ActivateScalar(ctx, label),
		h.SetScalar(ctx, label, v),
		h.DeactivateScalar(ctx, label))
}

func (d *demo) step(ctx context.Context, i int) {
	h := d.h
	if v, err := h.GetScalar(ctx, running); err == nil {
		if b, ok := v.AsBool(); ok && !b {
			d.check(h.SetLabel(ctx, status, fmt.Sprintf("paused at iteration %d", i)))
			return
		}
	}
	amp := 1.0
	if v, err := h.GetScalar(ctx, amplitude); err == nil {
		if f, ok := v.AsNumber(); ok {
			amp = f
		}
	}
	ch, err := h.GetItemIndex(ctx, channel)
	d.check(err)
	chText, err := h.GetItemText(ctx, channel, -1)
	d.check(err)

	x := make([]float64, nSamples)
	y := make([]float64, nSamples)
	errs := make([]float64, nSamples)
	n := make([]float64, nSamples)
	var sum float64
	phase := float64(i)*0.1 + float64(ch)*math.Pi/4
	for j := range x {
		x[j] = float64(j) * 2 * math.Pi / nSamples
		y[j] = amp * math.Sin(x[j]+phase)
		errs[j] = 0.1 * amp
		n[j] = amp * 0.1 * rand.NormFloat64()
		sum += n[j]
	}
	d.check(h.SetCurveData(ctx, plot, sine, api.XY(x, y), errs))
	d.check(h.SetCurveData(ctx, plot, noise, api.Y(n...), nil))
	d.check(h.SetScalar(ctx, mean, api.Number(sum/nSamples)))
	d.check(h.SetLabel(ctx, status, fmt.Sprintf("iteration %d on %s", i, chText)))

	pressed, err := h.WasButtonPressed(ctx, save)
	d.check(err)
	if pressed && d.store != nil {
		err := h.SaveState(ctx, d.store, snapshotName,
			[]string{amplitude, running}, []string{status})
		if d.check(err) {
			d.check(h.ChangeButtonColor(ctx, save, "#3CD070"))
		}
	}
}

// Logs err if it is not nil, and reports whether it is nil.
func (d *demo) check(err error) bool {
	if err != nil {
		logger.Println(err)
		return false
	}
	return true
}
