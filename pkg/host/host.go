// Package host implements the render host: the process that owns a toolkit
// and lets remote clients configure and drive its widgets.
//
// All widget state is owned by a single loop goroutine started by Run. Other
// goroutines, such as those serving client connections, never touch it
// directly. Configuration requests and reads are sent to the loop through an
// inbox of closures; data pushes are left in a mailbox where later values
// replace earlier ones, and are picked up by the loop.
//
// On every tick, the loop applies pending data, tries to apply queued
// configuration requests, redraws the widgets and lets the toolkit process
// local input.
package host

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/cmdqueue"
	"src.guictl.dev/pkg/logutil"
	"src.guictl.dev/pkg/registry"
	"src.guictl.dev/pkg/toolkit"
)

var defaultLogger = logutil.GetLogger("[host] ")

// ErrStopped is returned by operations on a Host whose loop is stopping or
// has stopped.
var ErrStopped = api.ErrStopped

// Default values of Options fields.
const (
	DefaultTickInterval = 20 * time.Millisecond
	DefaultMaxQueue     = 4096
	// Buffer size of the inbox. The value is chosen for no particular reason.
	DefaultInboxSize = 128
)

// Options keeps options for a Host. Zero values are replaced with defaults.
type Options struct {
	TickInterval time.Duration
	// Maximum number of queued configuration requests. The queue is always
	// bounded; zero or less means DefaultMaxQueue.
	MaxQueue int
	// Number of attempts after which a configuration request that cannot be
	// applied is dropped. Zero means retrying forever.
	MaxRetries int
	InboxSize  int
	Logger     *log.Logger
}

// Host is a render host.
type Host struct {
	tk       toolkit.Toolkit
	reg      *registry.Registry
	queue    *cmdqueue.Queue
	logger   *log.Logger
	interval time.Duration

	inbox    chan func()
	mailbox  *mailbox
	snapshot atomic.Pointer[registry.Snapshot]
	ticks    atomic.Uint64

	onStop    []func()
	afterTick []func()

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates a Host for a toolkit. The loop is not started until Run is
// called.
func New(tk toolkit.Toolkit, opts Options) *Host {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.MaxQueue <= 0 {
		opts.MaxQueue = DefaultMaxQueue
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	if opts.Logger == nil {
		opts.Logger = defaultLogger
	}
	logger := opts.Logger
	h := &Host{
		tk:     tk,
		reg:    registry.New(tk, logger),
		logger: logger,
		queue: cmdqueue.New(cmdqueue.Options{
			MaxLen:     opts.MaxQueue,
			MaxRetries: opts.MaxRetries,
			OnDrop: func(req cmdqueue.Request, attempts int, err error) {
				logger.Printf("dropping %v after %d attempts: %v", req, attempts, err)
			},
		}),
		interval: opts.TickInterval,
		inbox:    make(chan func(), opts.InboxSize),
		mailbox:  newMailbox(),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	h.snapshot.Store(h.reg.Snapshot())
	return h
}

// OnStop adds a function to be called when the loop stops, before Run
// returns. It must be called before Run.
func (h *Host) OnStop(f func()) { h.onStop = append(h.onStop, f) }

// AfterTick adds a function to be called from the loop goroutine at the end
// of every tick. It must be called before Run.
func (h *Host) AfterTick(f func()) { h.afterTick = append(h.afterTick, f) }

// Stop asks the loop to stop. It never blocks and can be called more than
// once. Operations started after Stop fail with ErrStopped.
func (h *Host) Stop() { h.stopOnce.Do(func() { close(h.stopCh) }) }

// Done returns a channel that is closed after the loop has stopped.
func (h *Host) Done() <-chan struct{} { return h.done }

// Ticks returns the number of ticks run so far.
func (h *Host) Ticks() uint64 { return h.ticks.Load() }

// Pending returns the number of queued configuration requests. It must be
// called from the loop goroutine, for example from an AfterTick function.
func (h *Host) Pending() int { return h.queue.Len() }

// Run runs the loop until ctx is done or Stop is called. It must be called
// at most once.
func (h *Host) Run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	h.logger.Println("loop started, tick interval", h.interval)

loop:
	for {
		select {
		case f := <-h.inbox:
			// Consume all pending messages before the next tick.
		consumeAll:
			for {
				h.flush()
				f()
				select {
				case f = <-h.inbox:
				default:
					break consumeAll
				}
			}
		case <-ticker.C:
			h.tick()
		case <-h.stopCh:
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	h.Stop()
	h.logger.Println("loop stopped after", h.Ticks(), "ticks")
	for _, f := range h.onStop {
		f()
	}
}

func (h *Host) tick() {
	h.flush()
	h.queue.DrainAndApply(h.reg)
	if h.reg.Version() != h.snapshot.Load().Version {
		h.snapshot.Store(h.reg.Snapshot())
	}
	h.reg.Redraw()
	h.tk.ProcessEvents()
	for _, f := range h.afterTick {
		f()
	}
	h.ticks.Add(1)
}

// Applies data pushes left in the mailbox.
func (h *Host) flush() {
	curves, scalars, labels := h.mailbox.take()
	for k, d := range curves {
		c, err := h.reg.Curve(k.plot, k.curve)
		if err != nil {
			h.logger.Println("dropping curve data:", err)
			continue
		}
		c.SetData(d.data, d.errs)
	}
	for label, v := range scalars {
		s, err := h.reg.Scalar(label)
		if err != nil {
			h.logger.Println("dropping scalar value:", err)
			continue
		}
		s.Set(v)
	}
	for label, text := range labels {
		l, err := h.reg.Label(label)
		if err != nil {
			h.logger.Println("dropping label text:", err)
			continue
		}
		l.SetText(text)
	}
}

// Reports whether the loop is stopping or has stopped.
func (h *Host) stopping() bool {
	select {
	case <-h.stopCh:
		return true
	default:
		return false
	}
}

// Sends f to the loop goroutine.
func (h *Host) post(ctx context.Context, f func()) error {
	if h.stopping() {
		return ErrStopped
	}
	select {
	case h.inbox <- f:
		return nil
	case <-h.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runs f on the loop goroutine and waits for its result.
func call[T any](ctx context.Context, h *Host, f func() (T, error)) (T, error) {
	var (
		result T
		err    error
		zero   T
	)
	finished := make(chan struct{})
	postErr := h.post(ctx, func() {
		result, err = f()
		close(finished)
	})
	if postErr != nil {
		return zero, postErr
	}
	select {
	case <-finished:
		return result, err
	case <-h.stopCh:
		select {
		case <-finished:
			return result, err
		default:
			return zero, ErrStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Like call, for functions without a result.
func do(ctx context.Context, h *Host, f func() error) error {
	_, err := call(ctx, h, func() (struct{}, error) { return struct{}{}, f() })
	return err
}
