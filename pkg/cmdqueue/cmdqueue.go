// Package cmdqueue implements the deferred queue of configuration requests.
//
// Configuration requests (creating and removing plots, curves and widget
// bindings) are not applied when they arrive. They are appended to a Queue
// and applied by the render host at the start of each tick. A request that
// cannot be applied yet, typically because it refers to a plot that has not
// been created, stays in the queue and is retried on the next tick.
//
// Queues are not safe for concurrent use; they are owned by the render host
// loop.
package cmdqueue

import (
	"errors"
	"fmt"

	"src.guictl.dev/pkg/api"
)

// Kind is the kind of a request.
type Kind int

// Request kinds, in the order they are drained.
const (
	RemovePlot Kind = iota
	AssignPlot
	AssignCurve
	AssignScalar
	AssignLabel
	AssignButton
	AssignContainer
	RemoveCurve
	nKinds
)

var kindNames = [nKinds]string{
	"RemovePlot", "AssignPlot", "AssignCurve", "AssignScalar", "AssignLabel",
	"AssignButton", "AssignContainer", "RemoveCurve",
}

func (k Kind) String() string {
	if k < 0 || k >= nKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Request is a pending configuration request. Which fields are used depends
// on Kind:
//
//   - AssignPlot: Widget, Label and Legend
//   - RemovePlot: Widget
//   - AssignCurve: Plot, Label and ErrorBars
//   - RemoveCurve: Plot and Label
//   - other kinds: Widget and Label
type Request struct {
	Kind      Kind
	Widget    string
	Legend    string
	Plot      string
	Label     string
	ErrorBars bool
}

func (r Request) String() string {
	switch r.Kind {
	case AssignPlot:
		return fmt.Sprintf("%v(%s, %s, %s)", r.Kind, r.Widget, r.Label, r.Legend)
	case RemovePlot:
		return fmt.Sprintf("%v(%s)", r.Kind, r.Widget)
	case AssignCurve:
		return fmt.Sprintf("%v(%s, %s, error=%v)", r.Kind, r.Plot, r.Label, r.ErrorBars)
	case RemoveCurve:
		return fmt.Sprintf("%v(%s, %s)", r.Kind, r.Plot, r.Label)
	default:
		return fmt.Sprintf("%v(%s, %s)", r.Kind, r.Widget, r.Label)
	}
}

// ErrQueueFull is returned by Enqueue when the queue holds MaxLen requests.
var ErrQueueFull = errors.New("command queue full")

// Options configures a Queue.
type Options struct {
	// Maximum number of pending requests. Zero means no limit.
	MaxLen int
	// Number of failed attempts after which a request is dropped. Zero means
	// requests are retried forever.
	MaxRetries int
	// Called when a request is dropped, with the error of the last attempt.
	OnDrop func(req Request, attempts int, err error)
}

// Queue holds pending requests, one FIFO per kind.
type Queue struct {
	opts    Options
	pending [nKinds][]*entry
	n       int
}

type entry struct {
	req      Request
	attempts int
}

// New creates a Queue.
func New(opts Options) *Queue {
	return &Queue{opts: opts}
}

// Enqueue appends a request. It never blocks and does not validate the
// request.
func (q *Queue) Enqueue(req Request) error {
	if req.Kind < 0 || req.Kind >= nKinds {
		return fmt.Errorf("enqueue %v: %w", req.Kind, api.ErrInvalidParams)
	}
	if q.opts.MaxLen > 0 && q.n >= q.opts.MaxLen {
		return fmt.Errorf("enqueue %v: %w", req, ErrQueueFull)
	}
	q.pending[req.Kind] = append(q.pending[req.Kind], &entry{req: req})
	q.n++
	return nil
}

// Applier applies requests.
type Applier interface {
	Apply(req Request) error
}

// ApplierFunc adapts a function to an Applier.
type ApplierFunc func(req Request) error

func (f ApplierFunc) Apply(req Request) error { return f(req) }

// DrainAndApply attempts to apply every pending request once, kind by kind
// in drain order and first-in first-out within a kind. A request is removed
// when it is applied, or when applying it returns api.ErrDuplicate. It stays
// queued on any other error unless it has exhausted its retries. It returns
// the number of requests removed.
//
// The Applier must not call methods of q.
func (q *Queue) DrainAndApply(a Applier) int {
	removed := 0
	for k := range q.pending {
		entries := q.pending[k]
		kept := entries[:0]
		for _, e := range entries {
			err := a.Apply(e.req)
			if err == nil || errors.Is(err, api.ErrDuplicate) {
				removed++
				continue
			}
			e.attempts++
			if q.opts.MaxRetries > 0 && e.attempts >= q.opts.MaxRetries {
				if q.opts.OnDrop != nil {
					q.opts.OnDrop(e.req, e.attempts, err)
				}
				removed++
				continue
			}
			kept = append(kept, e)
		}
		clear(entries[len(kept):])
		q.pending[k] = kept
	}
	q.n -= removed
	return removed
}

// Len returns the number of pending requests.
func (q *Queue) Len() int { return q.n }

// LenKind returns the number of pending requests of a kind.
func (q *Queue) LenKind(k Kind) int {
	if k < 0 || k >= nKinds {
		return 0
	}
	return len(q.pending[k])
}

// Pending returns a copy of all pending requests in drain order.
func (q *Queue) Pending() []Request {
	reqs := make([]Request, 0, q.n)
	for _, entries := range q.pending {
		for _, e := range entries {
			reqs = append(reqs, e.req)
		}
	}
	return reqs
}
