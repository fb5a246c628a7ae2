// Package registry maps the labels chosen by remote clients to the physical
// widgets of a toolkit.
//
// A Registry holds one handle per assigned label. Handles carry the data last
// pushed by clients; Redraw copies that data onto the physical widgets. The
// Registry is not safe for concurrent use: it is owned by the render host
// loop, which is also the only goroutine allowed to touch the toolkit.
package registry

import (
	"fmt"
	"log"
	"slices"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/cmdqueue"
	"src.guictl.dev/pkg/toolkit"
)

// Registry holds widget handles.
type Registry struct {
	tk     toolkit.Toolkit
	logger *log.Logger

	plots      map[string]*Plot
	scalars    map[string]*Scalar
	labels     map[string]*Label
	buttons    map[string]*Button
	containers map[string]*Container

	version uint64
}

// New creates an empty Registry for a toolkit.
func New(tk toolkit.Toolkit, logger *log.Logger) *Registry {
	return &Registry{
		tk: tk, logger: logger,
		plots:      make(map[string]*Plot),
		scalars:    make(map[string]*Scalar),
		labels:     make(map[string]*Label),
		buttons:    make(map[string]*Button),
		containers: make(map[string]*Container),
	}
}

// Version returns a number that changes whenever a handle is added or
// removed.
func (r *Registry) Version() uint64 { return r.version }

// Apply applies a configuration request.
func (r *Registry) Apply(req cmdqueue.Request) error {
	switch req.Kind {
	case cmdqueue.AssignPlot:
		return r.AssignPlot(req.Widget, req.Label, req.Legend)
	case cmdqueue.RemovePlot:
		return r.RemovePlot(req.Widget)
	case cmdqueue.AssignCurve:
		return r.AssignCurve(req.Plot, req.Label, req.ErrorBars)
	case cmdqueue.RemoveCurve:
		return r.RemoveCurve(req.Plot, req.Label)
	case cmdqueue.AssignScalar:
		return r.AssignScalar(req.Widget, req.Label)
	case cmdqueue.AssignLabel:
		return r.AssignLabel(req.Widget, req.Label)
	case cmdqueue.AssignButton:
		return r.AssignButton(req.Widget, req.Label)
	case cmdqueue.AssignContainer:
		return r.AssignContainer(req.Widget, req.Label)
	default:
		return fmt.Errorf("apply %v: %w", req.Kind, api.ErrInvalidParams)
	}
}

// Looks up a physical widget with capability W.
func widgetAs[W toolkit.Widget](tk toolkit.Toolkit, name string) (W, error) {
	var zero W
	w, ok := tk.Widget(name)
	if !ok {
		return zero, fmt.Errorf("%s: %w", name, api.ErrNoWidget)
	}
	typed, ok := w.(W)
	if !ok {
		return zero, fmt.Errorf("%s: %w", name, api.ErrNoWidget)
	}
	return typed, nil
}

func getHandle[H any](m map[string]*H, kind, label string) (*H, error) {
	h, ok := m[label]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, label, api.ErrNotConfigured)
	}
	return h, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AssignScalar binds a scalar label to a widget that can show a boolean or a
// number.
func (r *Registry) AssignScalar(widget, label string) error {
	if _, ok := r.scalars[label]; ok {
		return fmt.Errorf("scalar %s: %w", label, api.ErrDuplicate)
	}
	w, ok := r.tk.Widget(widget)
	if !ok {
		return fmt.Errorf("%s: %w", widget, api.ErrNoWidget)
	}
	s := &Scalar{label: label, widget: widget, Active: true}
	s.check, _ = w.(toolkit.Checkable)
	s.display, _ = w.(toolkit.NumberDisplay)
	s.input, _ = w.(toolkit.NumberInput)
	if s.check == nil && s.display == nil && s.input == nil {
		return fmt.Errorf("%s: %w", widget, api.ErrTypeMismatch)
	}
	r.scalars[label] = s
	r.version++
	return nil
}

// AssignLabel binds a text label to a widget.
func (r *Registry) AssignLabel(widget, label string) error {
	if _, ok := r.labels[label]; ok {
		return fmt.Errorf("label %s: %w", label, api.ErrDuplicate)
	}
	w, err := widgetAs[toolkit.TextDisplay](r.tk, widget)
	if err != nil {
		return err
	}
	r.labels[label] = &Label{label: label, widget: w}
	r.version++
	return nil
}

// AssignButton binds an event button label to a push button and subscribes
// to its events.
func (r *Registry) AssignButton(widget, label string) error {
	if _, ok := r.buttons[label]; ok {
		return fmt.Errorf("button %s: %w", label, api.ErrDuplicate)
	}
	w, err := widgetAs[toolkit.PushButton](r.tk, widget)
	if err != nil {
		return err
	}
	b := &Button{label: label, widget: w}
	w.OnPressed(func() { b.pushed = true })
	w.OnReleased(func() { b.released = true })
	r.buttons[label] = b
	r.version++
	return nil
}

// AssignContainer binds a container label to a list or choice widget.
func (r *Registry) AssignContainer(widget, label string) error {
	if _, ok := r.containers[label]; ok {
		return fmt.Errorf("container %s: %w", label, api.ErrDuplicate)
	}
	w, err := widgetAs[toolkit.ItemView](r.tk, widget)
	if err != nil {
		return err
	}
	r.containers[label] = &Container{label: label, view: w}
	r.version++
	return nil
}

// Scalar returns the scalar handle with the given label.
func (r *Registry) Scalar(label string) (*Scalar, error) {
	return getHandle(r.scalars, "scalar", label)
}

// Label returns the text label handle with the given label.
func (r *Registry) Label(label string) (*Label, error) {
	return getHandle(r.labels, "label", label)
}

// Button returns the button handle with the given label.
func (r *Registry) Button(label string) (*Button, error) {
	return getHandle(r.buttons, "button", label)
}

// Container returns the container handle with the given label.
func (r *Registry) Container(label string) (*Container, error) {
	return getHandle(r.containers, "container", label)
}

// Redraw copies handle data onto the physical widgets. A failure to update
// one widget is logged and does not prevent the others from being updated.
func (r *Registry) Redraw() {
	for _, pl := range sortedKeys(r.plots) {
		p := r.plots[pl]
		for _, cl := range p.order {
			c := p.curves[cl]
			r.guard("curve "+pl+"/"+cl, c.redraw)
		}
	}
	for _, label := range sortedKeys(r.scalars) {
		s := r.scalars[label]
		if s.Active {
			r.guard("scalar "+label, s.render)
		}
	}
	for _, label := range sortedKeys(r.labels) {
		r.guard("label "+label, r.labels[label].redraw)
	}
}

func (r *Registry) guard(what string, f func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("redraw %s: %v", what, rec)
		}
	}()
	f()
}
