// Package headless implements an in-memory toolkit.
//
// Widgets are instantiated from a Template. They hold their state in memory
// and can be inspected through their accessors, which makes the toolkit
// suitable for tests, for the terminal dashboard and for running a render
// host without a display.
//
// Local input made by a human operator is simulated with methods such as
// Edit and Press. These can be called from any goroutine; the input is
// queued and applied when ProcessEvents is called from the loop goroutine,
// which is also when button callbacks fire.
package headless

import (
	"fmt"
	"sync"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/toolkit"
)

// Toolkit is an in-memory toolkit.
type Toolkit struct {
	title   string
	names   []string
	widgets map[string]toolkit.Widget

	mu     sync.Mutex
	events []func()
}

var _ toolkit.Toolkit = (*Toolkit)(nil)

// New builds a toolkit from a template.
func New(t *Template) (*Toolkit, error) {
	tk := &Toolkit{title: t.Title, widgets: make(map[string]toolkit.Widget)}
	for i, spec := range t.Widgets {
		if spec.Name == "" {
			return nil, fmt.Errorf("widget %d: empty name", i)
		}
		if _, dup := tk.widgets[spec.Name]; dup {
			return nil, fmt.Errorf("widget %s: duplicate name", spec.Name)
		}
		w, err := newWidget(spec)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", spec.Name, err)
		}
		tk.widgets[spec.Name] = w
		tk.names = append(tk.names, spec.Name)
	}
	return tk, nil
}

func newWidget(spec WidgetSpec) (toolkit.Widget, error) {
	switch spec.Kind {
	case KindPlot:
		return &Plot{name: spec.Name}, nil
	case KindLegend:
		return &Legend{name: spec.Name}, nil
	case KindNumber:
		n := &Number{name: spec.Name}
		n.Display(fmt.Sprint(spec.Value))
		return n, nil
	case KindSpinBox:
		return &SpinBox{name: spec.Name, value: spec.Value}, nil
	case KindCheckBox:
		return &CheckBox{name: spec.Name, checked: spec.Checked}, nil
	case KindLabel:
		return &Label{name: spec.Name, text: spec.Text}, nil
	case KindButton:
		return &Button{name: spec.Name}, nil
	case KindList, KindCombo:
		l := &ItemList{name: spec.Name, kind: spec.Kind, items: spec.Items, current: -1}
		if spec.Current != nil {
			l.SetCurrentIndex(*spec.Current)
		} else if spec.Kind == KindCombo && len(spec.Items) > 0 {
			l.current = 0
		}
		return l, nil
	case "":
		return nil, fmt.Errorf("missing kind")
	default:
		return nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}
}

// Title returns the title from the template.
func (tk *Toolkit) Title() string { return tk.title }

// Names returns the names of all widgets, in template order.
func (tk *Toolkit) Names() []string { return tk.names }

// Widget returns the widget with the given name.
func (tk *Toolkit) Widget(name string) (toolkit.Widget, bool) {
	w, ok := tk.widgets[name]
	return w, ok
}

// ProcessEvents applies all queued local input.
func (tk *Toolkit) ProcessEvents() {
	tk.mu.Lock()
	events := tk.events
	tk.events = nil
	tk.mu.Unlock()
	for _, ev := range events {
		ev()
	}
}

// Pending returns the number of queued input events.
func (tk *Toolkit) Pending() int {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	return len(tk.events)
}

// Edit simulates typing a number into a spin box.
func (tk *Toolkit) Edit(name string, v float64) error {
	w, err := lookup[*SpinBox](tk, name)
	if err != nil {
		return err
	}
	tk.post(func() { w.SetValue(v) })
	return nil
}

// Check simulates toggling a check box.
func (tk *Toolkit) Check(name string, checked bool) error {
	w, err := lookup[*CheckBox](tk, name)
	if err != nil {
		return err
	}
	tk.post(func() { w.SetChecked(checked) })
	return nil
}

// Type simulates editing the text of a label.
func (tk *Toolkit) Type(name, text string) error {
	w, err := lookup[*Label](tk, name)
	if err != nil {
		return err
	}
	tk.post(func() { w.SetText(text) })
	return nil
}

// Press simulates pressing a button down.
func (tk *Toolkit) Press(name string) error {
	w, err := lookup[*Button](tk, name)
	if err != nil {
		return err
	}
	tk.post(w.press)
	return nil
}

// Release simulates releasing a button.
func (tk *Toolkit) Release(name string) error {
	w, err := lookup[*Button](tk, name)
	if err != nil {
		return err
	}
	tk.post(w.release)
	return nil
}

// Click simulates a press followed by a release.
func (tk *Toolkit) Click(name string) error {
	if err := tk.Press(name); err != nil {
		return err
	}
	return tk.Release(name)
}

// Select simulates choosing an item of a list or combo box.
func (tk *Toolkit) Select(name string, i int) error {
	w, err := lookup[*ItemList](tk, name)
	if err != nil {
		return err
	}
	tk.post(func() { w.SetCurrentIndex(i) })
	return nil
}

func (tk *Toolkit) post(ev func()) {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	tk.events = append(tk.events, ev)
}

// The widget map is never modified after New, so lookup is safe to call from
// any goroutine.
func lookup[W toolkit.Widget](tk *Toolkit, name string) (W, error) {
	var zero W
	w, ok := tk.widgets[name]
	if !ok {
		return zero, fmt.Errorf("%s: %w", name, api.ErrNoWidget)
	}
	typed, ok := w.(W)
	if !ok {
		return zero, fmt.Errorf("%s: %w", name, api.ErrTypeMismatch)
	}
	return typed, nil
}
