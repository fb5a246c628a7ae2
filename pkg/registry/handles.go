package registry

import (
	"fmt"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/toolkit"
)

// Scalar is a scalar handle. It is bound to a widget that shows a boolean or
// a number.
//
// While the scalar is active, the widget shows Data and is redrawn on every
// tick. While it is inactive, the widget is left to local input and Get
// reads the widget.
type Scalar struct {
	label  string
	widget string
	// Resolved when the scalar is assigned.
	check   toolkit.Checkable
	display toolkit.NumberDisplay
	input   toolkit.NumberInput

	Data   api.Value
	Active bool
}

func (s *Scalar) Label() string  { return s.label }
func (s *Scalar) Widget() string { return s.widget }

// Set stores a value, to be shown on the next redraw if the scalar is
// active.
func (s *Scalar) Set(v api.Value) { s.Data = v }

// Get returns the stored value if the scalar is active, and the value shown
// by the widget otherwise.
func (s *Scalar) Get() api.Value {
	if s.Active {
		return s.Data
	}
	return s.physical()
}

func (s *Scalar) Activate() { s.Active = true }

// Deactivate hands the widget over to local input. The widget is first
// synchronized with the stored value once.
func (s *Scalar) Deactivate() {
	if s.Active {
		s.render()
	}
	s.Active = false
}

func (s *Scalar) physical() api.Value {
	switch {
	case s.check != nil:
		return api.Bool(s.check.Checked())
	case s.input != nil:
		return api.Number(s.input.Value())
	case s.display != nil:
		return api.Number(s.display.Value())
	}
	return api.Value{}
}

// Shows Data on the widget. Values the widget cannot show are ignored.
func (s *Scalar) render() {
	if b, ok := s.Data.AsBool(); ok {
		if s.check != nil && s.check.Checked() != b {
			s.check.SetChecked(b)
		}
		return
	}
	if f, ok := s.Data.AsNumber(); ok {
		switch {
		case s.display != nil:
			if s.display.Value() != f {
				s.display.Display(fmt.Sprintf("%.6f", f))
			}
		case s.input != nil:
			if s.input.Value() != f {
				s.input.SetValue(f)
			}
		}
	}
}

// Label is a text label handle.
type Label struct {
	label  string
	widget toolkit.TextDisplay
	text   string
	dirty  bool
}

func (l *Label) Label() string { return l.label }

// SetText stores text, to be shown on the next redraw.
func (l *Label) SetText(text string) { l.text, l.dirty = text, true }

// Text returns the text of the label: the text last set if it has not been
// redrawn yet, and the text shown by the widget otherwise.
func (l *Label) Text() string {
	if l.dirty {
		return l.text
	}
	return l.widget.Text()
}

func (l *Label) redraw() {
	if l.dirty {
		l.dirty = false
		l.widget.SetText(l.text)
	}
}

// Button is an event button handle. The pushed and released flags are set
// by the button's events and cleared when read.
type Button struct {
	label    string
	widget   toolkit.PushButton
	pushed   bool
	released bool
}

func (b *Button) Label() string { return b.label }

// WasPushed reports whether the button was pushed since the last call, and
// clears the flag.
func (b *Button) WasPushed() bool {
	v := b.pushed
	b.pushed = false
	return v
}

// WasReleased reports whether the button was released since the last call,
// and clears the flag.
func (b *Button) WasReleased() bool {
	v := b.released
	b.released = false
	return v
}

// IsDown reports whether the button is currently held down.
func (b *Button) IsDown() bool { return b.widget.IsDown() }

// Reset clears both flags.
func (b *Button) Reset() { b.pushed, b.released = false, false }

func (b *Button) SetColor(color string) { b.widget.SetColor(color) }

// Container is a read-mostly view over a list or choice widget.
type Container struct {
	label string
	view  toolkit.ItemView
}

func (c *Container) Label() string { return c.label }

func (c *Container) Info() api.ContainerInfo {
	return api.ContainerInfo{
		Selected: c.view.CurrentIndex(),
		Items:    append([]api.Item(nil), c.view.Items()...),
	}
}

// ItemText returns the text of an item. A negative index refers to the
// current item.
func (c *Container) ItemText(i int) (string, error) {
	if i < 0 {
		i = c.view.CurrentIndex()
	}
	items := c.view.Items()
	if i < 0 || i >= len(items) {
		return "", fmt.Errorf("container %s: no item at %d: %w", c.label, i, api.ErrInvalidParams)
	}
	return items[i].Text, nil
}

func (c *Container) ItemIndex() int { return c.view.CurrentIndex() }

func (c *Container) SetItemIndex(i int) { c.view.SetCurrentIndex(i) }
