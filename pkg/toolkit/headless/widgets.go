package headless

import (
	"slices"
	"strconv"
	"strings"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/toolkit"
)

// Plot is a headless plot surface.
type Plot struct {
	name   string
	title  string
	series []*Series
}

var _ toolkit.PlotSurface = (*Plot)(nil)

func (p *Plot) Name() string          { return p.name }
func (p *Plot) Title() string         { return p.title }
func (p *Plot) SetTitle(title string) { p.title = title }

// Series returns the series currently on the plot, in the order they were
// added.
func (p *Plot) Series() []*Series { return p.series }

func (p *Plot) AddSeries(color string, errorBars bool) toolkit.Series {
	s := &Series{color: color, errorBars: errorBars}
	p.series = append(p.series, s)
	return s
}

func (p *Plot) RemoveSeries(s toolkit.Series) {
	p.series = slices.DeleteFunc(p.series, func(t *Series) bool { return toolkit.Series(t) == s })
}

// Series is a data series of a headless Plot.
type Series struct {
	color     string
	errorBars bool
	x, y      []float64
	errs      []float64
}

func (s *Series) Color() string      { return s.color }
func (s *Series) HasErrorBars() bool { return s.errorBars }
func (s *Series) X() []float64       { return s.x }
func (s *Series) Y() []float64       { return s.y }
func (s *Series) Errors() []float64  { return s.errs }

func (s *Series) SetData(x, y []float64) { s.x, s.y = slices.Clone(x), slices.Clone(y) }

func (s *Series) SetErrors(e []float64) {
	if s.errorBars {
		s.errs = slices.Clone(e)
	}
}

// Legend is a headless legend surface.
type Legend struct {
	name  string
	items []LegendItem
}

// LegendItem is an entry of a Legend.
type LegendItem struct {
	Name  string
	Color string
}

var _ toolkit.LegendSurface = (*Legend)(nil)

func (l *Legend) Name() string        { return l.name }
func (l *Legend) Items() []LegendItem { return l.items }
func (l *Legend) ItemCount() int      { return len(l.items) }

func (l *Legend) AddItem(name, color string) {
	l.items = append(l.items, LegendItem{name, color})
}

// RemoveItem removes the first item with the given name.
func (l *Legend) RemoveItem(name string) {
	if i := slices.IndexFunc(l.items, func(it LegendItem) bool { return it.Name == name }); i >= 0 {
		l.items = slices.Delete(l.items, i, i+1)
	}
}

// Number is a read-only numeric display.
type Number struct {
	name  string
	text  string
	value float64
}

var _ toolkit.NumberDisplay = (*Number)(nil)

func (n *Number) Name() string   { return n.name }
func (n *Number) Text() string   { return n.text }
func (n *Number) Value() float64 { return n.value }

// Display shows text. If the text parses as a number, it also becomes the
// value of the display.
func (n *Number) Display(text string) {
	n.text = text
	if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		n.value = f
	}
}

// SpinBox is an editable numeric field.
type SpinBox struct {
	name  string
	value float64
}

var _ toolkit.NumberInput = (*SpinBox)(nil)

func (s *SpinBox) Name() string       { return s.name }
func (s *SpinBox) Value() float64     { return s.value }
func (s *SpinBox) SetValue(v float64) { s.value = v }

// CheckBox is an editable boolean.
type CheckBox struct {
	name    string
	checked bool
}

var _ toolkit.Checkable = (*CheckBox)(nil)

func (c *CheckBox) Name() string      { return c.name }
func (c *CheckBox) Checked() bool     { return c.checked }
func (c *CheckBox) SetChecked(b bool) { c.checked = b }

// Label shows text.
type Label struct {
	name string
	text string
}

var _ toolkit.TextDisplay = (*Label)(nil)

func (l *Label) Name() string        { return l.name }
func (l *Label) Text() string        { return l.text }
func (l *Label) SetText(text string) { l.text = text }

// Button is a push button.
type Button struct {
	name     string
	down     bool
	color    string
	pressed  []func()
	released []func()
}

var _ toolkit.PushButton = (*Button)(nil)

func (b *Button) Name() string          { return b.name }
func (b *Button) IsDown() bool          { return b.down }
func (b *Button) Color() string         { return b.color }
func (b *Button) SetColor(color string) { b.color = color }
func (b *Button) OnPressed(f func())    { b.pressed = append(b.pressed, f) }
func (b *Button) OnReleased(f func())   { b.released = append(b.released, f) }

func (b *Button) press() {
	b.down = true
	for _, f := range b.pressed {
		f()
	}
}

func (b *Button) release() {
	b.down = false
	for _, f := range b.released {
		f()
	}
}

// ItemList is a list or combo box.
type ItemList struct {
	name    string
	kind    Kind
	items   []api.Item
	current int
}

var _ toolkit.ItemView = (*ItemList)(nil)

func (l *ItemList) Name() string      { return l.name }
func (l *ItemList) Kind() Kind        { return l.kind }
func (l *ItemList) Items() []api.Item { return l.items }
func (l *ItemList) CurrentIndex() int { return l.current }

// SetCurrentIndex sets the current item. Out-of-range indices clear the
// selection.
func (l *ItemList) SetCurrentIndex(i int) {
	if i < 0 || i >= len(l.items) {
		i = -1
	}
	l.current = i
}
