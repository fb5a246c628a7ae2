// Package toolkit describes the physical widgets a render host drives.
//
// A Toolkit is a set of named widgets, usually instantiated from a template.
// The render host never asks for a widget's concrete type. Instead it
// discovers capabilities by asserting against the interfaces in this package,
// once, when a label is bound to a widget.
//
// All methods of Toolkit and of widgets are called from the render host's
// loop goroutine only.
package toolkit

import "src.guictl.dev/pkg/api"

// Toolkit is a set of physical widgets.
type Toolkit interface {
	// Widget returns the widget with the given name.
	Widget(name string) (Widget, bool)
	// ProcessEvents handles pending local input, such as edits and button
	// presses made by a human operator. It must not block.
	ProcessEvents()
}

// Widget is a physical widget.
type Widget interface {
	Name() string
}

// PlotSurface can draw data series.
type PlotSurface interface {
	Widget
	SetTitle(title string)
	// AddSeries adds a series drawn with the given color. If errorBars is
	// true, the series can also draw error bars.
	AddSeries(color string, errorBars bool) Series
	RemoveSeries(s Series)
}

// Series is one data series of a PlotSurface.
type Series interface {
	// SetData replaces the data of the series. x may be nil, in which case y
	// is plotted against its indices.
	SetData(x, y []float64)
	// SetErrors replaces the error bar lengths. It has no effect on a series
	// created without error bars.
	SetErrors(e []float64)
}

// LegendSurface holds legend entries.
type LegendSurface interface {
	Widget
	AddItem(name, color string)
	RemoveItem(name string)
	ItemCount() int
}

// Checkable is a widget showing a boolean, such as a check box or an
// indicator light.
type Checkable interface {
	Widget
	Checked() bool
	SetChecked(checked bool)
}

// NumberDisplay is a read-only numeric display, such as an LCD number.
type NumberDisplay interface {
	Widget
	Display(text string)
	Value() float64
}

// NumberInput is an editable numeric field, such as a spin box.
type NumberInput interface {
	Widget
	Value() float64
	SetValue(v float64)
}

// TextDisplay shows text.
type TextDisplay interface {
	Widget
	Text() string
	SetText(text string)
}

// PushButton is a button a human operator can press.
type PushButton interface {
	Widget
	// OnPressed and OnReleased register callbacks. Callbacks are invoked from
	// ProcessEvents.
	OnPressed(f func())
	OnReleased(f func())
	IsDown() bool
	SetColor(color string)
}

// ItemView is a list or choice widget.
type ItemView interface {
	Widget
	Items() []api.Item
	// CurrentIndex returns the index of the current item, or -1.
	CurrentIndex() int
	SetCurrentIndex(i int)
}
