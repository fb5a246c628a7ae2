package registry

import (
	"fmt"
	"slices"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/toolkit"
)

// Curve colors, picked by the number of curves already on the plot.
var palette = [...]string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
	"#008080", "#e6beff", "#9a6324", "#fffac8", "#800000",
	"#aaffc3", "#808000", "#ffd8b1", "#000075", "#808080",
}

// LegendName returns the name of the legend entry for a curve.
func LegendName(curve string) string { return " - " + curve }

// Plot is a plot handle.
type Plot struct {
	label   string
	widget  string
	surface toolkit.PlotSurface
	legend  toolkit.LegendSurface
	curves  map[string]*Curve
	order   []string
}

func (p *Plot) Label() string  { return p.label }
func (p *Plot) Widget() string { return p.widget }

// Curves returns the labels of the plot's curves in the order they were
// added.
func (p *Plot) Curves() []string { return slices.Clone(p.order) }

// Curve is a curve handle.
type Curve struct {
	label     string
	color     string
	errorBars bool
	series    toolkit.Series

	// Data and ErrorData are replaced wholesale by SetData.
	Data      api.Samples
	ErrorData []float64
	dirty     bool
}

func (c *Curve) Label() string      { return c.label }
func (c *Curve) Color() string      { return c.color }
func (c *Curve) HasErrorBars() bool { return c.errorBars }

// SetData replaces the data of the curve. The physical series is updated on
// the next redraw.
func (c *Curve) SetData(data api.Samples, errs []float64) {
	c.Data, c.ErrorData, c.dirty = data, errs, true
}

func (c *Curve) redraw() {
	if !c.dirty {
		return
	}
	c.dirty = false
	x, y := c.Data.Split()
	c.series.SetData(x, y)
	if c.errorBars {
		c.series.SetErrors(c.ErrorData)
	}
}

// AssignPlot creates a plot on a plot surface, with its legend on a legend
// surface. The plot's title is set to its label.
func (r *Registry) AssignPlot(widget, label, legend string) error {
	if _, ok := r.plots[label]; ok {
		return fmt.Errorf("plot %s: %w", label, api.ErrDuplicate)
	}
	if p := r.plotOn(widget); p != nil {
		return fmt.Errorf("%s already shows plot %s: %w", widget, p.label, api.ErrDuplicate)
	}
	surface, err := widgetAs[toolkit.PlotSurface](r.tk, widget)
	if err != nil {
		return err
	}
	leg, err := widgetAs[toolkit.LegendSurface](r.tk, legend)
	if err != nil {
		return err
	}
	surface.SetTitle(label)
	r.plots[label] = &Plot{
		label: label, widget: widget, surface: surface, legend: leg,
		curves: make(map[string]*Curve),
	}
	r.version++
	return nil
}

// RemovePlot removes the plot shown on a plot surface, after removing all of
// its curves.
func (r *Registry) RemovePlot(widget string) error {
	p := r.plotOn(widget)
	if p == nil {
		return fmt.Errorf("no plot on %s: %w", widget, api.ErrNotConfigured)
	}
	for _, cl := range p.Curves() {
		p.removeCurve(cl)
	}
	delete(r.plots, p.label)
	r.version++
	return nil
}

func (r *Registry) plotOn(widget string) *Plot {
	for _, p := range r.plots {
		if p.widget == widget {
			return p
		}
	}
	return nil
}

// AssignCurve adds a curve to a plot, along with a legend entry.
func (r *Registry) AssignCurve(plot, curve string, errorBars bool) error {
	p, err := r.Plot(plot)
	if err != nil {
		return err
	}
	if _, ok := p.curves[curve]; ok {
		return fmt.Errorf("curve %s/%s: %w", plot, curve, api.ErrDuplicate)
	}
	color := palette[len(p.curves)%len(palette)]
	p.curves[curve] = &Curve{
		label: curve, color: color, errorBars: errorBars,
		series: p.surface.AddSeries(color, errorBars),
	}
	p.order = append(p.order, curve)
	p.legend.AddItem(LegendName(curve), color)
	r.version++
	return nil
}

// RemoveCurve removes a curve from a plot, along with its legend entry.
func (r *Registry) RemoveCurve(plot, curve string) error {
	p, err := r.Plot(plot)
	if err != nil {
		return err
	}
	if _, ok := p.curves[curve]; !ok {
		return fmt.Errorf("curve %s/%s: %w", plot, curve, api.ErrNotConfigured)
	}
	p.removeCurve(curve)
	r.version++
	return nil
}

func (p *Plot) removeCurve(label string) {
	c := p.curves[label]
	p.legend.RemoveItem(LegendName(label))
	p.surface.RemoveSeries(c.series)
	delete(p.curves, label)
	p.order = slices.DeleteFunc(p.order, func(s string) bool { return s == label })
}

// Plot returns the plot handle with the given label.
func (r *Registry) Plot(label string) (*Plot, error) {
	return getHandle(r.plots, "plot", label)
}

// Curve returns the curve handle with the given plot and curve labels.
func (r *Registry) Curve(plot, curve string) (*Curve, error) {
	p, err := r.Plot(plot)
	if err != nil {
		return nil, err
	}
	c, ok := p.curves[curve]
	if !ok {
		return nil, fmt.Errorf("curve %s/%s: %w", plot, curve, api.ErrNotConfigured)
	}
	return c, nil
}
