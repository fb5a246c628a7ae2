// Package api defines the wire protocol between render hosts and remote
// control clients: method names, parameter and result types, and the errors
// that can cross the process boundary.
//
// Parameters that are not plain strings, numbers or booleans (curve data,
// error bars and scalar values) are carried as bytes encoded with the codec
// package.
package api

// Version is the protocol version. It should be bumped any time the API
// changes.
const Version = 3

// Names of RPC methods.
const (
	MethodHello = "hello"
	MethodClose = "close"

	MethodForceUpdate = "force_update"

	// Configuration methods. These are sent as notifications and queued by the
	// host.
	MethodAssignPlot        = "assign_plot"
	MethodClearPlot         = "clear_plot"
	MethodAssignCurve       = "assign_curve"
	MethodRemoveCurve       = "remove_curve"
	MethodAssignScalar      = "assign_scalar"
	MethodAssignLabel       = "assign_label"
	MethodAssignEventButton = "assign_event_button"
	MethodAssignContainer   = "assign_container"

	// Data methods.
	MethodSetCurveData     = "set_curve_data"
	MethodSetScalar        = "set_scalar"
	MethodGetScalar        = "get_scalar"
	MethodActivateScalar   = "activate_scalar"
	MethodDeactivateScalar = "deactivate_scalar"
	MethodSetLabel         = "set_label"
	MethodGetText          = "get_text"

	MethodWasButtonPressed  = "was_button_pressed"
	MethodWasButtonReleased = "was_button_released"
	MethodIsPressed         = "is_pressed"
	MethodResetButton       = "reset_button"
	MethodChangeButtonColor = "change_button_color"

	MethodGetContainerInfo = "get_container_info"
	MethodGetItemText      = "get_item_text"
	MethodGetItemIndex     = "get_item_index"
	MethodSetItemIndex     = "set_item_index"
)

type HelloParams struct {
	ClientID string `json:"client_id"`
	Version  int    `json:"version"`
}

type HelloResult struct {
	Version int `json:"version"`
	Pid     int `json:"pid"`
}

type AssignPlotParams struct {
	PlotWidget   string `json:"plot_widget"`
	PlotLabel    string `json:"plot_label"`
	LegendWidget string `json:"legend_widget"`
}

type ClearPlotParams struct {
	PlotWidget string `json:"plot_widget"`
}

type AssignCurveParams struct {
	PlotLabel  string `json:"plot_label"`
	CurveLabel string `json:"curve_label"`
	Error      bool   `json:"error"`
}

type RemoveCurveParams struct {
	PlotLabel  string `json:"plot_label"`
	CurveLabel string `json:"curve_label"`
}

// AssignWidgetParams is used by assign_scalar, assign_label,
// assign_event_button and assign_container.
type AssignWidgetParams struct {
	Widget string `json:"widget"`
	Label  string `json:"label"`
}

type SetCurveDataParams struct {
	PlotLabel  string `json:"plot_label"`
	CurveLabel string `json:"curve_label"`
	// Encoded Samples.
	Data []byte `json:"data"`
	// Encoded []float64, or empty.
	Error []byte `json:"error,omitempty"`
}

// LabelParams is used by all methods that only take a widget label.
type LabelParams struct {
	Label string `json:"label"`
}

type SetScalarParams struct {
	Label string `json:"label"`
	// Encoded Value.
	Value []byte `json:"value"`
}

type ScalarResult struct {
	// Encoded Value.
	Value []byte `json:"value"`
}

type SetLabelParams struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type TextResult struct {
	Text string `json:"text"`
}

type BoolResult struct {
	Value bool `json:"value"`
}

type ButtonColorParams struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// ItemParams is used by get_item_text and set_item_index. For get_item_text, a
// negative index refers to the current item.
type ItemParams struct {
	Label string `json:"label"`
	Index int    `json:"index"`
}

type IndexResult struct {
	Index int `json:"index"`
}

// ContainerInfo describes the state of a list or choice widget.
type ContainerInfo struct {
	// Index of the current item, or -1 if there is none.
	Selected int    `json:"selected"`
	Items    []Item `json:"items"`
}

// Item is an entry of a container. Annotation is free-form text attached to
// the item, such as a tooltip.
type Item struct {
	Text       string `json:"text" yaml:"text"`
	Annotation string `json:"annotation,omitempty" yaml:"annotation"`
}
