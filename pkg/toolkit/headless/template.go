package headless

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/must"
)

// Template describes the widgets of a headless toolkit. It is usually
// written in YAML:
//
//	title: monitor
//	widgets:
//	  - {name: graph_widget_1, kind: plot}
//	  - {name: legend_widget_1, kind: legend}
//	  - {name: number_widget_1, kind: number}
//	  - name: clients
//	    kind: list
//	    items:
//	      - {text: wavemeter, annotation: "10.0.0.2:9000"}
type Template struct {
	Title   string       `yaml:"title"`
	Widgets []WidgetSpec `yaml:"widgets"`
}

// WidgetSpec describes one widget. Which of the optional fields are used
// depends on Kind.
type WidgetSpec struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	// Initial value of number and spinbox widgets.
	Value float64 `yaml:"value"`
	// Initial state of checkbox widgets.
	Checked bool `yaml:"checked"`
	// Initial text of label widgets.
	Text string `yaml:"text"`
	// Items of list and combo widgets.
	Items []api.Item `yaml:"items"`
	// Initial current index of list and combo widgets. Defaults to -1 for
	// lists and 0 for non-empty combos.
	Current *int `yaml:"current"`
}

// Kind is the kind of a headless widget.
type Kind string

// Supported widget kinds.
const (
	KindPlot     Kind = "plot"
	KindLegend   Kind = "legend"
	KindNumber   Kind = "number"
	KindSpinBox  Kind = "spinbox"
	KindCheckBox Kind = "checkbox"
	KindLabel    Kind = "label"
	KindButton   Kind = "button"
	KindList     Kind = "list"
	KindCombo    Kind = "combo"
)

//go:embed default.yaml
var defaultTemplate []byte

// DefaultTemplate returns the template used when none is specified.
func DefaultTemplate() *Template {
	return must.OK1(ParseTemplate(defaultTemplate))
}

// LoadTemplate reads a template from a YAML file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTemplate parses a template from YAML. Unknown fields are rejected.
func ParseTemplate(data []byte) (*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var t Template
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &t, nil
}
