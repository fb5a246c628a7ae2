// Package dashboard shows the state of a headless toolkit on a terminal.
package dashboard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"src.guictl.dev/pkg/sys"
	"src.guictl.dev/pkg/toolkit/headless"
)

// Cursor home followed by erase display.
const clearScreen = "\033[H\033[2J"

// Dashboard renders the widgets of a headless toolkit.
type Dashboard struct {
	out  io.Writer
	tk   *headless.Toolkit
	r    *lipgloss.Renderer
	last string

	title  lipgloss.Style
	box    lipgloss.Style
	name   lipgloss.Style
	kind   lipgloss.Style
	active lipgloss.Style
}

// Enabled reports whether a dashboard should be drawn on f.
func Enabled(f *os.File) bool { return sys.IsATTYFile(f) }

// New creates a Dashboard that draws tk on out. Colors are only used if out
// is a terminal that supports them.
func New(out io.Writer, tk *headless.Toolkit) *Dashboard {
	r := lipgloss.NewRenderer(out)
	return &Dashboard{
		out: out,
		tk:  tk,
		r:   r,

		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA")),
		box: r.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6C7086")).Padding(0, 1),
		name:   r.NewStyle().Width(20),
		kind:   r.NewStyle().Width(10).Foreground(lipgloss.Color("#6C7086")),
		active: r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
	}
}

// Draw redraws the dashboard if anything has changed since the last call. It
// must be called from the goroutine that owns the toolkit, usually as a
// host.AfterTick function.
func (d *Dashboard) Draw() {
	view := d.Render()
	if view == d.last {
		return
	}
	d.last = view
	io.WriteString(d.out, clearScreen+view+"\n")
}

// Render returns the dashboard as a string.
func (d *Dashboard) Render() string {
	var rows []string
	for _, name := range d.tk.Names() {
		w, _ := d.tk.Widget(name)
		kind, value := d.describe(w)
		rows = append(rows, d.name.Render(name)+d.kind.Render(string(kind))+value)
	}
	title := d.title.Render(d.tk.Title())
	return lipgloss.JoinVertical(lipgloss.Left, title, d.box.Render(strings.Join(rows, "\n")))
}

func (d *Dashboard) describe(w any) (headless.Kind, string) {
	switch w := w.(type) {
	case *headless.Plot:
		var parts []string
		for _, s := range w.Series() {
			part := fmt.Sprintf("%d pts", len(s.Y()))
			if s.HasErrorBars() {
				part += " ±"
			}
			parts = append(parts, part)
		}
		return headless.KindPlot, fmt.Sprintf("%q [%s]", w.Title(), strings.Join(parts, ", "))
	case *headless.Legend:
		var names []string
		for _, item := range w.Items() {
			names = append(names, strings.TrimSpace(item.Name))
		}
		return headless.KindLegend, strings.Join(names, " ")
	case *headless.Number:
		return headless.KindNumber, w.Text()
	case *headless.SpinBox:
		return headless.KindSpinBox, fmt.Sprint(w.Value())
	case *headless.CheckBox:
		if w.Checked() {
			return headless.KindCheckBox, "[x]"
		}
		return headless.KindCheckBox, "[ ]"
	case *headless.Label:
		return headless.KindLabel, w.Text()
	case *headless.Button:
		state := "up"
		if w.IsDown() {
			state = d.active.Render("down")
		}
		if c := w.Color(); c != "" {
			state += " " + d.r.NewStyle().Foreground(lipgloss.Color(c)).Render(c)
		}
		return headless.KindButton, state
	case *headless.ItemList:
		items := make([]string, len(w.Items()))
		for i, item := range w.Items() {
			if i == w.CurrentIndex() {
				items[i] = d.active.Render("> " + item.Text)
			} else {
				items[i] = item.Text
			}
		}
		return w.Kind(), strings.Join(items, " | ")
	}
	return "", fmt.Sprintf("%T", w)
}
