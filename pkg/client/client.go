// Package client implements remote control clients of render hosts.
//
// A Client has one method per RPC. Configuration methods (those that assign
// or remove widgets) return as soon as the request is sent; the host applies
// it on one of its next ticks. Data pushes return once the host has accepted
// the data, and fail with api.ErrNotConfigured if the label they refer to has
// not been applied yet. Reads wait for the host's loop.
//
// Every method returns an error wrapping transport.ErrEndpointGone if the
// host cannot be reached. Handler wraps a Client and turns that condition
// into a degraded mode where all calls are no-ops.
package client

import (
	"context"
	"errors"
	"fmt"
	"log"

	uuid "github.com/satori/go.uuid"
	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/logutil"
	"src.guictl.dev/pkg/transport"
)

var defaultLogger = logutil.GetLogger("[client] ")

// Options keeps options for Dial.
type Options struct {
	// Identifies the client in the host's logs. Defaults to a random UUID.
	ID     string
	Logger *log.Logger
}

// Client is a connection to a render host.
type Client struct {
	conn   *transport.Conn
	id     string
	logger *log.Logger
	host   api.HelloResult
}

// Dial connects to a render host and identifies the client to it.
func Dial(ctx context.Context, network, addr string, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = defaultLogger
	}
	if opts.ID == "" {
		u, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		opts.ID = u.String()
	}
	conn, err := transport.Dial(ctx, network, addr, opts.Logger)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, id: opts.ID, logger: opts.Logger}
	err = conn.Call(ctx, api.MethodHello, api.HelloParams{ClientID: c.id, Version: api.Version}, &c.host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if c.host.Version != api.Version {
		c.logger.Printf("host at %s speaks protocol version %d, client speaks %d",
			addr, c.host.Version, api.Version)
	}
	c.logger.Printf("connected to host at %s, pid %d", addr, c.host.Pid)
	return c, nil
}

// ID returns the id the client identified itself with.
func (c *Client) ID() string { return c.id }

// HostPid returns the process id of the host.
func (c *Client) HostPid() int { return c.host.Pid }

// HostVersion returns the protocol version of the host.
func (c *Client) HostVersion() int { return c.host.Version }

// Done returns a channel that is closed when the connection is lost or
// closed.
func (c *Client) Done() <-chan struct{} { return c.conn.Done() }

// Close closes the connection. The host keeps running.
func (c *Client) Close() error { return c.conn.Close() }

// CloseHost asks the host to stop, and closes the connection. The host may
// go away before replying, which is not an error.
func (c *Client) CloseHost(ctx context.Context) error {
	err := c.conn.Call(ctx, api.MethodClose, nil, nil)
	c.conn.Close()
	if errors.Is(err, transport.ErrEndpointGone) {
		return nil
	}
	return err
}

// ForceUpdate asks the host to run a tick, and waits until it has.
func (c *Client) ForceUpdate(ctx context.Context) error {
	return c.conn.Call(ctx, api.MethodForceUpdate, nil, nil)
}

// Configuration.

func (c *Client) AssignPlot(ctx context.Context, plotWidget, plotLabel, legendWidget string) error {
	return c.conn.Notify(ctx, api.MethodAssignPlot, api.AssignPlotParams{
		PlotWidget: plotWidget, PlotLabel: plotLabel, LegendWidget: legendWidget})
}

// ClearPlot removes the plot shown on a plot widget, with all its curves.
func (c *Client) ClearPlot(ctx context.Context, plotWidget string) error {
	return c.conn.Notify(ctx, api.MethodClearPlot, api.ClearPlotParams{PlotWidget: plotWidget})
}

// AssignCurve adds a curve to a plot. If errorBars is true, the curve can
// show error bars.
func (c *Client) AssignCurve(ctx context.Context, plotLabel, curveLabel string, errorBars bool) error {
	return c.conn.Notify(ctx, api.MethodAssignCurve, api.AssignCurveParams{
		PlotLabel: plotLabel, CurveLabel: curveLabel, Error: errorBars})
}

func (c *Client) RemoveCurve(ctx context.Context, plotLabel, curveLabel string) error {
	return c.conn.Notify(ctx, api.MethodRemoveCurve, api.RemoveCurveParams{
		PlotLabel: plotLabel, CurveLabel: curveLabel})
}

func (c *Client) AssignScalar(ctx context.Context, widget, label string) error {
	return c.assign(ctx, api.MethodAssignScalar, widget, label)
}

func (c *Client) AssignLabel(ctx context.Context, widget, label string) error {
	return c.assign(ctx, api.MethodAssignLabel, widget, label)
}

func (c *Client) AssignEventButton(ctx context.Context, widget, label string) error {
	return c.assign(ctx, api.MethodAssignEventButton, widget, label)
}

func (c *Client) AssignContainer(ctx context.Context, widget, label string) error {
	return c.assign(ctx, api.MethodAssignContainer, widget, label)
}

func (c *Client) assign(ctx context.Context, method, widget, label string) error {
	return c.conn.Notify(ctx, method, api.AssignWidgetParams{Widget: widget, Label: label})
}

// Data.

// SetCurveData replaces the data of a curve. errs may be nil.
func (c *Client) SetCurveData(ctx context.Context, plotLabel, curveLabel string, data api.Samples, errs []float64) error {
	encoded, err := api.EncodeSamples(data)
	if err != nil {
		return err
	}
	encodedErrs, err := api.EncodeErrors(errs)
	if err != nil {
		return err
	}
	return c.conn.Call(ctx, api.MethodSetCurveData, api.SetCurveDataParams{
		PlotLabel: plotLabel, CurveLabel: curveLabel, Data: encoded, Error: encodedErrs}, nil)
}

func (c *Client) SetScalar(ctx context.Context, label string, v api.Value) error {
	encoded, err := api.EncodeValue(v)
	if err != nil {
		return err
	}
	return c.conn.Call(ctx, api.MethodSetScalar, api.SetScalarParams{Label: label, Value: encoded}, nil)
}

// GetScalar returns the value of a scalar. If the scalar is inactive, this
// is the value shown by its widget, possibly edited locally.
func (c *Client) GetScalar(ctx context.Context, label string) (api.Value, error) {
	var res api.ScalarResult
	if err := c.conn.Call(ctx, api.MethodGetScalar, api.LabelParams{Label: label}, &res); err != nil {
		return api.Value{}, err
	}
	return api.DecodeValue(res.Value)
}

func (c *Client) ActivateScalar(ctx context.Context, label string) error {
	return c.conn.Call(ctx, api.MethodActivateScalar, api.LabelParams{Label: label}, nil)
}

func (c *Client) DeactivateScalar(ctx context.Context, label string) error {
	return c.conn.Call(ctx, api.MethodDeactivateScalar, api.LabelParams{Label: label}, nil)
}

func (c *Client) SetLabel(ctx context.Context, label, text string) error {
	return c.conn.Call(ctx, api.MethodSetLabel, api.SetLabelParams{Label: label, Text: text}, nil)
}

func (c *Client) GetText(ctx context.Context, label string) (string, error) {
	var res api.TextResult
	err := c.conn.Call(ctx, api.MethodGetText, api.LabelParams{Label: label}, &res)
	return res.Text, err
}

// Buttons.

func (c *Client) WasButtonPressed(ctx context.Context, label string) (bool, error) {
	return c.boolCall(ctx, api.MethodWasButtonPressed, label)
}

func (c *Client) WasButtonReleased(ctx context.Context, label string) (bool, error) {
	return c.boolCall(ctx, api.MethodWasButtonReleased, label)
}

func (c *Client) IsPressed(ctx context.Context, label string) (bool, error) {
	return c.boolCall(ctx, api.MethodIsPressed, label)
}

func (c *Client) boolCall(ctx context.Context, method, label string) (bool, error) {
	var res api.BoolResult
	err := c.conn.Call(ctx, method, api.LabelParams{Label: label}, &res)
	return res.Value, err
}

func (c *Client) ResetButton(ctx context.Context, label string) error {
	return c.conn.Call(ctx, api.MethodResetButton, api.LabelParams{Label: label}, nil)
}

func (c *Client) ChangeButtonColor(ctx context.Context, label, color string) error {
	return c.conn.Call(ctx, api.MethodChangeButtonColor, api.ButtonColorParams{Label: label, Color: color}, nil)
}

// Containers.

func (c *Client) GetContainerInfo(ctx context.Context, label string) (api.ContainerInfo, error) {
	var res api.ContainerInfo
	err := c.conn.Call(ctx, api.MethodGetContainerInfo, api.LabelParams{Label: label}, &res)
	return res, err
}

// GetItemText returns the text of an item. A negative index refers to the
// current item.
func (c *Client) GetItemText(ctx context.Context, label string, index int) (string, error) {
	var res api.TextResult
	err := c.conn.Call(ctx, api.MethodGetItemText, api.ItemParams{Label: label, Index: index}, &res)
	return res.Text, err
}

func (c *Client) GetItemIndex(ctx context.Context, label string) (int, error) {
	var res api.IndexResult
	err := c.conn.Call(ctx, api.MethodGetItemIndex, api.LabelParams{Label: label}, &res)
	return res.Index, err
}

func (c *Client) SetItemIndex(ctx context.Context, label string, index int) error {
	return c.conn.Call(ctx, api.MethodSetItemIndex, api.ItemParams{Label: label, Index: index}, nil)
}

func (c *Client) String() string {
	return fmt.Sprintf("client %s to %s", c.id, c.conn.Addr())
}
