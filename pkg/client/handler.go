package client

import (
	"context"
	"errors"
	"log"
	"sync"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/transport"
)

// Handler wraps a Client for scripts that should keep running when the host
// goes away. The first call that finds the host unreachable switches the
// Handler to headless mode: that call and all later ones return zero values
// and nil errors without contacting the host, until Reconnect succeeds.
//
// Errors other than the host being unreachable are returned as usual. A
// Handler is safe for concurrent use.
type Handler struct {
	network, addr string
	opts          Options
	logger        *log.Logger

	mu       sync.Mutex
	client   *Client
	headless bool
}

// NewHandler wraps c, which was dialed to addr on network. If c is nil, the
// Handler starts in headless mode.
func NewHandler(c *Client, network, addr string, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = defaultLogger
	}
	return &Handler{network: network, addr: addr, opts: opts, logger: opts.Logger,
		client: c, headless: c == nil}
}

// DialHandler is like Dial, but returns a headless Handler instead of an
// error when the host cannot be reached.
func DialHandler(ctx context.Context, network, addr string, opts Options) (*Handler, error) {
	c, err := Dial(ctx, network, addr, opts)
	if err != nil && !errors.Is(err, transport.ErrEndpointGone) {
		return nil, err
	}
	h := NewHandler(c, network, addr, opts)
	if c == nil {
		h.logger.Printf("host at %s unreachable, running headless: %v", addr, err)
	}
	return h, nil
}

// Headless reports whether the Handler is in headless mode.
func (h *Handler) Headless() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headless
}

// Reconnect dials the host again. On success, the Handler leaves headless
// mode. The previous connection, if any, is closed.
func (h *Handler) Reconnect(ctx context.Context) error {
	c, err := Dial(ctx, h.network, h.addr, h.opts)
	if err != nil {
		return err
	}
	h.mu.Lock()
	old := h.client
	h.client, h.headless = c, false
	h.mu.Unlock()
	if old != nil {
		old.Close()
	}
	h.logger.Printf("reconnected to host at %s", h.addr)
	return nil
}

// Close closes the connection, if any.
func (h *Handler) Close() error {
	h.mu.Lock()
	c := h.client
	h.client, h.headless = nil, true
	h.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

func (h *Handler) goHeadless(c *Client, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Another call may have reconnected in the meantime.
	if h.client != c || h.headless {
		return
	}
	h.headless = true
	h.logger.Printf("lost connection to host at %s, running headless: %v", h.addr, err)
}

func guard[T any](h *Handler, f func(*Client) (T, error)) (T, error) {
	var zero T
	h.mu.Lock()
	c, headless := h.client, h.headless
	h.mu.Unlock()
	if headless {
		return zero, nil
	}
	v, err := f(c)
	if errors.Is(err, transport.ErrEndpointGone) {
		h.goHeadless(c, err)
		return zero, nil
	}
	return v, err
}

func guardErr(h *Handler, f func(*Client) error) error {
	_, err := guard(h, func(c *Client) (struct{}, error) { return struct{}{}, f(c) })
	return err
}

func (h *Handler) ForceUpdate(ctx context.Context) error {
	return guardErr(h, func(c *Client) error { return c.ForceUpdate(ctx) })
}

func (h *Handler) AssignPlot(ctx context.Context, plotWidget, plotLabel, legendWidget string) error {
	return guardErr(h, func(c *Client) error { return c.AssignPlot(ctx, plotWidget, plotLabel, legendWidget) })
}

func (h *Handler) ClearPlot(ctx context.Context, plotWidget string) error {
	return guardErr(h, func(c *Client) error { return c.ClearPlot(ctx, plotWidget) })
}

func (h *Handler) AssignCurve(ctx context.Context, plotLabel, curveLabel string, errorBars bool) error {
	return guardErr(h, func(c *Client) error { return c.AssignCurve(ctx, plotLabel, curveLabel, errorBars) })
}

func (h *Handler) RemoveCurve(ctx context.Context, plotLabel, curveLabel string) error {
	return guardErr(h, func(c *Client) error { return c.RemoveCurve(ctx, plotLabel, curveLabel) })
}

func (h *Handler) AssignScalar(ctx context.Context, widget, label string) error {
	return guardErr(h, func(c *Client) error { return c.AssignScalar(ctx, widget, label) })
}

func (h *Handler) AssignLabel(ctx context.Context, widget, label string) error {
	return guardErr(h, func(c *Client) error { return c.AssignLabel(ctx, widget, label) })
}

func (h *Handler) AssignEventButton(ctx context.Context, widget, label string) error {
	return guardErr(h, func(c *Client) error { return c.AssignEventButton(ctx, widget, label) })
}

func (h *Handler) AssignContainer(ctx context.Context, widget, label string) error {
	return guardErr(h, func(c *Client) error { return c.AssignContainer(ctx, widget, label) })
}

func (h *Handler) SetCurveData(ctx context.Context, plotLabel, curveLabel string, data api.Samples, errs []float64) error {
	return guardErr(h, func(c *Client) error { return c.SetCurveData(ctx, plotLabel, curveLabel, data, errs) })
}

func (h *Handler) SetScalar(ctx context.Context, label string, v api.Value) error {
	return guardErr(h, func(c *Client) error { return c.SetScalar(ctx, label, v) })
}

func (h *Handler) GetScalar(ctx context.Context, label string) (api.Value, error) {
	return guard(h, func(c *Client) (api.Value, error) { return c.GetScalar(ctx, label) })
}

func (h *Handler) ActivateScalar(ctx context.Context, label string) error {
	return guardErr(h, func(c *Client) error { return c.ActivateScalar(ctx, label) })
}

func (h *Handler) DeactivateScalar(ctx context.Context, label string) error {
	return guardErr(h, func(c *Client) error { return c.DeactivateScalar(ctx, label) })
}

func (h *Handler) SetLabel(ctx context.Context, label, text string) error {
	return guardErr(h, func(c *Client) error { return c.SetLabel(ctx, label, text) })
}

func (h *Handler) GetText(ctx context.Context, label string) (string, error) {
	return guard(h, func(c *Client) (string, error) { return c.GetText(ctx, label) })
}

func (h *Handler) WasButtonPressed(ctx context.Context, label string) (bool, error) {
	return guard(h, func(c *Client) (bool, error) { return c.WasButtonPressed(ctx, label) })
}

func (h *Handler) WasButtonReleased(ctx context.Context, label string) (bool, error) {
	return guard(h, func(c *Client) (bool, error) { return c.WasButtonReleased(ctx, label) })
}

func (h *Handler) IsPressed(ctx context.Context, label string) (bool, error) {
	return guard(h, func(c *Client) (bool, error) { return c.IsPressed(ctx, label) })
}

func (h *Handler) ResetButton(ctx context.Context, label string) error {
	return guardErr(h, func(c *Client) error { return c.ResetButton(ctx, label) })
}

func (h *Handler) ChangeButtonColor(ctx context.Context, label, color string) error {
	return guardErr(h, func(c *Client) error { return c.ChangeButtonColor(ctx, label, color) })
}

func (h *Handler) GetContainerInfo(ctx context.Context, label string) (api.ContainerInfo, error) {
	return guard(h, func(c *Client) (api.ContainerInfo, error) { return c.GetContainerInfo(ctx, label) })
}

func (h *Handler) GetItemText(ctx context.Context, label string, index int) (string, error) {
	return guard(h, func(c *Client) (string, error) { return c.GetItemText(ctx, label, index) })
}

func (h *Handler) GetItemIndex(ctx context.Context, label string) (int, error) {
	return guard(h, func(c *Client) (int, error) { return c.GetItemIndex(ctx, label) })
}

func (h *Handler) SetItemIndex(ctx context.Context, label string, index int) error {
	return guardErr(h, func(c *Client) error { return c.SetItemIndex(ctx, label, index) })
}

func (h *Handler) SaveState(ctx context.Context, s Saver, name string, scalars, labels []string) error {
	return guardErr(h, func(c *Client) error { return c.SaveState(ctx, s, name, scalars, labels) })
}

func (h *Handler) LoadState(ctx context.Context, l Loader, name string) error {
	return guardErr(h, func(c *Client) error { return c.LoadState(ctx, l, name) })
}
