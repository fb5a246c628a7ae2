package host

import (
	"context"
	"fmt"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/cmdqueue"
	"src.guictl.dev/pkg/registry"
)

// Configure queues a configuration request. It returns once the request has
// been handed to the loop, without waiting for it to be applied.
func (h *Host) Configure(ctx context.Context, req cmdqueue.Request) error {
	return h.post(ctx, func() {
		if err := h.queue.Enqueue(req); err != nil {
			h.logger.Println(err)
		}
	})
}

// SetCurveData replaces the data of a curve. The curve is redrawn on the next
// tick. It never blocks.
func (h *Host) SetCurveData(plot, curve string, data api.Samples, errs []float64) error {
	if h.stopping() {
		return ErrStopped
	}
	if !h.snapshot.Load().HasCurve(plot, curve) {
		return fmt.Errorf("curve %s/%s: %w", plot, curve, api.ErrNotConfigured)
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if errs != nil && len(errs) != data.Len() {
		return fmt.Errorf("%w: %d error bars for %d samples", api.ErrInvalidParams, len(errs), data.Len())
	}
	h.mailbox.putCurve(plot, curve, data, errs)
	return nil
}

// SetScalar sets the value of a scalar. It never blocks.
func (h *Host) SetScalar(label string, v api.Value) error {
	if h.stopping() {
		return ErrStopped
	}
	if !h.snapshot.Load().HasScalar(label) {
		return fmt.Errorf("scalar %s: %w", label, api.ErrNotConfigured)
	}
	h.mailbox.putScalar(label, v)
	return nil
}

// SetLabel sets the text of a label. It never blocks.
func (h *Host) SetLabel(label, text string) error {
	if h.stopping() {
		return ErrStopped
	}
	if !h.snapshot.Load().HasLabel(label) {
		return fmt.Errorf("label %s: %w", label, api.ErrNotConfigured)
	}
	h.mailbox.putLabel(label, text)
	return nil
}

// ForceUpdate runs a tick and waits for it to finish.
func (h *Host) ForceUpdate(ctx context.Context) error {
	return do(ctx, h, func() error {
		h.tick()
		return nil
	})
}

// Runs f with a handle on the loop goroutine.
func withHandle[H, T any](ctx context.Context, h *Host,
	lookup func(*registry.Registry, string) (H, error), label string, f func(H) (T, error)) (T, error) {

	return call(ctx, h, func() (T, error) {
		handle, err := lookup(h.reg, label)
		if err != nil {
			var zero T
			return zero, err
		}
		return f(handle)
	})
}

func withHandleDo[H any](ctx context.Context, h *Host,
	lookup func(*registry.Registry, string) (H, error), label string, f func(H)) error {

	_, err := withHandle(ctx, h, lookup, label, func(handle H) (struct{}, error) {
		f(handle)
		return struct{}{}, nil
	})
	return err
}

// GetScalar returns the value of a scalar: the last value set if the scalar
// is active, and the value shown by its widget otherwise.
func (h *Host) GetScalar(ctx context.Context, label string) (api.Value, error) {
	return withHandle(ctx, h, (*registry.Registry).Scalar, label,
		func(s *registry.Scalar) (api.Value, error) { return s.Get(), nil })
}

// ActivateScalar makes a scalar driven by the values set by clients.
func (h *Host) ActivateScalar(ctx context.Context, label string) error {
	return withHandleDo(ctx, h, (*registry.Registry).Scalar, label, (*registry.Scalar).Activate)
}

// DeactivateScalar hands a scalar over to local input, after showing its
// current value.
func (h *Host) DeactivateScalar(ctx context.Context, label string) error {
	return withHandleDo(ctx, h, (*registry.Registry).Scalar, label, (*registry.Scalar).Deactivate)
}

// GetText returns the text shown by a label.
func (h *Host) GetText(ctx context.Context, label string) (string, error) {
	return withHandle(ctx, h, (*registry.Registry).Label, label,
		func(l *registry.Label) (string, error) { return l.Text(), nil })
}

func (h *Host) WasButtonPressed(ctx context.Context, label string) (bool, error) {
	return withHandle(ctx, h, (*registry.Registry).Button, label,
		func(b *registry.Button) (bool, error) { return b.WasPushed(), nil })
}

func (h *Host) WasButtonReleased(ctx context.Context, label string) (bool, error) {
	return withHandle(ctx, h, (*registry.Registry).Button, label,
		func(b *registry.Button) (bool, error) { return b.WasReleased(), nil })
}

func (h *Host) IsPressed(ctx context.Context, label string) (bool, error) {
	return withHandle(ctx, h, (*registry.Registry).Button, label,
		func(b *registry.Button) (bool, error) { return b.IsDown(), nil })
}

func (h *Host) ResetButton(ctx context.Context, label string) error {
	return withHandleDo(ctx, h, (*registry.Registry).Button, label, (*registry.Button).Reset)
}

func (h *Host) ChangeButtonColor(ctx context.Context, label, color string) error {
	return withHandleDo(ctx, h, (*registry.Registry).Button, label, func(b *registry.Button) { b.SetColor(color) })
}

func (h *Host) ContainerInfo(ctx context.Context, label string) (api.ContainerInfo, error) {
	return withHandle(ctx, h, (*registry.Registry).Container, label,
		func(c *registry.Container) (api.ContainerInfo, error) { return c.Info(), nil })
}

// ItemText returns the text of an item of a container. A negative index
// refers to the current item.
func (h *Host) ItemText(ctx context.Context, label string, index int) (string, error) {
	return withHandle(ctx, h, (*registry.Registry).Container, label,
		func(c *registry.Container) (string, error) { return c.ItemText(index) })
}

func (h *Host) ItemIndex(ctx context.Context, label string) (int, error) {
	return withHandle(ctx, h, (*registry.Registry).Container, label,
		func(c *registry.Container) (int, error) { return c.ItemIndex(), nil })
}

func (h *Host) SetItemIndex(ctx context.Context, label string, index int) error {
	return withHandleDo(ctx, h, (*registry.Registry).Container, label, func(c *registry.Container) { c.SetItemIndex(index) })
}
