package host

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/cmdqueue"
	"src.guictl.dev/pkg/transport"
)

// Methods returns the RPC methods served by h, keyed by name.
func (h *Host) Methods() map[string]transport.Method {
	return map[string]transport.Method{
		api.MethodHello:       h.hello,
		api.MethodClose:       h.close,
		api.MethodForceUpdate: h.forceUpdate,

		api.MethodAssignPlot: configure(h, func(p api.AssignPlotParams) cmdqueue.Request {
			return cmdqueue.Request{Kind: cmdqueue.AssignPlot,
				Widget: p.PlotWidget, Label: p.PlotLabel, Legend: p.LegendWidget}
		}),
		api.MethodClearPlot: configure(h, func(p api.ClearPlotParams) cmdqueue.Request {
			return cmdqueue.Request{Kind: cmdqueue.RemovePlot, Widget: p.PlotWidget}
		}),
		api.MethodAssignCurve: configure(h, func(p api.AssignCurveParams) cmdqueue.Request {
			return cmdqueue.Request{Kind: cmdqueue.AssignCurve,
				Plot: p.PlotLabel, Label: p.CurveLabel, ErrorBars: p.Error}
		}),
		api.MethodRemoveCurve: configure(h, func(p api.RemoveCurveParams) cmdqueue.Request {
			return cmdqueue.Request{Kind: cmdqueue.RemoveCurve, Plot: p.PlotLabel, Label: p.CurveLabel}
		}),
		api.MethodAssignScalar:      configure(h, assignWidget(cmdqueue.AssignScalar)),
		api.MethodAssignLabel:       configure(h, assignWidget(cmdqueue.AssignLabel)),
		api.MethodAssignEventButton: configure(h, assignWidget(cmdqueue.AssignButton)),
		api.MethodAssignContainer:   configure(h, assignWidget(cmdqueue.AssignContainer)),

		api.MethodSetCurveData:     h.setCurveData,
		api.MethodSetScalar:        h.setScalar,
		api.MethodGetScalar:        h.getScalar,
		api.MethodActivateScalar:   byLabel(h.ActivateScalar),
		api.MethodDeactivateScalar: byLabel(h.DeactivateScalar),
		api.MethodSetLabel:         h.setLabel,
		api.MethodGetText:          byLabelResult(h.GetText, func(s string) any { return api.TextResult{Text: s} }),

		api.MethodWasButtonPressed:  byLabelResult(h.WasButtonPressed, boolResult),
		api.MethodWasButtonReleased: byLabelResult(h.WasButtonReleased, boolResult),
		api.MethodIsPressed:         byLabelResult(h.IsPressed, boolResult),
		api.MethodResetButton:       byLabel(h.ResetButton),
		api.MethodChangeButtonColor: h.changeButtonColor,

		api.MethodGetContainerInfo: byLabelResult(h.ContainerInfo, func(i api.ContainerInfo) any { return i }),
		api.MethodGetItemText:      h.getItemText,
		api.MethodGetItemIndex:     byLabelResult(h.ItemIndex, func(i int) any { return api.IndexResult{Index: i} }),
		api.MethodSetItemIndex:     h.setItemIndex,
	}
}

func decode[P any](raw json.RawMessage) (P, error) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", api.ErrInvalidParams, err)
	}
	return p, nil
}

func configure[P any](h *Host, f func(P) cmdqueue.Request) transport.Method {
	return func(ctx context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
		p, err := decode[P](raw)
		if err != nil {
			return nil, err
		}
		return nil, h.Configure(ctx, f(p))
	}
}

func assignWidget(kind cmdqueue.Kind) func(api.AssignWidgetParams) cmdqueue.Request {
	return func(p api.AssignWidgetParams) cmdqueue.Request {
		return cmdqueue.Request{Kind: kind, Widget: p.Widget, Label: p.Label}
	}
}

func byLabel(f func(context.Context, string) error) transport.Method {
	return func(ctx context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
		p, err := decode[api.LabelParams](raw)
		if err != nil {
			return nil, err
		}
		return nil, f(ctx, p.Label)
	}
}

func byLabelResult[T any](f func(context.Context, string) (T, error), wrap func(T) any) transport.Method {
	return func(ctx context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
		p, err := decode[api.LabelParams](raw)
		if err != nil {
			return nil, err
		}
		v, err := f(ctx, p.Label)
		if err != nil {
			return nil, err
		}
		return wrap(v), nil
	}
}

func boolResult(b bool) any { return api.BoolResult{Value: b} }

func (h *Host) hello(_ context.Context, peer *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.HelloParams](raw)
	if err != nil {
		return nil, err
	}
	h.logger.Printf("hello from %s at %s, protocol version %d", p.ClientID, peer.Addr, p.Version)
	if p.Version != api.Version {
		h.logger.Printf("client %s speaks protocol version %d, host speaks %d", p.ClientID, p.Version, api.Version)
	}
	peer.SetID(p.ClientID)
	return api.HelloResult{Version: api.Version, Pid: os.Getpid()}, nil
}

func (h *Host) close(_ context.Context, peer *transport.Peer, _ json.RawMessage) (any, error) {
	h.logger.Println("close requested by", peer.ID())
	h.Stop()
	return nil, nil
}

func (h *Host) forceUpdate(ctx context.Context, _ *transport.Peer, _ json.RawMessage) (any, error) {
	return nil, h.ForceUpdate(ctx)
}

func (h *Host) setCurveData(_ context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.SetCurveDataParams](raw)
	if err != nil {
		return nil, err
	}
	data, err := api.DecodeSamples(p.Data)
	if err != nil {
		return nil, err
	}
	var errs []float64
	if len(p.Error) > 0 {
		errs, err = api.DecodeErrors(p.Error)
		if err != nil {
			return nil, err
		}
	}
	return nil, h.SetCurveData(p.PlotLabel, p.CurveLabel, data, errs)
}

func (h *Host) setScalar(_ context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.SetScalarParams](raw)
	if err != nil {
		return nil, err
	}
	v, err := api.DecodeValue(p.Value)
	if err != nil {
		return nil, err
	}
	return nil, h.SetScalar(p.Label, v)
}

func (h *Host) getScalar(ctx context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.LabelParams](raw)
	if err != nil {
		return nil, err
	}
	v, err := h.GetScalar(ctx, p.Label)
	if err != nil {
		return nil, err
	}
	data, err := api.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	return api.ScalarResult{Value: data}, nil
}

func (h *Host) setLabel(_ context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.SetLabelParams](raw)
	if err != nil {
		return nil, err
	}
	return nil, h.SetLabel(p.Label, p.Text)
}

func (h *Host) changeButtonColor(ctx context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.ButtonColorParams](raw)
	if err != nil {
		return nil, err
	}
	return nil, h.ChangeButtonColor(ctx, p.Label, p.Color)
}

func (h *Host) getItemText(ctx context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.ItemParams](raw)
	if err != nil {
		return nil, err
	}
	text, err := h.ItemText(ctx, p.Label, p.Index)
	if err != nil {
		return nil, err
	}
	return api.TextResult{Text: text}, nil
}

func (h *Host) setItemIndex(ctx context.Context, _ *transport.Peer, raw json.RawMessage) (any, error) {
	p, err := decode[api.ItemParams](raw)
	if err != nil {
		return nil, err
	}
	return nil, h.SetItemIndex(ctx, p.Label, p.Index)
}
