package client

import (
	"context"
	"errors"
	"slices"

	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/state"
)

// Saver saves snapshots. It is satisfied by *state.Store.
type Saver interface {
	Save(name string, snap state.Snapshot) error
}

// Loader loads snapshots. It is satisfied by *state.Store.
type Loader interface {
	Load(name string) (state.Snapshot, error)
}

// SaveState reads the given scalars and labels from the host and saves them
// as a snapshot.
func (c *Client) SaveState(ctx context.Context, s Saver, name string, scalars, labels []string) error {
	snap := state.Snapshot{
		Scalars: make(map[string]api.Value, len(scalars)),
		Labels:  make(map[string]string, len(labels)),
	}
	for _, label := range scalars {
		v, err := c.GetScalar(ctx, label)
		if err != nil {
			return err
		}
		snap.Scalars[label] = v
	}
	for _, label := range labels {
		text, err := c.GetText(ctx, label)
		if err != nil {
			return err
		}
		snap.Labels[label] = text
	}
	return s.Save(name, snap)
}

// LoadState restores a snapshot saved by SaveState. Scalars are left inactive
// and showing their saved value, so that they can be edited locally. Labels
// that cannot be restored do not stop the others from being restored; all
// errors are returned together.
func (c *Client) LoadState(ctx context.Context, l Loader, name string) error {
	snap, err := l.Load(name)
	if err != nil {
		return err
	}
	var errs []error
	for _, label := range sortedKeys(snap.Scalars) {
		errs = append(errs, c.loadScalar(ctx, label, snap.Scalars[label]))
	}
	for _, label := range sortedKeys(snap.Labels) {
		errs = append(errs, c.SetLabel(ctx, label, snap.Labels[label]))
	}
	return errors.Join(errs...)
}

func (c *Client) loadScalar(ctx context.Context, label string, v api.Value) error {
	if err := c.ActivateScalar(ctx, label); err != nil {
		return err
	}
	if v.IsSet() {
		if err := c.SetScalar(ctx, label, v); err != nil {
			return err
		}
	}
	return c.DeactivateScalar(ctx, label)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
