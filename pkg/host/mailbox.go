package host

import (
	"sync"

	"src.guictl.dev/pkg/api"
)

type curveKey struct{ plot, curve string }

type curveData struct {
	data api.Samples
	errs []float64
}

// Holds data pushed since the loop last looked. Later pushes to the same
// label replace earlier ones.
type mailbox struct {
	mu      sync.Mutex
	curves  map[curveKey]curveData
	scalars map[string]api.Value
	labels  map[string]string
}

func newMailbox() *mailbox {
	return &mailbox{
		curves:  make(map[curveKey]curveData),
		scalars: make(map[string]api.Value),
		labels:  make(map[string]string),
	}
}

func (m *mailbox) putCurve(plot, curve string, data api.Samples, errs []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.curves[curveKey{plot, curve}] = curveData{data, errs}
}

func (m *mailbox) putScalar(label string, v api.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scalars[label] = v
}

func (m *mailbox) putLabel(label, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[label] = text
}

// Takes all pending data, leaving the mailbox empty.
func (m *mailbox) take() (map[curveKey]curveData, map[string]api.Value, map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.curves) == 0 && len(m.scalars) == 0 && len(m.labels) == 0 {
		return nil, nil, nil
	}
	curves, scalars, labels := m.curves, m.scalars, m.labels
	m.curves = make(map[curveKey]curveData)
	m.scalars = make(map[string]api.Value)
	m.labels = make(map[string]string)
	return curves, scalars, labels
}
