package registry

// Snapshot is an immutable record of the labels in a Registry. It is meant
// to be published to goroutines other than the owner of the Registry, so
// that they can validate data pushes without touching the Registry itself.
//
// The zero value and the nil pointer are empty snapshots.
type Snapshot struct {
	Version uint64
	curves  map[curveKey]struct{}
	scalars map[string]struct{}
	labels  map[string]struct{}
}

type curveKey struct{ plot, curve string }

// Snapshot returns a snapshot of the current labels.
func (r *Registry) Snapshot() *Snapshot {
	s := &Snapshot{
		Version: r.version,
		curves:  make(map[curveKey]struct{}),
		scalars: make(map[string]struct{}, len(r.scalars)),
		labels:  make(map[string]struct{}, len(r.labels)),
	}
	for pl, p := range r.plots {
		for cl := range p.curves {
			s.curves[curveKey{pl, cl}] = struct{}{}
		}
	}
	for l := range r.scalars {
		s.scalars[l] = struct{}{}
	}
	for l := range r.labels {
		s.labels[l] = struct{}{}
	}
	return s
}

func (s *Snapshot) HasCurve(plot, curve string) bool {
	if s == nil {
		return false
	}
	_, ok := s.curves[curveKey{plot, curve}]
	return ok
}

func (s *Snapshot) HasScalar(label string) bool {
	if s == nil {
		return false
	}
	_, ok := s.scalars[label]
	return ok
}

func (s *Snapshot) HasLabel(label string) bool {
	if s == nil {
		return false
	}
	_, ok := s.labels[label]
	return ok
}
