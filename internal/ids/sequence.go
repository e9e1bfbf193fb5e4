package ids

import "sync/atomic"

// Sequence hands out increasing ids starting at 1. Each registry or engine
// owns its own Sequence so separate sessions never share an id space.
type Sequence struct {
	last atomic.Int64
}

// Next returns the next id. Ids are never reused.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Last returns the most recently issued id, or 0 if none was issued.
func (s *Sequence) Last() int64 {
	return s.last.Load()
}
