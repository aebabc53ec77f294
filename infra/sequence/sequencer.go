package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing command sequence numbers.
// Sequence 0 is never issued; it means "nothing yet".
type Sequencer struct {
	last atomic.Uint64
}

// New starts after start: the first Next returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current is the last issued (or replayed) sequence.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Observe moves the sequencer forward to v if it is behind.
// Replay and snapshot load call this; it never moves backwards.
func (s *Sequencer) Observe(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
