package wishlist

import "sync/atomic"

// Sequencer numbers loads so a slow response cannot overwrite a newer one.
type Sequencer struct {
	n atomic.Uint64
}

// Next starts a load and returns its number.
func (s *Sequencer) Next() uint64 { return s.n.Add(1) }

// Current reports whether seq is the most recently started load.
func (s *Sequencer) Current(seq uint64) bool { return s.n.Load() == seq }
