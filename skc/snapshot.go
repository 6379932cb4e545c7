package skc

import "github.com/kurtnitsch/crisp/hashutil"

// Snapshot is the frozen view of the store at one anchor.
//
// Snapshots are immutable and safe for unbounded concurrent use; resolving
// the same concept hash against the same snapshot always yields the same
// result, no matter how far the store has advanced since.
type Snapshot struct {
	state *chainState
	step  int
}

// Snapshot returns the frozen view for anchor, or ErrUnknownAnchor if the
// store never reached that point. It never blocks waiting for a future
// anchor to materialize.
func (s *Store) Snapshot(anchor hashutil.Hash) (*Snapshot, error) {
	st := s.state.Load()
	step, ok := st.anchorIndex[anchor]
	if !ok {
		return nil, ErrUnknownAnchor
	}
	return &Snapshot{state: st, step: step}, nil
}

// Anchor returns the anchor this snapshot is frozen at.
func (s *Snapshot) Anchor() hashutil.Hash {
	return s.state.anchors[s.step]
}

// Resolve returns the definition for conceptHash if it was visible at this
// snapshot's anchor, or ErrNotFound. Concepts committed after the snapshot's
// anchor are invisible even though the underlying store has them.
func (s *Snapshot) Resolve(conceptHash hashutil.Hash) (ConceptDefinition, error) {
	d, ok := s.state.defs[conceptHash]
	if !ok || d.step > s.step {
		return ConceptDefinition{}, ErrNotFound
	}
	return ConceptDefinition{
		Hash:        conceptHash,
		Definition:  d.definition,
		CommittedAt: s.state.anchors[d.step],
	}, nil
}

// Len reports how many concepts are visible at this snapshot.
func (s *Snapshot) Len() int {
	n := 0
	for _, d := range s.state.defs {
		if d.step <= s.step {
			n++
		}
	}
	return n
}
