package skc

import (
	"errors"
	"sync"
	"testing"

	"github.com/kurtnitsch/crisp/hashutil"
)

func TestAccept_AdvancesChainOneStep(t *testing.T) {
	s := NewStore()
	defer s.Close()

	if s.Head() != hashutil.Zero {
		t.Fatalf("fresh store must sit at genesis")
	}

	id, err := s.Propose("UnknownMovingObject")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	anchor, err := s.Accept(id)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if anchor == hashutil.Zero {
		t.Fatalf("accept must advance past genesis")
	}
	if got := len(s.Chain()); got != 2 {
		t.Fatalf("expected chain of 2, got %d", got)
	}

	// The anchor is reproducible from its inputs.
	want := hashutil.AnchorStep(hashutil.Zero, []hashutil.Hash{hashutil.ConceptHash("UnknownMovingObject")})
	if anchor != want {
		t.Fatalf("anchor not reproducible: %s vs %s", anchor, want)
	}
}

func TestReject_NoAnchorChange(t *testing.T) {
	s := NewStore()
	defer s.Close()

	id, err := s.Propose("discarded")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if err := s.Reject(id); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if len(s.Chain()) != 1 {
		t.Fatalf("reject must not advance the chain")
	}
	if _, err := s.Accept(id); !errors.Is(err, ErrUnknownProposal) {
		t.Fatalf("expected ErrUnknownProposal for rejected id, got %v", err)
	}
}

func TestAccept_StaleProposal(t *testing.T) {
	s := NewStore()
	defer s.Close()

	id, _ := s.Propose("once")
	if _, err := s.Accept(id); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := s.Accept(id); !errors.Is(err, ErrUnknownProposal) {
		t.Fatalf("expected ErrUnknownProposal on double accept, got %v", err)
	}
	if _, err := s.Accept(ProposalID(999)); !errors.Is(err, ErrUnknownProposal) {
		t.Fatalf("expected ErrUnknownProposal for bogus id, got %v", err)
	}
}

func TestPropose_EmptyDefinition(t *testing.T) {
	s := NewStore()
	defer s.Close()
	if _, err := s.Propose(""); !errors.Is(err, ErrEmptyDefinition) {
		t.Fatalf("expected ErrEmptyDefinition, got %v", err)
	}
}

func TestSnapshot_ResolutionDeterminism(t *testing.T) {
	s := NewStore()
	defer s.Close()

	idA, _ := s.Propose("HighVelocity")
	anchorA, err := s.Accept(idA)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	idB, _ := s.Propose("LowAltitude")
	anchorB, err := s.Accept(idB)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	hvHash := hashutil.ConceptHash("HighVelocity")
	laHash := hashutil.ConceptHash("LowAltitude")

	snapA, err := s.Snapshot(anchorA)
	if err != nil {
		t.Fatalf("Snapshot(anchorA): %v", err)
	}
	// Repeated resolves return identical results.
	for i := 0; i < 3; i++ {
		def, err := snapA.Resolve(hvHash)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if def.Definition != "HighVelocity" || def.CommittedAt != anchorA {
			t.Fatalf("unexpected definition %+v", def)
		}
	}
	// A concept committed later is invisible under the earlier anchor.
	if _, err := snapA.Resolve(laHash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound under anchorA, got %v", err)
	}

	snapB, err := s.Snapshot(anchorB)
	if err != nil {
		t.Fatalf("Snapshot(anchorB): %v", err)
	}
	if _, err := snapB.Resolve(laHash); err != nil {
		t.Fatalf("Resolve under anchorB: %v", err)
	}
	if snapA.Len() != 1 || snapB.Len() != 2 {
		t.Fatalf("visibility counts wrong: %d, %d", snapA.Len(), snapB.Len())
	}

	// The genesis snapshot stays resolvable and empty forever.
	snapG, err := s.Snapshot(hashutil.Zero)
	if err != nil {
		t.Fatalf("Snapshot(genesis): %v", err)
	}
	if _, err := snapG.Resolve(hvHash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound under genesis, got %v", err)
	}
}

func TestSnapshot_UnknownAnchor(t *testing.T) {
	s := NewStore()
	defer s.Close()
	if _, err := s.Snapshot(hashutil.ConceptHash("foreign-anchor")); !errors.Is(err, ErrUnknownAnchor) {
		t.Fatalf("expected ErrUnknownAnchor, got %v", err)
	}
}

func TestAccept_ConcurrentCallersSerialize(t *testing.T) {
	s := NewStore()
	defer s.Close()

	const n = 32
	ids := make([]ProposalID, n)
	for i := range ids {
		id, err := s.Propose("concept-" + string(rune('a'+i%26)) + string(rune('0'+i/26)))
		if err != nil {
			t.Fatalf("Propose: %v", err)
		}
		ids[i] = id
	}

	var wg sync.WaitGroup
	anchors := make([]hashutil.Hash, n)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id ProposalID) {
			defer wg.Done()
			a, err := s.Accept(id)
			if err != nil {
				t.Errorf("Accept(%d): %v", id, err)
				return
			}
			anchors[i] = a
		}(i, id)
	}
	wg.Wait()

	chain := s.Chain()
	if len(chain) != n+1 {
		t.Fatalf("expected %d anchors beyond genesis, got %d", n, len(chain)-1)
	}
	// Every accept produced exactly one distinct anchor on the chain.
	onChain := make(map[hashutil.Hash]bool, len(chain))
	for _, a := range chain {
		if onChain[a] {
			t.Fatalf("duplicate anchor on chain")
		}
		onChain[a] = true
	}
	for i, a := range anchors {
		if !onChain[a] {
			t.Fatalf("anchor from accept %d not on chain", i)
		}
	}
	// The whole chain replays from its commit sets.
	for i := 1; i < len(chain); i++ {
		snap, err := s.Snapshot(chain[i])
		if err != nil {
			t.Fatalf("Snapshot(step %d): %v", i, err)
		}
		if snap.Len() != i {
			t.Fatalf("step %d: expected %d visible concepts, got %d", i, i, snap.Len())
		}
	}
}

func TestReaccept_KeepsOriginalCommitPoint(t *testing.T) {
	s := NewStore()
	defer s.Close()

	id1, _ := s.Propose("same-text")
	first, err := s.Accept(id1)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	id2, _ := s.Propose("same-text")
	second, err := s.Accept(id2)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if first == second {
		t.Fatalf("re-accept must still advance the chain")
	}
	snap, err := s.Snapshot(second)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	def, err := snap.Resolve(hashutil.ConceptHash("same-text"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if def.CommittedAt != first {
		t.Fatalf("earliest visibility point must not move")
	}
}

func TestClose_RejectsFurtherMutation(t *testing.T) {
	s := NewStore()
	id, _ := s.Propose("late")
	s.Close()
	if _, err := s.Accept(id); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	// Snapshots still work after close.
	if _, err := s.Snapshot(hashutil.Zero); err != nil {
		t.Fatalf("Snapshot after close: %v", err)
	}
}
