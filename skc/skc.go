// Package skc implements the Shared Knowledge Core: an append-only, anchor-
// chained store of concept definitions with immutable per-anchor snapshots.
//
// The chain starts at the genesis anchor (all zeroes) and advances by exactly
// one step per accepted proposal: anchor[i] = H(anchor[i-1], sorted new
// concept hashes). Committed definitions are never mutated or deleted, so any
// anchor ever produced remains resolvable for the lifetime of the store.
//
// Concurrency model: readers take lock-free immutable snapshots (read-copy-
// update); every state mutation is funneled through a single writer goroutine
// consuming a FIFO queue, so concurrent Accept calls never race to commit and
// the chain advances deterministically.
//
// Independent replicas may commit different concepts concurrently. This store
// does not reconcile them; it only guarantees local determinism and exposes
// the anchor chain so a higher-level synchronization protocol can detect
// divergence by comparing anchors.
package skc

import (
	"sync"
	"sync/atomic"

	"github.com/kurtnitsch/crisp/hashutil"
)

// ConceptDefinition is one committed SKC entry, content-addressed by the hash
// of its definition text.
type ConceptDefinition struct {
	Hash        hashutil.Hash
	Definition  string
	CommittedAt hashutil.Hash // anchor under which it first became visible
}

// ProposalID identifies a staged, not-yet-committed concept.
type ProposalID uint64

// Store is a single-node Shared Knowledge Core.
type Store struct {
	mu     sync.Mutex // guards staged/nextID, never held during resolution
	staged map[ProposalID]string
	nextID ProposalID

	state atomic.Pointer[chainState]

	commits chan commitReq
	quit    chan struct{}
	stopped sync.WaitGroup
	closed  atomic.Bool
}

// chainState is an immutable view of all committed history. A new value is
// published atomically per accepted proposal; existing values are never
// modified.
type chainState struct {
	anchors     []hashutil.Hash
	anchorIndex map[hashutil.Hash]int
	defs        map[hashutil.Hash]committedDef
}

type committedDef struct {
	definition string
	step       int
}

type commitReq struct {
	id     ProposalID
	accept bool
	reply  chan commitResp
}

type commitResp struct {
	anchor hashutil.Hash
	err    error
}

// NewStore returns a Store whose chain holds only the genesis anchor. Close
// must be called to release the writer goroutine.
func NewStore() *Store {
	genesis := &chainState{
		anchors:     []hashutil.Hash{hashutil.Zero},
		anchorIndex: map[hashutil.Hash]int{hashutil.Zero: 0},
		defs:        map[hashutil.Hash]committedDef{},
	}
	s := &Store{
		staged:  make(map[ProposalID]string),
		nextID:  1,
		commits: make(chan commitReq),
		quit:    make(chan struct{}),
	}
	s.state.Store(genesis)
	s.stopped.Add(1)
	go s.writerLoop()
	return s
}

// Close stops the single writer. Accept and Reject fail with ErrClosed
// afterwards; snapshots already taken (and new ones) keep resolving.
func (s *Store) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.quit)
		s.stopped.Wait()
	}
}

// Propose stages a candidate concept definition and returns its proposal id.
// Committed state is untouched until Accept.
func (s *Store) Propose(definition string) (ProposalID, error) {
	if definition == "" {
		return 0, ErrEmptyDefinition
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.staged[id] = definition
	return id, nil
}

// Accept commits the staged concept, advancing the anchor chain by exactly
// one step, and returns the new anchor. A stale or already-resolved id fails
// with ErrUnknownProposal.
func (s *Store) Accept(id ProposalID) (hashutil.Hash, error) {
	return s.submit(id, true)
}

// Reject discards a staged concept. No anchor change.
func (s *Store) Reject(id ProposalID) error {
	_, err := s.submit(id, false)
	return err
}

func (s *Store) submit(id ProposalID, accept bool) (hashutil.Hash, error) {
	req := commitReq{id: id, accept: accept, reply: make(chan commitResp, 1)}
	select {
	case s.commits <- req:
	case <-s.quit:
		return hashutil.Zero, ErrClosed
	}
	resp := <-req.reply
	return resp.anchor, resp.err
}

func (s *Store) writerLoop() {
	defer s.stopped.Done()
	for {
		select {
		case req := <-s.commits:
			req.reply <- s.resolveProposal(req.id, req.accept)
		case <-s.quit:
			return
		}
	}
}

// resolveProposal runs only on the writer goroutine.
func (s *Store) resolveProposal(id ProposalID, accept bool) commitResp {
	s.mu.Lock()
	definition, ok := s.staged[id]
	if ok {
		delete(s.staged, id)
	}
	s.mu.Unlock()
	if !ok {
		return commitResp{err: ErrUnknownProposal}
	}
	if !accept {
		return commitResp{}
	}

	prev := s.state.Load()
	conceptHash := hashutil.ConceptHash(definition)
	anchor := hashutil.AnchorStep(prev.anchors[len(prev.anchors)-1], []hashutil.Hash{conceptHash})

	next := &chainState{
		anchors:     append(append([]hashutil.Hash(nil), prev.anchors...), anchor),
		anchorIndex: make(map[hashutil.Hash]int, len(prev.anchorIndex)+1),
		defs:        make(map[hashutil.Hash]committedDef, len(prev.defs)+1),
	}
	for k, v := range prev.anchorIndex {
		next.anchorIndex[k] = v
	}
	next.anchorIndex[anchor] = len(next.anchors) - 1
	for k, v := range prev.defs {
		next.defs[k] = v
	}
	// A re-accepted definition keeps its original commit step; history is
	// append-only and the earliest visibility point never moves.
	if _, exists := next.defs[conceptHash]; !exists {
		next.defs[conceptHash] = committedDef{definition: definition, step: len(next.anchors) - 1}
	}

	s.state.Store(next)
	return commitResp{anchor: anchor}
}

// Head returns the most recent anchor.
func (s *Store) Head() hashutil.Hash {
	st := s.state.Load()
	return st.anchors[len(st.anchors)-1]
}

// Chain returns a copy of the full anchor chain, genesis first. Replicas
// compare chains to detect divergence.
func (s *Store) Chain() []hashutil.Hash {
	st := s.state.Load()
	return append([]hashutil.Hash(nil), st.anchors...)
}
