// Package process turns a decoded, verified Cognitive Packet into a
// world-model delta by classifying its intent and resolving its graph payload
// against a Shared Knowledge Core snapshot.
//
// The processor is pure: it never mutates the SKC or the world model. The
// caller owns applying the delta and deciding whether to propose newly
// learned concepts into the store.
package process

import (
	"github.com/kurtnitsch/crisp/graph"
	"github.com/kurtnitsch/crisp/hashutil"
	"github.com/kurtnitsch/crisp/packet"
	"github.com/kurtnitsch/crisp/skc"
)

// Resolver is the snapshot capability the processor consumes. *skc.Snapshot
// satisfies it.
type Resolver interface {
	Resolve(conceptHash hashutil.Hash) (skc.ConceptDefinition, error)
}

// Options configures one Process call.
type Options struct {
	// Snapshot resolves concept hashes under the packet's context anchor.
	// Nil means the anchor was unknown to the local store: processing still
	// runs, but every triple is marked pending.
	Snapshot Resolver
	// Classifier maps the header intent embedding to an intent.
	Classifier Classifier
	// SignatureVerified records the outcome of signature verification. An
	// unverified packet still yields a delta for inspection, but the delta
	// is marked untrusted and must not reach SKC mutation or be applied as
	// authoritative.
	SignatureVerified bool
}

// Triple is one (entity, property, value) assertion extracted from a packet.
type Triple struct {
	EntityLocalID uint32
	PropertyHash  hashutil.Hash
	// Property is the resolved definition, nil when Pending.
	Property *skc.ConceptDefinition
	Value    graph.Value
	// Pending marks a triple whose property concept could not be resolved
	// (unknown anchor or unsynchronized concept). The triple is still
	// included; the SKC may simply not have caught up yet.
	Pending bool
}

// Delta is the ordered world-model update extracted from one packet.
type Delta struct {
	Intent  Intent
	Trusted bool
	Triples []Triple
}

// Process classifies the packet's intent and, for graph payloads with a
// recognized intent, walks the snippet into a delta.
//
// An Embedding node with no incoming edges introduces a new entity. Its
// outgoing edges lead to property nodes (hash references into the SKC); each
// property node's outgoing edges lead to literal value nodes. Unresolvable
// property hashes do not abort the packet; those triples come back pending.
func Process(p *packet.Packet, opts Options) (*Delta, error) {
	if p == nil {
		return nil, packet.NewError(packet.KindInternal, "CP-PROC-001", "nil packet")
	}

	delta := &Delta{
		Intent:  opts.Classifier.Classify(p.Header.IntentEmbedding),
		Trusted: opts.SignatureVerified,
	}
	// Unclassified intent: acknowledge, take no action.
	if !delta.Intent.Known {
		return delta, nil
	}

	snippet, ok := p.Payload.(graph.Snippet)
	if !ok {
		// Nothing to extract from unparsed or non-graph payloads.
		return delta, nil
	}

	nodeByID := make(map[uint32]graph.Node, len(snippet.Nodes))
	hasIncoming := make(map[uint32]bool)
	outgoing := make(map[uint32][]graph.Edge)
	for _, n := range snippet.Nodes {
		nodeByID[n.LocalID] = n
	}
	for _, e := range snippet.Edges {
		hasIncoming[e.Dst] = true
		outgoing[e.Src] = append(outgoing[e.Src], e)
	}

	// Nodes and edges keep wire order, so the emitted triples are ordered
	// deterministically too.
	for _, entity := range snippet.Nodes {
		if entity.Value.Kind() != graph.KindEmbedding || hasIncoming[entity.LocalID] {
			continue
		}
		for _, edge := range outgoing[entity.LocalID] {
			property := nodeByID[edge.Dst]
			ref, ok := property.Value.(graph.HashRef)
			if !ok {
				continue
			}
			for _, valueEdge := range outgoing[property.LocalID] {
				value := nodeByID[valueEdge.Dst]
				if !isLiteral(value.Value) {
					continue
				}
				delta.Triples = append(delta.Triples, resolveTriple(
					entity.LocalID, hashutil.Hash(ref), value.Value, opts.Snapshot))
			}
		}
	}
	return delta, nil
}

func isLiteral(v graph.Value) bool {
	switch v.Kind() {
	case graph.KindTensor, graph.KindTimestamp, graph.KindDataPointer:
		return true
	}
	return false
}

func resolveTriple(entity uint32, property hashutil.Hash, value graph.Value, snap Resolver) Triple {
	t := Triple{EntityLocalID: entity, PropertyHash: property, Value: value}
	if snap == nil {
		t.Pending = true
		return t
	}
	def, err := snap.Resolve(property)
	if err != nil {
		// Recoverable: the concept may not have synchronized yet.
		t.Pending = true
		return t
	}
	t.Property = &def
	return t
}
