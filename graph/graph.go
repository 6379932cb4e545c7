// Package graph implements the RelationalGraphSnippet payload: a small
// knowledge-graph fragment of nodes and edges, delta-encoded against a shared
// context identified by the packet header's context anchor.
//
// Node and relationship hashes are opaque 256-bit values at this layer; they
// are resolved lazily against a Shared Knowledge Core snapshot by the process
// package, because which snapshot to resolve against is only known from the
// header. Keeping decode SKC-independent lets checksum and signature checks
// run before any knowledge-store access.
package graph

import (
	"github.com/kurtnitsch/crisp/hashutil"
	"github.com/kurtnitsch/crisp/packet"
)

// ContentTypeSnippet is the payload content-type id for graph snippets.
const ContentTypeSnippet = 17

// EmbeddingDim is the fixed dimensionality of node embeddings.
const EmbeddingDim = 256

// Node value kinds on the wire.
const (
	KindEmbedding   = 0
	KindHashRef     = 1
	KindTensor      = 2
	KindTimestamp   = 3
	KindDataPointer = 4
)

// Value is the variant payload of a node.
type Value interface {
	// Kind returns the wire kind id of this value.
	Kind() uint32
}

// Embedding is a dense 256-dimension vector introducing an entity by its
// position in embedding space rather than by a shared symbol.
type Embedding [EmbeddingDim]float32

func (Embedding) Kind() uint32 { return KindEmbedding }

// HashRef points at a concept already present (or expected) in the Shared
// Knowledge Core.
type HashRef hashutil.Hash

func (HashRef) Kind() uint32 { return KindHashRef }

// Tensor is an inline literal vector of arbitrary dimension.
type Tensor []float32

func (Tensor) Kind() uint32 { return KindTensor }

// Timestamp is an inline literal instant, nanoseconds since the Unix epoch.
type Timestamp uint64

func (Timestamp) Kind() uint32 { return KindTimestamp }

// DataPointer addresses a slice of out-of-band data: a content hash plus a
// byte offset into that object.
type DataPointer struct {
	Hash   hashutil.Hash
	Offset uint64
}

func (DataPointer) Kind() uint32 { return KindDataPointer }

// Node is one graph vertex. LocalID is meaningful only within the packet that
// carries it and must be unique there.
type Node struct {
	LocalID uint32
	Value   Value
}

// Edge is one directed, labeled graph edge. Src and Dst name node LocalIDs
// declared in the same snippet; Relationship is an opaque concept hash.
type Edge struct {
	Src          uint32
	Dst          uint32
	Relationship hashutil.Hash
}

// Snippet is the decoded RelationalGraphSnippet payload.
type Snippet struct {
	Nodes []Node
	Edges []Edge
}

func (Snippet) ContentType() uint32 { return ContentTypeSnippet }

func init() {
	packet.Register(ContentTypeSnippet, decodeSnippetPayload)
	packet.Register(ContentTypeErrorReport, decodeErrorReportPayload)
}
