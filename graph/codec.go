package graph

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kurtnitsch/crisp/hashutil"
	"github.com/kurtnitsch/crisp/packet"
)

// Payload body layout:
//
//	node_count u32
//	per node:  local_id u32, kind u32, value (kind-dependent)
//	edge_count u32
//	per edge:  src u32, dst u32, relationship_hash 32B
//
// Value widths: Embedding 256x4B, HashRef 32B, Tensor u32 dim + dim x 4B,
// Timestamp 8B, DataPointer 32B hash + 8B offset.

// EncodePayload serializes the snippet body. It enforces the same invariants
// decode does, so a malformed snippet cannot be emitted in the first place.
func (s Snippet) EncodePayload() ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 8+len(s.Nodes)*16+len(s.Edges)*(8+hashutil.HashSize))
	out = binary.BigEndian.AppendUint32(out, uint32(len(s.Nodes)))
	for _, n := range s.Nodes {
		out = binary.BigEndian.AppendUint32(out, n.LocalID)
		switch v := n.Value.(type) {
		case Embedding:
			out = binary.BigEndian.AppendUint32(out, KindEmbedding)
			for _, f := range v {
				out = binary.BigEndian.AppendUint32(out, math.Float32bits(f))
			}
		case HashRef:
			out = binary.BigEndian.AppendUint32(out, KindHashRef)
			out = append(out, v[:]...)
		case Tensor:
			out = binary.BigEndian.AppendUint32(out, KindTensor)
			out = binary.BigEndian.AppendUint32(out, uint32(len(v)))
			for _, f := range v {
				out = binary.BigEndian.AppendUint32(out, math.Float32bits(f))
			}
		case Timestamp:
			out = binary.BigEndian.AppendUint32(out, KindTimestamp)
			out = binary.BigEndian.AppendUint64(out, uint64(v))
		case DataPointer:
			out = binary.BigEndian.AppendUint32(out, KindDataPointer)
			out = append(out, v.Hash[:]...)
			out = binary.BigEndian.AppendUint64(out, v.Offset)
		default:
			return nil, packet.NewError(packet.KindInternal, "CP-GRAPH-010",
				fmt.Sprintf("node %d has unsupported value type %T", n.LocalID, n.Value))
		}
	}
	out = binary.BigEndian.AppendUint32(out, uint32(len(s.Edges)))
	for _, e := range s.Edges {
		out = binary.BigEndian.AppendUint32(out, e.Src)
		out = binary.BigEndian.AppendUint32(out, e.Dst)
		out = append(out, e.Relationship[:]...)
	}
	return out, nil
}

func (s Snippet) validate() error {
	seen := make(map[uint32]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if seen[n.LocalID] {
			return packet.NewError(packet.KindPayload, "CP-GRAPH-001",
				fmt.Sprintf("duplicate local node id %d", n.LocalID))
		}
		seen[n.LocalID] = true
	}
	for _, e := range s.Edges {
		if !seen[e.Src] {
			return packet.NewError(packet.KindPayload, "CP-GRAPH-002",
				fmt.Sprintf("edge references undeclared node %d", e.Src))
		}
		if !seen[e.Dst] {
			return packet.NewError(packet.KindPayload, "CP-GRAPH-002",
				fmt.Sprintf("edge references undeclared node %d", e.Dst))
		}
	}
	return nil
}

func decodeSnippetPayload(raw []byte) (packet.Payload, error) {
	r := reader{b: raw}

	nodeCount, err := r.uint32("node count")
	if err != nil {
		return nil, err
	}
	s := Snippet{}
	seen := make(map[uint32]bool)
	for i := uint32(0); i < nodeCount; i++ {
		localID, err := r.uint32("node local id")
		if err != nil {
			return nil, err
		}
		if seen[localID] {
			return nil, packet.NewError(packet.KindPayload, "CP-GRAPH-001",
				fmt.Sprintf("duplicate local node id %d", localID))
		}
		seen[localID] = true

		kind, err := r.uint32("node kind")
		if err != nil {
			return nil, err
		}
		var v Value
		switch kind {
		case KindEmbedding:
			var emb Embedding
			for j := range emb {
				bits, err := r.uint32("embedding element")
				if err != nil {
					return nil, err
				}
				emb[j] = math.Float32frombits(bits)
			}
			v = emb
		case KindHashRef:
			h, err := r.hash("hash reference")
			if err != nil {
				return nil, err
			}
			v = HashRef(h)
		case KindTensor:
			dim, err := r.uint32("tensor dimension")
			if err != nil {
				return nil, err
			}
			// uint64 so dim*4 cannot wrap a 32-bit int.
			if uint64(dim)*4 > uint64(r.remaining()) {
				return nil, packet.NewError(packet.KindTruncated, "CP-GRAPH-003",
					"payload shorter than declared tensor")
			}
			t := make(Tensor, dim)
			for j := range t {
				bits, _ := r.uint32("tensor element")
				t[j] = math.Float32frombits(bits)
			}
			v = t
		case KindTimestamp:
			ts, err := r.uint64("timestamp")
			if err != nil {
				return nil, err
			}
			v = Timestamp(ts)
		case KindDataPointer:
			h, err := r.hash("data pointer hash")
			if err != nil {
				return nil, err
			}
			off, err := r.uint64("data pointer offset")
			if err != nil {
				return nil, err
			}
			v = DataPointer{Hash: h, Offset: off}
		default:
			return nil, packet.NewError(packet.KindPayload, "CP-GRAPH-004",
				fmt.Sprintf("unknown node kind %d", kind))
		}
		s.Nodes = append(s.Nodes, Node{LocalID: localID, Value: v})
	}

	edgeCount, err := r.uint32("edge count")
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < edgeCount; i++ {
		src, err := r.uint32("edge src")
		if err != nil {
			return nil, err
		}
		dst, err := r.uint32("edge dst")
		if err != nil {
			return nil, err
		}
		rel, err := r.hash("edge relationship hash")
		if err != nil {
			return nil, err
		}
		if !seen[src] {
			return nil, packet.NewError(packet.KindPayload, "CP-GRAPH-002",
				fmt.Sprintf("edge references undeclared node %d", src))
		}
		if !seen[dst] {
			return nil, packet.NewError(packet.KindPayload, "CP-GRAPH-002",
				fmt.Sprintf("edge references undeclared node %d", dst))
		}
		s.Edges = append(s.Edges, Edge{Src: src, Dst: dst, Relationship: rel})
	}

	if r.remaining() != 0 {
		return nil, packet.NewError(packet.KindPayload, "CP-GRAPH-005", "trailing bytes in graph payload")
	}
	return s, nil
}

// reader is a sequential big-endian cursor that fails fast on truncation.
type reader struct {
	b   []byte
	cur int
}

func (r *reader) remaining() int { return len(r.b) - r.cur }

func (r *reader) uint32(field string) (uint32, error) {
	if r.remaining() < 4 {
		return 0, packet.NewError(packet.KindTruncated, "CP-GRAPH-003", "payload truncated at "+field)
	}
	v := binary.BigEndian.Uint32(r.b[r.cur:])
	r.cur += 4
	return v, nil
}

func (r *reader) uint64(field string) (uint64, error) {
	if r.remaining() < 8 {
		return 0, packet.NewError(packet.KindTruncated, "CP-GRAPH-003", "payload truncated at "+field)
	}
	v := binary.BigEndian.Uint64(r.b[r.cur:])
	r.cur += 8
	return v, nil
}

func (r *reader) hash(field string) (hashutil.Hash, error) {
	var h hashutil.Hash
	if r.remaining() < hashutil.HashSize {
		return h, packet.NewError(packet.KindTruncated, "CP-GRAPH-003", "payload truncated at "+field)
	}
	copy(h[:], r.b[r.cur:])
	r.cur += hashutil.HashSize
	return h, nil
}
