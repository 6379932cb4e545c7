package main

import (
	"encoding/base64"
	"fmt"

	"github.com/kurtnitsch/crisp/graph"
	"github.com/kurtnitsch/crisp/hashutil"
	"github.com/kurtnitsch/crisp/packet"
)

// packetJSON is the human-editable packet description consumed by encode and
// produced by decode. Hashes are hex; raw bytes are base64.
type packetJSON struct {
	PacketID    uint64 `json:"packet_id"`
	TimestampNS uint64 `json:"timestamp_ns,omitempty"`
	SenderID    string `json:"sender_id,omitempty"`
	ReceiverID  string `json:"receiver_id,omitempty"`

	ContextAnchor string `json:"context_anchor,omitempty"`
	// IntentEmbedding may be shorter than the wire dimension; the remainder is
	// zero padded.
	IntentEmbedding   []float32 `json:"intent_embedding,omitempty"`
	Confidence        float32   `json:"confidence,omitempty"`
	CompressionScheme uint32    `json:"compression_scheme,omitempty"`
	PriorityFlags     uint32    `json:"priority_flags,omitempty"`

	Payload *payloadJSON `json:"payload,omitempty"`

	// Set by decode only.
	Signature string `json:"signature,omitempty"`
	Checksum  uint32 `json:"checksum,omitempty"`
}

type payloadJSON struct {
	ContentType uint32 `json:"content_type"`

	// Snippet payloads.
	Nodes []nodeJSON `json:"nodes,omitempty"`
	Edges []edgeJSON `json:"edges,omitempty"`

	// Error report payloads.
	ErrorReport *errorReportJSON `json:"error_report,omitempty"`

	// Unrecognized payloads: the raw body, base64.
	Raw string `json:"raw,omitempty"`
}

type nodeJSON struct {
	LocalID uint32     `json:"local_id"`
	Value   *valueJSON `json:"value"`
}

type edgeJSON struct {
	Src uint32 `json:"src"`
	Dst uint32 `json:"dst"`
	// Relationship is a hex concept hash. RelationshipConcept is encode-side
	// sugar: a definition string hashed with the concept convention.
	Relationship        string `json:"relationship,omitempty"`
	RelationshipConcept string `json:"relationship_concept,omitempty"`
}

type valueJSON struct {
	Kind      string    `json:"kind"`
	Embedding []float32 `json:"embedding,omitempty"`
	// Hash is a hex concept hash for hashref values; HashConcept is
	// encode-side sugar like RelationshipConcept.
	Hash        string    `json:"hash,omitempty"`
	HashConcept string    `json:"hash_concept,omitempty"`
	Tensor      []float32 `json:"tensor,omitempty"`
	Timestamp   uint64    `json:"timestamp,omitempty"`
	DataHash    string    `json:"data_hash,omitempty"`
	DataOffset  uint64    `json:"data_offset,omitempty"`
}

type errorReportJSON struct {
	CorrelationID uint64 `json:"correlation_id"`
	OriginalType  uint32 `json:"original_type,omitempty"`
	Code          uint16 `json:"code"`
	Message       string `json:"message,omitempty"`
}

func (d *packetJSON) toPacket() (*packet.Packet, error) {
	p := &packet.Packet{}
	p.Metadata.PacketID = d.PacketID
	p.Metadata.TimestampNS = d.TimestampNS

	var err error
	if p.Metadata.SenderID, err = parseHexAgent(d.SenderID); err != nil {
		return nil, fmt.Errorf("sender_id: %w", err)
	}
	if p.Metadata.ReceiverID, err = parseHexAgent(d.ReceiverID); err != nil {
		return nil, fmt.Errorf("receiver_id: %w", err)
	}
	if d.ContextAnchor != "" {
		if p.Header.ContextAnchor, err = hashutil.Parse(d.ContextAnchor); err != nil {
			return nil, fmt.Errorf("context_anchor: %w", err)
		}
	}
	if len(d.IntentEmbedding) > packet.IntentDim {
		return nil, fmt.Errorf("intent_embedding longer than %d", packet.IntentDim)
	}
	copy(p.Header.IntentEmbedding[:], d.IntentEmbedding)
	p.Header.Confidence = d.Confidence
	p.Header.CompressionScheme = d.CompressionScheme
	p.Header.PriorityFlags = d.PriorityFlags

	if d.Payload == nil {
		return nil, fmt.Errorf("missing payload")
	}
	payload, err := d.Payload.toPayload()
	if err != nil {
		return nil, err
	}
	p.Header.PayloadContentType = payload.ContentType()
	p.Payload = payload
	return p, nil
}

func (pj *payloadJSON) toPayload() (packet.Payload, error) {
	switch pj.ContentType {
	case graph.ContentTypeSnippet:
		var s graph.Snippet
		for _, n := range pj.Nodes {
			if n.Value == nil {
				return nil, fmt.Errorf("node %d: missing value", n.LocalID)
			}
			v, err := n.Value.toValue()
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", n.LocalID, err)
			}
			s.Nodes = append(s.Nodes, graph.Node{LocalID: n.LocalID, Value: v})
		}
		for i, e := range pj.Edges {
			rel, err := parseHashOrConcept(e.Relationship, e.RelationshipConcept)
			if err != nil {
				return nil, fmt.Errorf("edge %d: %w", i, err)
			}
			s.Edges = append(s.Edges, graph.Edge{Src: e.Src, Dst: e.Dst, Relationship: rel})
		}
		return s, nil
	case graph.ContentTypeErrorReport:
		if pj.ErrorReport == nil {
			return nil, fmt.Errorf("missing error_report")
		}
		return graph.ErrorReport{
			CorrelationID: pj.ErrorReport.CorrelationID,
			OriginalType:  pj.ErrorReport.OriginalType,
			Code:          pj.ErrorReport.Code,
			Message:       pj.ErrorReport.Message,
		}, nil
	default:
		raw, err := base64.StdEncoding.DecodeString(pj.Raw)
		if err != nil {
			return nil, fmt.Errorf("raw: %w", err)
		}
		return packet.UnparsedPayload{TypeID: pj.ContentType, Raw: raw}, nil
	}
}

func (v *valueJSON) toValue() (graph.Value, error) {
	switch v.Kind {
	case "embedding":
		if len(v.Embedding) > graph.EmbeddingDim {
			return nil, fmt.Errorf("embedding longer than %d", graph.EmbeddingDim)
		}
		var emb graph.Embedding
		copy(emb[:], v.Embedding)
		return emb, nil
	case "hashref":
		h, err := parseHashOrConcept(v.Hash, v.HashConcept)
		if err != nil {
			return nil, err
		}
		return graph.HashRef(h), nil
	case "tensor":
		return graph.Tensor(v.Tensor), nil
	case "timestamp":
		return graph.Timestamp(v.Timestamp), nil
	case "datapointer":
		h, err := hashutil.Parse(v.DataHash)
		if err != nil {
			return nil, fmt.Errorf("data_hash: %w", err)
		}
		return graph.DataPointer{Hash: h, Offset: v.DataOffset}, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", v.Kind)
	}
}

func parseHashOrConcept(hexHash, concept string) (hashutil.Hash, error) {
	switch {
	case hexHash != "" && concept != "":
		return hashutil.Hash{}, fmt.Errorf("hash and concept sugar are mutually exclusive")
	case concept != "":
		return hashutil.ConceptHash(concept), nil
	case hexHash != "":
		return hashutil.Parse(hexHash)
	default:
		return hashutil.Hash{}, fmt.Errorf("missing hash")
	}
}

func fromPacket(p *packet.Packet) (*packetJSON, error) {
	d := &packetJSON{
		PacketID:          p.Metadata.PacketID,
		TimestampNS:       p.Metadata.TimestampNS,
		SenderID:          hexAgent(p.Metadata.SenderID),
		ReceiverID:        hexAgent(p.Metadata.ReceiverID),
		Confidence:        p.Header.Confidence,
		CompressionScheme: p.Header.CompressionScheme,
		PriorityFlags:     p.Header.PriorityFlags,
		Checksum:          p.Signature.Checksum,
	}
	if !p.Header.ContextAnchor.IsZero() {
		d.ContextAnchor = p.Header.ContextAnchor.String()
	}
	d.IntentEmbedding = trimTrailingZeros(p.Header.IntentEmbedding[:])
	if len(p.Signature.Signature) > 0 {
		d.Signature = base64.StdEncoding.EncodeToString(p.Signature.Signature)
	}

	pj, err := fromPayload(p.Payload)
	if err != nil {
		return nil, err
	}
	d.Payload = pj
	return d, nil
}

func fromPayload(payload packet.Payload) (*payloadJSON, error) {
	pj := &payloadJSON{ContentType: payload.ContentType()}
	switch v := payload.(type) {
	case graph.Snippet:
		for _, n := range v.Nodes {
			pj.Nodes = append(pj.Nodes, nodeJSON{LocalID: n.LocalID, Value: valueToJSON(n.Value)})
		}
		for _, e := range v.Edges {
			pj.Edges = append(pj.Edges, edgeJSON{Src: e.Src, Dst: e.Dst, Relationship: e.Relationship.String()})
		}
	case graph.ErrorReport:
		pj.ErrorReport = &errorReportJSON{
			CorrelationID: v.CorrelationID,
			OriginalType:  v.OriginalType,
			Code:          v.Code,
			Message:       v.Message,
		}
	case packet.UnparsedPayload:
		pj.Raw = base64.StdEncoding.EncodeToString(v.Raw)
	default:
		return nil, fmt.Errorf("unsupported payload type %T", payload)
	}
	return pj, nil
}

func valueToJSON(v graph.Value) *valueJSON {
	switch val := v.(type) {
	case graph.Embedding:
		return &valueJSON{Kind: "embedding", Embedding: trimTrailingZeros(val[:])}
	case graph.HashRef:
		return &valueJSON{Kind: "hashref", Hash: hashutil.Hash(val).String()}
	case graph.Tensor:
		return &valueJSON{Kind: "tensor", Tensor: val}
	case graph.Timestamp:
		return &valueJSON{Kind: "timestamp", Timestamp: uint64(val)}
	case graph.DataPointer:
		return &valueJSON{Kind: "datapointer", DataHash: val.Hash.String(), DataOffset: val.Offset}
	default:
		return nil
	}
}

func hexAgent(id [packet.AgentIDSize]byte) string {
	for _, b := range id {
		if b != 0 {
			return fmt.Sprintf("%x", id[:])
		}
	}
	return ""
}

func trimTrailingZeros(v []float32) []float32 {
	end := len(v)
	for end > 0 && v[end-1] == 0 {
		end--
	}
	if end == 0 {
		return nil
	}
	return append([]float32(nil), v[:end]...)
}
