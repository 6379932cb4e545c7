package packet

import (
	"encoding/binary"
	"math"
)

// Decode parses a wire frame using the default payload registry.
//
// The trailing checksum is verified before any field is populated; a mismatch
// rejects the whole frame. An unregistered payload content type is not fatal:
// the packet is returned with an UnparsedPayload alongside a structured error
// of KindUnrecognizedPayload, so metadata and header stay usable for logging
// and routing.
func Decode(b []byte) (*Packet, error) {
	return DecodeWithRegistry(b, DefaultRegistry)
}

// DecodeWithRegistry parses a wire frame resolving payload decoders in reg.
func DecodeWithRegistry(b []byte, reg *Registry) (*Packet, error) {
	// Locate the frame regions first. Lengths are read but nothing is
	// exposed until the checksum has been verified.
	if len(b) < metadataSize+headerSize+4 {
		return nil, NewError(KindTruncated, "CP-WIRE-001", "frame shorter than metadata and header")
	}
	// Declared lengths are compared in uint64 so a value near 2^32 cannot
	// wrap a 32-bit int and slip past the bounds checks.
	payloadStart := metadataSize + headerSize + 4
	declaredPayload := uint64(binary.BigEndian.Uint32(b[metadataSize+headerSize:]))
	if uint64(len(b)) < uint64(payloadStart)+declaredPayload+4 {
		return nil, NewError(KindTruncated, "CP-WIRE-002", "frame shorter than declared payload")
	}
	payloadLen := int(declaredPayload)
	sigLenOff := payloadStart + payloadLen
	declaredSig := uint64(binary.BigEndian.Uint32(b[sigLenOff:]))
	sigStart := sigLenOff + 4
	if uint64(len(b)) < uint64(sigStart)+declaredSig+4 {
		return nil, NewError(KindTruncated, "CP-WIRE-003", "frame shorter than declared signature")
	}
	sigLen := int(declaredSig)
	checksumOff := sigStart + sigLen
	if len(b) != checksumOff+4 {
		return nil, NewError(KindMalformed, "CP-WIRE-004", "trailing bytes after checksum")
	}

	want := binary.BigEndian.Uint32(b[checksumOff:])
	if got := Checksum(b[:checksumOff]); got != want {
		return nil, NewError(KindChecksum, "CP-WIRE-010", "checksum mismatch")
	}

	p := &Packet{}
	cur := 0

	m := &p.Metadata
	m.PacketID = binary.BigEndian.Uint64(b[cur:])
	cur += 8
	m.TimestampNS = binary.BigEndian.Uint64(b[cur:])
	cur += 8
	copy(m.SenderID[:], b[cur:cur+AgentIDSize])
	cur += AgentIDSize
	copy(m.ReceiverID[:], b[cur:cur+AgentIDSize])
	cur += AgentIDSize

	h := &p.Header
	copy(h.ContextAnchor[:], b[cur:])
	cur += len(h.ContextAnchor)
	for i := range h.IntentEmbedding {
		h.IntentEmbedding[i] = math.Float32frombits(binary.BigEndian.Uint32(b[cur:]))
		cur += 4
	}
	h.Confidence = math.Float32frombits(binary.BigEndian.Uint32(b[cur:]))
	cur += 4
	h.PayloadContentType = binary.BigEndian.Uint32(b[cur:])
	cur += 4
	h.CompressionScheme = binary.BigEndian.Uint32(b[cur:])
	cur += 4
	h.PriorityFlags = binary.BigEndian.Uint32(b[cur:])

	raw := make([]byte, payloadLen)
	copy(raw, b[payloadStart:payloadStart+payloadLen])

	p.Signature.Signature = make([]byte, sigLen)
	copy(p.Signature.Signature, b[sigStart:sigStart+sigLen])
	p.Signature.Checksum = want

	dec := reg.Lookup(h.PayloadContentType)
	if dec == nil {
		p.Payload = UnparsedPayload{TypeID: h.PayloadContentType, Raw: raw}
		return p, NewError(KindUnrecognizedPayload, "CP-WIRE-020", "no decoder for payload content type")
	}
	payload, err := dec(raw)
	if err != nil {
		return nil, err
	}
	p.Payload = payload
	return p, nil
}
