package packet

import (
	"encoding/binary"
	"math"
)

// Encode serializes p to its wire frame: metadata, header, length-prefixed
// payload body, length-prefixed signature bytes, trailing CRC-32C.
func Encode(p *Packet) ([]byte, error) {
	body, err := encodeBody(p)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+4+len(p.Signature.Signature)+4)
	out = append(out, body...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(p.Signature.Signature)))
	out = append(out, p.Signature.Signature...)
	out = binary.BigEndian.AppendUint32(out, Checksum(out))
	return out, nil
}

// SignedBytes returns the byte range a signature covers: metadata, header and
// the length-prefixed payload body, exactly as Encode lays them out.
func SignedBytes(p *Packet) ([]byte, error) {
	return encodeBody(p)
}

func encodeBody(p *Packet) ([]byte, error) {
	if p == nil {
		return nil, NewError(KindInternal, "CP-ENC-001", "nil packet")
	}

	var payload []byte
	if p.Payload != nil {
		if p.Payload.ContentType() != p.Header.PayloadContentType {
			return nil, NewError(KindMalformed, "CP-ENC-002", "header content type does not match payload")
		}
		var err error
		payload, err = p.Payload.EncodePayload()
		if err != nil {
			return nil, WrapError(KindInternal, "CP-ENC-003", "payload encode failed", err)
		}
	}

	out := make([]byte, 0, metadataSize+headerSize+4+len(payload))

	m := &p.Metadata
	out = binary.BigEndian.AppendUint64(out, m.PacketID)
	out = binary.BigEndian.AppendUint64(out, m.TimestampNS)
	out = append(out, m.SenderID[:]...)
	out = append(out, m.ReceiverID[:]...)

	h := &p.Header
	out = append(out, h.ContextAnchor[:]...)
	for _, f := range h.IntentEmbedding {
		out = binary.BigEndian.AppendUint32(out, math.Float32bits(f))
	}
	out = binary.BigEndian.AppendUint32(out, math.Float32bits(h.Confidence))
	out = binary.BigEndian.AppendUint32(out, h.PayloadContentType)
	out = binary.BigEndian.AppendUint32(out, h.CompressionScheme)
	out = binary.BigEndian.AppendUint32(out, h.PriorityFlags)

	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	return out, nil
}

// Signer produces signature bytes over a message. The keys package provides
// ed25519 and dilithium3 implementations.
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// Verifier checks signature bytes over a message.
type Verifier interface {
	Verify(message, signature []byte) bool
}

// Sign computes the signature over p's signed bytes and installs it in the
// signature block. Encode must be called afterwards to produce the frame.
func Sign(p *Packet, s Signer) error {
	body, err := SignedBytes(p)
	if err != nil {
		return err
	}
	sig, err := s.Sign(body)
	if err != nil {
		return WrapError(KindSignature, "CP-SIG-002", "signing failed", err)
	}
	p.Signature.Signature = sig
	return nil
}

// Verify reports whether p's signature block is valid under v.
//
// A false result gates trust, not parsing: the caller may still inspect and
// log the packet, but must not let it mutate the Shared Knowledge Core or be
// treated as an authoritative world-model delta.
func Verify(p *Packet, v Verifier) bool {
	if p == nil || v == nil || len(p.Signature.Signature) == 0 {
		return false
	}
	body, err := SignedBytes(p)
	if err != nil {
		return false
	}
	return v.Verify(body, p.Signature.Signature)
}
