package packet

import (
	"hash/crc32"

	"github.com/kurtnitsch/crisp/hashutil"
)

// IntentDim is the fixed dimensionality of the header intent embedding.
const IntentDim = 512

// AgentIDSize is the width of sender and receiver identifiers.
const AgentIDSize = 16

// Wire widths of the fixed-size frame regions.
const (
	metadataSize = 8 + 8 + AgentIDSize + AgentIDSize
	headerSize   = hashutil.HashSize + IntentDim*4 + 4 + 4 + 4 + 4
)

// Metadata identifies one packet and its endpoints.
type Metadata struct {
	PacketID    uint64 // unique per sender
	TimestampNS uint64
	SenderID    [AgentIDSize]byte
	ReceiverID  [AgentIDSize]byte
}

// Header carries the shared-context reference and the continuous intent
// representation. Confidence is semantically in [0,1] but the codec does not
// enforce the range. CompressionScheme is informational; only the identity
// scheme (0) is produced by this module.
type Header struct {
	ContextAnchor      hashutil.Hash
	IntentEmbedding    [IntentDim]float32
	Confidence         float32
	PayloadContentType uint32
	CompressionScheme  uint32
	PriorityFlags      uint32
}

// SignatureBlock trails the frame. Checksum covers every preceding byte of
// the encoded frame, signature bytes included.
type SignatureBlock struct {
	Signature []byte
	Checksum  uint32
}

// Packet is one decoded Cognitive Packet.
type Packet struct {
	Metadata  Metadata
	Header    Header
	Payload   Payload
	Signature SignatureBlock
}

// Payload is the variant part of a packet, tagged by the header's
// payload_content_type_id.
type Payload interface {
	// ContentType returns the wire content-type id this payload encodes as.
	ContentType() uint32
	// EncodePayload returns the payload body bytes (without length prefix).
	EncodePayload() ([]byte, error)
}

// UnparsedPayload holds the raw body of a payload whose content type has no
// registered decoder. Re-encoding echoes the bytes unchanged, so decode and
// encode still round-trip through unaware relays.
type UnparsedPayload struct {
	TypeID uint32
	Raw    []byte
}

func (u UnparsedPayload) ContentType() uint32 { return u.TypeID }

func (u UnparsedPayload) EncodePayload() ([]byte, error) {
	return u.Raw, nil
}

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Checksum returns the CRC-32C of b, the fast integrity check used by the
// frame trailer.
func Checksum(b []byte) uint32 {
	return crc32.Checksum(b, crcTable)
}
