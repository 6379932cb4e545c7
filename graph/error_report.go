package graph

import (
	"encoding/binary"

	"github.com/kurtnitsch/crisp/packet"
)

// ContentTypeErrorReport is the payload content-type id for error responses.
const ContentTypeErrorReport = 0xE0

// Error codes carried by ErrorReport payloads.
const (
	ErrCodeMalformedPacket    uint16 = 0x0001
	ErrCodeSKCIDNotFound      uint16 = 0x0003
	ErrCodeVersionConflict    uint16 = 0x0007
	ErrCodeSyncFailed         uint16 = 0x0008
	ErrCodeInvalidMerkleRoot  uint16 = 0x0009
	ErrCodeUnauthorizedUpdate uint16 = 0x000A
	ErrCodeDeadlockTimeout    uint16 = 0x000B
)

// ErrorReport tells a peer that one of its packets was rejected and why.
// CorrelationID echoes the offending packet's id; OriginalType echoes its
// payload content type.
//
// Body layout: correlation_id u64, original_type u32, code u16,
// message_len u16, message bytes.
type ErrorReport struct {
	CorrelationID uint64
	OriginalType  uint32
	Code          uint16
	Message       string
}

func (ErrorReport) ContentType() uint32 { return ContentTypeErrorReport }

func (e ErrorReport) EncodePayload() ([]byte, error) {
	msg := []byte(e.Message)
	if len(msg) > 0xFFFF {
		return nil, packet.NewError(packet.KindInternal, "CP-ERR-001", "error message too long")
	}
	out := make([]byte, 0, 16+len(msg))
	out = binary.BigEndian.AppendUint64(out, e.CorrelationID)
	out = binary.BigEndian.AppendUint32(out, e.OriginalType)
	out = binary.BigEndian.AppendUint16(out, e.Code)
	out = binary.BigEndian.AppendUint16(out, uint16(len(msg)))
	out = append(out, msg...)
	return out, nil
}

func decodeErrorReportPayload(raw []byte) (packet.Payload, error) {
	if len(raw) < 16 {
		return nil, packet.NewError(packet.KindTruncated, "CP-ERR-002", "error report truncated")
	}
	e := ErrorReport{
		CorrelationID: binary.BigEndian.Uint64(raw),
		OriginalType:  binary.BigEndian.Uint32(raw[8:]),
		Code:          binary.BigEndian.Uint16(raw[12:]),
	}
	msgLen := int(binary.BigEndian.Uint16(raw[14:]))
	if len(raw) != 16+msgLen {
		return nil, packet.NewError(packet.KindTruncated, "CP-ERR-002", "error report length mismatch")
	}
	e.Message = string(raw[16 : 16+msgLen])
	return e, nil
}
