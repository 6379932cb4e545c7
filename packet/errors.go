package packet

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/Code rather than matching error strings;
// Error() strings are human-readable and may evolve.
type Kind string

const (
	// KindTruncated: fewer bytes remain than a field requires. Fatal.
	KindTruncated Kind = "Truncated"
	// KindChecksum: the recomputed CRC disagrees with the transmitted value.
	// Fatal; no fields are exposed.
	KindChecksum Kind = "ChecksumMismatch"
	// KindMalformed: the frame is structurally inconsistent (trailing bytes,
	// content-type mismatch between header and payload). Fatal.
	KindMalformed Kind = "Malformed"
	// KindUnrecognizedPayload: no decoder registered for the content type.
	// Non-fatal; Decode still returns the packet with an UnparsedPayload.
	KindUnrecognizedPayload Kind = "UnrecognizedPayloadType"
	// KindPayload: a registered payload decoder rejected the body
	// (duplicate local node id, dangling edge reference, truncation). Fatal.
	KindPayload Kind = "Payload"
	// KindSignature: the signature block failed verification.
	KindSignature Kind = "SignatureInvalid"
	// KindInternal: a programming error on the encode path.
	KindInternal Kind = "Internal"
)

// Error is the codec's structured error type.
//
// Code is a stable identifier (e.g. CP-WIRE-010) naming the violated rule.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError constructs a structured codec error. Payload codec packages use it
// to report violations under their own codes.
func NewError(kind Kind, code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// WrapError constructs a structured codec error wrapping a cause.
func WrapError(kind Kind, code, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, code, msg)
	}
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// ErrorCode returns the stable Code for a structured error, or "" if unknown.
func ErrorCode(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}
