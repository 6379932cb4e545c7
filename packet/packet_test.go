package packet

import (
	"crypto/ed25519"
	"math"
	"testing"

	"github.com/kurtnitsch/crisp/hashutil"
)

// rawPayload is a minimal payload for codec tests; real payload schemas live
// in the graph package.
type rawPayload struct {
	typeID uint32
	body   []byte
}

func (r rawPayload) ContentType() uint32 { return r.typeID }

func (r rawPayload) EncodePayload() ([]byte, error) { return r.body, nil }

const testContentType = 900

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(testContentType, func(raw []byte) (Payload, error) {
		return rawPayload{typeID: testContentType, body: raw}, nil
	})
	return reg
}

func testPacket(body []byte) *Packet {
	p := &Packet{}
	p.Metadata.PacketID = 42
	p.Metadata.TimestampNS = 1_700_000_000_000_000_001
	for i := range p.Metadata.SenderID {
		p.Metadata.SenderID[i] = byte(i)
	}
	for i := range p.Metadata.ReceiverID {
		p.Metadata.ReceiverID[i] = byte(0xF0 - i)
	}
	p.Header.ContextAnchor = hashutil.ConceptHash("anchor-under-test")
	for i := range p.Header.IntentEmbedding {
		p.Header.IntentEmbedding[i] = float32(i) * 0.25
	}
	p.Header.Confidence = 0.875
	p.Header.PayloadContentType = testContentType
	p.Header.PriorityFlags = 0x0000_0003
	p.Payload = rawPayload{typeID: testContentType, body: body}
	return p
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	p := testPacket([]byte{9, 8, 7, 6, 5})
	p.Signature.Signature = []byte("not-a-real-signature")

	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeWithRegistry(frame, testRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Metadata != p.Metadata {
		t.Fatalf("metadata mismatch: %+v vs %+v", got.Metadata, p.Metadata)
	}
	if got.Header != p.Header {
		t.Fatalf("header mismatch")
	}
	gp := got.Payload.(rawPayload)
	if string(gp.body) != string([]byte{9, 8, 7, 6, 5}) {
		t.Fatalf("payload mismatch: %v", gp.body)
	}
	if string(got.Signature.Signature) != "not-a-real-signature" {
		t.Fatalf("signature mismatch")
	}
	if got.Signature.Checksum != Checksum(frame[:len(frame)-4]) {
		t.Fatalf("stored checksum mismatch")
	}
}

func TestRoundTrip_FloatBitExact(t *testing.T) {
	p := testPacket(nil)
	// Values that are not representable exactly in shorter forms, plus
	// negative zero, which only a bit-level comparison distinguishes.
	p.Header.IntentEmbedding[0] = 0.1
	p.Header.IntentEmbedding[1] = -0.3
	p.Header.IntentEmbedding[511] = float32(1e-39)               // subnormal
	p.Header.Confidence = math.Float32frombits(0x8000_0000)      // negative zero

	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeWithRegistry(frame, testRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Header != p.Header {
		t.Fatalf("float fields must survive bit-exactly")
	}
	if math.Float32bits(got.Header.Confidence) != 0x8000_0000 {
		t.Fatalf("negative zero not preserved")
	}
}

func TestDecode_Truncation(t *testing.T) {
	p := testPacket([]byte{1, 2, 3})
	p.Signature.Signature = []byte{0xAA, 0xBB}
	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	for _, cut := range []int{0, 1, metadataSize, metadataSize + headerSize, metadataSize + headerSize + 4, len(frame) - 5, len(frame) - 1} {
		_, err := DecodeWithRegistry(frame[:cut], testRegistry())
		if err == nil {
			t.Fatalf("expected error at cut %d", cut)
		}
		if !IsKind(err, KindTruncated) {
			t.Fatalf("expected KindTruncated at cut %d, got %v (%s)", cut, err, ErrorCode(err))
		}
	}
}

func TestDecode_MaxDeclaredLengths(t *testing.T) {
	frame, err := Encode(testPacket([]byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	payloadLenOff := metadataSize + headerSize
	sigLenOff := payloadLenOff + 4 + 3

	// A declared length near 2^32 must fail the bounds check as truncation,
	// even where int is 32 bits wide.
	for name, off := range map[string]int{"payload": payloadLenOff, "signature": sigLenOff} {
		mutated := append([]byte(nil), frame...)
		for i := 0; i < 4; i++ {
			mutated[off+i] = 0xFF
		}
		got, err := DecodeWithRegistry(mutated, testRegistry())
		if got != nil {
			t.Fatalf("%s: oversized length exposed packet fields", name)
		}
		if !IsKind(err, KindTruncated) {
			t.Fatalf("%s: expected KindTruncated, got %v", name, err)
		}
	}
}

func TestDecode_TrailingBytes(t *testing.T) {
	frame, err := Encode(testPacket(nil))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, err = DecodeWithRegistry(append(frame, 0x00), testRegistry())
	if !IsKind(err, KindMalformed) {
		t.Fatalf("expected KindMalformed, got %v", err)
	}
}

func TestDecode_ChecksumSensitivity(t *testing.T) {
	p := testPacket([]byte{1, 2, 3, 4})
	p.Signature.Signature = []byte("sig-bytes-included-in-crc")
	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Flipping any byte before the checksum field must reject the frame,
	// including bytes inside the signature block. Flips within the two
	// length prefixes can fail structurally before the CRC runs; everything
	// else must surface as a checksum mismatch.
	payloadLenOff := metadataSize + headerSize
	sigLenOff := payloadLenOff + 4 + 4
	for i := 0; i < len(frame)-4; i++ {
		mutated := append([]byte(nil), frame...)
		mutated[i] ^= 0x01
		got, err := DecodeWithRegistry(mutated, testRegistry())
		if err == nil {
			t.Fatalf("flip at %d went undetected", i)
		}
		if got != nil {
			t.Fatalf("flip at %d exposed packet fields", i)
		}
		inLenPrefix := (i >= payloadLenOff && i < payloadLenOff+4) || (i >= sigLenOff && i < sigLenOff+4)
		if !inLenPrefix && !IsKind(err, KindChecksum) {
			t.Fatalf("flip at %d: expected KindChecksum, got %v", i, err)
		}
	}
}

func TestDecode_UnrecognizedPayloadDegrades(t *testing.T) {
	p := testPacket([]byte{0xDE, 0xAD})
	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Decode against a registry with no decoder for the content type.
	got, err := DecodeWithRegistry(frame, NewRegistry())
	if err == nil {
		t.Fatalf("expected KindUnrecognizedPayload error")
	}
	if !IsKind(err, KindUnrecognizedPayload) {
		t.Fatalf("expected KindUnrecognizedPayload, got %v", err)
	}
	if got == nil {
		t.Fatalf("metadata/header must remain usable")
	}
	if got.Metadata != p.Metadata || got.Header != p.Header {
		t.Fatalf("metadata/header mismatch on degraded decode")
	}
	up, ok := got.Payload.(UnparsedPayload)
	if !ok {
		t.Fatalf("expected UnparsedPayload, got %T", got.Payload)
	}
	if up.TypeID != testContentType || string(up.Raw) != string([]byte{0xDE, 0xAD}) {
		t.Fatalf("unexpected unparsed payload: %+v", up)
	}

	// The degraded packet re-encodes to the identical frame.
	again, err := Encode(got)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if string(again) != string(frame) {
		t.Fatalf("unparsed payload must round-trip byte-identically")
	}
}

func TestEncode_ContentTypeMismatch(t *testing.T) {
	p := testPacket(nil)
	p.Header.PayloadContentType = testContentType + 1
	if _, err := Encode(p); !IsKind(err, KindMalformed) {
		t.Fatalf("expected KindMalformed, got %v", err)
	}
}

func TestSignVerify_IndependentOfChecksum(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x5C
	}
	priv := ed25519.NewKeyFromSeed(seed)
	signer := ed25519TestSigner{priv: priv}
	verifier := ed25519TestVerifier{pub: priv.Public().(ed25519.PublicKey)}

	p := testPacket([]byte{1, 2, 3})
	if err := Sign(p, signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeWithRegistry(frame, testRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !Verify(got, verifier) {
		t.Fatalf("expected valid signature after round trip")
	}

	// Flip a byte inside the signature bytes, repair the checksum: decode
	// succeeds, verify fails. The two layers are independent.
	sigStart := len(frame) - 4 - len(p.Signature.Signature)
	mutated := append([]byte(nil), frame...)
	mutated[sigStart] ^= 0x01
	fixCRC(mutated)
	got, err = DecodeWithRegistry(mutated, testRegistry())
	if err != nil {
		t.Fatalf("Decode after sig flip: %v", err)
	}
	if Verify(got, verifier) {
		t.Fatalf("expected invalid signature after sig byte flip")
	}

	// Without the repair, the checksum catches the same flip first.
	unrepaired := append([]byte(nil), frame...)
	unrepaired[sigStart] ^= 0x01
	if _, err := DecodeWithRegistry(unrepaired, testRegistry()); !IsKind(err, KindChecksum) {
		t.Fatalf("expected KindChecksum, got %v", err)
	}
}

func fixCRC(frame []byte) {
	c := Checksum(frame[:len(frame)-4])
	frame[len(frame)-4] = byte(c >> 24)
	frame[len(frame)-3] = byte(c >> 16)
	frame[len(frame)-2] = byte(c >> 8)
	frame[len(frame)-1] = byte(c)
}

type ed25519TestSigner struct{ priv ed25519.PrivateKey }

func (s ed25519TestSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

type ed25519TestVerifier struct{ pub ed25519.PublicKey }

func (v ed25519TestVerifier) Verify(message, sig []byte) bool {
	return ed25519.Verify(v.pub, message, sig)
}
