package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Verifier checks a signature over packet bytes.
type Verifier interface {
	Verify(message, signature []byte) bool
}

// Ed25519Verifier verifies ed25519 signatures over a digest of the message.
type Ed25519Verifier struct {
	Public  ed25519.PublicKey
	HashAlg string // defaults to sha256
}

func (v Ed25519Verifier) Verify(message, signature []byte) bool {
	if len(v.Public) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	alg := v.HashAlg
	if alg == "" {
		alg = "sha256"
	}
	digest, err := DigestFor(alg, message)
	if err != nil {
		return false
	}
	return ed25519.Verify(v.Public, digest, signature)
}

// Dilithium3Verifier verifies dilithium3 signatures over a digest of the message.
type Dilithium3Verifier struct {
	Public  *mode3.PublicKey
	HashAlg string // defaults to sha256
}

func (v Dilithium3Verifier) Verify(message, signature []byte) bool {
	if v.Public == nil || len(signature) != mode3.SignatureSize {
		return false
	}
	alg := v.HashAlg
	if alg == "" {
		alg = "sha256"
	}
	digest, err := DigestFor(alg, message)
	if err != nil {
		return false
	}
	return mode3.Verify(v.Public, digest, signature)
}

// VerifierForSenderKey builds a Verifier from a sender identity string.
//
// Supported encodings:
//   - ed25519:<base64>
//   - dilithium3:<base64>
func VerifierForSenderKey(senderKey, hashAlg string) (Verifier, error) {
	alg, enc, ok := strings.Cut(senderKey, ":")
	if !ok {
		return nil, fmt.Errorf("invalid sender key encoding")
	}
	pub, err := decodeBase64(enc)
	if err != nil {
		return nil, fmt.Errorf("invalid sender key base64: %w", err)
	}
	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 public key length: %d", len(pub))
		}
		return Ed25519Verifier{Public: ed25519.PublicKey(pub), HashAlg: hashAlg}, nil
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return nil, fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
		return Dilithium3Verifier{Public: &pk, HashAlg: hashAlg}, nil
	default:
		return nil, fmt.Errorf("unsupported sender key algorithm: %q", alg)
	}
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
