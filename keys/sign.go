package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// DigestFor hashes message with the named algorithm.
// Supported: sha256, sha512, sha3-256.
func DigestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

// Ed25519Signer signs packet bytes with an Ed25519 private key.
type Ed25519Signer struct {
	Private ed25519.PrivateKey
	HashAlg string // defaults to sha256
}

func (s Ed25519Signer) hashAlg() string {
	if s.HashAlg == "" {
		return "sha256"
	}
	return s.HashAlg
}

func (s Ed25519Signer) Sign(message []byte) ([]byte, error) {
	if len(s.Private) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key length: %d", len(s.Private))
	}
	digest, err := DigestFor(s.hashAlg(), message)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(s.Private, digest), nil
}

// SenderKey returns the "ed25519:<base64>" identity string for this signer.
func (s Ed25519Signer) SenderKey() string {
	pub := s.Private.Public().(ed25519.PublicKey)
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub)
}

// Dilithium3Signer signs packet bytes with a Dilithium mode3 private key.
type Dilithium3Signer struct {
	Private *mode3.PrivateKey
	Public  *mode3.PublicKey
	HashAlg string // defaults to sha256
}

func (s Dilithium3Signer) hashAlg() string {
	if s.HashAlg == "" {
		return "sha256"
	}
	return s.HashAlg
}

func (s Dilithium3Signer) Sign(message []byte) ([]byte, error) {
	if s.Private == nil {
		return nil, fmt.Errorf("missing dilithium3 private key")
	}
	digest, err := DigestFor(s.hashAlg(), message)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.Private, digest, sig)
	return sig, nil
}

// SenderKey returns the "dilithium3:<base64>" identity string for this signer.
func (s Dilithium3Signer) SenderKey() string {
	if s.Public == nil {
		return ""
	}
	b, err := s.Public.MarshalBinary()
	if err != nil {
		return ""
	}
	return "dilithium3:" + base64.StdEncoding.EncodeToString(b)
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
