package keys

import (
	"crypto/ed25519"
	"math/rand"
	"testing"
)

func testSeed(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestEd25519_SignVerify(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(0xA1))
	signer := Ed25519Signer{Private: priv}
	msg := []byte("cognitive packet signed bytes")

	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	v, err := VerifierForSenderKey(signer.SenderKey(), "sha256")
	if err != nil {
		t.Fatalf("VerifierForSenderKey: %v", err)
	}
	if !v.Verify(msg, sig) {
		t.Fatalf("expected valid signature")
	}
	if v.Verify(append([]byte("x"), msg...), sig) {
		t.Fatalf("expected invalid signature for altered message")
	}

	other := ed25519.NewKeyFromSeed(testSeed(0xB2))
	wrong, err := VerifierForSenderKey(Ed25519Signer{Private: other}.SenderKey(), "sha256")
	if err != nil {
		t.Fatalf("VerifierForSenderKey: %v", err)
	}
	if wrong.Verify(msg, sig) {
		t.Fatalf("expected failure under wrong key")
	}
}

func TestEd25519_HashAlgs(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(0x07))
	msg := []byte("digest selection")
	for _, alg := range []string{"sha256", "sha512", "sha3-256"} {
		signer := Ed25519Signer{Private: priv, HashAlg: alg}
		sig, err := signer.Sign(msg)
		if err != nil {
			t.Fatalf("Sign(%s): %v", alg, err)
		}
		v, err := VerifierForSenderKey(signer.SenderKey(), alg)
		if err != nil {
			t.Fatalf("VerifierForSenderKey(%s): %v", alg, err)
		}
		if !v.Verify(msg, sig) {
			t.Fatalf("verify failed for %s", alg)
		}
	}
	if _, err := (Ed25519Signer{Private: priv, HashAlg: "md5"}).Sign(msg); err == nil {
		t.Fatalf("expected error for unsupported hash alg")
	}
}

func TestDilithium3_SignVerify(t *testing.T) {
	pub, priv, err := GenerateDilithium3Keypair(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}
	signer := Dilithium3Signer{Private: priv, Public: pub}
	msg := []byte("post-quantum signed bytes")

	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	v, err := VerifierForSenderKey(signer.SenderKey(), "sha256")
	if err != nil {
		t.Fatalf("VerifierForSenderKey: %v", err)
	}
	if !v.Verify(msg, sig) {
		t.Fatalf("expected valid dilithium3 signature")
	}
	sig[0] ^= 0xFF
	if v.Verify(msg, sig) {
		t.Fatalf("expected invalid signature after bit flip")
	}
}

func TestVerifierForSenderKey_Rejects(t *testing.T) {
	if _, err := VerifierForSenderKey("no-colon", "sha256"); err == nil {
		t.Fatalf("expected error for missing algorithm prefix")
	}
	if _, err := VerifierForSenderKey("rsa:AAAA", "sha256"); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
	if _, err := VerifierForSenderKey("ed25519:!!", "sha256"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := VerifierForSenderKey("ed25519:AAAA", "sha256"); err == nil {
		t.Fatalf("expected error for short key")
	}
}
