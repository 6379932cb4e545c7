// Package keys provides the sign/verify capability consumed by the packet
// layer, plus local-first key storage helpers for the CLI.
//
// The protocol core only uses the Signer and Verifier interfaces; key issuance
// and distribution are deliberately outside this module. Two signature
// families are supported, selected by the sender-key string prefix:
//
//   - ed25519:<base64 public key>
//   - dilithium3:<base64 public key> (post-quantum, via circl)
//
// Signatures are computed over a digest of the signed bytes. The digest
// algorithm (sha256, sha512, sha3-256) travels with the sender key out of
// band; the wire format never encodes it.
package keys
