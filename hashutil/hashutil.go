// Package hashutil provides the hashing primitives shared by the packet,
// graph and skc packages: 256-bit content hashes for concepts and anchors,
// and CIDv1 helpers for blob-store keys.
package hashutil

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// HashSize is the width of every content hash on the wire.
const HashSize = 32

// Hash is a 256-bit content hash (sha2-256 digest).
type Hash [HashSize]byte

// Zero is the all-zero hash. It doubles as the SKC genesis anchor.
var Zero Hash

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Parse decodes a 64-character hex string into a Hash.
func Parse(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("hashutil: invalid hex: %w", err)
	}
	if len(b) != HashSize {
		return Zero, fmt.Errorf("hashutil: hash must be %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Sum returns the sha2-256 digest of data.
func Sum(data []byte) Hash {
	var h Hash
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for unknown codes; SHA2_256 with default
		// length cannot fail.
		return Zero
	}
	dec, err := multihash.Decode(sum)
	if err != nil || len(dec.Digest) != HashSize {
		return Zero
	}
	copy(h[:], dec.Digest)
	return h
}

// ConceptHash returns the content address of a concept definition.
func ConceptHash(definition string) Hash {
	return Sum([]byte(definition))
}

const anchorContext = "crisp-skc-anchor-v1"

// AnchorStep derives the next anchor in an SKC chain from the previous anchor
// and the set of concept hashes committed at this step.
//
// The input hashes are sorted bytewise before hashing, so the result does not
// depend on commit-call ordering within a step. The context string
// domain-separates anchor hashes from concept hashes.
func AnchorStep(prev Hash, committed []Hash) Hash {
	sorted := append([]Hash(nil), committed...)
	sort.Slice(sorted, func(i, j int) bool {
		for k := 0; k < HashSize; k++ {
			if sorted[i][k] != sorted[j][k] {
				return sorted[i][k] < sorted[j][k]
			}
		}
		return false
	})

	buf := make([]byte, 0, len(anchorContext)+1+HashSize*(1+len(sorted)))
	buf = append(buf, anchorContext...)
	buf = append(buf, 0)
	buf = append(buf, prev[:]...)
	for _, h := range sorted {
		buf = append(buf, h[:]...)
	}
	return Sum(buf)
}

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec and a
// sha2-256 multihash. Blob-store keys for exported embeddings and tensors are
// derived this way so any store holding the same bytes agrees on the key.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
