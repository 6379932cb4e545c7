// Package blobstore defines the keyed blob store the protocol core hands
// resolved embeddings and tensors to. It is an external collaborator: nothing
// in the packet, graph or skc packages depends on it.
package blobstore

import (
	"errors"

	"github.com/kurtnitsch/crisp/hashutil"
)

// Store is a minimal keyed blob store.
//
// Contract:
// - Put overwrites: the last write for a key wins.
// - Get MUST return ErrNotFound when the key is absent.
// - List returns keys in lexicographic order so callers iterate
//   deterministically.
type Store interface {
	Put(key string, b []byte) error
	Get(key string) ([]byte, error)
	Has(key string) bool
	List() ([]string, error)
}

var (
	ErrNotFound    = errors.New("blobstore: not found")
	ErrInvalidKey  = errors.New("blobstore: invalid key")
	ErrKeyMismatch = errors.New("blobstore: bytes do not match content key")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// ContentKey derives a deterministic key for b: a CIDv1 (raw + sha2-256)
// string. Two stores holding the same bytes agree on the key, which is what
// lets a packet's DataPointer hash be looked up anywhere.
func ContentKey(b []byte) string {
	return hashutil.CIDv1RawSHA256(b)
}

// CheckKey validates a store key. Keys are restricted to a filesystem- and
// URL-safe alphabet so every backend can use them verbatim.
func CheckKey(key string) error {
	if key == "" || len(key) > 256 {
		return ErrInvalidKey
	}
	if key[0] == '.' {
		// Also keeps dotfiles (and LocalFS temp files) out of the keyspace.
		return ErrInvalidKey
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.' {
			continue
		}
		return ErrInvalidKey
	}
	if key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
