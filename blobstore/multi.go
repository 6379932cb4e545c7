package blobstore

import (
	"errors"
	"sort"
)

// Multi provides deterministic, ordered fallback across multiple stores.
//
// Read order is the slice order in Stores; callers MUST supply a fixed order.
// This avoids map-iteration nondeterminism and makes the retrieval strategy
// explicit.
//
// Put is defined to write only to the first store.
type Multi struct {
	Stores []Store
}

func (m Multi) Put(key string, b []byte) error {
	if len(m.Stores) == 0 {
		return errors.New("blobstore: Multi has no stores")
	}
	return m.Stores[0].Put(key, b)
}

func (m Multi) Get(key string) ([]byte, error) {
	for _, s := range m.Stores {
		b, err := s.Get(key)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m Multi) Has(key string) bool {
	for _, s := range m.Stores {
		if s.Has(key) {
			return true
		}
	}
	return false
}

// List returns the sorted union of every store's keys.
func (m Multi) List() ([]string, error) {
	seen := make(map[string]struct{})
	for _, s := range m.Stores {
		keys, err := s.List()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			seen[k] = struct{}{}
		}
	}
	union := make([]string, 0, len(seen))
	for k := range seen {
		union = append(union, k)
	}
	sort.Strings(union)
	return union, nil
}
