package packet

import (
	"fmt"
	"sync"
)

// PayloadDecoder decodes a payload body into a typed Payload. Decoders must
// consume the entire body and reject leftovers.
type PayloadDecoder func(raw []byte) (Payload, error)

// Registry maps payload content-type ids to decoders.
//
// Registration is expected at init time; Lookup is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[uint32]PayloadDecoder
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[uint32]PayloadDecoder)}
}

// Register installs a decoder for typeID. Registering the same id twice
// panics: two packages claiming one content type is a wiring bug.
func (r *Registry) Register(typeID uint32, dec PayloadDecoder) {
	if dec == nil {
		panic("packet: nil payload decoder")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decoders[typeID]; exists {
		panic(fmt.Sprintf("packet: payload content type %d registered twice", typeID))
	}
	r.decoders[typeID] = dec
}

// Lookup returns the decoder for typeID, or nil.
func (r *Registry) Lookup(typeID uint32) PayloadDecoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.decoders[typeID]
}

// DefaultRegistry is the registry consulted by Decode. Payload packages
// register their content types here from init.
var DefaultRegistry = NewRegistry()

// Register installs a decoder in the default registry.
func Register(typeID uint32, dec PayloadDecoder) {
	DefaultRegistry.Register(typeID, dec)
}
