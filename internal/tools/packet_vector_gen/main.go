// packet_vector_gen prints a deterministic signed frame for cross-checking
// other implementations of the wire format.
package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/kurtnitsch/crisp/graph"
	"github.com/kurtnitsch/crisp/hashutil"
	"github.com/kurtnitsch/crisp/keys"
	"github.com/kurtnitsch/crisp/packet"
)

func mustKeypair(seedByte byte) ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	return ed25519.NewKeyFromSeed(seed)
}

func main() {
	signer := keys.Ed25519Signer{Private: mustKeypair(0xA1)}

	var emb graph.Embedding
	emb[0] = 1
	snippet := graph.Snippet{
		Nodes: []graph.Node{
			{LocalID: 0, Value: emb},
			{LocalID: 1, Value: graph.HashRef(hashutil.ConceptHash("UnknownMovingObject"))},
			{LocalID: 2, Value: graph.HashRef(hashutil.ConceptHash("HighVelocity"))},
			{LocalID: 3, Value: graph.Tensor{150.5, -30.2, 0.0}},
		},
		Edges: []graph.Edge{
			{Src: 0, Dst: 1, Relationship: hashutil.ConceptHash("isA")},
			{Src: 0, Dst: 2, Relationship: hashutil.ConceptHash("hasProperty")},
			{Src: 2, Dst: 3, Relationship: hashutil.ConceptHash("hasValue")},
		},
	}

	p := &packet.Packet{}
	p.Metadata.PacketID = 1001
	p.Metadata.TimestampNS = 1700000000000000000
	p.Header.ContextAnchor = hashutil.AnchorStep(hashutil.Zero, []hashutil.Hash{hashutil.ConceptHash("HighVelocity")})
	var intent [packet.IntentDim]float32
	intent[0] = 1
	p.Header.IntentEmbedding = intent
	p.Header.Confidence = 0.93
	p.Header.PayloadContentType = graph.ContentTypeSnippet
	p.Payload = snippet

	if err := packet.Sign(p, signer); err != nil {
		panic(err)
	}
	frame, err := packet.Encode(p)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Sender-Key=%s\n", signer.SenderKey())
	fmt.Printf("Context-Anchor=%s\n", p.Header.ContextAnchor)
	fmt.Printf("Checksum=%08x\n", packet.Checksum(frame[:len(frame)-4]))
	fmt.Printf("---BEGIN---\n%s\n---END---\n", hex.EncodeToString(frame))
}
