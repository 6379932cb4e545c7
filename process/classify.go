package process

import (
	"math"

	"github.com/kurtnitsch/crisp/packet"
)

// Prototype is one entry in the caller-supplied intent table. The protocol
// fixes no intent vocabulary; the embedding-to-intent mapping is an
// interpretive policy layered on top of the wire format.
type Prototype struct {
	ID        uint32
	Name      string
	Embedding [packet.IntentDim]float32
}

// Intent is the classification outcome for one packet.
type Intent struct {
	ID         uint32
	Name       string
	Similarity float64
	Known      bool
}

// Classifier maps an intent embedding to the nearest prototype by cosine
// similarity. Below Threshold the intent is unknown and the packet produces
// an empty, non-destructive delta.
type Classifier struct {
	Prototypes []Prototype
	Threshold  float64
}

// Classify picks the highest-similarity prototype; ties break to the lowest
// prototype id so classification is deterministic.
func (c Classifier) Classify(embedding [packet.IntentDim]float32) Intent {
	best := Intent{}
	found := false
	for _, p := range c.Prototypes {
		sim := cosine(embedding, p.Embedding)
		if !found || sim > best.Similarity || (sim == best.Similarity && p.ID < best.ID) {
			best = Intent{ID: p.ID, Name: p.Name, Similarity: sim}
			found = true
		}
	}
	if !found || best.Similarity < c.Threshold {
		return Intent{Similarity: best.Similarity}
	}
	best.Known = true
	return best
}

func cosine(a, b [packet.IntentDim]float32) float64 {
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
