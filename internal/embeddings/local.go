package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalService is a deterministic, offline embedder based on token
// feature hashing. Texts sharing tokens land near each other, which is
// enough for semantic search over a single user's project notes and
// makes test results reproducible without a model download.
type LocalService struct {
	dims int
}

// NewLocal creates a local embedder with the given vector width.
func NewLocal(dims int) *LocalService {
	if dims <= 0 {
		dims = 384
	}
	return &LocalService{dims: dims}
}

func (s *LocalService) Generate(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dims)
	tokens := tokenize(text)
	for i, tok := range tokens {
		addFeature(vec, tok, 1.0)
		// Bigrams capture a little word order.
		if i+1 < len(tokens) {
			addFeature(vec, tok+" "+tokens[i+1], 0.5)
		}
	}
	normalize(vec)
	return vec, nil
}

func (s *LocalService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Generate(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *LocalService) Dimensions() int { return s.dims }

func (s *LocalService) Model() string { return "feature-hash-v1" }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	// Second hash bit decides the sign so collisions tend to cancel.
	sign := float32(1)
	if (sum>>63)&1 == 1 {
		sign = -1
	}
	vec[idx] += sign * weight
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
