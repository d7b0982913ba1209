package embedding

import (
	"fmt"
	"math"
	"strings"

	"docrag/internal/domain"
)

const (
	DefaultDimension = 768

	hashPasses  = 3
	hashSeed    = 7919
	spread      = 2
	minTokenLen = 3
)

// HashEmbedder maps text to a bag-of-words fingerprint without a trained
// model. Each token is hashed three times; every hit is smeared over the
// two neighbouring buckets on either side and the result is L2-normalised.
// Output is bit-for-bit reproducible for a given text and dimension.
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{dimension: dimension}
}

func (e *HashEmbedder) Dimension() int { return e.dimension }

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}

func (e *HashEmbedder) Embed(text string) ([]float64, error) {
	if e.dimension <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidDimension, e.dimension)
	}

	dim := e.dimension
	vec := make([]float64, dim)

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}

	for i, token := range tokens {
		weight := 1.0 / math.Sqrt(float64(i+1))

		for pass := 0; pass < hashPasses; pass++ {
			pos := Bucket(token, pass, dim)
			vec[pos] += weight

			for offset := 1; offset <= spread; offset++ {
				left := (pos - offset + dim) % dim
				right := (pos + offset) % dim
				vec[left] += weight / float64(offset+1)
				vec[right] += weight / float64(offset+1)
			}
		}
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}

	return vec, nil
}

// Tokenize lowercases text, treats everything except ASCII letters, digits
// and '_' as a separator and drops tokens shorter than three bytes.
func Tokenize(text string) []string {
	lower := strings.ToLower(dottedCapitalI.Replace(text))

	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if isWordByte(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// dottedCapitalI expands U+0130 to its full lowercase mapping, i followed
// by a combining dot above. strings.ToLower alone yields a bare ASCII i,
// which would join the letter to its word.
var dottedCapitalI = strings.NewReplacer("\u0130", "i\u0307")

// Hash folds a token into a signed 32-bit accumulator seeded by the pass
// index. Overflow wraps, which is part of the bucket contract.
func Hash(token string, pass int) int32 {
	h := int32(pass * hashSeed)
	for i := 0; i < len(token); i++ {
		h = h*31 + int32(token[i])
	}
	return h
}

// Bucket maps a token's pass hash onto [0, dim).
func Bucket(token string, pass, dim int) int {
	h := int64(Hash(token, pass))
	if h < 0 {
		h = -h
	}
	return int(h % int64(dim))
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
