package vectorstore

import (
	"math"
	"sort"
)

// Hit pairs a cosine similarity score with the position of the matching
// vector in build order. Scores fall in [-1, 1].
type Hit struct {
	Score float32
	Index int
}

// Index is a flat in-memory similarity index. It is populated once by Build
// and read-only afterwards; vectors are stored unit-normalized so an inner
// product equals cosine similarity.
type Index struct {
	dim     int
	vectors [][]float32
}

// Build normalizes and stores the given vectors. An empty input yields a
// valid empty index whose searches return nothing.
func Build(vectors [][]float32) *Index {
	ix := &Index{vectors: make([][]float32, len(vectors))}
	if len(vectors) > 0 {
		ix.dim = len(vectors[0])
	}
	for i, v := range vectors {
		ix.vectors[i] = normalize(v)
	}
	return ix
}

// Len reports how many vectors the index holds.
func (ix *Index) Len() int {
	return len(ix.vectors)
}

// Search returns up to topK hits ranked by similarity descending. The query
// is normalized the same way stored vectors were; skipping that on either
// side would silently corrupt the ranking. topK larger than the index size
// returns everything.
func (ix *Index) Search(query []float32, topK int) []Hit {
	if len(ix.vectors) == 0 || topK <= 0 {
		return nil
	}

	q := normalize(query)
	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Score: dot(q, v), Index: i}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Index < hits[j].Index
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}

// normalize returns a unit-L2-norm copy of v. Zero vectors are returned as a
// copy unchanged.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
