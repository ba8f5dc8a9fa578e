// Package randvec reconstructs the seeded random-vector generators the
// original HNSW test module used (get_seed_rnd, new_random_vec, and the
// unique/random test-collection builders), so tests outside the vector
// package can share seeded generators.
package randvec

import (
	"math/rand"

	"github.com/xDarkicex/annidx/vector"
)

// Gen wraps a seeded RNG with the vector-shaped constructors tests need.
type Gen struct {
	r *rand.Rand
}

// New returns a generator seeded deterministically from seed.
func New(seed int64) *Gen {
	return &Gen{r: rand.New(rand.NewSource(seed))}
}

// Float64s returns an f64-kinded vector of dim independent uniform
// elements in [0, 1).
func (g *Gen) Float64s(dim int) *vector.Vector {
	v := vector.New(vector.KindF64, dim)
	for i := 0; i < dim; i++ {
		v.Append(vector.Float64(g.r.Float64()))
	}
	return v
}

// Float32s returns an f32-kinded vector of dim independent uniform
// elements in [0, 1).
func (g *Gen) Float32s(dim int) *vector.Vector {
	v := vector.New(vector.KindF32, dim)
	for i := 0; i < dim; i++ {
		v.Append(vector.Float64(g.r.Float64()))
	}
	return v
}

// Bits returns a vector whose elements are each 0 or 1, useful for Hamming
// and Jaccard exercises where kind is one of the integer kinds.
func (g *Gen) Bits(kind vector.Kind, dim int) *vector.Vector {
	v := vector.New(kind, dim)
	for i := 0; i < dim; i++ {
		v.Append(vector.Int64(int64(g.r.Intn(2))))
	}
	return v
}

// UniqueCollection returns n distinct f64 vectors of dimension dim: vector
// i has every element set to float64(i), guaranteeing no two collide.
func UniqueCollection(n, dim int) []*vector.Vector {
	out := make([]*vector.Vector, n)
	for i := 0; i < n; i++ {
		v := vector.New(vector.KindF64, dim)
		for d := 0; d < dim; d++ {
			v.Append(vector.Float64(float64(i)))
		}
		out[i] = v
	}
	return out
}

// RandomCollection returns n random f64 vectors of dimension dim drawn
// from g; duplicates are possible but vanishingly unlikely for dim >= 1.
func RandomCollection(g *Gen, n, dim int) []*vector.Vector {
	out := make([]*vector.Vector, n)
	for i := 0; i < n; i++ {
		out[i] = g.Float64s(dim)
	}
	return out
}
