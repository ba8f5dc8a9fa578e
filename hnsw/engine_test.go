package hnsw

import (
	"context"
	"math"
	"testing"

	"github.com/xDarkicex/annidx/internal/randvec"
	"github.com/xDarkicex/annidx/vector"
)

func newTestEngine(t *testing.T, m, m0, efc int, seed int64, dist vector.Selector) *Engine {
	t.Helper()
	ml := 1 / math.Log(float64(m))
	return NewEngine(dist, Config{M: m, M0: m0, EfConstruction: efc, Seed: seed}, ml)
}

// S4: empty index search returns no results.
func TestSearchEmptyIndex(t *testing.T) {
	e := newTestEngine(t, 12, 24, 500, 1, vector.Euclidean)
	q := vector.FromFloat64([]float64{0, 0})
	ids, _, err := e.Search(context.Background(), q, 5, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no results from an empty index, got %d", len(ids))
	}
}

// S5: a single inserted vector is its own nearest neighbor at distance 0.
func TestSearchSingleInsert(t *testing.T) {
	e := newTestEngine(t, 12, 24, 500, 1, vector.Euclidean)
	v := vector.FromFloat64([]float64{1, 2})
	ctx := context.Background()
	id, err := e.Insert(ctx, v)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	ids, dists, err := e.Search(ctx, v, 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected [%v], got %v", id, ids)
	}
	if dists[0] != 0 {
		t.Fatalf("expected distance 0, got %v", dists[0])
	}
}

// S6: inserting the same vector value twice produces two distinct graph
// elements at the engine level (the dedup-into-one-node behavior is the
// ann facade's job, layered above this engine); searching for it returns
// exactly 2 results both at distance 0, not 1 and not 4.
func TestSearchDuplicateInsert(t *testing.T) {
	e := newTestEngine(t, 12, 24, 500, 1, vector.Euclidean)
	v := vector.FromFloat64([]float64{3, 4})
	ctx := context.Background()
	if _, err := e.Insert(ctx, v); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if _, err := e.Insert(ctx, v); err != nil {
		t.Fatalf("insert 2: %v", err)
	}
	ids, dists, err := e.Search(ctx, v, 2, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected exactly 2 results, got %d", len(ids))
	}
	for _, d := range dists {
		if d != 0 {
			t.Fatalf("expected distance 0 for both, got %v", d)
		}
	}
}

// S1: unique collections, self-search containment across metrics/kinds.
func TestSelfSearchContainsExactMatchUniqueCollection(t *testing.T) {
	const (
		n   = 10
		dim = 2
	)
	kinds := []vector.Kind{vector.KindF64, vector.KindF32, vector.KindI64, vector.KindI32, vector.KindI16}
	dists := map[string]vector.Selector{
		"euclidean":    vector.Euclidean,
		"manhattan":    vector.Manhattan,
		"hamming":      vector.Hamming,
		"minkowski(2)": vector.NewMinkowski(2),
		"chebyshev":    vector.Chebyshev,
	}

	for _, kind := range kinds {
		for name, dist := range dists {
			e := newTestEngine(t, 12, 24, 500, 7, dist)
			ctx := context.Background()
			ids := make([]ElementID, n)
			vecs := make([]*vector.Vector, n)
			for i := 0; i < n; i++ {
				v := vector.New(kind, dim)
				for d := 0; d < dim; d++ {
					v.Append(vector.Int64(int64(i)))
				}
				vecs[i] = v
				id, err := e.Insert(ctx, v)
				if err != nil {
					t.Fatalf("%s/%s: insert %d: %v", kind, name, i, err)
				}
				ids[i] = id
			}

			for i, v := range vecs {
				for k := 1; k <= 20; k++ {
					got, _, err := e.Search(ctx, v, k, 500)
					if err != nil {
						t.Fatalf("%s/%s: search: %v", kind, name, err)
					}
					want := n
					if k < want {
						want = k
					}
					if len(got) != want {
						t.Fatalf("%s/%s: k=%d: expected %d results, got %d", kind, name, k, want, len(got))
					}
					found := false
					for _, g := range got {
						if g == ids[i] {
							found = true
							break
						}
					}
					if !found {
						t.Fatalf("%s/%s: k=%d: expected result set to contain the exact match %v, got %v", kind, name, k, ids[i], got)
					}
				}
			}
		}
	}
}

// S3: high-dimensional self-match under Hamming.
func TestHighDimensionalSelfMatchHamming(t *testing.T) {
	const (
		n   = 20
		dim = 1536
	)
	e := newTestEngine(t, 12, 24, 500, 3, vector.Hamming)
	ctx := context.Background()
	ids := make([]ElementID, n)
	vecs := make([]*vector.Vector, n)
	for i := 0; i < n; i++ {
		v := vector.New(vector.KindI32, dim)
		for d := 0; d < dim; d++ {
			v.Append(vector.Int64(int64(i*dim + d)))
		}
		vecs[i] = v
		id, err := e.Insert(ctx, v)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		ids[i] = id
	}
	for i, v := range vecs {
		got, _, err := e.Search(ctx, v, 1, 500)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 1 || got[0] != ids[i] {
			t.Fatalf("expected self-match %v, got %v", ids[i], got)
		}
	}
}

// S7: degree bound holds at the base layer after a small batch of inserts.
func TestDegreeBoundAfterInserts(t *testing.T) {
	const (
		n  = 10
		m  = 12
		m0 = 24
	)
	e := newTestEngine(t, m, m0, 500, 9, vector.Euclidean)
	ctx := context.Background()
	for i := 0; i < n; i++ {
		v := vector.FromFloat64([]float64{float64(i), float64(i * i)})
		if _, err := e.Insert(ctx, v); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	l0 := e.layerAt(0)
	l0.mu.RLock()
	defer l0.mu.RUnlock()
	if len(l0.neighbors) != n {
		t.Fatalf("expected %d base-layer nodes, got %d", n, len(l0.neighbors))
	}
	for id, links := range l0.neighbors {
		if len(links) > m0 {
			t.Fatalf("node %v exceeds M0: degree %d > %d", id, len(links), m0)
		}
	}
}

// S2: a random, non-unique collection returns exactly min(n, k) results for
// every metric under test, without requiring containment of any particular
// element (unlike S1's unique-collection self-match guarantee).
func TestSearchRandomCollectionRecallCount(t *testing.T) {
	const (
		n   = 50
		dim = 8
	)
	dists := map[string]vector.Selector{
		"cosine":       vector.Cosine,
		"euclidean":    vector.Euclidean,
		"manhattan":    vector.Manhattan,
		"minkowski(2)": vector.NewMinkowski(2),
	}

	for name, dist := range dists {
		e := newTestEngine(t, 12, 24, 200, 4, dist)
		ctx := context.Background()
		gen := randvec.New(13)
		collection := randvec.RandomCollection(gen, n, dim)
		for i, v := range collection {
			if _, err := e.Insert(ctx, v); err != nil {
				t.Fatalf("%s: insert %d: %v", name, i, err)
			}
		}

		for _, k := range []int{1, 5, 20, n, n + 10} {
			got, _, err := e.Search(ctx, collection[0], k, 200)
			if err != nil {
				t.Fatalf("%s: search k=%d: %v", name, k, err)
			}
			want := k
			if want > n {
				want = n
			}
			if len(got) != want {
				t.Fatalf("%s: k=%d: expected %d results, got %d", name, k, want, len(got))
			}
		}
	}
}

// P1 + P2: degree bound and layer-presence monotonicity hold across every
// layer, not just layer 0, after a larger randomized batch of inserts.
func TestLayerInvariants(t *testing.T) {
	const (
		n  = 200
		m  = 8
		m0 = 16
	)
	e := newTestEngine(t, m, m0, 64, 11, vector.Euclidean)
	ctx := context.Background()
	for i := 0; i < n; i++ {
		v := vector.FromFloat64([]float64{float64(i % 23), float64((i * 7) % 29), float64((i * 13) % 17)})
		if _, err := e.Insert(ctx, v); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	e.layersMu.RLock()
	layers := append([]*layer(nil), e.layers...)
	e.layersMu.RUnlock()

	for lc, l := range layers {
		l.mu.RLock()
		bound := m
		if lc == 0 {
			bound = m0
		}
		for id, links := range l.neighbors {
			if len(links) > bound {
				t.Fatalf("layer %d: node %v exceeds bound: degree %d > %d", lc, id, len(links), bound)
			}
			if lc > 0 {
				layers[lc-1].mu.RLock()
				present := layers[lc-1].containsLocked(id)
				layers[lc-1].mu.RUnlock()
				if !present {
					t.Fatalf("layer %d: node %v present but missing from layer %d", lc, id, lc-1)
				}
			}
		}
		l.mu.RUnlock()
	}
}

// P3: the entry point is always present in the highest non-empty layer.
func TestEntryPointInHighestLayer(t *testing.T) {
	e := newTestEngine(t, 8, 16, 64, 5, vector.Euclidean)
	ctx := context.Background()
	var lastID ElementID
	for i := 0; i < 50; i++ {
		v := vector.FromFloat64([]float64{float64(i), float64(-i)})
		id, err := e.Insert(ctx, v)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		lastID = id
	}
	_ = lastID

	e.entryMu.RLock()
	entry := e.entry
	e.entryMu.RUnlock()
	if !entry.ok {
		t.Fatalf("expected a non-empty index to have an entry point")
	}

	e.layersMu.RLock()
	top := len(e.layers) - 1
	topLayer := e.layers[top]
	e.layersMu.RUnlock()

	topLayer.mu.RLock()
	defer topLayer.mu.RUnlock()
	if !topLayer.containsLocked(entry.id) {
		t.Fatalf("expected entry point %v to be present in the highest layer %d", entry.id, top)
	}
}

// P4: ElementIds are assigned densely as 0..N-1.
func TestElementIDsAreDense(t *testing.T) {
	e := newTestEngine(t, 8, 16, 64, 2, vector.Euclidean)
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		v := vector.FromFloat64([]float64{float64(i)})
		id, err := e.Insert(ctx, v)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if id != ElementID(i) {
			t.Fatalf("expected element id %d, got %v", i, id)
		}
	}
}
