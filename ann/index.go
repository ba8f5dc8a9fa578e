// Package ann is the index facade: it wraps an hnsw.Engine with a
// content-addressed map from vector value to the set of caller-supplied
// document ids that share it, so inserting the same vector twice never
// grows the graph, only the document set attached to its one node.
package ann

import (
	"context"
	"math"
	"sync"

	"github.com/xDarkicex/annidx/hnsw"
	"github.com/xDarkicex/annidx/internal/obs"
	"github.com/xDarkicex/annidx/vector"
)

// Metric re-exports vector.Metric so callers configuring an Index never
// need to import the vector package themselves just to name a distance
// function.
type Metric = vector.Metric

const (
	MetricChebyshev = vector.MetricChebyshev
	MetricCosine    = vector.MetricCosine
	MetricEuclidean = vector.MetricEuclidean
	MetricHamming   = vector.MetricHamming
	MetricJaccard   = vector.MetricJaccard
	MetricManhattan = vector.MetricManhattan
	MetricMinkowski = vector.MetricMinkowski
	MetricPearson   = vector.MetricPearson
)

// Docs tracks the set of document ids that share one vector value. The
// zero value is empty; Add promotes it from holding one id to holding many
// as further ids arrive, and is idempotent — adding an id already present
// is a no-op.
type Docs[D comparable] struct {
	first D
	rest  []D
	n     int
}

// Add inserts doc into the set, reporting whether it was newly added.
func (d *Docs[D]) Add(doc D) bool {
	if d.n == 0 {
		d.first = doc
		d.n = 1
		return true
	}
	if d.first == doc {
		return false
	}
	for _, r := range d.rest {
		if r == doc {
			return false
		}
	}
	d.rest = append(d.rest, doc)
	d.n++
	return true
}

// List returns the set's members. Order is insertion order.
func (d Docs[D]) List() []D {
	if d.n == 0 {
		return nil
	}
	out := make([]D, 0, d.n)
	out = append(out, d.first)
	out = append(out, d.rest...)
	return out
}

// Len reports how many distinct document ids share this vector.
func (d Docs[D]) Len() int { return d.n }

type bucket[D comparable] struct {
	vec  *vector.Vector
	id   hnsw.ElementID
	docs Docs[D]
}

// Index is the top-level ANN facade: it owns one HNSW graph plus the
// vector-value -> document-id-set mapping layered on top of it.
type Index[D comparable] struct {
	cfg     Config
	engine  *hnsw.Engine
	metrics *obs.Metrics

	mu        sync.RWMutex
	byHash    map[uint64][]*bucket[D]
	byElement map[hnsw.ElementID]*bucket[D]
}

// New builds an empty Index. Dimension and Metric must be set via options;
// all other parameters fall back to conventional HNSW defaults.
func New[D comparable](opts ...Option) (*Index[D], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	selector, err := resolveSelector(*cfg)
	if err != nil {
		return nil, err
	}

	ml := 1 / math.Log(float64(cfg.M))
	engine := hnsw.NewEngine(selector, hnsw.Config{
		M:              cfg.M,
		M0:             cfg.M0,
		EfConstruction: cfg.EfConstruction,
		Seed:           cfg.Seed,
	}, ml)

	return &Index[D]{
		cfg:       *cfg,
		engine:    engine,
		metrics:   obs.NewMetrics(),
		byHash:    make(map[uint64][]*bucket[D]),
		byElement: make(map[hnsw.ElementID]*bucket[D]),
	}, nil
}

func resolveSelector(cfg Config) (vector.Selector, error) {
	if cfg.Metric == vector.MetricMinkowski {
		return vector.NewMinkowski(cfg.MinkowskiOrder), nil
	}
	sel, err := vector.GetSelector(cfg.Metric)
	if err != nil {
		return nil, newValidationError(ErrUnknownMetric, "metric", cfg.Metric)
	}
	return sel, nil
}

// Metrics exposes the Index's private Prometheus registry, so callers can
// expose it on their own /metrics endpoint.
func (idx *Index[D]) Metrics() *obs.Metrics { return idx.metrics }

// Len reports how many distinct vector values are stored (not how many
// document ids are attached across all of them).
func (idx *Index[D]) Len() int { return idx.engine.Len() }

// Insert adds doc under v. If a content-equal vector is already present,
// doc is added to its existing document set and no new graph node is
// created; otherwise v is inserted into the graph and a new bucket is
// created holding doc as its sole member.
func (idx *Index[D]) Insert(ctx context.Context, v *vector.Vector, doc D) error {
	if v.Len() != idx.cfg.Dimension {
		return newValidationError(ErrDimensionMismatch, "dimension", v.Len())
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	h := v.Hash()
	for _, b := range idx.byHash[h] {
		if b.vec.Equal(v) {
			b.docs.Add(doc)
			idx.metrics.Inserts.Inc()
			return nil
		}
	}

	id, err := idx.engine.Insert(ctx, v)
	if err != nil {
		return err
	}

	b := &bucket[D]{vec: v, id: id}
	b.docs.Add(doc)
	idx.byHash[h] = append(idx.byHash[h], b)
	idx.byElement[id] = b
	idx.metrics.Inserts.Inc()
	idx.metrics.GraphLevel.Set(float64(idx.engine.TopLevel()))
	idx.metrics.GraphDegree.Set(idx.engine.AverageDegree())
	return nil
}

// Neighbor is one k-NN result: the distance to the query, and every
// document id registered under the vector found at that distance.
type Neighbor[D comparable] struct {
	Docs     []D
	Distance float64
}

// KnnResult is a k-NN query's full result set, ordered ascending by
// distance; ties are broken by each vector's registration (insertion)
// order, since ElementID is assigned monotonically and the beam search's
// ordered set sorts by (dist, id).
type KnnResult[D comparable] []Neighbor[D]

// SearchDefault is Search using the beam width configured via WithHNSW (or
// the default of 64), for callers that don't need per-query ef control.
func (idx *Index[D]) SearchDefault(ctx context.Context, q *vector.Vector, k int) (KnnResult[D], error) {
	return idx.Search(ctx, q, k, idx.cfg.EfSearch)
}

// Search returns the k nearest document sets to q. ef controls the beam
// width at layer 0; passing ef < k is accepted and treated as if ef == k.
func (idx *Index[D]) Search(ctx context.Context, q *vector.Vector, k, ef int) (KnnResult[D], error) {
	if q.Len() != idx.cfg.Dimension {
		return nil, newValidationError(ErrDimensionMismatch, "dimension", q.Len())
	}
	if k <= 0 {
		return nil, newValidationError(ErrInvalidK, "k", k)
	}
	if ef <= 0 {
		return nil, newValidationError(ErrInvalidEf, "ef", ef)
	}

	timer := newTimer()
	ids, dists, err := idx.engine.Search(ctx, q, k, ef)
	idx.metrics.SearchLatency.Observe(timer())
	idx.metrics.Searches.Inc()
	if err != nil {
		idx.metrics.SearchErrors.Inc()
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(KnnResult[D], 0, len(ids))
	for i, id := range ids {
		b, ok := idx.byElement[id]
		if !ok {
			continue
		}
		out = append(out, Neighbor[D]{Docs: b.docs.List(), Distance: dists[i]})
	}
	return out, nil
}
