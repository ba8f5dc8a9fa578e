// Package hnsw implements the Hierarchical Navigable Small World graph: a
// multi-layer proximity graph supporting degree-bounded insertion and beam
// search for approximate k-nearest-neighbor queries.
package hnsw

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/xDarkicex/annidx/vector"
)

// Config holds the engine's structural parameters, fixed at construction
// time (spec §6 allows either a compile-time or constructor-time form; this
// is the constructor-time realization, matching how the teacher threads
// HNSW parameters through its own Config struct).
type Config struct {
	// M is the maximum number of bidirectional links a node keeps at every
	// layer above level 0.
	M int
	// M0 is the maximum number of links a node keeps at level 0,
	// conventionally 2*M.
	M0 int
	// EfConstruction is the beam width used while building connections
	// during Insert.
	EfConstruction int
	// Seed drives the level-assignment RNG; fixed seeds make tests
	// reproducible.
	Seed int64
}

// entryState is the engine's small set of fields written only by Insert,
// guarded by entryMu so Search can read a consistent (id, level) pair
// without taking any layer lock.
type entryState struct {
	id    ElementID
	level int
	ok    bool
}

// Engine is the HNSW graph: a stack of layers, the dense element table,
// and the single entry point insertion maintains.
type Engine struct {
	cfg  Config
	ml   float64
	dist vector.Selector

	layersMu sync.RWMutex
	layers   []*layer

	elementsMu sync.RWMutex
	elements   []*vector.Vector

	entryMu sync.RWMutex
	entry   entryState

	insertMu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine builds an empty engine using dist for all distance
// computations and ml as the level-generation factor (1/ln(M) for the
// conventional choice of M).
func NewEngine(dist vector.Selector, cfg Config, ml float64) *Engine {
	return &Engine{
		cfg:  cfg,
		ml:   ml,
		dist: dist,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Len reports how many elements have been inserted.
func (e *Engine) Len() int {
	e.elementsMu.RLock()
	defer e.elementsMu.RUnlock()
	return len(e.elements)
}

func (e *Engine) vectorAt(id ElementID) *vector.Vector {
	e.elementsMu.RLock()
	defer e.elementsMu.RUnlock()
	return e.elements[id]
}

func (e *Engine) layerAt(level int) *layer {
	e.layersMu.RLock()
	defer e.layersMu.RUnlock()
	return e.layers[level]
}

// TopLevel reports the index of the highest layer currently allocated, or -1
// for an empty engine. Exposed for gauge-style instrumentation.
func (e *Engine) TopLevel() int {
	e.layersMu.RLock()
	defer e.layersMu.RUnlock()
	return len(e.layers) - 1
}

// AverageDegree reports the mean out-degree of nodes at layer 0, or 0 for an
// empty engine. Exposed for gauge-style instrumentation.
func (e *Engine) AverageDegree() float64 {
	e.layersMu.RLock()
	if len(e.layers) == 0 {
		e.layersMu.RUnlock()
		return 0
	}
	l0 := e.layers[0]
	e.layersMu.RUnlock()

	l0.mu.RLock()
	defer l0.mu.RUnlock()
	if len(l0.neighbors) == 0 {
		return 0
	}
	total := 0
	for _, links := range l0.neighbors {
		total += len(links)
	}
	return float64(total) / float64(len(l0.neighbors))
}

func (e *Engine) maxConnAt(level int) int {
	if level == 0 {
		return e.cfg.M0
	}
	return e.cfg.M
}

// assignLevel draws this insertion's layer per the standard HNSW
// distribution: floor(-ln(u) * ml) for u uniform on (0, 1].
func (e *Engine) assignLevel() int {
	e.rngMu.Lock()
	u := e.rng.Float64()
	e.rngMu.Unlock()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	return int(math.Floor(-math.Log(u) * e.ml))
}

// Insert adds q to the graph and returns the ElementID it was assigned.
// Insertion is not safely cancellable once started: ctx is only checked
// before any work begins, matching the concurrency model's note that an
// in-flight insert cannot release a consistent partial state.
func (e *Engine) Insert(ctx context.Context, q *vector.Vector) (ElementID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	e.insertMu.Lock()
	defer e.insertMu.Unlock()

	e.elementsMu.Lock()
	id := ElementID(len(e.elements))
	e.elements = append(e.elements, q)
	e.elementsMu.Unlock()

	level := e.assignLevel()

	e.layersMu.Lock()
	for len(e.layers) <= level {
		e.layers = append(e.layers, newLayer())
	}
	e.layersMu.Unlock()

	e.entryMu.RLock()
	cur := e.entry
	e.entryMu.RUnlock()

	if !cur.ok {
		for lc := 0; lc <= level; lc++ {
			l := e.layerAt(lc)
			l.mu.Lock()
			l.ensure(id)
			l.mu.Unlock()
		}
		e.entryMu.Lock()
		e.entry = entryState{id: id, level: level, ok: true}
		e.entryMu.Unlock()
		return id, nil
	}

	ep := cur.id
	for lc := cur.level; lc > level; lc-- {
		ep = e.greedyDescend(q, ep, lc)
	}

	top := level
	if cur.level < top {
		top = cur.level
	}
	entryCandidates := []ElementID{ep}
	for lc := top; lc >= 0; lc-- {
		l := e.layerAt(lc)
		w := e.searchLayerQuery(q, entryCandidates, e.cfg.EfConstruction, lc)
		selected := selectNeighborsSimple(w, e.maxConnAt(lc))

		l.mu.Lock()
		l.ensure(id)
		for _, nb := range selected {
			l.addLinkLocked(id, nb.id)
			l.addLinkLocked(nb.id, id)
		}
		for _, nb := range selected {
			e.shrinkLocked(l, nb.id, lc)
		}
		l.mu.Unlock()

		entryCandidates = idsOf(w.sorted())
	}

	if level > cur.level {
		for lc := cur.level + 1; lc <= level; lc++ {
			l := e.layerAt(lc)
			l.mu.Lock()
			l.ensure(id)
			l.mu.Unlock()
		}
		e.entryMu.Lock()
		e.entry = entryState{id: id, level: level, ok: true}
		e.entryMu.Unlock()
	}

	return id, nil
}

// greedyDescend performs an ef=1 greedy walk toward q starting from ep,
// confined to a single layer; it is the upper-layer descent used both by
// Insert (to find the next layer's starting point) and by Search.
func (e *Engine) greedyDescend(q *vector.Vector, ep ElementID, level int) ElementID {
	best := ep
	bestDist := e.dist(q, e.vectorAt(ep))
	l := e.layerAt(level)

	for {
		l.mu.RLock()
		neighbors := append([]ElementID(nil), l.linksLocked(best)...)
		l.mu.RUnlock()

		improved := false
		for _, nb := range neighbors {
			d := e.dist(q, e.vectorAt(nb))
			if d < bestDist {
				bestDist = d
				best = nb
				improved = true
			}
		}
		if !improved {
			return best
		}
	}
}

// searchLayerQuery is search_layer: a bounded beam search confined to one
// layer, returning the ef closest elements found to q among entryPoints and
// everything reachable from them via out-edges.
func (e *Engine) searchLayerQuery(q *vector.Vector, entryPoints []ElementID, ef int, level int) *orderedSet {
	l := e.layerAt(level)
	visited := make(map[ElementID]struct{}, ef*2)
	candidates := newOrderedSet()
	w := newOrderedSet()

	for _, ep := range entryPoints {
		if _, ok := visited[ep]; ok {
			continue
		}
		visited[ep] = struct{}{}
		d := e.dist(q, e.vectorAt(ep))
		pn := priorityNode{dist: d, id: ep}
		candidates.insert(pn)
		w.insert(pn)
	}

	for candidates.len() > 0 {
		c, _ := candidates.popMin()
		if fdist, ok := w.peekMax(); ok && w.len() >= ef && c.dist > fdist.dist {
			break
		}

		l.mu.RLock()
		neighbors := append([]ElementID(nil), l.linksLocked(c.id)...)
		l.mu.RUnlock()

		for _, nb := range neighbors {
			if _, ok := visited[nb]; ok {
				continue
			}
			visited[nb] = struct{}{}
			d := e.dist(q, e.vectorAt(nb))

			fdist, full := w.peekMax()
			if w.len() < ef || !full || d < fdist.dist {
				pn := priorityNode{dist: d, id: nb}
				candidates.insert(pn)
				w.insert(pn)
				if w.len() > ef {
					w.popMax()
				}
			}
		}
	}

	return w
}

// Search returns the k elements closest to q, found via greedy descent
// through the upper layers followed by a width-ef beam search at layer 0.
// It honors ctx between layer visits: a cancelled search returns ctx.Err()
// without corrupting any shared state, since it never writes anything.
func (e *Engine) Search(ctx context.Context, q *vector.Vector, k, ef int) ([]ElementID, []float64, error) {
	e.entryMu.RLock()
	cur := e.entry
	e.entryMu.RUnlock()
	if !cur.ok {
		return nil, nil, nil
	}

	ep := cur.id
	for lc := cur.level; lc > 0; lc-- {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		ep = e.greedyDescend(q, ep, lc)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	effEf := ef
	if effEf < k {
		effEf = k
	}
	w := e.searchLayerQuery(q, []ElementID{ep}, effEf, 0)
	results := w.sorted()
	if len(results) > k {
		results = results[:k]
	}

	ids := make([]ElementID, len(results))
	dists := make([]float64, len(results))
	for i, pn := range results {
		ids[i] = pn.id
		dists[i] = pn.dist
	}
	return ids, dists, nil
}

// selectNeighborsSimple picks the m closest candidates from w. w is
// already sorted ascending by (dist, id), so this is a prefix take — the
// "simple" heuristic from the source algorithm, as opposed to a
// diversity-aware selector.
func selectNeighborsSimple(w *orderedSet, m int) []priorityNode {
	items := w.sorted()
	if len(items) > m {
		items = items[:m]
	}
	out := make([]priorityNode, len(items))
	copy(out, items)
	return out
}

// shrinkLocked re-selects id's out-edges at the given level down to the degree
// bound, keeping the closest ones to id. Caller must hold l's write lock.
func (e *Engine) shrinkLocked(l *layer, id ElementID, level int) {
	maxConn := e.maxConnAt(level)
	links := l.linksLocked(id)
	if len(links) <= maxConn {
		return
	}
	qv := e.vectorAt(id)
	cands := newOrderedSet()
	for _, nb := range links {
		d := e.dist(qv, e.vectorAt(nb))
		cands.insert(priorityNode{dist: d, id: nb})
	}
	selected := selectNeighborsSimple(cands, maxConn)
	newLinks := make([]ElementID, 0, len(selected))
	for _, pn := range selected {
		newLinks = append(newLinks, pn.id)
	}
	l.setLinksLocked(id, newLinks)
}

func idsOf(pns []priorityNode) []ElementID {
	out := make([]ElementID, len(pns))
	for i, pn := range pns {
		out[i] = pn.id
	}
	return out
}
