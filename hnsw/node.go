package hnsw

// ElementID indexes a point inside an Engine. IDs are assigned densely and
// monotonically by Insert and are never reused.
type ElementID uint64

// priorityNode pairs a distance with the element it was computed against.
// It orders first by distance, then by id, giving the engine's beams a
// total order even when two elements sit at exactly the same distance from
// a query.
type priorityNode struct {
	dist float64
	id   ElementID
}

// less reports whether p sorts before o under (dist, id) lexicographic
// order.
func (p priorityNode) less(o priorityNode) bool {
	if p.dist != o.dist {
		return p.dist < o.dist
	}
	return p.id < o.id
}
