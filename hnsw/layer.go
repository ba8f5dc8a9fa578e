package hnsw

import "sync"

// layer holds the adjacency lists for a single graph level, guarded by its
// own lock. Per the concurrency model, a caller never holds two layers'
// locks at once; insert walks layers top-down acquiring and releasing one
// at a time, and a search takes a layer's RLock only while copying one
// node's out-edges, releasing it before computing distances.
type layer struct {
	mu        sync.RWMutex
	neighbors map[ElementID][]ElementID
}

func newLayer() *layer {
	return &layer{neighbors: make(map[ElementID][]ElementID)}
}

// ensure registers id in the layer with no neighbors yet, if it is not
// already present. Called with the layer's write lock held.
func (l *layer) ensure(id ElementID) {
	if _, ok := l.neighbors[id]; !ok {
		l.neighbors[id] = nil
	}
}

// linksLocked returns id's out-edges. Caller must hold at least the
// layer's read lock.
func (l *layer) linksLocked(id ElementID) []ElementID {
	return l.neighbors[id]
}

// setLinksLocked replaces id's out-edges. Caller must hold the layer's
// write lock.
func (l *layer) setLinksLocked(id ElementID, links []ElementID) {
	l.neighbors[id] = links
}

// addLinkLocked appends a single out-edge id -> to, deduplicating against
// an existing edge. Caller must hold the layer's write lock.
func (l *layer) addLinkLocked(id, to ElementID) {
	for _, existing := range l.neighbors[id] {
		if existing == to {
			return
		}
	}
	l.neighbors[id] = append(l.neighbors[id], to)
}

// degreeLocked reports how many out-edges id has. Caller must hold at
// least the layer's read lock.
func (l *layer) degreeLocked(id ElementID) int {
	return len(l.neighbors[id])
}

// containsLocked reports whether id has an entry in this layer at all
// (even with zero neighbors). Caller must hold at least the read lock.
func (l *layer) containsLocked(id ElementID) bool {
	_, ok := l.neighbors[id]
	return ok
}
