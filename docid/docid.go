// Package docid supplies the document-id allocator the index core treats
// as an external collaborator: it never generates ids itself, only stores
// whatever comparable value a caller hands it.
package docid

import "github.com/google/uuid"

// ID is a document identifier backed by a UUIDv4.
type ID uuid.UUID

func (id ID) String() string { return uuid.UUID(id).String() }

// Allocator hands out fresh, collision-free document ids.
type Allocator struct{}

// NewAllocator returns a ready-to-use Allocator. It carries no state: each
// New call draws directly from crypto/rand via google/uuid.
func NewAllocator() *Allocator { return &Allocator{} }

// New returns a freshly generated ID.
func (a *Allocator) New() ID { return ID(uuid.New()) }
