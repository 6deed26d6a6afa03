package costing

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ProductLockRegistry serializes stock mutations per product. FIFO
// consumption reads a product's lots, mutates them and writes them back;
// two concurrent mutations for the same product must not interleave between
// the read and the write. One registry instance must be shared by every
// service that touches lots, so allocation and unreceive contend on the
// same mutex. Locks for different products do not contend.
type ProductLockRegistry struct {
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewProductLockRegistry() *ProductLockRegistry {
	return &ProductLockRegistry{}
}

// Lock acquires the mutex for the product and returns the unlock function.
func (p *ProductLockRegistry) Lock(productID uuid.UUID) func() {
	mu, _ := p.locks.LoadOrStore(productID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// LockAll acquires the mutexes for every given product in ascending ID
// order, so two callers locking overlapping product sets cannot deadlock.
// The returned function releases them in reverse order.
func (p *ProductLockRegistry) LockAll(productIDs []uuid.UUID) func() {
	ids := make([]uuid.UUID, 0, len(productIDs))
	seen := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	unlocks := make([]func(), 0, len(ids))
	for _, id := range ids {
		unlocks = append(unlocks, p.Lock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
