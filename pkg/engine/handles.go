package engine

// handleAllocator issues small integer ids for one pool. Ids are recycled
// first-in first-out through a fixed ring so a released id is not handed out
// again until every other free id has been used. Id 0 is never issued; it is
// the invalid sentinel for both handle spaces.
//
// The allocator does not detect double-release. The engine's reclamation path
// is the only caller of Release and releases each id exactly once.
type handleAllocator struct {
	ring  []uint32
	head  int
	count int
}

func newHandleAllocator(capacity int) *handleAllocator {
	a := &handleAllocator{
		ring:  make([]uint32, capacity),
		count: capacity,
	}
	for i := range a.ring {
		a.ring[i] = uint32(i + 1)
	}
	return a
}

// Allocate pops the oldest free id. Returns 0 and false on exhaustion.
func (a *handleAllocator) Allocate() (uint32, bool) {
	if a.count == 0 {
		return 0, false
	}
	id := a.ring[a.head]
	a.head = (a.head + 1) % len(a.ring)
	a.count--
	return id, true
}

// Release pushes id onto the tail of the free ring.
func (a *handleAllocator) Release(id uint32) {
	tail := (a.head + a.count) % len(a.ring)
	a.ring[tail] = id
	a.count++
}

// Free reports how many ids remain allocatable.
func (a *handleAllocator) Free() int {
	return a.count
}
