package service

import (
	"hash/fnv"
	"sync"
)

const tripLockStripes = 64

// tripLocks serialises read-modify-write sequences on the same trip within
// this process. Trips share a stripe when their ids hash alike.
type tripLocks struct {
	stripes [tripLockStripes]sync.Mutex
}

// lock acquires the stripe for id and returns its release func.
func (l *tripLocks) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &l.stripes[h.Sum32()%tripLockStripes]
	mu.Lock()
	return mu.Unlock
}
