package util

import (
	"fmt"
)

// BytesAllocator hands out destination and scratch buffers. Buffers
// obtained for one compaction call are either released before the call
// returns (scratch) or handed to the caller inside the result table.
type BytesAllocator interface {
	Alloc(sz int) ([]byte, error)
	Free([]byte)
}

type DefaultAllocator struct {
}

func (alloc *DefaultAllocator) Alloc(sz int) ([]byte, error) {
	return make([]byte, sz), nil
}

func (alloc *DefaultAllocator) Free(bytes []byte) {
}

var GAlloc BytesAllocator = &DefaultAllocator{}

// TrackingAllocator counts live bytes and enforces an optional limit.
// Used by tests to verify scratch buffers are released before a
// compaction call returns, and by the CLI to report peak usage.
type TrackingAllocator struct {
	lock  *ReentryLock
	inner BytesAllocator
	limit int

	liveBytes int
	peakBytes int
	allocs    int
	frees     int
}

func NewTrackingAllocator(inner BytesAllocator, limit int) *TrackingAllocator {
	if inner == nil {
		inner = GAlloc
	}
	return &TrackingAllocator{
		lock:  NewReentryLock(),
		inner: inner,
		limit: limit,
	}
}

func (alloc *TrackingAllocator) Alloc(sz int) ([]byte, error) {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()
	if alloc.limit > 0 && alloc.liveBytes+sz > alloc.limit {
		return nil, fmt.Errorf("allocator limit exceeded: live %d + request %d > limit %d",
			alloc.liveBytes, sz, alloc.limit)
	}
	data, err := alloc.inner.Alloc(sz)
	if err != nil {
		return nil, err
	}
	alloc.allocs++
	alloc.liveBytes += sz
	if alloc.liveBytes > alloc.peakBytes {
		alloc.peakBytes = alloc.liveBytes
	}
	return data, nil
}

func (alloc *TrackingAllocator) Free(bytes []byte) {
	if bytes == nil {
		return
	}
	alloc.lock.Lock()
	defer alloc.lock.Unlock()
	alloc.frees++
	alloc.liveBytes -= len(bytes)
	alloc.inner.Free(bytes)
}

func (alloc *TrackingAllocator) LiveBytes() int {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()
	return alloc.liveBytes
}

func (alloc *TrackingAllocator) PeakBytes() int {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()
	return alloc.peakBytes
}

func (alloc *TrackingAllocator) AllocCount() int {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()
	return alloc.allocs
}

func (alloc *TrackingAllocator) FreeCount() int {
	alloc.lock.Lock()
	defer alloc.lock.Unlock()
	return alloc.frees
}
