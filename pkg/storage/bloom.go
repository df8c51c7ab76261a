package storage

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	falsePositive = 0.01
)

// IDFilter remembers which identifier ids a store holds so lookups for
// unknown ids can be answered without touching the backing store. A
// negative answer is exact, a positive one must be confirmed.
type IDFilter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

func NewIDFilter(expected uint) *IDFilter {
	if expected == 0 {
		expected = 1
	}

	return &IDFilter{f: bloom.NewWithEstimates(expected, falsePositive)}
}

func (b *IDFilter) Add(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.f.AddString(id)
}

func (b *IDFilter) MayContain(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.f.TestString(id)
}
