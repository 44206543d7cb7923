package omdb

import (
	"sync/atomic"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// KeyRing rotates through API credentials. Next is safe for concurrent use;
// under contention the distribution is approximately, not exactly, even.
type KeyRing struct {
	keys   []string
	cursor atomic.Uint64
}

// NewKeyRing copies keys into a ring. An empty list is rejected.
func NewKeyRing(keys []string) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, oscar.ErrNoAPIKeys
	}
	return &KeyRing{keys: append([]string(nil), keys...)}, nil
}

// Next claims the next credential and returns it with its index.
func (k *KeyRing) Next() (int, string) {
	n := k.cursor.Add(1) - 1
	idx := int(n % uint64(len(k.keys)))
	return idx, k.keys[idx]
}

// Reset moves the cursor back to the first credential.
func (k *KeyRing) Reset() {
	k.cursor.Store(0)
}

// Len reports how many credentials the ring holds.
func (k *KeyRing) Len() int {
	return len(k.keys)
}
