package security

import (
	"errors"
	"sync"
)

// AllowAllSentinel, when present in the whitelist, allows every sender id.
// It exists so operators can opt out of the secure-by-default deny-all.
const AllowAllSentinel int64 = -1

// ErrNonPositiveID is returned when adding an id that cannot belong to a
// real user.
var ErrNonPositiveID = errors.New("user id must be positive")

// Whitelist is a concurrency-safe membership test over sender ids.
// An empty whitelist denies everyone.
type Whitelist struct {
	mu  sync.RWMutex
	ids map[int64]bool
}

// NewWhitelist builds a whitelist from the configured ids. The sentinel -1
// is accepted here (it comes from config, not from AddUser).
func NewWhitelist(ids []int64) *Whitelist {
	w := &Whitelist{ids: make(map[int64]bool, len(ids))}
	for _, id := range ids {
		w.ids[id] = true
	}
	return w
}

// IsAllowed reports whether id may talk to the agent. With the allow-all
// sentinel present every id passes, including non-positive ones.
func (w *Whitelist) IsAllowed(id int64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.ids[AllowAllSentinel] {
		return true
	}
	return w.ids[id]
}

// AddUser whitelists a new id at runtime. Non-positive ids are rejected so
// the sentinel cannot sneak in through this path.
func (w *Whitelist) AddUser(id int64) error {
	if id <= 0 {
		return ErrNonPositiveID
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids[id] = true
	return nil
}

// Len returns the number of configured ids (sentinel included).
func (w *Whitelist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.ids)
}
