package application

import (
	"sort"
	"sync"
)

// resourceGuard serializes check-then-write sequences per resource. Without
// it two concurrent writes could both pass the conflict check and both
// persist, leaving a double-booking the detector can no longer prevent.
type resourceGuard struct {
	mu    sync.Mutex
	slots map[string]*guardSlot
}

type guardSlot struct {
	mu   sync.Mutex
	refs int
}

func newResourceGuard() *resourceGuard {
	return &resourceGuard{slots: make(map[string]*guardSlot)}
}

// bookingGuard is shared by every service in the process. Entry writes and
// reservation approvals compete for the same rooms, instructors and sections,
// so they must contend on the same locks; per-service guards would let the
// two write paths interleave between check and persist.
var bookingGuard = newResourceGuard()

// acquire locks every key and returns the matching release function. Keys are
// deduplicated and locked in sorted order so two writers touching the same
// resources can never deadlock each other.
func (g *resourceGuard) acquire(keys ...string) func() {
	ordered := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	locked := make([]*guardSlot, 0, len(ordered))
	for _, key := range ordered {
		g.mu.Lock()
		slot, ok := g.slots[key]
		if !ok {
			slot = &guardSlot{}
			g.slots[key] = slot
		}
		slot.refs++
		g.mu.Unlock()

		slot.mu.Lock()
		locked = append(locked, slot)
	}

	released := ordered
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()

			g.mu.Lock()
			slot := locked[i]
			slot.refs--
			if slot.refs == 0 {
				delete(g.slots, released[i])
			}
			g.mu.Unlock()
		}
	}
}

func guardKey(kind, resourceID string) string {
	return kind + "|" + resourceID
}
