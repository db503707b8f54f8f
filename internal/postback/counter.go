package postback

import (
	"sync"
	"time"
)

// DailyCounterStore smooths the per-performer daily sale counter for
// display. The authoritative count comes from the conversion log, which may
// be read with lag; the store guarantees the displayed value never regresses
// within one UTC day for one process.
//
// The store is in-memory and deliberately not persisted: a restart forgets
// the anti-regression history for the rest of the day while the conversion
// log stays the source of truth. When the engine is scaled across processes
// the guarantee degrades to per-process monotonicity.
type DailyCounterStore struct {
	mu      sync.Mutex
	entries map[int64]counterEntry
	now     func() time.Time
}

type counterEntry struct {
	day  string // UTC calendar date, "2006-01-02"
	last int
}

// NewDailyCounterStore creates an empty store.
func NewDailyCounterStore() *DailyCounterStore {
	return &DailyCounterStore{
		entries: make(map[int64]counterEntry),
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook.
func (s *DailyCounterStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Resolve returns the value to display for the performer today.
//
// authoritative is the count read from the conversion log, or nil when the
// read failed. The whole read-modify-write runs under the store lock:
//
//  1. base = authoritative or 0.
//  2. No entry for today: display base, floored to 1 - the first sale of the
//     day must read as "1" even when the log has not caught up yet.
//  3. Entry exists: adopt base only if it is strictly greater than the held
//     value. Equality does not increment; a duplicate read of the same
//     count must not advance the display.
func (s *DailyCounterStore) Resolve(performerID int64, authoritative *int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := 0
	if authoritative != nil {
		base = *authoritative
	}

	today := s.now().UTC().Format("2006-01-02")

	entry, ok := s.entries[performerID]
	if !ok || entry.day != today {
		display := base
		if display < 1 {
			display = 1
		}
		s.entries[performerID] = counterEntry{day: today, last: display}
		return display
	}

	display := entry.last
	if base > display {
		display = base
	}
	s.entries[performerID] = counterEntry{day: today, last: display}
	return display
}
