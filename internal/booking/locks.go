package booking

import "sync"

// tripLocks serializes the read-check-write sequence per trip so two
// concurrent bookings cannot both pass the capacity check. Entries are
// refcounted and removed once the last holder releases.
type tripLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (l *tripLocks) lock(tripID string) (unlock func()) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = map[string]*lockEntry{}
	}
	entry, ok := l.entries[tripID]
	if !ok {
		entry = &lockEntry{}
		l.entries[tripID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, tripID)
		}
		l.mu.Unlock()
	}
}
