// Package dedupe drops platform event redeliveries before they reach the
// engagement logic.
package dedupe

import (
	"sync"
)

// Deduplicator remembers the last admitted event ID per subject. The
// platform redelivers the most recent event, not older ones, so a single
// slot per subject is enough. State is process-local; losing it on restart
// only risks a rare duplicate send.
type Deduplicator struct {
	mu       sync.Mutex
	lastSeen map[string]string
}

// New creates a new Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{
		lastSeen: make(map[string]string),
	}
}

// Admit reports whether an event should be processed. A repeat of the
// subject's most recent event ID is rejected. Events without an ID are
// always admitted since they cannot be deduplicated.
func (d *Deduplicator) Admit(subjectID, eventID string) bool {
	if eventID == "" {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastSeen[subjectID] == eventID {
		return false
	}
	d.lastSeen[subjectID] = eventID
	return true
}
