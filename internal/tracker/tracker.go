// Package tracker detects real content changes and scores path stability.
//
// Every tracked path keeps a SHA-256 of its last seen content. The stability
// score feeds the prompt builder's cache tiering: paths that change often
// score low and land in short-lived context blocks, paths that sit unchanged
// drift toward the long-lived blocks.
package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"appforge/internal/logging"
)

// changeWindow is the trailing window used for change-frequency scoring.
const changeWindow = 5 * time.Minute

// maxHistory bounds the per-path change history. Only changes inside the
// trailing window matter, older entries are pruned on write.
const maxHistory = 32

type record struct {
	hash        string
	lastTracked time.Time
	lastChanged time.Time
	changes     []time.Time
}

// Tracker maintains per-path change records for one app.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]*record

	// now is swappable in tests.
	now func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Track hashes content and records it against path. It returns whether the
// content differs from the previously tracked hash. The first-ever track of
// a path returns false: a file is not "changed" relative to nothing.
func (t *Tracker) Track(path, content string) bool {
	sum := sha256.Sum256([]byte(content))
	hash := hex.EncodeToString(sum[:])

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	r, ok := t.records[path]
	if !ok {
		t.records[path] = &record{
			hash:        hash,
			lastTracked: now,
			lastChanged: now,
		}
		return false
	}

	changed := r.hash != hash
	r.hash = hash
	r.lastTracked = now
	if changed {
		r.lastChanged = now
		r.changes = append(r.changes, now)
		r.changes = pruneOld(r.changes, now)
		logging.TrackerDebug("Change detected for %s (%d in window)", path, len(r.changes))
	}
	return changed
}

// Hash returns the last tracked content hash for path.
func (t *Tracker) Hash(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[path]
	if !ok {
		return "", false
	}
	return r.hash, true
}

// StabilityScore rates how likely path is to change soon, 0 (volatile) to
// 10 (stable). Untracked paths score 0. More changes inside the trailing
// window always means a lower score; with no recent changes the score ramps
// up with the age of the last change.
func (t *Tracker) StabilityScore(path string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[path]
	if !ok {
		return 0
	}

	now := t.now()
	recent := 0
	for _, ts := range r.changes {
		if now.Sub(ts) <= changeWindow {
			recent++
		}
	}
	if recent > 0 {
		score := 6 - 2*recent
		if score < 0 {
			score = 0
		}
		return score
	}

	age := now.Sub(r.lastChanged)
	switch {
	case age < 15*time.Minute:
		return 5
	case age < time.Hour:
		return 7
	case age < 24*time.Hour:
		return 9
	default:
		return 10
	}
}

// RecentlyChanged reports whether path changed within the given window.
func (t *Tracker) RecentlyChanged(path string, window time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[path]
	if !ok || len(r.changes) == 0 {
		return false
	}
	return t.now().Sub(r.lastChanged) <= window
}

// Forget drops the record for path, e.g. after the file is deleted.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[path]; ok {
		delete(t.records, path)
		logging.Tracker("Stopped tracking %s", path)
	}
}

// Paths returns all tracked paths.
func (t *Tracker) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([]string, 0, len(t.records))
	for p := range t.records {
		paths = append(paths, p)
	}
	return paths
}

func pruneOld(changes []time.Time, now time.Time) []time.Time {
	kept := changes[:0]
	for _, ts := range changes {
		if now.Sub(ts) <= changeWindow {
			kept = append(kept, ts)
		}
	}
	if len(kept) > maxHistory {
		kept = kept[len(kept)-maxHistory:]
	}
	return kept
}
