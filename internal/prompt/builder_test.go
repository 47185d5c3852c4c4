package prompt

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"appforge/internal/filestore"
)

// fakeScorer assigns fixed scores and recency per path.
type fakeScorer struct {
	scores map[string]int
	recent map[string]bool
	hashes map[string]string
}

func (f *fakeScorer) StabilityScore(path string) int { return f.scores[path] }

func (f *fakeScorer) RecentlyChanged(path string, window time.Duration) bool {
	return f.recent[path]
}

func (f *fakeScorer) Hash(path string) (string, bool) {
	h, ok := f.hashes[path]
	return h, ok
}

func newTestStore(t *testing.T) *filestore.Store {
	t.Helper()
	s, err := filestore.NewStore(filepath.Join(t.TempDir(), "test.db"), "app-1")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTierPartition(t *testing.T) {
	store := newTestStore(t)
	store.Write("core.js", "core", "")
	store.Write("lib.js", "lib", "")
	store.Write("active.js", "active", "")
	store.Write("volatile.js", "volatile", "")
	store.Write("hot.js", "hot", "")

	scorer := &fakeScorer{
		scores: map[string]int{
			"core.js":     9,
			"lib.js":      6,
			"active.js":   3,
			"volatile.js": 1,
			"hot.js":      9, // high score but recently changed
		},
		recent: map[string]bool{"hot.js": true},
		hashes: map[string]string{},
	}

	b := NewBuilder(store, scorer)
	out := b.Build()

	checks := map[Tier][]string{
		TierCore:     {"core.js"},
		TierLibrary:  {"lib.js"},
		TierActive:   {"active.js"},
		TierVolatile: {"volatile.js", "hot.js"},
	}
	for tier, paths := range checks {
		block := extractBlock(t, out, tier)
		for _, path := range paths {
			if !strings.Contains(block, path) {
				t.Errorf("%s should be in %s block, got:\n%s", path, tier, block)
			}
		}
	}
}

// extractBlock returns the body of one tier's block, without the blocks
// that follow it.
func extractBlock(t *testing.T, out string, tier Tier) string {
	t.Helper()
	marker := "===== " + strings.ToUpper(string(tier)) + " FILES ====="
	idx := strings.Index(out, marker)
	if idx < 0 {
		t.Fatalf("missing %s block", tier)
	}
	body := out[idx+len(marker):]
	if next := strings.Index(body, "\n====="); next >= 0 {
		body = body[:next]
	}
	return body
}

func TestUntrackedFilesAreVolatile(t *testing.T) {
	store := newTestStore(t)
	store.Write("new.js", "brand new", "")

	b := NewBuilder(store, &fakeScorer{scores: map[string]int{}, recent: map[string]bool{}, hashes: map[string]string{}})
	out := b.Build()

	if !strings.Contains(out, "===== VOLATILE FILES =====") {
		t.Error("untracked file should land in the volatile block")
	}
	if strings.Contains(out, "===== CORE FILES =====") {
		t.Error("no core block expected")
	}
}

func TestBlockReuseIsByteIdentical(t *testing.T) {
	store := newTestStore(t)
	store.Write("core.js", "stable content", "")
	store.Write("volatile.js", "v1", "")

	scorer := &fakeScorer{
		scores: map[string]int{"core.js": 9, "volatile.js": 0},
		recent: map[string]bool{},
		hashes: map[string]string{"core.js": "h-core", "volatile.js": "h-v1"},
	}

	b := NewBuilder(store, scorer)
	b.Build()

	// Change only the volatile file.
	store.Write("volatile.js", "v2", "")
	scorer.hashes["volatile.js"] = "h-v2"
	b.Build()

	rebuilds := b.Rebuilds()
	if rebuilds[TierCore] != 1 {
		t.Errorf("core block must be reused, rebuilt %d times", rebuilds[TierCore])
	}
	if rebuilds[TierVolatile] != 2 {
		t.Errorf("volatile block must be rebuilt, got %d builds", rebuilds[TierVolatile])
	}
}

func TestBlockRebuiltWhenMemberHashMoves(t *testing.T) {
	store := newTestStore(t)
	store.Write("core.js", "v1", "")

	scorer := &fakeScorer{
		scores: map[string]int{"core.js": 9},
		recent: map[string]bool{},
		hashes: map[string]string{"core.js": "h1"},
	}

	b := NewBuilder(store, scorer)
	first := b.Build()

	store.Write("core.js", "v2", "")
	scorer.hashes["core.js"] = "h2"
	second := b.Build()

	if first == second {
		t.Error("prompt must change when a core member changes")
	}
	if b.Rebuilds()[TierCore] != 2 {
		t.Errorf("core block should rebuild on hash change, got %d", b.Rebuilds()[TierCore])
	}
	if !strings.Contains(second, "v2") {
		t.Error("rebuilt block must carry new content")
	}
}

func TestBlockRebuiltWhenMembershipChanges(t *testing.T) {
	store := newTestStore(t)
	store.Write("a.js", "aaa", "")

	scorer := &fakeScorer{
		scores: map[string]int{"a.js": 9, "b.js": 9},
		recent: map[string]bool{},
		hashes: map[string]string{"a.js": "ha", "b.js": "hb"},
	}

	b := NewBuilder(store, scorer)
	b.Build()

	store.Write("b.js", "bbb", "")
	out := b.Build()

	if !strings.Contains(out, "b.js") {
		t.Error("new member missing from rebuilt block")
	}
	if b.Rebuilds()[TierCore] != 2 {
		t.Errorf("membership change must rebuild the block, got %d", b.Rebuilds()[TierCore])
	}
}

func TestPreambleAlwaysPresent(t *testing.T) {
	store := newTestStore(t)
	b := NewBuilder(store, &fakeScorer{scores: map[string]int{}, recent: map[string]bool{}, hashes: map[string]string{}})

	out := b.Build()
	if !strings.Contains(out, "expert web application builder") {
		t.Error("preamble missing from empty-store prompt")
	}
}
