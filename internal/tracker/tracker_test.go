package tracker

import (
	"testing"
	"time"
)

// fixedClock lets tests advance time manually.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fixedClock) {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr := New()
	tr.now = clock.now
	return tr, clock
}

func TestFirstTrackReturnsFalse(t *testing.T) {
	tr, _ := newTestTracker()

	if tr.Track("a.js", "content") {
		t.Error("first track must return false")
	}
}

func TestChangeDetection(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Track("a.js", "x")
	if tr.Track("a.js", "x") {
		t.Error("identical content must not report a change")
	}
	if !tr.Track("a.js", "y") {
		t.Error("different content must report a change")
	}
	if tr.Track("a.js", "y") {
		t.Error("repeat of new content must not report a change")
	}
}

func TestStabilityScoreUntracked(t *testing.T) {
	tr, _ := newTestTracker()

	if got := tr.StabilityScore("nope.js"); got != 0 {
		t.Errorf("untracked path should score 0, got %d", got)
	}
}

func TestStabilityScoreDropsWithChanges(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Track("a.js", "v0")
	clock.advance(time.Second)
	tr.Track("a.js", "v1")

	one := tr.StabilityScore("a.js")

	clock.advance(time.Second)
	tr.Track("a.js", "v2")
	two := tr.StabilityScore("a.js")

	clock.advance(time.Second)
	tr.Track("a.js", "v3")
	three := tr.StabilityScore("a.js")

	if !(one > two && two > three || one > three) {
		t.Errorf("score must not rise with more recent changes: %d, %d, %d", one, two, three)
	}
	if three < 0 || one > 10 {
		t.Errorf("scores out of range: %d..%d", three, one)
	}
}

func TestStabilityScoreRecoversWithAge(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Track("a.js", "v0")
	clock.advance(time.Second)
	tr.Track("a.js", "v1")

	fresh := tr.StabilityScore("a.js")

	clock.advance(10 * time.Minute)
	tenMin := tr.StabilityScore("a.js")

	clock.advance(time.Hour)
	hourOld := tr.StabilityScore("a.js")

	clock.advance(48 * time.Hour)
	old := tr.StabilityScore("a.js")

	if !(fresh < tenMin && tenMin <= hourOld && hourOld <= old) {
		t.Errorf("score must ramp up with age: %d, %d, %d, %d", fresh, tenMin, hourOld, old)
	}
	if old != 10 {
		t.Errorf("long-unchanged path should reach 10, got %d", old)
	}
}

func TestRecentlyChanged(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Track("a.js", "v0")
	if tr.RecentlyChanged("a.js", time.Minute) {
		t.Error("first track is not a change")
	}

	clock.advance(time.Second)
	tr.Track("a.js", "v1")
	if !tr.RecentlyChanged("a.js", time.Minute) {
		t.Error("expected recent change")
	}

	clock.advance(2 * time.Minute)
	if tr.RecentlyChanged("a.js", time.Minute) {
		t.Error("change outside window should not count")
	}
	if tr.RecentlyChanged("missing.js", time.Minute) {
		t.Error("untracked path is never recently changed")
	}
}

func TestForget(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Track("a.js", "x")
	tr.Forget("a.js")

	if _, ok := tr.Hash("a.js"); ok {
		t.Error("forgotten path still has a hash")
	}
	// Re-tracking after forget behaves like a first track.
	if tr.Track("a.js", "x") {
		t.Error("track after forget must return false")
	}
}

func TestHash(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Track("a.js", "x")
	h1, ok := tr.Hash("a.js")
	if !ok || h1 == "" {
		t.Fatal("expected a hash after tracking")
	}

	tr.Track("a.js", "y")
	h2, _ := tr.Hash("a.js")
	if h1 == h2 {
		t.Error("hash must change with content")
	}
}
