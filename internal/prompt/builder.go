// Package prompt assembles the model-facing system prompt from the app's
// files, partitioned into cache tiers by stability so unchanged blocks stay
// byte-identical across turns and upstream prompt caches keep hitting.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"appforge/internal/filestore"
	"appforge/internal/logging"
)

// Tier buckets files by how likely they are to change soon.
type Tier string

const (
	TierCore     Tier = "core"     // score >= 8, long TTL
	TierLibrary  Tier = "library"  // score 5-7, medium TTL
	TierActive   Tier = "active"   // score 2-4, short TTL
	TierVolatile Tier = "volatile" // score < 2 or changed in the last 5 minutes
)

// tierOrder is the emission order, most stable first.
var tierOrder = []Tier{TierCore, TierLibrary, TierActive, TierVolatile}

// volatileWindow marks any file changed this recently as volatile no matter
// its score.
const volatileWindow = 5 * time.Minute

// Scorer is the change-tracker view the builder needs.
type Scorer interface {
	StabilityScore(path string) int
	RecentlyChanged(path string, window time.Duration) bool
	Hash(path string) (string, bool)
}

// builtBlock is one rendered tier with the member hashes it was built from.
type builtBlock struct {
	text   string
	hashes map[string]string
}

// Builder renders the system prompt. It caches each tier's block and only
// re-renders a block when a member file's hash moved since the block was
// built; otherwise the prior text is reused verbatim.
type Builder struct {
	store  *filestore.Store
	scorer Scorer

	mu       sync.Mutex
	blocks   map[Tier]*builtBlock
	rebuilds map[Tier]int
}

// NewBuilder creates a builder over one app's store and tracker.
func NewBuilder(store *filestore.Store, scorer Scorer) *Builder {
	return &Builder{
		store:    store,
		scorer:   scorer,
		blocks:   make(map[Tier]*builtBlock),
		rebuilds: make(map[Tier]int),
	}
}

// Build renders the full system prompt for the current store state.
func (b *Builder) Build() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups := b.partition()

	var sb strings.Builder
	sb.WriteString(preamble)
	total := 0
	for _, tier := range tierOrder {
		files := groups[tier]
		if len(files) == 0 {
			continue
		}
		total += len(files)
		sb.WriteString("\n")
		sb.WriteString(b.blockFor(tier, files))
	}
	logging.Prompt("Assembled context: %d files across %d tiers", total, len(groups))
	return sb.String()
}

// Rebuilds returns how many times each tier's block was re-rendered.
func (b *Builder) Rebuilds() map[Tier]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[Tier]int, len(b.rebuilds))
	for k, v := range b.rebuilds {
		out[k] = v
	}
	return out
}

// partition assigns every file to its tier, sorted by path within a tier.
func (b *Builder) partition() map[Tier][]*filestore.File {
	groups := make(map[Tier][]*filestore.File)
	for _, f := range b.store.List() {
		tier := b.tierFor(f.Path)
		groups[tier] = append(groups[tier], f)
	}
	for _, files := range groups {
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	}
	return groups
}

func (b *Builder) tierFor(path string) Tier {
	if b.scorer.RecentlyChanged(path, volatileWindow) {
		return TierVolatile
	}
	score := b.scorer.StabilityScore(path)
	switch {
	case score >= 8:
		return TierCore
	case score >= 5:
		return TierLibrary
	case score >= 2:
		return TierActive
	default:
		return TierVolatile
	}
}

// blockFor returns the tier's block, rebuilding only when a member hash
// differs from the hash recorded at the previous build. Caller holds b.mu.
func (b *Builder) blockFor(tier Tier, files []*filestore.File) string {
	hashes := make(map[string]string, len(files))
	for _, f := range files {
		h, ok := b.scorer.Hash(f.Path)
		if !ok {
			// Not yet tracked, hash the content directly.
			sum := sha256.Sum256([]byte(f.Content))
			h = hex.EncodeToString(sum[:])
		}
		hashes[f.Path] = h
	}

	if prev, ok := b.blocks[tier]; ok && sameHashes(prev.hashes, hashes) {
		return prev.text
	}

	text := renderBlock(tier, files)
	b.blocks[tier] = &builtBlock{text: text, hashes: hashes}
	b.rebuilds[tier]++
	logging.PromptDebug("Rebuilt %s block (%d files)", tier, len(files))
	return text
}

func sameHashes(a, c map[string]string) bool {
	if len(a) != len(c) {
		return false
	}
	for path, h := range a {
		if c[path] != h {
			return false
		}
	}
	return true
}

func renderBlock(tier Tier, files []*filestore.File) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "===== %s FILES =====\n", strings.ToUpper(string(tier)))
	for _, f := range files {
		fmt.Fprintf(&sb, "--- %s (%s, %d bytes) ---\n%s\n", f.Path, f.ContentType, f.SizeBytes, f.Content)
	}
	return sb.String()
}

const preamble = `You are an expert web application builder. You modify the app by calling
the provided tools. Rules:
- Always read a file before editing it unless you just wrote it.
- Prefer replace_lines for small edits; write_file rewrites the whole file.
- Use broadcast_progress to keep the user informed during long work.
- When the request is satisfied, reply with a short summary and no tool calls.

The app's current files follow, grouped from most stable to most recently
changed.
`
