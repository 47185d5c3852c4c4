package filestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"), "app-1")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := newTestStore(t)

	f, err := s.Write("src/App.tsx", "export default function App() {}", "")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if f.ContentType != ContentTSX {
		t.Errorf("expected tsx content type, got %s", f.ContentType)
	}
	if f.SizeBytes != len("export default function App() {}") {
		t.Errorf("wrong size: %d", f.SizeBytes)
	}

	got, err := s.Read("src/App.tsx")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Content != "export default function App() {}" {
		t.Errorf("unexpected content: %q", got.Content)
	}
}

func TestWriteOverwrites(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Write("a.js", "one", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write("a.js", "two", ""); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read("a.js")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "two" {
		t.Errorf("expected overwrite semantics, got %q", got.Content)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 file, got %d", s.Count())
	}
}

func TestWriteEmptyContentRejected(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Write("a.js", "", "")
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
	if s.Exists("a.js") {
		t.Error("rejected write must not mutate the store")
	}
}

func TestReadNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Read("missing.js"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Write("a.js", "x", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("a.js"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Exists("a.js") {
		t.Error("file still exists after delete")
	}
	if err := s.Delete("a.js"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRename(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Write("old.css", "body {}", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Rename("old.css", "new.css"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	got, err := s.Read("new.css")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "body {}" || got.ContentType != ContentCSS {
		t.Errorf("rename lost content or type: %+v", got)
	}
	if s.Exists("old.css") {
		t.Error("old path still exists after rename")
	}
}

func TestRenameConflictLeavesBothUnchanged(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Write("a.js", "aaa", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write("b.js", "bbb", ""); err != nil {
		t.Fatal(err)
	}

	err := s.Rename("a.js", "b.js")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	a, _ := s.Read("a.js")
	b, _ := s.Read("b.js")
	if a.Content != "aaa" || b.Content != "bbb" {
		t.Errorf("conflict mutated files: a=%q b=%q", a.Content, b.Content)
	}
}

func TestReplaceLines(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Write("f.txt", "a\nb\nc", ""); err != nil {
		t.Fatal(err)
	}

	f, err := s.ReplaceLines("f.txt", 1, 1, "X")
	if err != nil {
		t.Fatalf("ReplaceLines failed: %v", err)
	}
	if f.Content != "X\nb\nc" {
		t.Errorf("expected %q, got %q", "X\nb\nc", f.Content)
	}

	// Multi-line replacement over a range
	f, err = s.ReplaceLines("f.txt", 2, 3, "y\nz\nw")
	if err != nil {
		t.Fatal(err)
	}
	if f.Content != "X\ny\nz\nw" {
		t.Errorf("expected %q, got %q", "X\ny\nz\nw", f.Content)
	}
}

func TestReplaceLinesBadRange(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Write("f.txt", "a\nb\nc", ""); err != nil {
		t.Fatal(err)
	}

	cases := []struct{ first, last int }{
		{0, 1},  // below 1
		{2, 1},  // inverted
		{1, 4},  // past end
		{4, 4},  // entirely past end
		{-1, 2}, // negative
	}
	for _, c := range cases {
		if _, err := s.ReplaceLines("f.txt", c.first, c.last, "X"); !errors.Is(err, ErrBadRange) {
			t.Errorf("range %d-%d: expected ErrBadRange, got %v", c.first, c.last, err)
		}
	}

	got, _ := s.Read("f.txt")
	if got.Content != "a\nb\nc" {
		t.Errorf("bad range mutated file: %q", got.Content)
	}
}

func TestReplaceLinesAppliesAgainstCurrentContent(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Write("f.txt", "a\nb\nc", ""); err != nil {
		t.Fatal(err)
	}
	// Another writer replaces the file between the caller's read and splice.
	if _, err := s.Write("f.txt", "1\n2\n3\n4", ""); err != nil {
		t.Fatal(err)
	}

	f, err := s.ReplaceLines("f.txt", 4, 4, "end")
	if err != nil {
		t.Fatal(err)
	}
	if f.Content != "1\n2\n3\nend" {
		t.Errorf("expected splice against current content, got %q", f.Content)
	}
}

func TestSnapshotIsConsistentCopy(t *testing.T) {
	s := newTestStore(t)

	s.Write("a.js", "aaa", "")
	s.Write("b.js", "bbb", "")

	snap := s.Snapshot()
	if len(snap) != 2 || snap["a.js"] != "aaa" || snap["b.js"] != "bbb" {
		t.Errorf("bad snapshot: %v", snap)
	}

	// Mutations after the snapshot must not leak into it.
	s.Write("a.js", "changed", "")
	s.Delete("b.js")
	if snap["a.js"] != "aaa" || snap["b.js"] != "bbb" {
		t.Errorf("snapshot mutated after the fact: %v", snap)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewStore(dbPath, "app-1")
	if err != nil {
		t.Fatal(err)
	}
	s.Write("index.html", "<html></html>", "")
	s.Close()

	s2, err := NewStore(dbPath, "app-1")
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	got, err := s2.Read("index.html")
	if err != nil {
		t.Fatalf("file lost across reopen: %v", err)
	}
	if got.Content != "<html></html>" || !got.IsEntryPoint {
		t.Errorf("unexpected file after reopen: %+v", got)
	}
}

func TestAppIsolation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := NewStore(dbPath, "app-1")
	if err != nil {
		t.Fatal(err)
	}
	defer s1.Close()
	s1.Write("a.js", "from app 1", "")

	s2, err := NewStore(dbPath, "app-2")
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if s2.Exists("a.js") {
		t.Error("file from another app is visible")
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)

	s.Write("src/a.js", "const x = 1\nconsole.log(x)\n// TODO later", "")
	s.Write("src/b.ts", "console.log('hi')\nconst y = 2", "")
	s.Write("style.css", "body { color: red }", "")

	t.Run("substring across files sorted by path and line", func(t *testing.T) {
		matches, err := s.Search(context.Background(), "console.log", SearchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 matches, got %d: %v", len(matches), matches)
		}
		if matches[0].Path != "src/a.js" || matches[0].LineNumber != 2 {
			t.Errorf("unexpected first match: %+v", matches[0])
		}
		if matches[1].Path != "src/b.ts" || matches[1].LineNumber != 1 {
			t.Errorf("unexpected second match: %+v", matches[1])
		}
	})

	t.Run("regex query", func(t *testing.T) {
		matches, err := s.Search(context.Background(), `const [xy] = \d`, SearchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 2 {
			t.Errorf("expected 2 matches, got %d", len(matches))
		}
	})

	t.Run("invalid regex falls back to literal", func(t *testing.T) {
		s.Write("weird.txt", "a [unclosed bracket", "")
		matches, err := s.Search(context.Background(), "[unclosed", SearchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 || matches[0].Path != "weird.txt" {
			t.Errorf("literal fallback failed: %v", matches)
		}
	})

	t.Run("case insensitive by default", func(t *testing.T) {
		matches, err := s.Search(context.Background(), "CONSOLE", SearchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 2 {
			t.Errorf("expected case-insensitive matches, got %d", len(matches))
		}

		matches, err = s.Search(context.Background(), "CONSOLE", SearchOptions{CaseSensitive: true})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no case-sensitive matches, got %d", len(matches))
		}
	})

	t.Run("include glob", func(t *testing.T) {
		matches, err := s.Search(context.Background(), "console", SearchOptions{IncludeGlob: "*.ts"})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 || matches[0].Path != "src/b.ts" {
			t.Errorf("glob filter failed: %v", matches)
		}
	})

	t.Run("max results cap", func(t *testing.T) {
		matches, err := s.Search(context.Background(), "console", SearchOptions{MaxResults: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 {
			t.Errorf("expected cap of 1, got %d", len(matches))
		}
	})
}
