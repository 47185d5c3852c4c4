package filestore

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Match is one search hit. Line numbers are 1-indexed.
type Match struct {
	Path       string
	LineNumber int
	LineText   string
}

// SearchOptions controls Search behavior.
type SearchOptions struct {
	// IncludeGlob restricts matches to paths matching the glob pattern
	// (matched against both the full path and the base name).
	IncludeGlob string

	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool

	// MaxResults caps the number of returned matches. Zero means no cap.
	MaxResults int
}

// Search scans every file for lines matching query. The query is compiled
// as a regular expression; if it does not compile it is retried as a
// literal substring. Files are scanned concurrently against a consistent
// snapshot, and results come back sorted by path then line number.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) ([]Match, error) {
	re, err := compileQuery(query, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	files := make([]*File, 0, len(s.cache))
	for _, f := range s.cache {
		if opts.IncludeGlob != "" && !globMatch(opts.IncludeGlob, f.Path) {
			continue
		}
		files = append(files, f)
	}
	s.mu.RUnlock()

	var mu sync.Mutex
	var matches []Match

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var local []Match
			for i, line := range strings.Split(f.Content, "\n") {
				if re.MatchString(line) {
					local = append(local, Match{Path: f.Path, LineNumber: i + 1, LineText: line})
				}
			}
			if len(local) > 0 {
				mu.Lock()
				matches = append(matches, local...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].LineNumber < matches[j].LineNumber
	})

	if opts.MaxResults > 0 && len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches, nil
}

func compileQuery(query string, caseSensitive bool) (*regexp.Regexp, error) {
	prefix := "(?i)"
	if caseSensitive {
		prefix = ""
	}
	re, err := regexp.Compile(prefix + query)
	if err == nil {
		return re, nil
	}
	// Not a valid regexp, treat as a literal substring.
	return regexp.Compile(prefix + regexp.QuoteMeta(query))
}

func globMatch(pattern, path string) bool {
	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, filepath.Base(path))
	return ok
}
