// Package codesearch queries the precomputed full-text index. The index is
// a SQLite database per tree (codesearch.db under the tree's index path)
// with a lines table and a trigram-tokenized FTS5 shadow used as a
// candidate prefilter (trigram MATCH is substring search, so any line a
// literal could occur in is a candidate); the actual pattern match runs as
// a Go regexp over candidate rows so the full regex syntax of the query
// language is honored.
package codesearch

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"regexp/syntax"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"quarry/internal/config"
	"quarry/internal/logging"
	"quarry/internal/results"
)

// maxLines caps the lines one search may return; the aggregation layer
// applies the same global budget.
const maxLines = 1000

// Engine is the loaded full-text engine for every configured tree.
// Read-only after Load.
type Engine struct {
	logger *logging.Logger
	trees  map[string]*sql.DB
}

// Load opens every configured tree's codesearch database read-only
func Load(cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	engine := &Engine{logger: logger, trees: make(map[string]*sql.DB)}

	for _, tree := range cfg.TreeNames() {
		indexPath, _ := cfg.IndexPath(tree)
		dbPath := filepath.Join(indexPath, "codesearch.db")

		db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro&immutable=1")
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("tree %s: %w", tree, err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			engine.Close()
			return nil, fmt.Errorf("tree %s: opening %s: %w", tree, dbPath, err)
		}
		engine.trees[tree] = db

		logger.Info("Opened codesearch index", map[string]interface{}{
			"tree": tree,
			"db":   dbPath,
		})
	}

	return engine, nil
}

// Close closes every database handle
func (e *Engine) Close() error {
	var firstErr error
	for _, db := range e.trees {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Search runs pattern over the tree's content. foldCase enables
// case-insensitive matching; pathRegex restricts which files are searched
// (an invalid expression degrades to literal-substring matching). The
// returned flag is true when the deadline expired and the results are
// partial.
func (e *Engine) Search(ctx context.Context, pattern string, foldCase bool, pathRegex, tree string) ([]results.PathResult, bool, error) {
	db, ok := e.trees[tree]
	if !ok {
		return nil, false, fmt.Errorf("unknown tree %q", tree)
	}

	flags := ""
	if foldCase {
		flags = "(?i)"
	}
	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		// The parser already escaped user text; a bad pattern here means an
		// explicit re: query, which searches nothing rather than failing.
		e.logger.Debug("Unparseable content pattern", map[string]interface{}{
			"pattern": pattern, "error": err.Error(),
		})
		return nil, false, nil
	}

	var pathRE *regexp.Regexp
	if pathRegex != "" && pathRegex != ".*" {
		pathRE, err = regexp.Compile("(?i)" + pathRegex)
		if err != nil {
			pathRE = regexp.MustCompile("(?i)" + regexp.QuoteMeta(pathRegex))
		}
	}

	rows, err := e.candidates(ctx, db, pattern)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true, nil
		}
		return nil, false, err
	}
	defer rows.Close()

	byPath := make(map[string][]results.LineMatch)
	count := 0
	timedOut := false

	for rows.Next() {
		var path, line string
		var lno int
		if err := rows.Scan(&path, &lno, &line); err != nil {
			return nil, false, err
		}

		if pathRE != nil && !pathRE.MatchString(path) {
			continue
		}

		loc := re.FindStringIndex(line)
		if loc == nil {
			continue
		}

		byPath[path] = append(byPath[path], results.LineMatch{
			Lno:    lno,
			Line:   line,
			Bounds: []int{loc[0], loc[1]},
		})
		count++
		if count >= maxLines {
			break
		}

		if ctx.Err() != nil {
			timedOut = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			timedOut = true
		} else {
			return nil, false, err
		}
	}

	paths := make([]string, 0, len(byPath))
	for path := range byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]results.PathResult, 0, len(paths))
	for _, path := range paths {
		out = append(out, results.PathResult{Path: path, Lines: byPath[path]})
	}
	return out, timedOut, nil
}

// candidates returns the rows the pattern could possibly match. When the
// pattern contains a literal run of at least 3 bytes the FTS index narrows
// the scan; otherwise every line is a candidate.
func (e *Engine) candidates(ctx context.Context, db *sql.DB, pattern string) (*sql.Rows, error) {
	literal := longestLiteral(pattern)
	if len(literal) >= 3 {
		rows, err := db.QueryContext(ctx, `
			SELECT l.path, l.lno, l.line
			FROM lines l JOIN lines_fts f ON l.rowid = f.rowid
			WHERE lines_fts MATCH ?
			ORDER BY l.path, l.lno`,
			ftsQuote(literal))
		if err == nil {
			return rows, nil
		}
		// Tokenization mismatches fall back to the full scan.
		e.logger.Debug("FTS prefilter failed, scanning", map[string]interface{}{
			"literal": literal, "error": err.Error(),
		})
	}

	return db.QueryContext(ctx, `SELECT path, lno, line FROM lines ORDER BY path, lno`)
}

// ftsQuote wraps a literal in double quotes for FTS MATCH syntax
func ftsQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// longestLiteral extracts the longest plain-text run that any match of the
// pattern must contain. Returns "" when the pattern has no usable literal.
func longestLiteral(pattern string) string {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return ""
	}
	return longestLiteralOf(re.Simplify())
}

func longestLiteralOf(re *syntax.Regexp) string {
	switch re.Op {
	case syntax.OpLiteral:
		return string(re.Rune)
	case syntax.OpConcat, syntax.OpCapture:
		best := ""
		for _, sub := range re.Sub {
			if lit := longestLiteralOf(sub); len(lit) > len(best) {
				best = lit
			}
		}
		return best
	case syntax.OpPlus:
		if len(re.Sub) == 1 {
			return longestLiteralOf(re.Sub[0])
		}
	}
	return ""
}
