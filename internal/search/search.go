// Package search turns a parsed query into an aggregated result tree by
// fanning out to the index backends and merging what comes back.
package search

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"quarry/internal/backends"
	"quarry/internal/backends/identifiers"
	"quarry/internal/config"
	"quarry/internal/demangle"
	"quarry/internal/errors"
	"quarry/internal/logging"
	"quarry/internal/query"
	"quarry/internal/results"
)

// identifierLimit caps how many identifier candidates get their
// cross-references pulled in for a single query.
const identifierLimit = 500

// Params are the request-level query parameters. FoldCase defaults to
// true; the case=true query parameter turns it off.
type Params struct {
	Query      string
	FoldCase   bool
	Regexp     bool
	PathFilter string
}

// Searcher runs queries against a loaded set of backends. Safe for
// concurrent use; the backends are read-only after load.
type Searcher struct {
	cfg       *config.Config
	logger    *logging.Logger
	backends  *backends.Backends
	demangler *demangle.Demangler
}

func New(cfg *config.Config, logger *logging.Logger, b *backends.Backends) *Searcher {
	return &Searcher{
		cfg:       cfg,
		logger:    logger,
		backends:  b,
		demangler: demangle.New(),
	}
}

// prepare applies the request parameters on top of the parsed query:
// the path= filter becomes a path regex, and regexp=true replaces any
// textual field with the raw query string interpreted as a regex.
func prepare(p Params) query.Query {
	parsed := query.ParseSearch(p.Query)

	if p.PathFilter != "" {
		parsed.PathRegex = query.TranslateGlob(p.PathFilter)
	}

	if p.Regexp {
		parsed.Default = ""
		parsed.Regex = p.Query
	}

	return parsed
}

func title(p Params, parsed query.Query) string {
	if parsed.Symbol != "" {
		return "Symbol " + parsed.Symbol
	}
	if p.Query == "" {
		return "Files " + p.PathFilter
	}
	return p.Query
}

// Search runs the full query pipeline for one tree. A nil tree with a
// nil error means the query was too trivial to run; callers respond
// with an empty JSON object.
func (s *Searcher) Search(ctx context.Context, tree string, p Params) (*results.Tree, error) {
	parsed := prepare(p)
	if parsed.IsTrivial() {
		return nil, nil
	}

	agg := results.NewAggregator()
	workLimit := false
	timedOut := false

	switch {
	case parsed.Symbol != "":
		agg.SetPathFilter(parsed.PathRegex)
		hits, err := s.backends.Crossrefs.LookupMerged(tree, parsed.Symbol)
		if err != nil {
			return nil, err
		}
		agg.Add(results.ExpandKeys(hits))

	case parsed.Regex != "":
		pathRE := parsed.PathRegex
		if pathRE == "" {
			pathRE = ".*"
		}
		lines, hitDeadline, err := s.backends.Codesearch.Search(ctx, parsed.Regex, p.FoldCase, pathRE, tree)
		if err != nil {
			return nil, err
		}
		timedOut = hitDeadline
		agg.Add(results.KindMap{results.KindTextual: lines})

	case parsed.ID != "":
		agg.SetPathFilter(parsed.PathRegex)
		hits, err := s.resolveIdentifier(ctx, tree, parsed.ID, true, p.FoldCase)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			agg.AddQualified(h.pretty, h.batch, h.fixup)
		}

	case parsed.Default != "":
		workLimit = true
		hitDeadline, err := s.defaultSearch(ctx, tree, parsed, p.FoldCase, agg)
		if err != nil {
			return nil, err
		}
		timedOut = hitDeadline

	case parsed.PathRegex != "":
		agg.Add(results.KindMap{results.KindFiles: s.backends.Files.FindPaths(tree, parsed.PathRegex)})

	default:
		return nil, nil
	}

	out := agg.Build(workLimit)
	out.Title = title(p, parsed)
	out.TimedOut = timedOut
	return out, nil
}

// defaultSearch fans the unprefixed query out to full-text, file-name
// and identifier lookups in parallel. Path-filtered queries only get
// the full-text leg.
func (s *Searcher) defaultSearch(ctx context.Context, tree string, parsed query.Query, foldCase bool, agg *results.Aggregator) (bool, error) {
	pathRE := parsed.PathRegex
	if pathRE == "" {
		pathRE = ".*"
	}

	var (
		textual     []results.PathResult
		hitDeadline bool
		filePaths   []results.PathResult
		identHits   []qualifiedHit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		textual, hitDeadline, err = s.backends.Codesearch.Search(gctx, parsed.Default, foldCase, pathRE, tree)
		return err
	})
	if parsed.PathRegex == "" {
		g.Go(func() error {
			filePaths = s.backends.Files.FindPaths(tree, parsed.Default)
			return nil
		})
		g.Go(func() error {
			var err error
			identHits, err = s.resolveIdentifier(gctx, tree, parsed.Default, false, foldCase)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	agg.Add(results.KindMap{results.KindTextual: textual})
	if parsed.PathRegex == "" {
		agg.Add(results.KindMap{results.KindFiles: filePaths})
		for _, h := range identHits {
			agg.AddQualified(h.pretty, h.batch, h.fixup)
		}
	}
	return hitDeadline, nil
}

// Sorch is the reduced search variant: symbol, id and default queries
// only, results grouped per symbol, no full-text leg.
func (s *Searcher) Sorch(ctx context.Context, tree string, p Params) (*results.Tree, error) {
	parsed := prepare(p)
	if parsed.IsTrivial() {
		return nil, nil
	}

	raw := results.NewRawResults()

	switch {
	case parsed.Symbol != "":
		raw.SetPathFilter(parsed.PathRegex)
		for _, sym := range strings.Split(parsed.Symbol, ",") {
			stored, ok, err := s.backends.Crossrefs.LookupSingle(tree, sym)
			if err != nil {
				return nil, err
			}
			if ok {
				raw.AddSymbol(sym, s.demangler.Demangle(sym), stored)
			}
		}

	case parsed.ID != "":
		raw.SetPathFilter(parsed.PathRegex)
		if err := s.sorchIdentifier(ctx, tree, parsed.ID, true, p.FoldCase, raw); err != nil {
			return nil, err
		}

	case parsed.Default != "":
		if parsed.PathRegex == "" {
			raw.AddPaths(s.backends.Files.FindPaths(tree, parsed.Default))
			if err := s.sorchIdentifier(ctx, tree, parsed.Default, false, p.FoldCase, raw); err != nil {
				return nil, err
			}
		}

	default:
		return nil, nil
	}

	out := raw.Build()
	out.Title = title(p, parsed)
	return out, nil
}

// Define resolves a symbol to the location of its first definition.
func (s *Searcher) Define(tree, symbol string) (string, int, error) {
	hits, err := s.backends.Crossrefs.LookupMerged(tree, symbol)
	if err != nil {
		return "", 0, err
	}
	defs := results.ExpandKeys(hits)[results.KindDefinitions]
	if len(defs) == 0 || len(defs[0].Lines) == 0 {
		return "", 0, errors.New(errors.SymbolNotFound, "no definition for "+symbol, nil)
	}
	return defs[0].Path, defs[0].Lines[0].Lno, nil
}

type qualifiedHit struct {
	pretty string
	batch  results.KindMap
	fixup  results.LineFixup
}

var (
	unescapeRE = regexp.MustCompile(`\\(.)`)
	segmentRE  = regexp.MustCompile(`\.|::`)
)

// resolveIdentifier expands an identifier needle into per-symbol
// cross-reference batches. When the needle is a prefix search and its
// last segment is shorter than 3 bytes, nothing is returned; matching
// would be too broad to be useful.
func (s *Searcher) resolveIdentifier(ctx context.Context, tree, needle string, exact, foldCase bool) ([]qualifiedHit, error) {
	needle = unescapeRE.ReplaceAllString(needle, "$1")
	pieces := segmentRE.Split(needle, -1)
	last := pieces[len(pieces)-1]
	if !exact && len(last) < 3 {
		return nil, nil
	}

	// Shrink highlight bounds to the searched prefix: matching
	// "foo::bar" against "foo::bartab" should highlight "bar" only.
	fixup := func(line results.LineMatch) results.LineMatch {
		if len(line.Bounds) == 2 {
			line.Bounds = []int{line.Bounds[0], line.Bounds[0] + len(last)}
		}
		return line
	}

	var hits []qualifiedHit
	for _, id := range s.backends.Identifiers.Lookup(tree, needle, exact, foldCase, identifierLimit) {
		if err := ctx.Err(); err != nil {
			return hits, err
		}
		stored, err := s.backends.Crossrefs.LookupMerged(tree, id.Symbol)
		if err != nil {
			return nil, err
		}
		hits = append(hits, qualifiedHit{
			pretty: s.prettyName(id),
			batch:  results.ExpandKeys(stored),
			fixup:  fixup,
		})
	}
	return hits, nil
}

func (s *Searcher) sorchIdentifier(ctx context.Context, tree, needle string, exact, foldCase bool, raw *results.RawResults) error {
	needle = unescapeRE.ReplaceAllString(needle, "$1")
	pieces := segmentRE.Split(needle, -1)
	if !exact && len(pieces[len(pieces)-1]) < 3 {
		return nil
	}

	for _, id := range s.backends.Identifiers.Lookup(tree, needle, exact, foldCase, identifierLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		stored, ok, err := s.backends.Crossrefs.LookupSingle(tree, id.Symbol)
		if err != nil {
			return err
		}
		if ok {
			raw.AddSymbol(id.Symbol, s.prettyName(id), stored)
		}
	}
	return nil
}

// prettyName picks the display form of a symbol: the demangled name
// when c++filt produced one, otherwise the qualified name from the
// identifier index.
func (s *Searcher) prettyName(id identifiers.Ident) string {
	pretty := s.demangler.Demangle(id.Symbol)
	if pretty == id.Symbol {
		pretty = id.QualifiedName
	}
	return pretty
}
