package results

import (
	"regexp"
	"sort"
	"strings"
)

// testDirMarkers are directory markers that, together with a "test"
// substring, classify a path as test code.
var testDirMarkers = []string{
	"/test/", "/tests/", "/mochitest/", "testing/",
	"/jsapi-tests/", "/reftests/", "/reftest/",
	"/crashtests/", "/crashtest/",
	"/googletest/", "/gtest/", "/gtests/",
	"/imptests/",
}

// CategorizePath decides whether a path is normal, test, or generated.
// /unit/ always means test, even for generated files. The marker list is a
// hardcoded heuristic; trees could describe this better in their own build
// metadata.
func CategorizePath(path string) string {
	if strings.Contains(path, "/unit/") {
		return PathKindTest
	}
	if strings.Contains(path, "__GENERATED__") {
		return PathKindGenerated
	}
	if strings.Contains(path, "test") {
		for _, marker := range testDirMarkers {
			if strings.Contains(path, marker) {
				return PathKindTest
			}
		}
	}
	return PathKindNormal
}

type qualifiedBatch struct {
	qual  string
	batch KindMap
	fixup LineFixup
}

// pathEntry accumulates lines for one path under one display kind. The
// fixup of the first batch to touch the path wins.
type pathEntry struct {
	lines []LineMatch
	fixup LineFixup
}

// kindBucket holds one path kind's display kinds in first-seen order
type kindBucket struct {
	order   []string
	entries map[string]map[string]*pathEntry // qkind -> path -> entry
}

// Aggregator collects raw result batches and produces the final Tree.
// One Aggregator serves exactly one request; it is not safe for concurrent
// use.
type Aggregator struct {
	batches   []KindMap
	qualified []qualifiedBatch

	pathFilter *regexp.Regexp

	compiled map[string]*kindBucket
}

// NewAggregator returns an empty Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		compiled: make(map[string]*kindBucket),
	}
}

// SetPathFilter installs a case-insensitive path filter. An empty or
// match-everything expression disables filtering. An invalid pattern
// degrades to literal-substring matching rather than failing the request.
func (a *Aggregator) SetPathFilter(expr string) {
	if expr == "" || expr == ".*" {
		a.pathFilter = nil
		return
	}

	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(expr))
	}
	a.pathFilter = re
}

// Add ingests an unqualified result batch
func (a *Aggregator) Add(batch KindMap) {
	a.batches = append(a.batches, batch)
}

// AddQualified ingests a result batch attributed to one resolved symbol.
// qual is the human-readable symbol name the results are grouped under;
// fixup, if non-nil, is applied to each surviving line at finalization.
func (a *Aggregator) AddQualified(qual string, batch KindMap, fixup LineFixup) {
	a.qualified = append(a.qualified, qualifiedBatch{qual: qual, batch: batch, fixup: fixup})
}

// compile categorizes one path's results under [pathkind][qkind][path],
// applying the path filter and concatenating lines across repeated calls
// for the same path.
func (a *Aggregator) compile(kind, qual string, pathr PathResult, fixup LineFixup) {
	qkind := kind
	if qual != "" {
		qkind = kind + " (" + qual + ")"
	}

	if a.pathFilter != nil && !a.pathFilter.MatchString(pathr.Path) {
		return
	}

	pathKind := CategorizePath(pathr.Path)

	bucket := a.compiled[pathKind]
	if bucket == nil {
		bucket = &kindBucket{entries: make(map[string]map[string]*pathEntry)}
		a.compiled[pathKind] = bucket
	}

	kindEntries := bucket.entries[qkind]
	if kindEntries == nil {
		kindEntries = make(map[string]*pathEntry)
		bucket.entries[qkind] = kindEntries
		bucket.order = append(bucket.order, qkind)
	}

	entry := kindEntries[pathr.Path]
	if entry == nil {
		entry = &pathEntry{fixup: fixup}
		kindEntries[pathr.Path] = entry
	}
	entry.lines = append(entry.lines, pathr.Lines...)
}

// Build runs the two-phase aggregation and returns the response tree.
//
// Phase 1 ingests batches kind by kind in precedence order: qualified
// batches first, in lexicographic qualifier order, under a per-kind work
// budget when workLimit is set; unqualified batches after, unlimited.
//
// Phase 2 walks the compiled state in display order, deduplicates
// (path, line) pairs so higher-precedence kinds suppress lower ones,
// applies fixups, and enforces the global line budget.
func (a *Aggregator) Build(workLimit bool) *Tree {
	sort.SliceStable(a.qualified, func(i, j int) bool {
		return a.qualified[i].qual < a.qualified[j].qual
	})

	for _, kind := range KindPrecedences {
		work := 0
		for _, qb := range a.qualified {
			if workLimit && work > MaxWork {
				break
			}
			for _, pathr := range qb.batch[kind] {
				a.compile(kind, qb.qual, pathr, qb.fixup)
				work++
			}
		}

		for _, batch := range a.batches {
			for _, pathr := range batch[kind] {
				a.compile(kind, "", pathr, nil)
			}
		}
	}

	return a.finalize()
}

type lineKey struct {
	path string
	lno  int
}

func (a *Aggregator) finalize() *Tree {
	tree := &Tree{}
	count := 0
	seen := make(map[lineKey]bool)

	for _, pathKind := range PathKindPrecedences {
		bucket := a.compiled[pathKind]
		if bucket == nil {
			continue
		}

		group := PathKindGroup{PathKind: pathKind}
		for _, qkind := range bucket.order {
			kindEntries := bucket.entries[qkind]

			pathsInOrder := make([]string, 0, len(kindEntries))
			for path := range kindEntries {
				pathsInOrder = append(pathsInOrder, path)
			}
			sort.Strings(pathsInOrder)

			kindGroup := KindGroup{Kind: qkind}
			for _, path := range pathsInOrder {
				entry := kindEntries[path]
				sort.SliceStable(entry.lines, func(i, j int) bool {
					return entry.lines[i].Lno < entry.lines[j].Lno
				})

				linesOut := make([]LineMatch, 0, len(entry.lines))
				for _, line := range entry.lines {
					if count == MaxCount {
						break
					}
					key := lineKey{path: path, lno: line.Lno}
					if seen[key] {
						continue
					}
					seen[key] = true
					if entry.fixup != nil {
						line = entry.fixup(line)
					}
					linesOut = append(linesOut, line)
					count++
				}

				if len(linesOut) > 0 || qkind == KindFiles {
					kindGroup.Paths = append(kindGroup.Paths, PathResult{Path: path, Lines: linesOut})
				}
			}

			if len(kindGroup.Paths) > 0 {
				group.Kinds = append(group.Kinds, kindGroup)
			}
		}

		if len(group.Kinds) > 0 {
			tree.PathKinds = append(tree.PathKinds, group)
		}
	}

	return tree
}
