// Package identifiers reads the precomputed identifier index: one line per
// identifier of the form "QualifiedName Symbol". The index supports exact
// and prefix lookup of qualified names, optionally case-folded.
package identifiers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quarry/internal/config"
	"quarry/internal/logging"
)

// Ident is one identifier index entry
type Ident struct {
	// QualifiedName is the human-readable qualified name, e.g. ns::Window
	QualifiedName string

	// Symbol is the mangled symbol the cross-reference store is keyed by
	Symbol string
}

// entry augments Ident with the precomputed fold-case key used for search
type entry struct {
	ident Ident
	folded string
}

// Index is the loaded identifier index for every configured tree.
// Read-only after Load.
type Index struct {
	trees map[string][]entry
}

// Load reads the identifiers file of every configured tree and sorts the
// entries by their case-folded qualified name so lookups can binary search.
// Ties keep file order, which is the index's own relevance order.
func Load(cfg *config.Config, logger *logging.Logger) (*Index, error) {
	idx := &Index{trees: make(map[string][]entry)}

	for _, tree := range cfg.TreeNames() {
		indexPath, _ := cfg.IndexPath(tree)
		path := filepath.Join(indexPath, "identifiers")

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", tree, err)
		}

		var entries []entry
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			sep := strings.IndexByte(line, ' ')
			if sep <= 0 || sep == len(line)-1 {
				continue
			}
			ident := Ident{QualifiedName: line[:sep], Symbol: line[sep+1:]}
			entries = append(entries, entry{ident: ident, folded: strings.ToLower(ident.QualifiedName)})
		}

		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].folded < entries[j].folded
		})
		idx.trees[tree] = entries

		logger.Info("Loaded identifier index", map[string]interface{}{
			"tree":        tree,
			"identifiers": len(entries),
		})
	}

	return idx, nil
}

// Lookup finds identifiers whose qualified name matches needle. With exact
// set only full-name matches are returned; otherwise needle is a prefix.
// With foldCase set matching ignores case. Results come back in index
// order, capped at limit (0 means no cap).
func (x *Index) Lookup(tree, needle string, exact, foldCase bool, limit int) []Ident {
	entries, ok := x.trees[tree]
	if !ok || needle == "" {
		return nil
	}

	folded := strings.ToLower(needle)

	// All candidates share the fold-case prefix; binary search the range.
	lo := sort.Search(len(entries), func(i int) bool {
		return entries[i].folded >= folded
	})

	var out []Ident
	for i := lo; i < len(entries); i++ {
		if !strings.HasPrefix(entries[i].folded, folded) {
			break
		}

		name := entries[i].ident.QualifiedName
		switch {
		case exact && foldCase:
			if !strings.EqualFold(name, needle) {
				continue
			}
		case exact:
			if name != needle {
				continue
			}
		case !foldCase:
			if !strings.HasPrefix(name, needle) {
				continue
			}
		}

		out = append(out, entries[i].ident)
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out
}
