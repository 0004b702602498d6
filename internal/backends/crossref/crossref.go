// Package crossref reads the precomputed symbol cross-reference index.
//
// The on-disk format is a flat file of alternating lines: a symbol line
// followed by a JSON payload line mapping analysis keys (uses, defs,
// assignments, decls, idl) to path results. The file is scanned once at
// startup to build an offset map into the raw bytes; payloads are decoded
// lazily per lookup.
package crossref

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quarry/internal/config"
	"quarry/internal/logging"
	"quarry/internal/results"
)

// span locates one symbol's JSON payload within the raw file bytes
type span struct {
	start int
	end   int
}

// treeData holds one tree's raw crossref bytes and its symbol offset map
type treeData struct {
	data    []byte
	symbols map[string]span
}

// Store is the loaded cross-reference index for every configured tree.
// Read-only after Load.
type Store struct {
	trees map[string]*treeData
}

// Load reads the crossref file of every configured tree
func Load(cfg *config.Config, logger *logging.Logger) (*Store, error) {
	store := &Store{trees: make(map[string]*treeData)}

	for _, tree := range cfg.TreeNames() {
		indexPath, _ := cfg.IndexPath(tree)
		path := filepath.Join(indexPath, "crossref")

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", tree, err)
		}

		td, err := index(data)
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", tree, err)
		}
		store.trees[tree] = td

		logger.Info("Loaded crossref index", map[string]interface{}{
			"tree":    tree,
			"symbols": len(td.symbols),
			"bytes":   len(data),
		})
	}

	return store, nil
}

// index scans the alternating symbol/payload lines and records payload spans
func index(data []byte) (*treeData, error) {
	td := &treeData{data: data, symbols: make(map[string]span)}

	pos := 0
	var key string
	haveKey := false

	for pos < len(data) {
		nl := bytes.IndexByte(data[pos:], '\n')
		lineEnd := len(data)
		next := len(data)
		if nl >= 0 {
			lineEnd = pos + nl
			next = lineEnd + 1
		}

		if !haveKey {
			key = strings.TrimSpace(string(data[pos:lineEnd]))
			haveKey = true
		} else {
			// json.Unmarshal tolerates surrounding whitespace, so the raw
			// line span is enough.
			td.symbols[key] = span{start: pos, end: lineEnd}
			haveKey = false
		}
		pos = next
	}

	if haveKey && key != "" {
		return nil, fmt.Errorf("crossref file has a trailing symbol line with no payload")
	}
	return td, nil
}

func (s *Store) payload(tree, symbol string) (results.KindMap, bool, error) {
	td, ok := s.trees[tree]
	if !ok {
		return nil, false, fmt.Errorf("unknown tree %q", tree)
	}

	sp, ok := td.symbols[symbol]
	if !ok {
		return nil, false, nil
	}

	var km results.KindMap
	if err := json.Unmarshal(td.data[sp.start:sp.end], &km); err != nil {
		return nil, false, fmt.Errorf("symbol %s: corrupt payload: %w", symbol, err)
	}
	return km, true, nil
}

// LookupMerged splits symbols on commas, looks every one up, and merges
// their results key by key. If any requested symbol is absent the whole
// lookup returns an empty map: a multi-symbol query is only meaningful when
// the index knows all of its parts.
func (s *Store) LookupMerged(tree, symbols string) (results.KindMap, error) {
	merged := make(results.KindMap)

	for _, symbol := range strings.Split(symbols, ",") {
		km, found, err := s.payload(tree, symbol)
		if err != nil {
			return nil, err
		}
		if !found {
			return results.KindMap{}, nil
		}
		for key, paths := range km {
			merged[key] = append(merged[key], paths...)
		}
	}

	return merged, nil
}

// LookupSingle looks up one symbol. found is false when the index has no
// entry for it.
func (s *Store) LookupSingle(tree, symbol string) (results.KindMap, bool, error) {
	return s.payload(tree, symbol)
}

// HasTree reports whether a tree was loaded
func (s *Store) HasTree(tree string) bool {
	_, ok := s.trees[tree]
	return ok
}
