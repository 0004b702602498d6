// Package backends wires together the read-only index collaborators the
// query pipeline draws from. Every backend is loaded once at startup and is
// immutable afterwards, so request handlers share them without locking.
package backends

import (
	"fmt"

	"quarry/internal/backends/codesearch"
	"quarry/internal/backends/crossref"
	"quarry/internal/backends/files"
	"quarry/internal/backends/identifiers"
	"quarry/internal/config"
	"quarry/internal/logging"
)

// Backends is the immutable context object holding every loaded index. It
// is constructed once before the server accepts connections and passed to
// request handlers.
type Backends struct {
	Crossrefs   *crossref.Store
	Identifiers *identifiers.Index
	Codesearch  *codesearch.Engine
	Files       *files.Listing
}

// Load opens every configured tree's indexes. Any failure here is fatal to
// startup; after Load succeeds nothing mutates the returned Backends.
func Load(cfg *config.Config, logger *logging.Logger) (*Backends, error) {
	crossrefs, err := crossref.Load(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("loading crossref store: %w", err)
	}

	idents, err := identifiers.Load(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("loading identifier index: %w", err)
	}

	search, err := codesearch.Load(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("loading codesearch engine: %w", err)
	}

	listing, err := files.Load(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("loading path listings: %w", err)
	}

	return &Backends{
		Crossrefs:   crossrefs,
		Identifiers: idents,
		Codesearch:  search,
		Files:       listing,
	}, nil
}

// Close releases backend resources (the codesearch database handles)
func (b *Backends) Close() error {
	if b.Codesearch != nil {
		return b.Codesearch.Close()
	}
	return nil
}
