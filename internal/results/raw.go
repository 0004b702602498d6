package results

// RawResults is the reduced-mode accumulator behind the sorch endpoint. It
// only carries symbol hits and file listings (no full-text results) and
// applies no work limit, but produces the same response schema as the full
// pipeline so clients need a single decoder.
type RawResults struct {
	agg *Aggregator
}

// NewRawResults returns an empty RawResults
func NewRawResults() *RawResults {
	return &RawResults{agg: NewAggregator()}
}

// SetPathFilter installs a case-insensitive path filter; same degradation
// semantics as Aggregator.SetPathFilter.
func (r *RawResults) SetPathFilter(expr string) {
	r.agg.SetPathFilter(expr)
}

// AddSymbol ingests one symbol's cross-reference data. pretty is the
// human-readable name the hits are grouped under; stored uses the store's
// key scheme and is remapped here.
func (r *RawResults) AddSymbol(sym, pretty string, stored KindMap) {
	r.agg.AddQualified(pretty, ExpandKeys(stored), nil)
}

// AddPaths ingests bare path listings as Files entries
func (r *RawResults) AddPaths(paths []PathResult) {
	r.agg.Add(KindMap{KindFiles: paths})
}

// Build produces the response tree
func (r *RawResults) Build() *Tree {
	return r.agg.Build(false)
}
