package crossref

import (
	"os"
	"path/filepath"
	"testing"

	"quarry/internal/config"
	"quarry/internal/logging"
)

func testStore(t *testing.T, crossrefContent string) *Store {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "crossref"), []byte(crossrefContent), 0644); err != nil {
		t.Fatalf("writing crossref: %v", err)
	}

	cfg := &config.Config{Trees: map[string]config.TreeConfig{
		"tree": {IndexPath: dir},
	}}
	store, err := Load(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return store
}

const sampleCrossref = `_Z3foov
{"defs":[{"path":"dom/foo.cpp","lines":[{"lno":10,"line":"void foo()"}]}],"uses":[{"path":"dom/bar.cpp","lines":[{"lno":20,"line":"foo();"}]}]}
_Z3barv
{"defs":[{"path":"dom/bar.cpp","lines":[{"lno":5,"line":"void bar()"}]}]}
`

func TestLookupSingle(t *testing.T) {
	store := testStore(t, sampleCrossref)

	km, found, err := store.LookupSingle("tree", "_Z3foov")
	if err != nil {
		t.Fatalf("LookupSingle error: %v", err)
	}
	if !found {
		t.Fatal("symbol should be found")
	}
	if len(km["defs"]) != 1 || km["defs"][0].Path != "dom/foo.cpp" {
		t.Errorf("defs = %+v", km["defs"])
	}
	if km["defs"][0].Lines[0].Lno != 10 {
		t.Errorf("lno = %d, want 10", km["defs"][0].Lines[0].Lno)
	}

	_, found, err = store.LookupSingle("tree", "_Znothing")
	if err != nil {
		t.Fatalf("LookupSingle error: %v", err)
	}
	if found {
		t.Error("missing symbol should not be found")
	}
}

func TestLookupMerged(t *testing.T) {
	store := testStore(t, sampleCrossref)

	km, err := store.LookupMerged("tree", "_Z3foov,_Z3barv")
	if err != nil {
		t.Fatalf("LookupMerged error: %v", err)
	}
	if len(km["defs"]) != 2 {
		t.Errorf("merged defs = %d, want 2", len(km["defs"]))
	}
	if len(km["uses"]) != 1 {
		t.Errorf("merged uses = %d, want 1", len(km["uses"]))
	}
}

func TestLookupMergedAnyMissingMeansEmpty(t *testing.T) {
	store := testStore(t, sampleCrossref)

	km, err := store.LookupMerged("tree", "_Z3foov,_Zmissing")
	if err != nil {
		t.Fatalf("LookupMerged error: %v", err)
	}
	if len(km) != 0 {
		t.Errorf("merged = %+v, want empty map when any symbol is missing", km)
	}
}

func TestUnknownTree(t *testing.T) {
	store := testStore(t, sampleCrossref)
	if _, err := store.LookupMerged("other", "_Z3foov"); err == nil {
		t.Error("unknown tree should error")
	}
	if store.HasTree("other") {
		t.Error("HasTree(other) should be false")
	}
}

func TestTrailingKeyRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "crossref"), []byte("_Zorphan\n"), 0644); err != nil {
		t.Fatalf("writing crossref: %v", err)
	}
	cfg := &config.Config{Trees: map[string]config.TreeConfig{"tree": {IndexPath: dir}}}
	if _, err := Load(cfg, logging.Nop()); err == nil {
		t.Error("trailing symbol line should fail Load")
	}
}
