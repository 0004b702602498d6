package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"trees": {
			"mozilla-central": {"indexPath": "/index/mozilla-central"},
			"comm-central": {"indexPath": "/index/comm-central"}
		},
		"staticRoot": "/srv/static",
		"statusFile": "/tmp/status",
		"server": {"port": 8000}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Trees) != 2 {
		t.Errorf("Trees = %d, want 2", len(cfg.Trees))
	}
	if got, ok := cfg.IndexPath("mozilla-central"); !ok || got != "/index/mozilla-central" {
		t.Errorf("IndexPath(mozilla-central) = %q, %v", got, ok)
	}
	if _, ok := cfg.IndexPath("no-such-tree"); ok {
		t.Error("IndexPath should report unknown trees")
	}
	if cfg.Server.RequestTimeoutMs != 15000 {
		t.Errorf("RequestTimeoutMs default = %d, want 15000", cfg.Server.RequestTimeoutMs)
	}
}

func TestLoadRejectsEmptyTrees(t *testing.T) {
	path := writeConfig(t, `{"trees": {}}`)
	if _, err := Load(path); err == nil {
		t.Error("Load should fail with no trees")
	}
}

func TestLoadRejectsBadDefaultTree(t *testing.T) {
	path := writeConfig(t, `{
		"trees": {"a": {"indexPath": "/x"}},
		"defaultTree": "b"
	}`)
	if _, err := Load(path); err == nil {
		t.Error("Load should fail when defaultTree is unknown")
	}
}

func TestMainTree(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit default",
			cfg: Config{
				DefaultTree: "beta",
				Trees:       map[string]TreeConfig{"beta": {IndexPath: "/b"}, "alpha": {IndexPath: "/a"}},
			},
			want: "beta",
		},
		{
			name: "mozilla-central preferred",
			cfg: Config{
				Trees: map[string]TreeConfig{"mozilla-central": {IndexPath: "/m"}, "alpha": {IndexPath: "/a"}},
			},
			want: "mozilla-central",
		},
		{
			name: "lexicographic fallback",
			cfg: Config{
				Trees: map[string]TreeConfig{"zeta": {IndexPath: "/z"}, "alpha": {IndexPath: "/a"}},
			},
			want: "alpha",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.MainTree(); got != tt.want {
				t.Errorf("MainTree() = %q, want %q", got, tt.want)
			}
		})
	}
}
