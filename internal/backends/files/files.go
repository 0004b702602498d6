// Package files serves path-listing lookups from the precomputed repo-files
// and objdir-files lists (source tree and build output tree respectively).
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"quarry/internal/config"
	"quarry/internal/logging"
	"quarry/internal/results"
)

// maxPaths caps one lookup's results
const maxPaths = 1000

// Listing holds every configured tree's path lists. Read-only after Load.
type Listing struct {
	logger *logging.Logger
	trees  map[string][]string
}

// Load reads repo-files and objdir-files for every configured tree. The
// objdir list is optional: trees without build output simply ship none.
func Load(cfg *config.Config, logger *logging.Logger) (*Listing, error) {
	listing := &Listing{logger: logger, trees: make(map[string][]string)}

	for _, tree := range cfg.TreeNames() {
		indexPath, _ := cfg.IndexPath(tree)

		paths, err := readPathList(filepath.Join(indexPath, "repo-files"))
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", tree, err)
		}

		objdir, err := readPathList(filepath.Join(indexPath, "objdir-files"))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("tree %s: %w", tree, err)
		}
		paths = append(paths, objdir...)

		listing.trees[tree] = paths
		logger.Info("Loaded path listings", map[string]interface{}{
			"tree":  tree,
			"paths": len(paths),
		})
	}

	return listing, nil
}

func readPathList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

// FindPaths returns up to 1000 paths matching pattern, case-insensitively.
// An invalid pattern finds nothing; the caller treats that the same as no
// matches.
func (l *Listing) FindPaths(tree, pattern string) []results.PathResult {
	paths, ok := l.trees[tree]
	if !ok {
		return nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		l.logger.Debug("Unparseable path pattern", map[string]interface{}{
			"pattern": pattern, "error": err.Error(),
		})
		return nil
	}

	var out []results.PathResult
	for _, path := range paths {
		if !re.MatchString(path) {
			continue
		}
		out = append(out, results.PathResult{Path: path, Lines: []results.LineMatch{}})
		if len(out) >= maxPaths {
			break
		}
	}
	return out
}
