// Package paths provides path normalization and containment checks for the
// source file view.
package paths

import (
	"path/filepath"
	"strings"
)

// Normalize converts backslashes to forward slashes and collapses the path
func Normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// SafeJoin joins a request-supplied relative path onto root, rejecting any
// path that would escape the root. Returns ok=false for escaping paths.
func SafeJoin(root string, elems ...string) (string, bool) {
	rel := filepath.Join(elems...)
	joined := filepath.Join(root, rel)

	cleanRoot := filepath.Clean(root)
	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", false
	}
	return joined, true
}

// SplitRequestPath splits a URL path into its non-empty segments
func SplitRequestPath(urlPath string) []string {
	parts := strings.Split(urlPath, "/")
	elems := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			elems = append(elems, p)
		}
	}
	return elems
}
