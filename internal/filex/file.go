// Package filex contains filesystem helpers for locating upload directories
// and resolving client-supplied destination paths.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophupload/internal/common"
)

// EnsureDir makes sure dir exists and returns its absolute path. Relative
// paths are resolved against the current working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// SafeJoin joins client-supplied path elements under root and rejects any
// result that would escape it. Empty elements are skipped.
func SafeJoin(root string, elems ...string) (string, error) {
	root = filepath.Clean(root)

	parts := make([]string, 0, len(elems)+1)
	parts = append(parts, root)
	for _, e := range elems {
		if e == "" {
			continue
		}
		if filepath.IsAbs(e) || strings.ContainsRune(e, 0) {
			return "", fmt.Errorf("%w: %q", common.ErrInvalidPath, e)
		}
		parts = append(parts, e)
	}

	joined := filepath.Join(parts...)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidPath, filepath.Join(elems...))
	}

	return joined, nil
}
