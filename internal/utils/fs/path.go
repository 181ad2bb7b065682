package fs

import (
	"path/filepath"
	"strings"
)

// IsUnsafePath checks if the given path is unsafe to remove
func IsUnsafePath(path string) (bool, error) {
	// Check the original input first, before normalization hides "." and ".."
	originalBase := filepath.Base(path)
	if originalBase == "." || originalBase == ".." {
		return true, nil
	}

	cleaned := filepath.Clean(path)
	if cleaned == string(filepath.Separator) {
		return true, nil
	}

	// Double slashes may resolve to the root on some systems
	if strings.HasPrefix(path, "//") {
		return true, nil
	}

	return false, nil
}

// Contains reports whether target is dir itself or lies somewhere below it.
// Both paths are made absolute before comparison.
func Contains(dir, target string) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(absDir, absTarget)
	if err != nil {
		// Different volumes
		return false, nil
	}
	if rel == "." {
		return true, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
