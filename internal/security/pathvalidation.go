// Package security validates filesystem paths handed to the tools and the
// plot renderer, so a granule name or output flag cannot walk the process out
// of its output directories.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory rejects paths that resolve outside safeDir.
// Both sides are canonicalized through symlinks before comparison; for a path
// that does not exist yet, the nearest existing ancestor is resolved instead,
// which catches a symlinked parent pointing elsewhere.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("resolve safe directory: %w", err)
	}

	canonicalPath := absPath
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		canonicalPath = resolved
	} else {
		// Walk up to the nearest existing ancestor and canonicalize that,
		// then re-attach the not-yet-created tail.
		checkPath := absPath
		for {
			parent := filepath.Dir(checkPath)
			if parent == checkPath {
				break
			}
			if resolved, err := filepath.EvalSymlinks(parent); err == nil {
				tail, _ := filepath.Rel(parent, absPath)
				canonicalPath = filepath.Join(resolved, tail)
				break
			}
			checkPath = parent
		}
	}

	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("resolve safe directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", filePath, safeDir)
	}
	return nil
}

// ValidatePathWithinAllowedDirs accepts a path that sits under at least one
// of the allowed directories.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}
	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}
	return fmt.Errorf("path must be within one of the allowed directories: %v", allowedDirs)
}

// ValidateWritePath checks a user-supplied output location against the temp
// directory, the working directory, and any extra roots the caller trusts
// (the daemon passes its configured plot directory).
func ValidateWritePath(filePath string, extraDirs ...string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	allowed := append([]string{os.TempDir(), cwd}, extraDirs...)
	return ValidatePathWithinAllowedDirs(filePath, allowed)
}

// SanitizeFilename reduces an arbitrary identifier to a safe file name
// component: ASCII letters, digits, dot, underscore and dash survive,
// anything else collapses to a single underscore. Used when granule names
// become plot directory names.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
