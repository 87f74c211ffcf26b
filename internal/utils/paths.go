package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// NormalizePath returns a comparable identity for a path. Existing paths are
// resolved to an absolute path with symlinks evaluated; anything else falls
// back to a cleaned, forward-slash form of the input.
func NormalizePath(path string) string {
	if _, err := os.Stat(path); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				return resolved
			}

			return abs
		}
	}

	return filepath.ToSlash(filepath.Clean(strings.ReplaceAll(path, `\`, "/")))
}

// ExpandPath expands ${VAR} and $VAR references and a leading ~.
// Unset variables are left as written.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	expanded := os.Expand(path, func(name string) string {
		if value, ok := os.LookupEnv(name); ok {
			return value
		}

		return "${" + name + "}"
	})

	if home, err := homedir.Expand(expanded); err == nil {
		expanded = home
	}

	return expanded
}

// ExpandPaths applies ExpandPath to every element in place
func ExpandPaths(paths []string) {
	for i, p := range paths {
		paths[i] = ExpandPath(p)
	}
}

// SanitizeName turns a path into a string usable as a single directory name
func SanitizeName(path string) string {
	r := strings.NewReplacer("/", "_", `\`, "_", ":", "_")
	return strings.Trim(r.Replace(path), "_.")
}
