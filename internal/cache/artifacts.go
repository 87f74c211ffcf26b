package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FlatExt is the extension aapt2 gives compiled resources
const FlatExt = ".flat"

// CollectArtifacts scans dir recursively and returns every compiled
// resource file, sorted
func CollectArtifacts(dir string) ([]string, error) {
	var artifacts []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return fs.SkipAll
			}
			return err
		}

		if !d.IsDir() && strings.HasSuffix(d.Name(), FlatExt) {
			artifacts = append(artifacts, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	sort.Strings(artifacts)

	return artifacts, nil
}

// DirSize returns the number of regular files beneath dir and their total
// size. A missing directory is empty.
func DirSize(dir string) (int, int64, error) {
	var count int
	var total int64

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return fs.SkipAll
			}
			return err
		}

		if d.Type().IsRegular() {
			if size, ok := fileSize(path); ok {
				count++
				total += size
			}
		}

		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return count, total, nil
}

func fileSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0, false
	}

	return info.Size(), true
}
