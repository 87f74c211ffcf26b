package builder

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Norgate-AV/asb/internal/config"
)

// ignoreFilenames are never treated as resources, matched case-insensitively
// against every file and directory name
var ignoreFilenames = []string{
	".svn",
	".git",
	".ds_store",
	"*.scc",
	".*",
	"cvs",
	"thumbs.db",
	"picasa.ini",
	"*~",
}

// Filter decides which resource files are compiled into a skin
type Filter struct {
	// ExcludeDirPrefixes skips type directories starting with any prefix,
	// so "layout" also covers layout-land and layout-sw600dp
	ExcludeDirPrefixes []string
	// ExcludeFiles skips files with these exact names
	ExcludeFiles []string
}

// NewFilter returns the filter configured for cfg
func NewFilter(cfg config.BuildConfig) Filter {
	return Filter{
		ExcludeDirPrefixes: cfg.ExcludeDirPrefixes,
		ExcludeFiles:       cfg.ExcludeFiles,
	}
}

// Excludes reports whether the file name in type directory typeDir is
// filtered out
func (f Filter) Excludes(typeDir, name string) bool {
	for _, prefix := range f.ExcludeDirPrefixes {
		if strings.HasPrefix(typeDir, prefix) {
			return true
		}
	}

	for _, excluded := range f.ExcludeFiles {
		if name == excluded {
			return true
		}
	}

	return false
}

func ignored(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range ignoreFilenames {
		if ok, _ := path.Match(pattern, lower); ok {
			return true
		}
	}

	return false
}

// FindResourceFiles returns the compilable resource files in dir, sorted.
// Only files inside a type directory (res/values/colors.xml) are
// resources: files directly under dir or nested deeper are skipped, as are
// ignored names and anything the filter excludes.
func FindResourceFiles(dir string, filter Filter) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if p == dir {
			return nil
		}

		if ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if len(parts) > 1 {
				return filepath.SkipDir
			}
			return nil
		}

		if len(parts) != 2 || !d.Type().IsRegular() {
			return nil
		}

		if filter.Excludes(parts[0], parts[1]) {
			return nil
		}

		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}
