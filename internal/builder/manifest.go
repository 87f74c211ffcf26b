package builder

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AdaptiveIconMinSdk is the first API level supporting adaptive icons
const AdaptiveIconMinSdk = 26

const manifestTemplate = `<?xml version="1.0" encoding="utf-8"?>
<manifest package="%s" />
`

// WriteManifest writes a minimal manifest declaring only packageName, which
// is all aapt2 needs to link a resource-only package
func WriteManifest(path, packageName string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(fmt.Sprintf(manifestTemplate, packageName)), 0o644)
}

// HasAdaptiveIcon reports whether any mipmap-anydpi directory beneath dirs
// holds an adaptive-icon resource
func HasAdaptiveIcon(dirs []string) bool {
	marker := []byte("<adaptive-icon")

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), "mipmap-anydpi") {
				continue
			}

			files, err := os.ReadDir(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}

			for _, f := range files {
				if f.IsDir() {
					continue
				}

				data, err := os.ReadFile(filepath.Join(dir, e.Name(), f.Name()))
				if err == nil && bytes.Contains(data, marker) {
					return true
				}
			}
		}
	}

	return false
}
