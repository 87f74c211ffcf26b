package config

import (
	"os"
	"path/filepath"
)

// Extensions are the config file formats, in lookup order
var Extensions = []string{"json", "yml", "yaml", "toml"}

// FindLocalConfig finds local config file by walking up directories
func FindLocalConfig(dir string) string {
	for {
		for _, ext := range Extensions {
			path := filepath.Join(dir, FileName+"."+ext)

			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}

// FindGlobalConfig returns the user-level config file in dir, if any
func FindGlobalConfig(dir string) string {
	if dir == "" {
		return ""
	}

	for _, ext := range Extensions {
		path := filepath.Join(dir, "asb", "config."+ext)

		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
