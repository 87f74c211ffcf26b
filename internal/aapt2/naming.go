package aapt2

import (
	"path/filepath"
	"strings"
)

// FlatName returns the artifact name aapt2 compile produces for a resource
// file, based on its type directory and file name:
//
//	res/values-en/strings.xml -> values-en_strings.arsc.flat
//	res/drawable/icon.png     -> drawable_icon.png.flat
func FlatName(file string) string {
	dir := filepath.Base(filepath.Dir(file))
	name := filepath.Base(file)

	if strings.HasPrefix(dir, "values") && strings.HasSuffix(name, ".xml") {
		return dir + "_" + strings.TrimSuffix(name, ".xml") + ".arsc.flat"
	}

	return dir + "_" + name + ".flat"
}
