// Package aar extracts Android library archives so their resources can be
// compiled as Library priority inputs.
package aar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/Norgate-AV/asb/internal/codes"
)

// Info describes one extracted archive
type Info struct {
	// Path is the archive that was extracted
	Path string
	// Dir is the extraction directory
	Dir string
	// ResourceDir is Dir/res, empty when the archive has no resources
	ResourceDir string
	// Manifest is Dir/AndroidManifest.xml, empty when absent
	Manifest string
}

// Extract unpacks the archive at path into dir
func Extract(path, dir string) (*Info, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, codes.Wrap(err, codes.IO, "AAR file not found: %s", path)
		}
		return nil, codes.Wrap(err, codes.IO, "failed to read AAR as zip: %s", path)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to create %s", dir)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if err := extractFile(f, root); err != nil {
			return nil, codes.Wrap(err, codes.IO, "failed to extract %s from %s", f.Name, path)
		}
	}

	info := &Info{Path: path, Dir: dir}

	if st, err := os.Stat(filepath.Join(dir, "res")); err == nil && st.IsDir() {
		info.ResourceDir = filepath.Join(dir, "res")
	}

	if _, err := os.Stat(filepath.Join(dir, "AndroidManifest.xml")); err == nil {
		info.Manifest = filepath.Join(dir, "AndroidManifest.xml")
	}

	return info, nil
}

func extractFile(f *zip.File, root string) error {
	target := filepath.Join(root, filepath.FromSlash(f.Name))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return fmt.Errorf("entry escapes extraction directory")
	}

	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// ExtractAll extracts each archive into baseDir/aar_<i>_<name>, in order.
// Already extracted archives are cleaned up if a later one fails.
func ExtractAll(paths []string, baseDir string) ([]*Info, error) {
	infos := make([]*Info, 0, len(paths))

	for i, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if name == "" {
			name = "unknown"
		}

		info, err := Extract(path, filepath.Join(baseDir, fmt.Sprintf("aar_%d_%s", i, name)))
		if err != nil {
			Cleanup(infos)
			return nil, err
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// Cleanup removes the extraction directories. Removal errors are ignored.
func Cleanup(infos []*Info) {
	for _, info := range infos {
		if info != nil && info.Dir != "" {
			_ = os.RemoveAll(info.Dir)
		}
	}
}
