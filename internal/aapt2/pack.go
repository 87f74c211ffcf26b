package aapt2

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/Norgate-AV/asb/internal/codes"
)

// PackFlata writes artifacts into a .flata archive at path, the container
// aapt2 link accepts in place of many individual .flat files. Entries keep
// the order given and are prefixed with their position, since artifacts from
// different resource directories may share a base name.
func PackFlata(path string, artifacts []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return codes.Wrap(err, codes.IO, "failed to create %s", path)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = codes.Wrap(cerr, codes.IO, "failed to close %s", path)
		}
	}()

	zw := zip.NewWriter(f)

	for i, artifact := range artifacts {
		name := fmt.Sprintf("%05d_%s", i, filepath.Base(artifact))
		if err := addToZip(zw, name, artifact); err != nil {
			return codes.Wrap(err, codes.IO, "failed to pack %s", artifact)
		}
	}

	if err := zw.Close(); err != nil {
		return codes.Wrap(err, codes.IO, "failed to finish %s", path)
	}

	return nil
}

func addToZip(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}

	return nil
}
