package aapt2

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/codes"
)

// PackThreshold is the artifact count above which link inputs are packed
// into .flata archives to keep the command line short
const PackThreshold = 500

// LinkOptions describes one aapt2 link invocation
type LinkOptions struct {
	Manifest   string
	AndroidJar string
	Output     string

	// Base is linked as the primary resource set
	Base []string
	// Overlays are passed with -R, lowest priority first
	Overlays [][]string

	// PackageName renames the manifest package when set
	PackageName string
	VersionCode int
	VersionName string
	MinSdk      int

	// StableIDs is read with --stable-ids when it exists and always
	// written with --emit-ids
	StableIDs string
	// PackageID defaults to DefaultPackageID
	PackageID string

	// WorkDir receives packed archives when the input set is large
	WorkDir string
}

// Count returns the total number of artifacts being linked
func (o LinkOptions) Count() int {
	n := len(o.Base)
	for _, overlay := range o.Overlays {
		n += len(overlay)
	}

	return n
}

// LinkArgs builds the aapt2 link arguments for opts, without any packing
func LinkArgs(opts LinkOptions) []string {
	args := []string{
		"link",
		"--manifest", opts.Manifest,
		"-I", opts.AndroidJar,
		"-o", opts.Output,
		"--auto-add-overlay",
		"--no-version-vectors",
		"--keep-raw-values",
		"--allow-reserved-package-id",
		"--no-resource-removal",
	}

	if opts.PackageName != "" {
		args = append(args, "--rename-manifest-package", opts.PackageName)
	}

	if opts.VersionCode > 0 {
		args = append(args, "--version-code", strconv.Itoa(opts.VersionCode))
	}

	if opts.VersionName != "" {
		args = append(args, "--version-name", opts.VersionName)
	}

	if opts.MinSdk > 0 {
		args = append(args, "--min-sdk-version", strconv.Itoa(opts.MinSdk))
	}

	if opts.StableIDs != "" {
		if _, err := os.Stat(opts.StableIDs); err == nil {
			args = append(args, "--stable-ids", opts.StableIDs)
		}
		args = append(args, "--emit-ids", opts.StableIDs)
	}

	packageID := opts.PackageID
	if packageID == "" {
		packageID = DefaultPackageID
	}
	args = append(args, "--package-id", packageID)

	args = append(args, opts.Base...)
	for _, overlay := range opts.Overlays {
		for _, artifact := range overlay {
			args = append(args, "-R", artifact)
		}
	}

	return args
}

// Link links the artifacts in opts into opts.Output. A link that runs but
// fails is reported as a LinkError carrying aapt2's output.
func (a *Aapt2) Link(ctx context.Context, opts LinkOptions) (*Result, error) {
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to create output directory")
	}

	if opts.Count() > PackThreshold {
		packed, err := packInputs(opts)
		if err != nil {
			return nil, err
		}
		opts = packed
	}

	a.logger.Debug("linking",
		zap.Int("base", len(opts.Base)),
		zap.Int("overlays", len(opts.Overlays)),
		zap.String("manifest", opts.Manifest),
		zap.String("output", opts.Output),
	)

	res, err := a.run(ctx, LinkArgs(opts)...)
	if err != nil {
		return nil, err
	}

	if !res.Success() {
		return res, codes.New(codes.Link,
			"aapt2 link failed (exit code %d) linking %d base and %d overlay inputs with manifest %s into %s: %s",
			res.ExitCode, len(opts.Base), len(opts.Overlays), opts.Manifest, opts.Output, res.Output)
	}

	if _, err := os.Stat(opts.Output); err != nil {
		return res, codes.Wrap(err, codes.Link, "aapt2 link reported success but %s is missing", opts.Output)
	}

	return res, nil
}

// packInputs replaces the base set and each overlay set with one .flata
// archive in opts.WorkDir
func packInputs(opts LinkOptions) (LinkOptions, error) {
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(filepath.Dir(opts.Output), ".link")
	}

	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return opts, codes.Wrap(err, codes.IO, "failed to create %s", opts.WorkDir)
	}

	packed := opts
	packed.Base = nil
	packed.Overlays = nil

	if len(opts.Base) > 0 {
		archive := filepath.Join(opts.WorkDir, "base.flata")
		if err := PackFlata(archive, opts.Base); err != nil {
			return opts, err
		}
		packed.Base = []string{archive}
	}

	for i, overlay := range opts.Overlays {
		if len(overlay) == 0 {
			continue
		}

		archive := filepath.Join(opts.WorkDir, fmt.Sprintf("overlay_%d.flata", i))
		if err := PackFlata(archive, overlay); err != nil {
			return opts, err
		}
		packed.Overlays = append(packed.Overlays, []string{archive})
	}

	return packed, nil
}
