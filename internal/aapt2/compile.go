package aapt2

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/asb/internal/cache"
	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/utils"
)

// CompileShardSize is the number of files passed to one aapt2 compile
// process
const CompileShardSize = 16

// CompileDir compiles every resource in dir into outDir with a single
// aapt2 process and returns the produced artifacts, sorted
func (a *Aapt2) CompileDir(ctx context.Context, dir, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to create %s", outDir)
	}

	res, err := a.run(ctx, "compile", "--dir", dir, "-o", outDir)
	if err != nil {
		return nil, err
	}

	if !res.Success() {
		return nil, codes.New(codes.Compile, "aapt2 compile --dir %s failed (exit code %d): %s", dir, res.ExitCode, res.Output)
	}

	artifacts, err := cache.CollectArtifacts(outDir)
	if err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to collect artifacts from %s", outDir)
	}

	a.logger.Debug("compiled directory", zap.String("dir", dir), zap.Int("artifacts", len(artifacts)))

	return artifacts, nil
}

// CompileFiles compiles files into outDir and returns their artifacts in
// the same order. Files are split into shards compiled by concurrent aapt2
// processes. Every failing shard and every artifact that did not appear
// under its expected name is reported in the returned error.
func (a *Aapt2) CompileFiles(ctx context.Context, files []string, outDir string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to create %s", outDir)
	}

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU() * 2)

	for _, shard := range utils.ShardStrings(files, CompileShardSize) {
		g.Go(func() error {
			args := append([]string{"compile", "-o", outDir}, shard...)

			res, err := a.run(ctx, args...)
			if err == nil && !res.Success() {
				err = fmt.Errorf("aapt2 compile failed (exit code %d) for %v: %s", res.ExitCode, shard, res.Output)
			}

			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		return nil, codes.Wrap(err, codes.Compile, "failed to compile %d resource files", len(files))
	}

	artifacts := make([]string, len(files))
	for i, file := range files {
		artifact := filepath.Join(outDir, FlatName(file))
		if _, err := os.Stat(artifact); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: expected artifact %s was not produced", file, artifact))
			continue
		}
		artifacts[i] = artifact
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, codes.Wrap(err, codes.Compile, "aapt2 output does not match expected artifact names")
	}

	a.logger.Debug("compiled files", zap.Int("files", len(files)), zap.String("out", outDir))

	return artifacts, nil
}
