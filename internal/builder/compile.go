package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/cache"
	"github.com/Norgate-AV/asb/internal/codes"
)

// dirOutput is what compiling one resource directory produced
type dirOutput struct {
	artifacts []string
	compiled  int
	reused    int
}

// compileDir compiles the resource files of dir into its scratch directory.
// Without a cache the scratch directory is rebuilt from nothing. With one,
// only files whose content changed are handed to the tool.
func (b *Builder) compileDir(ctx context.Context, dir resourceDir, fc *cache.FileCache) (dirOutput, error) {
	files, err := FindResourceFiles(dir.path, b.filter)
	if err != nil {
		return dirOutput{}, codes.Wrap(err, codes.IO, "failed to scan %s", dir.path)
	}

	outDir := filepath.Join(b.cfg.CompiledPath(), dir.name)

	if fc == nil {
		if err := os.RemoveAll(outDir); err != nil {
			return dirOutput{}, codes.Wrap(err, codes.IO, "failed to clean %s", outDir)
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return dirOutput{}, codes.Wrap(err, codes.IO, "failed to create %s", outDir)
	}

	b.logger.Debug("compiling resource directory",
		zap.String("dir", dir.path),
		zap.Stringer("priority", dir.priority),
		zap.Int("files", len(files)),
	)

	if fc == nil {
		if len(files) == 0 {
			return dirOutput{}, nil
		}

		artifacts, err := b.tool.CompileFiles(ctx, files, outDir)
		if err != nil {
			return dirOutput{}, compileError(dir.path, err)
		}

		return dirOutput{artifacts: artifacts, compiled: len(files)}, nil
	}

	var stale, fresh []string
	reused := make(map[string]string)

	for _, f := range files {
		if fc.NeedsRecompile(f) {
			stale = append(stale, f)
			continue
		}

		entry, _ := fc.Lookup(f)
		reused[f] = entry.Artifact
	}

	if len(stale) > 0 {
		fresh, err = b.tool.CompileFiles(ctx, stale, outDir)
		if err != nil {
			return dirOutput{}, compileError(dir.path, err)
		}

		for i, f := range stale {
			b.record(fc, f, fresh[i])
		}
	}

	artifacts := append([]string(nil), fresh...)
	for f, artifact := range reused {
		b.record(fc, f, artifact)
		artifacts = append(artifacts, artifact)
	}

	slices.Sort(artifacts)
	artifacts = slices.Compact(artifacts)

	b.logger.Debug("incremental compile",
		zap.String("dir", dir.path),
		zap.Int("compiled", len(stale)),
		zap.Int("reused", len(reused)),
	)

	return dirOutput{artifacts: artifacts, compiled: len(stale), reused: len(reused)}, nil
}

func (b *Builder) record(fc *cache.FileCache, source, artifact string) {
	if err := fc.RecordCompiled(source, artifact); err != nil {
		b.logger.Warn("failed to record cache entry",
			zap.String("file", source),
			zap.Error(codes.Wrap(err, codes.Cache, "hash failed")),
		)
	}
}

func compileError(dir string, err error) error {
	if _, ok := codes.Of(err); ok {
		return fmt.Errorf("%s: %w", dir, err)
	}

	return codes.Wrap(err, codes.Compile, "failed to compile %s", dir)
}
