package scheduler

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/builder"
	"github.com/Norgate-AV/asb/internal/cache"
	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/config"
	"github.com/Norgate-AV/asb/internal/graph"
	"github.com/Norgate-AV/asb/internal/utils"
)

// CommonDepsDir is the directory under the cache root holding shared
// directory compiles
const CommonDepsDir = "common-deps"

// sharedCompile is the result of compiling one shared directory with filter
type sharedCompile struct {
	artifacts []string
	filter    builder.Filter
}

// usableBy reports whether cfg may link the shared artifacts instead of
// compiling the directory itself
func (sc sharedCompile) usableBy(cfg config.BuildConfig) bool {
	f := builder.NewFilter(cfg)
	return slices.Equal(f.ExcludeDirPrefixes, sc.filter.ExcludeDirPrefixes) &&
		slices.Equal(f.ExcludeFiles, sc.filter.ExcludeFiles)
}

// compileCommon compiles each shared directory once, serially, with the
// resource filter of the first config referencing it, and returns the
// results keyed by the directory's normalized path. A directory that fails
// to compile is left out and every config compiles it on its own.
func (s *Scheduler) compileCommon(ctx context.Context, cfgs []config.BuildConfig, deps []graph.CommonDependency) map[string]sharedCompile {
	if len(deps) == 0 {
		return nil
	}

	root := filepath.Join(cfgs[0].CachePath(), CommonDepsDir)
	dc := cache.OpenDirCache(root, s.logger)
	defer dc.Close()

	out := make(map[string]sharedCompile, len(deps))

	for _, dep := range deps {
		log := s.logger.With(zap.String("dir", dep.ResourceDir), zap.Ints("configs", dep.Configs))

		if st, err := os.Stat(dep.ResourceDir); err != nil || !st.IsDir() {
			log.Warn("shared resource directory not found")
			continue
		}

		filter := builder.NewFilter(cfgs[dep.Configs[0]])
		dir := filepath.Join(root, "compiled", fmt.Sprintf("%s_%s", utils.SanitizeName(dep.Key), filterKey(filter)))

		if !dc.NeedsRecompile(dep.Key) {
			entry, _ := dc.Lookup(dep.Key)
			if compiledInto(entry.Artifacts, dir) {
				log.Debug("shared resource directory up to date", zap.Int("artifacts", len(entry.Artifacts)))
				out[dep.Key] = sharedCompile{artifacts: entry.Artifacts, filter: filter}
				continue
			}
		}

		if err := os.RemoveAll(dir); err != nil {
			log.Warn("failed to clean shared compile directory", zap.Error(err))
			continue
		}

		artifacts, err := s.compileShared(ctx, dep.ResourceDir, dir, filter)
		if err != nil {
			log.Warn("failed to compile shared resource directory, configs will compile it themselves", zap.Error(err))
			continue
		}

		if err := dc.RecordCompiled(dep.Key, artifacts); err != nil {
			log.Warn("failed to record shared compile", zap.Error(codes.Wrap(err, codes.Cache, "hash failed")))
		}

		log.Info("compiled shared resource directory", zap.Int("artifacts", len(artifacts)))
		out[dep.Key] = sharedCompile{artifacts: artifacts, filter: filter}
	}

	if err := dc.Save(); err != nil {
		s.logger.Warn("failed to save shared compile cache", zap.Error(codes.Wrap(err, codes.Cache, "save failed")))
	}

	return out
}

// compileShared compiles the whole directory in one call when the filter
// leaves it untouched, and the remaining files otherwise
func (s *Scheduler) compileShared(ctx context.Context, dir, outDir string, filter builder.Filter) ([]string, error) {
	all, err := builder.FindResourceFiles(dir, builder.Filter{})
	if err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to scan %s", dir)
	}

	files, err := builder.FindResourceFiles(dir, filter)
	if err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to scan %s", dir)
	}

	if len(files) == len(all) {
		return s.tool.CompileDir(ctx, dir, outDir)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, codes.Wrap(err, codes.IO, "failed to create %s", outDir)
	}

	return s.tool.CompileFiles(ctx, files, outDir)
}

// filterKey names the compile directory of a filter, so artifacts cached
// under another filter are never reused
func filterKey(f builder.Filter) string {
	h := fnv.New32a()
	h.Write([]byte(strings.Join(f.ExcludeDirPrefixes, "\x00")))
	h.Write([]byte{0xff})
	h.Write([]byte(strings.Join(f.ExcludeFiles, "\x00")))

	return fmt.Sprintf("%08x", h.Sum32())
}

func compiledInto(artifacts []string, dir string) bool {
	for _, a := range artifacts {
		if !strings.HasPrefix(a, dir+string(filepath.Separator)) {
			return false
		}
	}

	return true
}
