// Package builder runs the compile and link pipeline for one skin package.
//
// A build gathers the resource directories of a configuration in priority
// order (extracted library archives, the main directory, then additional
// directories), compiles each one to aapt2 artifacts, and links them into a
// single package with the main set as base and higher priority sets as
// overlays.
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/aapt2"
	"github.com/Norgate-AV/asb/internal/aar"
	"github.com/Norgate-AV/asb/internal/cache"
	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/config"
	"github.com/Norgate-AV/asb/internal/priority"
	"github.com/Norgate-AV/asb/internal/utils"
)

// Tool compiles and links resources. *aapt2.Aapt2 is the production
// implementation.
type Tool interface {
	CompileFiles(ctx context.Context, files []string, outDir string) ([]string, error)
	Link(ctx context.Context, opts aapt2.LinkOptions) (*aapt2.Result, error)
}

// Builder builds the package described by one configuration
type Builder struct {
	cfg    config.BuildConfig
	index  int
	tool   Tool
	filter Filter
	logger *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithIndex sets the configuration index reported in the result
func WithIndex(i int) Option {
	return func(b *Builder) {
		b.index = i
	}
}

// New creates a builder for cfg. The builder keeps its own copy of cfg.
func New(cfg config.BuildConfig, tool Tool, logger *zap.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Builder{
		cfg:    cfg.Clone(),
		tool:   tool,
		filter: NewFilter(cfg),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.logger = logger.With(zap.String("package", cfg.PackageName), zap.Int("config", b.index))

	return b
}

type resourceDir struct {
	path     string
	name     string
	priority priority.Priority
}

// resourceDirs lists every directory of the build, lowest priority first
func (b *Builder) resourceDirs(archives []*aar.Info) []resourceDir {
	var dirs []resourceDir

	for i, info := range archives {
		if info.ResourceDir == "" {
			b.logger.Debug("archive has no resources", zap.String("aar", info.Path))
			continue
		}

		dirs = append(dirs, resourceDir{
			path:     info.ResourceDir,
			name:     fmt.Sprintf("aar_%d", i),
			priority: priority.Library(i),
		})
	}

	dirs = append(dirs, resourceDir{
		path:     b.cfg.ResourceDir,
		name:     "main",
		priority: priority.Main(),
	})

	for i, dir := range b.cfg.AdditionalResourceDirs {
		dirs = append(dirs, resourceDir{
			path:     dir,
			name:     fmt.Sprintf("additional_%d", i),
			priority: priority.Additional(i),
		})
	}

	return dirs
}

// Build compiles and links the package. It never panics on tool failure;
// every failure is reported in the returned result.
func (b *Builder) Build(ctx context.Context) *BuildResult {
	start := time.Now()
	res := &BuildResult{Index: b.index, PackageName: b.cfg.PackageName}
	defer func() {
		res.Duration = time.Since(start)
	}()

	b.logger.Info("building skin", zap.String("resources", b.cfg.ResourceDir))

	compiledDir := b.cfg.CompiledPath()
	for _, dir := range []string{compiledDir, b.cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res.fail(codes.Wrap(err, codes.IO, "failed to create %s", dir))
		}
	}

	var fc *cache.FileCache
	if b.cfg.Incremental {
		fc = cache.OpenFileCache(filepath.Join(b.cfg.CachePath(), b.cfg.PackageName), b.logger)
		defer fc.Close()
	}

	archives, err := aar.ExtractAll(b.cfg.AarFiles, b.cfg.TempPath())
	if err != nil {
		return res.fail(err)
	}
	defer aar.Cleanup(archives)

	var (
		sets    []priority.Set
		present []string
		errs    *multierror.Error
	)

	for _, dir := range b.resourceDirs(archives) {
		if st, err := os.Stat(dir.path); err != nil || !st.IsDir() {
			b.logger.Warn("resource directory not found", zap.String("dir", dir.path), zap.Stringer("priority", dir.priority))
			res.Missing = append(res.Missing, dir.path)
			continue
		}
		present = append(present, dir.path)

		if artifacts, ok := b.cfg.Precompiled[utils.NormalizePath(dir.path)]; ok && len(artifacts) > 0 {
			b.logger.Debug("using precompiled artifacts", zap.String("dir", dir.path), zap.Int("artifacts", len(artifacts)))
			sets = append(sets, priority.Set{Dir: dir.path, Priority: dir.priority, Artifacts: artifacts})
			res.Reused += len(artifacts)
			continue
		}

		out, err := b.compileDir(ctx, dir, fc)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		res.Compiled += out.compiled
		res.Reused += out.reused
		if len(out.artifacts) > 0 {
			sets = append(sets, priority.Set{Dir: dir.path, Priority: dir.priority, Artifacts: out.artifacts})
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return res.fail(codes.Wrap(err, codes.Compile, "failed to compile resources for %s", b.cfg.PackageName))
	}

	tracker := priority.NewTracker()
	for _, set := range sets {
		for _, artifact := range set.Artifacts {
			tracker.Add(priority.Resource{
				Source:   set.Dir,
				Artifact: artifact,
				Priority: set.Priority,
				Path:     priority.ArtifactPath(artifact),
			})
		}
	}
	tracker.Log(b.logger)
	_, res.Overrides = tracker.Stats()

	base, overlays := priority.Classify(sets)
	if len(base) == 0 && len(overlays) == 0 {
		return res.fail(b.noResourcesError(res.Missing))
	}

	if fc != nil {
		if err := fc.Save(); err != nil {
			b.logger.Warn("failed to save build cache", zap.Error(codes.Wrap(err, codes.Cache, "save failed")))
		}
	}

	manifest, generated, err := b.manifest(compiledDir)
	if err != nil {
		return res.fail(err)
	}
	if generated {
		defer os.Remove(manifest)
	}

	opts := aapt2.LinkOptions{
		Manifest:    manifest,
		AndroidJar:  b.cfg.AndroidJar,
		Output:      b.cfg.OutputPath(),
		Base:        base,
		Overlays:    overlays,
		PackageName: b.cfg.PackageName,
		VersionCode: b.cfg.VersionCode,
		VersionName: b.cfg.VersionName,
		StableIDs:   b.cfg.StableIDsFile,
		PackageID:   b.cfg.PackageID,
		WorkDir:     filepath.Join(compiledDir, "link"),
	}

	if HasAdaptiveIcon(present) {
		b.logger.Debug("adaptive icon found, raising min sdk", zap.Int("minSdk", AdaptiveIconMinSdk))
		opts.MinSdk = AdaptiveIconMinSdk
	}

	if _, err := b.tool.Link(ctx, opts); err != nil {
		return res.fail(err)
	}

	res.Success = true
	res.OutputPath = opts.Output

	b.logger.Info("skin built",
		zap.String("output", res.OutputPath),
		zap.Int("compiled", res.Compiled),
		zap.Int("reused", res.Reused),
		zap.Duration("duration", time.Since(start)),
	)

	return res
}

// manifest returns the manifest to link with. When the configured one does
// not exist a minimal manifest is written into dir and generated is true.
func (b *Builder) manifest(dir string) (path string, generated bool, err error) {
	if b.cfg.ManifestPath != "" {
		if _, err := os.Stat(b.cfg.ManifestPath); err == nil {
			return b.cfg.ManifestPath, false, nil
		}
	}

	path = filepath.Join(dir, "AndroidManifest.xml")
	b.logger.Debug("manifest not found, generating one", zap.String("configured", b.cfg.ManifestPath), zap.String("path", path))

	if err := WriteManifest(path, b.cfg.PackageName); err != nil {
		return "", false, codes.Wrap(err, codes.IO, "failed to write manifest %s", path)
	}

	return path, true, nil
}

func (b *Builder) noResourcesError(missing []string) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "no resources were compiled for %s", b.cfg.PackageName)

	if len(missing) > 0 {
		sb.WriteString("\n\nMissing resource directories:")
		for _, dir := range missing {
			fmt.Fprintf(&sb, "\n  - %s", dir)
		}
	}

	sb.WriteString("\n\nPossible solutions:")
	sb.WriteString("\n  - run 'asb init' to create a project with sample resources")
	sb.WriteString("\n  - point --resource-dir at an existing res directory")
	sb.WriteString("\n  - check resourceDir and additionalResourceDirs in your config file")

	return codes.New(codes.IO, "%s", sb.String())
}
