package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/cache"
	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/config"
	"github.com/Norgate-AV/asb/internal/scheduler"
)

var cleanCmd = &cobra.Command{
	Use:          "clean",
	Short:        "Remove build caches and intermediate files",
	Long:         `Remove compiled artifacts, extracted archives and the build cache of every configuration. Built .skin packages are kept.`,
	RunE:         runClean,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
}

func init() {
	cleanCmd.Flags().StringP("config", "c", "", "Config file (default: nearest asb.config.*)")
	cleanCmd.Flags().StringP("output", "o", "", "Output directory to clean instead of the configured ones")
}

func runClean(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	output, _ := cmd.Flags().GetString("output")

	project, err := config.NewLoader(logger).LoadProject(configFile)
	if err != nil {
		return err
	}

	if output != "" {
		for i := range project.Configs {
			project.Configs[i].OutputDir = output
			project.Configs[i].CompiledDir = ""
			project.Configs[i].CacheDir = ""
		}
	}

	targets, err := cleanTargets(project.Configs)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	removed := 0

	for _, target := range targets {
		if _, err := os.Stat(target); err != nil {
			continue
		}

		files, size, err := cache.DirSize(target)
		if err != nil {
			logger.Debug("failed to measure directory", zap.String("dir", target), zap.Error(err))
		}

		if err := os.RemoveAll(target); err != nil {
			return codes.Wrap(err, codes.IO, "failed to remove %s", target)
		}

		removed++
		fmt.Fprintf(w, "Removed %s ", target)
		faint.Fprintf(w, "(%d files, %s)\n", files, humanize.Bytes(uint64(size)))
	}

	if removed == 0 {
		fmt.Fprintln(w, "Nothing to clean")
	}

	return nil
}

// scratchDirs are the entries asb creates inside a compiled directory
var scratchDirs = []string{"main", "aar_*", "additional_*", "link", "AndroidManifest.xml"}

// cleanTargets lists what asb created for every config, sorted and without
// duplicates. Directories the user configured (cacheDir, compiledDir) are
// never removed themselves, only the entries asb writes into them.
func cleanTargets(configs []config.BuildConfig) ([]string, error) {
	seen := make(map[string]bool)
	var targets []string

	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			targets = append(targets, p)
		}
	}

	glob := func(pattern string) error {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return err
		}
		for _, m := range matches {
			add(m)
		}
		return nil
	}

	for i := range configs {
		cfg := &configs[i]

		matches, err := filepath.Glob(filepath.Join(cfg.OutputDir, "compiled*"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if isDefaultCompiledDir(filepath.Base(m)) {
				add(m)
			}
		}

		if cfg.CompiledDir != "" && !isDefaultCompiledPath(cfg) {
			for _, name := range scratchDirs {
				if err := glob(filepath.Join(cfg.CompiledDir, name)); err != nil {
					return nil, err
				}
			}
		}

		add(cfg.TempPath())

		if cfg.CacheDir == "" {
			add(cfg.CachePath())
		} else {
			add(filepath.Join(cfg.CacheDir, cfg.PackageName))
			add(filepath.Join(cfg.CacheDir, scheduler.CommonDepsDir))
		}
	}

	sort.Strings(targets)

	return targets, nil
}

// isDefaultCompiledDir reports whether name is compiled or compiled_<n>,
// the scratch directories asb creates in an output directory
func isDefaultCompiledDir(name string) bool {
	if name == "compiled" {
		return true
	}

	n, ok := strings.CutPrefix(name, "compiled_")
	if !ok || n == "" {
		return false
	}

	for _, c := range n {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

func isDefaultCompiledPath(cfg *config.BuildConfig) bool {
	return filepath.Clean(filepath.Dir(cfg.CompiledDir)) == filepath.Clean(cfg.OutputDir) &&
		isDefaultCompiledDir(filepath.Base(cfg.CompiledDir))
}
