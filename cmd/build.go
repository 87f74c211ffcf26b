package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/aapt2"
	"github.com/Norgate-AV/asb/internal/config"
	"github.com/Norgate-AV/asb/internal/logging"
	"github.com/Norgate-AV/asb/internal/scheduler"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build skin packages",
	Long: `Compile and link every configuration in the project config file.

Without --config the nearest asb.config.{json,yml,yaml,toml} found walking
up from the working directory is used, falling back to a standard Android
project layout. Flags override the matching value of every configuration.`,
	RunE:         runBuild,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
}

var errBuildFailed = errors.New("one or more configurations failed to build")

// newTool creates the resource compiler, replaced in tests
var newTool = func(path string, logger *zap.Logger) (scheduler.Tool, error) {
	tool, err := aapt2.New(path, logger)
	if err != nil {
		return nil, err
	}

	return tool, nil
}

func init() {
	f := buildCmd.Flags()
	f.StringP("config", "c", "", "Config file (default: nearest asb.config.*)")
	f.StringP("resource-dir", "r", "", "Main resource directory")
	f.StringP("manifest", "m", "", "AndroidManifest.xml path")
	f.StringP("output", "o", "", "Output directory")
	f.StringP("package", "p", "", "Package name")
	f.StringP("android-jar", "a", "", "Path to android.jar")
	f.StringArray("aar", nil, "Library archive to include (repeatable)")
	f.String("aapt2", "", "Path to aapt2 (default: PATH, then $ANDROID_HOME/build-tools)")
	f.Bool("incremental", false, "Only recompile changed resources")
	f.Int("version-code", 0, "Version code")
	f.String("version-name", "", "Version name")
	f.String("stable-ids", "", "Stable resource ids file")
	f.Int("workers", 0, "Configurations built in parallel (default: number of CPUs)")
	f.String("package-id", "", "Resource package id, e.g. 0x7f")
	f.Bool("split-chains", false, "Build unrelated dependency chains in parallel")
}

func runBuild(cmd *cobra.Command, args []string) error {
	project, err := config.NewLoader(logger).LoadForBuild(cmd)
	if err != nil {
		return err
	}

	log := logger
	failureLog := failureLogPath(cmd, project)
	if failureLog != "" {
		var closeLog func() error
		log, closeLog = logging.WithFailureLog(logger, failureLog)
		defer closeLog()
	}

	if project.Source != "" {
		log.Debug("loaded config", zap.String("file", project.Source), zap.Int("configs", len(project.Configs)))
	}

	tool, err := newTool(project.Configs[0].Aapt2Path, log)
	if err != nil {
		return err
	}

	s := scheduler.New(tool, scheduler.Options{
		Workers:               project.ParallelWorkers,
		SplitDependencyChains: project.SplitDependencyChains,
	}, log)

	summary, err := s.Run(commandContext(cmd), project.Configs)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), summary)

	if !summary.Success() {
		if failureLog != "" {
			printFailureLog(cmd.OutOrStdout(), failureLog)
		}
		return errBuildFailed
	}

	return nil
}

// failureLogPath returns --log-file, or a timestamped file in the
// configured failure log directory
func failureLogPath(cmd *cobra.Command, project *config.Project) string {
	if f := cmd.Flag("log-file"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}

	if project.FailureLogDir != "" {
		return logging.FailureLogPath(project.FailureLogDir, time.Now())
	}

	return ""
}
