package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/logging"
	"github.com/Norgate-AV/asb/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "asb",
	Short: "Android Skin Builder",
	Long: `Build resource-only Android skin packages with aapt2.

Resources from library archives, the main resource directory and any
additional resource directories are compiled and linked into one .skin
package per configuration.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
}

// logger is replaced once flags are parsed
var logger = zap.NewNop()

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(codes.ExitCode(err))
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-file", "", "Write failed configurations with their full error chain to this file")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func setupLogger(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger = logging.New(logging.Options{
		Verbose: verbose,
		Writer:  cmd.ErrOrStderr(),
		Color:   !color.NoColor,
	})

	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
