package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/asb/internal/aapt2"
	"github.com/Norgate-AV/asb/internal/version"
)

var versionCmd = &cobra.Command{
	Use:          "version",
	Short:        "Print the asb and aapt2 versions",
	RunE:         runVersion,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
}

func init() {
	versionCmd.Flags().String("aapt2", "", "Path to aapt2 (default: PATH, then $ANDROID_HOME/build-tools)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "asb %s (%s) %s\n", version.Version, version.Commit, version.BuildTime)

	path, _ := cmd.Flags().GetString("aapt2")

	tool, err := aapt2.New(path, logger)
	if err != nil {
		yellow.Fprintf(w, "aapt2: %v\n", err)
		return nil
	}

	v, err := tool.Version(commandContext(cmd))
	if err != nil {
		yellow.Fprintf(w, "aapt2 (%s): %v\n", tool.Path(), err)
		return nil
	}

	fmt.Fprintf(w, "aapt2 %s ", v)
	faint.Fprintf(w, "(%s)\n", tool.Path())

	return nil
}
