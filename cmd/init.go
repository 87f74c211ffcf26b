package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/asb/internal/builder"
	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/config"
)

var initCmd = &cobra.Command{
	Use:          "init",
	Short:        "Create a new skin project",
	Long:         `Write a config file, a manifest and sample resources into a directory. Existing files are never overwritten.`,
	RunE:         runInit,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
}

func init() {
	initCmd.Flags().StringP("dir", "d", ".", "Project directory")
	initCmd.Flags().StringP("package", "p", config.DefaultPackageName, "Package name")
}

const sampleColors = `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <color name="colorPrimary">#6200EE</color>
    <color name="colorPrimaryDark">#3700B3</color>
    <color name="colorAccent">#03DAC5</color>
    <color name="ic_launcher_background">#FFFFFF</color>
    <color name="ic_launcher_foreground">#6200EE</color>
</resources>
`

const sampleStrings = `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string name="skin_name">Example Skin</string>
</resources>
`

const sampleAdaptiveIcon = `<?xml version="1.0" encoding="utf-8"?>
<adaptive-icon xmlns:android="http://schemas.android.com/apk/res/android">
    <background android:drawable="@color/ic_launcher_background" />
    <foreground android:drawable="@color/ic_launcher_foreground" />
</adaptive-icon>
`

func runInit(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	pkg, _ := cmd.Flags().GetString("package")

	cfg := config.BuildConfig{
		ResourceDir:  config.DefaultResourceDir,
		ManifestPath: config.DefaultManifestPath,
		OutputDir:    config.DefaultOutputDir,
		PackageName:  pkg,
		AndroidJar:   filepath.ToSlash(filepath.Join("${ANDROID_HOME}", "platforms", config.DefaultPlatform, "android.jar")),
		Incremental:  true,
		VersionCode:  config.DefaultVersionCode,
		VersionName:  config.DefaultVersionName,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	res := filepath.Join(dir, config.DefaultResourceDir)
	files := []struct {
		path    string
		content []byte
	}{
		{filepath.Join(dir, config.FileName+".json"), append(data, '\n')},
		{filepath.Join(dir, config.DefaultManifestPath), nil},
		{filepath.Join(res, "values", "colors.xml"), []byte(sampleColors)},
		{filepath.Join(res, "values", "strings.xml"), []byte(sampleStrings)},
		{filepath.Join(res, "mipmap-anydpi-v26", "ic_launcher.xml"), []byte(sampleAdaptiveIcon)},
	}

	w := cmd.OutOrStdout()

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			faint.Fprintf(w, "  exists   %s\n", f.path)
			continue
		}

		var err error
		if f.content == nil {
			err = builder.WriteManifest(f.path, pkg)
		} else {
			err = writeNew(f.path, f.content)
		}
		if err != nil {
			return codes.Wrap(err, codes.IO, "failed to write %s", f.path)
		}

		green.Fprint(w, "  created  ")
		fmt.Fprintln(w, f.path)
	}

	fmt.Fprintf(w, "\nRun 'asb build' in %s to build %s\n", dir, pkg)

	return nil
}

func writeNew(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, content, 0o644)
}
