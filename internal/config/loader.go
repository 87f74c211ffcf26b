package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/Norgate-AV/asb/internal/codes"
)

// flagKeys maps build flags to the viper keys they are bound to
var flagKeys = map[string]string{
	"resource-dir": "cli.resourceDir",
	"manifest":     "cli.manifestPath",
	"output":       "cli.outputDir",
	"package":      "cli.packageName",
	"android-jar":  "cli.androidJar",
	"aar":          "cli.aarFiles",
	"aapt2":        "cli.aapt2Path",
	"incremental":  "cli.incremental",
	"version-code": "cli.versionCode",
	"version-name": "cli.versionName",
	"stable-ids":   "cli.stableIdsFile",
	"workers":      "cli.parallelWorkers",
	"package-id":   "cli.packageId",
	"split-chains": "cli.splitDependencyChains",
}

// Loader handles configuration loading from various sources
type Loader struct {
	logger *zap.Logger

	// globalDir holds the user-level asb/config.* file
	globalDir string
	// workDir is where the search for a project config file starts
	workDir string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}

	globalDir, _ := os.UserConfigDir()
	workDir, _ := os.Getwd()

	return &Loader{logger: logger, globalDir: globalDir, workDir: workDir}
}

// LoadForBuild loads the project for a build, applying any flags the user
// set on cmd to every config
func (l *Loader) LoadForBuild(cmd *cobra.Command) (*Project, error) {
	l.setupViperDefaults()
	l.bindCommandFlags(cmd)

	configFile, _ := cmd.Flags().GetString("config")

	project, err := l.Load(configFile)
	if err != nil {
		return nil, err
	}

	overrides := l.overrides(cmd)
	if overrides.Any() {
		if len(project.Configs) > 1 {
			l.logger.Warn("command line flags override every loaded configuration",
				zap.Int("configs", len(project.Configs)))
		}

		for i := range project.Configs {
			overrides.Apply(&project.Configs[i])
		}
		overrides.ApplyProject(project)
	}

	return l.finish(project)
}

// LoadProject loads and validates the project without any flag overrides
func (l *Loader) LoadProject(path string) (*Project, error) {
	project, err := l.Load(path)
	if err != nil {
		return nil, err
	}

	return l.finish(project)
}

// Load reads the project from path, or from the nearest asb.config.* file
// when path is empty, or falls back to the default config
func (l *Loader) Load(path string) (*Project, error) {
	if path == "" {
		path = FindLocalConfig(l.workDir)
	}

	if path == "" {
		l.logger.Info("no asb.config file found, using the standard Android project layout")
		return &Project{Configs: []BuildConfig{l.withGlobal(Default())}}, nil
	}

	configs, shared, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	for i := range configs {
		configs[i] = l.withGlobal(configs[i])
	}

	project := &Project{Source: path, Configs: configs}
	project.ParallelWorkers = shared.ParallelWorkers
	project.SplitDependencyChains = shared.SplitDependencyChains
	project.FailureLogDir = shared.FailureLogDir

	for _, cfg := range configs {
		if project.ParallelWorkers == 0 {
			project.ParallelWorkers = cfg.ParallelWorkers
		}
		if cfg.SplitDependencyChains {
			project.SplitDependencyChains = true
		}
		if project.FailureLogDir == "" {
			project.FailureLogDir = cfg.FailureLogDir
		}
	}

	return project, nil
}

// finish applies defaults, path expansion and scratch directories, then
// validates the project
func (l *Loader) finish(project *Project) (*Project, error) {
	for i := range project.Configs {
		cfg := &project.Configs[i]
		cfg.ApplyDefaults()
		cfg.ExpandPaths()
	}

	// Configs sharing an output directory must not share a scratch directory
	if len(project.Configs) > 1 {
		for i := range project.Configs {
			cfg := &project.Configs[i]
			if cfg.CompiledDir == "" {
				cfg.CompiledDir = filepath.Join(cfg.OutputDir, fmt.Sprintf("compiled_%d", i))
			}
		}
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	return project, nil
}

// readFile decodes any of the three config shapes: a single object, an
// array of objects, or a multi-app object with an apps list
func (l *Loader) readFile(path string) ([]BuildConfig, *MultiAppConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, codes.Wrap(err, codes.Config, "config file not found: %s", path)
	}

	shared := &MultiAppConfig{}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	// viper cannot read a document whose root is an array
	if ext != "toml" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, codes.Wrap(err, codes.Config, "failed to read %s", path)
		}

		var root any
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, nil, codes.Wrap(err, codes.Config, "failed to parse %s", path)
		}

		if list, ok := root.([]any); ok {
			viper.Set("configs", list)

			var configs []BuildConfig
			if err := viper.UnmarshalKey("configs", &configs); err != nil {
				return nil, nil, codes.Wrap(err, codes.Config, "failed to decode %s", path)
			}

			l.logger.Debug("loaded config array", zap.String("path", path), zap.Int("configs", len(configs)))

			return configs, shared, nil
		}
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, nil, codes.Wrap(err, codes.Config, "failed to parse %s", path)
	}

	if viper.IsSet("apps") {
		if err := viper.Unmarshal(shared); err != nil {
			return nil, nil, codes.Wrap(err, codes.Config, "failed to decode %s", path)
		}

		l.logger.Debug("loaded multi-app config", zap.String("path", path), zap.Int("apps", len(shared.Apps)))

		return shared.BuildConfigs(), shared, nil
	}

	var cfg BuildConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, nil, codes.Wrap(err, codes.Config, "failed to decode %s", path)
	}

	l.logger.Debug("loaded config", zap.String("path", path))

	return []BuildConfig{cfg}, shared, nil
}

// withGlobal fills the machine-specific paths a project config left unset
// from the user-level config
func (l *Loader) withGlobal(cfg BuildConfig) BuildConfig {
	path := FindGlobalConfig(l.globalDir)
	if path == "" {
		return cfg
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		l.logger.Warn("ignoring unreadable global config", zap.String("path", path), zap.Error(err))
		return cfg
	}

	if cfg.AndroidJar == "" {
		cfg.AndroidJar = v.GetString("androidJar")
	}
	if cfg.Aapt2Path == "" {
		cfg.Aapt2Path = v.GetString("aapt2Path")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = v.GetString("cacheDir")
	}

	return cfg
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("cli.incremental", false)
	viper.SetDefault("cli.splitDependencyChains", false)
	viper.SetDefault("cli.parallelWorkers", 0)
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// overrides collects the flags the user explicitly set on cmd
func (l *Loader) overrides(cmd *cobra.Command) Overrides {
	var o Overrides

	set := func(flag string) bool {
		return cmd.Flags().Changed(flag)
	}

	if set("resource-dir") {
		o.ResourceDir = viper.GetString(flagKeys["resource-dir"])
	}
	if set("manifest") {
		o.ManifestPath = viper.GetString(flagKeys["manifest"])
	}
	if set("output") {
		o.OutputDir = viper.GetString(flagKeys["output"])
	}
	if set("package") {
		o.PackageName = viper.GetString(flagKeys["package"])
	}
	if set("android-jar") {
		o.AndroidJar = viper.GetString(flagKeys["android-jar"])
	}
	if set("aar") {
		o.AarFiles = viper.GetStringSlice(flagKeys["aar"])
	}
	if set("aapt2") {
		o.Aapt2Path = viper.GetString(flagKeys["aapt2"])
	}
	if set("incremental") {
		o.Incremental = viper.GetBool(flagKeys["incremental"])
	}
	if set("version-code") {
		o.VersionCode = viper.GetInt(flagKeys["version-code"])
	}
	if set("version-name") {
		o.VersionName = viper.GetString(flagKeys["version-name"])
	}
	if set("stable-ids") {
		o.StableIDsFile = viper.GetString(flagKeys["stable-ids"])
	}
	if set("workers") {
		o.ParallelWorkers = viper.GetInt(flagKeys["workers"])
	}
	if set("package-id") {
		o.PackageID = viper.GetString(flagKeys["package-id"])
	}
	if set("split-chains") {
		o.SplitDependencyChains = viper.GetBool(flagKeys["split-chains"])
	}

	return o
}
