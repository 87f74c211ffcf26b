package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/go-multierror"

	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/utils"
)

// Default configuration values
const (
	DefaultResourceDir  = "./src/main/res"
	DefaultManifestPath = "./src/main/AndroidManifest.xml"
	DefaultOutputDir    = "./build/outputs/skin"
	DefaultPackageName  = "com.example.skin"
	DefaultVersionCode  = 1
	DefaultVersionName  = "1.0.0"
	DefaultPlatform     = "android-34"
	DefaultCacheDir     = ".build-cache"

	// FileName is the base name of a project configuration file
	FileName = "asb.config"
)

var (
	// DefaultExcludeDirPrefixes are resource type directories never compiled
	// into a skin
	DefaultExcludeDirPrefixes = []string{"layout"}

	// DefaultExcludeFiles are file names never compiled into a skin
	DefaultExcludeFiles = []string{"styles.xml", "attrs.xml", "strings.xml"}

	packageIDPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{2}$`)
)

// BuildConfig describes one skin package to build
type BuildConfig struct {
	// Main resource directory (res/)
	ResourceDir string `mapstructure:"resourceDir" json:"resourceDir"`

	ManifestPath string `mapstructure:"manifestPath" json:"manifestPath"`

	OutputDir string `mapstructure:"outputDir" json:"outputDir"`

	// Output file name, defaults to <packageName>.skin
	OutputFile string `mapstructure:"outputFile" json:"outputFile,omitempty"`

	PackageName string `mapstructure:"packageName" json:"packageName"`

	// Resource package id such as 0x7f
	PackageID string `mapstructure:"packageId" json:"packageId,omitempty"`

	AndroidJar string `mapstructure:"androidJar" json:"androidJar"`

	// Path to aapt2, found automatically when empty
	Aapt2Path string `mapstructure:"aapt2Path" json:"aapt2Path,omitempty"`

	// Library archives whose resources are linked beneath the main set
	AarFiles []string `mapstructure:"aarFiles" json:"aarFiles,omitempty"`

	// Resource directories overlaid on top of the main set, in order
	AdditionalResourceDirs []string `mapstructure:"additionalResourceDirs" json:"additionalResourceDirs,omitempty"`

	Incremental bool `mapstructure:"incremental" json:"incremental,omitempty"`

	// Cache directory, defaults to <outputDir>/.build-cache
	CacheDir string `mapstructure:"cacheDir" json:"cacheDir,omitempty"`

	// Scratch directory for compiled artifacts, defaults to <outputDir>/compiled
	CompiledDir string `mapstructure:"compiledDir" json:"compiledDir,omitempty"`

	VersionCode int    `mapstructure:"versionCode" json:"versionCode,omitempty"`
	VersionName string `mapstructure:"versionName" json:"versionName,omitempty"`

	StableIDsFile string `mapstructure:"stableIdsFile" json:"stableIdsFile,omitempty"`

	ParallelWorkers int `mapstructure:"parallelWorkers" json:"parallelWorkers,omitempty"`

	SplitDependencyChains bool `mapstructure:"splitDependencyChains" json:"splitDependencyChains,omitempty"`

	FailureLogDir string `mapstructure:"failureLogDir" json:"failureLogDir,omitempty"`

	// Resource type directory prefixes and file names skipped during compile
	ExcludeDirPrefixes []string `mapstructure:"excludeDirPrefixes" json:"excludeDirPrefixes,omitempty"`
	ExcludeFiles       []string `mapstructure:"excludeFiles" json:"excludeFiles,omitempty"`

	// Precompiled maps normalized resource directories to artifacts compiled
	// before this config's build started
	Precompiled map[string][]string `mapstructure:"-" json:"-"`
}

// AppConfig is one entry of a multi-app configuration. Unset fields are
// inherited from the enclosing MultiAppConfig.
type AppConfig struct {
	ResourceDir            string   `mapstructure:"resourceDir"`
	ManifestPath           string   `mapstructure:"manifestPath"`
	PackageName            string   `mapstructure:"packageName"`
	AdditionalResourceDirs []string `mapstructure:"additionalResourceDirs"`
	OutputDir              string   `mapstructure:"outputDir"`
	OutputFile             string   `mapstructure:"outputFile"`
	CompiledDir            string   `mapstructure:"compiledDir"`
	VersionCode            int      `mapstructure:"versionCode"`
	VersionName            string   `mapstructure:"versionName"`
	PackageID              string   `mapstructure:"packageId"`
}

// MultiAppConfig shares common settings between several apps
type MultiAppConfig struct {
	OutputDir             string   `mapstructure:"outputDir"`
	AndroidJar            string   `mapstructure:"androidJar"`
	Aapt2Path             string   `mapstructure:"aapt2Path"`
	AarFiles              []string `mapstructure:"aarFiles"`
	Incremental           bool     `mapstructure:"incremental"`
	CacheDir              string   `mapstructure:"cacheDir"`
	VersionCode           int      `mapstructure:"versionCode"`
	VersionName           string   `mapstructure:"versionName"`
	StableIDsFile         string   `mapstructure:"stableIdsFile"`
	ParallelWorkers       int      `mapstructure:"parallelWorkers"`
	PackageID             string   `mapstructure:"packageId"`
	SplitDependencyChains bool     `mapstructure:"splitDependencyChains"`
	FailureLogDir         string   `mapstructure:"failureLogDir"`
	ExcludeDirPrefixes    []string `mapstructure:"excludeDirPrefixes"`
	ExcludeFiles          []string `mapstructure:"excludeFiles"`

	Apps []AppConfig `mapstructure:"apps"`
}

// BuildConfigs merges the shared settings into each app
func (m *MultiAppConfig) BuildConfigs() []BuildConfig {
	configs := make([]BuildConfig, 0, len(m.Apps))

	for _, app := range m.Apps {
		cfg := BuildConfig{
			ResourceDir:            app.ResourceDir,
			ManifestPath:           app.ManifestPath,
			PackageName:            app.PackageName,
			AdditionalResourceDirs: append([]string(nil), app.AdditionalResourceDirs...),
			OutputDir:              firstNonEmpty(app.OutputDir, m.OutputDir),
			OutputFile:             app.OutputFile,
			CompiledDir:            app.CompiledDir,
			VersionCode:            m.VersionCode,
			VersionName:            firstNonEmpty(app.VersionName, m.VersionName),
			PackageID:              firstNonEmpty(app.PackageID, m.PackageID),
			AndroidJar:             m.AndroidJar,
			Aapt2Path:              m.Aapt2Path,
			AarFiles:               append([]string(nil), m.AarFiles...),
			Incremental:            m.Incremental,
			CacheDir:               m.CacheDir,
			StableIDsFile:          m.StableIDsFile,
			ParallelWorkers:        m.ParallelWorkers,
			SplitDependencyChains:  m.SplitDependencyChains,
			FailureLogDir:          m.FailureLogDir,
			ExcludeDirPrefixes:     cloneStrings(m.ExcludeDirPrefixes),
			ExcludeFiles:           cloneStrings(m.ExcludeFiles),
		}

		if app.VersionCode != 0 {
			cfg.VersionCode = app.VersionCode
		}

		configs = append(configs, cfg)
	}

	return configs
}

// Default returns the configuration of a standard Android project layout
func Default() BuildConfig {
	androidJar := filepath.Join("${ANDROID_HOME}", "platforms", DefaultPlatform, "android.jar")
	if home := os.Getenv("ANDROID_HOME"); home != "" {
		androidJar = filepath.Join(home, "platforms", DefaultPlatform, "android.jar")
	}

	return BuildConfig{
		ResourceDir:  DefaultResourceDir,
		ManifestPath: DefaultManifestPath,
		OutputDir:    DefaultOutputDir,
		PackageName:  DefaultPackageName,
		AndroidJar:   androidJar,
		Incremental:  true,
		VersionCode:  DefaultVersionCode,
		VersionName:  DefaultVersionName,
	}
}

// Clone returns a deep copy of c that shares no slices or maps with it
func (c BuildConfig) Clone() BuildConfig {
	out := c
	out.AarFiles = cloneStrings(c.AarFiles)
	out.AdditionalResourceDirs = cloneStrings(c.AdditionalResourceDirs)
	out.ExcludeDirPrefixes = cloneStrings(c.ExcludeDirPrefixes)
	out.ExcludeFiles = cloneStrings(c.ExcludeFiles)

	if c.Precompiled != nil {
		out.Precompiled = make(map[string][]string, len(c.Precompiled))
		for k, v := range c.Precompiled {
			out.Precompiled[k] = cloneStrings(v)
		}
	}

	return out
}

// ApplyDefaults fills unset exclusion lists
func (c *BuildConfig) ApplyDefaults() {
	if c.ExcludeDirPrefixes == nil {
		c.ExcludeDirPrefixes = cloneStrings(DefaultExcludeDirPrefixes)
	}

	if c.ExcludeFiles == nil {
		c.ExcludeFiles = cloneStrings(DefaultExcludeFiles)
	}
}

// ExpandPaths expands ${VAR} references and a leading ~ in every path
func (c *BuildConfig) ExpandPaths() {
	for _, p := range []*string{
		&c.ResourceDir, &c.ManifestPath, &c.OutputDir, &c.AndroidJar,
		&c.Aapt2Path, &c.CacheDir, &c.CompiledDir, &c.StableIDsFile, &c.FailureLogDir,
	} {
		if *p != "" {
			*p = utils.ExpandPath(*p)
		}
	}

	utils.ExpandPaths(c.AarFiles)
	utils.ExpandPaths(c.AdditionalResourceDirs)
}

// Validate checks that the fields required to build are present
func (c *BuildConfig) Validate() error {
	switch {
	case c.PackageName == "":
		return codes.New(codes.Config, "packageName is required")
	case c.ResourceDir == "":
		return codes.New(codes.Config, "resourceDir is required")
	case c.OutputDir == "":
		return codes.New(codes.Config, "outputDir is required")
	case c.AndroidJar == "":
		return codes.New(codes.Config, "androidJar is required")
	}

	if c.PackageID != "" && !packageIDPattern.MatchString(c.PackageID) {
		return codes.New(codes.Config, "invalid packageId %q: expected 0x followed by two hex digits", c.PackageID)
	}

	if c.VersionCode < 0 {
		return codes.New(codes.Config, "invalid versionCode %d", c.VersionCode)
	}

	if c.ParallelWorkers < 0 {
		return codes.New(codes.Config, "invalid parallelWorkers %d", c.ParallelWorkers)
	}

	return nil
}

// OutputPath returns the path of the package this config produces
func (c *BuildConfig) OutputPath() string {
	name := c.OutputFile
	if name == "" {
		name = c.PackageName + ".skin"
	}

	return filepath.Join(c.OutputDir, name)
}

// CompiledPath returns the scratch directory for compiled artifacts
func (c *BuildConfig) CompiledPath() string {
	if c.CompiledDir != "" {
		return c.CompiledDir
	}

	return filepath.Join(c.OutputDir, "compiled")
}

// CachePath returns the root of the build cache for this config
func (c *BuildConfig) CachePath() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}

	return filepath.Join(c.OutputDir, DefaultCacheDir)
}

// TempPath returns the scratch directory archives are extracted into
func (c *BuildConfig) TempPath() string {
	return filepath.Join(c.OutputDir, ".temp")
}

// Project is every config loaded from one source plus the settings that
// apply to the whole run
type Project struct {
	// Source is the config file the project was loaded from, empty when
	// the built-in defaults were used
	Source  string
	Configs []BuildConfig

	ParallelWorkers       int
	SplitDependencyChains bool
	FailureLogDir         string
}

// Validate validates every config, reporting all failures at once
func (p *Project) Validate() error {
	if len(p.Configs) == 0 {
		return codes.New(codes.Config, "no build configurations found")
	}

	var errs *multierror.Error
	for i := range p.Configs {
		if err := p.Configs[i].Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("config %d (%s): %w", i, p.Configs[i].PackageName, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return codes.Wrap(err, codes.Config, "invalid configuration")
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}

	return append([]string{}, s...)
}
