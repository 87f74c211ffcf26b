package config

// Overrides holds command line values that replace config file values.
// Zero values leave the config untouched.
type Overrides struct {
	ResourceDir           string
	ManifestPath          string
	OutputDir             string
	PackageName           string
	AndroidJar            string
	AarFiles              []string
	Aapt2Path             string
	Incremental           bool
	VersionCode           int
	VersionName           string
	StableIDsFile         string
	ParallelWorkers       int
	PackageID             string
	SplitDependencyChains bool
}

// Any reports whether any override is set
func (o Overrides) Any() bool {
	return o.ResourceDir != "" || o.ManifestPath != "" || o.OutputDir != "" ||
		o.PackageName != "" || o.AndroidJar != "" || len(o.AarFiles) > 0 ||
		o.Aapt2Path != "" || o.Incremental || o.VersionCode != 0 ||
		o.VersionName != "" || o.StableIDsFile != "" || o.ParallelWorkers != 0 ||
		o.PackageID != "" || o.SplitDependencyChains
}

// Apply writes the set overrides into cfg
func (o Overrides) Apply(cfg *BuildConfig) {
	setString(&cfg.ResourceDir, o.ResourceDir)
	setString(&cfg.ManifestPath, o.ManifestPath)
	setString(&cfg.OutputDir, o.OutputDir)
	setString(&cfg.PackageName, o.PackageName)
	setString(&cfg.AndroidJar, o.AndroidJar)
	setString(&cfg.Aapt2Path, o.Aapt2Path)
	setString(&cfg.VersionName, o.VersionName)
	setString(&cfg.StableIDsFile, o.StableIDsFile)
	setString(&cfg.PackageID, o.PackageID)

	if len(o.AarFiles) > 0 {
		cfg.AarFiles = cloneStrings(o.AarFiles)
	}

	if o.Incremental {
		cfg.Incremental = true
	}

	if o.VersionCode != 0 {
		cfg.VersionCode = o.VersionCode
	}

	if o.ParallelWorkers != 0 {
		cfg.ParallelWorkers = o.ParallelWorkers
	}

	if o.SplitDependencyChains {
		cfg.SplitDependencyChains = true
	}
}

// ApplyProject writes the run-wide overrides into p
func (o Overrides) ApplyProject(p *Project) {
	if o.ParallelWorkers != 0 {
		p.ParallelWorkers = o.ParallelWorkers
	}

	if o.SplitDependencyChains {
		p.SplitDependencyChains = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
