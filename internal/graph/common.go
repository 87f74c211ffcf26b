package graph

import (
	"github.com/Norgate-AV/asb/internal/config"
	"github.com/Norgate-AV/asb/internal/utils"
)

// CommonDependency is an additional resource directory referenced by two or
// more configurations, compiled once and shared between them
type CommonDependency struct {
	// ResourceDir is the directory as written in the configuration
	ResourceDir string
	// Key is the normalized identity of ResourceDir
	Key string
	// Configs lists the indices of the configurations that reference it
	Configs []int
}

// ExtractCommon finds the additional resource directories referenced by at
// least two configurations, in order of first reference
func ExtractCommon(configs []config.BuildConfig) []CommonDependency {
	if len(configs) < 2 {
		return nil
	}

	mainForm := make(map[string]string)
	for i := range configs {
		key := utils.NormalizePath(configs[i].ResourceDir)
		if _, ok := mainForm[key]; !ok {
			mainForm[key] = configs[i].ResourceDir
		}
	}

	var order []string
	refs := make(map[string]*CommonDependency)

	for i := range configs {
		for _, dir := range configs[i].AdditionalResourceDirs {
			key := utils.NormalizePath(dir)

			dep, ok := refs[key]
			if !ok {
				form := dir
				if m, ok := mainForm[key]; ok {
					form = m
				}
				dep = &CommonDependency{ResourceDir: form, Key: key}
				refs[key] = dep
				order = append(order, key)
			}

			if n := len(dep.Configs); n == 0 || dep.Configs[n-1] != i {
				dep.Configs = append(dep.Configs, i)
			}
		}
	}

	var common []CommonDependency
	for _, key := range order {
		if dep := refs[key]; len(dep.Configs) >= 2 {
			common = append(common, *dep)
		}
	}

	return common
}
