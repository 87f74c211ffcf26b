package priority

import (
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Resource is one compiled resource file and where it came from.
type Resource struct {
	Source   string
	Artifact string
	Priority Priority
	// Path is the resource path relative to its resource directory, e.g.
	// "drawable/icon.png", used to detect the same resource defined twice
	Path string
}

// Override records that Winner replaced Loser for the same resource path.
type Override struct {
	Path   string
	Loser  Resource
	Winner Resource
}

// Tracker keeps the highest priority definition of every resource path.
type Tracker struct {
	resources map[string]Resource
	overrides []Override
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{resources: make(map[string]Resource)}
}

// Add registers r and reports whether it replaced an earlier definition.
// Equal priorities keep the first definition.
func (t *Tracker) Add(r Resource) bool {
	existing, ok := t.resources[r.Path]
	if !ok {
		t.resources[r.Path] = r
		return false
	}

	switch existing.Priority.Compare(r.Priority) {
	case -1:
		t.overrides = append(t.overrides, Override{Path: r.Path, Loser: existing, Winner: r})
		t.resources[r.Path] = r
		return true
	case 1:
		t.overrides = append(t.overrides, Override{Path: r.Path, Loser: r, Winner: existing})
	}

	return false
}

// Artifacts returns the winning artifacts, lowest priority first
func (t *Tracker) Artifacts() []string {
	resources := make([]Resource, 0, len(t.resources))
	for _, r := range t.resources {
		resources = append(resources, r)
	}

	sort.Slice(resources, func(i, j int) bool {
		if c := resources[i].Priority.Compare(resources[j].Priority); c != 0 {
			return c < 0
		}
		return resources[i].Path < resources[j].Path
	})

	out := make([]string, len(resources))
	for i, r := range resources {
		out[i] = r.Artifact
	}

	return out
}

// Overrides returns every recorded override in the order they were seen
func (t *Tracker) Overrides() []Override {
	return t.overrides
}

// Stats returns the number of distinct resources and recorded overrides
func (t *Tracker) Stats() (int, int) {
	return len(t.resources), len(t.overrides)
}

// Log writes the recorded overrides at debug level
func (t *Tracker) Log(logger *zap.Logger) {
	if len(t.overrides) == 0 {
		logger.Debug("no resource overrides")
		return
	}

	logger.Debug("resource overrides resolved", zap.Int("count", len(t.overrides)))
	for _, o := range t.overrides {
		logger.Debug("resource overridden",
			zap.String("path", o.Path),
			zap.String("winner", o.Winner.Source),
			zap.Stringer("from", o.Loser.Priority),
			zap.Stringer("to", o.Winner.Priority),
		)
	}
}

// ArtifactPath recovers the resource path an aapt2 artifact was compiled
// from, e.g. "drawable_icon.png.flat" is "drawable/icon.png". Values files
// lose their extension ("values_colors.arsc.flat" is "values/colors"). Any
// API level qualifier ("-v21") is dropped from the type directory so that
// drawable-v21/icon.xml and drawable/icon.xml are treated as the same path.
func ArtifactPath(artifact string) string {
	name := filepath.Base(artifact)
	if strings.HasSuffix(name, ".arsc.flat") {
		name = strings.TrimSuffix(name, ".arsc.flat")
	} else {
		name = strings.TrimSuffix(name, ".flat")
	}

	typeDir, file, ok := strings.Cut(name, "_")
	if !ok {
		return name
	}

	return stripVersionQualifier(typeDir) + "/" + file
}

func stripVersionQualifier(typeDir string) string {
	i := strings.LastIndex(typeDir, "-v")
	if i < 0 || i+2 == len(typeDir) {
		return typeDir
	}

	for _, c := range typeDir[i+2:] {
		if c < '0' || c > '9' {
			return typeDir
		}
	}

	return typeDir[:i]
}
