// Package priority models Android's resource override order.
//
// Library resources (extracted from dependency archives) have the lowest
// priority, the main source set sits in the middle, and additional resource
// directories (flavors, build types) win over everything. Within the Library
// and Additional tiers, entries are ordered by their declaration index.
package priority

import (
	"fmt"
	"sort"
)

type kind int

const (
	kindLibrary kind = iota
	kindMain
	kindAdditional
)

// tierSize must exceed any realistic number of directories in one tier
const tierSize = 1000

// Priority is the override priority of one resource directory.
type Priority struct {
	kind  kind
	index int
}

// Library returns the priority of the i-th dependency archive's resources
func Library(i int) Priority {
	return Priority{kind: kindLibrary, index: i}
}

// Main returns the priority of a configuration's main resource directory
func Main() Priority {
	return Priority{kind: kindMain}
}

// Additional returns the priority of the i-th additional resource directory
func Additional(i int) Priority {
	return Priority{kind: kindAdditional, index: i}
}

// IsLibrary reports whether p is a Library priority
func (p Priority) IsLibrary() bool { return p.kind == kindLibrary }

// IsMain reports whether p is the Main priority
func (p Priority) IsMain() bool { return p.kind == kindMain }

// IsAdditional reports whether p is an Additional priority
func (p Priority) IsAdditional() bool { return p.kind == kindAdditional }

// Index returns the declaration index for Library and Additional priorities
func (p Priority) Index() int { return p.index }

func (p Priority) key() int {
	switch p.kind {
	case kindLibrary:
		return p.index
	case kindMain:
		return tierSize
	default:
		return 2*tierSize + p.index
	}
}

// Compare returns -1, 0 or +1 as p is lower than, equal to, or higher than q
func (p Priority) Compare(q Priority) int {
	switch a, b := p.key(), q.key(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether p is overridden by q
func (p Priority) Less(q Priority) bool {
	return p.Compare(q) < 0
}

func (p Priority) String() string {
	switch p.kind {
	case kindLibrary:
		return fmt.Sprintf("Library(%d)", p.index)
	case kindMain:
		return "Main"
	default:
		return fmt.Sprintf("Additional(%d)", p.index)
	}
}

// Set is the compiled output of one resource directory.
type Set struct {
	Dir       string
	Priority  Priority
	Artifacts []string
}

// Classify orders sets by priority and splits them into link inputs. When
// any Library set exists, all Library artifacts form the base and every other
// set becomes its own overlay. Otherwise Main is the base and each Additional
// set is an overlay. Overlays are returned lowest priority first, so later
// overlays override earlier ones.
func Classify(sets []Set) (base []string, overlays [][]string) {
	sorted := make([]Set, len(sets))
	copy(sorted, sets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Less(sorted[j].Priority)
	})

	hasLibrary := false
	for _, s := range sorted {
		if s.Priority.IsLibrary() {
			hasLibrary = true
			break
		}
	}

	for _, s := range sorted {
		switch {
		case s.Priority.IsLibrary():
			base = append(base, s.Artifacts...)
		case s.Priority.IsMain() && !hasLibrary:
			base = append(base, s.Artifacts...)
		default:
			overlays = append(overlays, append([]string(nil), s.Artifacts...))
		}
	}

	return base, overlays
}
