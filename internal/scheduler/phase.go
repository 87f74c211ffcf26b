package scheduler

// Phase is a step of one build invocation. Phases always run in declaration
// order.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseResolveCommonDeps
	PhaseCompileCommonDeps
	PhaseResolveGraph
	PhaseRunIndependent
	PhaseRunDependentGroups
	PhaseAggregate
	PhaseDone
)

var phaseNames = [...]string{
	PhaseInit:               "init",
	PhaseResolveCommonDeps:  "resolve-common-deps",
	PhaseCompileCommonDeps:  "compile-common-deps",
	PhaseResolveGraph:       "resolve-graph",
	PhaseRunIndependent:     "run-independent",
	PhaseRunDependentGroups: "run-dependent-groups",
	PhaseAggregate:          "aggregate",
	PhaseDone:               "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}

	return phaseNames[p]
}
