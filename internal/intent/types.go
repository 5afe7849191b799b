// Package intent compiles an AdaptiveFixture envelope into a
// CompiledAdaptiveRequest, and parses a previously compiled
// envelope back for the evaluate-stage-a/evaluate-stage-b CLI commands.
package intent

import "github.com/opalforge/adaptiveplan/internal/term"

// ContextEntry is one (key, value) pair of a Context. Slices of
// ContextEntry are kept in emission order by construction rather than
// sorted ad hoc at each use site.
type ContextEntry struct {
	Key   string
	Value term.TypedValue
}

// StageAContext is the Stage A half of a compiled request.
type StageAContext struct {
	CompositionIRI string
	ViewIRI        string // "" if absent
	HasView        bool
	Context        []ContextEntry // lexicographic trait-key order
}

// ObjectiveEntry is one compiled AdaptiveObjectiveProfile entry.
type ObjectiveEntry struct {
	Key            string
	Priority       string // must|prefer|neutral, token-stripped
	PriorityWeight term.Decimal
}

// HardConstraint is one compiled OptimizationHardConstraint.
type HardConstraint struct {
	Key             string
	Scope           string
	TargetRef       string
	ConstraintValue string
}

// SoftTerm is one compiled OptimizationSoftTerm.
type SoftTerm struct {
	Key         string
	Scope       string
	TargetRef   string
	WeightClass string // critical|high|medium|low
	Weight      term.Decimal
}

// RelaxationRule is one compiled RelaxationRule.
type RelaxationRule struct {
	RelaxOrder       int
	RelaxWeightClass string // "" if absent
	HasWeightClass   bool
	RelaxationAction string // dropTerm|widenThreshold|allowGroupSplit
}

// OverrideConstraint is one compiled OverrideConstraint.
type OverrideConstraint struct {
	TargetRef    string
	OverrideKind string
	Priority     string // critical|high|medium|low
	PriorityRank int
}

// OverrideSet is the compiled AdaptiveOverrideSet, when present.
type OverrideSet struct {
	OverrideMode string // strict|advisory
	Constraints  []OverrideConstraint
}

// OptimizationProfile is the compiled AdaptiveOptimizationProfile.
type OptimizationProfile struct {
	HardConstraints    []HardConstraint
	SoftTerms          []SoftTerm
	RelaxationRules    []RelaxationRule
	SatisficeThreshold *term.Decimal
}

// StageBProfile is the Stage B half of a compiled request.
type StageBProfile struct {
	ContextExt   []ContextEntry // lexicographic trait-key order
	Objective    []ObjectiveEntry
	Optimization OptimizationProfile
	Override     *OverrideSet
}

// CompiledRequest is the full CompiledAdaptiveRequest.
type CompiledRequest struct {
	IntentID      string
	TargetFoundry string
	PolicySetRef  string
	StageA        StageAContext
	StageB        StageBProfile
}
