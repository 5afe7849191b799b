// Package scoring implements Stage B: feasibility filtering, weighted
// soft-term scoring, satisficing, and the ordered relaxation cascade:
// filter, score, check, relax, repeat until a candidate qualifies or the
// cascade is exhausted.
package scoring

import "github.com/opalforge/adaptiveplan/internal/term"

// Candidate is one precomputed Stage B variant.
type Candidate struct {
	ID              string
	HardResults     map[string]bool
	SoftScores      map[string]term.Decimal
	OverrideResults map[OverrideKey]bool
}

// OverrideKey identifies one override constraint by (kind, targetRef).
type OverrideKey struct {
	Kind      string
	TargetRef string
}

// Status mirrors the fail-closed envelope contract.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

// AppliedRelaxation records one relaxation rule consumed by the cascade.
type AppliedRelaxation struct {
	RelaxOrder       int
	RelaxWeightClass string // "" if the rule carried none
	RelaxationAction string
}

// Result is the immutable StageBResult artifact.
type Result struct {
	Status             Status
	SelectedCandidate  string
	SelectedScore      term.Decimal
	AppliedRelaxations []AppliedRelaxation
}
