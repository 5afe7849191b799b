package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalforge/adaptiveplan/internal/evalerr"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/term"
)

func profileWith(threshold *term.Decimal, rules []intent.RelaxationRule) *intent.OptimizationProfile {
	return &intent.OptimizationProfile{
		HardConstraints:    []intent.HardConstraint{{Key: "fitsViewport"}},
		SoftTerms:          []intent.SoftTerm{{Key: "legibility", WeightClass: "high", Weight: term.MustDecimal("1")}},
		RelaxationRules:    rules,
		SatisficeThreshold: threshold,
	}
}

func TestEvaluateThresholdWideningRelaxation(t *testing.T) {
	threshold := term.MustDecimal("0.8")
	profile := profileWith(&threshold, []intent.RelaxationRule{
		{RelaxOrder: 1, RelaxationAction: "widenThreshold"},
	})
	candidates := []Candidate{
		{ID: "A", HardResults: map[string]bool{"fitsViewport": true}, SoftScores: map[string]term.Decimal{"legibility": term.MustDecimal("0.72")}},
		{ID: "B", HardResults: map[string]bool{"fitsViewport": true}, SoftScores: map[string]term.Decimal{"legibility": term.MustDecimal("0.65")}},
	}

	res, err := Evaluate(profile, nil, candidates)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "A", res.SelectedCandidate)
	assert.Equal(t, "0.72", res.SelectedScore.String())
	require.Len(t, res.AppliedRelaxations, 1)
	assert.Equal(t, "widenThreshold", res.AppliedRelaxations[0].RelaxationAction)
}

func TestEvaluateNoRelaxationNeededWhenCandidateQualifies(t *testing.T) {
	threshold := term.MustDecimal("0.5")
	profile := profileWith(&threshold, nil)
	candidates := []Candidate{
		{ID: "A", HardResults: map[string]bool{"fitsViewport": true}, SoftScores: map[string]term.Decimal{"legibility": term.MustDecimal("0.9")}},
	}
	res, err := Evaluate(profile, nil, candidates)
	require.NoError(t, err)
	assert.Equal(t, "A", res.SelectedCandidate)
	assert.Empty(t, res.AppliedRelaxations)
}

func TestEvaluateExhaustsCascadeAndFails(t *testing.T) {
	threshold := term.MustDecimal("0.99")
	profile := profileWith(&threshold, nil)
	candidates := []Candidate{
		{ID: "A", HardResults: map[string]bool{"fitsViewport": true}, SoftScores: map[string]term.Decimal{"legibility": term.MustDecimal("0.1")}},
	}
	res, err := Evaluate(profile, nil, candidates)
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
	var exhErr *evalerr.ExhaustionError
	assert.ErrorAs(t, err, &exhErr)
}

func TestEvaluateFeasibilityExcludesFailingHardConstraint(t *testing.T) {
	profile := profileWith(nil, nil)
	candidates := []Candidate{
		{ID: "A", HardResults: map[string]bool{"fitsViewport": false}, SoftScores: map[string]term.Decimal{"legibility": term.MustDecimal("1")}},
	}
	_, err := Evaluate(profile, nil, candidates)
	require.Error(t, err, "no feasible candidate and no relaxation rules must exhaust")
	var exhErr *evalerr.ExhaustionError
	assert.ErrorAs(t, err, &exhErr)
}

func TestEvaluateDropTermNoOpsWhenItWouldEmptyActiveSet(t *testing.T) {
	threshold := term.MustDecimal("0.5")
	profile := &intent.OptimizationProfile{
		SoftTerms: []intent.SoftTerm{
			{Key: "legibility", WeightClass: "high", Weight: term.MustDecimal("1")},
		},
		RelaxationRules: []intent.RelaxationRule{
			{RelaxOrder: 1, RelaxationAction: "dropTerm", RelaxWeightClass: "high", HasWeightClass: true},
			{RelaxOrder: 2, RelaxationAction: "widenThreshold"},
		},
		SatisficeThreshold: &threshold,
	}
	candidates := []Candidate{
		{ID: "A", SoftScores: map[string]term.Decimal{"legibility": term.MustDecimal("0.4")}},
	}
	// 0.4 misses the 0.5 threshold, so dropTerm fires first; dropping "high"
	// would empty the active set, so it leaves legibility in place. The
	// following widenThreshold (0.5 -> 0.4) then lets A qualify, which only
	// scores if legibility is still active.
	res, err := Evaluate(profile, nil, candidates)
	require.NoError(t, err)
	assert.Equal(t, "A", res.SelectedCandidate)
	require.Len(t, res.AppliedRelaxations, 2)
	assert.Equal(t, "dropTerm", res.AppliedRelaxations[0].RelaxationAction)
}

func TestEvaluateStrictOverrideModeRequiresOverrideResult(t *testing.T) {
	profile := profileWith(nil, nil)
	override := &intent.OverrideSet{OverrideMode: "strict", Constraints: []intent.OverrideConstraint{
		{TargetRef: "root", OverrideKind: "lock"},
	}}
	candidates := []Candidate{
		{
			ID:              "A",
			HardResults:     map[string]bool{"fitsViewport": true},
			SoftScores:      map[string]term.Decimal{"legibility": term.MustDecimal("1")},
			OverrideResults: map[OverrideKey]bool{{Kind: "lock", TargetRef: "root"}: false},
		},
	}
	_, err := Evaluate(profile, override, candidates)
	require.Error(t, err, "strict override mode must exclude a candidate failing its override result")
}

func TestEvaluateAdvisoryOverrideModeIgnoresOverrides(t *testing.T) {
	profile := profileWith(nil, nil)
	override := &intent.OverrideSet{OverrideMode: "advisory", Constraints: []intent.OverrideConstraint{
		{TargetRef: "root", OverrideKind: "lock"},
	}}
	candidates := []Candidate{
		{
			ID:              "A",
			HardResults:     map[string]bool{"fitsViewport": true},
			SoftScores:      map[string]term.Decimal{"legibility": term.MustDecimal("1")},
			OverrideResults: map[OverrideKey]bool{{Kind: "lock", TargetRef: "root"}: false},
		},
	}
	res, err := Evaluate(profile, override, candidates)
	require.NoError(t, err)
	assert.Equal(t, "A", res.SelectedCandidate)
}
