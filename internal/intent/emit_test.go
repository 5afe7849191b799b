package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/term"
)

// decimalsEqual compares Decimals numerically with Cmp. The zero value (a
// TypedValue whose kind is not decimal) has no big.Int behind it, so it is
// special-cased rather than compared.
var decimalsEqual = cmp.Comparer(func(a, b term.Decimal) bool {
	az, bz := a == (term.Decimal{}), b == (term.Decimal{})
	if az || bz {
		return az && bz
	}
	return a.Cmp(b) == 0
})

func TestCompiledRequestRoundTripsThroughCodex(t *testing.T) {
	threshold := term.MustDecimal("0.8")
	original := &CompiledRequest{
		IntentID:      "urn:intent:abc",
		TargetFoundry: "foundry-1",
		PolicySetRef:  "urn:policyset:1",
		StageA: StageAContext{
			CompositionIRI: "urn:comp:1",
			HasView:        true,
			ViewIRI:        "urn:view:1",
			Context: []ContextEntry{
				{Key: "ViewportOrientation", Value: term.NewString("landscape")},
				{Key: "pixelDensity", Value: term.NewDecimal(term.MustDecimal("2.0"))},
			},
		},
		StageB: StageBProfile{
			Objective: []ObjectiveEntry{
				{Key: "legibility", Priority: "must", PriorityWeight: term.MustDecimal("1.0")},
			},
			Optimization: OptimizationProfile{
				HardConstraints: []HardConstraint{
					{Key: "fitsViewport", Scope: "global", TargetRef: "root", ConstraintValue: "true"},
				},
				SoftTerms: []SoftTerm{
					{Key: "contrast", Scope: "global", TargetRef: "root", WeightClass: "high", Weight: term.MustDecimal("0.75")},
				},
				RelaxationRules: []RelaxationRule{
					{RelaxOrder: 1, RelaxWeightClass: "low", HasWeightClass: true, RelaxationAction: "dropTerm"},
				},
				SatisficeThreshold: &threshold,
			},
			Override: &OverrideSet{
				OverrideMode: "strict",
				Constraints: []OverrideConstraint{
					{TargetRef: "root", OverrideKind: "lock", Priority: "critical", PriorityRank: 4},
				},
			},
		},
	}

	node := original.ToNode()
	require.NoError(t, codex.PipelineSchema().Validate(node))
	bytes := codex.Emit(node)
	reparsed, err := codex.ParseString(string(bytes))
	require.NoError(t, err)

	got, err := ParseCompiled(reparsed)
	require.NoError(t, err)

	if diff := cmp.Diff(original, got, decimalsEqual); diff != "" {
		t.Fatalf("compiled request changed across codex round trip (-want +got):\n%s", diff)
	}
}
