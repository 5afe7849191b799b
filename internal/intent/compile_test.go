package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/term"
)

const fixtureXML = `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1" viewportWidthPx="1920" viewportHeightPx="1080" reducedMotionPreference="$reduce">
		<ContextEntry key="deviceClass" kind="string" value="desktop"/>
		<ContextEntry key="pixelDensity" kind="decimal" value="2.0"/>
	</AdaptiveContextProfile>
	<AdaptiveObjectiveProfile profileId="obj-1">
		<Objective key="legibility" priority="$must"/>
		<Objective key="density" priority="$prefer"/>
	</AdaptiveObjectiveProfile>
	<AdaptiveOptimizationProfile profileId="opt-1" satisficeThreshold="0.8">
		<OptimizationHardConstraint key="fitsViewport" scope="global" targetRef="root" constraintValue="true"/>
		<OptimizationSoftTerm key="contrast" scope="global" targetRef="root" weightClass="$high"/>
		<RelaxationRule relaxOrder="1" relaxWeightClass="$low" relaxationAction="dropTerm"/>
	</AdaptiveOptimizationProfile>
	<AdaptiveIntent id="urn:intent:abc" targetFoundry="foundry-1" policySetRef="urn:policyset:1"
		compositionIri="urn:comp:1" viewIri="urn:view:1"
		contextProfileRef="ctx-1" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"/>
</AdaptiveFixture>`

func mustParse(t *testing.T, s string) *codex.Node {
	t.Helper()
	n, err := codex.ParseString(s)
	require.NoError(t, err)
	return n
}

func TestCompileDerivesViewportAndMotion(t *testing.T) {
	fixture := mustParse(t, fixtureXML)
	req, err := Compile(fixture)
	require.NoError(t, err)

	byKey := map[string]term.TypedValue{}
	for _, e := range req.StageA.Context {
		byKey[e.Key] = e.Value
	}

	ratio, ok := byKey["ViewportAspectRatio"]
	require.True(t, ok)
	assert.Equal(t, "1.777778", ratio.AsDecimal().String())

	orientation, ok := byKey["ViewportOrientation"]
	require.True(t, ok)
	assert.Equal(t, "landscape", orientation.Str)

	motion, ok := byKey["ReducedMotionPreference"]
	require.True(t, ok)
	assert.Equal(t, true, motion.Bool)
}

func TestCompileContextOrderingIsLexicographic(t *testing.T) {
	fixture := mustParse(t, fixtureXML)
	req, err := Compile(fixture)
	require.NoError(t, err)

	var keys []string
	for _, e := range req.StageA.Context {
		keys = append(keys, e.Key)
	}
	for i := 1; i < len(keys); i++ {
		assert.True(t, keys[i-1] < keys[i], "context entries must be in lexicographic key order: %v", keys)
	}
}

func TestCompileObjectivePriorityWeights(t *testing.T) {
	fixture := mustParse(t, fixtureXML)
	req, err := Compile(fixture)
	require.NoError(t, err)

	require.Len(t, req.StageB.Objective, 2)
	byKey := map[string]ObjectiveEntry{}
	for _, o := range req.StageB.Objective {
		byKey[o.Key] = o
	}
	assert.Equal(t, "1", byKey["legibility"].PriorityWeight.String())
	assert.Equal(t, "0.7", byKey["density"].PriorityWeight.String())
}

func TestCompileRejectsMismatchedProfileRef(t *testing.T) {
	bad := `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1"/>
	<AdaptiveObjectiveProfile profileId="obj-1"/>
	<AdaptiveOptimizationProfile profileId="opt-1"/>
	<AdaptiveIntent id="urn:intent:abc" targetFoundry="f" policySetRef="p"
		compositionIri="urn:comp:1"
		contextProfileRef="ctx-WRONG" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"/>
</AdaptiveFixture>`
	_, err := Compile(mustParse(t, bad))
	require.Error(t, err)
}

func TestCompileRejectsBadReducedMotion(t *testing.T) {
	bad := `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1" reducedMotionPreference="sideways"/>
	<AdaptiveObjectiveProfile profileId="obj-1"/>
	<AdaptiveOptimizationProfile profileId="opt-1"/>
	<AdaptiveIntent id="urn:intent:abc" targetFoundry="f" policySetRef="p"
		compositionIri="urn:comp:1"
		contextProfileRef="ctx-1" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"/>
</AdaptiveFixture>`
	_, err := Compile(mustParse(t, bad))
	require.Error(t, err)
}

func TestCompileRejectsIntentMissingId(t *testing.T) {
	bad := `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1"/>
	<AdaptiveObjectiveProfile profileId="obj-1"/>
	<AdaptiveOptimizationProfile profileId="opt-1"/>
	<AdaptiveIntent targetFoundry="f" policySetRef="p"
		compositionIri="urn:comp:1"
		contextProfileRef="ctx-1" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"/>
</AdaptiveFixture>`
	_, err := Compile(mustParse(t, bad))
	var se *codex.StructuralError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, `missing required trait "id"`)
}

func TestCompileRejectsUnknownChildConcept(t *testing.T) {
	bad := `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1"/>
	<AdaptiveObjectiveProfile profileId="obj-1"/>
	<AdaptiveOptimizationProfile profileId="opt-1"/>
	<AdaptiveGadget/>
	<AdaptiveIntent id="urn:intent:abc" targetFoundry="f" policySetRef="p"
		compositionIri="urn:comp:1"
		contextProfileRef="ctx-1" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"/>
</AdaptiveFixture>`
	_, err := Compile(mustParse(t, bad))
	var se *codex.StructuralError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "disallowed child <AdaptiveGadget>")
}

func TestCompileRejectsWrongRootConcept(t *testing.T) {
	_, err := Compile(mustParse(t, `<CompiledAdaptiveRequest/>`))
	var se *codex.StructuralError
	require.ErrorAs(t, err, &se)
}

func TestCompileOverrideSetPriorityOrdering(t *testing.T) {
	src := `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1"/>
	<AdaptiveObjectiveProfile profileId="obj-1"/>
	<AdaptiveOptimizationProfile profileId="opt-1"/>
	<AdaptiveOverrideSet overrideSetId="ov-1" overrideMode="strict">
		<OverrideConstraint targetRef="b" overrideKind="lock" priority="$low"/>
		<OverrideConstraint targetRef="a" overrideKind="lock" priority="$critical"/>
		<OverrideConstraint targetRef="c" overrideKind="lock" priority="$high"/>
	</AdaptiveOverrideSet>
	<AdaptiveIntent id="urn:intent:abc" targetFoundry="f" policySetRef="p"
		compositionIri="urn:comp:1"
		contextProfileRef="ctx-1" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"
		overrideSetRef="ov-1"/>
</AdaptiveFixture>`
	req, err := Compile(mustParse(t, src))
	require.NoError(t, err)
	require.NotNil(t, req.StageB.Override)

	var refs []string
	for _, c := range req.StageB.Override.Constraints {
		refs = append(refs, c.TargetRef)
	}
	assert.Equal(t, []string{"a", "c", "b"}, refs, "override constraints sort by descending priority rank first")
}
