package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toySchemaDoc = `<Schema>
	<ConceptDefinition concept="Widget">
		<RequiresTrait name="name"/>
		<AllowsTrait name="kind"/>
		<AllowsTrait name="mystery"/>
		<RequiresChild concept="Gear"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="Gear">
		<RequiresTrait name="teeth"/>
	</ConceptDefinition>
	<TraitDefinition trait="name"/>
	<TraitDefinition trait="teeth" defaultValueType="Integer"/>
	<TraitDefinition trait="kind" defaultValueType="EnumeratedToken">
		<AllowedValue value="spur"/>
		<AllowedValue value="helical"/>
	</TraitDefinition>
</Schema>`

func mustToySchema(t *testing.T) *Schema {
	t.Helper()
	node, err := ParseString(toySchemaDoc)
	require.NoError(t, err)
	s, err := ParseSchema(node)
	require.NoError(t, err)
	return s
}

func mustNode(t *testing.T, doc string) *Node {
	t.Helper()
	n, err := ParseString(doc)
	require.NoError(t, err)
	return n
}

func TestValidateAcceptsConformingTree(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget name="w1" kind="$spur"><Gear teeth="12"/></Widget>`)
	assert.NoError(t, s.Validate(n))
}

func TestValidateRejectsUnknownConceptWithSuggestion(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widgt name="w1"><Gear teeth="12"/></Widgt>`)
	err := s.Validate(n)
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Widget", se.Suggestion)
}

func TestValidateRejectsMissingRequiredTrait(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget><Gear teeth="12"/></Widget>`)
	var se *StructuralError
	require.ErrorAs(t, s.Validate(n), &se)
	assert.Contains(t, se.Message, `missing required trait "name"`)
}

func TestValidateRejectsDisallowedTrait(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget name="w1" color="red"><Gear teeth="12"/></Widget>`)
	var se *StructuralError
	require.ErrorAs(t, s.Validate(n), &se)
	assert.Contains(t, se.Message, `disallowed trait "color"`)
}

func TestValidateRejectsTraitWithoutDefinition(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget name="w1" mystery="x"><Gear teeth="12"/></Widget>`)
	var se *StructuralError
	require.ErrorAs(t, s.Validate(n), &se)
	assert.Contains(t, se.Message, `has no TraitDefinition`)
}

func TestValidateRejectsNonIntegralTraitValue(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget name="w1"><Gear teeth="twelve"/></Widget>`)
	require.Error(t, s.Validate(n))
}

func TestValidateRejectsUnknownEnumeratedToken(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget name="w1" kind="$bevel"><Gear teeth="12"/></Widget>`)
	var se *StructuralError
	require.ErrorAs(t, s.Validate(n), &se)
	assert.Contains(t, se.Message, "enumerated token")
}

func TestValidateRejectsForbiddenContent(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget name="w1">stray text</Widget>`)
	n.Children = append(n.Children, &Node{Concept: "Gear", Traits: []Trait{{Name: "teeth", Value: "12"}}})
	var se *StructuralError
	require.ErrorAs(t, s.Validate(n), &se)
	assert.Contains(t, se.Message, "forbids text content")
}

func TestValidateRejectsMissingRequiredChild(t *testing.T) {
	s := mustToySchema(t)
	n := mustNode(t, `<Widget name="w1"/>`)
	var se *StructuralError
	require.ErrorAs(t, s.Validate(n), &se)
	assert.Contains(t, se.Message, `missing required child <Gear>`)
}

func TestPipelineSchemaAcceptsFixtureEnvelope(t *testing.T) {
	n := mustNode(t, `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1" viewportWidthPx="1920" viewportHeightPx="1080">
		<ContextEntry key="deviceClass" kind="string" value="desktop"/>
	</AdaptiveContextProfile>
	<AdaptiveObjectiveProfile profileId="obj-1">
		<Objective key="legibility" priority="$must"/>
	</AdaptiveObjectiveProfile>
	<AdaptiveOptimizationProfile profileId="opt-1">
		<OptimizationSoftTerm key="contrast" scope="global" targetRef="root" weightClass="$high"/>
	</AdaptiveOptimizationProfile>
	<AdaptiveIntent id="urn:intent:abc" targetFoundry="f" policySetRef="p"
		compositionIri="urn:comp:1"
		contextProfileRef="ctx-1" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"/>
</AdaptiveFixture>`)
	assert.NoError(t, PipelineSchema().Validate(n))
}

func TestPipelineSchemaRejectsIntentMissingId(t *testing.T) {
	n := mustNode(t, `<AdaptiveFixture>
	<AdaptiveContextProfile profileId="ctx-1"/>
	<AdaptiveObjectiveProfile profileId="obj-1"/>
	<AdaptiveOptimizationProfile profileId="opt-1"/>
	<AdaptiveIntent targetFoundry="f" policySetRef="p" compositionIri="urn:comp:1"
		contextProfileRef="ctx-1" objectiveProfileRef="obj-1" optimizationProfileRef="opt-1"/>
</AdaptiveFixture>`)
	var se *StructuralError
	require.ErrorAs(t, PipelineSchema().Validate(n), &se)
	assert.Contains(t, se.Message, `missing required trait "id"`)
}

func TestPipelineSchemaAcceptsErrorEnvelopes(t *testing.T) {
	stageA := mustNode(t, `<StageAResult status="error" error="EVALUATION_ERROR"/>`)
	assert.NoError(t, PipelineSchema().Validate(stageA))

	report := mustNode(t, `<AdaptiveDecisionReport status="error" error="EVALUATION_ERROR" failedStage="stageA"/>`)
	assert.NoError(t, PipelineSchema().Validate(report))
}

func TestValidateWorkshopVersionAcceptsSupportedRange(t *testing.T) {
	assert.NoError(t, ValidateWorkshopVersion("1.0.0"))
	assert.NoError(t, ValidateWorkshopVersion("1.9.9"))
}

func TestValidateWorkshopVersionRejectsBelowMin(t *testing.T) {
	err := ValidateWorkshopVersion("0.9.0")
	assert.Error(t, err)
	var se *StructuralError
	assert.ErrorAs(t, err, &se)
}

func TestValidateWorkshopVersionRejectsAtOrAboveMax(t *testing.T) {
	assert.Error(t, ValidateWorkshopVersion("2.0.0"))
	assert.Error(t, ValidateWorkshopVersion("3.1.0"))
}

func TestValidateWorkshopVersionRejectsMalformed(t *testing.T) {
	err := ValidateWorkshopVersion("not-a-version")
	assert.Error(t, err)
	var se *StructuralError
	assert.ErrorAs(t, err, &se)
}
