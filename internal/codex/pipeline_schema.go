package codex

import "fmt"

// pipelineSchemaDoc is the Schema envelope covering every artifact concept
// the pipeline reads or emits: the authoring fixture, the compiled request,
// both stage results, the candidate set, and the package/decision-report
// pair. Envelope readers validate their input against this schema before
// interpreting it, and the Stage C emitter validates its outputs against it
// before returning them.
const pipelineSchemaDoc = `<Schema>
	<ConceptDefinition concept="AdaptiveFixture">
		<RequiresChild concept="AdaptiveContextProfile"/>
		<RequiresChild concept="AdaptiveObjectiveProfile"/>
		<RequiresChild concept="AdaptiveOptimizationProfile"/>
		<RequiresChild concept="AdaptiveIntent"/>
		<AllowsChild concept="AdaptiveOverrideSet"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptiveContextProfile">
		<RequiresTrait name="profileId"/>
		<AllowsTrait name="viewportWidthPx"/>
		<AllowsTrait name="viewportHeightPx"/>
		<AllowsTrait name="reducedMotionPreference"/>
		<AllowsChild concept="ContextEntry"/>
		<AllowsChild concept="ContextExtEntry"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="ContextEntry">
		<RequiresTrait name="key"/>
		<RequiresTrait name="kind"/>
		<RequiresTrait name="value"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="ContextExtEntry">
		<RequiresTrait name="key"/>
		<RequiresTrait name="kind"/>
		<RequiresTrait name="value"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptiveObjectiveProfile">
		<RequiresTrait name="profileId"/>
		<AllowsChild concept="Objective"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="Objective">
		<RequiresTrait name="key"/>
		<RequiresTrait name="priority"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptiveOptimizationProfile">
		<RequiresTrait name="profileId"/>
		<AllowsTrait name="satisficeThreshold"/>
		<AllowsChild concept="OptimizationHardConstraint"/>
		<AllowsChild concept="OptimizationSoftTerm"/>
		<AllowsChild concept="RelaxationRule"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="OptimizationHardConstraint">
		<RequiresTrait name="key"/>
		<RequiresTrait name="scope"/>
		<RequiresTrait name="targetRef"/>
		<RequiresTrait name="constraintValue"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="OptimizationSoftTerm">
		<RequiresTrait name="key"/>
		<RequiresTrait name="scope"/>
		<RequiresTrait name="targetRef"/>
		<RequiresTrait name="weightClass"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="RelaxationRule">
		<RequiresTrait name="relaxOrder"/>
		<RequiresTrait name="relaxationAction"/>
		<AllowsTrait name="relaxWeightClass"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptiveOverrideSet">
		<RequiresTrait name="overrideSetId"/>
		<RequiresTrait name="overrideMode"/>
		<AllowsChild concept="OverrideConstraint"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="OverrideConstraint">
		<RequiresTrait name="targetRef"/>
		<RequiresTrait name="overrideKind"/>
		<RequiresTrait name="priority"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptiveIntent">
		<RequiresTrait name="id"/>
		<RequiresTrait name="targetFoundry"/>
		<RequiresTrait name="policySetRef"/>
		<RequiresTrait name="compositionIri"/>
		<RequiresTrait name="contextProfileRef"/>
		<RequiresTrait name="objectiveProfileRef"/>
		<RequiresTrait name="optimizationProfileRef"/>
		<AllowsTrait name="viewIri"/>
		<AllowsTrait name="overrideSetRef"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="CompiledAdaptiveRequest">
		<RequiresTrait name="intentId"/>
		<RequiresTrait name="targetFoundry"/>
		<RequiresTrait name="policySetRef"/>
		<RequiresChild concept="StageAContext"/>
		<RequiresChild concept="StageBProfile"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="StageAContext">
		<RequiresTrait name="compositionIri"/>
		<AllowsTrait name="viewIri"/>
		<AllowsChild concept="ContextEntry"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="StageBProfile">
		<RequiresChild concept="OptimizationProfile"/>
		<AllowsChild concept="ContextExtEntry"/>
		<AllowsChild concept="ObjectiveEntry"/>
		<AllowsChild concept="OverrideSet"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="ObjectiveEntry">
		<RequiresTrait name="key"/>
		<RequiresTrait name="priority"/>
		<RequiresTrait name="priorityWeight"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="OptimizationProfile">
		<AllowsTrait name="satisficeThreshold"/>
		<AllowsChild concept="HardConstraint"/>
		<AllowsChild concept="SoftTerm"/>
		<AllowsChild concept="RelaxationRule"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="HardConstraint">
		<RequiresTrait name="key"/>
		<RequiresTrait name="scope"/>
		<RequiresTrait name="targetRef"/>
		<RequiresTrait name="constraintValue"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="SoftTerm">
		<RequiresTrait name="key"/>
		<RequiresTrait name="scope"/>
		<RequiresTrait name="targetRef"/>
		<RequiresTrait name="weightClass"/>
		<RequiresTrait name="weight"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="OverrideSet">
		<RequiresTrait name="overrideMode"/>
		<AllowsChild concept="OverrideConstraint"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="StageAResult">
		<RequiresTrait name="status"/>
		<AllowsTrait name="error"/>
		<AllowsChild concept="SelectedAction"/>
		<AllowsChild concept="Delta"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="SelectedAction">
		<RequiresTrait name="actionIri"/>
		<RequiresTrait name="mode"/>
		<RequiresTrait name="targetNode"/>
		<RequiresTrait name="targetProperty"/>
		<RequiresTrait name="value"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="Delta">
		<AllowsChild concept="Remove"/>
		<AllowsChild concept="Add"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="Remove">
		<RequiresTrait name="line"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="Add">
		<RequiresTrait name="line"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="StageBCandidates">
		<AllowsChild concept="Candidate"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="Candidate">
		<RequiresTrait name="id"/>
		<AllowsChild concept="HardResult"/>
		<AllowsChild concept="SoftScore"/>
		<AllowsChild concept="OverrideResult"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="HardResult">
		<RequiresTrait name="key"/>
		<RequiresTrait name="value"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="SoftScore">
		<RequiresTrait name="key"/>
		<RequiresTrait name="value"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="OverrideResult">
		<RequiresTrait name="kind"/>
		<RequiresTrait name="targetRef"/>
		<RequiresTrait name="value"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="StageBResult">
		<RequiresTrait name="status"/>
		<AllowsTrait name="error"/>
		<AllowsTrait name="selectedCandidate"/>
		<AllowsTrait name="selectedScore"/>
		<AllowsChild concept="AppliedRelaxation"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AppliedRelaxation">
		<RequiresTrait name="relaxationAction"/>
		<AllowsTrait name="relaxWeightClass"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptivePlanPackage">
		<RequiresTrait name="workshopVersion"/>
		<RequiresChild concept="AdaptivePlanPayloadRecord"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptivePlanPayloadRecord">
		<RequiresTrait name="projectionIdentifier"/>
		<RequiresTrait name="projectionDefinitionClosureHash"/>
		<RequiresTrait name="parameterHash"/>
		<RequiresTrait name="payloadCanonicalBytes"/>
		<RequiresTrait name="payloadContentHash"/>
		<RequiresTrait name="packageSeed"/>
		<RequiresTrait name="packageContentHash"/>
		<RequiresTrait name="closureHash"/>
		<RequiresTrait name="contentHashAlgorithm"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="AdaptiveDecisionReport">
		<RequiresTrait name="status"/>
		<AllowsTrait name="error"/>
		<AllowsTrait name="failedStage"/>
		<AllowsTrait name="adaptivePlanPackageContentHash"/>
		<AllowsChild concept="StageAOutcome"/>
		<AllowsChild concept="StageBOutcome"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="StageAOutcome">
		<RequiresChild concept="StageAResult"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<ConceptDefinition concept="StageBOutcome">
		<RequiresChild concept="StageBResult"/>
		<ForbidsContent/>
	</ConceptDefinition>
	<TraitDefinition trait="key"/>
	<TraitDefinition trait="value"/>
	<TraitDefinition trait="kind"/>
	<TraitDefinition trait="id"/>
	<TraitDefinition trait="line"/>
	<TraitDefinition trait="scope"/>
	<TraitDefinition trait="profileId"/>
	<TraitDefinition trait="overrideSetId"/>
	<TraitDefinition trait="targetRef"/>
	<TraitDefinition trait="overrideKind"/>
	<TraitDefinition trait="constraintValue"/>
	<TraitDefinition trait="intentId"/>
	<TraitDefinition trait="targetFoundry"/>
	<TraitDefinition trait="policySetRef"/>
	<TraitDefinition trait="contextProfileRef"/>
	<TraitDefinition trait="objectiveProfileRef"/>
	<TraitDefinition trait="optimizationProfileRef"/>
	<TraitDefinition trait="overrideSetRef"/>
	<TraitDefinition trait="selectedCandidate"/>
	<TraitDefinition trait="workshopVersion"/>
	<TraitDefinition trait="projectionDefinitionClosureHash"/>
	<TraitDefinition trait="parameterHash"/>
	<TraitDefinition trait="payloadCanonicalBytes"/>
	<TraitDefinition trait="payloadContentHash"/>
	<TraitDefinition trait="packageSeed"/>
	<TraitDefinition trait="packageContentHash"/>
	<TraitDefinition trait="closureHash"/>
	<TraitDefinition trait="adaptivePlanPackageContentHash"/>
	<TraitDefinition trait="compositionIri" defaultValueType="IriReference"/>
	<TraitDefinition trait="viewIri" defaultValueType="IriReference"/>
	<TraitDefinition trait="actionIri" defaultValueType="IriReference"/>
	<TraitDefinition trait="targetNode" defaultValueType="IriReference"/>
	<TraitDefinition trait="targetProperty" defaultValueType="IriReference"/>
	<TraitDefinition trait="projectionIdentifier" defaultValueType="IriReference"/>
	<TraitDefinition trait="viewportWidthPx" defaultValueType="Number"/>
	<TraitDefinition trait="viewportHeightPx" defaultValueType="Number"/>
	<TraitDefinition trait="satisficeThreshold" defaultValueType="Number"/>
	<TraitDefinition trait="priorityWeight" defaultValueType="Number"/>
	<TraitDefinition trait="weight" defaultValueType="Number"/>
	<TraitDefinition trait="selectedScore" defaultValueType="Number"/>
	<TraitDefinition trait="relaxOrder" defaultValueType="Integer"/>
	<TraitDefinition trait="status" defaultValueType="EnumeratedToken">
		<AllowedValue value="ok"/>
		<AllowedValue value="error"/>
	</TraitDefinition>
	<TraitDefinition trait="error" defaultValueType="EnumeratedToken">
		<AllowedValue value="EVALUATION_ERROR"/>
	</TraitDefinition>
	<TraitDefinition trait="failedStage" defaultValueType="EnumeratedToken">
		<AllowedValue value="stageA"/>
		<AllowedValue value="stageB"/>
	</TraitDefinition>
	<TraitDefinition trait="mode" defaultValueType="EnumeratedToken">
		<AllowedValue value="ReplaceAll"/>
		<AllowedValue value="Add"/>
		<AllowedValue value="Remove"/>
	</TraitDefinition>
	<TraitDefinition trait="overrideMode" defaultValueType="EnumeratedToken">
		<AllowedValue value="strict"/>
		<AllowedValue value="advisory"/>
	</TraitDefinition>
	<TraitDefinition trait="weightClass" defaultValueType="EnumeratedToken">
		<AllowedValue value="critical"/>
		<AllowedValue value="high"/>
		<AllowedValue value="medium"/>
		<AllowedValue value="low"/>
	</TraitDefinition>
	<TraitDefinition trait="relaxWeightClass" defaultValueType="EnumeratedToken">
		<AllowedValue value="critical"/>
		<AllowedValue value="high"/>
		<AllowedValue value="medium"/>
		<AllowedValue value="low"/>
	</TraitDefinition>
	<TraitDefinition trait="relaxationAction" defaultValueType="EnumeratedToken">
		<AllowedValue value="dropTerm"/>
		<AllowedValue value="widenThreshold"/>
		<AllowedValue value="allowGroupSplit"/>
	</TraitDefinition>
	<TraitDefinition trait="priority" defaultValueType="EnumeratedToken">
		<AllowedValue value="must"/>
		<AllowedValue value="prefer"/>
		<AllowedValue value="neutral"/>
		<AllowedValue value="critical"/>
		<AllowedValue value="high"/>
		<AllowedValue value="medium"/>
		<AllowedValue value="low"/>
	</TraitDefinition>
	<TraitDefinition trait="reducedMotionPreference" defaultValueType="EnumeratedToken">
		<AllowedValue value="reduce"/>
		<AllowedValue value="noPreference"/>
	</TraitDefinition>
	<TraitDefinition trait="contentHashAlgorithm" defaultValueType="EnumeratedToken">
		<AllowedValue value="sha256"/>
	</TraitDefinition>
</Schema>`

// pipelineSchema is parsed once at init from the embedded document; the
// Schema value itself is never mutated afterwards.
var pipelineSchema = func() *Schema {
	node, err := ParseString(pipelineSchemaDoc)
	if err != nil {
		panic(fmt.Sprintf("codex: embedded pipeline schema does not parse: %v", err))
	}
	s, err := ParseSchema(node)
	if err != nil {
		panic(fmt.Sprintf("codex: embedded pipeline schema is malformed: %v", err))
	}
	return s
}()

// PipelineSchema returns the schema every pipeline artifact envelope is
// validated against: readers call Validate before interpreting an input
// envelope, and the Stage C emitter calls it on the package and decision
// report before returning them.
func PipelineSchema() *Schema {
	return pipelineSchema
}
