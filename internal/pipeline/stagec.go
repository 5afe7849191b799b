package pipeline

import (
	"strconv"
	"strings"

	"github.com/opalforge/adaptiveplan/internal/canon"
	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/policy"
	"github.com/opalforge/adaptiveplan/internal/scoring"
)

// WorkshopVersion is the fixed workshop-projection version string baked into
// every package seed. EmitStageC checks it against
// codex.ValidateWorkshopVersion's supported range before emission.
const WorkshopVersion = "1.0.0"

// PayloadRecord is the AdaptivePlanPayloadRecord embedded in the package.
type PayloadRecord struct {
	ProjectionIdentifier            string
	ProjectionDefinitionClosureHash string
	ParameterHash                   string
	PayloadCanonicalBytes           string
	PayloadContentHash              string
	PackageSeed                     string
	PackageContentHash              string
	ClosureHash                     string
}

// Package is the AdaptivePlanPackage artifact.
type Package struct {
	WorkshopVersion string
	Payload         PayloadRecord
}

// DecisionReport is the AdaptiveDecisionReport artifact.
type DecisionReport struct {
	Status                         string
	Error                          string // non-empty iff Status == "error"
	FailedStage                    string // "" unless Status == "error"
	AdaptivePlanPackageContentHash string // "" on error
	StageA                         *policy.Result
	StageB                         *scoring.Result
}

// lastColonSegment returns the substring of s after its final ':'.
func lastColonSegment(s string) string {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// EmitStageC constructs the package and decision report on a successful run.
// Callers that observed a Stage A or Stage B failure must build the error
// envelope directly via NewErrorReport instead. WorkshopVersion is checked
// against the supported range before the package seed is derived, so a
// future out-of-range constant never silently ships a package downstream
// tooling would reject; both artifacts are then validated against the
// pipeline schema before they are returned.
func EmitStageC(req *intent.CompiledRequest, stageA *policy.Result, stageB *scoring.Result) (*Package, *DecisionReport, error) {
	if err := codex.ValidateWorkshopVersion(WorkshopVersion); err != nil {
		return nil, nil, err
	}

	projectionIdentifier := "urn:projection:adaptive-plan:" + req.TargetFoundry + ":" + lastColonSegment(req.IntentID)
	projectionDefinitionClosureHash := canon.HashString("projection-definition:adaptive-plan-projection:1.0.0")
	parameterHash := canon.HashString(
		"intentId=" + req.IntentID +
			";targetFoundry=" + req.TargetFoundry +
			";policySetRef=" + req.PolicySetRef +
			";compositionIri=" + req.StageA.CompositionIRI,
	)

	var fields []string
	fields = append(fields, "projection="+projectionIdentifier)
	fields = append(fields, "selectedCandidate="+stageB.SelectedCandidate)
	fields = append(fields, "selectedScore="+stageB.SelectedScore.String())

	if len(stageB.AppliedRelaxations) > 0 {
		actions := make([]string, len(stageB.AppliedRelaxations))
		for i, r := range stageB.AppliedRelaxations {
			actions[i] = r.RelaxationAction
		}
		fields = append(fields, "relaxation="+strings.Join(actions, "+"))
	} else if len(stageA.SelectedActions) > 0 || len(stageA.Delta.Remove) > 0 || len(stageA.Delta.Add) > 0 {
		fields = append(fields,
			"actionCount="+strconv.Itoa(len(stageA.SelectedActions)),
			"deltaRemoveCount="+strconv.Itoa(len(stageA.Delta.Remove)),
			"deltaAddCount="+strconv.Itoa(len(stageA.Delta.Add)),
		)
	}

	payloadCanonicalBytes := strings.Join(fields, ";")
	payloadContentHash := canon.HashString(payloadCanonicalBytes)
	packageSeed := strings.Join([]string{
		WorkshopVersion, projectionDefinitionClosureHash, projectionIdentifier, parameterHash, payloadContentHash,
	}, "|")
	packageContentHash := canon.HashString(packageSeed)
	closureHash := canon.HashString("closure|" + packageSeed)

	payload := PayloadRecord{
		ProjectionIdentifier:            projectionIdentifier,
		ProjectionDefinitionClosureHash: projectionDefinitionClosureHash,
		ParameterHash:                   parameterHash,
		PayloadCanonicalBytes:           payloadCanonicalBytes,
		PayloadContentHash:              payloadContentHash,
		PackageSeed:                     packageSeed,
		PackageContentHash:              packageContentHash,
		ClosureHash:                     closureHash,
	}

	pkg := &Package{WorkshopVersion: WorkshopVersion, Payload: payload}
	report := &DecisionReport{
		Status:                         "ok",
		AdaptivePlanPackageContentHash: packageContentHash,
		StageA:                         stageA,
		StageB:                         stageB,
	}
	schema := codex.PipelineSchema()
	if err := schema.Validate(pkg.ToNode()); err != nil {
		return nil, nil, err
	}
	if err := schema.Validate(report.ToNode()); err != nil {
		return nil, nil, err
	}
	return pkg, report, nil
}

// NewErrorReport builds the error-only decision report emitted when Stage A
// or Stage B fails: no package, status=error, error=EVALUATION_ERROR,
// failedStage set.
func NewErrorReport(failedStage string) *DecisionReport {
	return &DecisionReport{
		Status:      "error",
		Error:       EvaluationErrorCode,
		FailedStage: failedStage,
	}
}
