package pipeline

import "github.com/opalforge/adaptiveplan/internal/codex"

// ToNode renders pkg as an AdaptivePlanPackage codex envelope.
func (pkg *Package) ToNode() *codex.Node {
	root := &codex.Node{Concept: "AdaptivePlanPackage"}
	root.Set("workshopVersion", pkg.WorkshopVersion)
	p := &codex.Node{Concept: "AdaptivePlanPayloadRecord"}
	p.Set("projectionIdentifier", pkg.Payload.ProjectionIdentifier)
	p.Set("projectionDefinitionClosureHash", pkg.Payload.ProjectionDefinitionClosureHash)
	p.Set("parameterHash", pkg.Payload.ParameterHash)
	p.Set("payloadCanonicalBytes", pkg.Payload.PayloadCanonicalBytes)
	p.Set("payloadContentHash", pkg.Payload.PayloadContentHash)
	p.Set("packageSeed", pkg.Payload.PackageSeed)
	p.Set("packageContentHash", pkg.Payload.PackageContentHash)
	p.Set("closureHash", pkg.Payload.ClosureHash)
	p.Set("contentHashAlgorithm", "sha256")
	root.Children = append(root.Children, p)
	return root
}

// ToNode renders r as an AdaptiveDecisionReport codex envelope.
func (r *DecisionReport) ToNode() *codex.Node {
	root := &codex.Node{Concept: "AdaptiveDecisionReport"}
	root.Set("status", r.Status)
	if r.Status == "error" {
		root.Set("error", r.Error)
		root.Set("failedStage", r.FailedStage)
		return root
	}
	root.Set("adaptivePlanPackageContentHash", r.AdaptivePlanPackageContentHash)
	root.Children = append(root.Children, &codex.Node{Concept: "StageAOutcome", Children: []*codex.Node{r.StageA.ToNode()}})
	root.Children = append(root.Children, &codex.Node{Concept: "StageBOutcome", Children: []*codex.Node{r.StageB.ToNode()}})
	return root
}
