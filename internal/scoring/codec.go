package scoring

import (
	"fmt"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/term"
)

// ParseCandidates reads a StageBCandidates envelope into a Candidate slice.
func ParseCandidates(root *codex.Node) ([]Candidate, error) {
	if root.Concept != "StageBCandidates" {
		return nil, &codex.StructuralError{Path: root.Concept, Message: fmt.Sprintf("root concept must be <StageBCandidates>, got <%s>", root.Concept)}
	}
	if err := codex.PipelineSchema().Validate(root); err != nil {
		return nil, err
	}
	var out []Candidate
	for _, cn := range root.ChildrenOf("Candidate") {
		c := Candidate{
			ID:              cn.MustGet("id"),
			HardResults:     map[string]bool{},
			SoftScores:      map[string]term.Decimal{},
			OverrideResults: map[OverrideKey]bool{},
		}
		for _, hn := range cn.ChildrenOf("HardResult") {
			c.HardResults[hn.MustGet("key")] = hn.MustGet("value") == "true"
		}
		for _, sn := range cn.ChildrenOf("SoftScore") {
			d, err := term.DecimalFromString(sn.MustGet("value"))
			if err != nil {
				return nil, fmt.Errorf("scoring: candidate %q soft score %q: %w", c.ID, sn.MustGet("key"), err)
			}
			c.SoftScores[sn.MustGet("key")] = d
		}
		for _, on := range cn.ChildrenOf("OverrideResult") {
			key := OverrideKey{Kind: on.MustGet("kind"), TargetRef: on.MustGet("targetRef")}
			c.OverrideResults[key] = on.MustGet("value") == "true"
		}
		out = append(out, c)
	}
	return out, nil
}

// ToNode renders r as a StageBResult codex envelope.
func (r *Result) ToNode() *codex.Node {
	root := &codex.Node{Concept: "StageBResult"}
	if r.Status == StatusError {
		root.Set("status", "error")
		root.Set("error", "EVALUATION_ERROR")
		return root
	}
	root.Set("status", "ok")
	root.Set("selectedCandidate", r.SelectedCandidate)
	root.Set("selectedScore", r.SelectedScore.String())
	for _, rr := range r.AppliedRelaxations {
		n := &codex.Node{Concept: "AppliedRelaxation"}
		if rr.RelaxWeightClass != "" {
			n.Set("relaxWeightClass", rr.RelaxWeightClass)
		}
		n.Set("relaxationAction", rr.RelaxationAction)
		root.Children = append(root.Children, n)
	}
	return root
}

// FromNode parses a StageBResult envelope previously emitted by ToNode.
func FromNode(root *codex.Node) (*Result, error) {
	if root.Concept != "StageBResult" {
		return nil, &codex.StructuralError{Path: root.Concept, Message: fmt.Sprintf("root concept must be <StageBResult>, got <%s>", root.Concept)}
	}
	if err := codex.PipelineSchema().Validate(root); err != nil {
		return nil, err
	}
	if root.MustGet("status") == "error" {
		return &Result{Status: StatusError}, nil
	}
	score, err := term.DecimalFromString(root.MustGet("selectedScore"))
	if err != nil {
		return nil, err
	}
	r := &Result{Status: StatusOK, SelectedCandidate: root.MustGet("selectedCandidate"), SelectedScore: score}
	for _, n := range root.ChildrenOf("AppliedRelaxation") {
		wc, _ := n.Get("relaxWeightClass")
		r.AppliedRelaxations = append(r.AppliedRelaxations, AppliedRelaxation{
			RelaxWeightClass: wc,
			RelaxationAction: n.MustGet("relaxationAction"),
		})
	}
	return r, nil
}
