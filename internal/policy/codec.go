package policy

import (
	"fmt"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/term"
)

func actionModeString(m ActionMode) string {
	switch m {
	case ModeReplaceAll:
		return "ReplaceAll"
	case ModeAdd:
		return "Add"
	default:
		return "Remove"
	}
}

func objectTraitValue(o term.Object) string {
	if o.IsIRI {
		return string(o.IRIVal)
	}
	return o.LitVal.Lexical
}

// ToNode renders r as a StageAResult codex envelope.
func (r *Result) ToNode() *codex.Node {
	root := &codex.Node{Concept: "StageAResult"}
	if r.Status == StatusError {
		root.Set("status", "error")
		root.Set("error", "EVALUATION_ERROR")
		return root
	}
	root.Set("status", "ok")
	for _, a := range r.SelectedActions {
		n := &codex.Node{Concept: "SelectedAction"}
		n.Set("actionIri", string(a.ActionIRI))
		n.Set("mode", actionModeString(a.Mode))
		n.Set("targetNode", string(a.TargetNode))
		n.Set("targetProperty", string(a.TargetProperty))
		n.Set("value", objectTraitValue(a.Value))
		root.Children = append(root.Children, n)
	}
	deltaNode := &codex.Node{Concept: "Delta"}
	for _, line := range r.Delta.Remove {
		n := &codex.Node{Concept: "Remove"}
		n.Set("line", line)
		deltaNode.Children = append(deltaNode.Children, n)
	}
	for _, line := range r.Delta.Add {
		n := &codex.Node{Concept: "Add"}
		n.Set("line", line)
		deltaNode.Children = append(deltaNode.Children, n)
	}
	root.Children = append(root.Children, deltaNode)
	return root
}

// FromNode parses a StageAResult envelope previously emitted by ToNode —
// used by the emit-stage-c CLI command, which reads Stage A's result back
// from disk rather than recomputing it.
func FromNode(root *codex.Node) (*Result, error) {
	if root.Concept != "StageAResult" {
		return nil, &codex.StructuralError{Path: root.Concept, Message: fmt.Sprintf("root concept must be <StageAResult>, got <%s>", root.Concept)}
	}
	if err := codex.PipelineSchema().Validate(root); err != nil {
		return nil, err
	}
	if root.MustGet("status") == "error" {
		return &Result{Status: StatusError}, nil
	}
	r := &Result{Status: StatusOK, Delta: Delta{Remove: []string{}, Add: []string{}}}
	for _, n := range root.ChildrenOf("SelectedAction") {
		mode, ok := parseActionMode(n.MustGet("mode"))
		if !ok {
			return nil, fmt.Errorf("policy: unknown action mode %q", n.MustGet("mode"))
		}
		r.SelectedActions = append(r.SelectedActions, SelectedAction{
			ActionIRI:      term.IRI(n.MustGet("actionIri")),
			Mode:           mode,
			TargetNode:     term.IRI(n.MustGet("targetNode")),
			TargetProperty: term.IRI(n.MustGet("targetProperty")),
			Value:          term.ObjLiteral(term.Literal{Lexical: n.MustGet("value")}),
		})
	}
	deltas := root.ChildrenOf("Delta")
	if len(deltas) == 1 {
		for _, n := range deltas[0].ChildrenOf("Remove") {
			r.Delta.Remove = append(r.Delta.Remove, n.MustGet("line"))
		}
		for _, n := range deltas[0].ChildrenOf("Add") {
			r.Delta.Add = append(r.Delta.Add, n.MustGet("line"))
		}
	}
	return r, nil
}
