package intent

import (
	"fmt"
	"strconv"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/term"
)

// ToNode renders cr as a CompiledAdaptiveRequest codex envelope.
func (cr *CompiledRequest) ToNode() *codex.Node {
	root := &codex.Node{Concept: "CompiledAdaptiveRequest"}
	root.Set("intentId", cr.IntentID)
	root.Set("targetFoundry", cr.TargetFoundry)
	root.Set("policySetRef", cr.PolicySetRef)

	sa := &codex.Node{Concept: "StageAContext"}
	sa.Set("compositionIri", cr.StageA.CompositionIRI)
	if cr.StageA.HasView {
		sa.Set("viewIri", cr.StageA.ViewIRI)
	}
	for _, e := range cr.StageA.Context {
		sa.Children = append(sa.Children, typedValueNode("ContextEntry", e.Key, e.Value))
	}
	root.Children = append(root.Children, sa)

	sb := &codex.Node{Concept: "StageBProfile"}
	for _, e := range cr.StageB.ContextExt {
		sb.Children = append(sb.Children, typedValueNode("ContextExtEntry", e.Key, e.Value))
	}
	for _, o := range cr.StageB.Objective {
		n := &codex.Node{Concept: "ObjectiveEntry"}
		n.Set("key", o.Key)
		n.Set("priority", o.Priority)
		n.Set("priorityWeight", o.PriorityWeight.String())
		sb.Children = append(sb.Children, n)
	}
	opt := &codex.Node{Concept: "OptimizationProfile"}
	for _, hc := range cr.StageB.Optimization.HardConstraints {
		n := &codex.Node{Concept: "HardConstraint"}
		n.Set("key", hc.Key)
		n.Set("scope", hc.Scope)
		n.Set("targetRef", hc.TargetRef)
		n.Set("constraintValue", hc.ConstraintValue)
		opt.Children = append(opt.Children, n)
	}
	for _, st := range cr.StageB.Optimization.SoftTerms {
		n := &codex.Node{Concept: "SoftTerm"}
		n.Set("key", st.Key)
		n.Set("scope", st.Scope)
		n.Set("targetRef", st.TargetRef)
		n.Set("weightClass", st.WeightClass)
		n.Set("weight", st.Weight.String())
		opt.Children = append(opt.Children, n)
	}
	for _, rr := range cr.StageB.Optimization.RelaxationRules {
		n := &codex.Node{Concept: "RelaxationRule"}
		n.Set("relaxOrder", strconv.Itoa(rr.RelaxOrder))
		if rr.HasWeightClass {
			n.Set("relaxWeightClass", rr.RelaxWeightClass)
		}
		n.Set("relaxationAction", rr.RelaxationAction)
		opt.Children = append(opt.Children, n)
	}
	if cr.StageB.Optimization.SatisficeThreshold != nil {
		opt.Set("satisficeThreshold", cr.StageB.Optimization.SatisficeThreshold.String())
	}
	sb.Children = append(sb.Children, opt)

	if cr.StageB.Override != nil {
		ov := &codex.Node{Concept: "OverrideSet"}
		ov.Set("overrideMode", cr.StageB.Override.OverrideMode)
		for _, oc := range cr.StageB.Override.Constraints {
			n := &codex.Node{Concept: "OverrideConstraint"}
			n.Set("targetRef", oc.TargetRef)
			n.Set("overrideKind", oc.OverrideKind)
			n.Set("priority", oc.Priority)
			ov.Children = append(ov.Children, n)
		}
		sb.Children = append(sb.Children, ov)
	}
	root.Children = append(root.Children, sb)
	return root
}

func typedValueNode(concept, key string, v term.TypedValue) *codex.Node {
	n := &codex.Node{Concept: concept}
	n.Set("key", key)
	n.Set("kind", v.Kind.String())
	switch v.Kind {
	case term.KindInteger:
		n.Set("value", strconv.FormatInt(v.Int, 10))
	case term.KindDecimal:
		n.Set("value", v.Decimal.String())
	case term.KindBoolean:
		n.Set("value", strconv.FormatBool(v.Bool))
	default:
		n.Set("value", v.Str)
	}
	return n
}

// ParseCompiled reads a CompiledAdaptiveRequest envelope back into a
// CompiledRequest, for the evaluate-stage-a/evaluate-stage-b CLI commands.
func ParseCompiled(root *codex.Node) (*CompiledRequest, error) {
	if root.Concept != "CompiledAdaptiveRequest" {
		return nil, &codex.StructuralError{Path: root.Concept, Message: fmt.Sprintf("root concept must be <CompiledAdaptiveRequest>, got <%s>", root.Concept)}
	}
	if err := codex.PipelineSchema().Validate(root); err != nil {
		return nil, err
	}
	cr := &CompiledRequest{
		IntentID:      root.MustGet("intentId"),
		TargetFoundry: root.MustGet("targetFoundry"),
		PolicySetRef:  root.MustGet("policySetRef"),
	}
	saNodes := root.ChildrenOf("StageAContext")
	sbNodes := root.ChildrenOf("StageBProfile")
	if len(saNodes) != 1 || len(sbNodes) != 1 {
		return nil, fmt.Errorf("intent: compiled request must carry exactly one StageAContext and one StageBProfile")
	}
	sa := saNodes[0]
	cr.StageA.CompositionIRI = sa.MustGet("compositionIri")
	if v, ok := sa.Get("viewIri"); ok && v != "" {
		cr.StageA.HasView = true
		cr.StageA.ViewIRI = v
	}
	for _, ce := range sa.ChildrenOf("ContextEntry") {
		tv, err := parseTypedValueNode(ce)
		if err != nil {
			return nil, err
		}
		cr.StageA.Context = append(cr.StageA.Context, ContextEntry{Key: ce.MustGet("key"), Value: tv})
	}

	sb := sbNodes[0]
	for _, ce := range sb.ChildrenOf("ContextExtEntry") {
		tv, err := parseTypedValueNode(ce)
		if err != nil {
			return nil, err
		}
		cr.StageB.ContextExt = append(cr.StageB.ContextExt, ContextEntry{Key: ce.MustGet("key"), Value: tv})
	}
	for _, o := range sb.ChildrenOf("ObjectiveEntry") {
		w, err := term.DecimalFromString(o.MustGet("priorityWeight"))
		if err != nil {
			return nil, err
		}
		cr.StageB.Objective = append(cr.StageB.Objective, ObjectiveEntry{
			Key: o.MustGet("key"), Priority: o.MustGet("priority"), PriorityWeight: w,
		})
	}
	optNodes := sb.ChildrenOf("OptimizationProfile")
	if len(optNodes) != 1 {
		return nil, fmt.Errorf("intent: StageBProfile must carry exactly one OptimizationProfile")
	}
	opt := optNodes[0]
	for _, hc := range opt.ChildrenOf("HardConstraint") {
		cr.StageB.Optimization.HardConstraints = append(cr.StageB.Optimization.HardConstraints, HardConstraint{
			Key: hc.MustGet("key"), Scope: hc.MustGet("scope"), TargetRef: hc.MustGet("targetRef"),
			ConstraintValue: hc.MustGet("constraintValue"),
		})
	}
	for _, st := range opt.ChildrenOf("SoftTerm") {
		w, err := term.DecimalFromString(st.MustGet("weight"))
		if err != nil {
			return nil, err
		}
		cr.StageB.Optimization.SoftTerms = append(cr.StageB.Optimization.SoftTerms, SoftTerm{
			Key: st.MustGet("key"), Scope: st.MustGet("scope"), TargetRef: st.MustGet("targetRef"),
			WeightClass: st.MustGet("weightClass"), Weight: w,
		})
	}
	for _, rr := range opt.ChildrenOf("RelaxationRule") {
		var order int
		fmt.Sscanf(rr.MustGet("relaxOrder"), "%d", &order)
		rule := RelaxationRule{RelaxOrder: order, RelaxationAction: rr.MustGet("relaxationAction")}
		if wc, ok := rr.Get("relaxWeightClass"); ok && wc != "" {
			rule.HasWeightClass = true
			rule.RelaxWeightClass = wc
		}
		cr.StageB.Optimization.RelaxationRules = append(cr.StageB.Optimization.RelaxationRules, rule)
	}
	if raw, ok := opt.Get("satisficeThreshold"); ok && raw != "" {
		d, err := term.DecimalFromString(raw)
		if err != nil {
			return nil, err
		}
		cr.StageB.Optimization.SatisficeThreshold = &d
	}

	ovNodes := sb.ChildrenOf("OverrideSet")
	if len(ovNodes) == 1 {
		ov := ovNodes[0]
		set := &OverrideSet{OverrideMode: ov.MustGet("overrideMode")}
		for _, oc := range ov.ChildrenOf("OverrideConstraint") {
			priority := oc.MustGet("priority")
			set.Constraints = append(set.Constraints, OverrideConstraint{
				TargetRef: oc.MustGet("targetRef"), OverrideKind: oc.MustGet("overrideKind"),
				Priority: priority, PriorityRank: overridePriorityRank[priority],
			})
		}
		cr.StageB.Override = set
	}
	return cr, nil
}

func parseTypedValueNode(n *codex.Node) (term.TypedValue, error) {
	return decodeTypedValue(n.MustGet("kind"), n.MustGet("value"))
}
