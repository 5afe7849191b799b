package intent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/term"
)

var priorityWeights = map[string]string{
	"must":    "1.0",
	"prefer":  "0.7",
	"neutral": "0.4",
}

var weightClassValues = map[string]string{
	"critical": "1.0",
	"high":     "0.75",
	"medium":   "0.5",
	"low":      "0.25",
}

var overridePriorityRank = map[string]int{
	"critical": 4,
	"high":     3,
	"medium":   2,
	"low":      1,
}

func stripToken(v string) string {
	return strings.TrimPrefix(v, "$")
}

// Compile parses an AdaptiveFixture envelope into a CompiledRequest,
// applying every token, viewport, weight, and ordering derivation.
func Compile(fixture *codex.Node) (*CompiledRequest, error) {
	if fixture.Concept != "AdaptiveFixture" {
		return nil, &codex.StructuralError{Path: fixture.Concept, Message: fmt.Sprintf("root concept must be <AdaptiveFixture>, got <%s>", fixture.Concept)}
	}
	if err := codex.PipelineSchema().Validate(fixture); err != nil {
		return nil, err
	}

	ctxProfiles := fixture.ChildrenOf("AdaptiveContextProfile")
	objProfiles := fixture.ChildrenOf("AdaptiveObjectiveProfile")
	optProfiles := fixture.ChildrenOf("AdaptiveOptimizationProfile")
	overrideSets := fixture.ChildrenOf("AdaptiveOverrideSet")
	intents := fixture.ChildrenOf("AdaptiveIntent")

	if len(ctxProfiles) != 1 || len(objProfiles) != 1 || len(optProfiles) != 1 || len(intents) != 1 {
		return nil, fmt.Errorf("intent: fixture must carry exactly one each of AdaptiveContextProfile, AdaptiveObjectiveProfile, AdaptiveOptimizationProfile, AdaptiveIntent")
	}
	if len(overrideSets) > 1 {
		return nil, fmt.Errorf("intent: at most one AdaptiveOverrideSet is allowed")
	}

	intentNode := intents[0]
	ctxNode := ctxProfiles[0]
	objNode := objProfiles[0]
	optNode := optProfiles[0]

	if intentNode.MustGet("contextProfileRef") != ctxNode.MustGet("profileId") {
		return nil, fmt.Errorf("intent: contextProfileRef must equal AdaptiveContextProfile.profileId")
	}
	if intentNode.MustGet("objectiveProfileRef") != objNode.MustGet("profileId") {
		return nil, fmt.Errorf("intent: objectiveProfileRef must equal AdaptiveObjectiveProfile.profileId")
	}
	if intentNode.MustGet("optimizationProfileRef") != optNode.MustGet("profileId") {
		return nil, fmt.Errorf("intent: optimizationProfileRef must equal AdaptiveOptimizationProfile.profileId")
	}

	var override *OverrideSet
	if len(overrideSets) == 1 {
		osNode := overrideSets[0]
		if intentNode.MustGet("overrideSetRef") != osNode.MustGet("overrideSetId") {
			return nil, fmt.Errorf("intent: overrideSetRef must equal AdaptiveOverrideSet.overrideSetId")
		}
		var err error
		override, err = compileOverrideSet(osNode)
		if err != nil {
			return nil, err
		}
	}

	stageA, err := compileStageAContext(intentNode, ctxNode)
	if err != nil {
		return nil, err
	}

	objective, err := compileObjective(objNode)
	if err != nil {
		return nil, err
	}

	optimization, err := compileOptimization(optNode)
	if err != nil {
		return nil, err
	}

	contextExt := compileContextExt(ctxNode)

	return &CompiledRequest{
		IntentID:      intentNode.MustGet("id"),
		TargetFoundry: intentNode.MustGet("targetFoundry"),
		PolicySetRef:  intentNode.MustGet("policySetRef"),
		StageA:        *stageA,
		StageB: StageBProfile{
			ContextExt:   contextExt,
			Objective:    objective,
			Optimization: *optimization,
			Override:     override,
		},
	}, nil
}

func compileStageAContext(intentNode, ctxNode *codex.Node) (*StageAContext, error) {
	sa := &StageAContext{
		CompositionIRI: intentNode.MustGet("compositionIri"),
	}
	if v, ok := intentNode.Get("viewIri"); ok && v != "" {
		sa.HasView = true
		sa.ViewIRI = v
	}

	entries, err := deriveViewportAndMotion(ctxNode)
	if err != nil {
		return nil, err
	}
	for _, ce := range ctxNode.ChildrenOf("ContextEntry") {
		tv, err := decodeTypedValue(ce.MustGet("kind"), ce.MustGet("value"))
		if err != nil {
			return nil, fmt.Errorf("intent: ContextEntry %q: %w", ce.MustGet("key"), err)
		}
		entries = append(entries, ContextEntry{Key: ce.MustGet("key"), Value: tv})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	sa.Context = entries
	return sa, nil
}

// deriveViewportAndMotion computes the viewport and reduced-motion
// derivations. Returns the entries it derived (Stage A context), in no
// particular order yet — the caller sorts the combined set.
func deriveViewportAndMotion(ctxNode *codex.Node) ([]ContextEntry, error) {
	var entries []ContextEntry

	widthStr, hasWidth := ctxNode.Get("viewportWidthPx")
	heightStr, hasHeight := ctxNode.Get("viewportHeightPx")
	if hasWidth && hasHeight {
		width, err := term.DecimalFromString(widthStr)
		if err != nil {
			return nil, fmt.Errorf("intent: invalid viewportWidthPx %q: %w", widthStr, err)
		}
		height, err := term.DecimalFromString(heightStr)
		if err != nil {
			return nil, fmt.Errorf("intent: invalid viewportHeightPx %q: %w", heightStr, err)
		}
		ratio := width.Div(height).RoundHalfEven(6)
		entries = append(entries, ContextEntry{Key: "ViewportAspectRatio", Value: term.NewDecimal(ratio)})

		diff := width.Sub(height)
		orientation := "square"
		switch diff.Sign() {
		case 1:
			orientation = "landscape"
		case -1:
			orientation = "portrait"
		}
		entries = append(entries, ContextEntry{Key: "ViewportOrientation", Value: term.NewString(orientation)})
		entries = append(entries, ContextEntry{Key: "viewportWidthPx", Value: term.NewInt(decimalToInt(width))})
		entries = append(entries, ContextEntry{Key: "viewportHeightPx", Value: term.NewInt(decimalToInt(height))})
	}

	if raw, ok := ctxNode.Get("reducedMotionPreference"); ok {
		token := stripToken(raw)
		var reduced bool
		switch token {
		case "reduce":
			reduced = true
		case "noPreference":
			reduced = false
		default:
			return nil, fmt.Errorf("intent: reducedMotionPreference must be reduce|noPreference, got %q", raw)
		}
		entries = append(entries, ContextEntry{Key: "ReducedMotionPreference", Value: term.NewBool(reduced)})
	}
	return entries, nil
}

func decodeTypedValue(kind, value string) (term.TypedValue, error) {
	switch kind {
	case "integer":
		d, err := term.DecimalFromString(value)
		if err != nil {
			return term.TypedValue{}, err
		}
		return term.NewInt(decimalToInt(d)), nil
	case "decimal":
		d, err := term.DecimalFromString(value)
		if err != nil {
			return term.TypedValue{}, err
		}
		return term.NewDecimal(d), nil
	case "string":
		return term.NewString(value), nil
	case "boolean":
		switch value {
		case "true":
			return term.NewBool(true), nil
		case "false":
			return term.NewBool(false), nil
		default:
			return term.TypedValue{}, fmt.Errorf("invalid boolean %q", value)
		}
	default:
		return term.TypedValue{}, fmt.Errorf("unknown context value kind %q", kind)
	}
}

func decimalToInt(d term.Decimal) int64 {
	n := d.Normalize()
	var i int64
	fmt.Sscanf(n.String(), "%d", &i)
	return i
}

func compileContextExt(ctxNode *codex.Node) []ContextEntry {
	var entries []ContextEntry
	for _, ce := range ctxNode.ChildrenOf("ContextExtEntry") {
		tv, err := decodeTypedValue(ce.MustGet("kind"), ce.MustGet("value"))
		if err != nil {
			continue
		}
		entries = append(entries, ContextEntry{Key: ce.MustGet("key"), Value: tv})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func compileObjective(objNode *codex.Node) ([]ObjectiveEntry, error) {
	var out []ObjectiveEntry
	for _, o := range objNode.ChildrenOf("Objective") {
		priority := stripToken(o.MustGet("priority"))
		w, ok := priorityWeights[priority]
		if !ok {
			return nil, fmt.Errorf("intent: objective priority must be must|prefer|neutral, got %q", priority)
		}
		out = append(out, ObjectiveEntry{
			Key:            o.MustGet("key"),
			Priority:       priority,
			PriorityWeight: term.MustDecimal(w),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func compileOptimization(optNode *codex.Node) (*OptimizationProfile, error) {
	p := &OptimizationProfile{}

	for _, hc := range optNode.ChildrenOf("OptimizationHardConstraint") {
		p.HardConstraints = append(p.HardConstraints, HardConstraint{
			Key:             hc.MustGet("key"),
			Scope:           hc.MustGet("scope"),
			TargetRef:       hc.MustGet("targetRef"),
			ConstraintValue: hc.MustGet("constraintValue"),
		})
	}
	sort.Slice(p.HardConstraints, func(i, j int) bool {
		a, b := p.HardConstraints[i], p.HardConstraints[j]
		return hardConstraintLess(a, b)
	})

	for _, st := range optNode.ChildrenOf("OptimizationSoftTerm") {
		wc := stripToken(st.MustGet("weightClass"))
		w, ok := weightClassValues[wc]
		if !ok {
			return nil, fmt.Errorf("intent: soft term weightClass must be critical|high|medium|low, got %q", wc)
		}
		p.SoftTerms = append(p.SoftTerms, SoftTerm{
			Key:         st.MustGet("key"),
			Scope:       st.MustGet("scope"),
			TargetRef:   st.MustGet("targetRef"),
			WeightClass: wc,
			Weight:      term.MustDecimal(w),
		})
	}
	sort.Slice(p.SoftTerms, func(i, j int) bool {
		a, b := p.SoftTerms[i], p.SoftTerms[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Scope != b.Scope {
			return a.Scope < b.Scope
		}
		if a.TargetRef != b.TargetRef {
			return a.TargetRef < b.TargetRef
		}
		return a.WeightClass < b.WeightClass
	})

	for _, rr := range optNode.ChildrenOf("RelaxationRule") {
		var order int
		fmt.Sscanf(rr.MustGet("relaxOrder"), "%d", &order)
		rule := RelaxationRule{
			RelaxOrder:       order,
			RelaxationAction: rr.MustGet("relaxationAction"),
		}
		if wc, ok := rr.Get("relaxWeightClass"); ok && wc != "" {
			rule.HasWeightClass = true
			rule.RelaxWeightClass = stripToken(wc)
		}
		p.RelaxationRules = append(p.RelaxationRules, rule)
	}
	sort.Slice(p.RelaxationRules, func(i, j int) bool {
		a, b := p.RelaxationRules[i], p.RelaxationRules[j]
		if a.RelaxOrder != b.RelaxOrder {
			return a.RelaxOrder < b.RelaxOrder
		}
		if a.RelaxWeightClass != b.RelaxWeightClass {
			return a.RelaxWeightClass < b.RelaxWeightClass
		}
		return a.RelaxationAction < b.RelaxationAction
	})

	if raw, ok := optNode.Get("satisficeThreshold"); ok && raw != "" {
		d, err := term.DecimalFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("intent: invalid satisficeThreshold %q: %w", raw, err)
		}
		p.SatisficeThreshold = &d
	}
	return p, nil
}

func hardConstraintLess(a, b HardConstraint) bool {
	if a.Key != b.Key {
		return a.Key < b.Key
	}
	if a.Scope != b.Scope {
		return a.Scope < b.Scope
	}
	if a.TargetRef != b.TargetRef {
		return a.TargetRef < b.TargetRef
	}
	return a.ConstraintValue < b.ConstraintValue
}

func compileOverrideSet(osNode *codex.Node) (*OverrideSet, error) {
	mode := osNode.MustGet("overrideMode")
	if mode != "strict" && mode != "advisory" {
		return nil, fmt.Errorf("intent: overrideMode must be strict|advisory, got %q", mode)
	}
	set := &OverrideSet{OverrideMode: mode}
	for _, oc := range osNode.ChildrenOf("OverrideConstraint") {
		priority := stripToken(oc.MustGet("priority"))
		rank, ok := overridePriorityRank[priority]
		if !ok {
			return nil, fmt.Errorf("intent: override priority must be critical|high|medium|low, got %q", priority)
		}
		set.Constraints = append(set.Constraints, OverrideConstraint{
			TargetRef:    oc.MustGet("targetRef"),
			OverrideKind: oc.MustGet("overrideKind"),
			Priority:     priority,
			PriorityRank: rank,
		})
	}
	sort.Slice(set.Constraints, func(i, j int) bool {
		a, b := set.Constraints[i], set.Constraints[j]
		if a.PriorityRank != b.PriorityRank {
			return a.PriorityRank > b.PriorityRank // descending rank == "-priorityRank" ascending
		}
		if a.TargetRef != b.TargetRef {
			return a.TargetRef < b.TargetRef
		}
		return a.OverrideKind < b.OverrideKind
	})
	return set, nil
}
