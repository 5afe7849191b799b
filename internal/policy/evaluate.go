package policy

import (
	"fmt"
	"sort"

	"github.com/opalforge/adaptiveplan/internal/canon"
	"github.com/opalforge/adaptiveplan/internal/evalerr"
	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/invariant"
	"github.com/opalforge/adaptiveplan/internal/shacl"
	"github.com/opalforge/adaptiveplan/internal/term"
)

// policyRecord is one fully-read Policy node, ahead of ordering.
type policyRecord struct {
	iri              term.IRI
	priority         int64
	strategy         ConflictStrategy
	specificityRank  int
	conditions       []conditionRecord
	actions          []actionRecord
}

type conditionRecord struct {
	contextKey term.IRI
	operator   Operator
	value      term.TypedValue
}

type actionRecord struct {
	iri            term.IRI
	mode           ActionMode
	targetNode     term.IRI
	targetProperty term.IRI
	value          term.Object
}

// Evaluate runs Stage A against g, returning a fresh Result. g
// itself is never modified; the delta is applied to an internal clone.
func Evaluate(req *intent.CompiledRequest, g *graph.Graph, shapes, ontology string, oracle shacl.Validator) (*Result, error) {
	invariant.NotNil(req, "req")
	invariant.NotNil(g, "g")

	if report, err := oracle.ValidateGraph(g, shapes, ontology); err != nil || !report.Conforms {
		return &Result{Status: StatusError}, &evalerr.PreconditionError{Reason: "pre-validation: SHACL graph does not conform"}
	}

	composition := term.IRI(req.StageA.CompositionIRI)
	if !g.HasType(composition, graph.ClassComposition) {
		return &Result{Status: StatusError}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("composition %q is not typed Composition", composition)}
	}
	var view term.IRI
	hasView := req.StageA.HasView
	if hasView {
		view = term.IRI(req.StageA.ViewIRI)
		if !g.HasType(view, graph.ClassView) {
			return &Result{Status: StatusError}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("view %q is not typed View", view)}
		}
	}

	ctxMap := map[term.IRI]term.TypedValue{}
	for _, e := range req.StageA.Context {
		ctxMap[term.IRI(e.Key)] = e.Value
	}

	records, err := collectCandidates(g, composition, view, hasView)
	if err != nil {
		return &Result{Status: StatusError}, err
	}

	var matched []policyRecord
	for _, pr := range records {
		ok, err := matches(pr, ctxMap)
		if err != nil {
			return &Result{Status: StatusError}, err
		}
		if ok {
			matched = append(matched, pr)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return policyLess(matched[i], matched[j]) })
	invariant.Sorted(matched, policyLess, "matched policies")

	if len(matched) == 0 {
		empty := &Result{Status: StatusOK, Delta: Delta{Remove: []string{}, Add: []string{}}}
		if report, err := oracle.ValidateGraph(g, shapes, ontology); err != nil || !report.Conforms {
			return &Result{Status: StatusError}, &evalerr.PreconditionError{Reason: "post-validation: SHACL graph does not conform"}
		}
		return empty, nil
	}

	strategy := matched[0].strategy
	for _, pr := range matched[1:] {
		if pr.strategy != strategy {
			return &Result{Status: StatusError}, &evalerr.SemanticConstraintError{Reason: "matched policies disagree on conflictStrategy"}
		}
	}

	var ordered []actionRecord
	for _, pr := range matched {
		acts := append([]actionRecord(nil), pr.actions...)
		sort.Slice(acts, func(i, j int) bool { return acts[i].iri < acts[j].iri })
		ordered = append(ordered, acts...)
	}

	resolved, err := resolveConflicts(ordered, strategy)
	if err != nil {
		return &Result{Status: StatusError}, err
	}

	clone := g.Clone()
	var selected []SelectedAction
	var removed, added []graph.Triple
	for _, a := range resolved {
		r, ad := applyAction(clone, a)
		removed = append(removed, r...)
		added = append(added, ad...)
		selected = append(selected, SelectedAction{
			ActionIRI: a.iri, Mode: a.mode, TargetNode: a.targetNode,
			TargetProperty: a.targetProperty, Value: a.value,
		})
	}

	if report, err := oracle.ValidateGraph(clone, shapes, ontology); err != nil || !report.Conforms {
		return &Result{Status: StatusError}, &evalerr.PreconditionError{Reason: "post-validation: SHACL graph does not conform"}
	}

	return &Result{
		Status:          StatusOK,
		SelectedActions: selected,
		Delta: Delta{
			Remove: sortedUniqueLines(removed),
			Add:    sortedUniqueLines(added),
		},
	}, nil
}

func sortedUniqueLines(ts []graph.Triple) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range canon.SortTriples(ts) {
		line := canon.NTriplesLine(t)
		if !seen[line] {
			seen[line] = true
			out = append(out, line)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func collectCandidates(g *graph.Graph, composition, view term.IRI, hasView bool) ([]policyRecord, error) {
	var records []policyRecord
	seen := map[term.IRI]bool{}
	targets := []term.IRI{composition}
	if hasView {
		targets = append(targets, view)
	}
	for _, target := range targets {
		for _, t := range g.ByPredicate(graph.PredAppliesTo) {
			if !t.Object.IsIRI || t.Object.IRIVal != target {
				continue
			}
			p := t.Subject
			if seen[p] {
				continue
			}
			seen[p] = true
			rec, ok, err := readPolicy(g, p, view, hasView)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			rec.specificityRank = 1
			if hasView && t.Object.IRIVal == view {
				rec.specificityRank = 0
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func readPolicy(g *graph.Graph, p term.IRI, view term.IRI, hasView bool) (policyRecord, bool, error) {
	if !g.HasType(p, graph.ClassPolicy) {
		return policyRecord{}, false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("policy %q is not typed Policy", p)}
	}
	enabledObjs := g.ObjectsOf(p, graph.PredEnabled)
	if len(enabledObjs) != 1 || enabledObjs[0].IsIRI || enabledObjs[0].LitVal.Lexical != "true" {
		return policyRecord{}, false, nil
	}
	priorityObjs := g.ObjectsOf(p, graph.PredPriority)
	strategyObjs := g.ObjectsOf(p, graph.PredConflictStrategy)
	appliesObjs := g.ObjectsOf(p, graph.PredAppliesTo)
	if len(priorityObjs) != 1 || len(strategyObjs) != 1 || len(appliesObjs) != 1 {
		return policyRecord{}, false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("policy %q must be singular-valued for priority/conflictStrategy/appliesTo", p)}
	}
	var priority int64
	if _, err := fmt.Sscanf(priorityObjs[0].LitVal.Lexical, "%d", &priority); err != nil {
		return policyRecord{}, false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("policy %q has non-integer priority", p)}
	}
	strategy, ok := parseConflictStrategy(strategyObjs[0].LitVal.Lexical)
	if !ok {
		return policyRecord{}, false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("policy %q has unknown conflictStrategy %q", p, strategyObjs[0].LitVal.Lexical)}
	}

	var conds []conditionRecord
	for _, o := range g.ObjectsOf(p, graph.PredHasCondition) {
		if !o.IsIRI {
			return policyRecord{}, false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("policy %q has non-IRI condition reference", p)}
		}
		cr, err := readCondition(g, o.IRIVal)
		if err != nil {
			return policyRecord{}, false, err
		}
		conds = append(conds, cr)
	}
	if len(conds) == 0 {
		return policyRecord{}, false, nil
	}

	var acts []actionRecord
	for _, o := range g.ObjectsOf(p, graph.PredHasAction) {
		if !o.IsIRI {
			return policyRecord{}, false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("policy %q has non-IRI action reference", p)}
		}
		ar, err := readAction(g, o.IRIVal)
		if err != nil {
			return policyRecord{}, false, err
		}
		acts = append(acts, ar)
	}
	if len(acts) == 0 {
		return policyRecord{}, false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("policy %q has no actions", p)}
	}

	return policyRecord{iri: p, priority: priority, strategy: strategy, conditions: conds, actions: acts}, true, nil
}

func readCondition(g *graph.Graph, c term.IRI) (conditionRecord, error) {
	keyObjs := g.ObjectsOf(c, graph.PredContextKey)
	opObjs := g.ObjectsOf(c, graph.PredOperator)
	valObjs := g.ObjectsOf(c, graph.PredConditionValue)
	if len(keyObjs) != 1 || len(opObjs) != 1 || len(valObjs) != 1 {
		return conditionRecord{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("condition %q must carry exactly one contextKey/operator/conditionValue", c)}
	}
	if !keyObjs[0].IsIRI {
		return conditionRecord{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("condition %q contextKey must be an IRI", c)}
	}
	op, ok := parseOperator(opObjs[0].LitVal.Lexical)
	if !ok {
		return conditionRecord{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("condition %q has unknown operator %q", c, opObjs[0].LitVal.Lexical)}
	}
	tv, err := objectToTypedValue(valObjs[0])
	if err != nil {
		return conditionRecord{}, err
	}
	return conditionRecord{contextKey: keyObjs[0].IRIVal, operator: op, value: tv}, nil
}

func readAction(g *graph.Graph, a term.IRI) (actionRecord, error) {
	if !g.HasType(a, graph.ClassAction) {
		return actionRecord{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("action %q is not typed Action", a)}
	}
	modeObjs := g.ObjectsOf(a, graph.PredMode)
	nodeObjs := g.ObjectsOf(a, graph.PredTargetNode)
	propObjs := g.ObjectsOf(a, graph.PredTargetProperty)
	valObjs := g.ObjectsOf(a, graph.PredActionValue)
	if len(modeObjs) != 1 || len(nodeObjs) != 1 || len(propObjs) != 1 || len(valObjs) != 1 {
		return actionRecord{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("action %q must carry exactly one mode/targetNode/targetProperty/actionValue", a)}
	}
	mode, ok := parseActionMode(modeObjs[0].LitVal.Lexical)
	if !ok {
		return actionRecord{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("action %q has unknown mode %q", a, modeObjs[0].LitVal.Lexical)}
	}
	if !nodeObjs[0].IsIRI || !propObjs[0].IsIRI {
		return actionRecord{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("action %q targetNode/targetProperty must be IRIs", a)}
	}
	return actionRecord{
		iri: a, mode: mode, targetNode: nodeObjs[0].IRIVal, targetProperty: propObjs[0].IRIVal, value: valObjs[0],
	}, nil
}

func objectToTypedValue(o term.Object) (term.TypedValue, error) {
	if o.IsIRI {
		return term.NewIRI(o.IRIVal), nil
	}
	lit := o.LitVal
	switch lit.Datatype {
	case term.IRI("xsd:integer"), term.IRI("http://www.w3.org/2001/XMLSchema#integer"):
		var i int64
		if _, err := fmt.Sscanf(lit.Lexical, "%d", &i); err != nil {
			return term.TypedValue{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("malformed integer literal %q", lit.Lexical)}
		}
		return term.NewInt(i), nil
	case term.IRI("xsd:decimal"), term.IRI("http://www.w3.org/2001/XMLSchema#decimal"):
		d, err := term.DecimalFromString(lit.Lexical)
		if err != nil {
			return term.TypedValue{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("malformed decimal literal %q", lit.Lexical)}
		}
		return term.NewDecimal(d), nil
	case term.IRI("xsd:boolean"), term.IRI("http://www.w3.org/2001/XMLSchema#boolean"):
		switch lit.Lexical {
		case "true":
			return term.NewBool(true), nil
		case "false":
			return term.NewBool(false), nil
		default:
			return term.TypedValue{}, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("malformed boolean literal %q", lit.Lexical)}
		}
	default:
		return term.NewString(lit.Lexical), nil
	}
}

// matches reports whether every condition evaluates true, with strict type
// matching except integer/decimal cross-numeric compare.
func matches(pr policyRecord, ctx map[term.IRI]term.TypedValue) (bool, error) {
	for _, c := range pr.conditions {
		cv, ok := ctx[c.contextKey]
		if !ok {
			return false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("missing context key %q required by policy %q", c.contextKey, pr.iri)}
		}
		ok, err := evalCondition(cv, c.operator, c.value)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evalCondition(actual term.TypedValue, op Operator, want term.TypedValue) (bool, error) {
	numericOp := op != OpEq && op != OpNe
	bothNumeric := actual.IsNumeric() && want.IsNumeric()

	if numericOp {
		if !bothNumeric {
			return false, &evalerr.SemanticConstraintError{Reason: "ordering operator requires numeric operands"}
		}
		cmp := actual.AsDecimal().Cmp(want.AsDecimal())
		switch op {
		case OpLt:
			return cmp < 0, nil
		case OpLte:
			return cmp <= 0, nil
		case OpGt:
			return cmp > 0, nil
		case OpGte:
			return cmp >= 0, nil
		}
	}

	if !bothNumeric && actual.Kind != want.Kind {
		return false, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("condition type mismatch: context value is %s, condition expects %s", actual.Kind, want.Kind)}
	}
	eq := actual.Equal(want)
	if op == OpNe {
		return !eq, nil
	}
	return eq, nil
}

// policyLess orders policies ascending by (−priority, specificityRank,
// str(policyIri)).
func policyLess(a, b policyRecord) bool {
	if a.priority != b.priority {
		return a.priority > b.priority // −priority ascending == priority descending
	}
	if a.specificityRank != b.specificityRank {
		return a.specificityRank < b.specificityRank
	}
	return a.iri < b.iri
}

// resolveConflicts applies the shared conflict strategy to the ordered
// action list.
func resolveConflicts(actions []actionRecord, strategy ConflictStrategy) ([]actionRecord, error) {
	type key struct{ node, prop term.IRI }
	switch strategy {
	case ErrorOnConflict:
		counts := map[key]int{}
		for _, a := range actions {
			counts[key{a.targetNode, a.targetProperty}]++
		}
		for k, c := range counts {
			if c > 1 {
				return nil, &evalerr.SemanticConstraintError{Reason: fmt.Sprintf("conflicting actions on (%s, %s) under ErrorOnConflict", k.node, k.prop)}
			}
		}
		return actions, nil
	case FirstMatchWins, HigherPriorityWins:
		seen := map[key]bool{}
		var out []actionRecord
		for _, a := range actions {
			k := key{a.targetNode, a.targetProperty}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, a)
		}
		return out, nil
	default:
		return nil, &evalerr.SemanticConstraintError{Reason: "unknown conflict strategy"}
	}
}

// applyAction applies a to g, returning the removed/added triples.
func applyAction(g *graph.Graph, a actionRecord) (removed, added []graph.Triple) {
	switch a.mode {
	case ModeReplaceAll:
		removed = g.RemoveAll(a.targetNode, a.targetProperty)
		t := graph.Triple{Subject: a.targetNode, Predicate: a.targetProperty, Object: a.value}
		if g.Add(t) {
			added = append(added, t)
		}
	case ModeAdd:
		t := graph.Triple{Subject: a.targetNode, Predicate: a.targetProperty, Object: a.value}
		if g.Add(t) {
			added = append(added, t)
		}
	case ModeRemove:
		t := graph.Triple{Subject: a.targetNode, Predicate: a.targetProperty, Object: a.value}
		if g.RemoveExact(t) {
			removed = append(removed, t)
		}
	}
	return removed, added
}
