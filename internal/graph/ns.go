package graph

import "github.com/opalforge/adaptiveplan/internal/term"

// Namespace IRIs fixed by this implementation: one stable vocabulary
// rather than a per-fixture choice.
const (
	nsRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsAP  = "https://adaptiveplan.dev/ns#"
)

// Generic RDF predicate.
var PredType = term.IRI(nsRDF + "type")

// Domain classes checked during Stage A candidate collection.
var (
	ClassComposition = term.IRI(nsAP + "Composition")
	ClassView        = term.IRI(nsAP + "View")
	ClassPolicy      = term.IRI(nsAP + "Policy")
	ClassAction      = term.IRI(nsAP + "Action")
)

// Ownership predicate used by the scoped subgraph.
var PredOwnedBy = term.IRI(nsAP + "ownedBy")

// Style classes and predicates checked by defaults materialization: every
// Stroke must carry strokeWidth, every BaselineGrid must carry baselineStep.
var (
	ClassStroke       = term.IRI(nsAP + "Stroke")
	PredStrokeWidth   = term.IRI(nsAP + "strokeWidth")
	ClassBaselineGrid = term.IRI(nsAP + "BaselineGrid")
	PredBaselineStep  = term.IRI(nsAP + "baselineStep")
)

// Policy/condition/action predicates.
var (
	PredPriority         = term.IRI(nsAP + "priority")
	PredConflictStrategy = term.IRI(nsAP + "conflictStrategy")
	PredEnabled          = term.IRI(nsAP + "enabled")
	PredAppliesTo        = term.IRI(nsAP + "appliesTo")
	PredHasCondition     = term.IRI(nsAP + "hasCondition")
	PredHasAction        = term.IRI(nsAP + "hasAction")
	PredContextKey       = term.IRI(nsAP + "contextKey")
	PredOperator         = term.IRI(nsAP + "operator")
	PredConditionValue   = term.IRI(nsAP + "conditionValue")
	PredMode             = term.IRI(nsAP + "mode")
	PredTargetNode       = term.IRI(nsAP + "targetNode")
	PredTargetProperty   = term.IRI(nsAP + "targetProperty")
	PredActionValue      = term.IRI(nsAP + "actionValue")
)
