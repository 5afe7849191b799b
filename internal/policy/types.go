// Package policy implements Stage A: policy candidate collection, condition
// evaluation, action ordering, conflict resolution, and delta application
// over an RDF policy graph: a match-then-order-then-apply pipeline whose
// every ordering is total, so two runs over identical inputs produce
// identical results.
package policy

import (
	"github.com/opalforge/adaptiveplan/internal/term"
)

// Operator is a condition comparison operator.
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
)

func parseOperator(s string) (Operator, bool) {
	switch s {
	case "Eq":
		return OpEq, true
	case "Ne":
		return OpNe, true
	case "Lt":
		return OpLt, true
	case "Lte":
		return OpLte, true
	case "Gt":
		return OpGt, true
	case "Gte":
		return OpGte, true
	default:
		return 0, false
	}
}

// ActionMode is a delta-application mode.
type ActionMode int

const (
	ModeReplaceAll ActionMode = iota
	ModeAdd
	ModeRemove
)

func parseActionMode(s string) (ActionMode, bool) {
	switch s {
	case "ReplaceAll":
		return ModeReplaceAll, true
	case "Add":
		return ModeAdd, true
	case "Remove":
		return ModeRemove, true
	default:
		return 0, false
	}
}

// ConflictStrategy governs how actions targeting the same (node, property)
// are reconciled.
type ConflictStrategy int

const (
	ErrorOnConflict ConflictStrategy = iota
	FirstMatchWins
	HigherPriorityWins
)

func parseConflictStrategy(s string) (ConflictStrategy, bool) {
	switch s {
	case "ErrorOnConflict":
		return ErrorOnConflict, true
	case "FirstMatchWins":
		return FirstMatchWins, true
	case "HigherPriorityWins":
		return HigherPriorityWins, true
	default:
		return 0, false
	}
}

// Status mirrors the fail-closed envelope contract.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

// Delta is the sorted, deduplicated N-Triples lines Stage A's action
// application produced.
type Delta struct {
	Remove []string
	Add    []string
}

// SelectedAction is one action IRI that survived conflict resolution and was
// applied, in conflict-resolution order.
type SelectedAction struct {
	ActionIRI      term.IRI
	Mode           ActionMode
	TargetNode     term.IRI
	TargetProperty term.IRI
	Value          term.Object
}

// Result is the immutable StageAResult artifact.
type Result struct {
	Status          Status
	SelectedActions []SelectedAction
	Delta           Delta
}
