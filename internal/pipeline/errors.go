// Package pipeline composes the graph/canon/codex/intent/policy/scoring
// layers end to end and enforces the pipeline's procedural invariants.
// The error taxonomy lives in the leaf package
// evalerr (policy and scoring report through it directly, to avoid an
// import cycle through this package); pipeline re-exports those names at
// its own boundary so callers that only ever talk to pipeline — the CLI,
// the conformance checker — don't need a second import.
package pipeline

import "github.com/opalforge/adaptiveplan/internal/evalerr"

// SemanticConstraintError covers singularity violations, untyped nodes,
// missing context keys, type mismatches in conditions, mixed conflict
// strategies, missing hard/override/soft candidate entries, out-of-range
// scores, and an empty active soft-term set.
type SemanticConstraintError = evalerr.SemanticConstraintError

// PreconditionError covers SHACL non-conformance, forbidden implicit
// properties, missing materialized defaults, non-NFC terms, and blank
// nodes.
type PreconditionError = evalerr.PreconditionError

// ExhaustionError reports a Stage B relaxation cascade that ran out of
// rules without producing a feasible, qualifying candidate.
type ExhaustionError = evalerr.ExhaustionError

// LinkageError reports that a package and its decision report disagree on
// adaptivePlanPackageContentHash — only raised by the end-to-end
// conformance checker, never by Stage C itself.
type LinkageError = evalerr.LinkageError

// EvaluationErrorCode is the single error code every stage envelope
// surfaces on failure, regardless of which category above produced it.
const EvaluationErrorCode = evalerr.EvaluationErrorCode

// Stage names used in AdaptiveDecisionReport.failedStage.
const (
	FailedStageA = evalerr.FailedStageA
	FailedStageB = evalerr.FailedStageB
)
