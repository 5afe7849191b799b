// Package evalerr defines the pipeline's error taxonomy — the leaf
// package both Stage A (policy) and Stage B (scoring) report through, and
// that package pipeline re-exports at its own boundary. Keeping the
// taxonomy in its own leaf package (rather than in pipeline itself) avoids
// an import cycle: policy and scoring need these types, and pipeline needs
// policy and scoring to compose the end-to-end driver.
package evalerr

import "fmt"

// SemanticConstraintError covers singularity violations, untyped nodes,
// missing context keys, type mismatches in conditions, mixed conflict
// strategies, missing hard/override/soft candidate entries, out-of-range
// scores, and an empty active soft-term set.
type SemanticConstraintError struct {
	Reason string
}

func (e *SemanticConstraintError) Error() string {
	return fmt.Sprintf("semantic constraint violation: %s", e.Reason)
}

// PreconditionError covers SHACL non-conformance, forbidden implicit
// properties, missing materialized defaults, non-NFC terms, and blank
// nodes.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violation: %s", e.Reason)
}

// ExhaustionError reports a Stage B relaxation cascade that ran out of
// rules without producing a feasible, qualifying candidate.
type ExhaustionError struct {
	Reason string
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("relaxation cascade exhausted: %s", e.Reason)
}

// LinkageError reports that a package and its decision report disagree on
// adaptivePlanPackageContentHash — only raised by the end-to-end
// conformance checker, never by Stage C itself.
type LinkageError struct {
	Reason string
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("package/report linkage violation: %s", e.Reason)
}

// EvaluationErrorCode is the single error code every stage envelope
// surfaces on failure, regardless of which category above produced it.
const EvaluationErrorCode = "EVALUATION_ERROR"

// Stage names used in AdaptiveDecisionReport.failedStage.
const (
	FailedStageA = "stageA"
	FailedStageB = "stageB"
)
