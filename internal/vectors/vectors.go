// Package vectors drives the codex ".cdx" and procedural-fixture ".json"
// test vectors against the core pipeline and reports pass/fail per
// vector. The harness only drives the core and compares artifacts;
// evaluation logic stays in the evaluator packages. The two procedural-fixture JSON shapes (conformance checks
// and validation-contract checks) are schema-checked with
// github.com/santhosh-tekuri/jsonschema/v5 before being interpreted.
package vectors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/conformance"
	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/pipeline"
	"github.com/opalforge/adaptiveplan/internal/policy"
	"github.com/opalforge/adaptiveplan/internal/scoring"
	"github.com/opalforge/adaptiveplan/internal/shacl"
	"github.com/opalforge/adaptiveplan/internal/term"
)

// FixtureError reports a malformed vector/harness input — distinct from
// EVALUATION_ERROR so a corrupt fixture cannot masquerade as an evaluation
// failure.
type FixtureError struct {
	Path   string
	Reason string
}

func (e *FixtureError) Error() string {
	return fmt.Sprintf("vectors: %s: %s", e.Path, e.Reason)
}

// conformanceFixtureSchemaDoc and validationContractFixtureSchemaDoc are the
// two procedural-fixture JSON shapes the harness accepts. Each Load*Fixture
// call compiles its schema afresh before validating the fixture.
const conformanceFixtureSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["turtle", "composition"],
  "properties": {
    "turtle": {"type": "string"},
    "composition": {"type": "string"},
    "expectedCanonical": {"type": "string"},
    "expectedScopedHash": {"type": "string"}
  }
}`

const validationContractFixtureSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["turtle"],
  "properties": {
    "turtle": {"type": "string"},
    "shapes": {"type": "string"},
    "ontology": {"type": "string"},
    "composition": {"type": "string"},
    "expectedCanonical": {"type": "string"},
    "expectedScopedHash": {"type": "string"},
    "expectConforms": {"type": "boolean"}
  }
}`

func compileSchema(name, doc string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

// ConformanceFixture is the decoded conformance-check JSON shape.
type ConformanceFixture struct {
	Turtle             string `json:"turtle"`
	Composition        string `json:"composition"`
	ExpectedCanonical  string `json:"expectedCanonical"`
	ExpectedScopedHash string `json:"expectedScopedHash"`
}

// ValidationContractFixture is the decoded validation-contract JSON shape.
type ValidationContractFixture struct {
	Turtle             string `json:"turtle"`
	Shapes             string `json:"shapes"`
	Ontology           string `json:"ontology"`
	Composition        string `json:"composition"`
	ExpectedCanonical  string `json:"expectedCanonical"`
	ExpectedScopedHash string `json:"expectedScopedHash"`
	ExpectConforms     bool   `json:"expectConforms"`
}

// LoadConformanceFixture parses and schema-validates a conformance fixture.
func LoadConformanceFixture(path string, raw []byte) (*ConformanceFixture, error) {
	schema, err := compileSchema("conformance-fixture.json", conformanceFixtureSchemaDoc)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, &FixtureError{Path: path, Reason: err.Error()}
	}
	if err := schema.Validate(generic); err != nil {
		return nil, &FixtureError{Path: path, Reason: err.Error()}
	}
	var f ConformanceFixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, &FixtureError{Path: path, Reason: err.Error()}
	}
	return &f, nil
}

// LoadValidationContractFixture parses and schema-validates a
// validation-contract fixture.
func LoadValidationContractFixture(path string, raw []byte) (*ValidationContractFixture, error) {
	schema, err := compileSchema("validation-contract-fixture.json", validationContractFixtureSchemaDoc)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, &FixtureError{Path: path, Reason: err.Error()}
	}
	if err := schema.Validate(generic); err != nil {
		return nil, &FixtureError{Path: path, Reason: err.Error()}
	}
	var f ValidationContractFixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, &FixtureError{Path: path, Reason: err.Error()}
	}
	return &f, nil
}

// VectorResult is one vector's pass/fail outcome.
type VectorResult struct {
	Path string
	Pass bool
	Err  error
}

// RunConformanceVector runs the individual procedural graph checks — no
// implicit semantics, materialized defaults, NFC, canonical-serialization
// matching, scoped-hash matching — against one conformance fixture. The
// combined validation contract is RunValidationContractVector's job.
func RunConformanceVector(path string, raw []byte) VectorResult {
	f, err := LoadConformanceFixture(path, raw)
	if err != nil {
		return VectorResult{Path: path, Pass: false, Err: err}
	}
	triples, err := graph.ParseTurtle(f.Turtle)
	if err != nil {
		return VectorResult{Path: path, Pass: false, Err: &FixtureError{Path: path, Reason: err.Error()}}
	}
	g := graph.FromTriples(triples)

	if err := conformance.NoImplicitSemantics(g); err != nil {
		return VectorResult{Path: path, Pass: false, Err: err}
	}
	if err := conformance.DefaultsMaterialized(g, graph.ClassStroke, graph.PredStrokeWidth, graph.ClassBaselineGrid, graph.PredBaselineStep); err != nil {
		return VectorResult{Path: path, Pass: false, Err: err}
	}
	if err := conformance.NFC(g); err != nil {
		return VectorResult{Path: path, Pass: false, Err: err}
	}
	if f.ExpectedCanonical != "" {
		if err := conformance.CanonicalSerializationMatches(g, []byte(f.ExpectedCanonical)); err != nil {
			return VectorResult{Path: path, Pass: false, Err: err}
		}
	}
	if f.ExpectedScopedHash != "" {
		if err := conformance.ScopedHashMatches(g, term.IRI(f.Composition), f.ExpectedScopedHash); err != nil {
			return VectorResult{Path: path, Pass: false, Err: err}
		}
	}
	return VectorResult{Path: path, Pass: true}
}

// RunValidationContractVector runs the combined validation-contract check
// against one fixture, using AlwaysConformant as the SHACL
// oracle stand-in unless a concrete Validator is supplied by the caller.
func RunValidationContractVector(path string, raw []byte, oracle shacl.Validator) VectorResult {
	f, err := LoadValidationContractFixture(path, raw)
	if err != nil {
		return VectorResult{Path: path, Pass: false, Err: err}
	}
	triples, err := graph.ParseTurtle(f.Turtle)
	if err != nil {
		return VectorResult{Path: path, Pass: false, Err: &FixtureError{Path: path, Reason: err.Error()}}
	}
	g := graph.FromTriples(triples)
	if oracle == nil {
		oracle = shacl.AlwaysConformant{}
	}
	in := conformance.ContractInput{
		Graph:              g,
		Shapes:             f.Shapes,
		Ontology:           f.Ontology,
		Composition:        term.IRI(f.Composition),
		ExpectedScopedHash: f.ExpectedScopedHash,
	}
	if f.ExpectedCanonical != "" {
		in.ExpectedCanonical = []byte(f.ExpectedCanonical)
	}
	results := conformance.ValidationContract(in, oracle)
	var failures []string
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.Name, r.Err))
		}
	}
	conforms := len(failures) == 0
	if conforms != f.ExpectConforms {
		return VectorResult{Path: path, Pass: false, Err: &FixtureError{Path: path, Reason: fmt.Sprintf("expected conforms=%v, got %v (%s)", f.ExpectConforms, conforms, strings.Join(failures, "; "))}}
	}
	return VectorResult{Path: path, Pass: true}
}

// RunDir walks dir for .cdx codex vectors (root concepts PolicyVector,
// StageBVector, StageCVector, AdaptivePipelineVector) and .json procedural
// fixtures, running each and collecting results. A directory with no
// recognized vectors produces a zero-length, non-erroring result slice. The
// run-vectors command fails such a run (exit code 2) only under
// --schema-check; without that flag it reports "0/0 passed" and exits 0.
func RunDir(dir string) ([]VectorResult, error) {
	var results []VectorResult
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".cdx") || strings.HasSuffix(path, ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			results = append(results, VectorResult{Path: path, Pass: false, Err: err})
			continue
		}
		switch {
		case strings.HasSuffix(path, ".json"):
			results = append(results, runJSONVector(path, raw))
		case strings.HasSuffix(path, ".cdx"):
			results = append(results, runCodexVector(path, raw))
		}
	}
	return results, nil
}

func runJSONVector(path string, raw []byte) VectorResult {
	if strings.Contains(path, "validation-contract") {
		return RunValidationContractVector(path, raw, nil)
	}
	return RunConformanceVector(path, raw)
}

// runCodexVector dispatches a parsed .cdx vector to its root concept's
// evaluator. Each evaluator drives the real pipeline stage(s) the vector
// names: it loads a graph/candidate set/compiled request, evaluates it,
// and diffs the outcome against an Expect block or an expected-output
// file rather than merely checking that the vector file itself parses.
func runCodexVector(path string, raw []byte) VectorResult {
	root, err := codex.ParseString(string(raw))
	if err != nil {
		return VectorResult{Path: path, Pass: false, Err: &FixtureError{Path: path, Reason: err.Error()}}
	}
	switch root.Concept {
	case "PolicyVector":
		return runPolicyVector(path, root)
	case "StageBVector":
		return runStageBVector(path, root)
	case "StageCVector":
		return runStageCVector(path, root)
	case "AdaptivePipelineVector":
		return runAdaptivePipelineVector(path, root)
	default:
		return VectorResult{Path: path, Pass: false, Err: &FixtureError{Path: path, Reason: fmt.Sprintf("unrecognized vector root concept %q", root.Concept)}}
	}
}

func fail(path string, err error) VectorResult {
	if fe, ok := err.(*FixtureError); ok {
		return VectorResult{Path: path, Pass: false, Err: fe}
	}
	return VectorResult{Path: path, Pass: false, Err: &FixtureError{Path: path, Reason: err.Error()}}
}

// resolveSibling resolves a vector-relative reference (graphFile,
// compiledRequestFile, and the like) against the directory the vector file
// itself lives in — simpler than the original Python harnesses' repo-root
// discovery, appropriate for a single-module Go tree with no multi-repo
// checkout to navigate.
func resolveSibling(vectorPath, rel string) string {
	return filepath.Join(filepath.Dir(vectorPath), rel)
}

// decodeVectorValue mirrors intent's ContextEntry/ContextExtEntry decoding
// (kind/value trait pair) so vector fixtures describe typed context values
// the same way a compiled request does.
func decodeVectorValue(kind, value string) (term.TypedValue, error) {
	switch kind {
	case "integer":
		var i int64
		if _, err := fmt.Sscanf(value, "%d", &i); err != nil {
			return term.TypedValue{}, fmt.Errorf("invalid integer %q: %w", value, err)
		}
		return term.NewInt(i), nil
	case "decimal":
		d, err := term.DecimalFromString(value)
		if err != nil {
			return term.TypedValue{}, fmt.Errorf("invalid decimal %q: %w", value, err)
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
		return term.TypedValue{}, fmt.Errorf("unknown ContextEntry kind %q", kind)
	}
}

// runPolicyVector evaluates Stage A against an inline context and an
// external policy graph, comparing the outcome to an embedded <StageAResult>
// expectation.
func runPolicyVector(path string, root *codex.Node) VectorResult {
	graphFile, ok := root.Get("graphFile")
	if !ok {
		return fail(path, &FixtureError{Path: path, Reason: "PolicyVector requires graphFile"})
	}
	raw, err := os.ReadFile(resolveSibling(path, graphFile))
	if err != nil {
		return fail(path, err)
	}
	triples, err := graph.ParseTurtle(string(raw))
	if err != nil {
		return fail(path, err)
	}
	g := graph.FromTriples(triples)

	req := &intent.CompiledRequest{StageA: intent.StageAContext{CompositionIRI: root.MustGet("compositionIri")}}
	if v, ok := root.Get("viewIri"); ok && v != "" {
		req.StageA.HasView = true
		req.StageA.ViewIRI = v
	}
	for _, ce := range root.ChildrenOf("ContextEntry") {
		tv, err := decodeVectorValue(ce.MustGet("kind"), ce.MustGet("value"))
		if err != nil {
			return fail(path, fmt.Errorf("ContextEntry %q: %w", ce.MustGet("key"), err))
		}
		req.StageA.Context = append(req.StageA.Context, intent.ContextEntry{Key: ce.MustGet("key"), Value: tv})
	}

	expectNodes := root.ChildrenOf("StageAResult")
	if len(expectNodes) != 1 {
		return fail(path, &FixtureError{Path: path, Reason: "PolicyVector requires exactly one <StageAResult> expectation"})
	}
	expect, err := policy.FromNode(expectNodes[0])
	if err != nil {
		return fail(path, err)
	}

	actual, _ := policy.Evaluate(req, g, root.MustGet("shapesFile"), root.MustGet("ontologyFile"), shacl.AlwaysConformant{})
	if err := compareStageAResult(expect, actual); err != nil {
		return fail(path, err)
	}
	return VectorResult{Path: path, Pass: true}
}

func compareStageAResult(expect, actual *policy.Result) error {
	if expect.Status != actual.Status {
		return fmt.Errorf("status: expected %v, got %v", expect.Status, actual.Status)
	}
	if expect.Status != policy.StatusOK {
		return nil
	}
	if len(expect.SelectedActions) != len(actual.SelectedActions) {
		return fmt.Errorf("selectedActions: expected %d entries, got %d", len(expect.SelectedActions), len(actual.SelectedActions))
	}
	for i := range expect.SelectedActions {
		e, a := expect.SelectedActions[i], actual.SelectedActions[i]
		if e.ActionIRI != a.ActionIRI || e.Mode != a.Mode || e.TargetNode != a.TargetNode ||
			e.TargetProperty != a.TargetProperty || e.Value.String() != a.Value.String() {
			return fmt.Errorf("selectedActions[%d]: expected %+v, got %+v", i, e, a)
		}
	}
	if err := compareStringSlices("delta.remove", expect.Delta.Remove, actual.Delta.Remove); err != nil {
		return err
	}
	return compareStringSlices("delta.add", expect.Delta.Add, actual.Delta.Add)
}

func compareStringSlices(label string, expect, actual []string) error {
	if len(expect) != len(actual) {
		return fmt.Errorf("%s: expected %d entries, got %d", label, len(expect), len(actual))
	}
	for i := range expect {
		if expect[i] != actual[i] {
			return fmt.Errorf("%s[%d]: expected %q, got %q", label, i, expect[i], actual[i])
		}
	}
	return nil
}

// runStageBVector evaluates Stage B against a compiled request loaded from a
// sibling file and an inline candidate set, comparing the outcome to an
// embedded <StageBResult> expectation.
func runStageBVector(path string, root *codex.Node) VectorResult {
	compiledFile, ok := root.Get("compiledRequestFile")
	if !ok {
		return fail(path, &FixtureError{Path: path, Reason: "StageBVector requires compiledRequestFile"})
	}
	req, err := loadCompiledRequest(resolveSibling(path, compiledFile))
	if err != nil {
		return fail(path, err)
	}

	candNodes := root.ChildrenOf("StageBCandidates")
	if len(candNodes) != 1 {
		return fail(path, &FixtureError{Path: path, Reason: "StageBVector requires exactly one <StageBCandidates>"})
	}
	candidates, err := scoring.ParseCandidates(candNodes[0])
	if err != nil {
		return fail(path, err)
	}

	expectNodes := root.ChildrenOf("StageBResult")
	if len(expectNodes) != 1 {
		return fail(path, &FixtureError{Path: path, Reason: "StageBVector requires exactly one <StageBResult> expectation"})
	}
	expect, err := scoring.FromNode(expectNodes[0])
	if err != nil {
		return fail(path, err)
	}

	actual, _ := scoring.Evaluate(&req.StageB.Optimization, req.StageB.Override, candidates)
	if err := compareStageBResult(expect, actual); err != nil {
		return fail(path, err)
	}
	return VectorResult{Path: path, Pass: true}
}

func compareStageBResult(expect, actual *scoring.Result) error {
	if expect.Status != actual.Status {
		return fmt.Errorf("status: expected %v, got %v", expect.Status, actual.Status)
	}
	if expect.Status != scoring.StatusOK {
		return nil
	}
	if expect.SelectedCandidate != actual.SelectedCandidate {
		return fmt.Errorf("selectedCandidate: expected %q, got %q", expect.SelectedCandidate, actual.SelectedCandidate)
	}
	if expect.SelectedScore.Cmp(actual.SelectedScore) != 0 {
		return fmt.Errorf("selectedScore: expected %s, got %s", expect.SelectedScore.String(), actual.SelectedScore.String())
	}
	if len(expect.AppliedRelaxations) != len(actual.AppliedRelaxations) {
		return fmt.Errorf("appliedRelaxations: expected %d entries, got %d", len(expect.AppliedRelaxations), len(actual.AppliedRelaxations))
	}
	for i := range expect.AppliedRelaxations {
		e, a := expect.AppliedRelaxations[i], actual.AppliedRelaxations[i]
		if e.RelaxWeightClass != a.RelaxWeightClass || e.RelaxationAction != a.RelaxationAction {
			return fmt.Errorf("appliedRelaxations[%d]: expected %+v, got %+v", i, e, a)
		}
	}
	return nil
}

func loadCompiledRequest(path string) (*intent.CompiledRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	node, err := codex.ParseString(string(raw))
	if err != nil {
		return nil, err
	}
	return intent.ParseCompiled(node)
}

func loadStageAResult(path string) (*policy.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	node, err := codex.ParseString(string(raw))
	if err != nil {
		return nil, err
	}
	return policy.FromNode(node)
}

func loadStageBResult(path string) (*scoring.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	node, err := codex.ParseString(string(raw))
	if err != nil {
		return nil, err
	}
	return scoring.FromNode(node)
}

// buildDecisionReport mirrors cmd/adaptiveplan/stagec.go's status-branch:
// an error envelope with no package when either upstream stage failed,
// otherwise the real Stage C package and report.
func buildDecisionReport(req *intent.CompiledRequest, stageA *policy.Result, stageB *scoring.Result) (*pipeline.DecisionReport, error) {
	switch {
	case stageA.Status != policy.StatusOK:
		return pipeline.NewErrorReport(pipeline.FailedStageA), nil
	case stageB.Status != scoring.StatusOK:
		return pipeline.NewErrorReport(pipeline.FailedStageB), nil
	default:
		_, report, err := pipeline.EmitStageC(req, stageA, stageB)
		return report, err
	}
}

// canonicalText mirrors the original harnesses' `_canonical(text)`: trailing
// whitespace is insignificant, but the comparison is otherwise a raw text
// diff against the compiler's own rendered output, not a structural one —
// StageCVector and AdaptivePipelineVector have no "expected shape" of their
// own, only an expected rendering, because that is what the original
// harnesses' expectPlanFile actually is (a saved compiler run).
func canonicalText(raw []byte) string {
	return strings.TrimRight(string(raw), " \t\r\n") + "\n"
}

func compareRenderedText(label, expectFile string, node *codex.Node) error {
	expectRaw, err := os.ReadFile(expectFile)
	if err != nil {
		return err
	}
	expect := canonicalText(expectRaw)
	actual := canonicalText(codex.Emit(node))
	if expect != actual {
		return fmt.Errorf("%s does not match %s:\n--- expected ---\n%s--- actual ---\n%s", label, expectFile, expect, actual)
	}
	return nil
}

// runStageCVector packages a previously-evaluated Stage A/Stage B outcome
// loaded from sibling files and compares the rendered decision report
// against expectPlanFile. Only the decision report's rendered text is the
// comparison target, not the package.
func runStageCVector(path string, root *codex.Node) VectorResult {
	compiledFile, ok := root.Get("compiledRequestFile")
	stageAFile, okA := root.Get("stageAResultFile")
	stageBFile, okB := root.Get("stageBResultFile")
	expectFile, okE := root.Get("expectPlanFile")
	if !ok || !okA || !okB || !okE {
		return fail(path, &FixtureError{Path: path, Reason: "StageCVector requires compiledRequestFile, stageAResultFile, stageBResultFile, expectPlanFile"})
	}

	req, err := loadCompiledRequest(resolveSibling(path, compiledFile))
	if err != nil {
		return fail(path, err)
	}
	stageA, err := loadStageAResult(resolveSibling(path, stageAFile))
	if err != nil {
		return fail(path, err)
	}
	stageB, err := loadStageBResult(resolveSibling(path, stageBFile))
	if err != nil {
		return fail(path, err)
	}
	report, err := buildDecisionReport(req, stageA, stageB)
	if err != nil {
		return fail(path, err)
	}
	if err := compareRenderedText("decision report", resolveSibling(path, expectFile), report.ToNode()); err != nil {
		return fail(path, err)
	}
	return VectorResult{Path: path, Pass: true}
}

// runAdaptivePipelineVector drives compile -> Stage A -> Stage B -> Stage C
// end to end from sibling fixture/graph/candidate files, comparing each
// stage's rendered text against its own expectation file. Stage B is
// evaluated against the supplied candidates unconditionally rather than
// short-circuiting on a Stage A failure.
func runAdaptivePipelineVector(path string, root *codex.Node) VectorResult {
	inputFixtureFile, ok1 := root.Get("inputFixtureFile")
	policyGraphFile, ok2 := root.Get("policyGraphFile")
	candidatesFile, ok3 := root.Get("stageBCandidatesFile")
	expectStageAFile, ok4 := root.Get("expectStageAFile")
	expectStageBFile, ok5 := root.Get("expectStageBFile")
	expectPlanFile, ok6 := root.Get("expectPlanFile")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return fail(path, &FixtureError{Path: path, Reason: "AdaptivePipelineVector requires inputFixtureFile, policyGraphFile, stageBCandidatesFile, expectStageAFile, expectStageBFile, expectPlanFile"})
	}

	fixtureRaw, err := os.ReadFile(resolveSibling(path, inputFixtureFile))
	if err != nil {
		return fail(path, err)
	}
	fixtureNode, err := codex.ParseString(string(fixtureRaw))
	if err != nil {
		return fail(path, err)
	}
	req, err := intent.Compile(fixtureNode)
	if err != nil {
		return fail(path, err)
	}

	graphRaw, err := os.ReadFile(resolveSibling(path, policyGraphFile))
	if err != nil {
		return fail(path, err)
	}
	triples, err := graph.ParseTurtle(string(graphRaw))
	if err != nil {
		return fail(path, err)
	}
	g := graph.FromTriples(triples)

	stageA, _ := policy.Evaluate(req, g, root.MustGet("shapesFile"), root.MustGet("ontologyFile"), shacl.AlwaysConformant{})
	if err := compareRenderedText("stage A result", resolveSibling(path, expectStageAFile), stageA.ToNode()); err != nil {
		return fail(path, err)
	}

	candRaw, err := os.ReadFile(resolveSibling(path, candidatesFile))
	if err != nil {
		return fail(path, err)
	}
	candNode, err := codex.ParseString(string(candRaw))
	if err != nil {
		return fail(path, err)
	}
	candidates, err := scoring.ParseCandidates(candNode)
	if err != nil {
		return fail(path, err)
	}
	stageB, _ := scoring.Evaluate(&req.StageB.Optimization, req.StageB.Override, candidates)
	if err := compareRenderedText("stage B result", resolveSibling(path, expectStageBFile), stageB.ToNode()); err != nil {
		return fail(path, err)
	}

	report, err := buildDecisionReport(req, stageA, stageB)
	if err != nil {
		return fail(path, err)
	}
	if err := compareRenderedText("decision report", resolveSibling(path, expectPlanFile), report.ToNode()); err != nil {
		return fail(path, err)
	}
	return VectorResult{Path: path, Pass: true}
}
