package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/term"
)

const candidatesXML = `<StageBCandidates>
	<Candidate id="A">
		<HardResult key="fitsViewport" value="true"/>
		<SoftScore key="contrast" value="0.72"/>
		<OverrideResult kind="lock" targetRef="root" value="true"/>
	</Candidate>
	<Candidate id="B">
		<HardResult key="fitsViewport" value="false"/>
		<SoftScore key="contrast" value="0.65"/>
	</Candidate>
</StageBCandidates>`

func TestParseCandidatesReadsSchemaValidEnvelope(t *testing.T) {
	root, err := codex.ParseString(candidatesXML)
	require.NoError(t, err)
	candidates, err := ParseCandidates(root)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.True(t, candidates[0].HardResults["fitsViewport"])
	assert.Equal(t, "0.72", candidates[0].SoftScores["contrast"].String())
	assert.True(t, candidates[0].OverrideResults[OverrideKey{Kind: "lock", TargetRef: "root"}])
	assert.False(t, candidates[1].HardResults["fitsViewport"])
}

func TestParseCandidatesRejectsCandidateMissingId(t *testing.T) {
	root, err := codex.ParseString(`<StageBCandidates><Candidate/></StageBCandidates>`)
	require.NoError(t, err)
	_, err = ParseCandidates(root)
	var se *codex.StructuralError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, `missing required trait "id"`)
}

func TestResultEnvelopeValidatesAndRoundTrips(t *testing.T) {
	r := &Result{
		Status:            StatusOK,
		SelectedCandidate: "A",
		SelectedScore:     term.MustDecimal("0.72"),
		AppliedRelaxations: []AppliedRelaxation{{
			RelaxationAction: "widenThreshold",
		}},
	}

	node := r.ToNode()
	require.NoError(t, codex.PipelineSchema().Validate(node))

	reparsed, err := codex.ParseString(string(codex.Emit(node)))
	require.NoError(t, err)
	got, err := FromNode(reparsed)
	require.NoError(t, err)

	assert.Equal(t, "A", got.SelectedCandidate)
	assert.Equal(t, 0, got.SelectedScore.Cmp(r.SelectedScore))
	require.Len(t, got.AppliedRelaxations, 1)
	assert.Equal(t, "widenThreshold", got.AppliedRelaxations[0].RelaxationAction)
}

func TestErrorResultEnvelopeValidates(t *testing.T) {
	node := (&Result{Status: StatusError}).ToNode()
	require.NoError(t, codex.PipelineSchema().Validate(node))
}
