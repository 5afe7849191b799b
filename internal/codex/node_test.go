package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringRoundTrip(t *testing.T) {
	n, err := ParseString(`<Policy id="p1"><Condition op="Eq">active</Condition></Policy>`)
	require.NoError(t, err)
	assert.Equal(t, "Policy", n.Concept)
	assert.Equal(t, "p1", n.MustGet("id"))

	children := n.ChildrenOf("Condition")
	require.Len(t, children, 1)
	assert.Equal(t, "Eq", children[0].MustGet("op"))
	assert.Equal(t, "active", children[0].Text)
}

func TestEmitSelfClosesEmptyNode(t *testing.T) {
	n := &Node{Concept: "Empty"}
	n.Set("a", "1")
	out := string(Emit(n))
	assert.Equal(t, "<Empty a=\"1\"/>\n", out)
}

func TestEmitParseRoundTrip(t *testing.T) {
	root := &Node{Concept: "Root"}
	root.Set("status", "ok")
	child := &Node{Concept: "Item", Text: "value & <more>"}
	child.Set("k", "v")
	root.Children = append(root.Children, child)

	emitted := Emit(root)
	parsed, err := ParseString(string(emitted))
	require.NoError(t, err)
	assert.Equal(t, "Root", parsed.Concept)
	assert.Equal(t, "ok", parsed.MustGet("status"))
	items := parsed.ChildrenOf("Item")
	require.Len(t, items, 1)
	assert.Equal(t, "v", items[0].MustGet("k"))
	assert.Equal(t, "value & <more>", items[0].Text)
}

func TestSetOverwritesExistingTrait(t *testing.T) {
	n := &Node{}
	n.Set("a", "1")
	n.Set("a", "2")
	assert.Equal(t, "2", n.MustGet("a"))
	assert.Len(t, n.Traits, 1)
}

func TestSortedTraitNames(t *testing.T) {
	n := &Node{}
	n.Set("zeta", "1")
	n.Set("alpha", "2")
	assert.Equal(t, []string{"alpha", "zeta"}, n.SortedTraitNames())
}

func TestMustGetAbsentTraitReturnsEmpty(t *testing.T) {
	n := &Node{Concept: "X"}
	assert.Equal(t, "", n.MustGet("missing"))
	_, ok := n.Get("missing")
	assert.False(t, ok)
}

func TestParseStringRejectsMalformed(t *testing.T) {
	_, err := ParseString("<Unclosed>")
	assert.Error(t, err)
}
