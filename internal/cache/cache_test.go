package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalforge/adaptiveplan/internal/intent"
)

func TestCachePersistsAcrossInstancesWhenDirConfigured(t *testing.T) {
	dir := t.TempDir()
	fixture := []byte("<AdaptiveFixture/>")
	key, err := Key(fixture)
	require.NoError(t, err)
	req := &intent.CompiledRequest{IntentID: "urn:intent:1", TargetFoundry: "foundry-1"}

	first, err := Open(dir)
	require.NoError(t, err)
	_, hit := first.Get(key)
	assert.False(t, hit, "a fresh cache directory must miss")
	require.NoError(t, first.Put(key, req))

	second, err := Open(dir)
	require.NoError(t, err)
	got, hit := second.Get(key)
	require.True(t, hit, "a fresh Cache opened over the same directory must see the prior instance's entry")
	assert.Equal(t, req.IntentID, got.IntentID)
	assert.Equal(t, req.TargetFoundry, got.TargetFoundry)
}

func TestCacheWithoutDirNeverPersists(t *testing.T) {
	fixture := []byte("<AdaptiveFixture/>")
	key, err := Key(fixture)
	require.NoError(t, err)
	req := &intent.CompiledRequest{IntentID: "urn:intent:1"}

	c, err := Open("")
	require.NoError(t, err)
	require.NoError(t, c.Put(key, req))
	_, hit := c.Get(key)
	assert.True(t, hit, "the in-process hot layer still serves lookups within one Cache instance")

	other, err := Open("")
	require.NoError(t, err)
	_, hit = other.Get(key)
	assert.False(t, hit, "a second instance with no cache directory must never see the first instance's entry")
}

func TestKeyIsStableAndContentAddressed(t *testing.T) {
	k1, err := Key([]byte("a"))
	require.NoError(t, err)
	k2, err := Key([]byte("a"))
	require.NoError(t, err)
	k3, err := Key([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
