package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, body string) *Graph {
	t.Helper()
	path := filepath.Join(t.TempDir(), "neighbors.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	g, err := Load(path)
	require.NoError(t, err)
	return g
}

func TestGraph_Lookup(t *testing.T) {
	g := writeGraph(t, `{
		"whop-premium": {
			"recommendations": ["trading-hub", "signal-pro", "trading-hub"],
			"alternatives": ["signal-pro", "deal-den", "whop-premium"],
			"explore": "marketplace"
		}
	}`)

	recs := g.Recommendations("whop-premium")
	assert.Equal(t, []string{"trading-hub", "signal-pro"}, recs, "deduplicated, order kept")

	// signal-pro is already recommended, whop-premium is the subject itself
	alts := g.Alternatives("whop-premium")
	assert.Equal(t, []string{"deal-den"}, alts)

	assert.Equal(t, "marketplace", g.Explore("whop-premium"))
	assert.Equal(t, 1, g.Len())
}

func TestGraph_NormalizesKeys(t *testing.T) {
	g := writeGraph(t, `{"Café-Deals": {"recommendations": ["Other%20Offer"]}}`)

	// percent-encoded and accented variants hit the same node
	assert.Equal(t, []string{"other-offer"}, g.Recommendations("cafe%2Ddeals"))
}

func TestGraph_UnknownSlug(t *testing.T) {
	g := writeGraph(t, `{}`)

	assert.Empty(t, g.Recommendations("nope"))
	assert.Empty(t, g.Alternatives("nope"))
	assert.Empty(t, g.Explore("nope"))
}

func TestGraph_MissingFile(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)

	// still usable, just empty
	assert.Empty(t, g.Recommendations("anything"))
}

func TestGraph_ReloadKeepsOldNodesOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neighbors.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": {"recommendations": ["b"]}}`), 0o644))
	g, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	assert.Error(t, g.Reload())
	assert.Equal(t, []string{"b"}, g.Recommendations("a"))
}
