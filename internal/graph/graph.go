// Package graph serves the precomputed slug neighbor graph behind the
// "alternatives" and "recommended" widgets. The graph is a flat JSON file
// produced offline (data/graph/neighbors.json) and is loaded once per
// process; Reload picks up a regenerated file without a restart.
package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/whpcodes/promo-directory/internal/slug"
)

// Neighbors is one node of the graph file.
type Neighbors struct {
	Recommendations []string `json:"recommendations"`
	Alternatives    []string `json:"alternatives"`
	Explore         string   `json:"explore,omitempty"`
}

// Graph is the in-process cache of the neighbor file. All lookups normalize
// their key and return copies; an unknown slug yields empty results, never
// an error.
type Graph struct {
	mu    sync.RWMutex
	path  string
	nodes map[string]Neighbors
}

// Load reads the neighbor file at path. A missing or unreadable file yields
// an empty but usable graph together with the error, so callers can log and
// keep serving (the widgets just stay empty).
func Load(path string) (*Graph, error) {
	g := &Graph{path: path, nodes: map[string]Neighbors{}}
	err := g.Reload()
	return g, err
}

// Reload re-reads the file and swaps the node map atomically. On failure the
// previously loaded nodes stay in place.
func (g *Graph) Reload() error {
	raw, err := os.ReadFile(g.path)
	if err != nil {
		return fmt.Errorf("read neighbor graph: %w", err)
	}
	var parsed map[string]Neighbors
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse neighbor graph: %w", err)
	}

	nodes := make(map[string]Neighbors, len(parsed))
	for k, v := range parsed {
		nodes[slug.Normalize(k)] = v
	}

	g.mu.Lock()
	g.nodes = nodes
	g.mu.Unlock()
	return nil
}

// Len returns the number of nodes currently loaded.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Recommendations returns the recommended neighbor slugs for s,
// deduplicated and with s itself excluded.
func (g *Graph) Recommendations(s string) []string {
	key := slug.Normalize(s)
	g.mu.RLock()
	node := g.nodes[key]
	g.mu.RUnlock()
	return clean(node.Recommendations, map[string]bool{key: true})
}

// Alternatives returns the alternative neighbor slugs for s. Any slug that
// already appears in the recommendations for s is excluded, so the two
// widgets on a detail page never show the same offer twice.
func (g *Graph) Alternatives(s string) []string {
	key := slug.Normalize(s)
	g.mu.RLock()
	node := g.nodes[key]
	g.mu.RUnlock()

	skip := map[string]bool{key: true}
	for _, r := range node.Recommendations {
		skip[slug.Normalize(r)] = true
	}
	return clean(node.Alternatives, skip)
}

// Explore returns the optional explore slug for s, or "".
func (g *Graph) Explore(s string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slug.Normalize(g.nodes[slug.Normalize(s)].Explore)
}

// clean normalizes, deduplicates, and filters a neighbor list in order.
func clean(in []string, skip map[string]bool) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		n := slug.Normalize(s)
		if n == "" || seen[n] || skip[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
