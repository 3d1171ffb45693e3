// Package recommend resolves the "recommended" and "alternatives" widgets
// for an offer page. It is the single implementation of the
// graph-lookup -> batch-hydrate -> category-fallback chain that the site's
// widgets share.
package recommend

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/whpcodes/promo-directory/internal/dataloader"
	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/graph"
	"github.com/whpcodes/promo-directory/internal/metrics"
	"github.com/whpcodes/promo-directory/internal/slug"
	"github.com/whpcodes/promo-directory/internal/storage"
)

// DefaultLimit is how many offers a widget shows unless asked otherwise.
const DefaultLimit = 6

// Service hydrates neighbor slugs into live offers.
type Service struct {
	graph *graph.Graph
	store storage.Storage
	log   zerolog.Logger
}

// New creates a recommendation service over the given graph and store.
func New(g *graph.Graph, store storage.Storage, log zerolog.Logger) *Service {
	return &Service{graph: g, store: store, log: log}
}

// Recommendations returns up to limit recommended offers for the slug.
// Failures and unknown slugs degrade to an empty list; the widget simply
// does not render.
func (s *Service) Recommendations(ctx context.Context, rawSlug string, limit int) []*domain.Whop {
	subject := slug.Normalize(rawSlug)
	var neighbors []string
	if s.graph != nil { // nil when USE_GRAPH_LINKS is off
		neighbors = s.graph.Recommendations(subject)
		if explore := s.graph.Explore(subject); explore != "" && explore != subject {
			neighbors = appendUnique(neighbors, explore)
		}
	}
	return s.hydrate(ctx, subject, neighbors, limit, nil)
}

// Alternatives returns up to limit alternative offers for the slug. Slugs
// surfaced by the recommendations widget (including its explore pad) are
// excluded on every path, so the two widgets on a page never overlap.
func (s *Service) Alternatives(ctx context.Context, rawSlug string, limit int) []*domain.Whop {
	subject := slug.Normalize(rawSlug)
	var neighbors []string
	skip := map[string]bool{}
	if s.graph != nil {
		neighbors = s.graph.Alternatives(subject)
		for _, r := range s.graph.Recommendations(subject) {
			skip[r] = true
		}
		if explore := s.graph.Explore(subject); explore != "" {
			skip[explore] = true
		}
	}
	return s.hydrate(ctx, subject, neighbors, limit, skip)
}

// hydrate runs the shared fallback chain: batch-load the neighbor slugs,
// and when that yields nothing, fall back to same-category offers. skip
// slugs are withheld from the fallback result (the neighbor lists arrive
// pre-filtered from the graph).
func (s *Service) hydrate(ctx context.Context, subject string, neighbors []string, limit int, skip map[string]bool) []*domain.Whop {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}

	whops, err := dataloader.LoadWhops(ctx, s.store, neighbors)
	if err != nil {
		s.log.Warn().Err(err).Str("slug", subject).Msg("neighbor hydration failed")
		whops = nil
	}
	if len(whops) > 0 {
		return whops
	}

	return s.categoryFallback(ctx, subject, limit, skip)
}

func (s *Service) categoryFallback(ctx context.Context, subject string, limit int, skip map[string]bool) []*domain.Whop {
	metrics.WidgetFallbacks.Inc()

	whop, err := s.store.GetWhopBySlug(ctx, subject)
	if err != nil || whop.Category == "" {
		return []*domain.Whop{}
	}

	// over-fetch so the widget can still fill up after exclusions
	whops, err := s.store.GetWhopsByCategory(ctx, whop.Category, subject, limit+len(skip))
	if err != nil {
		s.log.Warn().Err(err).Str("slug", subject).Msg("category fallback failed")
		return []*domain.Whop{}
	}

	out := make([]*domain.Whop, 0, limit)
	for _, w := range whops {
		if skip[w.Slug] {
			continue
		}
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
