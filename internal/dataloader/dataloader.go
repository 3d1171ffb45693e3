package dataloader

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/storage"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders holds the request-scoped loaders.
type Loaders struct {
	WhopBySlug *dataloader.Loader
}

// Middleware injects a fresh loader set into each request context so that
// widget handlers firing on the same page batch their whop lookups into one
// database query.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
			slugs := make([]string, len(keys))
			for i, k := range keys {
				slugs[i] = k.String()
			}

			whops, err := store.GetWhopsBySlugs(ctx, slugs)
			if err != nil {
				results := make([]*dataloader.Result, len(keys))
				for i := range results {
					results[i] = &dataloader.Result{Error: err}
				}
				return results
			}

			// results in key order; unknown slugs load as nil, not errors
			results := make([]*dataloader.Result, len(keys))
			for i, slug := range slugs {
				results[i] = &dataloader.Result{Data: whops[slug]}
			}
			return results
		}

		loaders := Loaders{
			WhopBySlug: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond*1)),
		}

		ctx := context.WithValue(r.Context(), key, &loaders)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// For extracts the loaders from the context, or nil outside the middleware.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}

// LoadWhops hydrates slugs in order through the request loader when present,
// falling back to a direct batch query otherwise. Slugs that do not resolve
// to a listed offer are skipped.
func LoadWhops(ctx context.Context, store storage.Storage, slugs []string) ([]*domain.Whop, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	loaders := For(ctx)
	if loaders == nil {
		whops, err := store.GetWhopsBySlugs(ctx, slugs)
		if err != nil {
			return nil, err
		}
		out := make([]*domain.Whop, 0, len(slugs))
		for _, s := range slugs {
			if w, ok := whops[s]; ok {
				out = append(out, w)
			}
		}
		return out, nil
	}

	keys := make(dataloader.Keys, len(slugs))
	for i, s := range slugs {
		keys[i] = dataloader.StringKey(s)
	}

	thunks := loaders.WhopBySlug.LoadMany(ctx, keys)
	values, errs := thunks()
	if len(errs) > 0 && !allNil(errs) {
		return nil, errors.Join(errs...)
	}

	out := make([]*domain.Whop, 0, len(values))
	for _, v := range values {
		if w, ok := v.(*domain.Whop); ok && w != nil {
			out = append(out, w)
		}
	}
	return out, nil
}

func allNil(errs []error) bool {
	for _, err := range errs {
		if err != nil {
			return false
		}
	}
	return true
}
