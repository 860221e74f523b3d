package usecase

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency keeps every fan-out sequential to stay under GitHub's
// rate limits.
const DefaultConcurrency = 1

// forEach calls fn for every item with at most limit calls in flight. Items
// are admitted in order. The first error cancels the context passed to the
// remaining calls and is returned.
func forEach[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) error) error {
	if limit < 1 {
		limit = DefaultConcurrency
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, item := range items {
		eg.Go(func() error {
			return fn(egCtx, item)
		})
	}
	return eg.Wait()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
