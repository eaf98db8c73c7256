package tlcache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of backend calls TranslateAll runs at once.
const DefaultConcurrency = 4

// BatchResult is the outcome of one request of a TranslateAll call.
type BatchResult struct {
	Content TrustedContent
	Err     error
}

// TranslateAll translates a batch of items, such as the comments of one page,
// with at most concurrency requests in flight. Results are in request order.
// A failing item does not stop the others; its error is in its BatchResult.
func (t *Translator) TranslateAll(ctx context.Context, reqs []Request, concurrency int) []BatchResult {
	results := make([]BatchResult, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Err: err}
				return nil
			}
			content, err := t.Translate(ctx, req)
			results[i] = BatchResult{Content: content, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
