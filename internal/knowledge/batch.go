package knowledge

import (
	"context"
	"time"
)

// batchPolicy paces requests to a provider.
type batchPolicy struct {
	size  int
	delay time.Duration
}

// embedInBatches splits texts into batches and concatenates the vectors fn
// returns, waiting policy.delay between batches.
func embedInBatches(ctx context.Context, texts []string, policy batchPolicy, fn func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += policy.size {
		if i > 0 && !waitOrCancel(ctx, policy.delay) {
			return nil, ctx.Err()
		}
		end := min(i+policy.size, len(texts))
		vecs, err := fn(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func waitOrCancel(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
