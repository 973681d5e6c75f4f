package ocr

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limited caps how many recognitions run at once across every caller that
// shares it.
type Limited struct {
	next Recognizer
	sem  *semaphore.Weighted
}

// Limit wraps next with a weighted semaphore of size max. A max of zero or
// less disables the cap.
func Limit(next Recognizer, max int64) *Limited {
	l := &Limited{next: next}
	if max > 0 {
		l.sem = semaphore.NewWeighted(max)
	}
	return l
}

func (l *Limited) RecognizeFile(ctx context.Context, path string) (string, error) {
	return withConcurrencyLimit(ctx, l.sem, func() (string, error) {
		return l.next.RecognizeFile(ctx, path)
	})
}

func (l *Limited) RecognizeBytes(ctx context.Context, data []byte) (string, error) {
	return withConcurrencyLimit(ctx, l.sem, func() (string, error) {
		return l.next.RecognizeBytes(ctx, data)
	})
}

func withConcurrencyLimit(ctx context.Context, limiter *semaphore.Weighted, fn func() (string, error)) (string, error) {
	if limiter == nil {
		return fn()
	}
	if err := limiter.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer limiter.Release(1)
	return fn()
}
