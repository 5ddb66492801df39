package services

import (
	"context"
	"fmt"
)

// BulkResult reports a sequential bulk operation that stops at the first
// failure. Items already processed stay processed; nothing is rolled back.
type BulkResult[K any] struct {
	Deleted []K
	Failed  *K
	Skipped int // items after the failure that were never attempted
	Err     error
}

func (r BulkResult[K]) OK() bool { return r.Err == nil }

// Summary is the user-visible outcome.
func (r BulkResult[K]) Summary(noun string) string {
	total := len(r.Deleted) + r.Skipped
	if r.Failed != nil {
		total++
	}
	if r.Err == nil {
		return fmt.Sprintf("Deleted %d %s.", len(r.Deleted), noun)
	}
	return fmt.Sprintf("Deleted %d of %d %s before an error.", len(r.Deleted), total, noun)
}

func bulk[K any](ctx context.Context, keys []K, del func(context.Context, K) error) BulkResult[K] {
	var res BulkResult[K]
	for i, k := range keys {
		if err := ctx.Err(); err != nil {
			res.Skipped = len(keys) - i
			res.Err = err
			return res
		}
		if err := del(ctx, k); err != nil {
			failed := k
			res.Failed = &failed
			res.Skipped = len(keys) - i - 1
			res.Err = err
			return res
		}
		res.Deleted = append(res.Deleted, k)
	}
	return res
}
