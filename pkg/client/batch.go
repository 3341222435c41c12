package client

import (
	"context"
	"iter"
	"slices"

	"github.com/satishbabariya/ehrquery/pkg/frame"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// BatchIterator runs the batches of a partitioned query one at a time.
// Boundaries are computed up front; each batch is fetched only when Next is
// called, so stopping early costs nothing further.
//
//	it, err := db.RunBatches(ctx, q, "subject_id", 100_000)
//	for it.Next(ctx) {
//		process(it.Frame())
//	}
//	if err := it.Err(); err != nil { ... }
type BatchIterator struct {
	db    *Database
	base  query.Query
	conds []query.Condition
	pos   int
	cur   *frame.Frame
	err   error
}

// Len returns the number of batches.
func (it *BatchIterator) Len() int {
	return len(it.conds)
}

// Conditions returns the batch conditions, in order.
func (it *BatchIterator) Conditions() []query.Condition {
	return slices.Clone(it.conds)
}

// Query returns the query of batch i.
func (it *BatchIterator) Query(i int) query.Query {
	return it.base.Where(it.conds[i])
}

// Next fetches the next batch. It returns false when the batches are
// exhausted or a fetch failed.
func (it *BatchIterator) Next(ctx context.Context) bool {
	if it.err != nil || it.pos >= len(it.conds) {
		it.cur = nil
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		it.cur = nil
		return false
	}
	f, err := it.db.fetch(ctx, "batch", it.Query(it.pos))
	if err != nil {
		it.err = err
		it.cur = nil
		return false
	}
	it.pos++
	it.cur = f
	return true
}

// Frame returns the batch fetched by the last successful Next.
func (it *BatchIterator) Frame() *frame.Frame {
	return it.cur
}

// Index returns the position of the batch fetched by the last successful
// Next, or -1 before the first one.
func (it *BatchIterator) Index() int {
	return it.pos - 1
}

// Err returns the error that stopped iteration, if any.
func (it *BatchIterator) Err() error {
	return it.err
}

// All yields the remaining batches. A failed fetch is yielded once with a nil
// frame and ends the sequence.
func (it *BatchIterator) All(ctx context.Context) iter.Seq2[*frame.Frame, error] {
	return func(yield func(*frame.Frame, error) bool) {
		for it.Next(ctx) {
			if !yield(it.cur, nil) {
				return
			}
		}
		if it.err != nil {
			yield(nil, it.err)
		}
	}
}

// Collect fetches the remaining batches and concatenates them.
func (it *BatchIterator) Collect(ctx context.Context) (*frame.Frame, error) {
	var frames []*frame.Frame
	for f, err := range it.All(ctx) {
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frame.Concat(frames...)
}
