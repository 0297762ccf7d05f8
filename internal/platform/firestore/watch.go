package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// WatchEvent carries one consistent snapshot of a watched query, or the error
// that interrupted the listen stream. Events with a non-nil Err leave the
// previously delivered documents in force.
type WatchEvent[T any] struct {
	Docs     []Document[T]
	ReadTime time.Time
	Err      error
}

// Watch opens a snapshot listener on the repository's collection and delivers
// every consistent result set on the returned channel. The channel is closed
// when ctx is cancelled. Events are full snapshots, not deltas.
func (r *BaseRepository[T]) Watch(ctx context.Context, build QueryBuilder) (<-chan WatchEvent[T], error) {
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return nil, err
	}

	query := coll.Query
	if build != nil {
		query = build(query)
	}

	events := make(chan WatchEvent[T], 1)
	go r.listen(ctx, query, events)
	return events, nil
}

func (r *BaseRepository[T]) listen(ctx context.Context, query firestore.Query, events chan<- WatchEvent[T]) {
	defer close(events)

	snapshots := query.Snapshots(ctx)
	defer snapshots.Stop()

	for {
		snap, err := snapshots.Next()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			if !deliver(ctx, events, WatchEvent[T]{Err: WrapError(r.op("watch"), err)}) {
				return
			}
			continue
		}

		docs, err := r.collectSnapshot(ctx, snap)
		if err != nil {
			if !deliver(ctx, events, WatchEvent[T]{Err: err}) {
				return
			}
			continue
		}

		if !deliver(ctx, events, WatchEvent[T]{Docs: docs, ReadTime: snap.ReadTime}) {
			return
		}
	}
}

func (r *BaseRepository[T]) collectSnapshot(ctx context.Context, snap *firestore.QuerySnapshot) ([]Document[T], error) {
	var docs []Document[T]
	iter := snap.Documents
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(r.op("watch"), err)
		}
		decoded, err := r.decodeDocument(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("firestore: decode document %s: %w", doc.Ref.ID, err)
		}
		docs = append(docs, decoded)
	}
	return docs, nil
}

func deliver[T any](ctx context.Context, events chan<- WatchEvent[T], event WatchEvent[T]) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
