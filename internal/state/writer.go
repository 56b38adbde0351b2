package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/golden-vcr/watches"
	"github.com/google/uuid"
)

type Queries interface {
	GetLatestWatchesEx(ctx context.Context, itemID string) (map[string]watches.Watch, error)
	RecordLatestWatchEx(ctx context.Context, itemID string, w watches.Watch) (sql.Result, error)
}

// Producer sends messages to the watch-events exchange; satisfied by rmq.Producer
type Producer interface {
	Send(ctx context.Context, data []byte) error
}

// Writer records the latest watches of each item, so that downstream services can
// be notified whenever a viewer's latest watch changes
type Writer interface {
	Record(ctx context.Context, history *watches.WatchHistory) (*watches.WatchHistory, error)
}

func NewWriter(q Queries, producer Producer) Writer {
	return &writer{
		q:        q,
		producer: producer,
		newId:    uuid.New,
	}
}

type writer struct {
	q        Queries
	producer Producer
	newId    func() uuid.UUID
}

// Record compares the given history against the watches we last recorded for the
// same item. The set of watches that are new or different is produced to the
// watch-events queue, then stored in the database, and returned. If nothing has
// changed, no event is produced and the returned history is empty.
//
// Changes are only stored once the event has been produced: if producing or
// recording fails, the same changes are detected and produced again on the next
// call, so downstream services may see an event more than once but never miss one.
func (w *writer) Record(ctx context.Context, history *watches.WatchHistory) (*watches.WatchHistory, error) {
	// Query the watches that we most recently recorded for this item, if any
	prev, err := w.q.GetLatestWatchesEx(ctx, history.ItemId)
	if err != nil {
		return nil, err
	}

	// Collect every watch that doesn't match what we have on record
	changed := make([]watches.Watch, 0)
	for _, watch := range history.Watches {
		if prevWatch, ok := prev[watch.ViewerName()]; ok && isSameWatch(prevWatch, watch) {
			continue
		}
		changed = append(changed, watch)
	}
	diff := &watches.WatchHistory{
		ItemId:  history.ItemId,
		Kind:    history.Kind,
		Watches: changed,
	}
	if len(changed) == 0 {
		return diff, nil
	}

	// Produce an event to the watch-events queue, indicating to all downstream
	// services which viewers have new latest watches for this item
	if err := w.produce(ctx, &watches.Event{
		Id:      w.newId(),
		Type:    watches.EventTypeWatchesChanged,
		History: *diff,
	}); err != nil {
		return nil, err
	}

	// The event is out; now record the new watches so we don't report them again
	for _, watch := range changed {
		if err := w.recordWatch(ctx, history.ItemId, watch); err != nil {
			return nil, err
		}
	}
	return diff, nil
}

func (w *writer) recordWatch(ctx context.Context, itemId string, watch watches.Watch) error {
	result, err := w.q.RecordLatestWatchEx(ctx, itemId, watch)
	if err != nil {
		return err
	}
	numRowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if numRowsAffected != int64(1) {
		return fmt.Errorf("failed to record watch: expected to affect 1 rows; instead affected %d", numRowsAffected)
	}
	return nil
}

func (w *writer) produce(ctx context.Context, ev *watches.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.producer.Send(ctx, data)
}

func isSameWatch(a, b watches.Watch) bool {
	switch a := a.(type) {
	case watches.MovieWatch:
		b, ok := b.(watches.MovieWatch)
		return ok && a.Viewer == b.Viewer && a.LastWatchedAt.Equal(b.LastWatchedAt) && a.Progress == b.Progress
	case watches.EpisodeWatch:
		b, ok := b.(watches.EpisodeWatch)
		return ok && a.Viewer == b.Viewer && a.LastWatchedAt.Equal(b.LastWatchedAt) && a.Progress == b.Progress && a.Season == b.Season && a.Episode == b.Episode
	}
	return false
}
