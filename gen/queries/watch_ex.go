package queries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golden-vcr/watches"
)

// GetLatestWatchesEx returns the last recorded watch of an item for each viewer,
// keyed by viewer
func (q *Queries) GetLatestWatchesEx(ctx context.Context, itemID string) (map[string]watches.Watch, error) {
	rows, err := q.GetLatestWatches(ctx, itemID)
	if err != nil {
		return nil, err
	}
	result := make(map[string]watches.Watch, len(rows))
	for _, row := range rows {
		kind, err := watches.ParseMediaKind(row.Kind)
		if err != nil {
			return nil, err
		}
		if kind == watches.MediaKindMovie {
			result[row.Viewer] = watches.MovieWatch{
				Viewer:        row.Viewer,
				LastWatchedAt: row.LastWatchedAt.UTC(),
				Progress:      int(row.Progress),
			}
			continue
		}
		if !row.Season.Valid || !row.Episode.Valid {
			return nil, fmt.Errorf("recorded tv watch of item %s by '%s' has no season/episode", itemID, row.Viewer)
		}
		result[row.Viewer] = watches.EpisodeWatch{
			Viewer:        row.Viewer,
			LastWatchedAt: row.LastWatchedAt.UTC(),
			Progress:      int(row.Progress),
			Season:        int(row.Season.Int32),
			Episode:       int(row.Episode.Int32),
		}
	}
	return result, nil
}

// RecordLatestWatchEx stores the given watch as the latest watch of an item by the
// watch's viewer, replacing any previously-recorded watch
func (q *Queries) RecordLatestWatchEx(ctx context.Context, itemID string, w watches.Watch) (sql.Result, error) {
	switch w := w.(type) {
	case watches.MovieWatch:
		return q.RecordLatestWatch(ctx, RecordLatestWatchParams{
			ItemID:        itemID,
			Viewer:        w.Viewer,
			Kind:          string(watches.MediaKindMovie),
			LastWatchedAt: w.LastWatchedAt,
			Progress:      int32(w.Progress),
		})
	case watches.EpisodeWatch:
		return q.RecordLatestWatch(ctx, RecordLatestWatchParams{
			ItemID:        itemID,
			Viewer:        w.Viewer,
			Kind:          string(watches.MediaKindTv),
			LastWatchedAt: w.LastWatchedAt,
			Progress:      int32(w.Progress),
			Season:        sql.NullInt32{Valid: true, Int32: int32(w.Season)},
			Episode:       sql.NullInt32{Valid: true, Int32: int32(w.Episode)},
		})
	}
	return nil, fmt.Errorf("unsupported watch type %T", w)
}
