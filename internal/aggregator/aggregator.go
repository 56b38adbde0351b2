package aggregator

import (
	"sort"
	"time"

	"github.com/golden-vcr/watches"
	"github.com/golden-vcr/watches/internal/tautulli"
)

var minUnixSeconds = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
var maxUnixSeconds = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()

// LatestByViewer reduces a list of watch events to the single most recent event for
// each viewer. An event only replaces the one we're holding for a viewer if it's
// strictly newer: on a tie, the first event encountered is kept.
func LatestByViewer(items []tautulli.HistoryItem) map[string]tautulli.HistoryItem {
	latest := make(map[string]tautulli.HistoryItem)
	for _, item := range items {
		existing, ok := latest[item.User]
		if !ok || item.Date > existing.Date {
			latest[item.User] = item
		}
	}
	return latest
}

// Summarize projects each viewer's latest watch event into a Watch of the variant
// appropriate to the item's kind, returning a WatchHistory ordered by viewer
func Summarize(itemId string, kind watches.MediaKind, latest map[string]tautulli.HistoryItem) (*watches.WatchHistory, error) {
	viewers := make([]string, 0, len(latest))
	for viewer := range latest {
		viewers = append(viewers, viewer)
	}
	sort.Strings(viewers)

	result := make([]watches.Watch, 0, len(viewers))
	for _, viewer := range viewers {
		item := latest[viewer]
		lastWatchedAt, err := UnixToTime(item.Date)
		if err != nil {
			return nil, &IntegrityError{ItemId: itemId, Viewer: viewer, Err: err}
		}

		if kind == watches.MediaKindMovie {
			result = append(result, watches.MovieWatch{
				Viewer:        viewer,
				LastWatchedAt: lastWatchedAt,
				Progress:      item.PercentComplete,
			})
			continue
		}

		// Every TV watch must identify the episode that was watched: an event with no
		// season or episode index is corrupt, and we refuse to guess
		if item.ParentMediaIndex == nil || item.MediaIndex == nil {
			return nil, &IntegrityError{ItemId: itemId, Viewer: viewer, Err: ErrMissingEpisodeCoordinates}
		}
		result = append(result, watches.EpisodeWatch{
			Viewer:        viewer,
			LastWatchedAt: lastWatchedAt,
			Progress:      item.PercentComplete,
			Season:        *item.ParentMediaIndex,
			Episode:       *item.MediaIndex,
		})
	}

	return &watches.WatchHistory{
		ItemId:  itemId,
		Kind:    kind,
		Watches: result,
	}, nil
}

// UnixToTime converts a whole-second Unix timestamp to a UTC time, failing if the
// result would fall outside of years 0000-9999
func UnixToTime(seconds int64) (time.Time, error) {
	if seconds < minUnixSeconds || seconds > maxUnixSeconds {
		return time.Time{}, ErrTimestampOutOfRange
	}
	return time.Unix(seconds, 0).UTC(), nil
}
