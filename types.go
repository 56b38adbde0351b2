package watches

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMediaKind = errors.New("media kind must be 'movie' or 'tv'")

// MediaKind identifies whether an item is a movie or a TV show. It determines both
// how watch history is queried upstream and which Watch variant describes each
// viewer's latest watch.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTv    MediaKind = "tv"
)

func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case MediaKindMovie:
		return MediaKindMovie, nil
	case MediaKindTv:
		return MediaKindTv, nil
	}
	return "", fmt.Errorf("%w: got '%s'", ErrInvalidMediaKind, s)
}

// Watch describes a single viewer's most recent watch of an item: it's either a
// MovieWatch or an EpisodeWatch, depending on the kind of the item
type Watch interface {
	ViewerName() string
}

type MovieWatch struct {
	Viewer        string    `json:"viewer"`
	LastWatchedAt time.Time `json:"lastWatchedAt"`
	Progress      int       `json:"progress"`
}

func (w MovieWatch) ViewerName() string { return w.Viewer }

type EpisodeWatch struct {
	Viewer        string    `json:"viewer"`
	LastWatchedAt time.Time `json:"lastWatchedAt"`
	Progress      int       `json:"progress"`
	Season        int       `json:"season"`
	Episode       int       `json:"episode"`
}

func (w EpisodeWatch) ViewerName() string { return w.Viewer }

// WatchHistory holds the latest watch for each viewer of a single item, ordered by
// viewer. Every entry in Watches is a MovieWatch if Kind is MediaKindMovie, or an
// EpisodeWatch if Kind is MediaKindTv.
type WatchHistory struct {
	ItemId  string    `json:"itemId"`
	Kind    MediaKind `json:"kind"`
	Watches []Watch   `json:"watches"`
}

// Viewers returns the viewer names present in the history, in order
func (h *WatchHistory) Viewers() []string {
	viewers := make([]string, 0, len(h.Watches))
	for _, w := range h.Watches {
		viewers = append(viewers, w.ViewerName())
	}
	return viewers
}

func (h *WatchHistory) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemId  string            `json:"itemId"`
		Kind    MediaKind         `json:"kind"`
		Watches []json.RawMessage `json:"watches"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseMediaKind(string(raw.Kind))
	if err != nil {
		return err
	}

	// Decode each watch into the variant that corresponds to the item's kind
	watches := make([]Watch, 0, len(raw.Watches))
	for _, rawWatch := range raw.Watches {
		if kind == MediaKindMovie {
			var w MovieWatch
			if err := json.Unmarshal(rawWatch, &w); err != nil {
				return err
			}
			watches = append(watches, w)
		} else {
			var w EpisodeWatch
			if err := json.Unmarshal(rawWatch, &w); err != nil {
				return err
			}
			watches = append(watches, w)
		}
	}

	h.ItemId = raw.ItemId
	h.Kind = kind
	h.Watches = watches
	return nil
}
