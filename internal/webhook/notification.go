package webhook

import (
	"errors"
	"fmt"

	"github.com/golden-vcr/watches"
)

var ErrMissingRatingKey = errors.New("notification is missing a rating key")

// toPlaybackEvent identifies the item whose watch history is affected by a
// notification. Movies are identified by their own rating key; episodes by the
// rating key of their show. The second return value is false for any other type of
// media.
func toPlaybackEvent(n *Notification) (*watches.PlaybackEvent, bool, error) {
	switch n.MediaType {
	case "movie":
		if n.RatingKey == "" {
			return nil, false, fmt.Errorf("%w: rating_key is required for movies", ErrMissingRatingKey)
		}
		return &watches.PlaybackEvent{ItemId: n.RatingKey, Kind: watches.MediaKindMovie}, true, nil
	case "episode":
		if n.GrandparentRatingKey == "" {
			return nil, false, fmt.Errorf("%w: grandparent_rating_key is required for episodes", ErrMissingRatingKey)
		}
		return &watches.PlaybackEvent{ItemId: n.GrandparentRatingKey, Kind: watches.MediaKindTv}, true, nil
	}
	return nil, false, nil
}
