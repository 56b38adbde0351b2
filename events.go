package watches

import "github.com/google/uuid"

// PlaybackEvent is produced to the 'playback-events' queue whenever Tautulli notifies
// us that an item has been played, indicating that the latest watches for that item
// may have changed
type PlaybackEvent struct {
	ItemId string    `json:"itemId"`
	Kind   MediaKind `json:"kind"`
}

type EventType string

const (
	EventTypeWatchesChanged EventType = "watches-changed"
)

// Event is produced to the 'watch-events' queue when one or more viewers' latest
// watches of an item differ from the last state we recorded. History contains only
// the watches that changed.
type Event struct {
	Id      uuid.UUID    `json:"id"`
	Type    EventType    `json:"type"`
	History WatchHistory `json:"history"`
}
