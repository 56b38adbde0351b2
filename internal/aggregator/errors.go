package aggregator

import (
	"errors"
	"fmt"
)

// ErrTimestampOutOfRange is returned for a watch timestamp that falls outside years
// 0000 through 9999 UTC, i.e. Unix seconds -62167219200 to 253402300799 inclusive.
// Timestamps outside that range can't be rendered as RFC 3339.
var ErrTimestampOutOfRange = errors.New("watch timestamp is outside the representable range")
var ErrMissingEpisodeCoordinates = errors.New("tv watch is missing its season or episode index")

// IntegrityError indicates that the upstream history for an item violates an
// invariant we rely on, so the history can't be summarized without misrepresenting
// it. Err is one of the sentinel errors above.
type IntegrityError struct {
	ItemId string
	Viewer string
	Err    error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("invalid watch history for item %s (viewer '%s'): %v", e.ItemId, e.Viewer, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
