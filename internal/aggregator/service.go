package aggregator

import (
	"context"

	"github.com/golden-vcr/watches"
	"github.com/golden-vcr/watches/internal/tautulli"
)

// Fetcher retrieves the raw watch history for an item. *tautulli.Client satisfies
// this interface.
type Fetcher interface {
	GetHistory(ctx context.Context, itemId string, kind watches.MediaKind) (*tautulli.History, error)
}

type Service struct {
	f Fetcher
}

func NewService(f Fetcher) *Service {
	return &Service{
		f: f,
	}
}

// GetItemWatches fetches the history for an item and reduces it to the latest watch
// for each viewer. Fetch errors are returned unmodified; if the history violates
// our invariants, the result is an *IntegrityError.
func (s *Service) GetItemWatches(ctx context.Context, itemId string, kind watches.MediaKind) (*watches.WatchHistory, error) {
	history, err := s.f.GetHistory(ctx, itemId, kind)
	if err != nil {
		return nil, err
	}
	return Summarize(itemId, kind, LatestByViewer(history.Data))
}
