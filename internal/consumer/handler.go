package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/golden-vcr/watches"
	"github.com/golden-vcr/watches/internal/aggregator"
	"github.com/golden-vcr/watches/internal/metrics"
	"github.com/golden-vcr/watches/internal/state"
	"golang.org/x/exp/slog"
)

type Resolver interface {
	GetItemWatches(ctx context.Context, itemId string, kind watches.MediaKind) (*watches.WatchHistory, error)
}

// Handler processes messages from the playback-events queue: for each item that's
// been played, it resolves the latest watches and records any that have changed
type Handler struct {
	r      Resolver
	w      state.Writer
	m      *metrics.Metrics
	logger *slog.Logger
}

func NewHandler(r Resolver, w state.Writer, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		r:      r,
		w:      w,
		m:      m,
		logger: logger,
	}
}

// Handle processes a single message. A message that can't be parsed as a playback
// event is an error; failures to resolve or record watches for a valid event are
// logged, and the message is considered handled.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	var ev watches.PlaybackEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}
	if _, err := watches.ParseMediaKind(string(ev.Kind)); err != nil {
		h.logger.Error("Ignoring playback event with invalid kind", "playbackEvent", ev, "error", err)
		return nil
	}

	history, err := h.r.GetItemWatches(ctx, ev.ItemId, ev.Kind)
	if err != nil {
		outcome := metrics.OutcomeUpstreamError
		var integrityErr *aggregator.IntegrityError
		if errors.As(err, &integrityErr) {
			outcome = metrics.OutcomeIntegrityError
		}
		h.m.Lookups.WithLabelValues(string(ev.Kind), outcome).Inc()
		h.logger.Error("Failed to resolve latest watches", "itemId", ev.ItemId, "kind", ev.Kind, "error", err)
		return nil
	}
	h.m.Lookups.WithLabelValues(string(ev.Kind), metrics.OutcomeOk).Inc()
	h.m.WatchesReturned.WithLabelValues(string(ev.Kind)).Observe(float64(len(history.Watches)))

	changed, err := h.w.Record(ctx, history)
	if err != nil {
		h.logger.Error("Failed to record latest watches", "itemId", ev.ItemId, "kind", ev.Kind, "error", err)
		return nil
	}
	h.m.WatchesChanged.WithLabelValues(string(ev.Kind)).Add(float64(len(changed.Watches)))
	if len(changed.Watches) > 0 {
		h.logger.Info("Latest watches changed", "itemId", ev.ItemId, "kind", ev.Kind, "viewers", changed.Viewers())
	}
	return nil
}
