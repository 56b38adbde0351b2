package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/watches"
	"github.com/golden-vcr/watches/internal/metrics"
	"github.com/gorilla/mux"
)

// Notification is the JSON payload that the Tautulli webhook notification agent is
// configured to send on playback events, e.g.:
//
//	{"media_type": "{media_type}", "rating_key": "{rating_key}", "grandparent_rating_key": "{grandparent_rating_key}"}
type Notification struct {
	MediaType            string `json:"media_type"`
	RatingKey            string `json:"rating_key"`
	GrandparentRatingKey string `json:"grandparent_rating_key"`
}

// Producer sends messages to the playback-events exchange; satisfied by rmq.Producer
type Producer interface {
	Send(ctx context.Context, data []byte) error
}

type Server struct {
	producer Producer
	m        *metrics.Metrics
}

func NewServer(producer Producer, m *metrics.Metrics) *Server {
	return &Server{
		producer: producer,
		m:        m,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	// POST /webhook allows Tautulli to notify us that something has been played, so
	// that we can recompute the latest watches for that item
	r.Path("/webhook").Methods("POST").HandlerFunc(s.handlePostWebhook)
}

func (s *Server) handlePostWebhook(res http.ResponseWriter, req *http.Request) {
	var n Notification
	if err := json.NewDecoder(req.Body).Decode(&n); err != nil {
		http.Error(res, "invalid notification payload", http.StatusBadRequest)
		return
	}
	s.m.PlaybackEvents.WithLabelValues(n.MediaType).Inc()

	// Resolve the item whose watches are affected: an episode rolls up to its show.
	// Anything other than a movie or an episode is acknowledged and ignored.
	ev, ok, err := toPlaybackEvent(&n)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	// Propagate to playback-events so that the consumer can recompute watches
	if err := s.produce(req.Context(), ev); err != nil {
		entry.Log(req).Error("Failed to produce playback event", "playbackEvent", ev, "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	entry.Log(req).Info("Produced playback event", "playbackEvent", ev)
	res.WriteHeader(http.StatusNoContent)
}

func (s *Server) produce(ctx context.Context, ev *watches.PlaybackEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.producer.Send(ctx, data)
}
