package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/watches"
	"github.com/golden-vcr/watches/internal/aggregator"
	"github.com/golden-vcr/watches/internal/metrics"
	"github.com/gorilla/mux"
)

type Resolver interface {
	GetItemWatches(ctx context.Context, itemId string, kind watches.MediaKind) (*watches.WatchHistory, error)
}

type Server struct {
	r Resolver
	m *metrics.Metrics
}

func NewServer(r Resolver, m *metrics.Metrics) *Server {
	return &Server{
		r: r,
		m: m,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	// GET /watches/movie/{id} reports the latest watch of a movie for each viewer;
	// GET /watches/tv/{id} does the same for all episodes of a show
	r.Path("/watches/{kind}/{id}").Methods("GET").HandlerFunc(s.handleGetWatches)
}

func (s *Server) handleGetWatches(res http.ResponseWriter, req *http.Request) {
	// Figure out which item we want to fetch watches for, and what kind of item it is
	kindStr := mux.Vars(req)["kind"]
	kind, err := watches.ParseMediaKind(kindStr)
	if err != nil {
		s.m.Lookups.WithLabelValues(kindStr, metrics.OutcomeBadRequest).Inc()
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	itemId, ok := mux.Vars(req)["id"]
	if !ok || itemId == "" {
		http.Error(res, "failed to parse 'id' from URL", http.StatusInternalServerError)
		return
	}

	// Fetch the item's history from Tautulli and reduce it to the latest watch for
	// each viewer
	history, err := s.r.GetItemWatches(req.Context(), itemId, kind)
	if err != nil {
		// If Tautulli gave us data that we can't summarize faithfully, that's our
		// problem to report: return 500 with details so the offending record can be
		// tracked down. Any other failure came from the upstream request: 502.
		var integrityErr *aggregator.IntegrityError
		if errors.As(err, &integrityErr) {
			s.m.Lookups.WithLabelValues(string(kind), metrics.OutcomeIntegrityError).Inc()
			entry.Log(req).Error("Watch history violates integrity constraints", "itemId", itemId, "kind", kind, "viewer", integrityErr.Viewer, "error", err)
			http.Error(res, err.Error(), http.StatusInternalServerError)
			return
		}
		s.m.Lookups.WithLabelValues(string(kind), metrics.OutcomeUpstreamError).Inc()
		entry.Log(req).Error("Failed to fetch watch history", "itemId", itemId, "kind", kind, "error", err)
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}
	s.m.Lookups.WithLabelValues(string(kind), metrics.OutcomeOk).Inc()
	s.m.WatchesReturned.WithLabelValues(string(kind)).Observe(float64(len(history.Watches)))

	// We have the requested data; return it JSON-serialized
	if err := json.NewEncoder(res).Encode(history); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}
