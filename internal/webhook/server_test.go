package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golden-vcr/watches/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_Server_handlePostWebhook(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		producer      *mockProducer
		wantStatus    int
		wantBody      string
		wantMessages  []string
		wantMediaType string
	}{
		{
			"movie playback produces event keyed by rating key",
			`{"media_type":"movie","rating_key":"1234","grandparent_rating_key":""}`,
			&mockProducer{},
			http.StatusNoContent,
			"",
			[]string{`{"itemId":"1234","kind":"movie"}`},
			"movie",
		},
		{
			"episode playback produces event keyed by show rating key",
			`{"media_type":"episode","rating_key":"905","grandparent_rating_key":"900"}`,
			&mockProducer{},
			http.StatusNoContent,
			"",
			[]string{`{"itemId":"900","kind":"tv"}`},
			"episode",
		},
		{
			"other media types are ignored",
			`{"media_type":"track","rating_key":"77","grandparent_rating_key":"70"}`,
			&mockProducer{},
			http.StatusNoContent,
			"",
			nil,
			"track",
		},
		{
			"episode without show rating key is a 400",
			`{"media_type":"episode","rating_key":"905"}`,
			&mockProducer{},
			http.StatusBadRequest,
			"notification is missing a rating key: grandparent_rating_key is required for episodes",
			nil,
			"episode",
		},
		{
			"movie without rating key is a 400",
			`{"media_type":"movie"}`,
			&mockProducer{},
			http.StatusBadRequest,
			"notification is missing a rating key: rating_key is required for movies",
			nil,
			"movie",
		},
		{
			"malformed payload is a 400",
			`not json`,
			&mockProducer{},
			http.StatusBadRequest,
			"invalid notification payload",
			nil,
			"",
		},
		{
			"failure to produce is a 500",
			`{"media_type":"movie","rating_key":"1234"}`,
			&mockProducer{err: fmt.Errorf("channel closed")},
			http.StatusInternalServerError,
			"channel closed",
			nil,
			"movie",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			s := NewServer(tt.producer, m)
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tt.body))
			res := httptest.NewRecorder()
			s.handlePostWebhook(res, req)

			b, err := io.ReadAll(res.Body)
			assert.NoError(t, err)
			body := strings.TrimSuffix(string(b), "\n")
			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantMessages, tt.producer.messages)
			if tt.wantMediaType != "" {
				assert.Equal(t, float64(1), testutil.ToFloat64(m.PlaybackEvents.WithLabelValues(tt.wantMediaType)))
			}
		})
	}
}

type mockProducer struct {
	err      error
	messages []string
}

func (m *mockProducer) Send(ctx context.Context, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, string(data))
	return nil
}
