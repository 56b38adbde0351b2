package state

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/golden-vcr/watches"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var eventId = uuid.MustParse("bc5c85f6-fe55-4169-ae06-4b390ac13e80")

func Test_writer_Record(t *testing.T) {
	tests := []struct {
		name         string
		q            *mockQueries
		producer     *mockProducer
		history      *watches.WatchHistory
		wantChanged  []watches.Watch
		wantRecorded []watches.Watch
		wantMessages []string
		wantErr      string
	}{
		{
			"first watches of an item are all recorded",
			&mockQueries{},
			&mockProducer{},
			&watches.WatchHistory{
				ItemId: "1234",
				Kind:   watches.MediaKindMovie,
				Watches: []watches.Watch{
					watches.MovieWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC), Progress: 90},
					watches.MovieWatch{Viewer: "b", LastWatchedAt: time.Date(1997, 9, 1, 11, 0, 0, 0, time.UTC), Progress: 10},
				},
			},
			[]watches.Watch{
				watches.MovieWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC), Progress: 90},
				watches.MovieWatch{Viewer: "b", LastWatchedAt: time.Date(1997, 9, 1, 11, 0, 0, 0, time.UTC), Progress: 10},
			},
			[]watches.Watch{
				watches.MovieWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC), Progress: 90},
				watches.MovieWatch{Viewer: "b", LastWatchedAt: time.Date(1997, 9, 1, 11, 0, 0, 0, time.UTC), Progress: 10},
			},
			[]string{
				`{"id":"bc5c85f6-fe55-4169-ae06-4b390ac13e80","type":"watches-changed","history":{"itemId":"1234","kind":"movie","watches":[{"viewer":"a","lastWatchedAt":"1997-09-01T12:00:00Z","progress":90},{"viewer":"b","lastWatchedAt":"1997-09-01T11:00:00Z","progress":10}]}}`,
			},
			"",
		},
		{
			"only changed watches are recorded and produced",
			&mockQueries{
				prev: map[string]watches.Watch{
					"a": watches.EpisodeWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.FixedZone("EDT", -4*60*60)), Progress: 40, Season: 1, Episode: 2},
					"b": watches.EpisodeWatch{Viewer: "b", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC), Progress: 40, Season: 1, Episode: 2},
				},
			},
			&mockProducer{},
			&watches.WatchHistory{
				ItemId: "900",
				Kind:   watches.MediaKindTv,
				Watches: []watches.Watch{
					watches.EpisodeWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 16, 0, 0, 0, time.UTC), Progress: 40, Season: 1, Episode: 2},
					watches.EpisodeWatch{Viewer: "b", LastWatchedAt: time.Date(1997, 9, 2, 12, 0, 0, 0, time.UTC), Progress: 5, Season: 1, Episode: 3},
				},
			},
			[]watches.Watch{
				watches.EpisodeWatch{Viewer: "b", LastWatchedAt: time.Date(1997, 9, 2, 12, 0, 0, 0, time.UTC), Progress: 5, Season: 1, Episode: 3},
			},
			[]watches.Watch{
				watches.EpisodeWatch{Viewer: "b", LastWatchedAt: time.Date(1997, 9, 2, 12, 0, 0, 0, time.UTC), Progress: 5, Season: 1, Episode: 3},
			},
			[]string{
				`{"id":"bc5c85f6-fe55-4169-ae06-4b390ac13e80","type":"watches-changed","history":{"itemId":"900","kind":"tv","watches":[{"viewer":"b","lastWatchedAt":"1997-09-02T12:00:00Z","progress":5,"season":1,"episode":3}]}}`,
			},
			"",
		},
		{
			"no event is produced if nothing changed",
			&mockQueries{
				prev: map[string]watches.Watch{
					"a": watches.MovieWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC), Progress: 90},
				},
			},
			&mockProducer{},
			&watches.WatchHistory{
				ItemId: "1234",
				Kind:   watches.MediaKindMovie,
				Watches: []watches.Watch{
					watches.MovieWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC), Progress: 90},
				},
			},
			[]watches.Watch{},
			nil,
			nil,
			"",
		},
		{
			"query errors abort recording",
			&mockQueries{
				err: fmt.Errorf("db is down"),
			},
			&mockProducer{},
			&watches.WatchHistory{
				ItemId:  "1234",
				Kind:    watches.MediaKindMovie,
				Watches: []watches.Watch{watches.MovieWatch{Viewer: "a", Progress: 90}},
			},
			nil,
			nil,
			nil,
			"db is down",
		},
		{
			"produce errors are returned",
			&mockQueries{},
			&mockProducer{
				err: fmt.Errorf("channel closed"),
			},
			&watches.WatchHistory{
				ItemId:  "1234",
				Kind:    watches.MediaKindMovie,
				Watches: []watches.Watch{watches.MovieWatch{Viewer: "a", Progress: 90}},
			},
			nil,
			nil,
			nil,
			"channel closed",
		},
		{
			"record errors after producing are returned",
			&mockQueries{
				recordErr: fmt.Errorf("db is down"),
			},
			&mockProducer{},
			&watches.WatchHistory{
				ItemId:  "1234",
				Kind:    watches.MediaKindMovie,
				Watches: []watches.Watch{watches.MovieWatch{Viewer: "a", Progress: 90}},
			},
			nil,
			nil,
			[]string{
				`{"id":"bc5c85f6-fe55-4169-ae06-4b390ac13e80","type":"watches-changed","history":{"itemId":"1234","kind":"movie","watches":[{"viewer":"a","lastWatchedAt":"0001-01-01T00:00:00Z","progress":90}]}}`,
			},
			"db is down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &writer{
				q:        tt.q,
				producer: tt.producer,
				newId:    func() uuid.UUID { return eventId },
			}
			got, err := w.Record(context.Background(), tt.history)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.history.ItemId, got.ItemId)
				assert.Equal(t, tt.history.Kind, got.Kind)
				assert.Equal(t, tt.wantChanged, got.Watches)
			}
			assert.Equal(t, tt.wantRecorded, tt.q.recorded)
			assert.Equal(t, tt.wantMessages, tt.producer.messages)
		})
	}
}

func Test_writer_Record_retry(t *testing.T) {
	history := &watches.WatchHistory{
		ItemId:  "1234",
		Kind:    watches.MediaKindMovie,
		Watches: []watches.Watch{watches.MovieWatch{Viewer: "a", LastWatchedAt: time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC), Progress: 90}},
	}
	wantMessage := `{"id":"bc5c85f6-fe55-4169-ae06-4b390ac13e80","type":"watches-changed","history":{"itemId":"1234","kind":"movie","watches":[{"viewer":"a","lastWatchedAt":"1997-09-01T12:00:00Z","progress":90}]}}`

	t.Run("failed produce leaves watches unrecorded", func(t *testing.T) {
		q := &mockQueries{}
		producer := &mockProducer{err: fmt.Errorf("channel closed")}
		w := &writer{q: q, producer: producer, newId: func() uuid.UUID { return eventId }}

		_, err := w.Record(context.Background(), history)
		assert.EqualError(t, err, "channel closed")
		assert.Empty(t, q.recorded)
		assert.Empty(t, producer.messages)

		producer.err = nil
		got, err := w.Record(context.Background(), history)
		assert.NoError(t, err)
		assert.Equal(t, history.Watches, got.Watches)
		assert.Equal(t, history.Watches, q.recorded)
		assert.Equal(t, []string{wantMessage}, producer.messages)

		// Once recorded, the same history is no longer a change
		got, err = w.Record(context.Background(), history)
		assert.NoError(t, err)
		assert.Empty(t, got.Watches)
		assert.Len(t, producer.messages, 1)
	})

	t.Run("failed record produces the event again", func(t *testing.T) {
		q := &mockQueries{recordErr: fmt.Errorf("db is down")}
		producer := &mockProducer{}
		w := &writer{q: q, producer: producer, newId: func() uuid.UUID { return eventId }}

		_, err := w.Record(context.Background(), history)
		assert.EqualError(t, err, "db is down")
		assert.Empty(t, q.recorded)

		q.recordErr = nil
		got, err := w.Record(context.Background(), history)
		assert.NoError(t, err)
		assert.Equal(t, history.Watches, got.Watches)
		assert.Equal(t, history.Watches, q.recorded)
		assert.Equal(t, []string{wantMessage, wantMessage}, producer.messages)
	})
}

func Test_isSameWatch(t *testing.T) {
	at := time.Date(1997, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, isSameWatch(
		watches.MovieWatch{Viewer: "a", LastWatchedAt: at, Progress: 10},
		watches.MovieWatch{Viewer: "a", LastWatchedAt: at.In(time.FixedZone("CET", 60*60)), Progress: 10},
	))
	assert.False(t, isSameWatch(
		watches.MovieWatch{Viewer: "a", LastWatchedAt: at, Progress: 10},
		watches.MovieWatch{Viewer: "a", LastWatchedAt: at, Progress: 11},
	))
	assert.False(t, isSameWatch(
		watches.EpisodeWatch{Viewer: "a", LastWatchedAt: at, Progress: 10, Season: 1, Episode: 1},
		watches.EpisodeWatch{Viewer: "a", LastWatchedAt: at, Progress: 10, Season: 1, Episode: 2},
	))
	assert.False(t, isSameWatch(
		watches.MovieWatch{Viewer: "a", LastWatchedAt: at, Progress: 10},
		watches.EpisodeWatch{Viewer: "a", LastWatchedAt: at, Progress: 10},
	))
}

type mockQueries struct {
	err       error
	recordErr error
	prev      map[string]watches.Watch
	recorded  []watches.Watch
}

func (m *mockQueries) GetLatestWatchesEx(ctx context.Context, itemID string) (map[string]watches.Watch, error) {
	if m.err != nil {
		return nil, m.err
	}
	prev := make(map[string]watches.Watch, len(m.prev))
	for viewer, w := range m.prev {
		prev[viewer] = w
	}
	return prev, nil
}

func (m *mockQueries) RecordLatestWatchEx(ctx context.Context, itemID string, w watches.Watch) (sql.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	if m.prev == nil {
		m.prev = make(map[string]watches.Watch)
	}
	m.prev[w.ViewerName()] = w
	m.recorded = append(m.recorded, w)
	return mockResult(1), nil
}

type mockResult int64

func (r mockResult) LastInsertId() (int64, error) {
	return 0, fmt.Errorf("not supported")
}

func (r mockResult) RowsAffected() (int64, error) {
	return int64(r), nil
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
