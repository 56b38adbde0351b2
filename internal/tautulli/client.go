package tautulli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golden-vcr/watches"
)

var ErrRequestFailed = errors.New("tautulli request was not successful")

// Client makes requests to the Tautulli API
type Client struct {
	baseUrl    string
	apiKey     string
	httpClient *http.Client
}

// NewClient initializes a Tautulli client for the server running at baseUrl, e.g.
// http://localhost:8181
func NewClient(baseUrl string, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseUrl:    strings.TrimSuffix(baseUrl, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetHistory fetches the watch history for a single item. Movies are queried by
// their own rating key, and their history is normalized into the generic shape.
// TV items are queried by the rating key of the show, so that the history for all
// episodes of the show is rolled up together.
func (c *Client) GetHistory(ctx context.Context, itemId string, kind watches.MediaKind) (*History, error) {
	if kind == watches.MediaKindMovie {
		params := url.Values{}
		params.Set("rating_key", itemId)
		h, err := getObj[HistoryMovie](ctx, c, "get_history", params)
		if err != nil {
			return nil, err
		}
		normalized := NormalizeMovieHistory(*h)
		return &normalized, nil
	}

	params := url.Values{}
	params.Set("grandparent_rating_key", itemId)
	return getObj[History](ctx, c, "get_history", params)
}

// getObj calls the given API command and decodes the data payload from the response
// envelope
func getObj[T any](ctx context.Context, c *Client, cmd string, params url.Values) (*T, error) {
	// Every command is a GET request to /api/v2, with the API key and command name
	// passed alongside any command-specific parameters
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", c.apiKey)
	q.Set("cmd", cmd)
	endpoint := c.baseUrl + "/api/v2"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	// Make the request, and ensure that we got a valid response
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tautulli %s request: %w", cmd, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got response %d from tautulli %s", res.StatusCode, cmd)
	}
	var envelope Response[T]
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode tautulli %s response: %w", cmd, err)
	}

	// Tautulli reports errors in-band, with a result other than 'success'
	if envelope.Response.Result != "success" {
		message := "no message"
		if envelope.Response.Message != nil {
			message = *envelope.Response.Message
		}
		return nil, fmt.Errorf("%w: %s: result '%s' (%s)", ErrRequestFailed, cmd, envelope.Response.Result, message)
	}
	return &envelope.Response.Data, nil
}
