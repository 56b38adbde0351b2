package watches

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Client is a simple interface that resolves the latest watch for each viewer of an
// item, by way of the watches service
type Client interface {
	GetItemWatches(ctx context.Context, itemId string, kind MediaKind) (*WatchHistory, error)
}

// NewClient initializes a watches.Client that makes HTTP requests to the watches
// service running at the given URL
func NewClient(watchesUrl string) Client {
	return &client{
		watchesUrl: watchesUrl,
		httpClient: http.DefaultClient,
	}
}

type client struct {
	watchesUrl string
	httpClient *http.Client
}

func (c *client) GetItemWatches(ctx context.Context, itemId string, kind MediaKind) (*WatchHistory, error) {
	// Prepare a request to the watches service's history API for the desired item
	url := fmt.Sprintf("%s/watches/%s/%s", c.watchesUrl, kind, url.PathEscape(itemId))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Make the request, and ensure that we got a valid response
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got response %d from %s", res.StatusCode, url)
	}
	var h WatchHistory
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to decode response body from %s: %w", url, err)
	}
	return &h, nil
}
