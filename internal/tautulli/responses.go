package tautulli

// Response is the envelope that wraps every Tautulli API v2 response body
type Response[T any] struct {
	Response struct {
		Result  string  `json:"result"`
		Message *string `json:"message"`
		Data    T       `json:"data"`
	} `json:"response"`
}

// History is a single page of results from get_history, in the generic shape that
// can describe episode watches as well as movie watches
type History struct {
	Draw            int           `json:"draw"`
	RecordsTotal    int           `json:"recordsTotal"`
	RecordsFiltered int           `json:"recordsFiltered"`
	Data            []HistoryItem `json:"data"`
}

// HistoryItem is a single watch event recorded for a single user. ParentMediaIndex
// (season) and MediaIndex (episode) are only present for TV episodes.
type HistoryItem struct {
	User             string `json:"user"`
	Date             int64  `json:"date"`
	Duration         int64  `json:"duration"`
	PercentComplete  int    `json:"percent_complete"`
	MediaIndex       *int   `json:"media_index"`
	ParentMediaIndex *int   `json:"parent_media_index"`
}

// HistoryMovie is a page of get_history results for a movie, which carries no
// season/episode information
type HistoryMovie struct {
	Draw            int                `json:"draw"`
	RecordsTotal    int                `json:"recordsTotal"`
	RecordsFiltered int                `json:"recordsFiltered"`
	Data            []HistoryMovieItem `json:"data"`
}

type HistoryMovieItem struct {
	User            string `json:"user"`
	Date            int64  `json:"date"`
	Duration        int64  `json:"duration"`
	PercentComplete int    `json:"percent_complete"`
}
