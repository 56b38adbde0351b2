package tautulli

// NormalizeMovieHistory converts a page of movie history into the generic History
// shape, leaving the episode-only fields unset on every item
func NormalizeMovieHistory(h HistoryMovie) History {
	items := make([]HistoryItem, 0, len(h.Data))
	for _, item := range h.Data {
		items = append(items, HistoryItem{
			User:             item.User,
			Date:             item.Date,
			Duration:         item.Duration,
			PercentComplete:  item.PercentComplete,
			MediaIndex:       nil,
			ParentMediaIndex: nil,
		})
	}
	return History{
		Draw:            h.Draw,
		RecordsTotal:    h.RecordsTotal,
		RecordsFiltered: h.RecordsFiltered,
		Data:            items,
	}
}
