package catalog

import (
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// Requests builds one TrackRequest per track that has a locator. Tracks
// missing from locators are skipped. The release title becomes the group
// label so the archive gets one folder for the album.
func Requests(rel *Release, locators map[string]string) []model.TrackRequest {
	if rel == nil {
		return nil
	}
	reqs := make([]model.TrackRequest, 0, len(rel.Tracks))
	for _, t := range rel.Tracks {
		loc, ok := locators[t.ID]
		if !ok || loc == "" {
			continue
		}
		reqs = append(reqs, model.TrackRequest{
			ID:            t.ID,
			DisplayName:   t.Name,
			SourceLocator: loc,
			GroupLabel:    rel.Title,
			Artist:        t.Artist,
			TrackNumber:   t.TrackNumber,
		})
	}
	return reqs
}
