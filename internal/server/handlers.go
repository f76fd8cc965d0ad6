package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Darthmonkey/tunefetcherai/internal/catalog"
	"github.com/Darthmonkey/tunefetcherai/internal/logger"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
	"github.com/Darthmonkey/tunefetcherai/internal/report"
	"github.com/Darthmonkey/tunefetcherai/internal/resolve"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TrackBody is one track in a download request. url and name are
// accepted as aliases of locator and displayName.
type TrackBody struct {
	ID          string `json:"id"`
	Locator     string `json:"locator"`
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
	GroupLabel  string `json:"groupLabel"`
	Artist      string `json:"artist"`
	TrackNumber int    `json:"trackNumber"`
	ArtworkURL  string `json:"artworkUrl"`
}

// ToRequest converts the body into a TrackRequest. groupLabel is used
// when the track has none of its own.
func (b TrackBody) ToRequest(groupLabel string) model.TrackRequest {
	return model.TrackRequest{
		ID:            b.ID,
		DisplayName:   firstNonEmpty(b.DisplayName, b.Name),
		SourceLocator: firstNonEmpty(b.Locator, b.URL),
		GroupLabel:    firstNonEmpty(b.GroupLabel, groupLabel),
		Artist:        b.Artist,
		TrackNumber:   b.TrackNumber,
		ArtworkURL:    b.ArtworkURL,
	}
}

// BatchBody is the body of a batch request.
type BatchBody struct {
	Tracks     []TrackBody `json:"tracks"`
	GroupLabel string      `json:"groupLabel"`
}

// ReleaseBody is the release part of a MusicBrainz lookup answer.
type ReleaseBody struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// LookupResponse is the answer to a MusicBrainz lookup.
type LookupResponse struct {
	Success     bool                  `json:"success"`
	Release     ReleaseBody           `json:"release"`
	TotalTracks int                   `json:"totalTracks"`
	Tracks      []model.TrackMetadata `json:"tracks"`
}

// Download fetches one track and streams it back.
func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	var body TrackBody
	if !s.decode(w, r, &body) {
		return
	}
	req := body.ToRequest("")
	log := logger.FromContext(r.Context(), s.logger)
	log.Info("download request", "track", req.DisplayName, "locator", req.SourceLocator)

	single, err := s.manager.FetchSingle(r.Context(), req)
	if err != nil {
		s.respondFetchError(w, err)
		return
	}
	if !single.OK() {
		s.respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "failed to download track after multiple retries",
			Message: single.Outcome.ErrorDetail,
		})
		return
	}
	s.reporter.ServeTrack(w, r, single)
}

// DownloadBatch fetches a batch of tracks into one archive and answers
// with a reference to retrieve it.
func (s *Server) DownloadBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchBody
	if !s.decode(w, r, &body) {
		return
	}
	requests := make([]model.TrackRequest, 0, len(body.Tracks))
	for _, t := range body.Tracks {
		requests = append(requests, t.ToRequest(body.GroupLabel))
	}

	result, err := s.manager.RunBatch(r.Context(), requests)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			s.respondJSON(w, http.StatusBadRequest, report.BatchPayload{Error: err.Error(), FailedTracks: []report.FailedTrack{}})
			return
		}
		s.respondFetchError(w, err)
		return
	}

	payload := s.reporter.Batch(result)
	s.respondJSON(w, payload.StatusCode(), payload)
}

// Archive streams a previously assembled archive once.
func (s *Server) Archive(w http.ResponseWriter, r *http.Request) {
	s.reporter.ServeArchive(w, r, r.PathValue("ref"))
}

// Search resolves a free-text query to a source locator.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	locator, err := s.resolver.Search(r.Context(), r.URL.Query().Get("q"))
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, map[string]string{"url": locator})
	case errors.Is(err, resolve.ErrEmptyQuery):
		s.httpError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, resolve.ErrNotFound):
		s.httpError(w, err.Error(), http.StatusNotFound)
	default:
		logger.FromContext(r.Context(), s.logger).Error("search failed", "error", err)
		s.httpError(w, "failed to fetch data from YouTube", http.StatusInternalServerError)
	}
}

// MusicBrainzSearch looks up a release's track list.
func (s *Server) MusicBrainzSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rel, err := s.catalog.Lookup(r.Context(), catalog.Query{
		Artist: q.Get("artist"),
		Album:  q.Get("album"),
		Year:   q.Get("year"),
	})

	failed := false
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, LookupResponse{
			Success:     true,
			Release:     ReleaseBody{ID: rel.ID, Title: rel.Title},
			TotalTracks: len(rel.Tracks),
			Tracks:      rel.Tracks,
		})
	case errors.Is(err, catalog.ErrInvalidQuery):
		s.respondJSON(w, http.StatusBadRequest, ErrorResponse{Success: &failed, Error: err.Error()})
	case errors.Is(err, catalog.ErrNoRelease):
		s.respondJSON(w, http.StatusNotFound, ErrorResponse{Success: &failed, Error: err.Error()})
	default:
		logger.FromContext(r.Context(), s.logger).Error("musicbrainz lookup failed", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, ErrorResponse{Success: &failed, Error: "failed to fetch MusicBrainz data"})
	}
}

// Healthz is a liveness probe.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.httpError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) respondFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrValidation) {
		s.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error("request failed", "error", err)
	s.httpError(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("failed to write response", "error", err)
		}
	}
}

func (s *Server) httpError(w http.ResponseWriter, message string, code int) {
	s.respondJSON(w, code, ErrorResponse{Error: message})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
