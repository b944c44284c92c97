package handlers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/models"
	"stwipe-backend/internal/storage"
)

var playlistIDRegex = regexp.MustCompile(`[?&]list=([a-zA-Z0-9_-]+)`)

var supportedLanguages = map[string]bool{
	"hinglish": true,
	"english":  true,
	"hindi":    true,
}

// EnqueueFunc hands a persisted job to the processing queue.
type EnqueueFunc func(ctx context.Context, job *models.Job) error

type PlaylistHandler struct {
	store   storage.Store
	enqueue EnqueueFunc
	log     *logrus.Entry
}

func NewPlaylistHandler(store storage.Store, enqueue EnqueueFunc, log *logrus.Entry) *PlaylistHandler {
	return &PlaylistHandler{store: store, enqueue: enqueue, log: log}
}

// Process validates the playlist URL, creates a pending Playlist, and
// enqueues the processing job. Validation happens before anything is
// persisted.
func (h *PlaylistHandler) Process(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.store)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	var req models.ProcessPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	matches := playlistIDRegex.FindStringSubmatch(req.YouTubeURL)
	if len(matches) < 2 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid YouTube playlist URL", r))
		return
	}

	language := req.Language
	if language == "" {
		language = "hinglish"
	}
	if !supportedLanguages[language] {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unsupported language", r))
		return
	}

	playlist := &models.Playlist{
		UserID:            user.ID,
		Title:             "YouTube Playlist", // replaced once the fetcher resolves the real title
		YouTubeURL:        req.YouTubeURL,
		YouTubePlaylistID: matches[1],
		Language:          language,
		Status:            models.StatusPending,
	}
	if req.Subject != "" {
		playlist.Subject = &req.Subject
	}

	if err := h.store.CreatePlaylist(r.Context(), playlist); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create playlist", r))
		return
	}

	job := &models.Job{
		ID:          uuid.New(),
		UserID:      user.ID,
		Type:        "playlist-processing",
		ReferenceID: playlist.ID,
		Status:      models.StatusPending,
	}
	if err := h.enqueue(r.Context(), job); err != nil {
		h.log.WithError(err).Error("failed to enqueue playlist job")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue processing", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"playlist": playlist,
		"job_id":   job.ID,
	})
}

// List returns the caller's playlists, newest first.
func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.store)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	playlists, err := h.store.ListPlaylistsByUser(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list playlists", r))
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}
	writeJSON(w, http.StatusOK, playlists)
}

// Get serves the playlist with its processing counters. The processing
// screen polls this endpoint, so it stays auth-free like the original.
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid playlist ID", r))
		return
	}

	playlist, err := h.store.GetPlaylist(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Playlist not found", r))
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// Videos returns the playlist's videos in playlist order with their statuses.
func (h *PlaylistHandler) Videos(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid playlist ID", r))
		return
	}

	if _, err := h.store.GetPlaylist(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Playlist not found", r))
		return
	}

	videos, err := h.store.ListVideosByPlaylist(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list videos", r))
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	writeJSON(w, http.StatusOK, videos)
}

// Shorts returns the playlist's study shorts shuffled fresh on every call, so
// each study session gets a different order.
func (h *PlaylistHandler) Shorts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid playlist ID", r))
		return
	}

	shorts, err := h.store.ListShortsByPlaylist(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list shorts", r))
		return
	}
	if shorts == nil {
		shorts = []*models.StudyShort{}
	}

	rand.Shuffle(len(shorts), func(i, j int) {
		shorts[i], shorts[j] = shorts[j], shorts[i]
	})

	writeJSON(w, http.StatusOK, shorts)
}
