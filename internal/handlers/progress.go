package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/models"
	"stwipe-backend/internal/storage"
)

type ProgressHandler struct {
	store storage.Store
	log   *logrus.Entry
}

func NewProgressHandler(store storage.Store, log *logrus.Entry) *ProgressHandler {
	return &ProgressHandler{store: store, log: log}
}

// loadOrCreate returns the user's progress for the playlist, creating an
// empty record on first touch.
func (h *ProgressHandler) loadOrCreate(r *http.Request, userID, playlistID uuid.UUID) (*models.UserProgress, error) {
	progress, err := h.store.GetProgress(r.Context(), userID, playlistID)
	if err == nil {
		return progress, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	progress = &models.UserProgress{
		UserID:           userID,
		PlaylistID:       playlistID,
		CompletedShorts:  []uuid.UUID{},
		BookmarkedShorts: []uuid.UUID{},
	}
	if err := h.store.CreateProgress(r.Context(), progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// Update records a study session event: the short being viewed, time spent on
// it, and whether it was completed.
func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.store)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	var req models.UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.ShortID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "short_id is required", r))
		return
	}
	if req.TimeSpent < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "time_spent must not be negative", r))
		return
	}

	short, err := h.store.GetStudyShort(r.Context(), req.ShortID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Study short not found", r))
		return
	}

	progress, err := h.loadOrCreate(r, user.ID, short.PlaylistID)
	if err != nil {
		h.log.WithError(err).Error("failed to load progress")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load progress", r))
		return
	}

	shortID := req.ShortID
	progress.CurrentShortID = &shortID
	progress.TotalTimeSpent += req.TimeSpent
	if req.Completed && !containsID(progress.CompletedShorts, req.ShortID) {
		progress.CompletedShorts = append(progress.CompletedShorts, req.ShortID)
	}
	now := time.Now().UTC()
	progress.LastStudiedAt = &now

	if err := h.store.SaveProgress(r.Context(), progress); err != nil {
		h.log.WithError(err).Error("failed to save progress")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save progress", r))
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// ToggleBookmark flips the bookmark state of a short for the caller. Progress
// records are created on demand so bookmarking works before any study session.
func (h *ProgressHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.store)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	shortID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid short ID", r))
		return
	}

	short, err := h.store.GetStudyShort(r.Context(), shortID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Study short not found", r))
		return
	}

	progress, err := h.loadOrCreate(r, user.ID, short.PlaylistID)
	if err != nil {
		h.log.WithError(err).Error("failed to load progress")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load progress", r))
		return
	}

	bookmarked := false
	if containsID(progress.BookmarkedShorts, shortID) {
		progress.BookmarkedShorts = removeID(progress.BookmarkedShorts, shortID)
	} else {
		progress.BookmarkedShorts = append(progress.BookmarkedShorts, shortID)
		bookmarked = true
	}

	if err := h.store.SaveProgress(r.Context(), progress); err != nil {
		h.log.WithError(err).Error("failed to save progress")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save progress", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
