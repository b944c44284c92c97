package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/middleware"
	"stwipe-backend/internal/models"
	"stwipe-backend/internal/storage"
)

type UserHandler struct {
	store storage.Store
	log   *logrus.Entry
}

func NewUserHandler(store storage.Store, log *logrus.Entry) *UserHandler {
	return &UserHandler{store: store, log: log}
}

// Sync upserts the local user record from the verified token identity.
// Called by the frontend after every sign-in.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	user, err := h.store.GetUserByExternalUID(r.Context(), identity.UID)
	switch {
	case err == nil:
		user.Email = identity.Email
		user.Name = identity.Name
		if err := h.store.UpdateUser(r.Context(), user); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update user", r))
			return
		}
	case isNotFound(err):
		user = &models.User{
			ExternalUID: identity.UID,
			Email:       identity.Email,
			Name:        identity.Name,
		}
		if err := h.store.CreateUser(r.Context(), user); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create user", r))
			return
		}
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Stats returns completed-short totals, hours studied, and the day streak.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.store)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	stats, err := h.store.GetUserStats(r.Context(), user.ID)
	if err != nil {
		h.log.WithError(err).Error("failed to compute user stats")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to compute stats", r))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
