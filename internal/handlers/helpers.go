package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"stwipe-backend/internal/middleware"
	"stwipe-backend/internal/models"
	"stwipe-backend/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// currentUser resolves the request's verified identity to a stored user.
func currentUser(ctx context.Context, store storage.Store) (*models.User, error) {
	identity := middleware.GetIdentity(ctx)
	if identity.UID == "" {
		return nil, storage.ErrNotFound
	}
	return store.GetUserByExternalUID(ctx, identity.UID)
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
