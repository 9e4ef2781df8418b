package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"chat-relay/internal/metrics"
	"chat-relay/internal/models"
	"chat-relay/internal/store"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func RegisterHandler(users store.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload models.UsernameRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("[API] Register decode error: %v", err)
			writeError(w, http.StatusBadRequest, "Username required")
			return
		}
		payload.Username = strings.TrimSpace(payload.Username)
		if err := validate.Struct(payload); err != nil {
			writeError(w, http.StatusBadRequest, "Username required")
			return
		}

		user, err := users.Register(payload.Username)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrMissingField):
				writeError(w, http.StatusBadRequest, "Username required")
			case errors.Is(err, store.ErrDuplicateUsername):
				log.Printf("[API] Register collision: %s", payload.Username)
				writeError(w, http.StatusBadRequest, "Username exists")
			default:
				log.Printf("[API] Register failed for %s: %v", payload.Username, err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		metrics.UsersRegistered.Inc()
		writeJSON(w, http.StatusOK, user)
	}
}

func LoginHandler(users store.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload models.UsernameRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("[API] Login decode error: %v", err)
			writeError(w, http.StatusBadRequest, "Username required")
			return
		}

		user, err := users.Login(strings.TrimSpace(payload.Username))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("[API] Login for unknown user: %s", payload.Username)
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			log.Printf("[API] Login failed for %s: %v", payload.Username, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// ListUsersHandler serves the contact list.
func ListUsersHandler(users store.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, users.ListUsers())
	}
}
