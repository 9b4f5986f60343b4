package mock

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rbxkit/playerstore/pkg/opencloud"
)

const entryRoute = "/cloud/v2/universes/{universe}/data-stores/{datastore}/scopes/{scope}/entries/{entry}"

// Handler serves the universe over the same REST layout as the real Open
// Cloud services, so opencloud.DataStore and opencloud.Users can be pointed
// at it without modification.
func Handler(u *Universe) http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/usernames/users", func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			Usernames []string `json:"usernames"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
			return
		}
		matches := make([]opencloud.User, 0, len(payload.Usernames))
		for _, name := range payload.Usernames {
			user, err := u.ResolveUsername(req.Context(), name)
			if err != nil {
				continue
			}
			matches = append(matches, *user)
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": matches})
	})

	r.Get(entryRoute, func(w http.ResponseWriter, req *http.Request) {
		entry, err := u.GetEntry(req.Context(), chi.URLParam(req, "entry"))
		if err != nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		entry.Path = req.URL.Path
		writeJSON(w, http.StatusOK, entry)
	})

	r.Patch(entryRoute, func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			Value json.RawMessage `json:"value"`
			ETag  string          `json:"etag"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
			return
		}
		entry, err := u.UpdateEntry(req.Context(), chi.URLParam(req, "entry"), payload.Value, payload.ETag)
		switch {
		case errors.Is(err, ErrEntryNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		case errors.Is(err, opencloud.ErrPreconditionFailed):
			writeError(w, http.StatusConflict, "ABORTED", "etag mismatch")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
			return
		}
		entry.Path = req.URL.Path
		writeJSON(w, http.StatusOK, entry)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"code": code, "message": message})
}
