package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/honeynil/conduit/internal/models"
)

type profileResponse struct {
	Profile *models.Profile `json:"profile"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), viewerID(r), mux.Vars(r)["username"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: profile})
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.Follow(r.Context(), userID, mux.Vars(r)["username"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: profile})
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.Unfollow(r.Context(), userID, mux.Vars(r)["username"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: profile})
}
