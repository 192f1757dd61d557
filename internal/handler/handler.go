package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/honeynil/conduit/internal/infrastructure/auth"
	service "github.com/honeynil/conduit/internal/services"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
)

type Handler struct {
	users    service.UserService
	profiles service.ProfileService
	articles service.ArticleService
	tags     service.TagService
}

func NewHandler(
	users service.UserService,
	profiles service.ProfileService,
	articles service.ArticleService,
	tags service.TagService,
) *Handler {
	return &Handler{
		users:    users,
		profiles: profiles,
		articles: articles,
		tags:     tags,
	}
}

// RegisterRoutes mounts the API on r. gate decides which routes need a
// token and which merely accept one.
func (h *Handler) RegisterRoutes(r *mux.Router, gate *auth.Gate) {
	required := func(f http.HandlerFunc) http.Handler { return gate.RequireAuth(f) }
	optional := func(f http.HandlerFunc) http.Handler { return gate.OptionalAuth(f) }

	r.Handle("/users", http.HandlerFunc(h.Register)).Methods(http.MethodPost)
	r.Handle("/users/login", http.HandlerFunc(h.Login)).Methods(http.MethodPost)
	r.Handle("/user", required(h.CurrentUser)).Methods(http.MethodGet)
	r.Handle("/user", required(h.UpdateUser)).Methods(http.MethodPut)

	r.Handle("/profiles/{username}", optional(h.GetProfile)).Methods(http.MethodGet)
	r.Handle("/profiles/{username}/follow", required(h.Follow)).Methods(http.MethodPost)
	r.Handle("/profiles/{username}/follow", required(h.Unfollow)).Methods(http.MethodDelete)

	r.Handle("/articles/feed", required(h.Feed)).Methods(http.MethodGet)
	r.Handle("/articles", optional(h.ListArticles)).Methods(http.MethodGet)
	r.Handle("/articles", required(h.CreateArticle)).Methods(http.MethodPost)
	r.Handle("/articles/{slug}", optional(h.GetArticle)).Methods(http.MethodGet)
	r.Handle("/articles/{slug}", required(h.UpdateArticle)).Methods(http.MethodPut)
	r.Handle("/articles/{slug}", required(h.DeleteArticle)).Methods(http.MethodDelete)
	r.Handle("/articles/{slug}/favorite", required(h.Favorite)).Methods(http.MethodPost)
	r.Handle("/articles/{slug}/favorite", required(h.Unfavorite)).Methods(http.MethodDelete)

	r.Handle("/tags", http.HandlerFunc(h.ListTags)).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError renders err as an AppError body with the mapped status.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := pkgerrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", appErr.Status, "error", err)
	}
	writeJSON(w, appErr.Status, appErr)
}

func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", pkgerrors.ErrInvalidInput, err)
	}
	return nil
}

// viewerID is the authenticated user, or 0 on an anonymous request.
func viewerID(r *http.Request) int64 {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// currentUserID is for routes behind RequireAuth.
func currentUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, r, pkgerrors.ErrUnauthorized)
		return 0, false
	}
	return id, true
}
