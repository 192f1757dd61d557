package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/honeynil/conduit/internal/models"
	service "github.com/honeynil/conduit/internal/services"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
)

type articleResponse struct {
	Article *models.Article `json:"article"`
}

type articlesResponse struct {
	Articles      []*models.Article `json:"articles"`
	ArticlesCount int64             `json:"articlesCount"`
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Article struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Body        string   `json:"body"`
			TagList     []string `json:"tagList"`
		} `json:"article"`
	}
	if err := decode(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	article, err := h.articles.Create(r.Context(), userID, service.ArticleInput{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, articleResponse{Article: article})
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.articles.Get(r.Context(), viewerID(r), mux.Vars(r)["slug"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := paging(query)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	articles, total, err := h.articles.List(r.Context(), viewerID(r), models.ArticleFilter{
		Tag:       query.Get("tag"),
		Author:    query.Get("author"),
		Favorited: query.Get("favorited"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articlesResponse{Articles: articles, ArticlesCount: total})
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	limit, offset, err := paging(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	articles, total, err := h.articles.Feed(r.Context(), userID, limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articlesResponse{Articles: articles, ArticlesCount: total})
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Article struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Body        *string `json:"body"`
		} `json:"article"`
	}
	if err := decode(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	article, err := h.articles.Update(r.Context(), userID, mux.Vars(r)["slug"], models.ArticleUpdate{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.articles.Delete(r.Context(), userID, mux.Vars(r)["slug"]); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Favorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	article, err := h.articles.Favorite(r.Context(), userID, mux.Vars(r)["slug"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

func (h *Handler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	article, err := h.articles.Unfavorite(r.Context(), userID, mux.Vars(r)["slug"])
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

func paging(query url.Values) (limit, offset int, err error) {
	if limit, err = intParam(query, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(query, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, pkgerrors.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}
