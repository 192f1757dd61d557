package models

import (
	"strings"
	"time"
	"unicode"
)

type Article struct {
	ID             int64     `json:"-"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int64     `json:"favoritesCount"`
	AuthorID       int64     `json:"-"`
	Author         Profile   `json:"author"`
}

type ArticleUpdate struct {
	Title       *string
	Description *string
	Body        *string
}

// ArticleFilter selects articles for listing. Zero values mean "any".
type ArticleFilter struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

const (
	DefaultArticleLimit = 20
	MaxArticleLimit     = 100
)

// Normalize clamps paging to sane bounds.
func (f ArticleFilter) Normalize() ArticleFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultArticleLimit
	}
	if f.Limit > MaxArticleLimit {
		f.Limit = MaxArticleLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Slugify lowercases title and joins its alphanumeric runs with "-".
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// NormalizeTags trims, drops empties and removes duplicates, keeping order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
