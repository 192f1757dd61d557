package kafka

import (
	"time"

	"github.com/google/uuid"
)

const (
	UsersTopic    = "users"
	ArticlesTopic = "articles"
)

type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventArticleCreated     EventType = "article_created"
	EventArticleUpdated     EventType = "article_updated"
	EventArticleDeleted     EventType = "article_deleted"
	EventArticleFavorited   EventType = "article_favorited"
	EventArticleUnfavorited EventType = "article_unfavorited"
)

// Event is the JSON envelope published on every topic.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     int64     `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	ArticleID  int64     `json:"article_id,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(eventType EventType, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
	}
}

// ChangesTags reports whether the event can alter the set of tags in use.
func (e Event) ChangesTags() bool {
	switch e.Type {
	case EventArticleCreated:
		return len(e.Tags) > 0
	case EventArticleDeleted:
		return true
	}
	return false
}
