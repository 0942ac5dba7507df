package domain

import "time"

// KnowledgeEntry is one company fact the assistant can ground replies on.
type KnowledgeEntry struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category,omitempty" yaml:"category"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords"`
}

type Feedback string

const (
	FeedbackNone     Feedback = ""
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
)

// ChatLog records one answered /chat request for the admin dashboard.
type ChatLog struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SessionID SessionID `json:"session_id,omitempty"`
	UserQuery string    `json:"user_query"`
	Response  string    `json:"response"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	Feedback  Feedback  `json:"feedback"`
}
