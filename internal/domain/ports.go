package domain

import "context"

// KeyValueStore is the durable local storage the session store mirrors into.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ReplyRequest is what the client sends to the reply service.
type ReplyRequest struct {
	Message   string    `json:"message"`
	SessionID SessionID `json:"sessionId,omitempty"`
	Settings  *Settings `json:"settings,omitempty"`
}

// ReplyResponse is the reply service answer.
type ReplyResponse struct {
	Reply  string `json:"reply"`
	Source string `json:"source,omitempty"`
}

// ReplyService produces an assistant reply for a user message.
type ReplyService interface {
	Reply(ctx context.Context, req ReplyRequest) (*ReplyResponse, error)
}

// SessionDeleter notifies the backend that a session is gone. Best effort.
type SessionDeleter interface {
	DeleteSession(ctx context.Context, id SessionID) bool
}

// Prompt is the system prompt plus the user content sent to an LLM.
type Prompt struct {
	System   string
	User     string
	Settings *Settings
}

// LLMClient defines how the backend talks to a language model.
type LLMClient interface {
	GenerateReply(ctx context.Context, prompt Prompt) (string, error)
}

// KnowledgeStore persists the knowledge base.
type KnowledgeStore interface {
	ListEntries(ctx context.Context) ([]KnowledgeEntry, error)
	UpsertEntries(ctx context.Context, entries []KnowledgeEntry) error
}

// ChatLogStore persists answered chats.
type ChatLogStore interface {
	AppendChatLog(ctx context.Context, log *ChatLog) error
	ListChatLogs(ctx context.Context, limit int) ([]*ChatLog, error)
	SetFeedback(ctx context.Context, id string, feedback Feedback) error
}
