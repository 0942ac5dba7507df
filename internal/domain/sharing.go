package domain

// Favorite is a message the user bookmarked, with their own annotations.
type Favorite struct {
	MessageID      MessageID `json:"messageId,omitempty"`
	SessionID      SessionID `json:"sessionId,omitempty"`
	SessionTitle   string    `json:"sessionTitle,omitempty"`
	MessageRole    Role      `json:"messageRole,omitempty"`
	MessageContent string    `json:"messageContent"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	Note           string    `json:"note"`
}

// Template is a reusable conversation starter.
type Template struct {
	Name           string         `json:"name,omitempty"`
	Description    string         `json:"description,omitempty"`
	Icon           string         `json:"icon,omitempty"`
	Category       string         `json:"category,omitempty"`
	SystemPrompt   string         `json:"systemPrompt,omitempty"`
	StarterPrompts []string       `json:"starterPrompts,omitempty"`
	Settings       map[string]any `json:"settings,omitempty"`
}
