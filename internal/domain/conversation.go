package domain

// Message is a single entry in a session timeline. Messages are never
// modified after they are appended.
type Message struct {
	ID        MessageID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
}

// ChatSession is a titled, ordered conversation between the user and the assistant.
type ChatSession struct {
	ID          SessionID `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated Timestamp `json:"lastUpdated"`

	// Organisation metadata set from the sidebar
	Archived bool     `json:"archived,omitempty"`
	FolderID *string  `json:"folderId,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Clone returns a deep copy so callers can't mutate store-owned state.
func (s *ChatSession) Clone() ChatSession {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	if s.FolderID != nil {
		folder := *s.FolderID
		out.FolderID = &folder
	}
	return out
}

// SessionPatch is a partial update of a ChatSession. Nil fields are left untouched.
type SessionPatch struct {
	Title       *string
	Archived    *bool
	FolderID    *string
	ClearFolder bool
	Tags        []string
	SetTags     bool
	LastUpdated *Timestamp
}

// Apply shallow-merges the patch into s.
func (p SessionPatch) Apply(s *ChatSession) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Archived != nil {
		s.Archived = *p.Archived
	}
	if p.ClearFolder {
		s.FolderID = nil
	} else if p.FolderID != nil {
		folder := *p.FolderID
		s.FolderID = &folder
	}
	if p.SetTags {
		s.Tags = append([]string(nil), p.Tags...)
	}
	if p.LastUpdated != nil {
		s.LastUpdated = *p.LastUpdated
	}
}

// Settings are the AI parameters a user can tune per request.
type Settings struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}
