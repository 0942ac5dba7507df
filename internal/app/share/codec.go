// Package share turns conversations, favorites and templates into opaque,
// URL-safe share codes and back.
package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

type Kind string

const (
	KindConversation Kind = "conversation"
	KindFavorites    Kind = "favorites"
	KindTemplate     Kind = "template"
)

// Version is written into every envelope.
const Version = "1.0"

// sharedMessageTitle is the title of a conversation built from one message.
const sharedMessageTitle = "Shared Message"

// Envelope is the decoded form of a share code.
type Envelope struct {
	Type      Kind            `json:"type"`
	Version   string          `json:"version"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

// ConversationData is the payload of a conversation share.
type ConversationData struct {
	Title        string           `json:"title"`
	Messages     []domain.Message `json:"messages"`
	MessageCount int              `json:"messageCount"`
}

// FavoriteData is one entry of a favorites share.
type FavoriteData struct {
	MessageContent string   `json:"messageContent"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Note           string   `json:"note"`
}

// TemplateData is the payload of a template share.
type TemplateData struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Icon           string         `json:"icon"`
	Category       string         `json:"category"`
	SystemPrompt   string         `json:"systemPrompt"`
	StarterPrompts []string       `json:"starterPrompts"`
	Settings       map[string]any `json:"settings"`
}

// Codec encodes and decodes share codes. The zero value is not usable; use NewCodec.
type Codec struct {
	now func() time.Time
}

type Option func(*Codec)

// WithClock makes createdAt deterministic.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(opts ...Option) *Codec {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodeConversation shares a whole session.
func (c *Codec) EncodeConversation(s domain.ChatSession) (string, error) {
	return c.Encode(KindConversation, ConversationFromSession(s))
}

// EncodeMessage shares a single message as a one-message conversation.
func (c *Codec) EncodeMessage(m domain.Message) (string, error) {
	return c.Encode(KindConversation, ConversationData{
		Title:        sharedMessageTitle,
		Messages:     []domain.Message{m},
		MessageCount: 1,
	})
}

// EncodeFavorites shares favorites without their origin metadata.
func (c *Codec) EncodeFavorites(favs []domain.Favorite) (string, error) {
	return c.Encode(KindFavorites, FavoritesFromDomain(favs))
}

func (c *Codec) EncodeTemplate(t domain.Template) (string, error) {
	return c.Encode(KindTemplate, TemplateFromDomain(t))
}

// Encode wraps payload in an envelope of the given kind, serializes it to
// compact JSON and base64url-encodes it without padding.
func (c *Codec) Encode(kind Kind, payload any) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("share: unknown kind %q", kind)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("share: marshal %s payload: %w", kind, err)
	}
	if bytes.Equal(data, []byte("null")) {
		return "", fmt.Errorf("share: %s payload is empty", kind)
	}

	raw, err := json.Marshal(Envelope{
		Type:      kind,
		Version:   Version,
		Data:      data,
		CreatedAt: c.now().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("share: marshal envelope: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses a share code. It reports false for any malformed input and
// never returns a partially valid envelope. Codes produced by the web client
// (standard, padded base64) are accepted too.
func (c *Codec) Decode(code string) (*Envelope, bool) {
	raw, ok := decodeBase64(strings.TrimSpace(code))
	if !ok {
		return nil, false
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if env.Type == "" || env.Version == "" || !env.Type.valid() {
		return nil, false
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, false
	}
	if err := env.checkData(); err != nil {
		return nil, false
	}
	return &env, true
}

// checkData makes sure Data decodes into the payload type of the envelope kind.
func (e *Envelope) checkData() error {
	var err error
	switch e.Type {
	case KindConversation:
		_, err = e.Conversation()
	case KindFavorites:
		_, err = e.Favorites()
	case KindTemplate:
		_, err = e.Template()
	default:
		err = fmt.Errorf("share: unknown type %q", e.Type)
	}
	return err
}

func decodeBase64(s string) ([]byte, bool) {
	if s == "" {
		return nil, false
	}
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	}
	for _, enc := range encodings {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}

// Conversation returns the conversation payload. It fails on other kinds.
func (e *Envelope) Conversation() (*ConversationData, error) {
	var out ConversationData
	if err := e.decodeData(KindConversation, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Envelope) Favorites() ([]FavoriteData, error) {
	var out []FavoriteData
	if err := e.decodeData(KindFavorites, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Envelope) Template() (*TemplateData, error) {
	var out TemplateData
	if err := e.decodeData(KindTemplate, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Envelope) decodeData(want Kind, v any) error {
	if e.Type != want {
		return fmt.Errorf("share: envelope is %q, not %q", e.Type, want)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("share: decode %s data: %w", want, err)
	}
	return nil
}

// BuildShareableLink appends code as the share query parameter of origin.
func BuildShareableLink(origin, code string) string {
	return strings.TrimRight(origin, "/") + "/?share=" + url.QueryEscape(code)
}

// CodeFromLink extracts the share code of a link built by BuildShareableLink.
func CodeFromLink(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	code := u.Query().Get("share")
	return code, code != ""
}

func (k Kind) valid() bool {
	switch k {
	case KindConversation, KindFavorites, KindTemplate:
		return true
	}
	return false
}

// ParseKind validates a kind coming from user input.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.valid()
}

func ConversationFromSession(s domain.ChatSession) ConversationData {
	msgs := s.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return ConversationData{
		Title:        s.Title,
		Messages:     msgs,
		MessageCount: len(msgs),
	}
}

func FavoritesFromDomain(favs []domain.Favorite) []FavoriteData {
	out := make([]FavoriteData, 0, len(favs))
	for _, f := range favs {
		out = append(out, FavoriteData{
			MessageContent: f.MessageContent,
			Category:       f.Category,
			Tags:           nonNil(f.Tags),
			Note:           f.Note,
		})
	}
	return out
}

func TemplateFromDomain(t domain.Template) TemplateData {
	return TemplateData{
		Name:           t.Name,
		Description:    t.Description,
		Icon:           t.Icon,
		Category:       t.Category,
		SystemPrompt:   t.SystemPrompt,
		StarterPrompts: nonNil(t.StarterPrompts),
		Settings:       t.Settings,
	}
}

// nonNil keeps lists encoding as [] rather than null; the web client maps over them.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
