package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

// Storage keys shared with the web client.
const (
	SessionsKey       = "yvi_chat_sessions"
	CurrentSessionKey = "yvi_current_session"
)

const maxTitleRunes = 30

// Store owns the list of chat sessions and the current session pointer.
// Every mutation is mirrored to the KeyValueStore. Store is safe for
// concurrent use.
type Store struct {
	kv      domain.KeyValueStore
	reply   domain.ReplyService
	deleter domain.SessionDeleter
	now     func() time.Time
	newID   func() string
	log     *zerolog.Logger

	mu        sync.Mutex
	sessions  []*domain.ChatSession
	currentID domain.SessionID
	inFlight  int
	lastErr   string

	// unread is set when the persisted list could not be read at startup.
	// Stored sessions are merged back before the next write so a transient
	// read failure never overwrites them.
	unread bool

	sendLocks sync.Map // domain.SessionID -> *sync.Mutex
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUIDv7 generator used for session and message ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithSessionDeleter notifies the backend when sessions are deleted.
func WithSessionDeleter(d domain.SessionDeleter) Option {
	return func(s *Store) { s.deleter = d }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore builds a store and restores whatever kv holds. When nothing usable
// is persisted a fresh session is created, so the store is never empty.
func NewStore(ctx context.Context, kv domain.KeyValueStore, reply domain.ReplyService, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		reply: reply,
		now:   time.Now,
		newID: newUUID,
		log:   observability.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return s
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Store) load(ctx context.Context) {
	raw, ok, err := s.kv.Get(ctx, SessionsKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read persisted sessions, leaving them untouched")
		s.unread = true
		s.insertLocked(s.newSessionLocked())
		return
	}

	var stored []*domain.ChatSession
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.log.Warn().Err(err).Msg("discarding unreadable persisted sessions")
			stored = nil
		}
	}

	sessions := stored[:0]
	for _, sess := range stored {
		if sess != nil && sess.ID != "" {
			sessions = append(sessions, sess)
		}
	}

	if len(sessions) == 0 {
		s.createLocked(ctx)
		return
	}
	s.sessions = sessions

	currentID, ok, err := s.kv.Get(ctx, CurrentSessionKey)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Msg("failed to read current session id")
		s.currentID = s.sessions[0].ID
	case ok && s.indexLocked(domain.SessionID(currentID)) >= 0:
		s.currentID = domain.SessionID(currentID)
	default:
		s.currentID = s.sessions[0].ID
		s.persistLocked(ctx)
	}

	s.log.Debug().Int("sessions", len(s.sessions)).Str("current", string(s.currentID)).Msg("sessions restored")
}

// CreateSession adds an empty session at the front of the list and makes it current.
func (s *Store) CreateSession(ctx context.Context) domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx)
}

func (s *Store) createLocked(ctx context.Context) domain.SessionID {
	session := s.newSessionLocked()
	s.insertLocked(session)
	s.persistLocked(ctx)
	return session.ID
}

func (s *Store) newSessionLocked() *domain.ChatSession {
	return &domain.ChatSession{
		ID:          domain.SessionID(s.newID()),
		Title:       domain.DefaultSessionTitle,
		Messages:    []domain.Message{},
		LastUpdated: domain.ToTimestamp(s.now()),
	}
}

// insertLocked puts session at the front and makes it current.
func (s *Store) insertLocked(session *domain.ChatSession) {
	s.sessions = append([]*domain.ChatSession{session}, s.sessions...)
	s.currentID = session.ID
}

// SwitchSession points the store at id. An unknown id leaves no current session.
func (s *Store) SwitchSession(ctx context.Context, id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentID = id
	s.persistLocked(ctx)
}

// DeleteSession removes one session. The backend is told about it when a
// SessionDeleter is configured; that call never blocks the local delete.
func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) {
	s.BulkDeleteSessions(ctx, []domain.SessionID{id})
}

// BulkDeleteSessions removes every listed session in one mutation.
func (s *Store) BulkDeleteSessions(ctx context.Context, ids []domain.SessionID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[domain.SessionID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	var removed []domain.SessionID
	kept := s.sessions[:0:0]
	for _, sess := range s.sessions {
		if drop[sess.ID] {
			removed = append(removed, sess.ID)
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
	s.ensureCurrentLocked(ctx, drop[s.currentID])
	s.persistLocked(ctx)
	s.mu.Unlock()

	for _, id := range removed {
		s.sendLocks.Delete(id)
	}
	s.notifyDeleted(ctx, removed)
}

// ensureCurrentLocked keeps the "never empty" invariant and moves the current
// pointer to the first session when the current one went away.
func (s *Store) ensureCurrentLocked(ctx context.Context, currentGone bool) {
	if len(s.sessions) == 0 {
		s.createLocked(ctx)
		return
	}
	if currentGone {
		s.currentID = s.sessions[0].ID
	}
}

func (s *Store) notifyDeleted(ctx context.Context, ids []domain.SessionID) {
	if s.deleter == nil {
		return
	}
	for _, id := range ids {
		if !s.deleter.DeleteSession(ctx, id) {
			s.log.Warn().Str("session_id", string(id)).Msg("backend did not acknowledge session deletion")
		}
	}
}

// UpdateSession shallow-merges patch into the session with the given id.
func (s *Store) UpdateSession(ctx context.Context, id domain.SessionID, patch domain.SessionPatch) {
	s.BulkUpdateSessions(ctx, []domain.SessionID{id}, patch)
}

func (s *Store) BulkUpdateSessions(ctx context.Context, ids []domain.SessionID, patch domain.SessionPatch) {
	if len(ids) == 0 {
		return
	}
	match := make(map[domain.SessionID]bool, len(ids))
	for _, id := range ids {
		match[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if match[sess.ID] {
			patch.Apply(sess)
		}
	}
	s.persistLocked(ctx)
}

// ReorderSessions puts sessions in the order of ids. Sessions missing from
// ids are dropped and unknown ids are ignored.
func (s *Store) ReorderSessions(ctx context.Context, ids []domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[domain.SessionID]*domain.ChatSession, len(s.sessions))
	for _, sess := range s.sessions {
		byID[sess.ID] = sess
	}

	ordered := make([]*domain.ChatSession, 0, len(ids))
	for _, id := range ids {
		if sess, ok := byID[id]; ok {
			ordered = append(ordered, sess)
			delete(byID, id)
		}
	}
	s.sessions = ordered
	s.ensureCurrentLocked(ctx, s.indexLocked(s.currentID) < 0)
	s.persistLocked(ctx)
}

// ClearAllSessions wipes local state and starts over with one empty session.
func (s *Store) ClearAllSessions(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	s.currentID = ""
	s.unread = false
	for _, key := range []string{SessionsKey, CurrentSessionKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to clear persisted key")
		}
	}
	s.sendLocks.Range(func(k, _ any) bool {
		s.sendLocks.Delete(k)
		return true
	})
	s.createLocked(ctx)
}

// SendUserMessage appends content as a user message to the current session,
// asks the reply service for an answer and appends it. Empty content or a
// dangling current session make it a no-op. Failures never propagate: they
// are exposed through Err.
func (s *Store) SendUserMessage(ctx context.Context, content string, settings *domain.Settings) {
	text := strings.TrimSpace(content)
	if text == "" {
		return
	}

	s.mu.Lock()
	target := s.currentID
	if s.indexLocked(target) < 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Sends to the same session are serialized so replies can't interleave.
	lock := s.sendLock(target)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	sess := s.findLocked(target)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	now := s.now()
	userMsg := domain.Message{
		ID:        domain.MessageID(s.newID()),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: domain.ToTimestamp(now),
	}
	if len(sess.Messages) == 0 {
		sess.Title = GenerateTitle(text)
	}
	sess.Messages = append(sess.Messages, userMsg)
	sess.LastUpdated = domain.ToTimestamp(now)
	s.inFlight++
	s.lastErr = ""
	s.persistLocked(ctx)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	log := observability.WithFields(s.log, map[string]any{"session_id": string(target)})

	resp, err := s.reply.Reply(ctx, domain.ReplyRequest{
		Message:   text,
		SessionID: target,
		Settings:  settings,
	})
	if err == nil && resp == nil {
		err = errors.New("empty reply")
	}
	if err != nil {
		log.Warn().Err(err).Msg("reply failed")
		s.mu.Lock()
		s.lastErr = UserFacingError(err)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess = s.findLocked(target)
	if sess == nil {
		log.Info().Msg("session deleted while waiting for reply, dropping it")
		return
	}
	now = s.now()
	sess.Messages = append(sess.Messages, domain.Message{
		ID:        domain.MessageID(s.newID()),
		Role:      domain.RoleAssistant,
		Content:   resp.Reply,
		Timestamp: domain.ToTimestamp(now),
		Source:    resp.Source,
	})
	sess.LastUpdated = domain.ToTimestamp(now)
	s.persistLocked(ctx)
}

func (s *Store) sendLock(id domain.SessionID) *sync.Mutex {
	l, _ := s.sendLocks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// Sessions returns a copy of every session in display order.
func (s *Store) Sessions() []domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	return out
}

// Session returns a copy of the session with the given id.
func (s *Store) Session(id domain.SessionID) (domain.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return domain.ChatSession{}, false
	}
	return sess.Clone(), true
}

// CurrentSession resolves the current pointer. It reports false for a dangling id.
func (s *Store) CurrentSession() (domain.ChatSession, bool) {
	s.mu.Lock()
	id := s.currentID
	s.mu.Unlock()
	return s.Session(id)
}

func (s *Store) CurrentSessionID() domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// IsTyping reports whether a reply is outstanding.
func (s *Store) IsTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Err is the user-facing error of the last failed send, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) indexLocked(id domain.SessionID) int {
	if id == "" {
		return -1
	}
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findLocked(id domain.SessionID) *domain.ChatSession {
	if i := s.indexLocked(id); i >= 0 {
		return s.sessions[i]
	}
	return nil
}

// persistLocked mirrors state into kv. Failures are logged, never returned:
// the in-memory mutation stands either way.
func (s *Store) persistLocked(ctx context.Context) {
	if s.unread && !s.mergeStoredLocked(ctx) {
		s.log.Warn().Msg("persisted sessions still unreadable, skipping write")
		return
	}

	raw, err := json.Marshal(s.sessions)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode sessions")
		return
	}
	if err := s.kv.Set(ctx, SessionsKey, string(raw)); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist sessions")
	}
	if s.currentID == "" {
		return
	}
	if err := s.kv.Set(ctx, CurrentSessionKey, string(s.currentID)); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist current session id")
	}
}

// mergeStoredLocked re-reads the persisted list after a failed startup read
// and appends the stored sessions that are not already in memory. It reports
// whether writing is safe again.
func (s *Store) mergeStoredLocked(ctx context.Context) bool {
	raw, ok, err := s.kv.Get(ctx, SessionsKey)
	if err != nil {
		return false
	}
	s.unread = false
	if !ok || raw == "" {
		return true
	}

	var stored []*domain.ChatSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable persisted sessions")
		return true
	}
	merged := 0
	for _, sess := range stored {
		if sess == nil || sess.ID == "" || s.indexLocked(sess.ID) >= 0 {
			continue
		}
		s.sessions = append(s.sessions, sess)
		merged++
	}
	s.log.Info().Int("sessions", merged).Msg("merged persisted sessions after delayed read")
	return true
}

// GenerateTitle derives a session title from its first message: at most 30
// characters, with "..." appended when the message was longer.
func GenerateTitle(firstMessage string) string {
	if utf8.RuneCountInString(firstMessage) <= maxTitleRunes {
		return firstMessage
	}
	return string([]rune(firstMessage)[:maxTitleRunes]) + "..."
}
