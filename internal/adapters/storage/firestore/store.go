package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// Store keeps the knowledge base and chat logs in Firestore.
// It implements domain.KnowledgeStore and domain.ChatLogStore.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project (YVI_STORAGE_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) knowledgeCol() *firestore.CollectionRef {
	return s.client.Collection("knowledge_entries")
}

func (s *Store) chatLogsCol() *firestore.CollectionRef {
	return s.client.Collection("chat_logs")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type knowledgeDoc struct {
	EntryID     string    `firestore:"entry_id"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Category    string    `firestore:"category"`
	Keywords    []string  `firestore:"keywords"`
	CreatedAt   time.Time `firestore:"created_at"`
}

type chatLogDoc struct {
	Timestamp time.Time `firestore:"timestamp"`
	SessionID string    `firestore:"session_id"`
	UserQuery string    `firestore:"user_query"`
	Response  string    `firestore:"response"`
	Category  string    `firestore:"category"`
	Source    string    `firestore:"source"`
	Feedback  string    `firestore:"feedback"`
}

// ─────────────────────────────────────────
// KnowledgeStore implementation
// ─────────────────────────────────────────

func (s *Store) ListEntries(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	iter := s.knowledgeCol().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []domain.KnowledgeEntry
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListEntries: %w", err)
		}

		var doc knowledgeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode knowledgeDoc: %w", err)
		}

		out = append(out, domain.KnowledgeEntry{
			ID:          doc.EntryID,
			Title:       doc.Title,
			Description: doc.Description,
			Category:    doc.Category,
			Keywords:    doc.Keywords,
		})
	}
	return out, nil
}

// UpsertEntries writes entries keyed by id (or title). The original creation
// time is kept so listing order stays stable across re-seeding.
func (s *Store) UpsertEntries(ctx context.Context, entries []domain.KnowledgeEntry) error {
	now := time.Now().UTC()
	for i, e := range entries {
		ref := s.knowledgeCol().Doc(docKey(e))
		doc := knowledgeDoc{
			EntryID:     e.ID,
			Title:       e.Title,
			Description: e.Description,
			Category:    e.Category,
			Keywords:    e.Keywords,
			CreatedAt:   now.Add(time.Duration(i) * time.Microsecond),
		}

		_, err := ref.Create(ctx, doc)
		if status.Code(err) == codes.AlreadyExists {
			_, err = ref.Set(ctx, map[string]interface{}{
				"entry_id":    doc.EntryID,
				"title":       doc.Title,
				"description": doc.Description,
				"category":    doc.Category,
				"keywords":    doc.Keywords,
			}, firestore.MergeAll)
		}
		if err != nil {
			return fmt.Errorf("firestore UpsertEntries %q: %w", e.Title, err)
		}
	}
	return nil
}

// docKey builds a document id; Firestore ids can't contain '/'.
func docKey(e domain.KnowledgeEntry) string {
	key := "title-" + e.Title
	if e.ID != "" {
		key = "id-" + e.ID
	}
	out := []rune(key)
	for i, r := range out {
		if r == '/' {
			out[i] = '_'
		}
	}
	return string(out)
}

// ─────────────────────────────────────────
// ChatLogStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendChatLog(ctx context.Context, log *domain.ChatLog) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		return errors.New("chat log without id")
	}

	doc := chatLogDoc{
		Timestamp: log.Timestamp,
		SessionID: string(log.SessionID),
		UserQuery: log.UserQuery,
		Response:  log.Response,
		Category:  log.Category,
		Source:    log.Source,
		Feedback:  string(log.Feedback),
	}

	if _, err := s.chatLogsCol().Doc(log.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendChatLog: %w", err)
	}
	return nil
}

func (s *Store) ListChatLogs(ctx context.Context, limit int) ([]*domain.ChatLog, error) {
	q := s.chatLogsCol().OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.ChatLog
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListChatLogs: %w", err)
		}

		var doc chatLogDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode chatLogDoc: %w", err)
		}

		out = append(out, &domain.ChatLog{
			ID:        snap.Ref.ID,
			Timestamp: doc.Timestamp,
			SessionID: domain.SessionID(doc.SessionID),
			UserQuery: doc.UserQuery,
			Response:  doc.Response,
			Category:  doc.Category,
			Source:    doc.Source,
			Feedback:  domain.Feedback(doc.Feedback),
		})
	}
	return out, nil
}

func (s *Store) SetFeedback(ctx context.Context, id string, feedback domain.Feedback) error {
	_, err := s.chatLogsCol().Doc(id).Update(ctx, []firestore.Update{
		{Path: "feedback", Value: string(feedback)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("chat log %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("firestore SetFeedback: %w", err)
	}
	return nil
}
