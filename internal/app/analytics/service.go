package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

const (
	DefaultCategory = "General"
	topCategories   = 5
)

// Recorder stores answered chats.
type Recorder interface {
	Record(ctx context.Context, log domain.ChatLog) error
}

// Series is a labelled data series as drawn by the admin dashboard.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

type Stats struct {
	TotalChats       int    `json:"totalChats"`
	TotalMessages    int    `json:"totalMessages"`
	PositiveFeedback int    `json:"positiveFeedback"`
	NegativeFeedback int    `json:"negativeFeedback"`
	DailyActivity    Series `json:"dailyActivity"`
	TopCategories    Series `json:"topCategories"`
}

// Service records chat logs and aggregates them for the admin dashboard.
type Service struct {
	store domain.ChatLogStore
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store domain.ChatLogStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores log, filling in ID, timestamp and category when missing.
func (s *Service) Record(ctx context.Context, log domain.ChatLog) error {
	if log.ID == "" {
		log.ID = s.newID()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = s.now().UTC()
	}
	if log.Category == "" {
		log.Category = DefaultCategory
	}
	if err := s.store.AppendChatLog(ctx, &log); err != nil {
		return fmt.Errorf("record chat log: %w", err)
	}
	return nil
}

// Logs returns the most recent chat logs, newest first.
func (s *Service) Logs(ctx context.Context, limit int) ([]*domain.ChatLog, error) {
	logs, err := s.store.ListChatLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat logs: %w", err)
	}
	if logs == nil {
		logs = []*domain.ChatLog{}
	}
	return logs, nil
}

// ErrInvalidFeedback is returned for feedback values other than positive/negative.
var ErrInvalidFeedback = fmt.Errorf("feedback must be %q or %q", domain.FeedbackPositive, domain.FeedbackNegative)

func (s *Service) SetFeedback(ctx context.Context, id string, feedback domain.Feedback) error {
	switch feedback {
	case domain.FeedbackPositive, domain.FeedbackNegative, domain.FeedbackNone:
	default:
		return ErrInvalidFeedback
	}
	return s.store.SetFeedback(ctx, id, feedback)
}

// Stats aggregates every stored log. Daily activity covers the Monday to
// Sunday week containing now.
func (s *Service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	logs, err := s.store.ListChatLogs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list chat logs: %w", err)
	}

	st := &Stats{
		DailyActivity: Series{
			Labels: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
			Data:   make([]int, 7),
		},
		TopCategories: Series{Labels: []string{}, Data: []int{}},
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -mondayIndex(today.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7)

	sessions := make(map[domain.SessionID]bool)
	categories := make(map[string]int)
	for _, l := range logs {
		st.TotalMessages += 2
		if l.SessionID == "" {
			st.TotalChats++
		} else if !sessions[l.SessionID] {
			sessions[l.SessionID] = true
			st.TotalChats++
		}

		switch l.Feedback {
		case domain.FeedbackPositive:
			st.PositiveFeedback++
		case domain.FeedbackNegative:
			st.NegativeFeedback++
		}

		ts := l.Timestamp.UTC()
		if !ts.Before(weekStart) && ts.Before(weekEnd) {
			st.DailyActivity.Data[mondayIndex(ts.Weekday())]++
		}

		cat := l.Category
		if cat == "" {
			cat = DefaultCategory
		}
		categories[cat]++
	}

	type catCount struct {
		name  string
		count int
	}
	ranked := make([]catCount, 0, len(categories))
	for name, n := range categories {
		ranked = append(ranked, catCount{name, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > topCategories {
		ranked = ranked[:topCategories]
	}
	for _, c := range ranked {
		st.TopCategories.Labels = append(st.TopCategories.Labels, c.name)
		st.TopCategories.Data = append(st.TopCategories.Data, c.count)
	}

	return st, nil
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
