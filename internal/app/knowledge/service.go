package knowledge

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

// DefaultThreshold is the minimum similarity ratio for a match.
const DefaultThreshold = 0.1

// Synonyms map common phrasings onto the wording used in the knowledge base.
var Synonyms = map[string]string{
	"cybersecurity service":  "cybersecurity services",
	"infrastructure service": "infrastructure services",
	"data analytic":          "data analytics",
	"oracle financial":       "oracle financials",
	"rpa service":            "rpa services",
	"mobile app development": "mobile development",
	"web app development":    "web development",
}

type synonymRule struct {
	re   *regexp.Regexp
	repl string
}

// longest phrases first so overlapping rules resolve the same way every time
var synonymRules = compileSynonyms(Synonyms)

func compileSynonyms(m map[string]string) []synonymRule {
	phrases := make([]string, 0, len(m))
	for k := range m {
		phrases = append(phrases, k)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	rules := make([]synonymRule, 0, len(phrases))
	for _, p := range phrases {
		rules = append(rules, synonymRule{
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`),
			repl: m[p],
		})
	}
	return rules
}

var spaces = regexp.MustCompile(`\s+`)

// Normalize lowercases query, collapses whitespace and applies Synonyms.
func Normalize(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = spaces.ReplaceAllString(q, " ")
	for _, r := range synonymRules {
		q = r.re.ReplaceAllLiteralString(q, r.repl)
	}
	return q
}

// Match is the best knowledge entry for a query.
type Match struct {
	Entry domain.KnowledgeEntry
	// Score is the raw similarity ratio in [0, 1].
	Score float64
	// Confidence is Score as a percentage rounded to one decimal.
	Confidence float64
}

type Service struct {
	store     domain.KnowledgeStore
	threshold float64
}

type Option func(*Service)

func WithThreshold(t float64) Option {
	return func(s *Service) { s.threshold = t }
}

func NewService(store domain.KnowledgeStore, opts ...Option) *Service {
	s := &Service{store: store, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the entry most similar to query, or nil when no entry
// scores above the threshold.
func (s *Service) Search(ctx context.Context, query string) (*Match, error) {
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}

	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}

	qChars := chars(q)
	var best *Match
	for _, e := range entries {
		combined := strings.ToLower(e.Title + " " + e.Description)
		score := difflib.NewMatcher(qChars, chars(combined)).Ratio()
		if best == nil || score > best.Score {
			best = &Match{Entry: e, Score: score}
		}
	}

	if best == nil || best.Score <= s.threshold {
		return nil, nil
	}
	best.Confidence = math.Round(best.Score*1000) / 10
	return best, nil
}

func chars(s string) []string {
	return strings.Split(s, "")
}

// Seed upserts entries into the store.
func (s *Service) Seed(ctx context.Context, entries []domain.KnowledgeEntry) error {
	for i, e := range entries {
		if strings.TrimSpace(e.Title) == "" {
			return fmt.Errorf("knowledge entry %d: title is required", i)
		}
	}
	if err := s.store.UpsertEntries(ctx, entries); err != nil {
		return fmt.Errorf("seed knowledge: %w", err)
	}
	return nil
}

type seedFile struct {
	Entries []domain.KnowledgeEntry `yaml:"entries"`
}

// LoadSeedFile reads knowledge entries from a YAML file with a top-level
// "entries" list.
func LoadSeedFile(path string) ([]domain.KnowledgeEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.Entries, nil
}
