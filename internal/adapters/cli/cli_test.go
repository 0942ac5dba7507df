package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/yvi-assistant/internal/adapters/storage/memory"
	"github.com/PabloGalante/yvi-assistant/internal/app/conversation"
	"github.com/PabloGalante/yvi-assistant/internal/app/share"
	"github.com/PabloGalante/yvi-assistant/internal/config"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

type replyFunc func(ctx context.Context, req domain.ReplyRequest) (*domain.ReplyResponse, error)

func (f replyFunc) Reply(ctx context.Context, req domain.ReplyRequest) (*domain.ReplyResponse, error) {
	return f(ctx, req)
}

func echoReply(_ context.Context, req domain.ReplyRequest) (*domain.ReplyResponse, error) {
	return &domain.ReplyResponse{Reply: "echo: " + req.Message, Source: "AI Response"}, nil
}

type testApp struct {
	*App
	copied []string
}

func newTestApp(t *testing.T, reply replyFunc) *testApp {
	t.Helper()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := base
	seq := 0

	store := conversation.NewStore(context.Background(), memory.NewKVStore(), reply,
		conversation.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
		conversation.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	)

	ta := &testApp{}
	ta.App = &App{
		Store:  store,
		Codec:  share.NewCodec(share.WithClock(func() time.Time { return base })),
		Config: config.DefaultClientConfig(),
		Now:    func() time.Time { return base.Add(time.Hour) },
		Copy: func(s string) error {
			ta.copied = append(ta.copied, s)
			return nil
		},
	}
	return ta
}

func (ta *testApp) factory(*cobra.Command) (*App, error) {
	return ta.App, nil
}

func run(t *testing.T, factory AppFactory, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestChat_SendsAndPrintsReply(t *testing.T) {
	ta := newTestApp(t, echoReply)

	out, err := run(t, ta.factory, "hello there\n/quit\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "echo: hello there")
	assert.Contains(t, out, "AI Response")

	cur, ok := ta.Store.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "hello there", cur.Title)
	require.Len(t, cur.Messages, 2)
}

func TestChat_ShowsUserFacingErrors(t *testing.T) {
	ta := newTestApp(t, func(context.Context, domain.ReplyRequest) (*domain.ReplyResponse, error) {
		return nil, &domain.TransportError{Kind: domain.TransportNetwork, Err: errors.New("refused")}
	})

	out, err := run(t, ta.factory, "hi\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, conversation.MsgNetwork)
}

func TestChat_SendsConfiguredSettings(t *testing.T) {
	var got *domain.Settings
	ta := newTestApp(t, func(ctx context.Context, req domain.ReplyRequest) (*domain.ReplyResponse, error) {
		got = req.Settings
		return echoReply(ctx, req)
	})
	ta.Config.Model = "gemini-2.0-flash"
	ta.Config.MaxTokens = 256

	_, err := run(t, ta.factory, "hi\n/quit\n", "chat")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "gemini-2.0-flash", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
}

func TestChat_SlashCommands(t *testing.T) {
	ta := newTestApp(t, echoReply)

	script := strings.Join([]string{
		"first question",
		"/new",
		"/rename Budget plan",
		"/list",
		"/switch 2",
		"/share",
		"/archive",
		"/bogus",
		"/quit",
	}, "\n")

	out, err := run(t, ta.factory, script, "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Started session id-004")
	assert.Contains(t, out, `Renamed to "Budget plan"`)
	assert.Contains(t, out, "Budget plan")
	assert.Contains(t, out, "http://localhost:8080/?share=")
	assert.Contains(t, out, "unknown command /bogus")

	sessions := ta.Store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "Budget plan", sessions[0].Title)
	assert.False(t, sessions[0].Archived)
	assert.Equal(t, "first question", sessions[1].Title)
	assert.True(t, sessions[1].Archived)
	assert.Equal(t, sessions[1].ID, ta.Store.CurrentSessionID())
}

func TestChat_ResumeAndNewFlags(t *testing.T) {
	ta := newTestApp(t, echoReply)
	ctx := context.Background()
	ta.Store.SendUserMessage(ctx, "older", nil)
	ta.Store.CreateSession(ctx)

	out, err := run(t, ta.factory, "/quit\n", "chat", "--session", "id-001")
	require.NoError(t, err)
	assert.Contains(t, out, "echo: older")
	assert.Equal(t, domain.SessionID("id-001"), ta.Store.CurrentSessionID())

	_, err = run(t, ta.factory, "/quit\n", "chat", "--new")
	require.NoError(t, err)
	assert.Len(t, ta.Store.Sessions(), 3)

	_, err = run(t, ta.factory, "", "chat", "--session", "nope")
	assert.Error(t, err)
}

func TestResolveSession(t *testing.T) {
	ta := newTestApp(t, echoReply)
	ctx := context.Background()
	ta.Store.CreateSession(ctx) // id-002
	ta.Store.CreateSession(ctx) // id-003

	tests := []struct {
		ref     string
		want    domain.SessionID
		wantErr string
	}{
		{ref: "", want: "id-003"},
		{ref: "1", want: "id-003"},
		{ref: "3", want: "id-001"},
		{ref: "id-002", want: "id-002"},
		{ref: "id-00", wantErr: "matches 3 sessions"},
		{ref: "4", wantErr: "no session matches"},
		{ref: "zzz", wantErr: "no session matches"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			s, err := resolveSession(ta.Store, tt.ref)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.ID)
		})
	}
}

func TestSessionsCommands(t *testing.T) {
	ta := newTestApp(t, echoReply)
	ctx := context.Background()
	ta.Store.CreateSession(ctx) // id-002
	ta.Store.CreateSession(ctx) // id-003

	out, err := run(t, ta.factory, "", "sessions", "rename", "2", "Budget", "plan")
	require.NoError(t, err)
	assert.Contains(t, out, `Renamed id-002 to "Budget plan"`)

	_, err = run(t, ta.factory, "", "sessions", "archive", "id-001")
	require.NoError(t, err)

	out, err = run(t, ta.factory, "", "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Budget plan")
	assert.NotContains(t, out, "id-001")

	out, err = run(t, ta.factory, "", "sessions", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "id-001")
	assert.Contains(t, out, "archived")

	_, err = run(t, ta.factory, "", "sessions", "unarchive", "id-001")
	require.NoError(t, err)
	s, _ := ta.Store.Session("id-001")
	assert.False(t, s.Archived)

	out, err = run(t, ta.factory, "", "sessions", "tag", "1", "work", "urgent")
	require.NoError(t, err)
	assert.Contains(t, out, "#work #urgent")
	s, _ = ta.Store.Session("id-003")
	assert.Equal(t, []string{"work", "urgent"}, s.Tags)

	_, err = run(t, ta.factory, "", "sessions", "move", "id-003", "id-002", "--folder", "projects")
	require.NoError(t, err)
	s, _ = ta.Store.Session("id-002")
	require.NotNil(t, s.FolderID)
	assert.Equal(t, "projects", *s.FolderID)

	_, err = run(t, ta.factory, "", "sessions", "move", "id-002")
	assert.Error(t, err)

	_, err = run(t, ta.factory, "", "sessions", "delete", "1", "missing")
	require.Error(t, err)
	assert.Len(t, ta.Store.Sessions(), 3, "a bad ref must not delete anything")

	out, err = run(t, ta.factory, "", "sessions", "delete", "1", "id-002")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 session(s)")
	require.Len(t, ta.Store.Sessions(), 1)
	assert.Equal(t, domain.SessionID("id-001"), ta.Store.CurrentSessionID())

	_, err = run(t, ta.factory, "", "sessions", "clear")
	require.Error(t, err)

	out, err = run(t, ta.factory, "", "sessions", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All sessions cleared")
	sessions := ta.Store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.DefaultSessionTitle, sessions[0].Title)
	assert.NotEqual(t, domain.SessionID("id-001"), sessions[0].ID)
}

func TestSessionsShow(t *testing.T) {
	ta := newTestApp(t, echoReply)
	ta.Store.SendUserMessage(context.Background(), "what do you build?", nil)

	out, err := run(t, ta.factory, "", "sessions", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "what do you build?")
	assert.Contains(t, out, "echo: what do you build?")
}

func TestShareCommands(t *testing.T) {
	ta := newTestApp(t, echoReply)
	ta.Store.SendUserMessage(context.Background(), "hello", nil)

	out, err := run(t, ta.factory, "", "share", "session", "--copy")
	require.NoError(t, err)
	link := strings.SplitN(out, "\n", 2)[0]
	assert.True(t, strings.HasPrefix(link, "http://localhost:8080/?share="))
	assert.Contains(t, out, "Copied to clipboard.")
	require.Equal(t, []string{link}, ta.copied)

	out, err = run(t, ta.factory, "", "share", "decode", link)
	require.NoError(t, err)
	assert.Contains(t, out, "conversation")
	assert.Contains(t, out, "echo: hello")

	out, err = run(t, ta.factory, "", "share", "message", "--index", "1")
	require.NoError(t, err)
	code, ok := share.CodeFromLink(strings.TrimSpace(out))
	require.True(t, ok)
	env, ok := ta.Codec.Decode(code)
	require.True(t, ok)
	conv, err := env.Conversation()
	require.NoError(t, err)
	assert.Equal(t, "Shared Message", conv.Title)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hello", conv.Messages[0].Content)

	out, err = run(t, ta.factory, "", "share", "link", code)
	require.NoError(t, err)
	assert.Contains(t, out, "?share="+code)

	_, err = run(t, ta.factory, "", "share", "message", "--index", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = run(t, ta.factory, "", "share", "decode", "not a code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid share code")

	_, err = run(t, ta.factory, "", "share", "link", "%%%")
	assert.Error(t, err)
}

func TestShareDecode_FavoritesAndTemplate(t *testing.T) {
	ta := newTestApp(t, echoReply)

	favCode, err := ta.Codec.EncodeFavorites([]domain.Favorite{{
		MessageContent: "We build web apps",
		Category:       "Services",
		Tags:           []string{"web"},
		Note:           "for the pitch",
	}})
	require.NoError(t, err)

	out, err := run(t, ta.factory, "", "share", "decode", favCode)
	require.NoError(t, err)
	assert.Contains(t, out, "1. We build web apps")
	assert.Contains(t, out, "Services, #web, note: for the pitch")

	tplCode, err := ta.Codec.EncodeTemplate(domain.Template{
		Name:           "Sales intro",
		Description:    "Open a sales conversation",
		StarterPrompts: []string{"What services do you offer?"},
	})
	require.NoError(t, err)

	out, err = run(t, ta.factory, "", "share", "decode", tplCode)
	require.NoError(t, err)
	assert.Contains(t, out, "Sales intro")
	assert.Contains(t, out, "What services do you offer?")
}

func TestShareCopyFailure(t *testing.T) {
	ta := newTestApp(t, echoReply)
	ta.Copy = func(string) error { return errors.New("no clipboard") }

	_, err := run(t, ta.factory, "", "share", "session", "-c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to copy link")
}

func TestDefaultApp_PersistsThroughSQLiteAndTalksToBackend(t *testing.T) {
	var mu sync.Mutex
	var deleted []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/chat":
			var req domain.ReplyRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(domain.ReplyResponse{Reply: "backend says hi to " + req.Message, Source: "AI Response"})
		case r.Method == http.MethodDelete:
			mu.Lock()
			deleted = append(deleted, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	flags := []string{
		"--config", filepath.Join(dir, "missing.toml"),
		"--db", filepath.Join(dir, "sessions.db"),
		"--backend", srv.URL,
	}

	out, err := run(t, defaultApp, "ping\n/quit\n", append([]string{"chat"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "backend says hi to ping")

	out, err = run(t, defaultApp, "", append([]string{"sessions", "list"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "ping")
	assert.Contains(t, out, "2 messages")

	_, err = run(t, defaultApp, "", append([]string{"sessions", "delete", "1"}, flags...)...)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, deleted, 1)
	assert.True(t, strings.HasPrefix(deleted[0], "/api/chat-sessions/"))
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url = \"http://file:1\"\nmodel = \"gpt-4o-mini\"\n"), 0o600))

	cmd := NewRootCmd(defaultApp)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--backend", "http://flag:2"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.BackendURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
}
