package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/PabloGalante/yvi-assistant/internal/adapters/remote"
	"github.com/PabloGalante/yvi-assistant/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/yvi-assistant/internal/app/conversation"
	"github.com/PabloGalante/yvi-assistant/internal/app/share"
	"github.com/PabloGalante/yvi-assistant/internal/config"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

// App is what every command works against.
type App struct {
	Store  *conversation.Store
	Codec  *share.Codec
	Config config.ClientConfig
	Now    func() time.Time
	// Copy puts text on the system clipboard.
	Copy func(string) error

	close func() error
}

// AppFactory builds the App for a command invocation.
type AppFactory func(cmd *cobra.Command) (*App, error)

func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// Settings are the AI settings sent with every message.
func (a *App) Settings() *domain.Settings {
	return &domain.Settings{
		Model:       a.Config.Model,
		Temperature: a.Config.Temperature,
		MaxTokens:   a.Config.MaxTokens,
	}
}

// defaultApp opens the sqlite-backed session store and the remote backend.
func defaultApp(cmd *cobra.Command) (*App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	observability.Setup(cfg.LogLevel, true)
	observability.SetOutput(os.Stderr)

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	client := remote.New(cfg.BackendURL)
	store := conversation.NewStore(cmd.Context(), db.KV(), client,
		conversation.WithSessionDeleter(client),
	)

	return &App{
		Store:  store,
		Codec:  share.NewCodec(),
		Config: cfg,
		Now:    time.Now,
		Copy:   clipboard.WriteAll,
		close:  db.Close,
	}, nil
}

func loadConfig(cmd *cobra.Command) (config.ClientConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadClient(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.BackendURL = v
	}
	return cfg, nil
}

// resolveSession accepts a 1-based list position, a full id or a unique id prefix.
func resolveSession(store *conversation.Store, ref string) (domain.ChatSession, error) {
	ref = strings.TrimSpace(ref)
	sessions := store.Sessions()

	if ref == "" {
		if cur, ok := store.CurrentSession(); ok {
			return cur, nil
		}
		return domain.ChatSession{}, fmt.Errorf("no current session")
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1], nil
	}

	var matches []domain.ChatSession
	for _, s := range sessions {
		if string(s.ID) == ref {
			return s, nil
		}
		if strings.HasPrefix(string(s.ID), ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return domain.ChatSession{}, fmt.Errorf("no session matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.ChatSession{}, fmt.Errorf("%q matches %d sessions", ref, len(matches))
	}
}

func withApp(newApp AppFactory, run func(ctx context.Context, app *App, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()
		return run(cmd.Context(), app, cmd.OutOrStdout(), args)
	}
}
