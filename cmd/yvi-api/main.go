package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpadapter "github.com/PabloGalante/yvi-assistant/internal/adapters/http"
	"github.com/PabloGalante/yvi-assistant/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/yvi-assistant/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/yvi-assistant/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/yvi-assistant/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/yvi-assistant/internal/app/analytics"
	"github.com/PabloGalante/yvi-assistant/internal/app/assistant"
	"github.com/PabloGalante/yvi-assistant/internal/app/knowledge"
	"github.com/PabloGalante/yvi-assistant/internal/app/share"
	"github.com/PabloGalante/yvi-assistant/internal/config"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.Logger().Fatal().Err(err).Msg("invalid configuration")
	}
	observability.Setup(cfg.Logging.Level, cfg.IsDevelopment())
	log := observability.Logger()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	llmClient, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing LLM client")
	}
	log.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Msg("LLM client ready")

	// Storage: Firestore, SQLite or Memory
	var (
		knowledgeStore domain.KnowledgeStore
		chatLogStore   domain.ChatLogStore
		closeStore     = func() error { return nil }
	)

	switch strings.ToLower(cfg.Storage.Backend) {
	case "firestore":
		log.Info().Str("project", cfg.Storage.GCPProjectID).Msg("using Firestore storage")
		fsStore, err := firestorestore.NewStore(ctx, cfg.Storage.GCPProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("error initializing Firestore store")
		}

		// 1 store, implements 2 interfaces
		knowledgeStore, chatLogStore, closeStore = fsStore, fsStore, fsStore.Close

	case "sqlite":
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("using SQLite storage")
		db, err := sqlitestore.Open(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("error opening SQLite database")
		}
		knowledgeStore, chatLogStore, closeStore = db.Knowledge(), db.ChatLogs(), db.Close

	default:
		log.Info().Msg("using in-memory storage")
		knowledgeStore = memstore.NewKnowledgeStore()
		chatLogStore = memstore.NewChatLogStore()
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("error closing storage")
		}
	}()

	knowledgeSvc := knowledge.NewService(knowledgeStore)
	if cfg.KnowledgeSeedFile != "" {
		entries, err := knowledge.LoadSeedFile(cfg.KnowledgeSeedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("error loading knowledge seed file")
		}
		if err := knowledgeSvc.Seed(ctx, entries); err != nil {
			log.Fatal().Err(err).Msg("error seeding knowledge base")
		}
		log.Info().Int("entries", len(entries)).Str("file", cfg.KnowledgeSeedFile).Msg("knowledge base seeded")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	analyticsSvc := analytics.NewService(chatLogStore)
	orchestrator := assistant.NewDefaultOrchestrator(knowledgeSvc, llmClient, analyticsSvc, metrics)

	handler := httpadapter.NewServer(httpadapter.Deps{
		Replies:      orchestrator,
		Analytics:    analyticsSvc,
		Codec:        share.NewCodec(),
		Metrics:      metrics,
		Gatherer:     reg,
		PublicOrigin: cfg.PublicOrigin,
		CORSOrigins:  cfg.CORSOrigins(),
		RateLimit:    cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", string(cfg.Mode)).Msg("YVI API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
