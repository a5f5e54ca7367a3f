package main

import (
	"context"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"campus-support-backend/internal/agent"
	"campus-support-backend/internal/config"
	"campus-support-backend/internal/db"
	"campus-support-backend/internal/kb"
	"campus-support-backend/internal/llm"
	"campus-support-backend/internal/mail"
	"campus-support-backend/internal/server"
	"campus-support-backend/internal/store"
)

func main() {
	cfg := config.Load()

	zapCfg := zap.NewProductionConfig()
	if cfg.Debug {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	gen := llm.New(cfg.OpenAIAPIKey, cfg.Model, cfg.LLMTimeout)

	knowledge, err := kb.New(cfg.DataDir, cfg.OpenAIAPIKey, logger)
	if err != nil {
		logger.Fatal("failed to open knowledge base", zap.Error(err))
	}
	if _, statErr := os.Stat(cfg.RulesFile); statErr == nil {
		if err := knowledge.IndexFile(context.Background(), cfg.RulesFile); err != nil {
			logger.Warn("knowledge base indexing failed", zap.Error(err))
		}
	} else {
		logger.Warn("college rules file not found, FAQ answers will be empty",
			zap.String("file", cfg.RulesFile))
	}

	var (
		database *db.DB
		tickets  *store.TicketStore
		faculty  *store.FacultyStore
		health   func() error
	)
	if cfg.DatabaseURL != "" {
		database, err = db.New(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer database.Close()
		if err := database.RunMigrations(cfg.MigrationsDir); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		tickets = store.NewTicketStore(database)
		faculty = store.NewFacultyStore(database)
		health = database.HealthCheck
	} else {
		logger.Warn("DB_URL not provided, ticket and faculty endpoints disabled")
	}

	classifier, err := agent.LoadClassifier(cfg.IntentSpecPath, gen, logger)
	if err != nil {
		logger.Fatal("failed to load intent classifier", zap.Error(err))
	}

	sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, 0)
	sessions := store.NewMemoryStore(cfg.MaxMessages)
	builder := agent.NewDraftBuilder(gen, logger)

	var (
		ticketAPI agent.TicketStore
		emailLog  agent.EmailLog
		directory agent.FacultyDirectory
	)
	if tickets != nil {
		ticketAPI = tickets
		emailLog = tickets
	}
	if faculty != nil {
		directory = faculty
	}
	executor := agent.NewExecutor(sender, ticketAPI, emailLog, cfg.EmailDailyLimit, logger)
	orch := agent.NewOrchestrator(sessions, classifier, builder, executor, gen, knowledge, directory, logger)

	s := server.NewServer(cfg, logger, server.Deps{
		Orchestrator: orch,
		Tickets:      tickets,
		Faculty:      faculty,
		Health:       health,
	})

	addr := ":" + cfg.Port
	logger.Info("campus support server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, s.Router()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
