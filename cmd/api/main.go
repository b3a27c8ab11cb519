package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/collectwise/backend/internal/config"
	"github.com/zhouzirui/collectwise/backend/internal/handler"
	"github.com/zhouzirui/collectwise/backend/internal/model/persona"
	"github.com/zhouzirui/collectwise/backend/internal/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/repository/history"
	"github.com/zhouzirui/collectwise/backend/internal/service/ai"
	"github.com/zhouzirui/collectwise/backend/internal/service/chat"
	"github.com/zhouzirui/collectwise/backend/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	eventLogger := cfg.Log.NewLogger(os.Stdout)
	personaStore := persona.NewMemoryStore(persona.Seed())

	// Initialize AI service; without it the engine runs on heuristics only
	var classifier negotiation.Classifier
	var generator negotiation.Generator
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, personaStore, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing with heuristic negotiation - 请检查 Ark 模型相关环境变量")
		} else {
			classifier, generator = aiService, aiService
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark 凭证未配置，使用关键词启发式谈判")
	}

	engine := negotiation.New(classifier, generator,
		negotiation.WithTotalDebt(cfg.Negotiation.TotalDebt),
		negotiation.WithPaymentBaseURL(cfg.Negotiation.PaymentBaseURL),
		negotiation.WithAdapterTimeout(cfg.Negotiation.AdapterTimeout),
		negotiation.WithReclassification(cfg.Negotiation.Reclassify),
		negotiation.WithEventSink(negotiation.NewZerologSink(eventLogger)),
	)

	store, err := history.Open(cfg.History.Driver, cfg.History.FilePath, cfg.History.DBPath)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("warning: failed to close history store: %v", err)
		}
	}()
	log.Printf("history driver=%s", cfg.History.Driver)

	chatService := chat.NewService(engine, store, chat.WithGreeting(cfg.Negotiation.Greeting))

	router := handler.NewRouter(handler.Dependencies{
		Personas:       personaStore,
		Chat:           chatService,
		Engine:         engine,
		Validator:      validation.MustNew(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("CollectWise backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Printf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
