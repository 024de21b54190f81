// Package main is the entry point for the agent server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fady17/task/internal/agent"
	"github.com/fady17/task/internal/bridge"
	"github.com/fady17/task/internal/config"
	"github.com/fady17/task/internal/handler"
	"github.com/fady17/task/internal/livekit"
	"github.com/fady17/task/internal/llm"
	"github.com/fady17/task/internal/middleware"
	natsclient "github.com/fady17/task/internal/nats"
	"github.com/fady17/task/internal/service"
	"github.com/fady17/task/internal/store"
	"github.com/fady17/task/internal/store/db"
	"github.com/fady17/task/internal/todo"
	"github.com/fady17/task/internal/tools"
	"github.com/fady17/task/pkg/logger"
	"github.com/fady17/task/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Error("agent server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("agent server stopped")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting agent server",
		zap.String("model", cfg.LLMModel),
		zap.String("context_strategy", cfg.AgentContextStrategy),
		zap.String("prompt_policy", cfg.AgentPromptPolicy),
	)

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "todo-agent", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Conversation store
	driver, err := db.NewDBDriver(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	st := store.New(driver)
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}

	// Model clients
	chatClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:    cfg.LLMBaseURL,
		APIKey:     cfg.LLMAPIKey,
		Model:      cfg.LLMModel,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	titleClient, titleModel, err := newTitleClient(cfg, chatClient)
	if err != nil {
		return err
	}

	// CRUD API and tools
	todoClient := todo.NewClient(cfg.TodoAPIURL, cfg.TodoAPITimeout, log)
	defer todoClient.Close()
	dispatcher := tools.NewDispatcher(todoClient, log)

	// Services
	sessionSvc := service.NewSessionService(st, log)
	titleSvc := service.NewTitleService(titleClient, titleModel, log)

	loop := agent.New(chatClient, dispatcher, sessionSvc, titleSvc, agent.Config{
		MaxTurns:        cfg.AgentMaxTurns,
		ContextStrategy: cfg.AgentContextStrategy,
		SystemPrompt:    tools.SystemPrompt(cfg.AgentPromptPolicy),
		Model:           cfg.LLMModel,
		Temperature:     cfg.LLMTemperature,
		MaxTokens:       cfg.LLMMaxTokens,
		CallTimeout:     cfg.LLMTimeout,
	}, log)

	// NATS transport and journal
	var natsClient *natsclient.Client
	var bridgeOpts []bridge.Option
	var sessionOpts []handler.SessionOption
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		if cfg.NATSJournalEnabled {
			journal := natsclient.NewJournal(natsClient)
			if err := journal.EnsureStream(ctx); err != nil {
				return fmt.Errorf("failed to ensure event stream: %w", err)
			}
			bridgeOpts = append(bridgeOpts, bridge.WithJournal(journal))
			sessionOpts = append(sessionOpts, handler.WithEventLog(journal))
		}
	}

	br := bridge.New(loop, log, bridgeOpts...)

	var issuer *livekit.Issuer
	if cfg.LiveKitAPIKey != "" && cfg.LiveKitAPISecret != "" {
		issuer, err = livekit.NewIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.LiveKitRoom, cfg.LiveKitTokenTTL)
		if err != nil {
			return err
		}
	} else {
		log.Info("LiveKit keys not set, token endpoint disabled")
	}

	checks := map[string]handler.Checker{"database": st}
	if natsClient != nil {
		checks["nats"] = natsClient
	}

	// Handlers
	healthHandler := handler.NewHealthHandler(checks)
	sessionHandler := handler.NewSessionHandler(sessionSvc, log, sessionOpts...)
	streamHandler := handler.NewStreamHandler(br, log)
	liveKitHandler := handler.NewLiveKitHandler(issuer, cfg.LiveKitURL, cfg.LiveKitRoom, log)
	clientConfigHandler := handler.NewClientConfigHandler(handler.ClientConfig{
		APIPort:     cfg.ServerPort,
		TodoAPIPort: cfg.TodoAPIPort,
		LiveKitURL:  cfg.LiveKitURL,
		TURNServer:  handler.TURNServer{Username: cfg.TURNUsername, Credential: cfg.TURNCredential},
	}, cfg.TURNPort)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(nil))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/config", clientConfigHandler.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Post("/chat", streamHandler.Chat)
		r.Post("/livekit/token", liveKitHandler.Token)
		r.Route("/sessions", sessionHandler.Routes)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      otelhttp.NewHandler(r, "agent"),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if natsClient != nil {
		transport := natsclient.NewTransport(natsClient, cfg.NATSSubject, cfg.NATSQueue, br, log)
		g.Go(func() error { return transport.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := br.Shutdown(shutdownCtx); err != nil {
			log.Warn("running turns cancelled at shutdown", zap.Error(err))
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newTitleClient picks the model used for session titles.
func newTitleClient(cfg *config.Config, chat llm.Client) (llm.Client, string, error) {
	if llm.Provider(cfg.TitleProvider) == llm.ProviderAnthropic {
		client, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.TitleModel)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create title client: %w", err)
		}
		return client, cfg.TitleModel, nil
	}

	model := cfg.TitleModel
	if model == "" {
		model = cfg.LLMModel
	}
	return chat, model, nil
}
