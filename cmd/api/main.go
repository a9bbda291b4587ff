package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/NiveshSarthi/RealNex-sub001/internal/api/router"
	appconfig "github.com/NiveshSarthi/RealNex-sub001/internal/config"
	"github.com/NiveshSarthi/RealNex-sub001/internal/conversation"
	"github.com/NiveshSarthi/RealNex-sub001/internal/flow"
	"github.com/NiveshSarthi/RealNex-sub001/internal/http/handlers"
	"github.com/NiveshSarthi/RealNex-sub001/internal/intent"
	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
	"github.com/NiveshSarthi/RealNex-sub001/internal/observability/metrics"
	"github.com/NiveshSarthi/RealNex-sub001/internal/schedule"
	"github.com/NiveshSarthi/RealNex-sub001/internal/transcript"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting realnex conversation engine",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Error("invalid business timezone", "timezone", cfg.BusinessTimezone, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	// Appointments live behind pgx; transcripts behind database/sql. Both can
	// point at the same DATABASE_URL.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var transcriptStore *transcript.Store
	if cfg.DatabaseURL != "" {
		sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open transcript database", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()
		transcriptStore = transcript.NewStore(sqlDB)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	contextStore := conversation.NewRedisStore(redisClient, cfg.ContextTTL)

	sender := messaging.NewWhatsAppSender(
		cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAPIBaseURL, logger)
	messenger := transcript.RecordOutbound(
		messaging.Instrument(sender, engineMetrics), transcriptStore, logger)

	repo := schedule.NewPgRepository(pool)
	scheduler := schedule.NewScheduler(repo, logger, schedule.WithMetrics(engineMetrics))

	engine := flow.NewEngine(contextStore, intent.NewRouter(nil), scheduler, messenger, logger,
		flow.WithMetrics(engineMetrics),
		flow.WithHours(scheduler.Hours()),
		flow.WithLocation(loc),
		flow.WithMaxFailedAttempts(cfg.MaxFailedAttempts),
	)
	processor := transcript.RecordInbound(engine, transcriptStore, logger)

	queue := conversation.NewMemoryQueue(cfg.QueueBuffer)
	publisher := conversation.NewPublisher(queue, logger)
	worker := conversation.NewWorker(queue, processor, logger,
		conversation.WithShardCount(cfg.WorkerCount),
		conversation.WithMetrics(engineMetrics),
	)
	worker.Start(ctx)

	sweeper := schedule.NewReminderSweeper(repo, messenger, logger, engineMetrics, cfg.ReminderInterval)
	go sweeper.Run(ctx)

	webhookHandler := conversation.NewHandler(publisher, cfg.WhatsAppVerifyToken, logger, engineMetrics)

	r := router.New(&router.Config{
		Logger:           logger,
		WebhookHandler:   webhookHandler,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminTranscripts: handlers.NewAdminTranscriptsHandler(transcriptStore, logger),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop the worker and sweeper, then let in-flight turns drain.
	cancel()
	worker.Wait()

	logger.Info("server stopped")
}
