// cmd/matching-service/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scribematch/internal/common/aws"
	"scribematch/internal/common/config"
	"scribematch/internal/common/database"
	"scribematch/internal/common/logger"
	"scribematch/internal/common/observability"
	"scribematch/internal/matching/availability"
	"scribematch/internal/matching/evaluate"
	"scribematch/internal/matching/orchestrator"
	"scribematch/internal/matching/score"
	"scribematch/internal/models"
	"scribematch/internal/notify"
	"scribematch/internal/store"
	"scribematch/pkg/registry"

	csa "scribematch/internal/workers/matching/check-scribe-availability"
	fsm "scribematch/internal/workers/matching/find-scribe-matches"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matching service...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("matching-service")
	defer obs.Shutdown()

	ctx := context.Background()

	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// Elasticsearch is optional: matching degrades to the full verified
	// pool when the index is absent.
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Warn("elasticsearch unavailable, candidate search disabled", zap.Error(err))
		esClient = nil
	} else {
		zapLog.Info("Elasticsearch connected successfully")
	}

	// Kept as the interface type so a disabled announcer stays a nil
	// interface value inside the orchestrator.
	var announcer orchestrator.Announcer
	if a := buildAnnouncer(ctx, cfg, log, zapLog); a != nil {
		announcer = a
	}

	probe := availability.NewCalendarProbe(
		pg.DB,
		redisClient.Client,
		config.GetDuration(cfg.Matching.AvailabilityCacheTTL),
		log,
	)

	weights := score.Weights{
		Subject:      cfg.Matching.Weights.Subject,
		Language:     cfg.Matching.Weights.Language,
		Experience:   cfg.Matching.Weights.Experience,
		Rating:       cfg.Matching.Weights.Rating,
		Location:     cfg.Matching.Weights.Location,
		Availability: cfg.Matching.Weights.Availability,
	}

	evaluator := evaluate.NewEvaluator(
		probe,
		weights,
		config.GetDuration(cfg.Matching.CandidateTimeout),
		log,
	)

	orch := orchestrator.NewOrchestrator(
		evaluator,
		announcer,
		obs,
		config.GetDuration(cfg.Matching.RunTimeout),
		models.RankingPolicy(cfg.Matching.DefaultRanking),
		log,
	)

	scribes := store.NewScribeStore(
		pg.DB,
		redisClient.Client,
		config.GetDuration(cfg.Matching.AvailabilityCacheTTL),
		log,
	)

	var search *store.CandidateSearch
	if esClient != nil {
		search = store.NewCandidateSearch(esClient.Client, cfg.Database.Elasticsearch.Index, log)
	}
	poolBuilder := store.NewPoolBuilder(scribes, search, cfg.Matching.MaxResults, log)

	taskCatalog := registry.Default()

	if wcfg := config.GetWorkerConfig(cfg, fsm.TaskType); wcfg.Enabled {
		if _, err := taskCatalog.FindByTaskType(fsm.TaskType); err != nil {
			zapLog.Fatal("task missing from registry", zap.Error(err))
		}
		handler := fsm.NewHandler(
			&fsm.Config{
				Timeout:    config.GetDuration(wcfg.Timeout),
				MaxResults: cfg.Matching.MaxResults,
			},
			orch,
			poolBuilder.PoolFor,
			log,
		)
		startWorker(zeebeClient, fsm.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, csa.TaskType); wcfg.Enabled {
		if _, err := taskCatalog.FindByTaskType(csa.TaskType); err != nil {
			zapLog.Fatal("task missing from registry", zap.Error(err))
		}
		handler := csa.NewHandler(
			&csa.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
			},
			probe,
			scribes.GetProfile,
			log,
		)
		startWorker(zeebeClient, csa.TaskType, wcfg, handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Matching service stopped gracefully")
}

// buildAnnouncer wires the SNS/SES side channel, or returns nil when
// both paths are disabled so the orchestrator skips announcements
// entirely.
func buildAnnouncer(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *notify.Announcer {
	if !cfg.Notifications.SNS.Enabled && !cfg.Notifications.Email.Enabled {
		return nil
	}

	var snsClient *aws.SNSClient
	var sesClient *aws.SESClient
	var err error

	if cfg.Notifications.SNS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
	}
	if cfg.Notifications.Email.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
	}

	var snsService notify.SNSService
	if snsClient != nil {
		snsService = snsClient
	}
	var sesService notify.SESService
	if sesClient != nil {
		sesService = sesClient
	}

	return notify.NewAnnouncer(notify.Config{
		SNSEnabled:   cfg.Notifications.SNS.Enabled,
		TopicARN:     cfg.Notifications.SNS.TopicARN,
		EmailEnabled: cfg.Notifications.Email.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		ToEmail:      cfg.Notifications.Email.ToEmail,
	}, snsService, sesService, log)
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
