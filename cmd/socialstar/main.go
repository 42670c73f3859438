// cmd/socialstar/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"socialstar-core/internal/analytics"
	"socialstar-core/internal/app"
	"socialstar-core/internal/channels"
	"socialstar-core/internal/common/config"
	"socialstar-core/internal/common/database"
	"socialstar-core/internal/common/logger"
	"socialstar-core/internal/common/observability"
	"socialstar-core/internal/export"
	"socialstar-core/internal/invitation"
	"socialstar-core/internal/notify"
	"socialstar-core/internal/polls"
	"socialstar-core/internal/profile"
	"socialstar-core/internal/storage"
	"socialstar-core/internal/token"
)

// retryWithBackoff attempts to execute a function with exponential backoff
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

	zapLog.Info("Starting socialstar profile core...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Postgres ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()

	err = retryWithBackoff(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "Postgres connection")
	if err != nil {
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}

	// --- Redis ---
	rds, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer rds.Close()

	err = retryWithBackoff(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rds.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis unreachable", zap.Error(err))
	}

	// --- Poll options catalog ---
	catalog := polls.NewCatalog(rds.Client, log)
	if err := catalog.Seed(ctx); err != nil {
		zapLog.Fatal("poll options seed failed", zap.Error(err))
	}

	// --- Analytics tracker ---
	var tracker profile.AnalyticsTracker
	if cfg.Integrations.AWS.SNS.Enabled {
		tracker, err = analytics.NewSNSTracker(ctx,
			cfg.Integrations.AWS.Region,
			cfg.Integrations.AWS.SNS.AnalyticsTopicARN,
			cfg.Integrations.AWS.SNS.VisitEventName,
			log)
		if err != nil {
			zapLog.Fatal("analytics tracker init failed", zap.Error(err))
		}
	} else {
		tracker = analytics.NewNopTracker(log)
	}

	// --- Status notifier ---
	var notifier *notify.EmailNotifier
	if cfg.Notifications.Email.Enabled {
		notifier, err = notify.NewEmailNotifier(ctx,
			cfg.Integrations.AWS.Region,
			cfg.Notifications.Email.FromEmail,
			log)
		if err != nil {
			zapLog.Fatal("email notifier init failed", zap.Error(err))
		}
	}

	// --- Export indexer ---
	var indexer *export.Indexer
	if len(cfg.Export.Elasticsearch.Addresses) > 0 {
		indexer, err = export.NewIndexer(cfg.Export, log)
		if err != nil {
			zapLog.Fatal("export indexer init failed", zap.Error(err))
		}
	}

	// --- Profile core wiring ---
	registry := channels.Default()
	projector := channels.NewProjector(registry)
	shapes := channels.NewShapeValidator(registry)

	store := storage.NewProfileStore(pg.DB, log)
	invitations := invitation.NewService(pg.DB, log)
	pipeline := profile.NewPipeline(catalog, store, shapes)
	exporter := profile.NewExporter(projector)

	coordinator := profile.NewCoordinator(store, invitations, tracker, token.New(), pipeline, exporter, log)

	core := app.NewCore(coordinator, store, notifier, indexer, obs, log)

	// --- Ops endpoint: metrics, health, admin status changes ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pg.Ping(pingCtx); err != nil {
				http.Error(w, "postgres unreachable", http.StatusServiceUnavailable)
				return
			}
			if err := rds.Ping(pingCtx); err != nil {
				http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("POST /admin/profiles/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			status, err := profile.ParseStatus(r.URL.Query().Get("value"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			fe, err := core.ChangeStatus(r.Context(), r.PathValue("id"), status)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			if !fe.Empty() {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(fe)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		zapLog.Info("ops endpoint listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, mux); err != nil {
			zapLog.Error("ops server failed", zap.Error(err))
		}
	}()

	zapLog.Info("profile core ready",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutting down")
}
