// cmd/loan-desk/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-desk/internal/cli"
	"loan-desk/internal/common/audit"
	awsclients "loan-desk/internal/common/aws"
	"loan-desk/internal/common/config"
	"loan-desk/internal/common/database"
	"loan-desk/internal/common/logger"
	"loan-desk/internal/common/metrics"
	"loan-desk/internal/common/observability"
	"loan-desk/internal/store"
	checkstatus "loan-desk/internal/workers/application/check-status"
	collectsections "loan-desk/internal/workers/application/collect-sections"
	selectloanproduct "loan-desk/internal/workers/catalog/select-loan-product"
	sendnotification "loan-desk/internal/workers/communication/send-notification"
	matchutterance "loan-desk/internal/workers/conversation/match-utterance"
	applicationstatistics "loan-desk/internal/workers/lender/application-statistics"
	reviewapplication "loan-desk/internal/workers/lender/review-application"
)

// app holds the components shared by both roles.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	store    *store.Store
	status   *checkstatus.Handler
	recorder audit.Recorder
	notifier reviewapplication.Notifier
	obs      *observability.Observability
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, recorder: audit.NopRecorder{}}

	var opts []store.Option
	if cfg.Metrics.Enabled {
		a.obs = observability.New(cfg.App.Name)
		opts = append(opts, store.WithObservability(a.obs))
	}
	st, err := store.New(cfg.Storage, log, opts...)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}
	a.store = st

	a.status = checkstatus.NewHandler(checkstatus.LoadConfig(cfg.Cache), st, a.redisClient(ctx), log)

	if cfg.Audit.Enabled {
		a.initAudit(ctx)
	}
	if err := a.initNotifier(ctx); err != nil {
		log.Warn("notifications disabled", map[string]interface{}{"error": err.Error()})
	}
	return a, nil
}

// redisClient returns nil when the cache is off or unreachable; the status
// check then reads the store directly.
func (a *app) redisClient(ctx context.Context) *redis.Client {
	if !a.cfg.Cache.Enabled {
		return nil
	}
	rc, err := connect(ctx, func() (*database.RedisClient, error) {
		return database.NewRedis(a.cfg.Database.Redis)
	}, 3, 500*time.Millisecond, a.log, "Redis connection")
	if err != nil {
		a.log.Warn("status cache disabled", map[string]interface{}{"error": err.Error()})
		return nil
	}
	a.closers = append(a.closers, rc.Close)
	a.log.Info("Redis connected successfully", nil)
	return rc.GetClient()
}

func (a *app) initAudit(ctx context.Context) {
	pg, err := connect(ctx, func() (*database.PostgresClient, error) {
		return database.NewPostgres(a.cfg.Database.Postgres)
	}, 3, 500*time.Millisecond, a.log, "PostgreSQL connection")
	if err != nil {
		a.log.Warn("audit log disabled", map[string]interface{}{"error": err.Error()})
		return
	}
	a.closers = append(a.closers, pg.Close)
	a.recorder = audit.NewPostgresRecorder(pg.GetDB(), a.log)
	a.log.Info("PostgreSQL connected successfully", nil)
}

func (a *app) initNotifier(ctx context.Context) error {
	ncfg := sendnotification.LoadConfig(a.cfg.Notifications)
	if !ncfg.Enabled() {
		return nil
	}
	sesClient, snsClient, err := awsclients.NewClients(ctx, ncfg.AWSRegion)
	if err != nil {
		return err
	}
	a.notifier = sendnotification.NewHandler(ncfg, sesClient, snsClient, a.log)
	return nil
}

func (a *app) userREPL() (*cli.UserREPL, error) {
	selector := selectloanproduct.NewHandler(selectloanproduct.LoadConfig(a.cfg.Catalog), a.log)
	collector := collectsections.NewHandler(collectsections.LoadConfig(a.cfg), a.store, selector, a.status, a.recorder, a.log)

	responder, err := matchutterance.NewHandler(matchutterance.LoadConfig(a.cfg.Catalog), a.log)
	if err != nil {
		return nil, err
	}
	return cli.NewUserREPL(a.cfg.App.ChatbotName, collector, a.status, responder, a.log), nil
}

func (a *app) lenderREPL() *cli.LenderREPL {
	reviewer := reviewapplication.NewHandler(reviewapplication.LoadConfig(), a.store, a.status, a.notifier, a.recorder, a.log)
	stats := applicationstatistics.NewHandler(applicationstatistics.LoadConfig(), a.store, a.log)
	return cli.NewLenderREPL(reviewer, stats, a.log)
}

// Close releases connections and flushes counters to the textfile, if one
// is configured.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.obs != nil {
		a.obs.Shutdown()
	}
	if a.cfg.Metrics.Enabled {
		if err := metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
			a.log.Warn("metrics textfile write failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// retryWithBackoff attempts to execute a function with exponential backoff
type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// connect opens and pings a client with retries. A client whose ping fails
// is closed before the next attempt.
func connect[C pingCloser](ctx context.Context, open func() (C, error), maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) (C, error) {
	var client C
	err := retryWithBackoff(func() error {
		c, err := open()
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			if cerr := c.Close(); cerr != nil {
				log.Debug("closing unreachable client failed", map[string]interface{}{"error": cerr.Error()})
			}
			return err
		}
		client = c
		return nil
	}, maxRetries, initialDelay, log, operationName)
	return client, err
}

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
