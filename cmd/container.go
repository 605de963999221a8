// cmd/container.go
//
// Composition root. Owns infrastructure (DB, Redis, mail, job queue) and
// composes the IAM container.
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/asyncx"
	"github.com/Abraxas-365/flavormind/pkg/config"
	"github.com/Abraxas-365/flavormind/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/flavormind/pkg/iam/migrations"
	"github.com/Abraxas-365/flavormind/pkg/jobx"
	"github.com/Abraxas-365/flavormind/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/Abraxas-365/flavormind/pkg/notifx"
	"github.com/Abraxas-365/flavormind/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/flavormind/pkg/notifx/notifxses"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Startup connections are retried so the API can come up alongside its
// database and Redis containers.
const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier *notifx.Client
	Jobs     *jobx.Client

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	storage := c.Config.Storage

	if storage.UsesPostgres() {
		c.initDatabase()
	}
	if storage.UsesRedis() {
		c.initRedis()
	}
	c.initNotifier()
	if c.Redis != nil {
		c.initJobs()
	}
}

func (c *Container) initDatabase() {
	cfg := c.Config.Database

	db, err := asyncx.RetryWithBackoff(context.Background(), connectAttempts, connectBackoff,
		func(ctx context.Context) (*sqlx.DB, error) {
			return sqlx.ConnectContext(ctx, "postgres", cfg.URL)
		})
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	c.DB = db
	logx.Info("  Database connected")

	if cfg.AutoMigrate {
		if err := migrations.Run(cfg.URL, migrations.Up); err != nil {
			logx.Fatalf("Failed to apply migrations: %v", err)
		}
	}
}

func (c *Container) initRedis() {
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})

	_, err := asyncx.RetryWithBackoff(context.Background(), connectAttempts, connectBackoff,
		func(ctx context.Context) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return c.Redis.Ping(ctx).Result()
		})
	if err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (required when STORAGE_MODE=redis)", err)
	}
	logx.Info("  Redis connected")
}

func (c *Container) initNotifier() {
	cfg := c.Config.Notifx
	console := notifxconsole.NewConsoleProvider()

	var email notifx.EmailSender = console
	if cfg.Provider == "ses" {
		awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(), awsConfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		email = notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), cfg.From())
		logx.Infof("  SES email configured (region: %s)", cfg.AWSRegion)
	} else {
		logx.Warn("  Console email provider in use; messages are only logged")
	}

	// Codes only ever go to the console provider.
	c.Notifier = notifx.NewClient(email, console, cfg.From())
}

func (c *Container) initJobs() {
	cfg := c.Config.Jobx
	c.Jobs = jobx.NewClient(jobxredis.NewRedisQueue(c.Redis),
		jobx.WithQueues(cfg.Queues...),
		jobx.WithConcurrency(cfg.Concurrency),
		jobx.WithPollInterval(cfg.PollInterval),
		jobx.WithShutdownTimeout(cfg.ShutdownTimeout),
		jobx.WithDequeueTimeout(cfg.DequeueTimeout),
		jobx.WithDefaultRetryDelay(cfg.DefaultRetryDelay),
	)
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	c.IAM = iamcontainer.New(iamcontainer.Deps{
		Cfg:      c.Config,
		Clock:    kernel.SystemClock{},
		DB:       c.DB,
		Redis:    c.Redis,
		Notifier: c.Notifier,
		Codes:    c.Notifier,
		Jobs:     c.Jobs,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the mail worker until ctx is cancelled.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	if c.Jobs == nil {
		return
	}
	go func() {
		if err := c.Jobs.Start(ctx); err != nil {
			logx.WithError(err).Error("jobx worker stopped")
		}
	}()
}

// Health pings every configured backend concurrently; the map is keyed by
// backend name.
func (c *Container) Health(ctx context.Context) map[string]error {
	var (
		names  []string
		checks []func(context.Context) (struct{}, error)
	)
	add := func(name string, ping func(context.Context) error) {
		names = append(names, name)
		checks = append(checks, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, ping(ctx)
		})
	}
	if c.DB != nil {
		add("db", c.DB.PingContext)
	}
	if c.Redis != nil {
		add("redis", func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() })
	}
	if c.Jobs != nil {
		add("jobs", c.Jobs.Healthy)
	}

	out := make(map[string]error, len(names))
	for i, r := range asyncx.AllSettled(ctx, checks...) {
		out[names[i]] = r.Err
	}
	return out
}

func (c *Container) Cleanup() {
	logx.Info("Cleaning up resources...")

	if c.IAM != nil {
		c.IAM.Close()
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		}
	}

	logx.Info("Cleanup complete")
}
