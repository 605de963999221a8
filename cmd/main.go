package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/config"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

func main() {
	// 1. Logger
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))

	// 2. Config
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}
	logx.WithFields(logx.Fields{
		"env":          cfg.Server.Env,
		"storage_mode": cfg.Storage.Mode,
	}).Info("Starting FlavorMind API")

	// 3. Dependency container
	container := NewContainer(cfg)
	defer container.Cleanup()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	container.StartBackgroundServices(ctx)

	// 4. HTTP
	app := newApp(container, time.Now())
	startServer(app, cfg.Server.Port, stop)
}

// startServer listens until SIGINT or SIGTERM, then drains requests and
// cancels background workers.
func startServer(app *fiber.App, port string, stopWorkers context.CancelFunc) {
	go func() {
		logx.Infof("Server listening on port %s", port)
		logx.Infof("Health: http://localhost:%s/health", port)
		logx.Infof("Status: http://localhost:%s/api/status", port)

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("Received signal %v, shutting down", sig)

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}
	stopWorkers()

	logx.Info("Server exited")
}
