package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/apix"
	"github.com/Abraxas-365/flavormind/pkg/iam/auth"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const rateLimitMessage = "Too many requests from this IP, please try again later"

// newApp builds the fiber app with global middleware, service endpoints and
// module routes. started feeds the uptime reported by /health.
func newApp(container *Container, started time.Time) *fiber.App {
	cfg := container.Config.Server

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          apix.ErrorHandler(!cfg.IsProduction()),
		BodyLimit:             cfg.BodyLimit,
		IdleTimeout:           120 * time.Second,
	})

	// Global middleware
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: string(kernel.RequestIDKey),
	}))
	app.Use(func(c *fiber.Ctx) error {
		if id, ok := c.Locals(string(kernel.RequestIDKey)).(string); ok {
			c.SetUserContext(logx.ContextWithRequestID(c.UserContext(), id))
		}
		return c.Next()
	})
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))
	app.Use(compress.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${locals:request_id}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use("/api/", limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return apix.Fail(c, fiber.StatusTooManyRequests, rateLimitMessage, nil)
		},
	}))

	// Service endpoints
	app.Get("/health", healthHandler(container, started))
	app.Get("/api/status", statusHandler(container))
	app.Get("/", infoHandler(container))

	// Module routes
	container.IAM.Handlers.RegisterRoutes(app, container.Config.Server.Version)

	app.Use(apix.NotFound)
	return app
}

// healthHandler answers 503 when any configured backend fails its ping.
func healthHandler(container *Container, started time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status, code := "ok", fiber.StatusOK
		checks := fiber.Map{}
		for name, err := range container.Health(ctx) {
			if err != nil {
				checks[name] = "unhealthy"
				status, code = "degraded", fiber.StatusServiceUnavailable
				logx.WithContext(ctx).WithField("backend", name).WithError(err).Warn("health check failed")
				continue
			}
			checks[name] = "healthy"
		}

		return c.Status(code).JSON(fiber.Map{
			"status":      status,
			"message":     "FlavorMind API is running",
			"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
			"uptime":      time.Since(started).Seconds(),
			"environment": container.Config.Server.Env,
			"checks":      checks,
		})
	}
}

func statusHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "FlavorMind API",
			"version": container.Config.Server.Version,
			"status":  "active",
			"storage": container.Config.Storage.Mode,
			"features": fiber.Map{
				"passwordAuth":  "active",
				"googleSignIn":  "active",
				"appleSignIn":   "active",
				"phoneOtp":      "active",
				"queuedMail":    container.Jobs != nil,
				"sessionRevoke": "active",
			},
		})
	}
}

func infoHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":     "Welcome to FlavorMind API",
			"description": "Identity and credential issuance for the FlavorMind cooking assistant",
			"version":     container.Config.Server.Version,
			"endpoints": fiber.Map{
				"health": "/health",
				"status": "/api/status",
				"auth":   auth.BasePath(container.Config.Server.Version),
			},
		})
	}
}
