package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/lborres/bantay"
	fiberadapter "github.com/lborres/bantay/adapters/fiber"
	"github.com/lborres/bantay/adapters/memory"
	mongoadapter "github.com/lborres/bantay/adapters/mongo"
	pgxadapter "github.com/lborres/bantay/adapters/pgx"
	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/internal/config"
	"github.com/lborres/bantay/pkg/crypto"
	"github.com/lborres/bantay/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// logFormat never includes bodies, cookies or auth headers.
func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${requestid}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}",

		// Request details
		"${method}|${path}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

// openStore picks the store from the configured connection strings. The
// returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (core.UserStorage, func(), error) {
	switch cfg.StoreKind() {
	case config.StoreMongo:
		s, err := mongoadapter.Open(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using mongodb user store")
		return s, func() { _ = s.Close(context.Background()) }, nil

	case config.StorePostgres:
		a, err := pgxadapter.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := a.Migrate(ctx); err != nil {
			a.Close()
			return nil, nil, err
		}
		log.Info("using postgres user store")
		return a, a.Close, nil
	}

	log.Warn("no MONGODB_URI or DATABASE_URL set, users are kept in memory")
	return memory.New(), func() {}, nil
}

// newServer builds the fiber app with its middleware stack and mounts the
// auth routes and the metrics endpoint.
func newServer(cfg *config.Config, store core.UserStorage, log *logrus.Logger) (*fiber.App, error) {
	ids, err := crypto.NewNanoID("", 0)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      "bantayd",
		ErrorHandler: fiberadapter.ErrorHandler(log),
	})

	app.Use(requestid.New(requestid.Config{Generator: ids.Func()}))
	app.Use(logger.New(logger.Config{
		Format:     logFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "Local",
		Stream:     log.Writer(),
	}))
	app.Use(recoverer.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURLs,
		AllowCredentials: true,
	}))
	app.Use("/api/auth", limiter.New(limiter.Config{
		Max:        cfg.AuthRateLimit,
		Expiration: cfg.AuthRateWindow,
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"ok":      false,
				"message": "Too many requests",
			})
		},
	}))

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(registry)
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(registry)))
	}

	session := cfg.Session()
	_, err = bantay.New(bantay.Config{
		Secret:          cfg.Secret,
		Store:           store,
		HTTP:            fiberadapter.New(app, fiberadapter.WithLogger(log), fiberadapter.WithMetrics(m)),
		Session:         &session,
		HashConcurrency: cfg.HashConcurrency,
		Logger:          log,
		Metrics:         m,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create bantay instance: %w", err)
	}
	return app, nil
}

func setupLogger(logLevel string, production bool) *logrus.Logger {
	log := logrus.New()
	if production {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
