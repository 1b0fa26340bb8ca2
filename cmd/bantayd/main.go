// Command bantayd serves the bantay auth API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/bantay/internal/config"
	"github.com/lborres/bantay/pkg/crypto"
)

func main() {
	configPath := flag.String("config", os.Getenv("BANTAY_CONFIG"), "path to a YAML config file")
	genSecret := flag.Bool("gen-secret", false, "print a random JWT_SECRET and exit")
	flag.Parse()

	if *genSecret {
		secret, err := crypto.RandomString(crypto.DefaultRandomBytes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(secret)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "Boot error:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := setupLogger(cfg.LogLevel, cfg.Production)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	app, err := newServer(cfg, store, log)
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("API on http://localhost%s", cfg.Addr())
		errs <- app.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
