package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"appointd/internal/database"
	"appointd/internal/server"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "appointd",
		Usage: "Appointment scheduling backend over remote CalDAV calendars.",
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API server.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Bind address. Overrides BIND_ADDR."},
		},
		Action: func(c *cli.Context) error {
			logLevel := os.Getenv("LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			logger := setupLogger(logLevel)

			dbPath := os.Getenv("DATABASE_PATH")
			if dbPath == "" {
				dbPath = "appointd.db"
			}
			store, err := database.Open(logger, dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()
			logger.Info("Opened database", "path", dbPath)

			addr := c.String("addr")
			if addr == "" {
				addr = os.Getenv("BIND_ADDR")
			}
			if addr == "" {
				addr = ":5000"
			}

			srv := server.New(logger, store, os.Getenv("CORS_ORIGIN"),
				server.DefaultConnectorFactory(logger))
			if err := srv.ListenAndServe(addr); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
