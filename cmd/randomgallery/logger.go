package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/adampresley/randomgallery/cmd/randomgallery/internal/configuration"
)

func setupLogger(config *configuration.Config, version string) {
	level := parseLogLevel(config.LogLevel)
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, options)

	if version == "development" {
		handler = slog.NewTextHandler(os.Stdout, options)
	}

	slog.SetDefault(slog.New(handler).With("app", appName))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo

	case "warn":
		return slog.LevelWarn

	case "error":
		return slog.LevelError

	default:
		return slog.LevelDebug
	}
}
