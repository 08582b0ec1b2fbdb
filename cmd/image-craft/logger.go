package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// logLevelEnv selects the log level: debug, info, warn or error.
const logLevelEnv = "IMAGE_CRAFT_LOG_LEVEL"

// newLogger logs to stderr, which stays free of command output and of the
// MCP protocol. A terminal gets text output; pipes and files get JSON.
func newLogger() *slog.Logger {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	return buildLogger(os.Stderr, isTerminal, parseLevel(os.Getenv(logLevelEnv)))
}

func buildLogger(w io.Writer, text bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if text {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// parseLevel falls back to info for empty or unknown values.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
