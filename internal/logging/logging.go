// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide zerolog logger.
//
// The TUI owns stdout/stderr, so log output goes to a file under the
// config directory (~/.ksadmin/console.log). Plain mode may attach an
// additional console writer for interactive troubleshooting.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLogFile is the log file name inside the config directory.
const DefaultLogFile = "console.log"

// Setup initializes the global logger writing to dir/console.log and
// returns a closer for the underlying file. Level is parsed from
// levelStr ("debug", "info", "warn", "error"); unknown values fall back
// to info. Setup never fails hard: if the file cannot be opened the
// logger is disabled rather than spilling onto the TUI's terminal.
func Setup(dir, levelStr string) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Logger = zerolog.Nop()
		return nil, err
	}

	path := filepath.Join(dir, DefaultLogFile)
	// 0600: the log records emails and request paths, keep it private.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		log.Logger = zerolog.Nop()
		return nil, err
	}

	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}

// Component returns a child logger tagged with a component name, so the
// api/session/idle subsystems can be filtered apart in one log file.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
