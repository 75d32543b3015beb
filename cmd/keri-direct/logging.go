// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/keri/lib/config"
)

// newLogger builds the process logger. The "auto" format uses the text
// handler when stderr is a terminal and JSON otherwise.
func newLogger(settings config.LoggingConfig, output *os.File) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.Level)); err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	options := &slog.HandlerOptions{Level: level}

	text := settings.Format == "text" ||
		(settings.Format == "auto" && term.IsTerminal(int(output.Fd())))
	if text {
		return slog.New(slog.NewTextHandler(output, options)), nil
	}
	return slog.New(slog.NewJSONHandler(output, options)), nil
}
