// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"log/slog"

	"github.com/gogpu/framecore/internal/logging"
)

// SetLogger configures the logger for framecore and all its sub-packages.
// By default, framecore produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by framecore:
//   - [slog.LevelDebug]: ring creation, wrap-around and deferred close,
//     surface disposal
//   - [slog.LevelWarn]: dropped frames and region release errors
//
// Example:
//
//	framecore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by framecore.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
