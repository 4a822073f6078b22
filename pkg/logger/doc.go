// Package logger provides the structured logging interface used across coursemirror.
//
// It wraps zerolog with a small API: leveled messages, child loggers carrying
// fields, and pretty console output optionally mirrored to a JSON log file.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.Info("mirror started")
//	logger.WithField("url", pageURL).Info("page fetched")
//	logger.WithError(err).Error("download failed")
//
// Components receive a Logger explicitly:
//
//	log := logger.GetLogger().WithField("component", "mirror")
//	log.InfoWithFields("file saved", map[string]interface{}{
//	    "file": path,
//	    "bytes": n,
//	})
//
// Tests use NewTestLogger to capture and assert on messages, or
// NewNopLogger to discard them.
package logger
