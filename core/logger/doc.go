// Package logger provides structured logging built on the standard slog
// package: a small factory with environment presets and nil-safe attribute
// helpers for common fields.
//
// Basic usage:
//
//	log := logger.New(
//		logger.WithJSONFormat(),
//		logger.WithLevel(slog.LevelInfo),
//	)
//
//	log.Info("user registered",
//		logger.Component("authn"),
//		logger.UserName(username),
//	)
//
// Attribute helpers return an empty slog.Attr for zero inputs, so calls
// like logger.Error(err) are safe without explicit nil checks.
package logger
