// Package logger provides the structured logging interface used across followsync.
//
// It wraps zerolog with a small interface supporting:
//   - Leveled logging (Debug, Info, Warn, Error, Fatal)
//   - Structured fields via WithField/WithFields/WithError
//   - Pretty console output on terminals, JSON lines otherwise or in a log file
//   - A global logger for the CLI and explicit loggers injected into components
//   - TestLogger, which captures messages for assertions in tests
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("account", "alice").Info("Fetching followers")
//
// Components receive a Logger explicitly and fall back to GetLogger when
// given nil.
package logger
