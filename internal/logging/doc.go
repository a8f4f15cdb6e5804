// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON on stderr for machine parsing
//   - Development: colored console output for humans
//
// Classified API failures are logged with their kind, never shown verbatim
// to the user:
//
//	logger := logging.NewDefault()
//	logger.Error("Check-in failed", logging.ErrorKind(err), zap.Error(err))
package logging
