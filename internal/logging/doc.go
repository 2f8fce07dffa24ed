// Package logging provides structured logging for adcpctl.
//
// This package owns the process-wide zap logger and the helpers for the
// logging patterns shared by the ADCP session and the device simulator.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Wire lines (ASCII and hex dumps), state transitions
//   - Info: Connections, authentication outcome
//   - Warn: Session failures, malformed replies, retries
//   - Error: Startup failures
//
// Logging is silent unless a level is given explicitly or via ADCP_LOG_LEVEL.
//
// # Structured Logging
//
// All log calls use structured fields:
//
//	logging.GetLogger().Info("Projector connected",
//	    zap.String("addr", "192.168.1.50:53595"),
//	    zap.String("session_id", id),
//	)
//
// Wire traffic is logged through LogWire with a per-session logger:
//
//	logging.LogWire(sessionLogger, "send", wire)
//	logging.LogWire(sessionLogger, "recv", line)
//
// The authentication digest and the shared secret are never passed to LogWire.
//
// # Output Format
//
// Logs are written to stderr in console format so that stdout carries only
// command output (including --format json):
//
//	2026-03-02T10:30:45.123+0100  DEBUG  ADCP line
//	  direction=send  length=13  ascii=modelname ?..
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
