// Package logging provides structured logging on top of log/slog.
//
// A Logger is built from the telemetry.logging configuration section:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	logger.InfoContext(ctx, "document checked", "verdict", "True:0")
//
// The *Context methods add the request id and document name stored in the
// context. Attributes whose key mentions a token, password, passphrase or
// secret are written as "***". Components that accept a *slog.Logger get
// one from Slog or Component.
package logging
