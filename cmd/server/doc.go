// Package main is the entry point for the crypto terminal backend.
//
// The application serves the browser terminal UI: a fixed set of
// draggable windows with persisted geometry, a swap calculator over a
// static asset table, transfer dispatch through a wallet collaborator,
// a polled market ticker, and self-expiring notifications.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
