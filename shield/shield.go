// Package shield provides the HTTP middleware in front of the message
// channel server: response headers, request IDs and a per-client limit on
// romanization requests, each of which opens a browser tab.
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.APIHeaders()))
//	r.Use(shield.RequestID(idgen.Prefixed("req_", idgen.Default), logger))
//	r.With(shield.NewRateLimiter(30, time.Minute).Middleware).Post("/message", h)
package shield

import (
	"context"
	"log/slog"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
