// Package middleware provides the stock turn middleware of the bot:
// input sanitizing, dialog versioning, typing indicators and attachment detection.
//
// Register them in order with runtime.WithMiddleware or folio.WithMiddleware.
// A middleware that does not call next ends the pipeline for the turn.
package middleware
