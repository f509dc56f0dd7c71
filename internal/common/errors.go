// Package common defines shared constants and sentinel errors used across
// the server, transports and the uploader client. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Upload errors. ErrUploadNotFound is user visible: the client is
	// expected to restart the upload from chunk 0.
	ErrUploadNotFound = errors.New("upload session not found or out of order")
	ErrInvalidChunk   = errors.New("invalid chunk")
	ErrInvalidPath    = errors.New("invalid path")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
