package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRestartUpload means the server has no in-flight upload matching the
	// chunk; the whole file has to be sent again from chunk 0.
	ErrRestartUpload = errors.New("upload must be restarted")
	ErrRejected      = errors.New("request rejected")
)
