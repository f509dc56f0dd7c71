// Package client talks to the upload server over gRPC.
//
// GRPCClient owns the connection, attaches the access token to every call
// and maps gRPC status codes to the sentinel errors in this package so
// callers can match them with errors.Is:
//
//   - ErrUnauthorized: missing, expired or invalid token
//   - ErrUnavailable: the server could not be reached
//   - ErrRestartUpload: the server lost the upload, send it again from chunk 0
//   - ErrRejected: the server refused the arguments (bad name or chunk range)
package client
