// Package common contains shared constants and sentinel errors used across
// gophupload components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName carries the per-request correlation id.
const RequestIDHeaderName = "x-request-id"
