// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/gophupload/internal/server/upload"
)

// Config holds runtime settings for the upload server.
//
// Fields:
//   - EndpointAddrGRPC / EndpointAddrHTTP: bind addresses of the two transports.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty disables the upload ledger.
//   - SecretKey: HMAC secret for verifying access tokens (HS256).
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings. Empty
//     bucket disables publishing.
//   - TempDir: where chunk files accumulate.
//   - UploadRootDir: root under which finished uploads are placed.
//   - MinCleanupInterval: minimum time between two reaper comparisons.
//   - CleanupPeriod: how often the reaper runs.
//   - MaxSimultaneousUploads: per-name cap on concurrent uploads.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrGRPC       string
	EndpointAddrHTTP       string
	DatabaseDSN            string
	SecretKey              string
	S3RootUser             string
	S3RootPassword         string
	S3Bucket               string
	S3Region               string
	S3BaseEndpoint         string
	TempDir                string
	UploadRootDir          string
	MinCleanupInterval     time.Duration
	CleanupPeriod          time.Duration
	MaxSimultaneousUploads int
	LogLevel               string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside of local runs.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.TempDir = os.TempDir()
	c.UploadRootDir = "uploads"
	c.MinCleanupInterval = upload.DefaultMinCleanupInterval
	c.CleanupPeriod = 24 * time.Hour
	c.MaxSimultaneousUploads = upload.DefaultMaxSimultaneousUploads
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
