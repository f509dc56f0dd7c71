package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophupload/internal/flagx"
	"github.com/dmitrijs2005/gophupload/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC       string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP       string         `json:"endpoint_addr_http"`
	DatabaseDSN            string         `json:"database_dsn"`
	SecretKey              string         `json:"secret_key"`
	S3RootUser             string         `json:"s3_root_user"`
	S3RootPassword         string         `json:"s3_root_password"`
	S3Bucket               string         `json:"s3_bucket"`
	S3Region               string         `json:"s3_region"`
	S3BaseEndpoint         string         `json:"s3_base_endpoint"`
	TempDir                string         `json:"temp_dir"`
	UploadRootDir          string         `json:"upload_root_dir"`
	MinCleanupInterval     timex.Duration `json:"min_cleanup_interval"`
	CleanupPeriod          timex.Duration `json:"cleanup_period"`
	MaxSimultaneousUploads int            `json:"max_simultaneous_uploads"`
	LogLevel               string         `json:"log_level"`
}

// parseJson loads configuration values from a JSON file named by -c or
// -config. Without the flag nothing is loaded. Only keys present with a
// non-zero value override what is already in config. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.TempDir, c.TempDir)
	setString(&config.UploadRootDir, c.UploadRootDir)
	setString(&config.LogLevel, c.LogLevel)

	if c.MinCleanupInterval.Duration != 0 {
		config.MinCleanupInterval = c.MinCleanupInterval.Duration
	}
	if c.CleanupPeriod.Duration != 0 {
		config.CleanupPeriod = c.CleanupPeriod.Duration
	}
	if c.MaxSimultaneousUploads != 0 {
		config.MaxSimultaneousUploads = c.MaxSimultaneousUploads
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
