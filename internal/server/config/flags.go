package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophupload/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-w string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-t string     temporary chunk directory
//	-r string     upload root directory
//	-i duration   minimum interval between reaper comparisons (e.g., "2h")
//	-l duration   reaper period (e.g., "24h")
//	-m int        max simultaneous uploads per name
//	-v string     log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-w", "-d", "-s", "-u", "-p", "-b", "-g", "-e",
		"-t", "-r", "-i", "-l", "-m", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.TempDir, "t", config.TempDir, "temporary chunk directory")
	fs.StringVar(&config.UploadRootDir, "r", config.UploadRootDir, "upload root directory")
	fs.DurationVar(&config.MinCleanupInterval, "i", config.MinCleanupInterval, "min interval between cleanup comparisons")
	fs.DurationVar(&config.CleanupPeriod, "l", config.CleanupPeriod, "cleanup period")
	fs.IntVar(&config.MaxSimultaneousUploads, "m", config.MaxSimultaneousUploads, "max simultaneous uploads per name")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
