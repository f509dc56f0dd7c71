// Package config loads runtime configuration for the uploader CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-t string   access token
//	-n int      chunk size in bytes
//	-f string   destination folder on the server
//
// Every argument that is not a flag or a flag value is a file to upload.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "eyJ...",
//	  "chunk_size": 1048576,
//	  "folder": "reports"
//	}
package config
