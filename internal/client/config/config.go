package config

// DefaultChunkSize is the payload size of one chunk when -n is not given.
const DefaultChunkSize = 1 << 20

// Config holds runtime settings for the uploader CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AccessToken: bearer token sent with every chunk.
//   - ChunkSize: bytes per chunk.
//   - Folder: destination folder under the server's upload root.
//   - Files: local files to upload, taken from the positional arguments.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	ChunkSize          int
	Folder             string
	Files              []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.ChunkSize = DefaultChunkSize
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
