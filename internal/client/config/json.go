package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophupload/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerEndpointAddr string `json:"server_endpoint_addr"`
	AccessToken        string `json:"access_token"`
	ChunkSize          int    `json:"chunk_size"`
	Folder             string `json:"folder"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. Only fields present in the file replace the current values.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.AccessToken != "" {
		cfg.AccessToken = jc.AccessToken
	}
	if jc.ChunkSize > 0 {
		cfg.ChunkSize = jc.ChunkSize
	}
	if jc.Folder != "" {
		cfg.Folder = jc.Folder
	}
}
