// Package config resolves the connection and server settings from layered
// sources: compiled-in defaults, then any number of JSON override files,
// later files winning.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BobWall23/davenport/pkg/db/remote"
)

type Config struct {
	// Host is the document store's base URL (client side).
	Host string `json:"host"`
	// Bucket is the target bucket name.
	Bucket string `json:"bucket"`
	// ListenAddr is where davenportd serves the wire API.
	ListenAddr string `json:"listen_addr"`
	// DataDir holds the pebble store.
	DataDir string `json:"data_dir"`
	// IOPoolSize bounds idle client connections.
	IOPoolSize int `json:"io_pool_size"`
	// ComputePoolSize caps in-flight requests on the server.
	ComputePoolSize int `json:"compute_pool_size"`
	// KVEndpoints scales connections per host on the client.
	KVEndpoints int `json:"kv_endpoints"`
	// TimeoutSeconds applies per client round trip.
	TimeoutSeconds int    `json:"timeout_seconds"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
}

func Default() Config {
	return Config{
		Host:            remote.DefaultHost,
		Bucket:          remote.DefaultBucket,
		ListenAddr:      "127.0.0.1:8091",
		DataDir:         "data",
		IOPoolSize:      remote.DefaultIOPoolSize,
		ComputePoolSize: 64,
		KVEndpoints:     remote.DefaultKVEndpoints,
		TimeoutSeconds:  10,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Load starts from the defaults and applies each file in order. Files that
// do not exist are skipped, so a bundled default config plus an optional
// local override both resolve through the same call.
func Load(paths ...string) (Config, error) {
	cfg := Default()
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Remote maps the resolved settings onto the network backend's config.
func (c Config) Remote() remote.Config {
	return remote.Config{
		Host:        c.Host,
		Bucket:      c.Bucket,
		IOPoolSize:  c.IOPoolSize,
		KVEndpoints: c.KVEndpoints,
		Timeout:     time.Duration(c.TimeoutSeconds) * time.Second,
	}
}
