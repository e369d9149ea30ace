// Package remote implements db.Backend against a remote document store
// reached over its HTTP wire API. The Connection owns the session
// lifecycle; the Backend adapter bridges the driver's callback-style
// completions into futures.
package remote

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/BobWall23/davenport/pkg/db"
	"github.com/BobWall23/davenport/pkg/log"
)

// Config holds the resolved connection settings. Zero values fall back to
// the defaults below.
type Config struct {
	// Host is the store's base URL, e.g. "http://127.0.0.1:8091".
	Host string
	// Bucket is the target bucket name.
	Bucket string
	// IOPoolSize bounds idle connections kept to the store.
	IOPoolSize int
	// KVEndpoints bounds concurrent connections per host.
	KVEndpoints int
	// Timeout applies per round trip.
	Timeout time.Duration
}

const (
	DefaultHost        = "http://127.0.0.1:8091"
	DefaultBucket      = "default"
	DefaultIOPoolSize  = 4
	DefaultKVEndpoints = 1
	DefaultTimeout     = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.IOPoolSize <= 0 {
		c.IOPoolSize = DefaultIOPoolSize
	}
	if c.KVEndpoints <= 0 {
		c.KVEndpoints = DefaultKVEndpoints
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Connection is the session handle to the remote store. It starts
// disconnected; Connect establishes the session and Disconnect releases it.
// A process is expected to hold at most one live connection.
type Connection struct {
	cfg Config

	mu  sync.RWMutex
	drv *driver
}

func NewConnection(cfg Config) *Connection {
	return &Connection{cfg: cfg.withDefaults()}
}

// Connect establishes the session and verifies the store is reachable. On
// failure the connection stays disconnected and the error is reported as a
// backend failure; callers decide whether to retry.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drv != nil {
		return nil
	}
	transport := &http.Transport{
		MaxIdleConns:    c.cfg.IOPoolSize,
		MaxConnsPerHost: c.cfg.IOPoolSize * c.cfg.KVEndpoints,
	}
	client := &http.Client{Transport: transport, Timeout: c.cfg.Timeout}
	drv := newDriver(c.cfg.Host, c.cfg.Bucket, client)
	if err := drv.health(ctx); err != nil {
		transport.CloseIdleConnections()
		log.Remote.Warn().Str("host", c.cfg.Host).Err(err).Msg("connect failed")
		return db.Backendf("connect", err)
	}
	c.drv = drv
	log.Remote.Info().Str("host", c.cfg.Host).Str("bucket", c.cfg.Bucket).Msg("connected")
	return nil
}

// Disconnect releases the session. Idempotent.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drv == nil {
		return
	}
	c.drv.client.CloseIdleConnections()
	c.drv = nil
	log.Remote.Info().Msg("disconnected")
}

// Connected reports whether a live session is held.
func (c *Connection) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drv != nil
}

func (c *Connection) driver() (*driver, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drv, c.drv != nil
}
