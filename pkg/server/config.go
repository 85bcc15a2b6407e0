package server

import (
	"net/http"
	"time"
)

// Config holds server tunables. Zero fields take defaults from
// DefaultConfig.
type Config struct {
	// Address is the listen address, host:port.
	Address string

	// ReadTimeout bounds how long a websocket read may block. A client
	// that sends nothing (not even pings) within it is dropped.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single websocket write.
	WriteTimeout time.Duration

	// PingInterval is how often the server pings idle connections.
	// Must be shorter than ReadTimeout on the client side.
	PingInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// SendQueue is the per-session outbound frame buffer. A client that
	// cannot drain it fast enough is disconnected rather than allowed
	// to stall the event loop.
	SendQueue int

	// CheckOrigin validates the websocket Origin header. The default
	// accepts same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// Shell renders the HTML page for the index route. The default
	// serves a minimal page that connects to /live.
	Shell func() string

	// Metrics receives event and session instruments. Nil disables
	// recording.
	Metrics *Metrics
}

// DefaultConfig returns the defaults used for unset Config fields.
func DefaultConfig() *Config {
	return &Config{
		Address:         ":3000",
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    25 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		SendQueue:       64,
	}
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	if c.SendQueue == 0 {
		c.SendQueue = d.SendQueue
	}
	if c.Shell == nil {
		c.Shell = defaultShell
	}
}
