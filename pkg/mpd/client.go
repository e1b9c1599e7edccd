// Package mpd wraps a single MPD connection and hides transient disconnects
// from callers by re-probing and reconnecting before every operation.
package mpd

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const pingAttempts = 2

// Client owns one media server connection. All operations are serialized
// through a single mutex so ping, reconnect and execute happen atomically.
type Client struct {
	mu      sync.Mutex
	conn    Conn
	network string
	addr    string
	dial    Dialer
	log     *slog.Logger
	closed  bool
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the gompd-backed dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// WithLogger sets the logger used for reconnect diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Connect dials the media server at address. Addresses starting with "/"
// are treated as unix sockets.
func Connect(address string, opts ...Option) (*Client, error) {
	c := &Client{
		network: networkFor(address),
		addr:    address,
		dial:    DialGompd,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "mpd.client", "address", address)

	conn, err := c.dial(c.network, c.addr)
	if err != nil {
		return nil, &ConnectionError{Addr: address, Err: err}
	}
	c.conn = conn
	c.log.Info("Connected to media server")
	return c, nil
}

func networkFor(address string) string {
	if strings.HasPrefix(address, "/") {
		return "unix"
	}
	return "tcp"
}

// Address returns the address the client was created with.
func (c *Client) Address() string {
	return c.addr
}

// ensure makes sure c.conn is live. Callers must hold c.mu.
func (c *Client) ensure() error {
	if c.closed {
		return ErrClosed
	}

	if c.conn != nil {
		for i := 0; i < pingAttempts; i++ {
			err := c.conn.Ping()
			if err == nil {
				return nil
			}
			c.log.Debug("Liveness ping failed", "attempt", i+1, "error", err)
		}
		_ = c.conn.Close()
		c.conn = nil
	}

	c.log.Warn("Reconnecting to media server")
	conn, err := c.dial(c.network, c.addr)
	if err != nil {
		c.log.Error("Reconnect failed", "error", err)
		return &ConnectionError{Addr: c.addr, Err: err}
	}
	c.conn = conn
	c.log.Info("Reconnected to media server")
	return nil
}

func (c *Client) do(op func(Conn) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensure(); err != nil {
		return err
	}
	return op(c.conn)
}

// TogglePause pauses playback if playing and resumes it if paused.
func (c *Client) TogglePause() error {
	return c.do(func(conn Conn) error { return conn.TogglePause() })
}

// Next skips to the next song in the queue.
func (c *Client) Next() error {
	return c.do(func(conn Conn) error { return conn.Next() })
}

// Prev goes back to the previous song in the queue.
func (c *Client) Prev() error {
	return c.do(func(conn Conn) error { return conn.Previous() })
}

// Switch starts playback at the 1-based queue position.
func (c *Client) Switch(position uint) error {
	return c.do(func(conn Conn) error { return switchTo(conn, position) })
}

// SwitchAndCurrent switches like Switch and reads the song now loaded, both
// under one lock so no other operation lands in between. A failure to read
// the song after a successful switch is logged and yields a nil song.
func (c *Client) SwitchAndCurrent(position uint) (*Song, error) {
	var song *Song
	err := c.do(func(conn Conn) error {
		if err := switchTo(conn, position); err != nil {
			return err
		}
		attrs, err := conn.CurrentSong()
		if err != nil {
			c.log.Warn("Failed to read song after switching", "position", position, "error", err)
			return nil
		}
		song = songFromAttrs(attrs)
		return nil
	})
	return song, err
}

func switchTo(conn Conn, position uint) error {
	if position == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQueuePosition, position)
	}
	length, err := conn.QueueLength()
	if err != nil {
		return fmt.Errorf("read queue length: %w", err)
	}
	if position > uint(length) {
		return fmt.Errorf("%w: %d (queue has %d songs)", ErrInvalidQueuePosition, position, length)
	}
	if err := conn.Play(int(position) - 1); err != nil {
		return fmt.Errorf("play position %d: %w", position, err)
	}
	return nil
}

// CurrentSong returns the song currently loaded in the player, or nil.
func (c *Client) CurrentSong() (*Song, error) {
	var song *Song
	err := c.do(func(conn Conn) error {
		attrs, err := conn.CurrentSong()
		if err != nil {
			return err
		}
		song = songFromAttrs(attrs)
		return nil
	})
	return song, err
}

// Queue returns every song in the play queue in queue order.
func (c *Client) Queue() ([]Song, error) {
	var songs []Song
	err := c.do(func(conn Conn) error {
		list, err := conn.PlaylistInfo()
		if err != nil {
			return err
		}
		songs = make([]Song, 0, len(list))
		for _, attrs := range list {
			if song := songFromAttrs(attrs); song != nil {
				songs = append(songs, *song)
			}
		}
		return nil
	})
	return songs, err
}

// Close tears down the connection. Further calls return ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
