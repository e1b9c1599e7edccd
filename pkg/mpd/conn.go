package mpd

import (
	"errors"
	"strconv"

	gompd "github.com/fhs/gompd/v2/mpd"
)

// Conn is the subset of the MPD protocol the client drives.
type Conn interface {
	Ping() error
	TogglePause() error
	Next() error
	Previous() error
	Play(pos int) error
	CurrentSong() (map[string]string, error)
	PlaylistInfo() ([]map[string]string, error)
	QueueLength() (int, error)
	Close() error
}

// Dialer opens a new connection to the media server.
type Dialer func(network, addr string) (Conn, error)

// DialGompd dials MPD using the gompd protocol implementation.
func DialGompd(network, addr string) (Conn, error) {
	c, err := gompd.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return &gompdConn{c: c}, nil
}

type gompdConn struct {
	c *gompd.Client
}

func (g *gompdConn) Ping() error { return g.c.Ping() }

// TogglePause sends a bare "pause", which MPD treats as a toggle.
func (g *gompdConn) TogglePause() error { return g.c.Command("pause").OK() }

func (g *gompdConn) Next() error { return g.c.Next() }

func (g *gompdConn) Previous() error { return g.c.Previous() }

func (g *gompdConn) Play(pos int) error {
	err := g.c.Play(pos)
	if isArgumentError(err) {
		return ErrInvalidQueuePosition
	}
	return err
}

// isArgumentError reports whether err is an MPD ACK for a bad argument, which
// is what "play" answers for a position outside the queue.
func isArgumentError(err error) bool {
	var ack gompd.Error
	return errors.As(err, &ack) && ack.Code == gompd.ErrorArg
}

func (g *gompdConn) CurrentSong() (map[string]string, error) {
	attrs, err := g.c.CurrentSong()
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

func (g *gompdConn) PlaylistInfo() ([]map[string]string, error) {
	list, err := g.c.PlaylistInfo(-1, -1)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]string, len(list))
	for i, attrs := range list {
		out[i] = attrs
	}
	return out, nil
}

func (g *gompdConn) QueueLength() (int, error) {
	status, err := g.c.Status()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(status["playlistlength"])
}

func (g *gompdConn) Close() error { return g.c.Close() }
