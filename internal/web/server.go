// Package web serves a read-only view of the MPD play queue.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/latoulicious/mpdbot/pkg/mpd"
)

const missingTitle = "[missing title]"

//go:embed templates/queue.html
var templateFS embed.FS

var queueTemplate = template.Must(template.ParseFS(templateFS, "templates/queue.html"))

type Media interface {
	Queue() ([]mpd.Song, error)
	Next() error
}

// Romanizer romanizes a batch of lines, returning exactly one line per input.
type Romanizer interface {
	RomanizeLines(ctx context.Context, lines []string) ([]string, error)
}

// Entry is one rendered queue row.
type Entry struct {
	Position  int
	Artist    string
	Album     string
	Title     string
	Romanized string
}

type Server struct {
	media     Media
	romanizer Romanizer
	log       *slog.Logger
}

func NewServer(media Media, romanizer Romanizer, log *slog.Logger) *Server {
	return &Server{
		media:     media,
		romanizer: romanizer,
		log:       log.With("component", "web"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleQueueText)
	mux.HandleFunc("GET /next", s.handleNext)
	mux.HandleFunc("GET /queue.html", s.handleQueueHTML)
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Queue view started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start queue view: %w", err)
	}
	return nil
}

// entries reads the queue and romanizes all titles in one batch. If
// romanization fails the raw titles are used.
func (s *Server) entries(ctx context.Context) ([]Entry, error) {
	songs, err := s.media.Queue()
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(songs))
	for i, song := range songs {
		titles[i] = song.Title
		if titles[i] == "" {
			titles[i] = missingTitle
		}
	}

	romanized := titles
	if s.romanizer != nil && len(titles) > 0 {
		lines, err := s.romanizer.RomanizeLines(ctx, titles)
		if err != nil {
			s.log.Warn("Romanization failed, using raw titles", "songs", len(titles), "error", err)
		} else {
			romanized = lines
		}
	}

	entries := make([]Entry, len(songs))
	for i := range songs {
		artist, _ := songs[i].Artist()
		album, _ := songs[i].Album()
		entries[i] = Entry{
			Position:  songs[i].Position,
			Artist:    artist,
			Album:     album,
			Title:     titles[i],
			Romanized: romanized[i],
		}
	}
	return entries, nil
}

func (s *Server) handleQueueText(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries(r.Context())
	if err != nil {
		s.unavailable(w, err)
		return
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d %s   |  %s", e.Position, e.Title, e.Romanized)
		if e.Artist != "" || e.Album != "" {
			fmt.Fprintf(&b, "   |  %s   |  %s", e.Artist, e.Album)
		}
		b.WriteByte('\n')
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	if err := s.media.Next(); err != nil {
		s.unavailable(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Skipped"))
}

func (s *Server) handleQueueHTML(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries(r.Context())
	if err != nil {
		s.unavailable(w, err)
		return
	}

	var b strings.Builder
	if err := queueTemplate.Execute(&b, struct{ Songs []Entry }{entries}); err != nil {
		s.log.Error("Failed to render queue", "error", err)
		http.Error(w, "failed to render queue", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) unavailable(w http.ResponseWriter, err error) {
	s.log.Error("Media server request failed", "error", err)
	msg := "media server request failed"
	if errors.Is(err, mpd.ErrConnection) {
		msg = "media server is unavailable"
	}
	http.Error(w, msg, http.StatusServiceUnavailable)
}
