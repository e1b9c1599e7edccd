// Package romanize converts mixed-script text into a latin rendering by
// piping it through an external one-shot transform (kakasi by default).
package romanize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const (
	DefaultCommand     = "kakasi"
	DefaultMaxAttempts = 5

	// kakasi prints this for symbols it cannot transliterate
	symbolMarker = "(kigou)"
)

// DefaultArgs select UTF-8 I/O and latin output for every script kakasi knows.
var DefaultArgs = []string{"-i", "utf8", "-o", "utf8", "-C", "-s", "-Ha", "-Ka", "-Ja", "-Ea", "-ka"}

var (
	ErrTransformMismatch       = errors.New("romanization output does not match input lines")
	ErrRomanizationUnavailable = errors.New("romanization unavailable")
	ErrLineCount               = errors.New("romanized line count differs from input")
)

// Transformer runs one text transform.
type Transformer interface {
	Transform(ctx context.Context, input string) (string, error)
}

// CommandTransformer feeds input to a process on stdin and returns its stdout.
type CommandTransformer struct {
	Path string
	Args []string
}

func (c CommandTransformer) Transform(ctx context.Context, input string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("run %s: %w: %s", c.Path, err, msg)
		}
		return "", fmt.Errorf("run %s: %w", c.Path, err)
	}
	return stdout.String(), nil
}

// Romanizer verifies transform output and retries a bounded number of times.
type Romanizer struct {
	transform   Transformer
	maxAttempts int
	log         *slog.Logger
}

// Option configures a Romanizer.
type Option func(*Romanizer)

// WithCommand runs path with args instead of the default kakasi invocation.
func WithCommand(path string, args ...string) Option {
	return func(r *Romanizer) {
		r.transform = CommandTransformer{Path: path, Args: args}
	}
}

// WithTransformer replaces the external command with t.
func WithTransformer(t Transformer) Option {
	return func(r *Romanizer) { r.transform = t }
}

// WithMaxAttempts bounds tries per text; values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(r *Romanizer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger sets the logger retries report to.
func WithLogger(log *slog.Logger) Option {
	return func(r *Romanizer) { r.log = log }
}

// New returns a Romanizer that shells out to kakasi unless configured otherwise.
func New(opts ...Option) *Romanizer {
	r := &Romanizer{
		transform:   CommandTransformer{Path: DefaultCommand, Args: DefaultArgs},
		maxAttempts: DefaultMaxAttempts,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "romanize")
	return r
}

// Romanize returns the latin rendering of text, trimmed, with kakasi's
// symbol marker rewritten to "~".
func (r *Romanizer) Romanize(ctx context.Context, text string) (string, error) {
	raw, err := r.romanizeRaw(ctx, text)
	if err != nil {
		return "", err
	}
	return clean(raw), nil
}

// RomanizeLines romanizes every line in one transform call. The result has
// exactly len(lines) entries or an error is returned.
func (r *Romanizer) RomanizeLines(ctx context.Context, lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	raw, err := r.romanizeRaw(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return nil, err
	}

	out := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	if len(out) != len(lines) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLineCount, len(out), len(lines))
	}
	for i := range out {
		out[i] = clean(out[i])
	}
	return out, nil
}

// romanizeRaw returns verified, untrimmed transform output.
func (r *Romanizer) romanizeRaw(ctx context.Context, text string) (string, error) {
	wantNewlines := strings.Count(text, "\n") + 1

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := r.transform.Transform(ctx, text+"\n")
		if err == nil {
			got := strings.Count(out, "\n")
			if out != "" && got == wantNewlines {
				return out, nil
			}
			err = fmt.Errorf("%w: want %d newlines, got %d", ErrTransformMismatch, wantNewlines, got)
		}

		lastErr = err
		r.log.Warn("Retrying romanization", "attempt", attempt, "max_attempts", r.maxAttempts, "error", err)
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrRomanizationUnavailable, r.maxAttempts, lastErr)
}

func clean(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), symbolMarker, "~")
}
