package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/latoulicious/mpdbot/internal/config"
	"github.com/latoulicious/mpdbot/pkg/logger"
	"github.com/latoulicious/mpdbot/pkg/mpd"
	"github.com/latoulicious/mpdbot/pkg/romanize"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mpdbot",
	Short: "Discord remote and voice bridge for MPD",
	Long: `mpdbot - control an MPD server from Discord.

Configuration is read from the environment, optionally seeded from a .env
file in the working directory:
  DISCORD_TOKEN      bot token (required by run and discord)
  MPD_ADDRESS        host:port or absolute path of the MPD socket (required)
  MPD_FIFO_PATH      PCM FIFO written by MPD (default /tmp/mpd_bot.fifo)
  FIFO_OPEN_TIMEOUT  how long a join waits for the FIFO (default 10s)
  WEB_ADDRESS        queue view listen address (default :8000)
  COMMAND_PREFIX     chat command prefix (default !r)
  KAKASI_PATH        romanizer binary (default kakasi)
  ROMANIZE_ATTEMPTS  romanizer attempts per text (default 5)
  PRESENCE_SCHEDULE  presence refresh schedule (default @every 30s)
  LOG_LEVEL          debug, info, warn or error (default info)
  LOG_FORMAT         text or json (default text)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd, discordCmd, webCmd)
}

// app holds what every mode shares: one MPD client and one romanizer.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	media     *mpd.Client
	romanizer *romanize.Romanizer
}

func newApp(requireDiscord bool) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if requireDiscord {
		if err := cfg.RequireDiscord(); err != nil {
			return nil, err
		}
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	media, err := mpd.Connect(cfg.MPDAddress, mpd.WithLogger(appLogger))
	if err != nil {
		return nil, err
	}

	romanizer := romanize.New(
		romanize.WithCommand(cfg.KakasiPath, romanize.DefaultArgs...),
		romanize.WithMaxAttempts(cfg.RomanizeAttempts),
		romanize.WithLogger(appLogger),
	)

	return &app{cfg: cfg, log: appLogger, media: media, romanizer: romanizer}, nil
}

func (a *app) close() {
	if err := a.media.Close(); err != nil {
		a.log.Debug("Failed to close MPD connection", "error", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runModes runs each mode until ctx is cancelled or one of them fails.
func runModes(ctx context.Context, modes ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(modes))
	for _, mode := range modes {
		go func() { errCh <- mode(ctx) }()
	}

	var errs []error
	for range modes {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
		cancel()
	}
	return errors.Join(errs...)
}
