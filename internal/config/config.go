package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/latoulicious/mpdbot/pkg/logger"
)

const (
	DefaultFIFOPath         = "/tmp/mpd_bot.fifo"
	DefaultFIFOOpenTimeout  = 10 * time.Second
	DefaultWebAddress       = ":8000"
	DefaultCommandPrefix    = "!r"
	DefaultKakasiPath       = "kakasi"
	DefaultRomanizeAttempts = 5
	DefaultPresenceSchedule = "@every 30s"
)

var (
	ErrDiscordTokenNotSet   = errors.New("DISCORD_TOKEN is not set")
	ErrMPDAddressNotSet     = errors.New("MPD_ADDRESS is not set")
	ErrInvalidMPDAddress    = errors.New("MPD_ADDRESS must be host:port or an absolute socket path")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidAttempts      = errors.New("ROMANIZE_ATTEMPTS must be a positive integer")
	ErrInvalidCommandPrefix = errors.New("COMMAND_PREFIX must be a single non-empty token")
)

type Config struct {
	DiscordToken     string
	MPDAddress       string
	FIFOPath         string
	FIFOOpenTimeout  time.Duration
	WebAddress       string
	CommandPrefix    string
	KakasiPath       string
	RomanizeAttempts int
	PresenceSchedule string
	Logging          logger.Config
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv-style lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DiscordToken:     strings.TrimSpace(getenv("DISCORD_TOKEN")),
		MPDAddress:       strings.TrimSpace(getenv("MPD_ADDRESS")),
		FIFOPath:         withDefault(getenv("MPD_FIFO_PATH"), DefaultFIFOPath),
		FIFOOpenTimeout:  DefaultFIFOOpenTimeout,
		WebAddress:       withDefault(getenv("WEB_ADDRESS"), DefaultWebAddress),
		CommandPrefix:    withDefault(getenv("COMMAND_PREFIX"), DefaultCommandPrefix),
		KakasiPath:       withDefault(getenv("KAKASI_PATH"), DefaultKakasiPath),
		RomanizeAttempts: DefaultRomanizeAttempts,
		PresenceSchedule: withDefault(getenv("PRESENCE_SCHEDULE"), DefaultPresenceSchedule),
		Logging: logger.Config{
			Level:  getenv("LOG_LEVEL"),
			Format: getenv("LOG_FORMAT"),
		},
	}

	if err := validateMPDAddress(cfg.MPDAddress); err != nil {
		return nil, err
	}

	if strings.ContainsAny(cfg.CommandPrefix, " \t\n") {
		return nil, ErrInvalidCommandPrefix
	}

	if v := strings.TrimSpace(getenv("FIFO_OPEN_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("FIFO_OPEN_TIMEOUT %q: %w", v, ErrInvalidDuration)
		}
		cfg.FIFOOpenTimeout = d
	}

	if v := strings.TrimSpace(getenv("ROMANIZE_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, ErrInvalidAttempts
		}
		cfg.RomanizeAttempts = n
	}

	if _, err := logger.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireDiscord checks the settings only the Discord side needs.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return ErrDiscordTokenNotSet
	}
	return nil
}

func validateMPDAddress(addr string) error {
	if addr == "" {
		return ErrMPDAddressNotSet
	}
	if strings.HasPrefix(addr, "/") {
		return nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidMPDAddress, addr)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidMPDAddress, addr)
	}
	return nil
}

func withDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
