package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"example.com/drawguess/internal/protocol"
	"example.com/drawguess/internal/session"
)

const EnvPrefix = "DRAWGUESS"

// Config describes all runtime settings for a host or a guest. Load it once
// in main, validate, and pass the parts down.
type Config struct {
	Log struct {
		Format string // text|json
		Level  string // debug|info|warn|error
	}

	HTTP struct {
		Addr string
		// Advertise is the address guests dial; defaults to Addr.
		Advertise         string
		ReadHeaderTimeout time.Duration
		IdleTimeout       time.Duration
		ShutdownTimeout   time.Duration
	}

	Redis struct {
		Addr    string
		DB      int
		CodeTTL time.Duration
	}

	Postgres struct {
		// URL enables the results archive when set.
		URL           string
		RunMigrations bool
	}

	Transport struct {
		Directory     string // static|redis
		HostAddr      string // static directory target for guests
		JoinAttempts  int
		JoinBackoff   time.Duration
		DialTimeout   time.Duration
		RefreshEvery  time.Duration
		PingInterval  time.Duration
		PeerTimeout   time.Duration
		ChatPerSecond float64
		ChatBurst     int
		DrawPerSecond float64
		DrawBurst     int
	}

	Game struct {
		PlayerName   string
		WordsFile    string
		CanvasWidth  int
		CanvasHeight int
		Settings     protocol.Settings
	}
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.advertise", "")
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.code_ttl", 6*time.Hour)
	_ = v.BindEnv("redis.addr", EnvPrefix+"_REDIS_ADDR", "REDIS_ADDR")

	v.SetDefault("postgres.url", "")
	v.SetDefault("postgres.run_migrations", true)
	_ = v.BindEnv("postgres.url", EnvPrefix+"_POSTGRES_URL", "DATABASE_URL")

	v.SetDefault("transport.directory", "static")
	v.SetDefault("transport.host_addr", "localhost:8080")
	v.SetDefault("transport.join_attempts", 3)
	v.SetDefault("transport.join_backoff", 500*time.Millisecond)
	v.SetDefault("transport.dial_timeout", 5*time.Second)
	v.SetDefault("transport.refresh_every", time.Hour)
	v.SetDefault("transport.ping_interval", 25*time.Second)
	v.SetDefault("transport.peer_timeout", 60*time.Second)
	v.SetDefault("transport.chat_per_second", 5.0)
	v.SetDefault("transport.chat_burst", 10)
	v.SetDefault("transport.draw_per_second", 120.0)
	v.SetDefault("transport.draw_burst", 240)

	def := session.DefaultSettings()
	v.SetDefault("game.player_name", "")
	v.SetDefault("game.words_file", "")
	v.SetDefault("game.canvas_width", 800)
	v.SetDefault("game.canvas_height", 600)
	v.SetDefault("game.max_players", def.MaxPlayers)
	v.SetDefault("game.draw_time", def.DrawTimeSeconds)
	v.SetDefault("game.rounds", def.TotalRounds)
	v.SetDefault("game.word_choices", def.WordChoicesPerTurn)
	v.SetDefault("game.hints", def.HintCount)
	v.SetDefault("game.language", def.Language)
	v.SetDefault("game.custom_words", []string{})
	v.SetDefault("game.custom_words_only", false)
	return v
}

// BindFlags points viper keys at command flags; keys maps flag name to key.
// A flag set on the command line wins over the environment.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("no flag %q for %s", name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

// Load reads v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	var c Config

	c.Log.Format = v.GetString("log.format")
	c.Log.Level = v.GetString("log.level")

	c.HTTP.Addr = v.GetString("http.addr")
	c.HTTP.Advertise = v.GetString("http.advertise")
	c.HTTP.ReadHeaderTimeout = v.GetDuration("http.read_header_timeout")
	c.HTTP.IdleTimeout = v.GetDuration("http.idle_timeout")
	c.HTTP.ShutdownTimeout = v.GetDuration("http.shutdown_timeout")

	c.Redis.Addr = v.GetString("redis.addr")
	c.Redis.DB = v.GetInt("redis.db")
	c.Redis.CodeTTL = v.GetDuration("redis.code_ttl")

	c.Postgres.URL = v.GetString("postgres.url")
	c.Postgres.RunMigrations = v.GetBool("postgres.run_migrations")

	c.Transport.Directory = strings.ToLower(v.GetString("transport.directory"))
	c.Transport.HostAddr = v.GetString("transport.host_addr")
	c.Transport.JoinAttempts = v.GetInt("transport.join_attempts")
	c.Transport.JoinBackoff = v.GetDuration("transport.join_backoff")
	c.Transport.DialTimeout = v.GetDuration("transport.dial_timeout")
	c.Transport.RefreshEvery = v.GetDuration("transport.refresh_every")
	c.Transport.PingInterval = v.GetDuration("transport.ping_interval")
	c.Transport.PeerTimeout = v.GetDuration("transport.peer_timeout")
	c.Transport.ChatPerSecond = v.GetFloat64("transport.chat_per_second")
	c.Transport.ChatBurst = v.GetInt("transport.chat_burst")
	c.Transport.DrawPerSecond = v.GetFloat64("transport.draw_per_second")
	c.Transport.DrawBurst = v.GetInt("transport.draw_burst")

	c.Game.PlayerName = v.GetString("game.player_name")
	c.Game.WordsFile = v.GetString("game.words_file")
	c.Game.CanvasWidth = v.GetInt("game.canvas_width")
	c.Game.CanvasHeight = v.GetInt("game.canvas_height")
	c.Game.Settings = protocol.Settings{
		MaxPlayers:         v.GetInt("game.max_players"),
		DrawTimeSeconds:    v.GetInt("game.draw_time"),
		TotalRounds:        v.GetInt("game.rounds"),
		WordChoicesPerTurn: v.GetInt("game.word_choices"),
		HintCount:          v.GetInt("game.hints"),
		Language:           v.GetString("game.language"),
		CustomWords:        v.GetStringSlice("game.custom_words"),
		CustomWordsOnly:    v.GetBool("game.custom_words_only"),
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	s, err := session.ValidateSettings(c.Game.Settings)
	if err != nil {
		return Config{}, err
	}
	c.Game.Settings = s
	return c, nil
}

func (c Config) Validate() error {
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported LOG_LEVEL=%q (want debug|info|warn|error)", c.Log.Level)
	}
	if c.HTTP.Addr == "" {
		return errors.New("HTTP addr is empty")
	}
	switch c.Transport.Directory {
	case "static":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is empty but the redis directory is selected")
		}
		if c.Redis.CodeTTL <= 0 {
			return fmt.Errorf("redis code ttl must be positive, got %s", c.Redis.CodeTTL)
		}
	default:
		return fmt.Errorf("unsupported directory %q (want static|redis)", c.Transport.Directory)
	}
	if c.Transport.JoinAttempts < 1 {
		return fmt.Errorf("join attempts must be at least 1, got %d", c.Transport.JoinAttempts)
	}
	if c.Transport.PingInterval <= 0 || c.Transport.PeerTimeout <= c.Transport.PingInterval {
		return fmt.Errorf("peer timeout %s must exceed ping interval %s", c.Transport.PeerTimeout, c.Transport.PingInterval)
	}
	if c.Transport.ChatPerSecond <= 0 || c.Transport.DrawPerSecond <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.Game.CanvasWidth < 1 || c.Game.CanvasHeight < 1 {
		return fmt.Errorf("invalid canvas size %dx%d", c.Game.CanvasWidth, c.Game.CanvasHeight)
	}
	return nil
}

// AdvertiseAddr is the address the hub registers for its room code. bound
// is the listener's address; a wildcard host is replaced by this machine's
// hostname so guests can dial it.
func (c Config) AdvertiseAddr(bound string) string {
	if c.HTTP.Advertise != "" {
		return c.HTTP.Advertise
	}
	host, port, err := net.SplitHostPort(bound)
	if err != nil {
		return bound
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = hostname()
	}
	return net.JoinHostPort(host, port)
}

var hostname = func() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "localhost"
	}
	return h
}
