package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"example.com/drawguess/internal/config"
	"example.com/drawguess/internal/migrate"
	"example.com/drawguess/internal/session"
	"example.com/drawguess/internal/store"
	"example.com/drawguess/internal/transport"
	"example.com/drawguess/internal/words"
)

// Archive keeps finished games.
type Archive interface {
	Save(ctx context.Context, roomCode string, r session.Result) error
}

// App holds the process-wide dependencies shared by a host or a guest.
type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	dir     transport.Directory
	words   *words.List
	archive Archive
}

type Options struct {
	// Archive replaces the Postgres archive; optional.
	Archive Archive
	// Directory replaces the configured directory; optional.
	Directory transport.Directory
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{cfg: cfg, log: log, archive: opts.Archive, dir: opts.Directory}

	list, err := words.LoadFile(cfg.Game.WordsFile)
	if err != nil {
		return nil, err
	}
	a.words = list

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if a.dir == nil {
		switch cfg.Transport.Directory {
		case "redis":
			a.rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
			if err := a.rdb.Ping(pingCtx).Err(); err != nil {
				_ = a.Close()
				return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
			}
			a.dir = transport.NewRedisDirectory(a.rdb, cfg.Redis.CodeTTL)
		default:
			a.dir = transport.StaticDirectory{Addr: cfg.Transport.HostAddr}
		}
	}

	if a.archive == nil && cfg.Postgres.URL != "" {
		if cfg.Postgres.RunMigrations {
			if err := migrate.Up(cfg.Postgres.URL, log); err != nil {
				_ = a.Close()
				return nil, err
			}
		}
		a.db, err = pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("pgxpool: %w", err)
		}
		if err := a.db.Ping(pingCtx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		a.archive = store.NewResultsStore(a.db)
	}
	return a, nil
}

func (a *App) Close() error {
	// best-effort
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}

func (a *App) heartbeat() transport.Heartbeat {
	return transport.Heartbeat{Ping: a.cfg.Transport.PingInterval, Timeout: a.cfg.Transport.PeerTimeout}
}
