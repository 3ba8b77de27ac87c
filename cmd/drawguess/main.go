package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"example.com/drawguess/internal/config"
)

const releaseVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(newRootCmd().ExecuteContext(ctx))
}

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "drawguess",
		Short:         "Host or join a draw-and-guess session from the terminal.",
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := cmd.PersistentFlags()
	pf.String("log-format", "text", "log format, text or json (env: DRAWGUESS_LOG_FORMAT)")
	pf.String("log-level", "info", "log level (env: DRAWGUESS_LOG_LEVEL)")
	pf.StringP("name", "n", "", "your player name (env: DRAWGUESS_GAME_PLAYER_NAME)")
	pf.String("directory", "static", "room code directory, static or redis (env: DRAWGUESS_TRANSPORT_DIRECTORY)")
	pf.String("redis-addr", "", "redis address for the redis directory (env: REDIS_ADDR)")
	pf.String("words-file", "", "JSON word list replacing the built-in one (env: DRAWGUESS_GAME_WORDS_FILE)")
	pf.Int("canvas-width", 800, "local canvas width in pixels")
	pf.Int("canvas-height", 600, "local canvas height in pixels")

	bind := map[string]string{
		"log-format":    "log.format",
		"log-level":     "log.level",
		"name":          "game.player_name",
		"directory":     "transport.directory",
		"redis-addr":    "redis.addr",
		"words-file":    "game.words_file",
		"canvas-width":  "game.canvas_width",
		"canvas-height": "game.canvas_height",
	}
	cobra.CheckErr(config.BindFlags(v, pf, bind))

	cmd.AddCommand(newHostCmd(v), newJoinCmd(v))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("drawguess v{{.Version}}\n")
	return cmd
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Log.Level))
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}
