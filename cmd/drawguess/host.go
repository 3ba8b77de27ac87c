package main

import (
	"context"
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"example.com/drawguess/internal/app"
	"example.com/drawguess/internal/config"
	"example.com/drawguess/internal/transport"
)

func newHostCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Create a session and wait for players.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg, log, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			term := newTerminal(os.Stdout)
			h, err := a.NewHost(ctx, cfg.Game.PlayerName, term)
			if err != nil {
				return err
			}
			printInvite(term, h.Code(), h.Addr())

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return h.Run(gctx) })
			g.Go(func() error {
				defer cancel()
				return runConsole(gctx, os.Stdin, term, hostCommands(h, term))
			})
			return g.Wait()
		},
	}

	fs := cmd.Flags()
	fs.String("addr", ":8080", "address to listen on (env: DRAWGUESS_HTTP_ADDR)")
	fs.String("advertise", "", "address guests dial, if not the listen address (env: DRAWGUESS_HTTP_ADVERTISE)")
	fs.Int("max-players", 8, "maximum players, host included")
	fs.Int("draw-time", 80, "seconds per drawing turn")
	fs.Int("rounds", 3, "rounds per game")
	fs.Int("hints", 2, "letters revealed per turn")
	fs.Int("choices", 3, "words offered to the drawer")
	fs.String("language", "en", "word list language")
	fs.StringSlice("custom-word", nil, "extra word, repeatable")
	fs.Bool("custom-only", false, "use only custom words (needs at least 10)")
	fs.String("database-url", "", "postgres URL for the results archive (env: DATABASE_URL)")

	cobra.CheckErr(config.BindFlags(v, fs, map[string]string{
		"addr":         "http.addr",
		"advertise":    "http.advertise",
		"max-players":  "game.max_players",
		"draw-time":    "game.draw_time",
		"rounds":       "game.rounds",
		"hints":        "game.hints",
		"choices":      "game.word_choices",
		"language":     "game.language",
		"custom-word":  "game.custom_words",
		"custom-only":  "game.custom_words_only",
		"database-url": "postgres.url",
	}))
	return cmd
}

func printInvite(t *terminal, code, addr string) {
	t.printf("Room code: %s  (listening on %s)\n", code, addr)
	if qr, err := qrcode.New(transport.Invite(code), qrcode.Medium); err == nil {
		t.printf("%s", qr.ToSmallString(false))
	}
	t.printf("Type /help for commands.\n")
}

func hostCommands(h *app.Host, t *terminal) commands {
	g := h.Game()
	return commands{
		"start": {"start the game", func(string) error { return g.Start() }},
		"again": {"back to the lobby", func(string) error { return g.PlayAgain() }},
		"kick":  {"kick a player by name", func(arg string) error {
			for _, p := range g.Players() {
				if p.Name == arg && !p.IsHost {
					return h.Kick(p.ID)
				}
			}
			return fmt.Errorf("no guest named %q", arg)
		}},
		"rounds": {"set rounds in the lobby", func(arg string) error {
			s := g.Snapshot().Settings
			if _, err := fmt.Sscan(arg, &s.TotalRounds); err != nil {
				return err
			}
			return g.UpdateSettings(s)
		}},
		"session": {"show room code and peers", func(string) error {
			t.printf("room %s, %d guests connected\n", h.Code(), h.Hub().PeerCount())
			return nil
		}},
	}.with(participantCommands(g, t))
}
