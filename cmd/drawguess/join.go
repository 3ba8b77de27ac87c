package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"example.com/drawguess/internal/app"
	"example.com/drawguess/internal/config"
	"example.com/drawguess/internal/transport"
)

func newJoinCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join CODE",
		Short: "Join a session by its room code.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			a, err := app.New(cmd.Context(), cfg, log, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			term := newTerminal(os.Stdout)
			guest, err := a.Join(cmd.Context(), args[0], cfg.Game.PlayerName, term)
			switch {
			case errors.Is(err, transport.ErrSessionNotFound):
				return fmt.Errorf("%w: check the room code and try again", err)
			case errors.Is(err, transport.ErrConnectionTimeout):
				return fmt.Errorf("%w: is the host reachable at %s?", err, cfg.Transport.HostAddr)
			case err != nil:
				return err
			}
			term.printf("Joined %s. Type /help for commands.\n", transport.NormalizeCode(args[0]))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				if err := guest.Run(gctx); err != nil {
					return fmt.Errorf("%w: rejoin with the room code", err)
				}
				return nil
			})
			g.Go(func() error {
				defer cancel()
				return runConsole(gctx, os.Stdin, term, participantCommands(guest.Game(), term))
			})
			return g.Wait()
		},
	}

	fs := cmd.Flags()
	fs.String("host", "localhost:8080", "host address when not using a directory (env: DRAWGUESS_TRANSPORT_HOST_ADDR)")
	fs.Int("attempts", 3, "connection attempts before giving up")
	cobra.CheckErr(config.BindFlags(v, fs, map[string]string{
		"host":     "transport.host_addr",
		"attempts": "transport.join_attempts",
	}))
	return cmd
}
