package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/server"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var serveCmd = LeafCommand{
	Use:   "serve",
	Short: "Serve the HTTP API with live updates over websocket",
	StrFlags: []StringFlag{
		{Name: "addr", Usage: "listen address (default: server.addr from config)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return withSession(cmd, func(s *session) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, s, addr)
		})
	},
}.Build()

// serverOptions maps the config onto server options. Without a JWT secret
// every request acts for the configured user.
func serverOptions(s *session, addr string) server.Options {
	if addr == "" {
		addr = s.cfg.Server.Addr
	}
	return server.Options{
		Addr:           addr,
		JWTSecret:      s.cfg.Server.JWTSecret,
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		DefaultUser:    s.cfg.UserID,
		Logger:         s.logger,
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, s *session, addr string) error {
	opts := serverOptions(s, addr)
	srv := server.New(opts, func(userID string) *tracker.Tracker {
		return tracker.New(s.store, s.clock, userID, tracker.WithLogger(s.logger))
	})

	mode := "single user " + s.cfg.UserID
	if opts.JWTSecret != "" {
		mode = "bearer tokens"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", Text("serving on"), Primary(opts.Addr), Silent("("+mode+")"))
	return srv.Run(ctx)
}

var errNoSecret = errors.New("server.jwt_secret is not set, run regnemetoden config set server.jwt_secret <secret>")

var tokenCmd = LeafCommand{
	Use:   "token [user-id]",
	Short: "Print a bearer token for the HTTP API",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			userID := s.cfg.UserID
			if len(args) > 0 {
				userID = args[0]
			}
			return runToken(cmd, s.cfg.Server.JWTSecret, userID)
		})
	},
}.Build()

func runToken(cmd *cobra.Command, secret, userID string) error {
	if secret == "" {
		return errNoSecret
	}
	token, err := server.SignToken(secret, userID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
