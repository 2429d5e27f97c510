package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/config"
	"github.com/emilstricker/regnemetoden/internal/store"
	"github.com/emilstricker/regnemetoden/internal/store/filestore"
	"github.com/emilstricker/regnemetoden/internal/store/memstore"
	"github.com/emilstricker/regnemetoden/internal/store/mongostore"
	"github.com/emilstricker/regnemetoden/internal/store/sqlitestore"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

const sqliteFile = "regnemetoden.db"

// session is everything a command needs to act for the current user.
type session struct {
	home    string
	cfg     *config.Config
	clock   clock.Clock
	logger  *log.Logger
	store   store.Store
	tracker *tracker.Tracker
}

// openSession loads the config, applies the persistent flags and opens the
// configured store.
func openSession(cmd *cobra.Command) (*session, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		cfg.UserID = user
	}

	dateFlag, _ := cmd.Flags().GetString("date")
	clk, err := clock.Override(clock.System{}, dateFlag)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(cmd.ErrOrStderr(), verbose)

	s, err := openStore(commandContext(cmd), cfg)
	if err != nil {
		return nil, err
	}
	logger.Printf("using %s store for user %s", cfg.Store.Backend, cfg.UserID)

	return &session{
		home:    home,
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
		store:   s,
		tracker: tracker.New(s, clk, cfg.UserID, tracker.WithLogger(logger)),
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// withSession runs fn with an open session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "regnemetoden: ", log.LstdFlags)
}

// openStore opens the backend named in the config. The file store also puts
// back files left over from an interrupted rollback.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		s, err := filestore.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		if err := s.Recover(cfg.UserID); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.Store.Path, 0755); err != nil {
			return nil, err
		}
		s, err := sqlitestore.Open(ctx, filepath.Join(cfg.Store.Path, sqliteFile))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMongo:
		if cfg.Store.MongoURI == "" {
			return nil, errors.New("store.mongo_uri is not set")
		}
		s, err := mongostore.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMemory:
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
