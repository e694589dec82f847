package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/buchstabensalat/salad/internal/auth"
	"github.com/buchstabensalat/salad/internal/game"
	"github.com/buchstabensalat/salad/internal/history"
	"github.com/buchstabensalat/salad/internal/httpserver"
	"github.com/buchstabensalat/salad/internal/store"
	"github.com/buchstabensalat/salad/internal/tui"
	"github.com/buchstabensalat/salad/internal/words"
)

const (
	releaseVersion = "0.1.0"

	// terminal history key; the server namespaces per owner
	localHistoryKey = "buchstabensalat-history"
)

func main() {
	_ = godotenv.Load()
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func setupLogging(level string, w io.Writer) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func serve(ctx context.Context, cfg *Config) error {
	setupLogging(cfg.logLevel, os.Stderr)

	db, err := store.OpenDB(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	dict := words.Load(cfg.words)
	n, groups := dict.Stats()
	log.Info().Int("words", n).Int("anagramGroups", groups).Msg("dictionary loaded")

	srv := httpserver.New(httpserver.Options{
		DB:   db,
		Dict: dict,
		Auth: auth.Config{
			Secret:     cfg.jwtSecret,
			TTL:        cfg.jwtExpires,
			CookieName: cfg.cookieName,
		},
		ChallengeSeconds: cfg.challengeSeconds,
		ClientOrigin:     cfg.clientOrigin,
		PublicURL:        cfg.publicURL,
		MoveRPS:          cfg.moveRPS,
		MoveBurst:        cfg.moveBurst,
		SessionIdle:      cfg.sessionIdle,
		Secure:           cfg.production,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx, fmt.Sprintf(":%d", cfg.port))
}

func play(ctx context.Context, cfg *Config) error {
	var w io.Writer = io.Discard
	if cfg.logFile != "" {
		f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	setupLogging(cfg.logLevel, w)

	db, err := store.OpenDB(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	kv := store.NewKV(db)

	dict := words.Load(cfg.words)
	hist := history.Load(ctx, kv, localHistoryKey, dict.Contains)
	sess := game.NewSession(uuid.NewString(), "local", dict,
		game.WithHistory(hist),
		game.WithChallengeDuration(cfg.challengeSeconds),
	)
	return tui.Run(sess, func(h *history.Tracker) error {
		return history.Save(ctx, kv, localHistoryKey, h)
	})
}
