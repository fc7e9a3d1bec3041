// Package cli implements the nocturna command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nocturna-app/nocturna/internal/app/engagement"
	"github.com/nocturna-app/nocturna/internal/daemon"
	"github.com/nocturna-app/nocturna/internal/domain"
	"github.com/nocturna-app/nocturna/internal/infra/observability"
	"github.com/nocturna-app/nocturna/internal/infra/sqlite"
	"github.com/nocturna-app/nocturna/internal/logger"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "nocturna",
	Short: "NOCTURNA nightlife progression engine",
	Long: `NOCTURNA turns recorded spending into XP, ranks, behavioral classes,
quests and badges. Run 'nocturna serve' for the HTTP API, or use the
agent, tx, quests, badges and leaderboard commands against the local
database directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.toml (default ~/.nocturna/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override [log].level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// ─── Wiring ─────────────────────────────────────────────────────────────────

// app is everything a command needs, built from the loaded config.
type app struct {
	cfg          daemon.Config
	log          zerolog.Logger
	db           *sqlite.DB
	tracer       *observability.Tracer
	transactions *engagement.TransactionService
	progress     *engagement.ProgressService
	social       *engagement.SocialService
}

// openApp loads config, opens the database and builds the services.
// Commands log to stderr so stdout carries only results.
func openApp(cmd *cobra.Command) (*app, error) {
	path := configPath
	if path == "" {
		path = daemon.DefaultPath()
	}
	cfg, err := daemon.Load(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	log := logger.NewWriter(cmd.ErrOrStderr(), "nocturna")

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	tracer := observability.NewTracer(observability.DefaultTracerConfig())
	ecfg := engagement.Config{
		Location: loc,
		Logger:   log,
		Tracer:   tracer,
	}
	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		tracer:       tracer,
		transactions: engagement.NewTransactionService(db, ecfg),
		progress:     engagement.NewProgressService(db, ecfg),
		social:       engagement.NewSocialService(db, ecfg),
	}, nil
}

func (a *app) Close() error { return a.db.Close() }

// resolveAgent accepts an agent ID or a codename.
func (a *app) resolveAgent(ctx context.Context, ref string) (*domain.Agent, error) {
	agent, err := a.db.GetAgent(ctx, ref)
	if !errors.Is(err, domain.ErrAgentNotFound) {
		return agent, err
	}
	codename, nerr := engagement.NormalizeCodename(ref)
	if nerr != nil {
		return nil, err
	}
	return a.db.GetAgentByCodename(ctx, codename)
}

// ─── Output ─────────────────────────────────────────────────────────────────

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
