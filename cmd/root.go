package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/awwal/internal/auth"
	"github.com/abhisek/awwal/internal/remote"
	"github.com/abhisek/awwal/internal/store"
	"github.com/abhisek/awwal/internal/tracker"
)

var rootCmd = &cobra.Command{
	Use:   "awwal",
	Short: "Arabic learning progress tracker",
	Long:  "Awwal records lesson completions and daily streaks on this machine and keeps them in sync with your account.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine.
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides AWWAL_DB env var)")
	rootCmd.PersistentFlags().String("api-url", "", "Account API base URL (overrides AWWAL_API_URL env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides AWWAL_LOG_LEVEL env var)")

	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then AWWAL_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// newLogger builds a development logger on stderr so command output on
// stdout stays clean.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level := os.Getenv("AWWAL_LOG_LEVEL")
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	if level == "" {
		level = "warn"
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.TimeKey = "timestamp"
	config.OutputPaths = []string{"stderr"}
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// env is the set of collaborators a command works with.
type env struct {
	logger *zap.Logger
	store  *store.Store
	client remote.Client
	auth   *auth.Manager
	svc    *tracker.Service
	config tracker.Config
}

// openEnv opens the store and wires the account client, session manager
// and progress service. With restore set, a stored session is resolved,
// which starts a background reconcile when it is still valid.
func openEnv(cmd *cobra.Command, restore bool) (*env, error) {
	ctx := cmd.Context()

	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rcfg := remote.ConfigFromEnv()
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		rcfg.BaseURL = u
	}
	client, err := remote.NewFromConfig(rcfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("configure account API: %w", err)
	}
	client = remote.WithLogging(client, logger)

	kv := st.KV()
	tcfg := tracker.ConfigFromEnv()
	svc := tracker.New(ctx, kv, client,
		tracker.WithConfig(tcfg),
		tracker.WithLogger(logger),
		tracker.WithSyncLog(st.SyncEventRepo()),
	)
	mgr := auth.NewManager(client, kv, auth.WithLogger(logger))
	mgr.Subscribe(svc.HandleAuthChange)

	e := &env{
		logger: logger,
		store:  st,
		client: client,
		auth:   mgr,
		svc:    svc,
		config: tcfg,
	}
	if restore {
		e.restore(ctx)
	}
	return e, nil
}

// restore resolves a stored session, bounded by the sync timeout.
func (e *env) restore(ctx context.Context) auth.State {
	ctx, cancel := context.WithTimeout(ctx, e.config.SyncTimeout)
	defer cancel()
	return e.auth.Restore(ctx)
}

// Close waits for background sync, then releases the store.
func (e *env) Close() {
	e.svc.Wait()
	_ = e.logger.Sync()
	_ = e.store.Close()
}
