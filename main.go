// backend/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfg     = &Config{}
	envFile string
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-admin",
	Short: "Portfolio administration backend",
	Long: `Serves the admin API of the portfolio site: admin accounts and login,
skills, education, projects with image upload, and contact messages.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(envFile); err != nil {
			return err
		}
		if err := cfg.LoadEnv(); err != nil {
			return err
		}
		// flags win over the environment
		applyFlags(cmd)

		var err error
		logger, err = newLogger(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and report whether an admin exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		guard := NewSchemaGuard(db, newAdminStore(db), cfg.SchemaCacheTTL)
		readiness, err := guard.Check(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("schema ready", zap.Bool("first_run", readiness.FirstRun))
		fmt.Fprintf(cmd.OutOrStdout(), "firstRun=%t redirect=%s\n", readiness.FirstRun, readiness.Redirect)
		return nil
	},
}

var flagValues struct {
	addr, dsn, driver, logLevel string
}

func init() {
	cfg.LoadDefaults()

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().StringVar(&flagValues.addr, "addr", "", "listen address (overrides ADDR)")
	rootCmd.PersistentFlags().StringVar(&flagValues.dsn, "dsn", "", "database DSN (overrides DATABASE_DSN)")
	rootCmd.PersistentFlags().StringVar(&flagValues.driver, "db-driver", "", "sqlite or postgres (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&flagValues.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(migrateCmd)
}

func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = flagValues.addr
	}
	if flags.Changed("dsn") {
		cfg.DatabaseDSN = flagValues.dsn
	}
	if flags.Changed("db-driver") {
		cfg.DBDriver = flagValues.driver
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagValues.logLevel
	}
}

// newServer wires the services on top of db.
func newServer(cfg *Config, db *gorm.DB, images ImageStore, logger *zap.Logger) *Server {
	v := newValidator()
	tokens := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	adminStore := newAdminStore(db)

	s := &Server{
		logger:         logger,
		guard:          NewSchemaGuard(db, adminStore, cfg.SchemaCacheTTL),
		tokens:         tokens,
		admins:         NewAdminService(adminStore, tokens, v),
		skills:         NewService[Skill](newGormStore[Skill](db), skillSchema, v),
		education:      NewService[EducationEntry](newGormStore[EducationEntry](db), educationSchema, v),
		projects:       NewProjectService(newGormStore[ProjectEntry](db), images, v),
		contacts:       NewService[ContactMessage](newGormStore[ContactMessage](db), contactSchema, v),
		maxUploadBytes: cfg.MaxUploadBytes,
	}
	if cfg.UploadBackend == "disk" {
		s.uploadDir = cfg.UploadDir
	}
	return s
}

func serve(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	s := newServer(cfg, db, images, logger)
	if err := s.guard.EnsureSchema(ctx); err != nil {
		return err
	}
	if n, err := s.admins.Count(ctx); err == nil && n == 0 {
		logger.Warn("no admin account yet, registration is open")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(cfg.FrontendURLs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("portfolio backend listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
