package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saudemart/saudemart/internal/config"
	"github.com/saudemart/saudemart/internal/domain/atendimento"
	"github.com/saudemart/saudemart/internal/domain/loadaudit"
	"github.com/saudemart/saudemart/internal/domain/report"
	"github.com/saudemart/saudemart/internal/platform/auth"
	"github.com/saudemart/saudemart/internal/platform/db"
	"github.com/saudemart/saudemart/internal/platform/etl"
	"github.com/saudemart/saudemart/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "saudemart-server",
		Short: "Healthcare billing data mart API and loader",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(kpiCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// connect loads config and opens the pool. Every subcommand starts here.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the data mart API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load CSV/TXT drops from the sample data directories and merge them",
		RunE: func(cmd *cobra.Command, args []string) error {
			note, _ := cmd.Flags().GetString("note")
			logger := newLogger()

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			loader := etl.NewLoader(cfg.SampleDataDirs, logger)
			rows, stats, err := loader.Load()
			if err != nil {
				return fmt.Errorf("stage files: %w", err)
			}
			if stats.Files == 0 {
				fmt.Println("No files found in the data directories. Nothing to ingest.")
				return nil
			}

			svc := atendimento.NewService(
				atendimento.NewRepoPG(pool),
				loadaudit.NewRepoPG(pool),
				logger,
			)
			observacao := fmt.Sprintf("%s (files=%d, lidas=%d, descartadas=%d)",
				note, stats.Files, stats.LinhasLidas, stats.Descartadas)
			result, err := svc.Ingest(ctx, rows, observacao)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Printf("Files read:       %d\n", stats.Files)
			fmt.Printf("Rows read:        %d (discarded %d)\n", stats.LinhasLidas, stats.Descartadas)
			fmt.Printf("Rows persisted:   %d\n", result.LinhasPersistidas)
			fmt.Printf("P90 revenue:      %s\n", result.P90Receita.StringFixed(2))
			fmt.Printf("Audit logged:     %t\n", result.AuditLogged)
			return nil
		},
	}
	cmd.Flags().String("note", "cli ingest", "Note recorded on the audit entry")
	return cmd
}

func kpiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Print the KPI summary for an optional date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")

			var r report.DateRange
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				r.From = &t
			}
			if end != "" {
				t, err := time.Parse("2006-01-02", end)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				r.To = &t
			}

			ctx := context.Background()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			summary, err := report.NewService(report.NewRepoPG(pool)).KPI(ctx, r)
			if err != nil {
				return err
			}

			fmt.Printf("Rows:           %d\n", summary.Linhas)
			fmt.Printf("Total revenue:  %s\n", summary.ReceitaTotal.StringFixed(2))
			if summary.MinData != nil && summary.MaxData != nil {
				fmt.Printf("Date span:      %s .. %s\n",
					summary.MinData.Format("2006-01-02"), summary.MaxData.Format("2006-01-02"))
			}
			fmt.Println("Top payers:")
			for _, rk := range summary.TopOperadoras {
				fmt.Printf("  %-30s %s\n", rk.Nome, rk.Receita.StringFixed(2))
			}
			fmt.Println("Top procedures:")
			for _, rk := range summary.TopProcedimentos {
				fmt.Printf("  %-30s %s\n", rk.Nome, rk.Receita.StringFixed(2))
			}
			return nil
		},
	}
	cmd.Flags().String("start", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Window end (YYYY-MM-DD)")
	return cmd
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	apiV1 := e.Group("/api/v1")

	auditRepo := loadaudit.NewRepoPG(pool)
	atendimentoSvc := atendimento.NewService(atendimento.NewRepoPG(pool), auditRepo, logger)
	atendimento.NewHandler(atendimentoSvc).RegisterRoutes(apiV1)
	loadaudit.NewHandler(auditRepo).RegisterRoutes(apiV1)
	report.NewHandler(report.NewService(report.NewRepoPG(pool))).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
