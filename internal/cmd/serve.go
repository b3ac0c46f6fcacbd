package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/server"
	"github.com/Sirily23/udicti-cli/internal/store"
	"github.com/Sirily23/udicti-cli/internal/style"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: GroupServer,
	Short:   "Run the UDICTI directory backend",
	Long: `Run the backend the CLI talks to: the developer directory API and the
usage event log.

Endpoints:
  GET  /health           Service and database status
  POST /api/log          Record a usage event (rate limited per IP)
  GET  /api/developers   List developers
  POST /api/developers   Add or update a developer (keyed by email)

The database is SQLite by default. Pass a postgres:// URL (or set
DATABASE_URL) to use PostgreSQL.

Examples:
  udicti serve
  udicti serve --addr :9000 --db ./udicti.db
  DATABASE_URL=postgres://localhost/udicti udicti serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr      string
	serveDB        string
	serveRateLimit int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :$PORT or :8080)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite path or postgres:// URL (default $DATABASE_URL or udicti.db in the config dir)")
	serveCmd.Flags().IntVar(&serveRateLimit, "log-rate-limit", 60, "Max /api/log requests per IP per minute (0 disables)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		addr = ":" + port
	}

	dsn := serveDB
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		dsn = filepath.Join(sess.configDir, "udicti.db")
	}

	st, err := store.Open(dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	cfg := server.DefaultConfig()
	cfg.LogRateLimit = serveRateLimit
	cfg.Logger = sess.logger
	srv := server.New(st, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "%s Serving UDICTI directory on %s (%s)\n", style.SuccessPrefix, addr, st.Driver())

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), style.Dim.Render("Server stopped."))
	return nil
}
