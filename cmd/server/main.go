// Command server runs the table server: it binds a TCP listener, wires
// the table registry, connection registry, and persistence store
// together, and serves connections until told to stop. Wiring is
// adapted from the teacher's main.go (service construction, mode
// logging) from an HTTP/websocket listener to the raw TCP protocol
// spec.md §4.4 describes, using spf13/cobra for the command surface
// and spf13/viper for config binding per spec.md §4.9.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"riverhall/internal/dispatch"
	"riverhall/internal/handlers"
	"riverhall/internal/logging"
	"riverhall/internal/registry"
	"riverhall/internal/session"
	"riverhall/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetDefault("LISTEN_ADDR", "0.0.0.0")
	v.SetDefault("LISTEN_PORT", 7890)
	v.SetDefault("STORE_MODE", "postgres")

	root := &cobra.Command{
		Use:   "server",
		Short: "riverhall table server",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "accept connections and run the poker table server",
		RunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cmd, v)
			return runServe(v)
		},
	}
	serve.Flags().String("listen-addr", v.GetString("LISTEN_ADDR"), "address to bind")
	serve.Flags().Int("listen-port", v.GetInt("LISTEN_PORT"), "port to bind")
	serve.Flags().String("db-conninfo", "", "database connection string")
	serve.Flags().String("log-path", "", "path to write logs to; stderr if empty")
	serve.Flags().String("store-mode", v.GetString("STORE_MODE"), "postgres or sqlite")
	serve.Flags().Bool("debug", false, "enable debug logging")

	root.AddCommand(serve)
	return root
}

// bindFlags binds serve's flags into v, letting an explicit flag
// override an environment variable, matching the "env takes
// precedence, flags override env" rule from spec.md §4.9.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	_ = v.BindPFlag("LISTEN_ADDR", cmd.Flags().Lookup("listen-addr"))
	_ = v.BindPFlag("LISTEN_PORT", cmd.Flags().Lookup("listen-port"))
	_ = v.BindPFlag("DB_CONNINFO", cmd.Flags().Lookup("db-conninfo"))
	_ = v.BindPFlag("LOG_PATH", cmd.Flags().Lookup("log-path"))
	_ = v.BindPFlag("STORE_MODE", cmd.Flags().Lookup("store-mode"))
	_ = v.BindPFlag("DEBUG", cmd.Flags().Lookup("debug"))
}

func runServe(v *viper.Viper) error {
	log, err := logging.New(v.GetString("LOG_PATH"), v.GetBool("DEBUG"))
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	var st store.Store
	switch v.GetString("STORE_MODE") {
	case "sqlite":
		sq, err := store.NewSQLiteStore(v.GetString("DB_CONNINFO"))
		if err != nil {
			return fmt.Errorf("init sqlite store: %w", err)
		}
		st = store.NewCachingStore(sq)
	default:
		pg, err := store.NewPostgresStore(v.GetString("DB_CONNINFO"))
		if err != nil {
			return fmt.Errorf("init postgres store: %w", err)
		}
		st = store.NewCachingStore(pg)
	}
	defer st.Close()

	conns := session.NewRegistry()
	tables := registry.New(st, quartz.NewReal())
	deps := &handlers.Server{Tables: tables, Conns: conns, Store: st, Log: log}

	addr := fmt.Sprintf("%s:%d", v.GetString("LISTEN_ADDR"), v.GetInt("LISTEN_PORT"))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	disp := dispatch.New(ln, deps, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("table server listening")
		return disp.Serve(gctx)
	})
	g.Go(func() error {
		return serveHealthz(gctx, v.GetInt("LISTEN_PORT")+1)
	})

	return g.Wait()
}

// serveHealthz runs a tiny HTTP health endpoint alongside the TCP
// listener (spec.md §4.9: "Startup runs the TCP listener and a
// /healthz HTTP endpoint concurrently under golang.org/x/sync/errgroup").
func serveHealthz(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
