// Command awgo runs the event tracker daemon: serve starts the HTTP API
// over the local store, sync replicates against peers sharing a
// directory, and buckets inspects what's recorded so far.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awgo/awserver/internal/apiserver"
	"github.com/awgo/awserver/internal/config"
	"github.com/awgo/awserver/internal/device"
	"github.com/awgo/awserver/internal/store"
	awsync "github.com/awgo/awserver/internal/sync"
	"github.com/awgo/awserver/internal/worker"
	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagTesting  bool
	flagSyncDir  string
	flagLogLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "awgo",
		Short:         "A local-first activity tracker daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding the event database (default: OS data dir)")
	rootCmd.PersistentFlags().BoolVar(&flagTesting, "testing", false, "run against an isolated testing database")
	rootCmd.PersistentFlags().StringVar(&flagSyncDir, "sync-dir", "", "directory peers publish their snapshots under (or AW_SYNC_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "trace/debug/info/warn/error (or LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(bucketsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openWorker resolves configuration, opens the store, and hands back a
// worker along with a closer that shuts both down in order.
func openWorker(ctx context.Context) (worker.Worker, *config.Config, func(), error) {
	cfg, err := config.Load(flagDataDir, flagTesting, flagSyncDir, flagLogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	s, err := store.Open(ctx, cfg.DBPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	w := worker.New(ctx, s)
	closer := func() {
		_ = w.Close()
		_ = s.Close()
	}
	return w, cfg, closer, nil
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, cfg, closeWorker, err := openWorker(ctx)
			if err != nil {
				return err
			}
			defer closeWorker()

			hostname, err := os.Hostname()
			if err != nil {
				return fmt.Errorf("determine hostname: %w", err)
			}
			deviceID, err := device.Load(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("resolve device id: %w", err)
			}

			mux := http.NewServeMux()
			registerHandlers(mux, w, apiserver.ServerInfo{
				Hostname: hostname,
				Version:  version,
				Testing:  cfg.Testing,
				DeviceID: deviceID,
			})

			srv := &http.Server{Addr: addr, Handler: mux}
			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			fmt.Printf("awgo: listening on %s (data dir %s)\n", addr, cfg.DataDir)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5600", "listen address")
	return cmd
}

// version is overridden via -ldflags at release build time.
var version = "dev"

// registerHandlers wires every apiserver handler into mux under the
// /api/0/ prefix the original server used.
func registerHandlers(mux *http.ServeMux, w worker.Worker, info apiserver.ServerInfo) {
	infoH := &apiserver.InfoHandler{Info: info}
	buckets := &apiserver.BucketsHandler{Worker: w}
	events := &apiserver.EventsHandler{Worker: w}
	heartbeat := &apiserver.HeartbeatHandler{Worker: w}
	export := &apiserver.ExportHandler{Worker: w}
	importH := &apiserver.ImportHandler{Worker: w}
	query := &apiserver.QueryHandler{Worker: w}
	settings := &apiserver.SettingsHandler{Worker: w}

	mux.HandleFunc("GET /api/0/info", infoH.Handle)

	mux.HandleFunc("GET /api/0/buckets", buckets.List)
	mux.HandleFunc("GET /api/0/buckets/{id}", buckets.Get)
	mux.HandleFunc("POST /api/0/buckets/{id}", buckets.Create)
	mux.HandleFunc("DELETE /api/0/buckets/{id}", buckets.Delete)

	mux.HandleFunc("GET /api/0/buckets/{id}/events", events.List)
	mux.HandleFunc("POST /api/0/buckets/{id}/events", events.Create)
	mux.HandleFunc("GET /api/0/buckets/{id}/events/count", events.Count)
	mux.HandleFunc("DELETE /api/0/buckets/{id}/events/{event_id}", events.Delete)

	mux.HandleFunc("POST /api/0/buckets/{id}/heartbeat", heartbeat.Handle)

	mux.HandleFunc("GET /api/0/export", export.All)
	mux.HandleFunc("GET /api/0/buckets/{id}/export", export.One)
	mux.HandleFunc("POST /api/0/import", importH.Handle)

	mux.HandleFunc("POST /api/0/query", query.Handle)

	mux.HandleFunc("GET /api/0/settings", settings.List)
	mux.HandleFunc("GET /api/0/settings/{key}", settings.Get)
	mux.HandleFunc("POST /api/0/settings/{key}", settings.Set)
	mux.HandleFunc("DELETE /api/0/settings/{key}", settings.Delete)
}

func syncCmd() *cobra.Command {
	var daemon bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replicate events against peers sharing the sync directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, cfg, closeWorker, err := openWorker(ctx)
			if err != nil {
				return err
			}
			defer closeWorker()

			hostname, err := os.Hostname()
			if err != nil {
				return fmt.Errorf("determine hostname: %w", err)
			}
			deviceID, err := device.Load(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("resolve device id: %w", err)
			}

			if !daemon {
				if err := awsync.RunOnce(ctx, w, cfg.SyncDir, hostname, deviceID); err != nil {
					return fmt.Errorf("sync: %w", err)
				}
				fmt.Println("awgo: sync cycle complete")
				return nil
			}

			loop := awsync.NewLoop(w, cfg.SyncDir, hostname, deviceID, interval)
			if err := loop.Start(ctx); err != nil {
				return err
			}
			fmt.Printf("awgo: sync daemon running against %s every %s\n", cfg.SyncDir, interval)
			<-ctx.Done()
			loop.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "run continuously instead of a single cycle")
	cmd.Flags().DurationVar(&interval, "interval", awsync.DefaultInterval, "cadence between sync cycles in daemon mode")
	return cmd
}

func bucketsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "buckets", Short: "Inspect recorded buckets"}
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List every bucket in the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, _, closeWorker, err := openWorker(ctx)
			if err != nil {
				return err
			}
			defer closeWorker()

			buckets := w.GetBuckets(ctx)
			if len(buckets) == 0 {
				fmt.Println("(no buckets)")
				return nil
			}
			for id, b := range buckets {
				fmt.Printf("%s\t%s\t%s\n", id, b.Type, b.Client)
			}
			return nil
		},
	})
	return cmd
}
