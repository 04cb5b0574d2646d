package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	relay "github.com/goliatone/go-relay"
	promrecorder "github.com/goliatone/go-relay/adapters/prometheus"
	"github.com/goliatone/go-relay/core"
	sqlstore "github.com/goliatone/go-relay/store/sql"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	apiKeyCacheTTL  = time.Minute
)

func NewServeCommand(rt *Runtime) *cobra.Command {
	var (
		host          string
		port          int
		dsn           string
		sweepInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		Long: `Start the relay gateway: apply pending migrations, load providers,
credentials and API keys from storage, and serve the proxy and admin
endpoints until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runtime := relay.Config{}
			runtime.Server.Host = host
			runtime.Server.Port = port
			runtime.Storage.DSN = dsn

			cfg, err := resolveConfig(ctx, rt, runtime)
			if err != nil {
				return err
			}

			client, err := openPersistence(ctx, cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(ctx); err != nil {
				return err
			}

			recorder := promrecorder.NewRecorder()

			cacheConfig := repositorycache.DefaultConfig()
			cacheConfig.TTL = apiKeyCacheTTL
			cacheService, err := repositorycache.NewCacheService(cacheConfig)
			if err != nil {
				return err
			}

			service, err := relay.Setup(ctx, runtime,
				relay.WithLogger(rt.Logger),
				relay.WithMetricsRecorder(recorder),
				relay.WithConfigProvider(core.NewCfgxConfigProvider(fileConfigLoader{path: rt.ConfigPath})),
				relay.WithPersistenceClient(client),
				relay.WithRepositoryFactory(sqlstore.NewRepositoryFactory().WithAPIKeyCache(cacheService)),
			)
			if err != nil {
				return err
			}
			defer service.Close()

			server, err := service.Server(map[string]http.Handler{
				"/metrics": recorder.Handler(),
			})
			if err != nil {
				return err
			}

			sweepDone := service.StartSweeper(ctx, sweepInterval)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			<-sweepDone
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides config)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Storage DSN (overrides config)")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", time.Minute, "Disallow sweep interval")

	return cmd
}
