package commands

import (
	relay "github.com/goliatone/go-relay"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rt *Runtime) *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runtime := relay.Config{}
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
			rt.Logger.Info("migrations applied", "dsn", cfg.Storage.DSN)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Storage DSN (overrides config)")

	return cmd
}
