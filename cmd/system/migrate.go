package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/clinic_ledger/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				migrations, err := database.Migrations()
				if err != nil {
					return err
				}
				for _, m := range migrations {
					fmt.Println(m.Version)
				}
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer pool.Close()

			n, err := database.Migrate(ctx, pool)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Printf("Migrations executed successfully (%d applied).\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "Print the embedded migrations without connecting")

	return cmd
}
