package tenantcmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/troveworks/trove-crm/platform/go/persistence"
)

// Command groups tenant-related helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant utilities (create)",
	}

	cmd.AddCommand(createCommand())
	return cmd
}

func createCommand() *cobra.Command {
	var (
		databaseURL string
		tenantSlug  string
		tenantName  string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Register a tenant in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			tenantStore, err := persistence.NewTenantStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init tenant store: %w", err)
			}

			record, err := tenantStore.CreateTenant(ctx, uuid.New(), tenantSlug, tenantName)
			if err != nil {
				if errors.Is(err, persistence.ErrTenantConflict) {
					return fmt.Errorf("tenant slug %q already registered", tenantSlug)
				}
				return fmt.Errorf("create tenant: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant created: %s (%s)\n", record.Slug, record.TenantID)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&tenantSlug, "slug", "", "Tenant slug (unique, lowercased)")
	c.Flags().StringVar(&tenantName, "name", "", "Tenant display name")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("slug")
	_ = c.MarkFlagRequired("name")

	return c
}
