package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/troveworks/trove-crm/platform/go/persistence"
	"github.com/troveworks/trove-crm/platform/go/validation"
)

// builtinSet describes one seeded vocabulary and its starter options.
type builtinSet struct {
	name       string
	entityType persistence.EntityType
	options    []builtinOption
}

type builtinOption struct {
	key   string
	label string
}

var builtinSets = []builtinSet{
	{
		name:       validation.CatalogTypeOptionSet,
		entityType: persistence.EntityTypeCatalogItem,
		options: []builtinOption{
			{key: "product", label: "Product"},
			{key: "service", label: "Service"},
			{key: "subscription", label: "Subscription"},
		},
	},
	{
		name:       validation.QuoteStatusOptionSet,
		entityType: persistence.EntityTypeQuote,
		options: []builtinOption{
			{key: "draft", label: "Draft"},
			{key: "sent", label: "Sent"},
			{key: "accepted", label: "Accepted"},
			{key: "rejected", label: "Rejected"},
		},
	},
}

// Command groups seeding helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed built-in vocabularies for a tenant",
	}

	cmd.AddCommand(optionSetsCommand())
	return cmd
}

func optionSetsCommand() *cobra.Command {
	var (
		databaseURL string
		tenantID    string
	)

	c := &cobra.Command{
		Use:   "option-sets",
		Short: "Install the catalog type and quote status option sets",
		Long:  "Install the built-in catalog_item_type and quote_status option sets with their starter options. Existing sets and options are left untouched, so reruns are safe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tid, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid tenant id: %w", err)
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewOptionSetStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init option set store: %w", err)
			}

			for _, set := range builtinSets {
				if err := seedSet(ctx, store, tid, set); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded option set %q (%d options).\n", set.name, len(set.options))
			}

			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&tenantID, "tenant-id", "", "Tenant UUID to seed")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("tenant-id")

	return c
}

func seedSet(ctx context.Context, store *persistence.OptionSetStore, tenantID uuid.UUID, set builtinSet) error {
	entityType := set.entityType
	created, err := store.CreateOptionSet(ctx, persistence.CreateOptionSetParams{
		OptionSetID: uuid.New(),
		TenantID:    tenantID,
		Name:        set.name,
		EntityType:  &entityType,
	})
	if err != nil && !errors.Is(err, persistence.ErrOptionSetConflict) {
		return fmt.Errorf("create option set %q: %w", set.name, err)
	}

	optionSetID := created.ID
	if errors.Is(err, persistence.ErrOptionSetConflict) {
		existing, getErr := store.GetOptionSet(ctx, tenantID, set.name)
		if getErr != nil {
			return fmt.Errorf("load option set %q: %w", set.name, getErr)
		}
		optionSetID = existing.ID
	}

	for _, option := range set.options {
		_, err := store.AddOption(ctx, tenantID, optionSetID, persistence.AddOptionParams{
			OptionID:  uuid.New(),
			OptionKey: option.key,
			Label:     option.label,
		})
		if err != nil && !errors.Is(err, persistence.ErrOptionConflict) {
			return fmt.Errorf("add option %q to %q: %w", option.key, set.name, err)
		}
	}

	return nil
}
