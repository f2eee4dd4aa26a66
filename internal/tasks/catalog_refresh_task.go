package tasks

import (
	"context"
	"fmt"
)

// newCatalogRefreshTask reloads the bot's product and FAQ cache.
func newCatalogRefreshTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "catalog_refresh")

	return func(ctx context.Context) error {
		if err := deps.Catalog.Refresh(ctx); err != nil {
			return fmt.Errorf("catalog refresh failed: %w", err)
		}
		log.DebugContext(ctx, "Catalog cache refreshed")
		return nil
	}
}
