package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/collette-backend/internal/inventory"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

type inventorySyncJob struct {
	logg *logger.Logger
	sync inventory.Synchronizer
}

// NewInventorySyncJob reconciles the catalog into the inventory projection on
// every cycle, raising low-stock signals as a side effect.
func NewInventorySyncJob(logg *logger.Logger, sync inventory.Synchronizer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sync == nil {
		return nil, fmt.Errorf("inventory synchronizer required")
	}
	return &inventorySyncJob{logg: logg, sync: sync}, nil
}

func (j *inventorySyncJob) Name() string { return "inventory-sync" }

func (j *inventorySyncJob) Run(ctx context.Context) error {
	result, err := j.sync.SyncCatalogToInventory(ctx)
	if result != nil {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"created": result.Created,
			"updated": result.Updated,
		}), "inventory sync finished")
	}
	if err != nil {
		return fmt.Errorf("inventory sync: %w", err)
	}
	return nil
}
