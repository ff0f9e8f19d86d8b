// Package factory selects and initializes a storage provider from
// configuration.
package factory

import (
	"context"
	"fmt"

	"droneops/showlog/internal/config"
	"droneops/showlog/internal/metrics"
	"droneops/showlog/internal/store"
	"droneops/showlog/internal/store/pgstore"
	"droneops/showlog/internal/store/sqlitestore"
)

// New builds the provider named by cfg.StorageProvider and runs its Init.
func New(ctx context.Context, cfg config.Config, dispatcher store.ShowArchivedDispatcher, clock store.Clock, m *metrics.Registry) (store.Provider, error) {
	var provider store.Provider
	switch cfg.StorageProvider {
	case "sqlite", "":
		provider = sqlitestore.New(cfg.SQL, dispatcher, clock, m)
	case "postgres":
		provider = pgstore.New(cfg.Postgres, dispatcher, clock, m)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
	if err := provider.Init(ctx); err != nil {
		return nil, err
	}
	return provider, nil
}
