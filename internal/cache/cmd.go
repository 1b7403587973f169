package cache

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// ClearCmd represents the cache clear subcommand
type ClearCmd struct{}

func (c *ClearCmd) Run() error {
	cacheDB := viper.GetString("cache.dbfile")
	if cacheDB == "" {
		return fmt.Errorf("no cache database configured")
	}

	slog.Info("Clearing achievement cache", "database", cacheDB)

	rowsDeleted, err := Clear(cacheDB)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	slog.Info("Cache cleared", "rows_deleted", rowsDeleted)
	return nil
}
