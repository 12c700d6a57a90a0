package migrate

import (
	"context"
	"fmt"

	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot when running in dev
// with the auto-migrate flag on. SQLite schemas come from the models and are
// left alone.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate || cfg.DB.IsSQLite() {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	source, err := Source("")
	if err != nil {
		return err
	}
	runner, err := NewRunner(sqlDB, source)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	results, err := runner.Up(ctx)
	for _, res := range results {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"migration":   res.Source.Path,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migration.applied")
	}
	if err != nil {
		return fmt.Errorf("dev auto-migrate: %w", err)
	}
	logg.Info(logg.WithField(ctx, "applied", len(results)), "migration.up_to_date")
	return nil
}
