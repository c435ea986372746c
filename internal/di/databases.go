package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/config"
	"github.com/aristath/fofliquidity/internal/database"
)

// InitializeDatabases opens the funds database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	fundsDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "funds",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize funds database: %w", err)
	}

	if err := fundsDB.Migrate(); err != nil {
		fundsDB.Close()
		return nil, fmt.Errorf("failed to migrate funds database: %w", err)
	}
	container.FundsDB = fundsDB

	log.Info().Str("path", fundsDB.Path()).Msg("Funds database initialized")

	return container, nil
}
