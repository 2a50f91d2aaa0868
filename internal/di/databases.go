package di

import (
	"fmt"

	"github.com/aristath/returns/internal/config"
	"github.com/aristath/returns/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the input database read-only and the output database for writing
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. Input - observations, never modified
	inputDB, err := database.New(database.Config{
		Path:    cfg.InputDB,
		Driver:  cfg.DBDriver,
		Profile: database.ProfileSource,
		Name:    "input",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize input database: %w", err)
	}
	container.InputDB = inputDB

	// 2. Output - result tables, uploaded after each run
	outputDB, err := database.New(database.Config{
		Path:    cfg.OutputDB,
		Driver:  cfg.DBDriver,
		Profile: database.ProfileOutput,
		Name:    "output",
	})
	if err != nil {
		inputDB.Close()
		return nil, fmt.Errorf("failed to initialize output database: %w", err)
	}
	container.OutputDB = outputDB

	log.Info().
		Str("driver", cfg.DBDriver).
		Str("input", inputDB.Path()).
		Str("output", outputDB.Path()).
		Msg("Databases initialized")

	return container, nil
}
