package di

import (
	"errors"

	"github.com/aristath/returns/internal/store"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the source and sink repositories
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container.InputDB == nil || container.OutputDB == nil {
		return errors.New("databases must be initialized before repositories")
	}

	container.SourceRepo = store.NewSourceRepository(container.InputDB.Conn(), log)
	container.SinkRepo = store.NewSinkRepository(container.OutputDB.Conn(), log)

	return nil
}
