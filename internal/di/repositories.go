package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/modules/funds"
)

// InitializeRepositories creates the repositories over the opened databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.FundsDB == nil {
		return fmt.Errorf("funds database not initialized")
	}

	container.FundRepo = funds.NewRepository(container.FundsDB.Conn(), log)

	log.Debug().Msg("Repositories initialized")

	return nil
}
