package repositories

import "github.com/rios0rios0/monorelease/internal/domain/entities"

// StateRepository opens the destination of the run report.
type StateRepository interface {
	Open(path string) (entities.StatePersister, error)
}
