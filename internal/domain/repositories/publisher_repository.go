package repositories

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// PublisherRepository is one release output: a tag, an artifact, a package upload.
type PublisherRepository interface {
	// Name returns the publisher identifier (e.g. "tag", "npm").
	Name() string

	// Publish releases pkg. Shell steps must go through runner so that they are
	// bounded by the run's command pool, and progress is logged through events.
	Publish(
		ctx context.Context,
		runner CommandRepository,
		events entities.EventLog,
		pkg *entities.Package,
		env map[string]string,
	) error
}
