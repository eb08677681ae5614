package repositories

import (
	domainRepos "github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// PublisherRegistry keeps the release publishers in the order they run.
type PublisherRegistry struct {
	publishers []domainRepos.PublisherRepository
	byName     map[string]domainRepos.PublisherRepository
}

// NewPublisherRegistry creates an empty publisher registry.
func NewPublisherRegistry() *PublisherRegistry {
	return &PublisherRegistry{
		byName: make(map[string]domainRepos.PublisherRepository),
	}
}

// Register appends a publisher. Registering a name again replaces it in place.
func (r *PublisherRegistry) Register(p domainRepos.PublisherRepository) {
	if _, ok := r.byName[p.Name()]; ok {
		for i, existing := range r.publishers {
			if existing.Name() == p.Name() {
				r.publishers[i] = p
			}
		}
	} else {
		r.publishers = append(r.publishers, p)
	}
	r.byName[p.Name()] = p
}

// All returns every registered publisher in registration order.
func (r *PublisherRegistry) All() []domainRepos.PublisherRepository {
	return append([]domainRepos.PublisherRepository(nil), r.publishers...)
}

// Names returns the registered publisher names in registration order.
func (r *PublisherRegistry) Names() []string {
	names := make([]string, 0, len(r.publishers))
	for _, p := range r.publishers {
		names = append(names, p.Name())
	}
	return names
}
