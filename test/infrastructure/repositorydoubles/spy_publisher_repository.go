//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// SpyPublisherRepository records the packages it publishes.
type SpyPublisherRepository struct {
	mu sync.Mutex

	PublisherName string
	PublishErr    error
	FailFor       string // package name that fails with PublishErr; empty fails all
	Published     []string
}

var _ repositories.PublisherRepository = (*SpyPublisherRepository)(nil)

func (s *SpyPublisherRepository) Name() string { return s.PublisherName }

func (s *SpyPublisherRepository) Publish(
	_ context.Context, _ repositories.CommandRepository, events entities.EventLog, pkg *entities.Package, _ map[string]string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Published = append(s.Published, pkg.Name+"@"+pkg.Version)
	events.Log(pkg.Name, logger.InfoLevel, "%s published %s", s.PublisherName, pkg.Version)
	if s.PublishErr != nil && (s.FailFor == "" || s.FailFor == pkg.Name) {
		return s.PublishErr
	}
	return nil
}

// PublishedPackages returns a copy of the "name@version" entries published.
func (s *SpyPublisherRepository) PublishedPackages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Published...)
}
