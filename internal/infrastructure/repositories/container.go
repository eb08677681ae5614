package repositories

import (
	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/monorelease/internal/domain/repositories"
	changeRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/changes"
	changelogRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/changelog"
	cmdRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/command"
	gitRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/git"
	metaRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/meta"
	npmRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/npm"
	stateRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/state"
	wsRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/workspace"
	"github.com/rios0rios0/monorelease/internal/metrics"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	providers := []any{
		func() domainRepos.GraphRepository { return wsRepo.NewWorkspaceGraphRepository() },
		func() domainRepos.GitRepository { return gitRepo.NewGitRepository() },
		func(git domainRepos.GitRepository) domainRepos.ChangeRepository {
			return changeRepo.NewConventionalChangeRepository(git)
		},
		func(git domainRepos.GitRepository) domainRepos.MetaRepository {
			return metaRepo.NewMetaRepository(git)
		},
		func() domainRepos.RegistryRepository { return npmRepo.NewRegistryRepository() },
		func() domainRepos.CommandRepository { return cmdRepo.NewShellCommandRepository() },
		func() domainRepos.StateRepository { return stateRepo.NewFileStateRepository() },
		gitRepo.NewBranchPusher,
		func() *metrics.PrometheusRecorder { return metrics.NewPrometheusRecorder(nil) },
		func(recorder *metrics.PrometheusRecorder) metrics.Recorder { return recorder },
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return err
		}
	}

	// Register publishers in release order
	if err := container.Provide(func(
		git domainRepos.GitRepository,
		pusher *gitRepo.BranchPusher,
	) *PublisherRegistry {
		reg := NewPublisherRegistry()
		reg.Register(gitRepo.NewTagPublisher(git))
		reg.Register(metaRepo.NewMetaPublisher(git, pusher))
		reg.Register(changelogRepo.NewChangelogPublisher(git, pusher))
		reg.Register(npmRepo.NewNpmPublisher())
		reg.Register(cmdRepo.NewCommandPublisher())
		return reg
	}); err != nil {
		return err
	}

	return nil
}
