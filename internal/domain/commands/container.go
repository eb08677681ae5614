package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register command constructors
	if err := container.Provide(NewReleaseCommand); err != nil {
		return err
	}
	if err := container.Provide(NewTagsCommand); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *ReleaseCommand) Release {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *TagsCommand) Tags {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
