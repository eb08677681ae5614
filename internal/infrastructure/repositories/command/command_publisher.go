package command

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const publisherName = "cmd"

// CommandPublisher runs the package's publishCmd setting.
type CommandPublisher struct{}

var _ repositories.PublisherRepository = (*CommandPublisher)(nil)

// NewCommandPublisher creates a new CommandPublisher.
func NewCommandPublisher() *CommandPublisher {
	return &CommandPublisher{}
}

func (it *CommandPublisher) Name() string { return publisherName }

// Publish renders and runs publishCmd; nothing happens when it is empty.
func (it *CommandPublisher) Publish(
	ctx context.Context,
	runner repositories.CommandRepository,
	events entities.EventLog,
	pkg *entities.Package,
	env map[string]string,
) error {
	if pkg.Settings.PublishCmd == "" {
		return nil
	}
	cmd, err := entities.RenderCommand(pkg.Settings.PublishCmd, pkg)
	if err != nil {
		return fmt.Errorf("invalid publishCmd: %w", err)
	}

	events.Log(pkg.Name, logger.InfoLevel, "run publishCmd '%s'", cmd)
	output, err := runner.Run(ctx, pkg.AbsPath, cmd, env)
	if output != "" {
		events.Log(pkg.Name, logger.DebugLevel, "%s", output)
	}
	return err
}
