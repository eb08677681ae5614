package controllers

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/monorelease/internal/domain/commands"
	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/metrics"
)

// ReleaseController handles the "run" subcommand.
type ReleaseController struct {
	command  commands.Release
	recorder *metrics.PrometheusRecorder
}

var _ entities.Controller = (*ReleaseController)(nil)

// NewReleaseController creates a new ReleaseController.
func NewReleaseController(command commands.Release, recorder *metrics.PrometheusRecorder) *ReleaseController {
	return &ReleaseController{command: command, recorder: recorder}
}

// GetBind returns the Cobra command metadata for the release controller.
func (it *ReleaseController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run",
		Short: "Release the changed packages of a monorepo",
		Long: `Analyze every workspace package, compute its next version from the
commits since its last release tag and from bumped workspace dependencies,
then build and publish the changed packages in dependency order.

Packages without changes are skipped. With --dry-run packages are built
but nothing is published. A live JSON report is written with --report.`,
	}
}

// AddFlags adds the run-specific flags to the given Cobra command.
func (it *ReleaseController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("cwd", ".", "Root of the monorepo")
	cmd.Flags().Bool("dry-run", false, "Build packages without publishing them")
	cmd.Flags().Int("concurrency", 0, "Maximum number of commands running at once (default: number of CPUs)")
	cmd.Flags().Bool("debug", false, "Enable debug output")
	cmd.Flags().String("report", "", "Write the live run report to this JSON file")
	cmd.Flags().String("env-file", "", "Load extra environment variables from this dotenv file")
	cmd.Flags().String("metrics", "", "Write Prometheus metrics to this textfile when the run ends")
	cmd.Flags().StringP("config", "c", "", "Path to the release settings file (default: auto-detect)")
}

// Execute runs a release.
func (it *ReleaseController) Execute(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cwd, _ := cmd.Flags().GetString("cwd")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	debug, _ := cmd.Flags().GetBool("debug")
	report, _ := cmd.Flags().GetString("report")
	envFile, _ := cmd.Flags().GetString("env-file")
	metricsPath, _ := cmd.Flags().GetString("metrics")
	configPath, _ := cmd.Flags().GetString("config")

	env := map[string]string{}
	if envFile != "" {
		loaded, err := godotenv.Read(envFile)
		if err != nil {
			return fmt.Errorf("failed to load env file %q: %w", envFile, err)
		}
		env = loaded
		logger.Infof("Loaded %d variable(s) from %s", len(env), envFile)
	}

	state, err := it.command.Execute(ctx, commands.ReleaseOptions{
		Cwd:         cwd,
		Env:         env,
		DryRun:      dryRun,
		Concurrency: concurrency,
		Debug:       debug,
		Report:      report,
		ConfigPath:  configPath,
	})

	if metricsPath != "" {
		if writeErr := it.recorder.WriteTextfile(metricsPath); writeErr != nil {
			logger.Warnf("Failed to write metrics: %v", writeErr)
		}
	}

	if err != nil {
		return fmt.Errorf("release failed: %w", err)
	}
	logger.Infof("Run %s finished with status %s", state.ID(), state.Status(""))
	return nil
}
