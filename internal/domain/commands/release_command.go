package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/monorelease/internal/infrastructure/repositories"
	"github.com/rios0rios0/monorelease/internal/metrics"
)

// Release is the interface for the release command.
type Release interface {
	Execute(ctx context.Context, opts ReleaseOptions) (*entities.RunState, error)
}

// ReleaseOptions holds runtime options for a single release run.
type ReleaseOptions struct {
	Cwd         string
	Env         map[string]string // overlay on top of the process environment
	DryRun      bool
	Concurrency int // command pool size, 0 means one per logical CPU
	Debug       bool
	Report      string // report file, empty disables persistence
	ConfigPath  string // root settings file, auto-detected when empty
}

// ReleaseCommand releases every changed workspace package in two passes over the
// dependency queue: analyze, then build and publish.
type ReleaseCommand struct {
	graphs     repositories.GraphRepository
	git        repositories.GitRepository
	changes    repositories.ChangeRepository
	meta       repositories.MetaRepository
	registry   repositories.RegistryRepository
	runner     repositories.CommandRepository
	reports    repositories.StateRepository
	publishers *infraRepos.PublisherRegistry
	recorder   metrics.Recorder
}

// NewReleaseCommand creates a new ReleaseCommand.
func NewReleaseCommand(
	graphs repositories.GraphRepository,
	git repositories.GitRepository,
	changes repositories.ChangeRepository,
	meta repositories.MetaRepository,
	registry repositories.RegistryRepository,
	runner repositories.CommandRepository,
	reports repositories.StateRepository,
	publishers *infraRepos.PublisherRegistry,
	recorder metrics.Recorder,
) *ReleaseCommand {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &ReleaseCommand{
		graphs:     graphs,
		git:        git,
		changes:    changes,
		meta:       meta,
		registry:   registry,
		runner:     runner,
		reports:    reports,
		publishers: publishers,
		recorder:   recorder,
	}
}

// Execute runs a release. The returned report is never nil once the report
// destination could be opened, even when the run fails.
func (it *ReleaseCommand) Execute(ctx context.Context, opts ReleaseOptions) (*entities.RunState, error) {
	if opts.Debug {
		logger.SetLevel(logger.DebugLevel)
	}

	var persister entities.StatePersister
	if opts.Report != "" {
		opened, err := it.reports.Open(opts.Report)
		if err != nil {
			return nil, fmt.Errorf("failed to open report %q: %w", opts.Report, err)
		}
		persister = opened
	}

	state := entities.NewRunState(persister)
	run := &releaseRun{
		cmd:       it,
		opts:      opts,
		env:       mergeEnv(os.Environ(), opts.Env),
		state:     state,
		pool:      NewCommandPool(it.runner, opts.Concurrency, it.recorder),
		builds:    newMemo(),
		publishes: newMemo(),
	}
	state.Log("", logger.InfoLevel, "monorelease run %s", state.ID())

	if err := run.execute(ctx); err != nil {
		run.fail(err)
		return state, err
	}

	it.recorder.IncRunOutcome(metrics.OutcomeSuccess)
	state.Log("", logger.InfoLevel, "Release complete")
	return state, nil
}

// releaseRun is the state of one Execute call.
type releaseRun struct {
	cmd       *ReleaseCommand
	opts      ReleaseOptions
	env       map[string]string
	state     *entities.RunState
	pool      *CommandPool
	builds    *memo
	publishes *memo

	graph     *entities.Graph
	rootFiles []string
}

func (it *releaseRun) execute(ctx context.Context) error {
	cwd := it.opts.Cwd
	if cwd == "" {
		cwd = "."
	}

	graph, err := it.cmd.graphs.Load(ctx, cwd)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	it.graph = graph
	it.state.SetQueue(graph.Queue).SetPackages(graph.Packages)
	it.state.Log("", logger.InfoLevel, "queue: %s", strings.Join(graph.Queue, ", "))

	if it.rootFiles, err = it.rootSettingsFiles(graph.Root); err != nil {
		return err
	}

	if err = it.state.SetStatus(entities.StatusAnalyzing, ""); err != nil {
		return err
	}
	if err = traverse(ctx, graph.Queue, graph.Prev, it.analyze); err != nil {
		return err
	}

	if err = it.state.SetStatus(entities.StatusPending, ""); err != nil {
		return err
	}
	if err = it.state.SetStatus(entities.StatusBuilding, ""); err != nil {
		return err
	}
	if !it.opts.DryRun {
		it.state.Log("", logger.InfoLevel, "publishers: %s", strings.Join(it.cmd.publishers.Names(), ", "))
	}
	if err = traverse(ctx, graph.Queue, graph.Prev, it.release); err != nil {
		return err
	}

	return it.state.SetStatus(entities.StatusSuccess, "")
}

// --- analyze pass ---

func (it *releaseRun) analyze(ctx context.Context, name string) error {
	pkg := it.graph.Packages[name]

	start := time.Now()
	err := it.analyzePackage(ctx, pkg)
	it.cmd.recorder.ObserveStep(metrics.StepAnalyze, time.Since(start), err == nil)
	if err != nil {
		it.markFailed(name)
		return fmt.Errorf("failed to analyze %s: %w", name, err)
	}
	return nil
}

func (it *releaseRun) analyzePackage(ctx context.Context, pkg *entities.Package) error {
	if err := it.setStatus(entities.StatusAnalyzing, pkg.Name); err != nil {
		return err
	}

	settings, err := it.packageSettings(pkg)
	if err != nil {
		return err
	}
	pkg.Settings = settings

	latest, err := entities.GetLatestTag(ctx, it.cmd.git, pkg.AbsPath, pkg.Name)
	if err != nil {
		return err
	}
	pkg.Latest.Tag = latest
	pkg.Latest.Meta = it.fetchMeta(ctx, pkg)

	sha, err := it.cmd.git.Sha(ctx, pkg.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}
	root, err := it.cmd.git.Root(ctx, pkg.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to read repository root: %w", err)
	}
	pkg.Git = entities.GitContext{Sha: sha, Root: root}

	sinceRef := ""
	if latest != nil {
		sinceRef = latest.Ref
	}
	semantic, err := it.cmd.changes.Changes(ctx, pkg.AbsPath, sinceRef)
	if err != nil {
		return fmt.Errorf("failed to detect changes: %w", err)
	}
	depChanges := entities.UpdateDeps(pkg, it.graph.Packages)

	prevVersion := pkg.PrevVersion()
	pkg.Changes = append(append([]entities.Change{}, semantic...), depChanges...)
	pkg.ReleaseType = entities.ResolveReleaseType(pkg.Changes)
	pkg.Version = entities.ResolvePackageVersion(pkg, pkg.ReleaseType)

	if pkg.ReleaseType != entities.ReleaseNone {
		tag, ok := entities.FormatTag(entities.Tag{Name: pkg.Name, Version: pkg.Version})
		if !ok {
			return fmt.Errorf("no release tag can represent %s@%s", pkg.Name, pkg.Version)
		}
		pkg.Tag = tag
		pkg.Manifest.Version = pkg.Version
	}

	it.state.
		Set("config", settings.Redacted(), pkg.Name).
		Set("version", pkg.Version, pkg.Name).
		Set("prevVersion", prevVersion, pkg.Name).
		Set("releaseType", string(pkg.ReleaseType), pkg.Name).
		Set("tag", pkg.Tag, pkg.Name).
		Set("changes", pkg.Changes, pkg.Name)

	if pkg.ReleaseType == entities.ReleaseNone {
		it.state.Log(pkg.Name, logger.InfoLevel, "no changes since %s", refOrStart(latest))
		return nil
	}
	it.state.Log(pkg.Name, logger.InfoLevel, "%d change(s), %s release %s -> %s",
		len(pkg.Changes), pkg.ReleaseType, prevVersion, pkg.Version)
	return nil
}

type metaSource struct {
	name  string
	fetch func(ctx context.Context, pkg *entities.Package) (*entities.ReleaseMeta, error)
}

// fetchMeta reads the last published snapshot, trying the meta branch first and
// the registry second. Without a release tag only the registry is asked. Any
// failure means "no metadata".
func (it *releaseRun) fetchMeta(ctx context.Context, pkg *entities.Package) *entities.ReleaseMeta {
	var sources []metaSource
	if pkg.Latest.Tag != nil {
		sources = append(sources, metaSource{name: "meta branch", fetch: it.cmd.meta.Fetch})
	}
	sources = append(sources, metaSource{name: "registry", fetch: it.cmd.registry.FetchManifest})

	for _, source := range sources {
		meta, err := source.fetch(ctx, pkg)
		if err != nil {
			it.state.Log(pkg.Name, logger.WarnLevel, "failed to read release metadata from %s: %v", source.name, err)
			continue
		}
		if meta != nil {
			logger.Debugf("[%s] release metadata read from %s", pkg.Name, source.name)
			return meta
		}
	}
	return nil
}

// --- build/publish pass ---

func (it *releaseRun) release(ctx context.Context, name string) error {
	pkg := it.graph.Packages[name]

	if pkg.ReleaseType == entities.ReleaseNone {
		return it.setStatus(entities.StatusSkipped, name)
	}

	if err := it.releasePackage(ctx, pkg); err != nil {
		it.markFailed(name)
		return err
	}
	return nil
}

func (it *releaseRun) releasePackage(ctx context.Context, pkg *entities.Package) error {
	if err := it.setStatus(entities.StatusBuilding, pkg.Name); err != nil {
		return err
	}
	if err := it.build(ctx, pkg); err != nil {
		return err
	}

	if it.opts.DryRun {
		it.state.Log(pkg.Name, logger.InfoLevel, "dry run, %s is not published", pkg.Tag)
		return it.setStatus(entities.StatusSuccess, pkg.Name)
	}

	if err := it.setStatus(entities.StatusPublishing, pkg.Name); err != nil {
		return err
	}
	if err := it.publish(ctx, pkg); err != nil {
		return err
	}
	return it.setStatus(entities.StatusSuccess, pkg.Name)
}

// build runs once per package per run. Released workspace dependencies are built first.
func (it *releaseRun) build(ctx context.Context, pkg *entities.Package) error {
	return it.builds.Do(ctx, pkg.Name, func() error {
		start := time.Now()
		err := it.buildPackage(ctx, pkg)
		it.cmd.recorder.ObserveStep(metrics.StepBuild, time.Since(start), err == nil)
		return err
	})
}

func (it *releaseRun) buildPackage(ctx context.Context, pkg *entities.Package) error {
	for _, name := range it.graph.Prev[pkg.Name] {
		dep, ok := it.graph.Packages[name]
		if !ok || dep.ReleaseType == entities.ReleaseNone {
			continue
		}
		if err := it.build(ctx, dep); err != nil {
			return err
		}
	}

	if err := it.cmd.graphs.WriteManifest(pkg); err != nil {
		return fmt.Errorf("failed to write manifest of %s: %w", pkg.Name, err)
	}
	if err := it.runCmd(ctx, pkg, "buildCmd", pkg.Settings.BuildCmd); err != nil {
		return err
	}
	return it.runCmd(ctx, pkg, "testCmd", pkg.Settings.TestCmd)
}

// publish runs every registered publisher in order, once per package per run.
func (it *releaseRun) publish(ctx context.Context, pkg *entities.Package) error {
	return it.publishes.Do(ctx, pkg.Name, func() error {
		start := time.Now()
		err := it.publishPackage(ctx, pkg)
		it.cmd.recorder.ObserveStep(metrics.StepPublish, time.Since(start), err == nil)
		return err
	})
}

func (it *releaseRun) publishPackage(ctx context.Context, pkg *entities.Package) error {
	for _, publisher := range it.cmd.publishers.All() {
		it.state.Log(pkg.Name, logger.InfoLevel, "publish %s", publisher.Name())
		if err := publisher.Publish(ctx, it.pool, it.state, pkg, it.opts.Env); err != nil {
			return fmt.Errorf("%s publisher failed for %s: %w", publisher.Name(), pkg.Name, err)
		}
	}
	return nil
}

func (it *releaseRun) runCmd(ctx context.Context, pkg *entities.Package, name, template string) error {
	if template == "" {
		return nil
	}
	cmd, err := entities.RenderCommand(template, pkg)
	if err != nil {
		return fmt.Errorf("invalid %s of %s: %w", name, pkg.Name, err)
	}

	it.state.Log(pkg.Name, logger.InfoLevel, "run %s '%s'", name, cmd)
	output, err := it.pool.Run(ctx, pkg.AbsPath, cmd, it.opts.Env)
	if output != "" {
		logger.Debugf("[%s] %s", pkg.Name, strings.TrimRight(output, "\n"))
	}
	if err != nil {
		return fmt.Errorf("%s failed for %s: %w", name, pkg.Name, err)
	}
	return nil
}

// --- settings ---

func (it *releaseRun) rootSettingsFiles(root string) ([]string, error) {
	if it.opts.ConfigPath != "" {
		return []string{it.opts.ConfigPath}, nil
	}
	path, err := entities.FindSettingsFile(root)
	if errors.Is(err, entities.ErrConfigNotFound) {
		logger.Debugf("[%s] no settings file in %s, using defaults", entities.GlobalScope, root)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (it *releaseRun) packageSettings(pkg *entities.Package) (*entities.Settings, error) {
	files := append([]string{}, it.rootFiles...)
	if pkg.AbsPath != it.graph.Root {
		if path, err := entities.FindSettingsFile(pkg.AbsPath); err == nil {
			files = append(files, path)
		}
	}
	return entities.LoadSettings(files, it.env)
}

// --- status ---

func (it *releaseRun) setStatus(status entities.Status, name string) error {
	if err := it.state.SetStatus(status, name); err != nil {
		return err
	}
	it.cmd.recorder.IncPackageStatus(string(status))
	return nil
}

func (it *releaseRun) markFailed(name string) {
	if it.state.Status(name).IsTerminal() {
		return
	}
	if err := it.setStatus(entities.StatusFailure, name); err != nil {
		logger.Warnf("[%s] %v", name, err)
	}
}

func (it *releaseRun) fail(err error) {
	it.state.Log("", logger.ErrorLevel, "%v", err)
	it.state.Set("error", err.Error(), "")
	if !it.state.Status("").IsTerminal() {
		if statusErr := it.state.SetStatus(entities.StatusFailure, ""); statusErr != nil {
			logger.Warnf("[%s] %v", entities.GlobalScope, statusErr)
		}
	}
	it.cmd.recorder.IncRunOutcome(metrics.OutcomeFailure)
}

func refOrStart(tag *entities.Tag) string {
	if tag == nil {
		return "the first commit"
	}
	return tag.Ref
}

// mergeEnv overlays extra on a KEY=VALUE environment list.
func mergeEnv(environ []string, extra map[string]string) map[string]string {
	env := make(map[string]string, len(environ)+len(extra))
	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}
	for key, value := range extra {
		env[key] = value
	}
	return env
}
