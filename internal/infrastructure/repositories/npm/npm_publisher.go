package npm

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const (
	publisherName = "npm"
	npmrcFileMode = 0o600
)

// NpmPublisher uploads a package to the configured npm registry.
type NpmPublisher struct{}

var _ repositories.PublisherRepository = (*NpmPublisher)(nil)

// NewNpmPublisher creates a new NpmPublisher.
func NewNpmPublisher() *NpmPublisher {
	return &NpmPublisher{}
}

func (it *NpmPublisher) Name() string { return publisherName }

// Publish runs "npm publish" with an isolated user config. Private packages and
// packages with npmPublish disabled are skipped.
func (it *NpmPublisher) Publish(
	ctx context.Context,
	runner repositories.CommandRepository,
	events entities.EventLog,
	pkg *entities.Package,
	env map[string]string,
) error {
	if !pkg.Settings.NpmPublish || pkg.Manifest.Private {
		events.Log(pkg.Name, logger.DebugLevel, "npm publish skipped")
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "monorelease-npm-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	npmrc := filepath.Join(tmpDir, ".npmrc")
	if writeErr := os.WriteFile(npmrc, []byte(BuildNpmrc(pkg.Settings.NpmRegistry)), npmrcFileMode); writeErr != nil {
		return fmt.Errorf("failed to write npmrc: %w", writeErr)
	}

	publishEnv := make(map[string]string, len(env)+1)
	for key, value := range env {
		publishEnv[key] = value
	}
	publishEnv["NPM_TOKEN"] = pkg.Settings.NpmToken

	events.Log(pkg.Name, logger.InfoLevel, "publish npm package %s@%s to %s", pkg.Name, pkg.Version, pkg.Settings.NpmRegistry)
	cmd := fmt.Sprintf("npm publish --userconfig %q", npmrc)
	if _, err = runner.Run(ctx, pkg.AbsPath, cmd, publishEnv); err != nil {
		return fmt.Errorf("npm publish failed: %w", err)
	}
	return nil
}

// BuildNpmrc renders a user config pointing at registry, with the token read
// from $NPM_TOKEN by npm itself.
func BuildNpmrc(registry string) string {
	var sb strings.Builder
	sb.WriteString("registry=" + registry + "/\n")
	if parsed, err := url.Parse(registry); err == nil && parsed.Host != "" {
		sb.WriteString("//" + parsed.Host + strings.TrimSuffix(parsed.Path, "/") + "/:_authToken=${NPM_TOKEN}\n")
	}
	return sb.String()
}
