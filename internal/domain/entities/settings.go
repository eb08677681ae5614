package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no settings file exists in a directory.
var ErrConfigNotFound = errors.New("config file not found")

// Settings configures how packages are built and published. A package-level file
// overrides the repository-level one key by key.
type Settings struct {
	BuildCmd          string `yaml:"buildCmd"          json:"buildCmd,omitempty"`
	TestCmd           string `yaml:"testCmd"           json:"testCmd,omitempty"`
	PublishCmd        string `yaml:"publishCmd"        json:"publishCmd,omitempty"`
	NpmPublish        bool   `yaml:"npmPublish"        json:"npmPublish"`
	NpmRegistry       string `yaml:"npmRegistry"       json:"npmRegistry,omitempty"`
	NpmToken          string `yaml:"npmToken"          json:"npmToken,omitempty"`
	GhToken           string `yaml:"ghToken"           json:"ghToken,omitempty"`
	GitCommitterName  string `yaml:"gitCommitterName"  json:"gitCommitterName,omitempty"`
	GitCommitterEmail string `yaml:"gitCommitterEmail" json:"gitCommitterEmail,omitempty"`
	MetaBranch        string `yaml:"metaBranch"        json:"metaBranch,omitempty"`
	ChangelogBranch   string `yaml:"changelogBranch"   json:"changelogBranch,omitempty"`
	TagPush           bool   `yaml:"tagPush"           json:"tagPush"`
}

// DefaultSettings returns the values used when no file sets a key.
func DefaultSettings() Settings {
	return Settings{
		NpmPublish:        true,
		NpmRegistry:       "https://registry.npmjs.org",
		GitCommitterName:  "Semrel Extra Bot",
		GitCommitterEmail: "semrel-extra-bot@hotmail.com",
		MetaBranch:        "meta",
		TagPush:           true,
	}
}

// Redacted returns a copy safe to write into reports.
func (s *Settings) Redacted() Settings {
	out := *s
	if out.NpmToken != "" {
		out.NpmToken = "***"
	}
	if out.GhToken != "" {
		out.GhToken = "***"
	}
	return out
}

const settingsSchemaURL = "monorelease-settings.json"

const settingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "buildCmd": {"type": "string"},
    "testCmd": {"type": "string"},
    "publishCmd": {"type": "string"},
    "npmPublish": {"type": "boolean"},
    "npmRegistry": {"type": "string"},
    "npmToken": {"type": "string"},
    "ghToken": {"type": "string"},
    "gitCommitterName": {"type": "string"},
    "gitCommitterEmail": {"type": "string"},
    "metaBranch": {"type": "string"},
    "changelogBranch": {"type": "string"},
    "tagPush": {"type": "boolean"}
  }
}`

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

//nolint:gochecknoglobals // lookup order
var settingsFileNames = []string{
	".releaserc.yaml",
	".releaserc.yml",
	"release.yaml",
	"release.yml",
}

// FindSettingsFile returns the settings file of dir.
func FindSettingsFile(dir string) (string, error) {
	for _, name := range settingsFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrConfigNotFound, dir)
}

// LoadSettings applies files in order over the defaults and expands ${VAR}
// references of credential and identity values from env.
func LoadSettings(files []string, env map[string]string) (*Settings, error) {
	settings := DefaultSettings()

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err = validateSettings(data); err != nil {
			return nil, fmt.Errorf("invalid config file %q: %w", path, err)
		}
		if err = yaml.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	for _, field := range []*string{
		&settings.NpmRegistry,
		&settings.NpmToken,
		&settings.GhToken,
		&settings.GitCommitterName,
		&settings.GitCommitterEmail,
	} {
		*field = expandEnv(*field, env)
	}
	settings.NpmRegistry = strings.TrimSuffix(settings.NpmRegistry, "/")

	return &settings, nil
}

func expandEnv(raw string, env map[string]string) string {
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		if value, ok := env[name]; ok && value != "" {
			return value
		}
		logger.Warnf("Environment variable %q is not set", name)
		return ""
	})
}

func validateSettings(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	if doc == nil {
		return nil
	}

	// the schema validator works on JSON-decoded values
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	var obj any
	if err = json.Unmarshal(encoded, &obj); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource(settingsSchemaURL, strings.NewReader(settingsSchema)); err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	schema, err := compiler.Compile(settingsSchemaURL)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema.Validate(obj)
}
