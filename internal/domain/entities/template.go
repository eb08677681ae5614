package entities

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrUnknownPlaceholder is returned when a command references a key that is not
// part of the template context.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

var placeholderPattern = regexp.MustCompile(`\$\{\{\s*([A-Za-z0-9_.]+)\s*}}`)

// TemplateValues lists the substitutions available to build, test and publish
// commands.
func TemplateValues(pkg *Package) map[string]string {
	return map[string]string{
		"name":        pkg.Name,
		"version":     pkg.Version,
		"prevVersion": pkg.PrevVersion(),
		"releaseType": string(pkg.ReleaseType),
		"tag":         pkg.Tag,
		"absPath":     pkg.AbsPath,
		"relPath":     pkg.RelPath,
		"git.sha":     pkg.Git.Sha,
		"git.root":    pkg.Git.Root,
	}
}

// RenderCommand replaces every ${{ key }} placeholder with the package value.
func RenderCommand(template string, pkg *Package) (string, error) {
	values := TemplateValues(pkg)

	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := values[key]
		if !ok {
			missing = append(missing, key)
			return match
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w %q in %q", ErrUnknownPlaceholder, missing[0], template)
	}
	return rendered, nil
}
