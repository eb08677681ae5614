package entities

import (
	mm "github.com/Masterminds/semver/v3"
)

// ReleaseType is the severity of a release. The empty value means "no release".
type ReleaseType string

const (
	ReleaseNone  ReleaseType = ""
	ReleasePatch ReleaseType = "patch"
	ReleaseMinor ReleaseType = "minor"
	ReleaseMajor ReleaseType = "major"
)

func (r ReleaseType) severity() int {
	switch r {
	case ReleaseMajor:
		return 3 //nolint:mnd // ordering only
	case ReleaseMinor:
		return 2 //nolint:mnd // ordering only
	case ReleasePatch:
		return 1
	}
	return 0
}

// Change is one reason to release a package.
type Change struct {
	Group       string      `json:"group"`
	ReleaseType ReleaseType `json:"releaseType"`
	Change      string      `json:"change"`
	Subj        string      `json:"subj"`
}

// ResolveReleaseType picks the most severe release type of the changes.
func ResolveReleaseType(changes []Change) ReleaseType {
	result := ReleaseNone
	for _, change := range changes {
		if change.ReleaseType.severity() > result.severity() {
			result = change.ReleaseType
		}
	}
	return result
}

const initialVersion = "1.0.0"

// NextVersion bumps prev by the release type. Without a release type prev is
// returned unchanged; without a usable prev the first release is 1.0.0.
func NextVersion(prev string, releaseType ReleaseType) string {
	if releaseType == ReleaseNone {
		return prev
	}

	current, err := mm.NewVersion(prev)
	if err != nil {
		return initialVersion
	}

	var next mm.Version
	switch releaseType {
	case ReleaseMajor:
		next = current.IncMajor()
	case ReleaseMinor:
		next = current.IncMinor()
	default:
		next = current.IncPatch()
	}
	return next.String()
}

// ResolvePackageVersion computes the version the package is released as. A package
// that was never tagged is released with its declared manifest version.
func ResolvePackageVersion(pkg *Package, releaseType ReleaseType) string {
	if releaseType == ReleaseNone {
		return pkg.PrevVersion()
	}
	if pkg.Latest.Tag != nil {
		return NextVersion(pkg.Latest.Tag.Version, releaseType)
	}
	if pkg.Manifest != nil && IsValidVersion(pkg.Manifest.Version) {
		return pkg.Manifest.Version
	}
	return initialVersion
}
