package entities

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// TagFormat identifies the encoding used by a release tag.
type TagFormat string

const (
	TagFormatF0    TagFormat = "f0"
	TagFormatF1    TagFormat = "f1"
	TagFormatLerna TagFormat = "lerna"
)

// Tag is a parsed release marker.
type Tag struct {
	Date    time.Time `json:"date"`
	Name    string    `json:"name"`
	Version string    `json:"version"`
	Format  TagFormat `json:"format"`
	Ref     string    `json:"ref"`
}

// TagSource lists the raw tag names of a repository. When ref is not empty only
// the tags pointing at that revision are returned.
type TagSource interface {
	Tags(ctx context.Context, dir, ref string) ([]string, error)
}

// tagCodec is one release tag encoding. tryFormat reports false when the record
// cannot be represented in this encoding.
type tagCodec struct {
	format    TagFormat
	tryParse  func(raw string) (Tag, bool)
	tryFormat func(tag Tag) (string, bool)
}

const datePattern = `(\d{4}\.(?:[1-9]|1[012])\.(?:[1-9]|[12]\d|30|31))`

var (
	f0Pattern    = regexp.MustCompile(`^` + datePattern + `-((?:[a-z0-9-]+\.)?[a-z0-9-]+)\.(v?\d+\.\d+\.\d+.*)-f0$`)
	f1Pattern    = regexp.MustCompile(`^` + datePattern + `-[a-z0-9-]+\.(v?\d+\.\d+\.\d+.*)\.([^.]+)-f1$`)
	lernaPattern = regexp.MustCompile(`^(@?[a-z0-9-]+(?:/[a-z0-9-]+)?)@(v?\d+\.\d+\.\d+.*)`)

	simpleNamePattern = regexp.MustCompile(`^(@?[a-z0-9-]+/)?[a-z0-9-]+$`)
	nonSlugChars      = regexp.MustCompile(`[^a-z0-9-]`)
)

// tagCodecs is the fixed priority order used for both parsing and formatting.
var tagCodecs = []tagCodec{ //nolint:gochecknoglobals // immutable codec table
	{format: TagFormatF0, tryParse: parseF0, tryFormat: formatF0},
	{format: TagFormatF1, tryParse: parseF1, tryFormat: formatF1},
	{format: TagFormatLerna, tryParse: parseLerna, tryFormat: func(Tag) (string, bool) { return "", false }},
}

// ParseTag decodes a raw tag, trying f0, f1 and the legacy lerna shape in that order.
func ParseTag(raw string) (Tag, bool) {
	for _, codec := range tagCodecs {
		if tag, ok := codec.tryParse(raw); ok {
			return tag, true
		}
	}
	return Tag{}, false
}

// FormatTag encodes the record as f0 when the name is a simple slug, otherwise as f1.
// A zero Date means "now".
func FormatTag(tag Tag) (string, bool) {
	if tag.Date.IsZero() {
		tag.Date = time.Now()
	}
	for _, codec := range tagCodecs {
		if raw, ok := codec.tryFormat(tag); ok {
			return raw, true
		}
	}
	return "", false
}

func parseF0(raw string) (Tag, bool) {
	if !strings.HasSuffix(raw, "-f0") {
		return Tag{}, false
	}
	matched := f0Pattern.FindStringSubmatch(raw)
	if matched == nil || !IsValidVersion(matched[3]) {
		return Tag{}, false
	}
	date, _ := ParseDateTag(matched[1])

	name := matched[2]
	if strings.Contains(name, ".") {
		name = "@" + strings.Replace(name, ".", "/", 1)
	}
	return Tag{Date: date, Name: name, Version: matched[3], Format: TagFormatF0, Ref: raw}, true
}

func formatF0(tag Tag) (string, bool) {
	if !simpleNamePattern.MatchString(tag.Name) || !IsValidVersion(tag.Version) {
		return "", false
	}
	slug := strings.Replace(strings.Replace(tag.Name, "@", "", 1), "/", ".", 1)
	return fmt.Sprintf("%s-%s.%s-f0", FormatDateTag(tag.Date), slug, tag.Version), true
}

func parseF1(raw string) (Tag, bool) {
	if !strings.HasSuffix(raw, "-f1") {
		return Tag{}, false
	}
	matched := f1Pattern.FindStringSubmatch(raw)
	if matched == nil || !IsValidVersion(matched[2]) {
		return Tag{}, false
	}
	date, _ := ParseDateTag(matched[1])
	name, err := base64.RawURLEncoding.DecodeString(matched[3])
	if err != nil {
		return Tag{}, false
	}
	return Tag{Date: date, Name: string(name), Version: matched[2], Format: TagFormatF1, Ref: raw}, true
}

func formatF1(tag Tag) (string, bool) {
	if !IsValidVersion(tag.Version) {
		return "", false
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(tag.Name), "")
	if slug == "" {
		slug = "pkg"
	}
	encoded := base64.RawURLEncoding.EncodeToString([]byte(tag.Name))
	return fmt.Sprintf("%s-%s.%s.%s-f1", FormatDateTag(tag.Date), slug, tag.Version, encoded), true
}

func parseLerna(raw string) (Tag, bool) {
	matched := lernaPattern.FindStringSubmatch(raw)
	if matched == nil || !IsValidVersion(matched[2]) {
		return Tag{}, false
	}
	return Tag{Name: matched[1], Version: matched[2], Format: TagFormatLerna, Ref: raw}, true
}

// FormatDateTag renders the UTC date as unpadded "year.month.day".
func FormatDateTag(date time.Time) string {
	utc := date.UTC()
	return fmt.Sprintf("%d.%d.%d", utc.Year(), int(utc.Month()), utc.Day())
}

// ParseDateTag reads a "year.month.day" date as UTC midnight. Dates that do not
// exist in the calendar, such as 2023.2.31, are rejected. Tags carrying such a
// date keep their name and version with a zero Date.
func ParseDateTag(raw string) (time.Time, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 { //nolint:mnd // year, month, day
		return time.Time{}, false
	}
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	date := time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC)
	if date.Year() != nums[0] || int(date.Month()) != nums[1] || date.Day() != nums[2] {
		return time.Time{}, false
	}
	return date, true
}

// ArtifactPath turns a raw tag into a storage key: lower case, every character
// outside [a-z0-9-] replaced by "-".
func ArtifactPath(tag string) string {
	return nonSlugChars.ReplaceAllString(strings.ToLower(tag), "-")
}

// IsValidVersion accepts strict semantic versions with an optional "v" prefix.
func IsValidVersion(version string) bool {
	if version == "" {
		return false
	}
	canonical := "v" + strings.TrimPrefix(version, "v")
	// x/mod/semver accepts "v1" and "v1.2" shorthands; releases need all three parts.
	core := canonical
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	return semver.IsValid(canonical) && strings.Count(core, ".") == 2 //nolint:mnd // major.minor.patch
}

// CompareVersions orders two valid versions like semver.Compare, ignoring a "v" prefix.
func CompareVersions(a, b string) int {
	return semver.Compare("v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v"))
}

// ParseTags parses every raw tag, drops the ones that do not match any format and
// sorts the rest by descending version. Equal versions keep their input order.
func ParseTags(raw []string) []Tag {
	tags := make([]Tag, 0, len(raw))
	for _, r := range raw {
		if tag, ok := ParseTag(strings.TrimSpace(r)); ok {
			tags = append(tags, tag)
		}
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return CompareVersions(tags[i].Version, tags[j].Version) > 0
	})
	return tags
}

// GetTags lists the parsed release tags of the repository containing dir.
func GetTags(ctx context.Context, source TagSource, dir, ref string) ([]Tag, error) {
	raw, err := source.Tags(ctx, dir, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return ParseTags(raw), nil
}

// GetLatestTag returns the newest release tag of the named package, or nil.
func GetLatestTag(ctx context.Context, source TagSource, dir, name string) (*Tag, error) {
	tags, err := GetTags(ctx, source, dir, "")
	if err != nil {
		return nil, err
	}
	for i := range tags {
		if tags[i].Name == name {
			return &tags[i], nil
		}
	}
	return nil, nil //nolint:nilnil // no release yet
}
