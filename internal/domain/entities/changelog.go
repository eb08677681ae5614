package entities

import (
	"fmt"
	"strings"
	"time"
)

const (
	changelogTitle = "# Changelog"
	h2Prefix       = "## ["
	bulletPrefix   = "* "
)

// FormatReleaseNotes renders the changes of a package release as a
// Keep-a-Changelog section, grouping changes in order of first appearance.
func FormatReleaseNotes(pkg *Package, date time.Time) string {
	var groups []string
	byGroup := map[string][]string{}
	for _, change := range pkg.Changes {
		if _, ok := byGroup[change.Group]; !ok {
			groups = append(groups, change.Group)
		}
		byGroup[change.Group] = append(byGroup[change.Group], change.Subj)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s] - %s\n", h2Prefix, pkg.Version, date.UTC().Format(time.DateOnly))
	for _, group := range groups {
		fmt.Fprintf(&sb, "\n### %s\n\n", group)
		for _, subj := range byGroup[group] {
			sb.WriteString(bulletPrefix + subj + "\n")
		}
	}
	return sb.String()
}

// InsertReleaseNotes puts a release section on top of the existing releases.
//
// Behaviour:
//   - Empty content becomes a new changelog with a title and the section.
//   - The section is inserted right before the first "## [" heading.
//   - Without any release heading the section is appended.
func InsertReleaseNotes(content, notes string) string {
	if strings.TrimSpace(notes) == "" {
		return content
	}
	if strings.TrimSpace(content) == "" {
		return changelogTitle + "\n\n" + notes
	}

	lines := strings.Split(content, "\n")
	firstRelease := findFirstH2Index(lines)

	block := strings.Split(strings.TrimRight(notes, "\n"), "\n")
	block = append(block, "")
	if firstRelease < 0 {
		if lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		return strings.Join(append(lines, block...), "\n")
	}

	return strings.Join(insertLines(lines, firstRelease, block), "\n")
}

// findFirstH2Index returns the line index of the first "## [" heading, or -1.
func findFirstH2Index(lines []string) int {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), h2Prefix) {
			return i
		}
	}
	return -1
}

// insertLines inserts extra lines into slice at the given index.
func insertLines(lines []string, at int, extra []string) []string {
	result := make([]string, 0, len(lines)+len(extra))
	result = append(result, lines[:at]...)
	result = append(result, extra...)
	result = append(result, lines[at:]...)
	return result
}
