// Package sanitize turns scraped titles into names safe for every common filesystem.
package sanitize

import (
	"regexp"
	"strings"
)

// maxFilenameLen is the usual filesystem component limit.
const maxFilenameLen = 255

var (
	reForbidden  = regexp.MustCompile(`[/\\%;*|"<>]`)
	reColonSpace = regexp.MustCompile(`(\w): (\S)`)
)

// Filename replaces characters that are invalid in file names with underscores
// and rewrites "Title: Subtitle" style colons as dashes. The result is
// truncated to 255 characters.
func Filename(name string) string {
	cleaned := reForbidden.ReplaceAllString(name, "_")
	cleaned = reColonSpace.ReplaceAllString(cleaned, "$1 - $2")
	cleaned = strings.ReplaceAll(cleaned, ":", "-")

	return truncate(cleaned)
}

// FilenameUnderscored is like Filename but turns every colon into an
// underscore. Lecture titles use this spelling so episode names sort cleanly.
func FilenameUnderscored(name string) string {
	cleaned := reForbidden.ReplaceAllString(name, "_")
	cleaned = strings.ReplaceAll(cleaned, ":", "_")

	return truncate(cleaned)
}

func truncate(name string) string {
	if len(name) <= maxFilenameLen {
		return name
	}

	return name[:maxFilenameLen]
}
