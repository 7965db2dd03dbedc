// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// FixURL prepends https scheme to URL.
// Example: thegreatcoursesplus.com/course => https://thegreatcoursesplus.com/course
func FixURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || (u.Scheme != schemeHTTP && u.Scheme != schemeHTTPS)) {
		u.Scheme = schemeHTTPS

		return u.String()
	}

	return raw
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}

// ResolveReference resolves a possibly relative ref against base.
// Master playlists commonly refer to their variants with relative URIs.
func ResolveReference(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return baseURL.ResolveReference(refURL).String()
}
