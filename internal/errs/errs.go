// Package errs defines common error variables used across the application.
package errs

import "errors"

// Configuration errors.
var (
	// ErrQualityOutOfRange indicates that the requested quality is outside 360-1080.
	ErrQualityOutOfRange = errors.New("quality out of range")
	// ErrRangeScope indicates that a lecture range was combined with multiple course URLs.
	ErrRangeScope = errors.New("lecture range is limited to a single course")
	// ErrNoCourses indicates that no course URLs were supplied.
	ErrNoCourses = errors.New("no course URLs")
	// ErrInvalidCourseURL indicates that a course URL could not be parsed.
	ErrInvalidCourseURL = errors.New("invalid course URL")
)

// Authentication errors.
var (
	// ErrMissingCookies indicates that the cookie file does not exist.
	ErrMissingCookies = errors.New("cookie file not found")
	// ErrAuthExpired indicates that the site served a signed-out page.
	ErrAuthExpired = errors.New("session cookies expired or invalid")
)

// Scraping errors.
var (
	// ErrNotFound indicates an HTTP 404 for a course page.
	ErrNotFound = errors.New("course page not found")
	// ErrPageStructure indicates that expected markup is absent from the page.
	ErrPageStructure = errors.New("unexpected course page structure")
)

// Manifest errors.
var (
	// ErrNoRendition indicates that the master playlist yielded no video variants.
	ErrNoRendition = errors.New("no video renditions in manifest")
	// ErrNoAudioTrack indicates that the master playlist has no audio media track.
	ErrNoAudioTrack = errors.New("no audio track in manifest")
	// ErrAmbiguousAudio indicates that the master playlist has more than one audio track.
	ErrAmbiguousAudio = errors.New("more than one audio track in manifest")
)

// Downloader errors.
var (
	// ErrMux indicates that the external mux tool exited non-zero.
	ErrMux = errors.New("mux failed")
	// ErrBinaryNotFound indicates that a required binary was not found.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform indicates that the current platform is not supported.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrTaskNil indicates that the task is nil.
	ErrTaskNil = errors.New("task is nil")
	// ErrNoManifest indicates that a lecture has no manifest URL to resolve.
	ErrNoManifest = errors.New("lecture has no manifest URL")
)

// Run errors.
var (
	// ErrAllFailed indicates that every attempted lecture failed.
	ErrAllFailed = errors.New("all attempted lectures failed")
	// ErrNoCoursesProcessed indicates that no course page could be processed.
	ErrNoCoursesProcessed = errors.New("no course could be processed")
)

// Guidebook errors.
var (
	// ErrGuidebookURL indicates that the guidebook link does not match the known scheme.
	ErrGuidebookURL = errors.New("unrecognized guidebook URL")
)
