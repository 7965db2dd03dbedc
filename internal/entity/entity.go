// Package entity defines the core entities used in the application.
package entity

import (
	"fmt"
	"log/slog"
	"time"
)

// Course is a scraped course page.
type Course struct {
	URL          string
	ID           string
	Title        string
	Professor    string
	Description  string
	GuidebookURL string
	Lectures     []Lecture
}

// DirectoryName returns the per-course output directory component.
func (c Course) DirectoryName() string {
	return fmt.Sprintf("%s (#%s) ~ %s", c.Title, c.ID, c.Professor)
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (c Course) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", c.URL),
		slog.String("id", c.ID),
		slog.String("title", c.Title),
		slog.String("professor", c.Professor),
		slog.Bool("guidebook", c.GuidebookURL != ""),
		slog.Int("lectures", len(c.Lectures)),
	)
}

// Lecture is one entry of a course.
type Lecture struct {
	ID          string
	Index       int    // 1-based position within the course
	Number      string // zero-padded Index, used in filenames
	Title       string
	SafeTitle   string // Title with filesystem-hostile characters replaced
	Description string
	ManifestURL string
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (l Lecture) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", l.ID),
		slog.Int("index", l.Index),
		slog.String("title", l.Title),
		slog.String("manifest_url", l.ManifestURL),
	)
}

// Rendition is one video variant of a lecture's master playlist.
type Rendition struct {
	Height    int // pixels
	Bandwidth uint32
	URI       string // absolute
}

// AudioTrack is the audio media entry of a master playlist.
type AudioTrack struct {
	URI      string // absolute
	Channels int
}

// Streams holds the variant pair selected for a lecture.
type Streams struct {
	Video Rendition
	Audio AudioTrack
}

// TaskStatus represents the status of a lecture download task.
type TaskStatus string

const (
	// TaskStatusPending indicates that the task has not been looked at yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusPlanned indicates a dry-run task that would have downloaded.
	TaskStatusPlanned TaskStatus = "planned"
	// TaskStatusSkipped indicates that the destination file already exists.
	TaskStatusSkipped TaskStatus = "skipped"
	// TaskStatusDownloading indicates that the mux subprocess is running.
	TaskStatusDownloading TaskStatus = "downloading"
	// TaskStatusFinished indicates that the file was written and renamed.
	TaskStatusFinished TaskStatus = "finished"
	// TaskStatusFailed indicates that the task encountered an error.
	TaskStatusFailed TaskStatus = "failed"
)

// Task is one lecture download unit.
type Task struct {
	UUID        string
	CourseTitle string
	Lecture     Lecture
	Quality     int // requested height
	Streams     Streams
	Destination string // final output path
	Status      TaskStatus
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (t Task) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("uuid", t.UUID),
		slog.String("course", t.CourseTitle),
		slog.Int("lecture", t.Lecture.Index),
		slog.Int("quality", t.Quality),
		slog.Int("selected_height", t.Streams.Video.Height),
		slog.String("destination", t.Destination),
		slog.String("status", string(t.Status)),
		slog.String("error", t.Error),
	)
}
