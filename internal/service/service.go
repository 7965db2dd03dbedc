// Package service runs the download loop: scrape, plan, fetch, mux.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tgcdl/internal/config"
	"tgcdl/internal/downloader"
	"tgcdl/internal/entity"
	"tgcdl/internal/errs"
	"tgcdl/internal/guidebook"
	"tgcdl/internal/manifest"
	"tgcdl/internal/observability"
	"tgcdl/internal/scraper"
	"tgcdl/pkg/gen"
	"tgcdl/pkg/lecrange"
)

// Runner processes courses sequentially, one lecture at a time.
type Runner struct {
	log        *slog.Logger
	cfg        *config.Config
	scraper    *scraper.Scraper
	manifests  *manifest.Resolver
	guidebooks *guidebook.Fetcher
	downloader downloader.Downloader
	metrics    *observability.Metrics

	mu    sync.RWMutex
	tasks map[string]*entity.Task
}

// New creates a run orchestrator.
func New(
	log *slog.Logger,
	cfg *config.Config,
	scr *scraper.Scraper,
	manifests *manifest.Resolver,
	guidebooks *guidebook.Fetcher,
	dl downloader.Downloader,
	metrics *observability.Metrics,
) *Runner {
	return &Runner{
		log:        log.With(slog.String("package", "service")),
		cfg:        cfg,
		scraper:    scr,
		manifests:  manifests,
		guidebooks: guidebooks,
		downloader: dl,
		metrics:    metrics,
		tasks:      make(map[string]*entity.Task),
	}
}

// Run processes every configured course. Per-course and per-lecture errors
// are tolerated and summarized; expired authentication aborts the remaining
// courses, since every further fetch would hit the same signed-out page.
// Otherwise the returned error is non-nil only when no course could be
// processed, or when lectures were attempted and every attempt failed.
func (svc *Runner) Run(ctx context.Context) error {
	var (
		coursesOK int
		lastErr   error
	)

	for _, url := range svc.cfg.Courses {
		if ctx.Err() != nil {
			svc.summarize(ctx)

			return ctx.Err()
		}

		if err := svc.runCourse(ctx, url); err != nil {
			svc.log.ErrorContext(ctx, "course failed", slog.String("url", url), slog.Any("error", err))

			if errors.Is(err, errs.ErrAuthExpired) {
				svc.summarize(ctx)

				return err
			}

			lastErr = err

			continue
		}

		coursesOK++
	}

	svc.summarize(ctx)

	if coursesOK == 0 {
		return fmt.Errorf("%w: %w", errs.ErrNoCoursesProcessed, lastErr)
	}

	attempted, finished := svc.attemptStats()
	if attempted > 0 && finished == 0 {
		return errs.ErrAllFailed
	}

	return nil
}

func (svc *Runner) runCourse(ctx context.Context, url string) error {
	log := svc.log

	course, err := svc.scraper.Course(ctx, url)
	if err != nil {
		return fmt.Errorf("scrape course: %w", err)
	}

	log.InfoContext(ctx, "processing course", "course", course)

	selected, err := svc.selectLectures(course)
	if err != nil {
		return err
	}

	courseDir := filepath.Join(svc.cfg.Dir.Output, course.DirectoryName())

	if !svc.cfg.Run.DryRun {
		if err := os.MkdirAll(courseDir, 0o755); err != nil {
			return fmt.Errorf("create course directory: %w", err)
		}
	}

	svc.fetchGuidebook(ctx, course, courseDir)

	for _, lecture := range selected {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		task := svc.buildTask(course, lecture, courseDir)
		svc.processTask(ctx, task)
	}

	return nil
}

// selectLectures applies the lecture range, or returns all lectures when no
// range was given.
func (svc *Runner) selectLectures(course *entity.Course) ([]entity.Lecture, error) {
	if svc.cfg.Run.LectureRange == "" {
		return course.Lectures, nil
	}

	indices, err := lecrange.Parse(svc.cfg.Run.LectureRange, len(course.Lectures))
	if err != nil {
		return nil, fmt.Errorf("lecture range: %w", err)
	}

	selected := make([]entity.Lecture, 0, len(indices))
	for _, idx := range indices {
		selected = append(selected, course.Lectures[idx-1])
	}

	return selected, nil
}

// fetchGuidebook is best-effort: a missing or broken guidebook never fails
// the course.
func (svc *Runner) fetchGuidebook(ctx context.Context, course *entity.Course, courseDir string) {
	if course.GuidebookURL == "" {
		return
	}

	if err := svc.guidebooks.Fetch(ctx, course, courseDir, svc.cfg.Run.DryRun); err != nil {
		svc.metrics.GuidebooksFailed.Inc()
		svc.log.WarnContext(ctx, "guidebook download failed", "course", course, slog.Any("error", err))

		return
	}

	svc.metrics.GuidebooksFetched.Inc()
}

func (svc *Runner) buildTask(course *entity.Course, lecture entity.Lecture, courseDir string) *entity.Task {
	filename := fmt.Sprintf("%s (#%s) S01E%s - %s.%s",
		course.Title, course.ID, lecture.Number, lecture.SafeTitle, svc.cfg.Run.Container)
	destination := filepath.Join(courseDir, filename)

	task := &entity.Task{
		UUID:        gen.UUIDv5(lecture.ManifestURL, destination),
		CourseTitle: course.Title,
		Lecture:     lecture,
		Quality:     svc.cfg.Run.Quality,
		Destination: destination,
		Status:      entity.TaskStatusPending,
	}

	svc.mu.Lock()
	svc.tasks[task.UUID] = task
	svc.mu.Unlock()

	return task
}

func (svc *Runner) processTask(ctx context.Context, task *entity.Task) {
	log := svc.log.With("task", task)

	if existing := svc.existingDestination(task.Destination); existing != "" {
		task.Status = entity.TaskStatusSkipped

		svc.metrics.LecturesSkipped.Inc()
		log.InfoContext(ctx, "lecture already downloaded", slog.String("path", existing))

		return
	}

	if svc.cfg.Run.DryRun {
		task.Status = entity.TaskStatusPlanned

		svc.metrics.LecturesPlanned.Inc()
		log.InfoContext(ctx, "would download lecture", slog.String("destination", task.Destination))

		return
	}

	if err := svc.download(ctx, task); err != nil {
		task.Status = entity.TaskStatusFailed
		task.Error = err.Error()
		task.FinishedAt = time.Now()

		svc.metrics.LecturesFailed.Inc()
		svc.metrics.RecordDownloaderError(errorClass(err))
		log.ErrorContext(ctx, "lecture failed", slog.Any("error", err))

		return
	}

	task.Status = entity.TaskStatusFinished
	task.FinishedAt = time.Now()

	svc.metrics.LecturesFinished.Inc()

	if info, err := os.Stat(task.Destination); err == nil {
		svc.metrics.BytesWritten.Add(float64(info.Size()))
	}

	log.InfoContext(ctx, "lecture finished")
}

func (svc *Runner) download(ctx context.Context, task *entity.Task) error {
	if task.Lecture.ManifestURL == "" {
		return errs.ErrNoManifest
	}

	streams, err := svc.manifests.Streams(ctx, task.Lecture.ManifestURL, task.Quality)
	if err != nil {
		return fmt.Errorf("resolve manifest: %w", err)
	}

	task.Streams = streams
	task.Status = entity.TaskStatusDownloading
	task.StartedAt = time.Now()

	defer svc.metrics.LectureTimer()()

	if err := svc.downloader.Process(ctx, task); err != nil {
		return fmt.Errorf("process task: %w", err)
	}

	return nil
}

// existingDestination reports a non-empty file at the destination under
// either container spelling, so switching containers does not redownload.
func (svc *Runner) existingDestination(destination string) string {
	ext := filepath.Ext(destination)
	base := strings.TrimSuffix(destination, ext)

	for _, candidate := range []string{destination, base + ".mkv", base + ".mp4"} {
		info, err := os.Stat(candidate)
		if err == nil && info.Size() > 0 {
			return candidate
		}
	}

	return ""
}

func (svc *Runner) attemptStats() (attempted, finished int) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	for _, task := range svc.tasks {
		switch task.Status {
		case entity.TaskStatusFinished:
			attempted++
			finished++
		case entity.TaskStatusFailed:
			attempted++
		default:
		}
	}

	return attempted, finished
}

// Tasks returns all tasks of the run.
func (svc *Runner) Tasks() []*entity.Task {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	out := make([]*entity.Task, 0, len(svc.tasks))
	for _, task := range svc.tasks {
		out = append(out, task)
	}

	return out
}

func (svc *Runner) summarize(ctx context.Context) {
	svc.mu.RLock()

	counts := make(map[entity.TaskStatus]int)

	var failures []string

	for _, task := range svc.tasks {
		counts[task.Status]++

		if task.Status == entity.TaskStatusFailed {
			failures = append(failures,
				fmt.Sprintf("%s S01E%s: %s", task.CourseTitle, task.Lecture.Number, task.Error))
		}
	}
	svc.mu.RUnlock()

	attrs := []any{
		slog.Int("finished", counts[entity.TaskStatusFinished]),
		slog.Int("skipped", counts[entity.TaskStatusSkipped]),
		slog.Int("planned", counts[entity.TaskStatusPlanned]),
		slog.Int("failed", counts[entity.TaskStatusFailed]),
		slog.Any("metrics", svc.metrics.Summary()),
	}
	if len(failures) > 0 {
		attrs = append(attrs, slog.Any("failures", failures))
	}

	svc.log.InfoContext(ctx, "run summary", attrs...)
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, errs.ErrMux):
		return "mux"
	case errors.Is(err, errs.ErrNoRendition),
		errors.Is(err, errs.ErrNoAudioTrack),
		errors.Is(err, errs.ErrAmbiguousAudio),
		errors.Is(err, errs.ErrNoManifest):
		return "manifest"
	default:
		return "process"
	}
}
