package downloader

import (
	"context"
	"log/slog"
	"sync"

	"tgcdl/internal/consts"
	"tgcdl/internal/entity"
	"tgcdl/internal/errs"
)

// Mock records Process calls instead of running ffmpeg.
type Mock struct {
	log *slog.Logger

	mu        sync.Mutex
	processed []string
	err       error
}

// NewMock creates a recording downloader for tests.
func NewMock(log *slog.Logger) *Mock {
	return &Mock{
		log: log.With(slog.String("package", "downloader"), slog.String("downloader", consts.DownloaderMock)),
	}
}

// Fail makes every subsequent Process call return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

// Process records the task destination and returns the configured error.
func (m *Mock) Process(ctx context.Context, task *entity.Task) error {
	if task == nil {
		return errs.ErrTaskNil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = append(m.processed, task.Destination)

	m.log.InfoContext(ctx, "mock processing", "task", task)

	return m.err
}

// Processed returns the destinations of all recorded calls.
func (m *Mock) Processed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.processed))
	copy(out, m.processed)

	return out
}
