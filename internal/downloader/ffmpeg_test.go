package downloader_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tgcdl/internal/config"
	"tgcdl/internal/downloader"
	"tgcdl/internal/entity"
	"tgcdl/internal/errs"
)

// writeStubBinary installs a shell script standing in for ffmpeg. The real
// invocation always passes the output path as the last argument.
func writeStubBinary(t *testing.T, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	return path
}

func newProcessTask(t *testing.T) *entity.Task {
	t.Helper()

	return &entity.Task{
		Lecture: entity.Lecture{Title: "First Steps"},
		Streams: entity.Streams{
			Video: entity.Rendition{URI: "https://cdn.example.com/video.m3u8"},
			Audio: entity.AudioTrack{URI: "https://cdn.example.com/audio.m3u8", Channels: 2},
		},
		Destination: filepath.Join(t.TempDir(), "First Steps.mkv"),
	}
}

func newProcessConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}

	cfg.Run.MuxTimeout = time.Minute

	return cfg
}

func TestProcessRenamesPartOnSuccess(t *testing.T) {
	bin := writeStubBinary(t, `#!/bin/sh
for last; do :; done
printf 'frame=  100\n' >&2
: > "$last"
`)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := downloader.NewFFmpeg(log, newProcessConfig(t), bin, "")
	task := newProcessTask(t)

	if err := d.Process(t.Context(), task); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if _, err := os.Stat(task.Destination); err != nil {
		t.Errorf("final file missing: %v", err)
	}

	if _, err := os.Stat(task.Destination + downloader.PartSuffix); !os.IsNotExist(err) {
		t.Errorf("part file still present after rename, stat err = %v", err)
	}
}

func TestProcessNonZeroExit(t *testing.T) {
	bin := writeStubBinary(t, `#!/bin/sh
echo 'Invalid data found when processing input' >&2
exit 1
`)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := downloader.NewFFmpeg(log, newProcessConfig(t), bin, "")
	task := newProcessTask(t)

	err := d.Process(t.Context(), task)
	if !errors.Is(err, errs.ErrMux) {
		t.Fatalf("Process error = %v, want ErrMux", err)
	}

	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("error lacks the stderr tail: %v", err)
	}

	if _, statErr := os.Stat(task.Destination); !os.IsNotExist(statErr) {
		t.Errorf("file present at final path after failed mux, stat err = %v", statErr)
	}
}

func TestProcessCancelLeavesNoFinalFile(t *testing.T) {
	bin := writeStubBinary(t, `#!/bin/sh
for last; do :; done
: > "$last"
sleep 30
`)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := downloader.NewFFmpeg(log, newProcessConfig(t), bin, "")
	task := newProcessTask(t)

	ctx, cancel := context.WithCancel(t.Context())
	timer := time.AfterFunc(200*time.Millisecond, cancel)
	defer timer.Stop()

	err := d.Process(ctx, task)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Process error = %v, want context.Canceled", err)
	}

	if _, statErr := os.Stat(task.Destination); !os.IsNotExist(statErr) {
		t.Errorf("file present at final path after cancellation, stat err = %v", statErr)
	}
}

func TestProcessNilTask(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := downloader.NewFFmpeg(log, newProcessConfig(t), "ffmpeg", "")

	if err := d.Process(t.Context(), nil); !errors.Is(err, errs.ErrTaskNil) {
		t.Errorf("Process(nil) error = %v, want ErrTaskNil", err)
	}
}
