// Package downloader defines the downloader interface and its ffmpeg and
// mock implementations.
package downloader

import (
	"context"
	"errors"

	"tgcdl/internal/entity"
)

// PartSuffix marks in-progress output files. A task is complete only once
// its part file has been renamed onto the final path.
const PartSuffix = ".part"

// Downloader fetches and muxes the streams of a single lecture task.
type Downloader interface {
	Process(ctx context.Context, task *entity.Task) error
}

func classifyProcessingError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "process"
	}
}
