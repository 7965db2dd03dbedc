package downloader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"tgcdl/internal/config"
	"tgcdl/internal/consts"
	"tgcdl/internal/entity"
	"tgcdl/internal/errs"
	"tgcdl/pkg/shellquote"
)

const stderrTailLines = 30

var reFrame = regexp.MustCompile(`frame=\s*(\d+)`)

// FFmpeg drives an external ffmpeg binary to fetch and mux HLS streams.
type FFmpeg struct {
	log      *slog.Logger
	cfg      *config.Config
	bin      string
	probeBin string
	out      io.Writer
}

// NewFFmpeg creates an ffmpeg downloader using the given binary paths.
// probeBin may be empty, in which case finished files are not verified.
func NewFFmpeg(log *slog.Logger, cfg *config.Config, bin, probeBin string) *FFmpeg {
	return &FFmpeg{
		log:      log.With(slog.String("package", "downloader"), slog.String("downloader", consts.DownloaderFFmpeg)),
		cfg:      cfg,
		bin:      bin,
		probeBin: probeBin,
		out:      os.Stderr,
	}
}

// Process fetches and muxes the task's streams into a part file and renames
// it onto the final path on success. A non-zero ffmpeg exit wraps
// errs.ErrMux with the exit code and the captured stderr tail.
func (d *FFmpeg) Process(ctx context.Context, task *entity.Task) error {
	if task == nil {
		return errs.ErrTaskNil
	}

	log := d.log.With("task", task)

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Run.MuxTimeout)
	defer cancel()

	part := task.Destination + PartSuffix
	args := muxArgs(task, d.cfg.Run.Container, part)

	log.DebugContext(ctx, "running ffmpeg", slog.String("command", shellquote.Join(d.bin, args)))

	cmd := exec.CommandContext(ctx, d.bin, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	tail := d.relay(ctx, stderr)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}

		log.ErrorContext(ctx, "ffmpeg failed",
			slog.Any("error", err),
			slog.String("class", classifyProcessingError(err)),
			slog.String("stderr_tail", strings.Join(tail, "\n")))

		return fmt.Errorf("%w: %w: %s", errs.ErrMux, err, strings.Join(tail, "\n"))
	}

	if err := os.Rename(part, task.Destination); err != nil {
		return fmt.Errorf("finalize %s: %w", task.Destination, err)
	}

	d.verify(ctx, log, task.Destination)

	log.InfoContext(ctx, "lecture muxed", slog.String("destination", task.Destination))

	return nil
}

// verify probes the finished file and warns when a stream is missing. A mux
// that exits zero can still drop a track when the playlist was malformed.
func (d *FFmpeg) verify(ctx context.Context, log *slog.Logger, dest string) {
	if d.probeBin == "" {
		return
	}

	report, err := Probe(ctx, d.probeBin, dest)
	if err != nil {
		log.WarnContext(ctx, "probing output failed", slog.Any("error", err))

		return
	}

	if !report.HasVideo() || !report.HasAudio() {
		log.WarnContext(ctx, "output is missing a stream",
			slog.String("destination", dest),
			slog.Bool("video", report.HasVideo()),
			slog.Bool("audio", report.HasAudio()))
	}
}

// muxArgs mirrors the web player's stream layout: video plus optional
// embedded subtitles from the first input, the audio track from the second,
// all stream-copied.
func muxArgs(task *entity.Task, container, output string) []string {
	args := []string{
		"-y",
		"-f", "hls",
		"-i", task.Streams.Video.URI,
		"-i", task.Streams.Audio.URI,
		"-c", "copy",
		"-map", "0:v:0",
		"-map", "0:s?",
		"-map", "1:a:0",
		"-disposition:s:0", "default",
		"-metadata", "title=" + task.Lecture.Title,
		"-metadata:s:a:0", "language=eng",
		"-metadata:s:a:0", "title=" + audioTitle(task.Streams.Audio.Channels),
	}

	switch container {
	case "mp4":
		args = append(args, "-movflags", "+faststart", "-f", "mp4")
	default:
		args = append(args, "-reserve_index_space", "50k", "-f", "matroska")
	}

	return append(args, output)
}

func audioTitle(channels int) string {
	if channels == 1 {
		return "English Mono"
	}

	return "English Stereo"
}

// relay consumes ffmpeg stderr line by line, keeping a bounded tail for
// error reporting. In streaming output mode it forwards the lines, minus
// segment-open noise and repeated frame counters.
func (d *FFmpeg) relay(ctx context.Context, stderr io.Reader) []string {
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanCRLines)

	var (
		tail      []string
		lastFrame = -1
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tail = append(tail, line)
		if len(tail) > stderrTailLines {
			tail = tail[1:]
		}

		if !d.cfg.Run.StreamingOutput {
			continue
		}

		if isSegmentOpen(line) {
			continue
		}

		if frame, ok := frameCount(line); ok {
			if frame <= lastFrame {
				continue
			}

			lastFrame = frame
		}

		fmt.Fprintln(d.out, line)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		d.log.WarnContext(ctx, "reading ffmpeg output", slog.Any("error", err))
	}

	return tail
}

// isSegmentOpen reports whether line is ffmpeg announcing an HLS segment
// fetch, one per segment, pure noise at default verbosity.
func isSegmentOpen(line string) bool {
	return strings.Contains(line, "Opening 'http") && strings.Contains(line, "' for reading")
}

func frameCount(line string) (int, bool) {
	m := reFrame.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return n, true
}

// scanCRLines splits on \n or \r. ffmpeg redraws its progress line with
// bare carriage returns, which bufio.ScanLines would merge into one line.
func scanCRLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}
