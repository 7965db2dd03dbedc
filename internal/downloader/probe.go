package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// ProbeStream is one stream entry of an ffprobe report.
type ProbeStream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Channels  int    `json:"channels,omitempty"`
}

// ProbeReport is the parsed output of ffprobe -show_streams.
type ProbeReport struct {
	Streams []ProbeStream `json:"streams"`
}

// HasVideo reports whether the probed input carries a video stream.
func (r *ProbeReport) HasVideo() bool {
	return r.hasType("video")
}

// HasAudio reports whether the probed input carries an audio stream.
func (r *ProbeReport) HasAudio() bool {
	return r.hasType("audio")
}

func (r *ProbeReport) hasType(codecType string) bool {
	for _, s := range r.Streams {
		if s.CodecType == codecType {
			return true
		}
	}

	return false
}

// Probe inspects a file or URL with ffprobe at bin and returns its streams.
func Probe(ctx context.Context, bin, input string) (*ProbeReport, error) {
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		input)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", input, err)
	}

	var report ProbeReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	return &report, nil
}
