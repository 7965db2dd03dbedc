// Package manifest resolves a lecture's HLS master playlist into the pair
// of video and audio stream URLs that ffmpeg will consume.
package manifest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"

	"tgcdl/internal/entity"
	"tgcdl/internal/errs"
	"tgcdl/internal/webclient"
	"tgcdl/pkg/urls"
)

const alternativeTypeAudio = "AUDIO"

// The m3u8 decoder does not surface the EXT-X-MEDIA CHANNELS attribute, so
// channel counts are pulled from the raw playlist lines.
var (
	reMediaLine    = regexp.MustCompile(`(?m)^#EXT-X-MEDIA:.*$`)
	reAttrType     = regexp.MustCompile(`TYPE=([A-Za-z-]+)`)
	reAttrURI      = regexp.MustCompile(`URI="([^"]*)"`)
	reAttrChannels = regexp.MustCompile(`CHANNELS="([^"]*)"`)
)

// Resolver fetches master playlists and picks streams for a requested quality.
type Resolver struct {
	log    *slog.Logger
	client *webclient.Client
}

// New creates a manifest resolver.
func New(log *slog.Logger, client *webclient.Client) *Resolver {
	return &Resolver{
		log:    log.With(slog.String("package", "manifest")),
		client: client,
	}
}

// Streams fetches the master playlist at manifestURL and selects the video
// rendition for the requested quality together with the audio track.
// Selection prefers an exact height match, then the highest rendition not
// above the request, then the lowest one available.
func (r *Resolver) Streams(ctx context.Context, manifestURL string, quality int) (entity.Streams, error) {
	resp, err := r.client.Get(ctx, manifestURL)
	if err != nil {
		return entity.Streams{}, err
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(resp.Body), true)
	if err != nil {
		return entity.Streams{}, fmt.Errorf("decode playlist %s: %w", manifestURL, err)
	}

	if listType != m3u8.MASTER {
		return entity.Streams{}, fmt.Errorf("%w: %s is not a master playlist", errs.ErrNoRendition, manifestURL)
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return entity.Streams{}, fmt.Errorf("%w: %s is not a master playlist", errs.ErrNoRendition, manifestURL)
	}

	renditions := collectRenditions(master, resp.FinalURL)
	if len(renditions) == 0 {
		return entity.Streams{}, fmt.Errorf("%w: %s", errs.ErrNoRendition, manifestURL)
	}

	audio, err := collectAudio(master, resp.FinalURL, audioChannels(resp.Body))
	if err != nil {
		return entity.Streams{}, fmt.Errorf("%w: %s", err, manifestURL)
	}

	video := selectRendition(renditions, quality)

	if video.Height != quality {
		r.log.InfoContext(ctx, "requested quality unavailable, falling back",
			slog.Int("requested", quality),
			slog.Int("selected", video.Height))
	}

	return entity.Streams{Video: video, Audio: audio}, nil
}

func collectRenditions(master *m3u8.MasterPlaylist, base string) []entity.Rendition {
	renditions := make([]entity.Rendition, 0, len(master.Variants))

	for _, variant := range master.Variants {
		if variant == nil || variant.Iframe || variant.URI == "" {
			continue
		}

		renditions = append(renditions, entity.Rendition{
			Height:    resolutionHeight(variant.Resolution),
			Bandwidth: variant.Bandwidth,
			URI:       urls.ResolveReference(base, variant.URI),
		})
	}

	sort.Slice(renditions, func(i, j int) bool {
		if renditions[i].Height != renditions[j].Height {
			return renditions[i].Height < renditions[j].Height
		}

		return renditions[i].Bandwidth < renditions[j].Bandwidth
	})

	return renditions
}

func collectAudio(master *m3u8.MasterPlaylist, base string, channels map[string]int) (entity.AudioTrack, error) {
	tracks := make(map[string]entity.AudioTrack)

	for _, variant := range master.Variants {
		if variant == nil {
			continue
		}

		for _, alt := range variant.Alternatives {
			if alt == nil || alt.Type != alternativeTypeAudio || alt.URI == "" {
				continue
			}

			uri := urls.ResolveReference(base, alt.URI)
			tracks[uri] = entity.AudioTrack{
				URI:      uri,
				Channels: channels[alt.URI],
			}
		}
	}

	switch len(tracks) {
	case 0:
		return entity.AudioTrack{}, errs.ErrNoAudioTrack
	case 1:
		for _, track := range tracks {
			return track, nil
		}
	}

	return entity.AudioTrack{}, errs.ErrAmbiguousAudio
}

// selectRendition assumes renditions sorted by ascending height.
func selectRendition(renditions []entity.Rendition, quality int) entity.Rendition {
	best := renditions[0]

	for _, r := range renditions {
		if r.Height == quality {
			return r
		}

		if r.Height < quality && r.Height > best.Height {
			best = r
		}
	}

	return best
}

// resolutionHeight extracts the height from a RESOLUTION value like "1280x720".
func resolutionHeight(resolution string) int {
	_, h, ok := strings.Cut(resolution, "x")
	if !ok {
		return 0
	}

	height, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}

	return height
}

// audioChannels maps every audio EXT-X-MEDIA URI of the raw playlist to its
// CHANNELS count. URIs are keyed as written, before resolution.
func audioChannels(playlist []byte) map[string]int {
	channels := make(map[string]int)

	for _, line := range reMediaLine.FindAllString(string(playlist), -1) {
		if m := reAttrType.FindStringSubmatch(line); m == nil || m[1] != alternativeTypeAudio {
			continue
		}

		uri := reAttrURI.FindStringSubmatch(line)
		count := reAttrChannels.FindStringSubmatch(line)

		if uri == nil || uri[1] == "" || count == nil {
			continue
		}

		channels[uri[1]] = channelCount(count[1])
	}

	return channels
}

// channelCount parses a CHANNELS value like "2" or "2/JOC".
func channelCount(channels string) int {
	first, _, _ := strings.Cut(channels, "/")

	n, err := strconv.Atoi(first)
	if err != nil {
		return 0
	}

	return n
}
