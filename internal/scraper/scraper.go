// Package scraper extracts course and lecture metadata from course pages.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"tgcdl/internal/entity"
	"tgcdl/internal/errs"
	"tgcdl/internal/webclient"
	"tgcdl/pkg/sanitize"

	"golang.org/x/net/html"
)

var (
	reLectureSuffix = regexp.MustCompile(`-L\d+`)
	reBaseURL       = regexp.MustCompile(`"baseUrl":\s*"(.*?)"`)
	reManifestParam = regexp.MustCompile(`"manifestParam":\s*"(.*?)"`)
)

const (
	playerScriptMarker = "rbBitPlayer"
	guidebookKeyword   = "Guidebook"
)

// Scraper fetches and parses course pages.
type Scraper struct {
	log    *slog.Logger
	client *webclient.Client
}

// New creates a course page scraper.
func New(log *slog.Logger, client *webclient.Client) *Scraper {
	return &Scraper{
		log:    log.With(slog.String("package", "scraper")),
		client: client,
	}
}

// Course fetches url and scrapes it into an entity.Course with its ordered
// lectures. A page without lecture markup is errs.ErrPageStructure, or
// errs.ErrAuthExpired when the page shows the signed-out layout instead.
func (s *Scraper) Course(ctx context.Context, url string) (*entity.Course, error) {
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse course page: %w", err)
	}

	course := &entity.Course{URL: url}

	if err := s.parseHeader(ctx, root, course); err != nil {
		return nil, err
	}

	lectureDivs := findAll(root, byTagAttr("div", "data-lec-id"))
	if len(lectureDivs) == 0 {
		if isSignedOut(root) {
			return nil, fmt.Errorf("%w: %s", errs.ErrAuthExpired, url)
		}

		return nil, fmt.Errorf("%w: no lecture entries on %s", errs.ErrPageStructure, url)
	}

	course.ID = courseID(attr(lectureDivs[0], "data-lec-id"))

	baseURL, manifestParam := playerConfig(root)
	if baseURL == "" || manifestParam == "" {
		s.log.WarnContext(ctx, "player config not found; manifest URLs unavailable",
			slog.String("url", url))
	}

	for i, div := range lectureDivs {
		lecture, err := s.parseLecture(div, baseURL, manifestParam)
		if err != nil {
			s.log.WarnContext(ctx, "skipping unparsable lecture entry",
				slog.Int("position", i+1), slog.Any("error", err))

			continue
		}

		course.Lectures = append(course.Lectures, lecture)
	}

	if len(course.Lectures) == 0 {
		return nil, fmt.Errorf("%w: no parsable lectures on %s", errs.ErrPageStructure, url)
	}

	s.log.DebugContext(ctx, "course scraped", "course", course)

	return course, nil
}

func (s *Scraper) parseHeader(ctx context.Context, root *html.Node, course *entity.Course) error {
	info := findFirst(root, byTagClass("div", "course-info-container"))
	if info == nil {
		if isSignedOut(root) {
			return fmt.Errorf("%w: %s", errs.ErrAuthExpired, course.URL)
		}

		return fmt.Errorf("%w: missing course info container", errs.ErrPageStructure)
	}

	title := text(findFirst(info, func(n *html.Node) bool { return n.Data == "h1" }))
	if title == "" {
		return fmt.Errorf("%w: missing course title", errs.ErrPageStructure)
	}

	course.Title = sanitize.Filename(title)

	prof := findFirst(root, byTagClass("a", "professor-name"))
	if prof == nil {
		return fmt.Errorf("%w: missing professor name", errs.ErrPageStructure)
	}

	course.Professor = text(prof)

	if gb := findFirst(root, byTagClass("a", "guidebook-btn")); gb != nil {
		if strings.Contains(text(gb), guidebookKeyword) {
			course.GuidebookURL = attr(gb, "href")
		}
	}

	if desc := findFirst(root, func(n *html.Node) bool {
		return n.Data == "div" && attr(n, "id") == "overview-section-content"
	}); desc != nil {
		course.Description = text(findFirst(desc, func(n *html.Node) bool { return n.Data == "p" }))
	}

	if course.GuidebookURL == "" {
		s.log.DebugContext(ctx, "course has no guidebook link")
	}

	return nil
}

func (s *Scraper) parseLecture(div *html.Node, baseURL, manifestParam string) (entity.Lecture, error) {
	id := strings.TrimSpace(attr(div, "data-lec-id"))
	videoID := strings.TrimSpace(attr(div, "data-video-id"))

	idx, err := strconv.Atoi(strings.TrimSpace(attr(div, "data-idx")))
	if err != nil {
		return entity.Lecture{}, fmt.Errorf("lecture %q: bad data-idx: %w", id, err)
	}

	img := findFirst(div, func(n *html.Node) bool { return n.Data == "img" })
	if img == nil || attr(img, "alt") == "" {
		return entity.Lecture{}, fmt.Errorf("lecture %q: no title image", id)
	}

	title := strings.TrimSpace(attr(img, "alt"))

	var manifestURL string
	if baseURL != "" && manifestParam != "" && videoID != "" {
		manifestURL = baseURL + videoID + "/" + manifestParam
	}

	description := text(findFirst(div, func(n *html.Node) bool { return n.Data == "p" }))

	return entity.Lecture{
		ID:          id,
		Index:       idx,
		Number:      fmt.Sprintf("%02d", idx),
		Title:       title,
		SafeTitle:   sanitize.FilenameUnderscored(title),
		Description: description,
		ManifestURL: manifestURL,
	}, nil
}

// courseID derives the course identifier from the first lecture ID,
// e.g. "ZV8540-L01" => "8540".
func courseID(lectureID string) string {
	return strings.TrimSpace(strings.ReplaceAll(reLectureSuffix.ReplaceAllString(lectureID, ""), "ZV", ""))
}

// playerConfig pulls the manifest base URL and parameter out of the inline
// player bootstrap script.
func playerConfig(root *html.Node) (baseURL, manifestParam string) {
	script := findFirst(root, func(n *html.Node) bool {
		return n.Data == "script" && strings.Contains(scriptText(n), playerScriptMarker)
	})
	if script == nil {
		return "", ""
	}

	content := scriptText(script)

	if m := reBaseURL.FindStringSubmatch(content); m != nil {
		baseURL = m[1]
	}

	if m := reManifestParam.FindStringSubmatch(content); m != nil {
		manifestParam = m[1]
	}

	return baseURL, manifestParam
}

// isSignedOut reports whether the page looks like the logged-out layout:
// a sign-in form where the lecture list should be.
func isSignedOut(root *html.Node) bool {
	return findFirst(root, func(n *html.Node) bool {
		if n.Data != "form" && n.Data != "a" && n.Data != "div" {
			return false
		}

		marker := strings.ToLower(attr(n, "class") + " " + attr(n, "id") + " " + attr(n, "action"))

		return strings.Contains(marker, "login") || strings.Contains(marker, "sign-in") ||
			strings.Contains(marker, "signin")
	}) != nil
}
