package scraper_test

import (
	_ "embed"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tgcdl/internal/errs"
	"tgcdl/internal/scraper"
	"tgcdl/internal/webclient"
)

//go:embed testdata/course.html
var courseHTML []byte

//go:embed testdata/signedout.html
var signedOutHTML []byte

func newTestScraper(t *testing.T, page []byte, status int) (*scraper.Scraper, string) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write(page)
	}))
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := webclient.New(log, nil, 5*time.Second)

	return scraper.New(log, client), srv.URL
}

func TestCourse(t *testing.T) {
	scr, url := newTestScraper(t, courseHTML, http.StatusOK)

	course, err := scr.Course(t.Context(), url)
	if err != nil {
		t.Fatalf("Course: %v", err)
	}

	if want := "The Black Death - The World's Most Devastating Plague"; course.Title != want {
		t.Errorf("Title = %q, want %q", course.Title, want)
	}

	if want := "Dorsey Armstrong"; course.Professor != want {
		t.Errorf("Professor = %q, want %q", course.Professor, want)
	}

	if course.ID != "8241" {
		t.Errorf("ID = %q, want %q", course.ID, "8241")
	}

	if want := "https://www.thegreatcoursesplus.com/pdf/index/index/docName/8241.pdf/"; course.GuidebookURL != want {
		t.Errorf("GuidebookURL = %q, want %q", course.GuidebookURL, want)
	}

	if len(course.Lectures) != 3 {
		t.Fatalf("len(Lectures) = %d, want 3", len(course.Lectures))
	}

	first := course.Lectures[0]

	if first.Index != 1 || first.Number != "01" {
		t.Errorf("first lecture index = %d number = %q, want 1 and 01", first.Index, first.Number)
	}

	if want := "The Path of the Plague"; first.Title != want {
		t.Errorf("first lecture title = %q, want %q", first.Title, want)
	}

	wantManifest := "https://d2xkd2f0jrshqp.cloudfront.net/v1/8241-001/master.m3u8?policy=eyJhbGciOiJIUzI1NiJ9"
	if first.ManifestURL != wantManifest {
		t.Errorf("first lecture manifest = %q, want %q", first.ManifestURL, wantManifest)
	}

	second := course.Lectures[1]

	if want := "Plague_ Politics and Economics"; second.SafeTitle != want {
		t.Errorf("second lecture safe title = %q, want %q", second.SafeTitle, want)
	}
}

func TestCourseSignedOut(t *testing.T) {
	scr, url := newTestScraper(t, signedOutHTML, http.StatusOK)

	_, err := scr.Course(t.Context(), url)
	if !errors.Is(err, errs.ErrAuthExpired) {
		t.Errorf("Course error = %v, want ErrAuthExpired", err)
	}
}

func TestCourseSignedOutWithoutHeader(t *testing.T) {
	page := []byte(`<html><body><form class="login-form" action="/login" method="post"></form></body></html>`)

	scr, url := newTestScraper(t, page, http.StatusOK)

	_, err := scr.Course(t.Context(), url)
	if !errors.Is(err, errs.ErrAuthExpired) {
		t.Errorf("Course error = %v, want ErrAuthExpired", err)
	}
}

func TestCourseNotFound(t *testing.T) {
	scr, url := newTestScraper(t, []byte("not found"), http.StatusNotFound)

	_, err := scr.Course(t.Context(), url)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Course error = %v, want ErrNotFound", err)
	}
}

func TestCourseEmptyPage(t *testing.T) {
	scr, url := newTestScraper(t, []byte("<html><body></body></html>"), http.StatusOK)

	_, err := scr.Course(t.Context(), url)
	if !errors.Is(err, errs.ErrPageStructure) {
		t.Errorf("Course error = %v, want ErrPageStructure", err)
	}
}
