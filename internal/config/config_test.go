package config_test

import (
	"errors"
	"testing"

	"tgcdl/internal/config"
	"tgcdl/internal/errs"
)

const testCourseURL = "https://www.thegreatcoursesplus.com/the-black-death"

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}

	cfg.Courses = []string{testCourseURL}

	return cfg
}

func TestNewDefaults(t *testing.T) {
	cfg := newTestConfig(t)

	if cfg.Run.Quality != 1080 {
		t.Errorf("Quality = %d, want 1080", cfg.Run.Quality)
	}

	if cfg.Run.Container != "mkv" {
		t.Errorf("Container = %q, want mkv", cfg.Run.Container)
	}

	if cfg.Dir.CookieFile == "" || cfg.Dir.CookieFile[0] != '/' {
		t.Errorf("CookieFile = %q, want an absolute path", cfg.Dir.CookieFile)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:   "defaults are valid",
			mutate: func(*config.Config) {},
		},
		{
			name: "scheme added to bare host",
			mutate: func(cfg *config.Config) {
				cfg.Courses = []string{"www.thegreatcoursesplus.com/the-black-death"}
			},
		},
		{
			name: "range with single course",
			mutate: func(cfg *config.Config) {
				cfg.Run.LectureRange = "1-3"
			},
		},
		{
			name:    "no courses",
			mutate:  func(cfg *config.Config) { cfg.Courses = nil },
			wantErr: errs.ErrNoCourses,
		},
		{
			name: "unparsable course URL",
			mutate: func(cfg *config.Config) {
				cfg.Courses = []string{"://not a url"}
			},
			wantErr: errs.ErrInvalidCourseURL,
		},
		{
			name:    "quality too low",
			mutate:  func(cfg *config.Config) { cfg.Run.Quality = 240 },
			wantErr: errs.ErrQualityOutOfRange,
		},
		{
			name:    "quality too high",
			mutate:  func(cfg *config.Config) { cfg.Run.Quality = 2160 },
			wantErr: errs.ErrQualityOutOfRange,
		},
		{
			name: "range with multiple courses",
			mutate: func(cfg *config.Config) {
				cfg.Courses = []string{testCourseURL, testCourseURL + "-2"}
				cfg.Run.LectureRange = "1-3"
			},
			wantErr: errs.ErrRangeScope,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			tc.mutate(cfg)

			err := cfg.Validate()

			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}

				return
			}

			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateNormalizesCourseURLs(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Courses = []string{" www.thegreatcoursesplus.com/the-black-death "}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Courses[0] != testCourseURL {
		t.Errorf("course URL = %q, want %q", cfg.Courses[0], testCourseURL)
	}
}

func TestValidateUnsupportedContainer(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Run.Container = "avi"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unsupported container")
	}
}
