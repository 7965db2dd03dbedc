// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"tgcdl/internal/consts"
	"tgcdl/internal/errs"
	"tgcdl/pkg/urls"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration. Environment variables provide
// the defaults; CLI flags override them after parsing.
type Config struct {
	App    App
	Run    Run
	Dir    Dir
	FFmpeg FFmpeg

	// Courses is the list of course URLs, taken from positional arguments.
	Courses []string `env:"-"`
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"TGCDL_APP_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"TGCDL_APP_LOG_JSON"  envDefault:"false"`
}

// Run holds per-run download behavior.
type Run struct {
	// Quality is the requested rendition height in pixels, 360 to 1080.
	Quality int `env:"TGCDL_RUN_QUALITY" envDefault:"1080"`
	// LectureRange restricts the run to a subset of lectures, e.g. "1-3,5".
	// Valid only when a single course URL is given.
	LectureRange string `env:"-"`
	// Container is the output container, mkv or mp4.
	Container string `env:"TGCDL_RUN_CONTAINER" envDefault:"mkv"`

	StreamingOutput bool `env:"-"`
	DryRun          bool `env:"-"`
	Debug           bool `env:"-"`

	MuxTimeout   time.Duration `env:"TGCDL_RUN_MUX_TIMEOUT"   envDefault:"45m"`
	FetchTimeout time.Duration `env:"TGCDL_RUN_FETCH_TIMEOUT" envDefault:"30s"`
}

// Dir holds directory and file paths.
type Dir struct {
	// Output is where course directories are created.
	Output string `env:"TGCDL_DIR_OUTPUT" envDefault:"."`

	// CookieFile is a Netscape-format cookies.txt exported from a signed-in
	// browser session.
	CookieFile string `env:"TGCDL_DIR_COOKIE_FILE" envDefault:"tgcp-cookies.txt"`
}

// FFmpeg holds external binary management configuration.
type FFmpeg struct {
	// BinsDir is the directory where managed binaries are stored.
	BinsDir string `env:"TGCDL_FFMPEG_BINS_DIR" envDefault:"./bins"`
	// UseSystemBinaries resolves ffmpeg/ffprobe from PATH instead of BinsDir.
	UseSystemBinaries bool `env:"TGCDL_FFMPEG_USE_SYSTEM_BINARIES" envDefault:"true"`
	// InstallMissing downloads a static build when no binary is found.
	InstallMissing bool `env:"TGCDL_FFMPEG_INSTALL_MISSING" envDefault:"false"`

	// Static build URLs per platform.
	LinuxARM64 string `env:"TGCDL_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
	LinuxAMD64 string `env:"TGCDL_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.tar.xz"`    //nolint:lll
}

// SetAbsPaths converts all directory paths to absolute paths.
func (d *Dir) SetAbsPaths() error {
	var err error
	if d.Output, err = filepath.Abs(d.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if d.CookieFile, err = filepath.Abs(d.CookieFile); err != nil {
		return fmt.Errorf("cookie file: %w", err)
	}

	return nil
}

// SetAbsPaths converts the BinsDir path to an absolute path.
func (f *FFmpeg) SetAbsPaths() error {
	var err error
	if f.BinsDir, err = filepath.Abs(f.BinsDir); err != nil {
		return fmt.Errorf("bins dir: %w", err)
	}

	return nil
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	err = cfg.FFmpeg.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set ffmpeg absolute paths: %w", err)
	}

	return cfg, nil
}

// Validate checks flag and argument combinations before any network I/O.
func (c *Config) Validate() error {
	if len(c.Courses) == 0 {
		return errs.ErrNoCourses
	}

	for i, raw := range c.Courses {
		fixed := urls.FixURL(urls.Normalize(raw))
		if !urls.IsURLValid(fixed) {
			return fmt.Errorf("%w: %q", errs.ErrInvalidCourseURL, raw)
		}

		c.Courses[i] = fixed
	}

	if c.Run.Quality < consts.MinQuality || c.Run.Quality > consts.MaxQuality {
		return fmt.Errorf("%w: %d not in %d-%d",
			errs.ErrQualityOutOfRange, c.Run.Quality, consts.MinQuality, consts.MaxQuality)
	}

	if c.Run.LectureRange != "" && len(c.Courses) > 1 {
		return fmt.Errorf("%w: %d courses given", errs.ErrRangeScope, len(c.Courses))
	}

	if c.Run.Container != "mkv" && c.Run.Container != "mp4" {
		return fmt.Errorf("unsupported container %q", c.Run.Container)
	}

	return nil
}
