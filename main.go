// entry point of the application
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tgcdl/internal/config"
	"tgcdl/internal/consts"
	"tgcdl/internal/cookies"
	"tgcdl/internal/depmanager"
	"tgcdl/internal/downloader"
	"tgcdl/internal/guidebook"
	"tgcdl/internal/manifest"
	"tgcdl/internal/observability"
	"tgcdl/internal/scraper"
	"tgcdl/internal/service"
	"tgcdl/internal/webclient"
	"tgcdl/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()

	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tgcdl [flags] COURSE_URL...",
		Short:         "Download course lectures and guidebooks",
		Args:          cobra.MinimumNArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("cookies-file", "c", consts.DefaultCookieFile,
		"Netscape cookies.txt exported from a signed-in browser session")
	cmd.Flags().StringP("output-directory", "o", ".", "directory where course directories are created")
	cmd.Flags().IntP("quality", "q", consts.DefaultQuality, "video height in pixels, 360 to 1080")
	cmd.Flags().StringP("lecture-range", "r", "", `lecture subset, e.g. "3", "1-5" or "1-3,5" (single course only)`)
	cmd.Flags().BoolP("streaming-output", "s", false, "forward filtered ffmpeg output while downloading")
	cmd.Flags().BoolP("debug", "d", false, "debug-level logging")
	cmd.Flags().BoolP("dry-run", "n", false, "log what would be downloaded without writing video files")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))

		return err
	}

	if err := applyFlags(cmd, cfg, args); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid arguments", slog.Any("error", err))

		return err
	}

	if cfg.Run.Debug {
		cfg.App.LogLevel = "debug"
	}

	log, err := logger.New(&logger.Options{
		AddSource: cfg.Run.Debug,
		Level:     cfg.App.LogLevel,
		JSON:      cfg.App.LogJSON,
	})
	if err != nil {
		slog.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	jar, err := cookies.Load(cfg.Dir.CookieFile)
	if err != nil {
		log.ErrorContext(ctx, "load cookies", slog.Any("error", err))

		return err
	}

	depMgr := depmanager.New(log, cfg)

	if !cfg.Run.DryRun {
		if err := depMgr.Resolve(ctx); err != nil {
			log.ErrorContext(ctx, "resolve binaries", slog.Any("error", err))

			return err
		}
	}

	metrics := observability.New()
	client := webclient.New(log, jar, cfg.Run.FetchTimeout)
	dl := downloader.NewFFmpeg(log, cfg, depMgr.Path(depmanager.BinaryFFmpeg), depMgr.Path(depmanager.BinaryFFprobe))

	svc := service.New(log, cfg,
		scraper.New(log, client),
		manifest.New(log, client),
		guidebook.New(log, client, !cfg.App.LogJSON),
		dl,
		metrics)

	if err := svc.Run(ctx); err != nil {
		log.ErrorContext(ctx, "run failed", slog.Any("error", err))

		return err
	}

	return nil
}

// applyFlags copies flag values into the env-loaded config; flags win over
// environment defaults.
func applyFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	cfg.Courses = args

	flags := cmd.Flags()

	if flags.Changed("cookies-file") {
		if cfg.Dir.CookieFile, _ = flags.GetString("cookies-file"); cfg.Dir.CookieFile != "" {
			if err := cfg.Dir.SetAbsPaths(); err != nil {
				return err
			}
		}
	}

	if flags.Changed("output-directory") {
		cfg.Dir.Output, _ = flags.GetString("output-directory")
		if err := cfg.Dir.SetAbsPaths(); err != nil {
			return err
		}
	}

	if flags.Changed("quality") {
		cfg.Run.Quality, _ = flags.GetInt("quality")
	}

	cfg.Run.LectureRange, _ = flags.GetString("lecture-range")
	cfg.Run.StreamingOutput, _ = flags.GetBool("streaming-output")
	cfg.Run.Debug, _ = flags.GetBool("debug")
	cfg.Run.DryRun, _ = flags.GetBool("dry-run")

	return nil
}
