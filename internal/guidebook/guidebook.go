// Package guidebook downloads the course guidebook PDF.
package guidebook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"

	"tgcdl/internal/consts"
	"tgcdl/internal/entity"
	"tgcdl/internal/errs"
	"tgcdl/internal/webclient"
	"tgcdl/pkg/calc"
)

// Fetcher downloads guidebook PDFs next to the course video files.
type Fetcher struct {
	log     *slog.Logger
	client  *webclient.Client
	showBar bool
}

// New creates a guidebook fetcher. showBar enables the terminal progress bar.
func New(log *slog.Logger, client *webclient.Client, showBar bool) *Fetcher {
	return &Fetcher{
		log:     log.With(slog.String("package", "guidebook")),
		client:  client,
		showBar: showBar,
	}
}

// Fetch downloads the course guidebook into courseDir, skipping when the
// course has no guidebook or the file already exists. dryRun logs the plan
// without touching the network or disk.
func (f *Fetcher) Fetch(ctx context.Context, course *entity.Course, courseDir string, dryRun bool) error {
	if course.GuidebookURL == "" {
		f.log.DebugContext(ctx, "course has no guidebook", "course", course)

		return nil
	}

	pdfURL, err := CDNLink(course.GuidebookURL)
	if err != nil {
		return err
	}

	destination := filepath.Join(courseDir, course.DirectoryName()+" [Guidebook].pdf")

	if info, err := os.Stat(destination); err == nil && info.Size() > 0 {
		f.log.InfoContext(ctx, "guidebook already present", slog.String("destination", destination))

		return nil
	}

	if dryRun {
		f.log.InfoContext(ctx, "would download guidebook",
			slog.String("url", pdfURL), slog.String("destination", destination))

		return nil
	}

	f.log.InfoContext(ctx, "downloading guidebook", slog.String("url", pdfURL))

	resp, err := f.client.Stream(ctx, pdfURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := f.save(resp, destination); err != nil {
		return err
	}

	f.log.InfoContext(ctx, "guidebook saved", slog.String("destination", destination))

	return nil
}

func (f *Fetcher) save(resp *http.Response, destination string) error {
	part := destination + ".part"

	out, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create %s: %w", part, err)
	}

	body := resp.Body

	var bar *pb.ProgressBar
	if f.showBar {
		bar = pb.New64(resp.ContentLength).Set(pb.Bytes, true)
		bar.Start()
		body = bar.NewProxyReader(resp.Body)
	} else {
		body = io.NopCloser(&progressReader{
			r:       resp.Body,
			total:   resp.ContentLength,
			started: time.Now(),
			log:     f.log,
		})
	}

	_, err = io.Copy(out, body)

	if bar != nil {
		bar.Finish()
	}

	if cerr := out.Close(); cerr != nil && err == nil {
		err = cerr
	}

	if err != nil {
		os.Remove(part)

		return fmt.Errorf("write %s: %w", part, err)
	}

	if err := os.Rename(part, destination); err != nil {
		return fmt.Errorf("finalize %s: %w", destination, err)
	}

	return nil
}

// progressReader logs download progress in ten percent steps when no
// terminal bar is shown.
type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	lastPct int
	started time.Time
	log     *slog.Logger
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)

	if pr.total > 0 {
		if pct := calc.Progress(int(pr.read), int(pr.total)); pct >= pr.lastPct+10 {
			pr.lastPct = pct
			pr.log.Debug("guidebook progress",
				slog.Int("percent", pct),
				slog.Duration("eta", calc.ETA(int(pr.read), int(pr.total), pr.started)))
		}
	}

	return n, err
}

// CDNLink rewrites a guidebook viewer href into the direct PDF location,
// e.g. ".../pdf/index/index/docName/8540.pdf/" becomes
// "https://secureimages.teach12.com/CourseGuideBooks/8540.pdf".
func CDNLink(viewerURL string) (string, error) {
	rest, found := strings.CutPrefix(viewerURL, consts.GuidebookViewerPrefix)
	if !found {
		return "", fmt.Errorf("%w: unrecognized viewer link %q", errs.ErrGuidebookURL, viewerURL)
	}

	name := strings.Trim(rest, "/")

	id, found := strings.CutSuffix(name, ".pdf")
	if !found || id == "" {
		return "", fmt.Errorf("%w: unrecognized document name %q", errs.ErrGuidebookURL, viewerURL)
	}

	return fmt.Sprintf(consts.GuidebookCDNFormat, id), nil
}
