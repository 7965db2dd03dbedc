// Package depmanager locates the external ffmpeg and ffprobe binaries,
// optionally installing a static build when none is present.
package depmanager

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"tgcdl/internal/config"
	"tgcdl/internal/errs"

	"github.com/ulikunitz/xz"
)

// BinaryName represents the name of a managed binary.
type BinaryName string

// Managed binaries. Both come from the same static ffmpeg build archive.
const (
	BinaryFFmpeg  BinaryName = "ffmpeg"
	BinaryFFprobe BinaryName = "ffprobe"
)

const (
	platformLinux   = "linux"
	platformWindows = "windows"
	archARM64       = "arm64"
)

const (
	downloadTimeout    = 10 * time.Minute
	filePermExecutable = 0o755
)

// Platform represents the OS and architecture combination.
type Platform struct {
	OS   string
	Arch string
}

// String returns the platform string in format "os/arch".
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Manager resolves paths to the ffmpeg and ffprobe binaries.
type Manager struct {
	log      *slog.Logger
	cfg      *config.Config
	platform Platform
	client   *http.Client

	mu       sync.RWMutex
	binPaths map[BinaryName]string
}

// New creates a binary manager.
func New(log *slog.Logger, cfg *config.Config) *Manager {
	return &Manager{
		log: log.With(slog.String("package", "depmanager")),
		cfg: cfg,
		platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		client: &http.Client{
			Timeout: downloadTimeout,
		},
		binPaths: make(map[BinaryName]string),
	}
}

// Resolve locates ffmpeg and ffprobe. With UseSystemBinaries it looks in the
// system PATH; otherwise it uses the bins directory, downloading a static
// build first when InstallMissing is set and the binaries are absent.
func (m *Manager) Resolve(ctx context.Context) error {
	if m.cfg.FFmpeg.UseSystemBinaries {
		if err := m.setSystemBinaries(); err == nil {
			return nil
		} else if !m.cfg.FFmpeg.InstallMissing {
			return err
		}
	}

	if m.hasInstalled() {
		m.log.DebugContext(ctx, "using installed binaries", slog.Any("binaries", m.paths()))

		return nil
	}

	if !m.cfg.FFmpeg.InstallMissing {
		return fmt.Errorf("%w: looked in %s", errs.ErrBinaryNotFound, m.cfg.FFmpeg.BinsDir)
	}

	return m.install(ctx)
}

// Path returns the resolved path for a binary, or empty if unresolved.
func (m *Manager) Path(name BinaryName) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.binPaths[name]
}

func (m *Manager) paths() map[BinaryName]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[BinaryName]string, len(m.binPaths))
	for name, path := range m.binPaths {
		out[name] = path
	}

	return out
}

func (m *Manager) setSystemBinaries() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, binary := range []BinaryName{BinaryFFmpeg, BinaryFFprobe} {
		path, err := exec.LookPath(string(binary))
		if err != nil {
			return fmt.Errorf("%w: %s not in system PATH", errs.ErrBinaryNotFound, binary)
		}

		m.binPaths[binary] = path
	}

	return nil
}

// installedPath returns where a managed binary lives inside the bins dir.
func (m *Manager) installedPath(name BinaryName) string {
	filename := string(name)
	if m.platform.OS == platformWindows {
		filename += ".exe"
	}

	return filepath.Join(m.cfg.FFmpeg.BinsDir, filename)
}

func (m *Manager) hasInstalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, binary := range []BinaryName{BinaryFFmpeg, BinaryFFprobe} {
		path := m.installedPath(binary)

		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			return false
		}

		m.binPaths[binary] = path
	}

	return true
}

func (m *Manager) install(ctx context.Context) error {
	url, err := m.archiveURL()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.cfg.FFmpeg.BinsDir, filePermExecutable); err != nil {
		return fmt.Errorf("create bins directory: %w", err)
	}

	m.log.InfoContext(ctx, "downloading static build", slog.String("url", url))

	if err := m.downloadAndExtract(ctx, url); err != nil {
		return fmt.Errorf("install static build: %w", err)
	}

	m.mu.Lock()
	for _, binary := range []BinaryName{BinaryFFmpeg, BinaryFFprobe} {
		path := m.installedPath(binary)
		if err := os.Chmod(path, filePermExecutable); err != nil {
			m.mu.Unlock()

			return fmt.Errorf("chmod %s: %w", path, err)
		}

		m.binPaths[binary] = path
	}
	m.mu.Unlock()

	m.log.InfoContext(ctx, "binaries installed", slog.Any("binaries", m.paths()))

	return nil
}

func (m *Manager) archiveURL() (string, error) {
	if m.platform.OS != platformLinux {
		return "", fmt.Errorf("%w: no static build for %s", errs.ErrUnsupportedPlatform, m.platform)
	}

	if m.platform.Arch == archARM64 {
		return m.cfg.FFmpeg.LinuxARM64, nil
	}

	return m.cfg.FFmpeg.LinuxAMD64, nil
}

func (m *Manager) downloadAndExtract(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(m.cfg.FFmpeg.BinsDir, "download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()

	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	targets := map[string]struct{}{
		string(BinaryFFmpeg):  {},
		string(BinaryFFprobe): {},
	}

	return m.extractFiles(tmpPath, m.cfg.FFmpeg.BinsDir, url, targets)
}

func (m *Manager) extractFiles(archivePath, destDir, url string, targets map[string]struct{}) error {
	switch {
	case strings.HasSuffix(url, ".zip"):
		return m.extractFromZip(archivePath, destDir, targets)
	case strings.HasSuffix(url, ".tar.xz"):
		return m.extractFromTarXZ(archivePath, destDir, targets)
	case strings.HasSuffix(url, ".tar.gz"):
		return m.extractFromTarGZ(archivePath, destDir, targets)
	default:
		return fmt.Errorf("unsupported archive format")
	}
}

func (m *Manager) extractFromZip(zipPath, destDir string, targets map[string]struct{}) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	extracted := 0

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		filename := file.FileInfo().Name()
		if _, ok := targets[filename]; !ok {
			continue
		}

		fileReader, err := file.Open()
		if err != nil {
			return fmt.Errorf("open file in zip: %w", err)
		}

		destPath := filepath.Join(destDir, filename)

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
		if err != nil {
			fileReader.Close()

			return fmt.Errorf("create dest file: %w", err)
		}

		_, err = io.Copy(outFile, fileReader)
		fileReader.Close()
		outFile.Close()

		if err != nil {
			return fmt.Errorf("extract file: %w", err)
		}

		extracted++

		if extracted == len(targets) {
			return nil
		}
	}

	if extracted == 0 {
		return fmt.Errorf("no target files found in zip archive")
	}

	return nil
}

func (m *Manager) extractFromTarXZ(tarXZPath, destDir string, targets map[string]struct{}) error {
	file, err := os.Open(tarXZPath)
	if err != nil {
		return fmt.Errorf("open tar.xz: %w", err)
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	return m.extractTarSelected(xzReader, destDir, targets)
}

func (m *Manager) extractFromTarGZ(tarGZPath, destDir string, targets map[string]struct{}) error {
	file, err := os.Open(tarGZPath)
	if err != nil {
		return fmt.Errorf("open tar.gz: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzReader.Close()

	return m.extractTarSelected(gzReader, destDir, targets)
}

func (m *Manager) extractTarSelected(reader io.Reader, destDir string, targets map[string]struct{}) error {
	tarReader := tar.NewReader(reader)
	extracted := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		filename := filepath.Base(header.Name)
		if _, ok := targets[filename]; !ok {
			continue
		}

		destPath := filepath.Join(destDir, filename)

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
		if err != nil {
			return fmt.Errorf("create dest file: %w", err)
		}

		_, err = io.Copy(outFile, tarReader)
		outFile.Close()

		if err != nil {
			return fmt.Errorf("extract file: %w", err)
		}

		extracted++

		if extracted == len(targets) {
			return nil
		}
	}

	if extracted == 0 {
		return fmt.Errorf("no target files found in tar archive")
	}

	return nil
}
