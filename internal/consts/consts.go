// Package consts defines application-wide constants.
package consts

import "time"

// Quality bounds accepted by the --quality flag, in pixels of height.
const (
	MinQuality = 360
	MaxQuality = 1080
)

// Defaults.
const (
	// DefaultQuality is the rendition height requested when no flag is given.
	DefaultQuality = 1080
	// DefaultCookieFile is the cookie file looked up in the working directory.
	DefaultCookieFile = "tgcp-cookies.txt"
	// DefaultMuxTimeout bounds a single lecture fetch+mux invocation.
	DefaultMuxTimeout = 45 * time.Minute
	// DefaultFetchTimeout bounds a single page or playlist request.
	DefaultFetchTimeout = 30 * time.Second
)

// Downloader identifiers.
const (
	// DownloaderFFmpeg is the ffmpeg downloader identifier.
	DownloaderFFmpeg = "ffmpeg"
	// DownloaderMock is the mock downloader identifier for testing.
	DownloaderMock = "mock"
)

// Guidebook URL scheme. Course pages link guidebooks through a viewer
// endpoint; the PDF itself lives on the images CDN.
const (
	GuidebookViewerPrefix = "https://www.thegreatcoursesplus.com/pdf/index/index/docName/"
	GuidebookCDNFormat    = "https://secureimages.teach12.com/CourseGuideBooks/%s.pdf"
)

// RequestHeaders are sent with every scraping request. The site rejects
// clients that do not look like the web player.
var RequestHeaders = map[string]string{
	"Connection":      "keep-alive",
	"Pragma":          "no-cache",
	"Cache-Control":   "no-cache",
	"Sec-Fetch-Dest":  "empty",
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.4 Safari/605.1.15",
	"DNT":             "1",
	"Accept":          "*/*",
	"Origin":          "https://www.thegreatcoursesplus.com",
	"Sec-Fetch-Site":  "cross-site",
	"Sec-Fetch-Mode":  "cors",
	"Referer":         "https://www.thegreatcoursesplus.com",
	"Accept-Language": "en-US,en;q=0.9",
}
