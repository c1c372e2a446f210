// Package datadragon downloads and loads the Legends of Runeterra Data Dragon
// set bundles that back the card catalog.
package datadragon

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL serves the latest Data Dragon bundles.
	DefaultBaseURL = "https://dd.b.pvp.net/latest"

	// DefaultLocale is the bundle locale used when none is configured.
	DefaultLocale = "en_us"

	// DownloadTimeout is the default timeout for bundle downloads.
	DownloadTimeout = 5 * time.Minute

	// DefaultCacheDir is relative to the user home directory.
	DefaultCacheDir = ".lor-companion/sets"

	rateLimitDelay = 500 * time.Millisecond
	maxBundleSize  = 512 << 20
)

// DownloaderOptions configures the bundle downloader.
type DownloaderOptions struct {
	// BaseURL of the Data Dragon CDN (default: DefaultBaseURL)
	BaseURL string

	// CacheDir is where extracted set files are written
	// Default: ~/.lor-companion/sets
	CacheDir string

	// Locale of the bundles, e.g. "en_us"
	Locale string

	// Lite selects the bundles without card art.
	Lite bool

	// Timeout for HTTP requests (default: 5 minutes)
	Timeout time.Duration

	// HTTPClient allows custom HTTP client
	HTTPClient *http.Client
}

// DefaultDownloaderOptions returns default downloader options.
func DefaultDownloaderOptions() DownloaderOptions {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return DownloaderOptions{
		BaseURL:  DefaultBaseURL,
		CacheDir: filepath.Join(homeDir, DefaultCacheDir),
		Locale:   DefaultLocale,
		Lite:     true,
		Timeout:  DownloadTimeout,
	}
}

// Downloader fetches set bundles and extracts their card data.
type Downloader struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	cacheDir    string
	locale      string
	lite        bool
}

// NewDownloader creates a new bundle downloader.
func NewDownloader(options DownloaderOptions) (*Downloader, error) {
	defaults := DefaultDownloaderOptions()
	if options.BaseURL == "" {
		options.BaseURL = defaults.BaseURL
	}
	if options.CacheDir == "" {
		options.CacheDir = defaults.CacheDir
	}
	if options.Locale == "" {
		options.Locale = defaults.Locale
	}
	if options.Timeout == 0 {
		options.Timeout = DownloadTimeout
	}

	if err := os.MkdirAll(options.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.Timeout,
		}
	}

	return &Downloader{
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		baseURL:     strings.TrimRight(options.BaseURL, "/"),
		cacheDir:    options.CacheDir,
		locale:      options.Locale,
		lite:        options.Lite,
	}, nil
}

// CacheDir returns the directory set files are extracted to.
func (d *Downloader) CacheDir() string {
	return d.cacheDir
}

// SetFileName is the name of the card data file of a set.
func SetFileName(set, locale string) string {
	return fmt.Sprintf("set%s-%s.json", set, locale)
}

// GlobalsFileName is the name of the globals data file.
func GlobalsFileName(locale string) string {
	return fmt.Sprintf("globals-%s.json", locale)
}

// BundleURL returns the download URL of a set bundle.
func (d *Downloader) BundleURL(set string) string {
	if d.lite {
		return fmt.Sprintf("%s/set%s-lite-%s.zip", d.baseURL, set, d.locale)
	}
	return fmt.Sprintf("%s/set%s-%s.zip", d.baseURL, set, d.locale)
}

// GlobalsURL returns the download URL of the core bundle holding globals.
func (d *Downloader) GlobalsURL() string {
	return fmt.Sprintf("%s/core-%s.zip", d.baseURL, d.locale)
}

// DownloadSet downloads one set bundle and extracts its card data file into
// the cache directory, returning the file path. Set names are numbers with an
// optional expansion suffix, e.g. "7" or "7b".
func (d *Downloader) DownloadSet(ctx context.Context, set string) (string, error) {
	if !ValidSetName(set) {
		return "", fmt.Errorf("invalid set name %q", set)
	}
	name := SetFileName(set, d.locale)
	dest, err := d.fetchMember(ctx, d.BundleURL(set), name)
	if err != nil {
		return "", fmt.Errorf("failed to download set %s: %w", set, err)
	}
	return dest, nil
}

// DownloadSets downloads every listed set. It stops at the first failure.
func (d *Downloader) DownloadSets(ctx context.Context, sets []string) ([]string, error) {
	paths := make([]string, 0, len(sets))
	for _, set := range sets {
		p, err := d.DownloadSet(ctx, set)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// DownloadGlobals downloads the core bundle and extracts the globals file.
func (d *Downloader) DownloadGlobals(ctx context.Context) (string, error) {
	dest, err := d.fetchMember(ctx, d.GlobalsURL(), GlobalsFileName(d.locale))
	if err != nil {
		return "", fmt.Errorf("failed to download globals: %w", err)
	}
	return dest, nil
}

func (d *Downloader) fetchMember(ctx context.Context, url, member string) (string, error) {
	log.Printf("[Downloader] Downloading bundle from: %s", url)

	data, err := d.download(ctx, url)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(d.cacheDir, member)
	if err := extractMember(data, member, dest); err != nil {
		return "", err
	}

	log.Printf("[Downloader] Extracted %s", dest)
	return dest, nil
}

func (d *Downloader) download(ctx context.Context, url string) ([]byte, error) {
	if err := d.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "LoR-Companion/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}

	log.Printf("[Downloader] Downloaded %d bytes", len(data))
	return data, nil
}

// extractMember writes the archive member whose base name matches member to
// dest. The file is written next to dest and renamed so watchers never see a
// partial file.
func extractMember(data []byte, member, dest string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}

	for _, f := range zr.File {
		if path.Base(f.Name) != member {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer func() { _ = rc.Close() }()

		tmp := dest + ".tmp"
		out, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}

		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		if err := out.Close(); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("failed to close file: %w", err)
		}

		return os.Rename(tmp, dest)
	}

	return fmt.Errorf("bundle has no %s", member)
}
