package page

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultUserAgent is sent when loading pages over HTTP.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LoadOptions configures Load.
type LoadOptions struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	Document  []DocumentOption
}

// Load opens a static Document from an http(s) URL or a local file path.
//
// For HTTP the final URL after redirects becomes the document URL; for files
// it is the file:// form of the absolute path.
func Load(ctx context.Context, location string, opts LoadOptions) (*Document, error) {
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}

	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return loadHTTP(ctx, location, opts)
	}
	if err == nil && u.Scheme == "file" {
		location = u.Path
	}
	return loadFile(location, opts)
}

func loadHTTP(ctx context.Context, location string, opts LoadOptions) (*Document, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: status %d", location, resp.StatusCode)
	}

	return NewDocument(resp.Body, resp.Request.URL.String(), opts.Document...)
}

func loadFile(path string, opts LoadOptions) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fileURL := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(fileURL.Path, "/") {
		fileURL.Path = "/" + fileURL.Path
	}
	return NewDocument(f, fileURL.String(), opts.Document...)
}
