package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const userAgent = "saucer/1.0 (compatible; Go)"

var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// httpClient is shared by every loader.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// IsNetworkURL reports whether s is an http or https URL.
func IsNetworkURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Resolve resolves ref against base, the URI of the resource that refers
// to it. Network bases resolve as URLs; anything else is a file path.
func Resolve(base, ref string) string {
	if IsNetworkURL(ref) || strings.Contains(ref, "://") {
		return ref
	}
	if IsNetworkURL(base) {
		baseURL, err := url.Parse(base)
		if err != nil {
			return ref
		}
		refURL, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return baseURL.ResolveReference(refURL).String()
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(ref))
}

// Fetch reads a local file or performs a GET for network URLs.
func (l *Loader) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	if IsNetworkURL(uri) {
		return fetchHTTP(ctx, uri)
	}
	if strings.Contains(uri, "://") {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, uri)
	}
	body, err := os.ReadFile(uri)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", uri, err)
	}
	return body, "", nil
}

// FetchCSS fetches a stylesheet and returns its text. Network responses
// must be text/* or carry a CSS content type.
func (l *Loader) FetchCSS(ctx context.Context, uri string) (string, error) {
	body, contentType, err := l.Fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	ct := strings.ToLower(contentType)
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "css") {
		return "", fmt.Errorf("unexpected content type for CSS: %s", contentType)
	}
	return string(body), nil
}

func fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
