// SPDX-License-Identifier: MPL-2.0

package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/shinc/shinc/internal/dist"
)

type (
	// Fetcher downloads release assets to compute their checksums.
	Fetcher struct {
		httpClient *http.Client
		userAgent  string
		token      string
	}

	// FetcherOption configures a Fetcher during construction.
	FetcherOption func(*Fetcher)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithToken sets a bearer token sent to github.com hosts only.
func WithToken(token string) FetcherOption {
	return func(f *Fetcher) {
		f.token = token
	}
}

// NewFetcher creates a Fetcher backed by http.DefaultClient.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		userAgent:  "shinc/dev",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SHA256 returns the checksum of the asset at assetURL. The published
// "<asset>.sha256" file is tried first; when it is missing or unusable the
// asset itself is downloaded and hashed.
func (f *Fetcher) SHA256(ctx context.Context, assetURL string) (string, error) {
	if sum, err := f.publishedChecksum(ctx, assetURL); err == nil {
		return sum, nil
	}

	body, err := f.get(ctx, assetURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	h := sha256.New()
	if _, err := io.Copy(h, body); err != nil {
		return "", fmt.Errorf("downloading %s: %w", redactURL(assetURL), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (f *Fetcher) publishedChecksum(ctx context.Context, assetURL string) (string, error) {
	u, err := url.Parse(assetURL)
	if err != nil {
		return "", err
	}
	filename := path.Base(u.Path)
	u.Path += dist.ChecksumSuffix

	body, err := f.get(ctx, u.String())
	if err != nil {
		return "", err
	}
	defer body.Close()

	entries, err := dist.ParseChecksums(io.LimitReader(body, 1<<16))
	if err != nil {
		return "", err
	}
	return dist.FindChecksum(entries, filename)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if f.token != "" && isGitHubHost(req.URL) {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %d", redactURL(rawURL), resp.StatusCode)
	}
	return resp.Body, nil
}

func isGitHubHost(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com")
}

// redactURL strips query parameters and fragments for error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
