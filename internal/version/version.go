// Package version reports build information and checks GitHub for newer
// swapdesk releases.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Default configuration constants.
const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 15 * time.Second
	Owner          = "mrz1836"
	Repo           = "swapdesk"

	devVersion          = "dev"
	maxErrorBodySize    = 1024
	maxResponseBodySize = 64 * 1024
)

// Build information, set with -ldflags at release time.
//
//nolint:gochecknoglobals // Populated by the linker
var (
	Version = devVersion
	Commit  = ""
	Date    = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// Current returns the build information of the running binary.
func Current() BuildInfo {
	return BuildInfo{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// String formats the build for display.
func (b BuildInfo) String() string {
	v, commit, date := b.Version, b.Commit, b.Date
	if v == "" {
		v = devVersion
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// Release is a published GitHub release.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// Check is the result of comparing the running build with the latest release.
type Check struct {
	Current string `json:"current"`
	Latest  string `json:"latest"`
	URL     string `json:"url,omitempty"`
	Newer   bool   `json:"update_available"`
}

// Client fetches releases.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a release client. An empty baseURL uses GitHub.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		userAgent:  fmt.Sprintf("swapdesk/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH),
	}
}

// LatestRelease fetches the latest published release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, Owner, Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL is the releases endpoint
	if err != nil {
		return nil, deskerr.WithCause(deskerr.ErrBackendRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, deskerr.WithDetails(deskerr.ErrBackendRequest, map[string]string{
			"service": "releases",
			"status":  strconv.Itoa(resp.StatusCode),
			"body":    strings.TrimSpace(string(body)),
		})
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&release); err != nil {
		return nil, deskerr.WithCause(deskerr.ErrBackendRequest, err)
	}
	return &release, nil
}

// CheckLatest compares current with the latest release.
func (c *Client) CheckLatest(ctx context.Context, current string) (*Check, error) {
	release, err := c.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	return &Check{
		Current: current,
		Latest:  release.TagName,
		URL:     release.HTMLURL,
		Newer:   IsNewer(current, release.TagName),
	}, nil
}

// Canonical returns v as a "vMAJOR.MINOR.PATCH" semantic version, or ""
// when v is not one. Development builds and commit hashes are not versions.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == devVersion {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// Compare returns -1, 0, or 1 as a is older than, equal to, or newer than b.
// Anything that is not a semantic version sorts before every release.
func Compare(a, b string) int {
	return semver.Compare(Canonical(a), Canonical(b))
}

// IsNewer reports whether latest is a newer release than current.
func IsNewer(current, latest string) bool {
	return Canonical(latest) != "" && Compare(latest, current) > 0
}
