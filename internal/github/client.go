// SPDX-License-Identifier: MPL-2.0

package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultBaseURL is the public GitHub API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// maxJSONResponseBytes bounds API response bodies (10 MB).
	maxJSONResponseBytes = 10 << 20
)

var (
	// ErrNetwork classifies transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("network failure")

	// ErrReleaseNotFound is returned when the repository has no published release.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrInvalidRepo is returned for repository identifiers not shaped "owner/name".
	ErrInvalidRepo = errors.New("invalid repository identifier")

	repoPartPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

type (
	// RateLimitError is returned when the GitHub API rate limit is exhausted.
	RateLimitError struct {
		Limit   int
		ResetAt time.Time
	}

	// Repo identifies a GitHub repository.
	Repo struct {
		Owner string
		Name  string
	}

	// Release is the subset of a GitHub release needed to fetch its sources.
	Release struct {
		TagName    string `json:"tag_name"`
		Name       string `json:"name"`
		TarballURL string `json:"tarball_url"`
		HTMLURL    string `json:"html_url"`
	}

	// Client talks to the GitHub REST API.
	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
		logger     *log.Logger
	}

	// ClientOption configures a Client.
	ClientOption func(*Client)
)

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit of %d requests exceeded (resets at %s)",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Unwrap returns ErrNetwork.
func (e *RateLimitError) Unwrap() error { return ErrNetwork }

// String returns "owner/name".
func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepo parses an "owner/name" identifier.
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || !repoPartPattern.MatchString(owner) || !repoPartPattern.MatchString(name) {
		return Repo{}, fmt.Errorf("%w %q (expected owner/repo)", ErrInvalidRepo, s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides DefaultBaseURL, for GitHub Enterprise or test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken authenticates API requests, raising the rate limit from 60 to
// 5000 requests per hour.
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(g *Client) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewClient creates a Client. Without options it targets api.github.com
// anonymously through http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "ilstrap/dev",
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease returns the most recent published release of repo.
func (c *Client) LatestRelease(ctx context.Context, repo Repo) (*Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL,
		url.PathEscape(repo.Owner), url.PathEscape(repo.Name))

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("resolving latest release of %s: %w", repo, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := checkRateLimit(resp); err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrReleaseNotFound, repo)
	default:
		return nil, fmt.Errorf("%w: resolving latest release of %s: unexpected status %d", ErrNetwork, repo, resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&rel); err != nil {
		return nil, fmt.Errorf("%w: decoding release of %s: %w", ErrNetwork, repo, err)
	}
	if rel.TarballURL == "" {
		return nil, fmt.Errorf("%w: release %s of %s has no tarball_url", ErrNetwork, rel.TagName, repo)
	}

	c.logger.Debug("resolved release", "repo", repo.String(), "tag", rel.TagName)
	return &rel, nil
}

// DownloadTarball opens the tarball at tarballURL. The caller closes the
// returned stream.
func (c *Client) DownloadTarball(ctx context.Context, tarballURL string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, tarballURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(tarballURL), err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		if rlErr := checkRateLimit(resp); rlErr != nil {
			return nil, rlErr
		}
		return nil, fmt.Errorf("%w: downloading %s: unexpected status %d", ErrNetwork, redactURL(tarballURL), resp.StatusCode)
	}
	return resp.Body, nil
}

// LatestTarball resolves the latest release of repo ("owner/name") and opens
// its source tarball.
func (c *Client) LatestTarball(ctx context.Context, repo string) (io.ReadCloser, error) {
	r, err := ParseRepo(repo)
	if err != nil {
		return nil, err
	}
	rel, err := c.LatestRelease(ctx, r)
	if err != nil {
		return nil, err
	}
	c.logger.Info("downloading release", "repo", r.String(), "tag", rel.TagName)
	return c.DownloadTarball(ctx, rel.TarballURL)
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)

	// Tarball URLs redirect to codeload.github.com; the token stays on the API host.
	if c.token != "" && sameHost(req.URL, c.baseURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("GET", "url", redactURL(reqURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return resp, nil
}

// checkRateLimit reports a RateLimitError when X-RateLimit-Remaining is zero.
func checkRateLimit(resp *http.Response) error {
	rem, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil || rem > 0 {
		return nil //nolint:nilerr // absent or malformed header means no limit information
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                  //nolint:errcheck // best-effort
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // best-effort
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(resetUnix, 0)}
}

func sameHost(reqURL *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(reqURL.Host, base.Host)
}

// redactURL drops query and fragment so signed download URLs stay out of logs.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
