// Package espn fetches league settings, matchups and NFL box scores from ESPN.
//
// League endpoints live on the fantasy "reads" API and need the league's
// SWID/espn_s2 cookies for private leagues. Box scores come from the public
// site API. Both share one token bucket limiter.
package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultReadsBase is the fantasy reads API root.
	DefaultReadsBase = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"
	// DefaultSiteBase is the public NFL site API root.
	DefaultSiteBase = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
)

var (
	// ErrForbidden is returned on 403, usually expired or missing cookies.
	ErrForbidden = errors.New("forbidden: check SWID/espn_s2 cookies")
	// ErrRedirected is returned when ESPN redirects, typically to a login page.
	ErrRedirected = errors.New("redirected")
	// ErrNotJSON is returned when ESPN answers with something other than JSON.
	ErrNotJSON = errors.New("non-JSON response")
)

// Options configure a Client.
type Options struct {
	Season            int
	LeagueID          string
	Cookie            string
	RequestsPerMinute int
	ReadsBase         string
	SiteBase          string
	Timeout           time.Duration
	Logger            *slog.Logger
}

// Client is the rate-limited HTTP client for all ESPN endpoints.
type Client struct {
	httpClient *http.Client
	leagueURL  string
	siteBase   string
	season     int
	leagueID   string
	cookie     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an ESPN client. Redirects are never followed: ESPN
// answers an unauthenticated private-league request with a redirect to its
// login page, which must surface as an error rather than HTML.
func NewClient(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadsBase == "" {
		opts.ReadsBase = DefaultReadsBase
	}
	if opts.SiteBase == "" {
		opts.SiteBase = DefaultSiteBase
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		leagueURL: fmt.Sprintf("%s/seasons/%d/segments/0/leagues/%s",
			strings.TrimRight(opts.ReadsBase, "/"), opts.Season, url.PathEscape(opts.LeagueID)),
		siteBase: strings.TrimRight(opts.SiteBase, "/"),
		season:   opts.Season,
		leagueID: opts.LeagueID,
		cookie:   opts.Cookie,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   opts.Logger,
	}
}

// Season returns the season the client was built for.
func (c *Client) Season() int { return c.season }

// CookieHeader builds the Cookie header value. A readable cookie file holding
// SWID= or espn_s2= wins; otherwise swid and s2 are combined. Empty means
// anonymous access.
func CookieHeader(cookieFile, swid, s2 string) string {
	if cookieFile = strings.TrimSpace(cookieFile); cookieFile != "" {
		if b, err := os.ReadFile(cookieFile); err == nil {
			txt := strings.TrimSpace(string(b))
			if strings.Contains(txt, "SWID=") || strings.Contains(txt, "espn_s2=") {
				return txt
			}
		}
	}
	var parts []string
	if swid = strings.TrimSpace(swid); swid != "" {
		parts = append(parts, "SWID="+swid)
	}
	if s2 = strings.TrimSpace(s2); s2 != "" {
		parts = append(parts, "espn_s2="+s2)
	}
	return strings.Join(parts, "; ")
}

// league performs a GET against the league endpoint and decodes into v.
func (c *Client) league(ctx context.Context, params url.Values, v any) error {
	return c.getJSON(ctx, c.leagueURL, params, true, v)
}

// site performs a GET against the public site API and decodes into v.
func (c *Client) site(ctx context.Context, path string, params url.Values, v any) error {
	return c.getJSON(ctx, c.siteBase+path, params, false, v)
}

func (c *Client) getJSON(ctx context.Context, u string, params url.Values, auth bool, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if auth {
		req.Header.Set("Referer", "https://fantasy.espn.com/football/league?leagueId="+url.QueryEscape(c.leagueID))
		if c.cookie != "" {
			req.Header.Set("Cookie", c.cookie)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	c.logger.Debug("ESPN request", "url", u, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return fmt.Errorf("%w (%d) to %s", ErrRedirected, resp.StatusCode, resp.Header.Get("Location"))
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	}

	ctype := resp.Header.Get("Content-Type")
	if !strings.Contains(ctype, "application/json") {
		preview := strings.ReplaceAll(truncate(body, 300), "\n", " ")
		return fmt.Errorf("%w (%s). Preview: %s", ErrNotJSON, ctype, preview)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ESPN returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
