// Package ghapi is a hand-rolled GitHub REST v3 client covering exactly
// the surface this service needs: pull request reads, commit comparison,
// issue-comment and review-comment CRUD, review submission, and
// description patching. Calls are rate-limited client-side and carry a
// 30-second timeout.
package ghapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the GitHub REST API for one installation.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// New builds a Client. baseURL defaults to the public API; an empty token
// is allowed (read-only endpoints on public repos still work, writes will
// fail with 401).
func New(baseURL, token, userAgent string) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	if userAgent == "" {
		userAgent = "repo-agent"
	}
	return &Client{
		baseURL:   baseURL,
		token:     token,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 30 * time.Second},
		// Secondary rate limits bite well before the hourly quota;
		// 5 rps with small bursts stays comfortably under them.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// HasToken reports whether the client can authenticate write calls.
func (c *Client) HasToken() bool { return c.token != "" }

// do performs one API call. payload (when non-nil) is JSON-encoded; out
// (when non-nil) receives the decoded response body.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GitHub API %s %s failed with status %d: %s", method, path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decoding response for %s %s: %w", method, path, err)
		}
	}
	return nil
}

// PullRequest fetches a pull request.
func (c *Client) PullRequest(ctx context.Context, repo string, number int) (*PullRequest, error) {
	var pr PullRequest
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/pulls/%d", repo, number), nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Compare fetches the three-dot comparison base...head.
func (c *Client) Compare(ctx context.Context, repo, base, head string) (*Comparison, error) {
	var cmp Comparison
	path := fmt.Sprintf("/repos/%s/compare/%s...%s", repo, base, head)
	if err := c.do(ctx, http.MethodGet, path, nil, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// ListCommitSHAs returns every commit SHA on the PR in chronological
// order, paging through the API 100 at a time.
func (c *Client) ListCommitSHAs(ctx context.Context, repo string, number int) ([]string, error) {
	var shas []string
	for page := 1; ; page++ {
		var commits []commitRef
		path := fmt.Sprintf("/repos/%s/pulls/%d/commits?per_page=100&page=%d", repo, number, page)
		if err := c.do(ctx, http.MethodGet, path, nil, &commits); err != nil {
			return nil, err
		}
		if len(commits) == 0 {
			break
		}
		for _, commit := range commits {
			shas = append(shas, commit.SHA)
		}
		if len(commits) < 100 {
			break
		}
	}
	return shas, nil
}

// UpdatePullRequestBody replaces the PR description.
func (c *Client) UpdatePullRequestBody(ctx context.Context, repo string, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/pulls/%d", repo, number)
	return c.do(ctx, http.MethodPatch, path, map[string]string{"body": body}, nil)
}
