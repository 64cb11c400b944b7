// Package fetch acquires auxiliary artifacts for spell bundles from
// inline content, URLs, local files, or git checkouts.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client handles fetching artifacts from remote sources
type Client struct {
	http *http.Client
	gh   *GitHubClient
}

// NewClient creates a new fetch client
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		gh: NewGitHubClient(),
	}
}

// FetchURL fetches content from a URL. GitHub-hosted URLs that fail a
// direct GET are retried through the API client, which can use a token
// for private repositories.
func (c *Client) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	resp, err := c.http.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return io.ReadAll(resp.Body)
		}
	}

	if strings.Contains(rawURL, "github.com") || strings.Contains(rawURL, "githubusercontent.com") {
		content, ghErr := c.fetchWithGitHub(ctx, rawURL)
		if ghErr == nil {
			return content, nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
}

// fetchWithGitHub fetches file content through the GitHub API
func (c *Client) fetchWithGitHub(ctx context.Context, rawURL string) ([]byte, error) {
	owner, repo, path, ref, err := ParseGitHubURL(rawURL)
	if err != nil {
		return nil, err
	}
	return c.gh.GetContents(ctx, owner, repo, path, ref)
}
