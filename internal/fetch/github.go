package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// GitHubClient wraps the go-github client for artifact downloads.
type GitHubClient struct {
	gh            *github.Client
	authenticated bool
}

// NewGitHubClient creates a GitHub API client.
// Token resolution order: GITHUB_TOKEN, GH_TOKEN, gh CLI config,
// unauthenticated.
func NewGitHubClient() *GitHubClient {
	token := getToken()

	var httpClient *http.Client
	authenticated := false
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		authenticated = true
	}

	return &GitHubClient{
		gh:            github.NewClient(httpClient),
		authenticated: authenticated,
	}
}

// IsAuthenticated returns true if the client has a token
func (c *GitHubClient) IsAuthenticated() bool {
	return c.authenticated
}

// GetContents fetches a file's content from a repository
func (c *GitHubClient) GetContents(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}

	fileContent, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents: %w", err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("path %s is a directory, not a file", path)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return []byte(content), nil
}

// ParseGitHubURL extracts owner, repo, path, and ref from a GitHub web
// or raw URL.
func ParseGitHubURL(rawURL string) (owner, repo, path, ref string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", fmt.Errorf("invalid URL: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", "", "", fmt.Errorf("not a repository URL: %s", rawURL)
	}
	owner, repo = parts[0], parts[1]

	switch {
	case u.Host == "raw.githubusercontent.com" && len(parts) >= 4:
		// owner/repo/ref/path...
		ref = parts[2]
		path = strings.Join(parts[3:], "/")
	case len(parts) >= 4 && (parts[2] == "blob" || parts[2] == "raw" || parts[2] == "tree"):
		// owner/repo/blob/ref/path...
		ref = parts[3]
		path = strings.Join(parts[4:], "/")
	case len(parts) > 2:
		path = strings.Join(parts[2:], "/")
	}

	return owner, repo, path, ref, nil
}

// getToken attempts to get a GitHub token from various sources
func getToken() string {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	if token := os.Getenv("GH_TOKEN"); token != "" {
		return token
	}
	return readGhToken()
}

// ghHostsConfig represents the gh CLI hosts.yml config
type ghHostsConfig map[string]struct {
	OAuthToken string `yaml:"oauth_token"`
}

// readGhToken reads the GitHub token from gh CLI config
func readGhToken() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	hostsPath := filepath.Join(homeDir, ".config", "gh", "hosts.yml")
	data, err := os.ReadFile(hostsPath)
	if err != nil {
		return ""
	}

	var hosts ghHostsConfig
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return ""
	}
	return hosts["github.com"].OAuthToken
}
