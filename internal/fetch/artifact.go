package fetch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Artifact describes one auxiliary file to materialize into a bundle's
// artifacts directory. Either Content or Source must be set.
type Artifact struct {
	Path    string  `yaml:"path"`
	Content string  `yaml:"content,omitempty"`
	Source  *Source `yaml:"source,omitempty"`
}

// Source describes where a non-inline artifact comes from.
type Source struct {
	// Type is one of: url, curl, file, git.
	Type     string            `yaml:"type"`
	Location string            `yaml:"location"`
	Ref      string            `yaml:"ref,omitempty"`     // git ref to check out
	File     string            `yaml:"file,omitempty"`    // single file within a git checkout
	Headers  map[string]string `yaml:"headers,omitempty"` // extra request headers
}

// Materialize writes the artifact under destDir at its declared
// relative path, fetching remote sources as needed.
func (c *Client) Materialize(ctx context.Context, a Artifact, destDir string) error {
	if a.Path == "" {
		return fmt.Errorf("artifact is missing a path")
	}
	if strings.Contains(a.Path, "..") || filepath.IsAbs(a.Path) {
		return fmt.Errorf("artifact path %q must be relative and contain no traversal", a.Path)
	}

	dest := filepath.Join(destDir, filepath.FromSlash(a.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	if a.Content != "" {
		return os.WriteFile(dest, []byte(a.Content), 0o644)
	}
	if a.Source == nil {
		return fmt.Errorf("artifact %s must have either content or a source", a.Path)
	}

	switch a.Source.Type {
	case "url", "curl":
		return c.fetchToFile(ctx, a.Source, dest)
	case "file":
		return copyLocal(a.Source.Location, dest)
	case "git":
		return c.fetchGit(ctx, a.Source, dest)
	default:
		return fmt.Errorf("unknown artifact source type: %q", a.Source.Type)
	}
}

func (c *Client) fetchToFile(ctx context.Context, src *Source, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return fmt.Errorf("invalid URL %s: %w", src.Location, err)
	}
	for k, v := range src.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", src.Location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: status %d", src.Location, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func copyLocal(location, dest string) error {
	src := location
	if strings.HasPrefix(src, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		src = filepath.Join(home, src[2:])
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("local file not found: %s", src)
	}
	if info.IsDir() {
		return copyTree(src, dest)
	}
	return copyFile(src, dest)
}

// fetchGit clones the repository shallowly, checks out the requested
// ref if any, and copies either one file or the whole tree.
func (c *Client) fetchGit(ctx context.Context, src *Source, dest string) error {
	tmp, err := os.MkdirTemp("", "grimoire_git_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	args := []string{"clone", "--depth", "1"}
	if src.Ref != "" {
		args = append(args, "--branch", src.Ref)
	}
	args = append(args, src.Location, tmp)

	cmd := exec.CommandContext(ctx, "git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone %s failed: %w: %s", src.Location, err, strings.TrimSpace(string(out)))
	}

	if src.File != "" {
		return copyFile(filepath.Join(tmp, filepath.FromSlash(src.File)), dest)
	}
	return copyTree(tmp, dest)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyTree(srcDir, destDir string) error {
	return filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(destDir, rel), 0o755)
		}
		return copyFile(path, filepath.Join(destDir, rel))
	})
}
