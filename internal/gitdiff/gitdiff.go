// Package gitdiff shells out to git to identify the repository revision and
// the files changed since a previous one. Errors are surfaced to the caller,
// which falls back to content-marker comparison when git is unavailable.
package gitdiff

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoRepository indicates the directory is not inside a git work tree.
var ErrNoRepository = errors.New("not a git repository")

// Client runs git commands against a single working directory.
type Client struct {
	dir string
}

// New creates a Client rooted at dir.
func New(dir string) *Client {
	return &Client{dir: dir}
}

// Head returns the current HEAD commit hash.
func (c *Client) Head(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	head := strings.TrimSpace(out)
	if head == "" {
		return "", fmt.Errorf("git rev-parse returned empty output")
	}
	return head, nil
}

// ChangedSince returns the paths that differ between rev and the working
// tree, including uncommitted changes. Paths are relative to the client's
// directory, not the repository root, so they line up with the tracker's
// keys even when the indexed root sits inside a larger repository.
func (c *Client) ChangedSince(ctx context.Context, rev string) ([]string, error) {
	out, err := c.run(ctx, "diff", "--name-only", "--relative", rev)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if strings.Contains(msg, "not a git repository") {
			return "", ErrNoRepository
		}
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return string(out), nil
}
