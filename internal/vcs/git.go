package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// defaultTimeout bounds each git invocation so a stuck network
// operation (fetch, push) cannot hang the engine.
const defaultTimeout = 60 * time.Second

// Git implements Client by shelling out to the git binary.
type Git struct {
	workDir string
	timeout time.Duration
}

// NewGit creates a Git client operating in workDir. The directory does
// not have to be a repository yet; EnsureRepo initializes it on demand.
func NewGit(workDir string) *Git {
	return &Git{workDir: workDir, timeout: defaultTimeout}
}

// WorkDir returns the working directory the client operates in.
func (g *Git) WorkDir() string { return g.workDir }

// run executes git with the given arguments in the working directory,
// capturing stdout and stderr separately. On failure it returns a
// *CommandError so callers can classify the condition.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return stdout.String(), &CommandError{
			Name:     "git",
			Args:     args,
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	return stdout.String(), nil
}

// EnsureRepo initializes the repository if the working directory is not
// one yet, sets a committer identity when none is configured, and wires
// up the origin remote when remoteURL is non-empty.
func (g *Git) EnsureRepo(ctx context.Context, remoteURL string) error {
	if err := os.MkdirAll(g.workDir, 0o755); err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}

	if _, err := os.Stat(filepath.Join(g.workDir, ".git")); os.IsNotExist(err) {
		if _, err := g.run(ctx, "init", "-b", DefaultBranch); err != nil {
			return fmt.Errorf("initializing repository: %w", err)
		}
	}

	// A missing identity makes every commit fail, so supply a local
	// fallback without touching global configuration.
	if _, err := g.run(ctx, "config", "user.name"); err != nil {
		if _, err := g.run(ctx, "config", "user.name", "lexbook"); err != nil {
			return fmt.Errorf("configuring user.name: %w", err)
		}
	}
	if _, err := g.run(ctx, "config", "user.email"); err != nil {
		if _, err := g.run(ctx, "config", "user.email", "lexbook@localhost"); err != nil {
			return fmt.Errorf("configuring user.email: %w", err)
		}
	}

	if remoteURL != "" {
		if current, err := g.run(ctx, "remote", "get-url", DefaultRemote); err != nil {
			if _, err := g.run(ctx, "remote", "add", DefaultRemote, remoteURL); err != nil {
				return fmt.Errorf("adding remote: %w", err)
			}
		} else if strings.TrimSpace(current) != remoteURL {
			if _, err := g.run(ctx, "remote", "set-url", DefaultRemote, remoteURL); err != nil {
				return fmt.Errorf("updating remote url: %w", err)
			}
		}
	}

	return nil
}

// Fetch fetches the named remote.
func (g *Git) Fetch(ctx context.Context, remote string) error {
	_, err := g.run(ctx, "fetch", remote)
	return err
}

// HasCommits reports whether HEAD resolves to a commit.
func (g *Git) HasCommits(ctx context.Context) bool {
	_, err := g.run(ctx, "rev-parse", "--verify", "HEAD")
	return err == nil
}

// RemoteBranchExists reports whether the remote-tracking reference
// exists locally after the last fetch.
func (g *Git) RemoteBranchExists(ctx context.Context, remote, branch string) bool {
	ref := fmt.Sprintf("refs/remotes/%s/%s", remote, branch)
	_, err := g.run(ctx, "rev-parse", "--verify", "--quiet", ref)
	return err == nil
}

// MergeBase returns the common ancestor of two points. Unrelated
// histories yield "" with a nil error; that is the signal the engine
// uses to take the first-time-sync path.
func (g *Git) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := g.run(ctx, "merge-base", a, b)
	if err != nil {
		var cmdErr *CommandError
		// Exit code 1 with no output means "no common ancestor".
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 && cmdErr.Output() == "" {
			return "", nil
		}
		if IsUnknownRevision(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Diff returns the unified diff between two points, restricted to path.
func (g *Git) Diff(ctx context.Context, from, to, path string) (string, error) {
	args := []string{"diff", "--unified=0", from, to}
	if path != "" {
		args = append(args, "--", path)
	}
	out, err := g.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ChangedPaths lists the paths that differ between two points.
func (g *Git) ChangedPaths(ctx context.Context, from, to string) ([]string, error) {
	out, err := g.run(ctx, "diff", "--name-only", from, to)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ShowFile returns the content of path as recorded at ref.
func (g *Git) ShowFile(ctx context.Context, ref, path string) (string, error) {
	out, err := g.run(ctx, "show", ref+":"+path)
	if err != nil {
		return "", err
	}
	return out, nil
}

// HasChanges reports whether the working tree is dirty, optionally
// restricted to the given paths.
func (g *Git) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	args := []string{"status", "--porcelain"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := g.run(ctx, args...)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// AheadBehind returns how many commits local is ahead of and behind
// remote.
func (g *Git) AheadBehind(ctx context.Context, local, remote string) (int, int, error) {
	out, err := g.run(ctx, "rev-list", "--left-right", "--count", local+"..."+remote)
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	ahead, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing ahead count %q: %w", fields[0], err)
	}
	behind, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing behind count %q: %w", fields[1], err)
	}
	return ahead, behind, nil
}

// Merge merges ref into the current branch. On a content conflict the
// working tree keeps the conflict markers and the returned error is
// matched by IsMergeConflict.
func (g *Git) Merge(ctx context.Context, ref string, opts MergeOptions) error {
	args := []string{"merge", "--no-edit"}
	if opts.NoFF {
		args = append(args, "--no-ff")
	}
	if opts.NoCommit {
		args = append(args, "--no-commit")
	}
	if opts.AllowUnrelated {
		args = append(args, "--allow-unrelated-histories")
	}
	if opts.PreferRemote {
		args = append(args, "-X", "theirs")
	}
	args = append(args, ref)
	_, err := g.run(ctx, args...)
	return err
}

// AbortMerge aborts an in-progress merge and restores the working tree.
func (g *Git) AbortMerge(ctx context.Context) error {
	_, err := g.run(ctx, "merge", "--abort")
	return err
}

// StageAll stages every working tree change.
func (g *Git) StageAll(ctx context.Context) error {
	_, err := g.run(ctx, "add", "-A")
	return err
}

// Commit records staged changes with the given message.
func (g *Git) Commit(ctx context.Context, message string, opts CommitOptions) error {
	args := []string{"commit", "-m", message}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	_, err := g.run(ctx, args...)
	return err
}

// Push pushes branch to remote.
func (g *Git) Push(ctx context.Context, remote, branch string) error {
	_, err := g.run(ctx, "push", "-u", remote, branch)
	return err
}

// splitLines splits command output into trimmed, non-empty lines.
func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
