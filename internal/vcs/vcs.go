// Package vcs provides the narrow version-control capability interface
// the synchronization engine depends on.
//
// The engine never inspects the tool's internal object model; it issues
// a small set of logical operations against a working directory and
// pattern-matches on structured command failures. Two implementations
// exist: Git, which shells out to the git binary, and Memory, an
// in-memory repository model used to test the sync orchestrator without
// any real version-control tool present.
package vcs

import "context"

// DefaultRemote and DefaultBranch name the remote and branch the
// synchronization engine reconciles against.
const (
	DefaultRemote = "origin"
	DefaultBranch = "main"
)

// MergeOptions configures a merge operation.
type MergeOptions struct {
	// AllowUnrelated permits merging histories with no common ancestor
	// (first-time sync).
	AllowUnrelated bool

	// NoFF forces a merge commit even when a fast-forward is possible,
	// so the reconciliation is recorded.
	NoFF bool

	// NoCommit stops before creating the merge commit.
	NoCommit bool

	// PreferRemote resolves raw content conflicts in favor of the
	// incoming side (git's "-X theirs").
	PreferRemote bool
}

// CommitOptions configures a commit operation.
type CommitOptions struct {
	// AllowEmpty permits a commit with no textual diff. Used after a
	// clean merge that produced no content change, since the two
	// histories still need reconciling.
	AllowEmpty bool
}

// Client is the version-control command collaborator. Every method maps
// to one logical operation; failures come back as *CommandError carrying
// the command, exit code, and captured output so callers can distinguish
// expected non-fatal conditions from unexpected ones.
type Client interface {
	// WorkDir returns the working directory the client operates in.
	WorkDir() string

	// EnsureRepo initializes the repository if absent, configures a
	// committer identity, and adds the remote when remoteURL is
	// non-empty. Safe to call on pre-existing state.
	EnsureRepo(ctx context.Context, remoteURL string) error

	// Fetch fetches the named remote. Best-effort in the engine: a
	// fetch failure downgrades to local-only operation.
	Fetch(ctx context.Context, remote string) error

	// HasCommits reports whether the repository has any commit at HEAD.
	HasCommits(ctx context.Context) bool

	// RemoteBranchExists reports whether the remote-tracking reference
	// remote/branch exists after the last fetch.
	RemoteBranchExists(ctx context.Context, remote, branch string) bool

	// MergeBase returns the common ancestor of two points, or "" when
	// the histories are unrelated.
	MergeBase(ctx context.Context, a, b string) (string, error)

	// Diff returns the unified diff between two points, restricted to
	// path.
	Diff(ctx context.Context, from, to, path string) (string, error)

	// ChangedPaths lists the paths that differ between two points.
	ChangedPaths(ctx context.Context, from, to string) ([]string, error)

	// ShowFile returns the content of path at ref.
	ShowFile(ctx context.Context, ref, path string) (string, error)

	// HasChanges reports whether the working tree is dirty. If paths
	// are given, only those paths are checked.
	HasChanges(ctx context.Context, paths ...string) (bool, error)

	// AheadBehind returns how many commits local is ahead of and behind
	// remote.
	AheadBehind(ctx context.Context, local, remote string) (ahead, behind int, err error)

	// Merge merges ref into the current branch. A reported conflict
	// leaves conflict markers in the working tree and returns an error
	// matched by IsMergeConflict.
	Merge(ctx context.Context, ref string, opts MergeOptions) error

	// AbortMerge aborts an in-progress merge, restoring the working
	// tree.
	AbortMerge(ctx context.Context) error

	// StageAll stages all working tree changes.
	StageAll(ctx context.Context) error

	// Commit records staged changes with the given message.
	Commit(ctx context.Context, message string, opts CommitOptions) error

	// Push pushes branch to remote.
	Push(ctx context.Context, remote, branch string) error
}
