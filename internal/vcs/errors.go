package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// CommandError is the structured failure of one version-control
// invocation. It carries everything the caller needs to decide whether
// the condition is an expected non-fatal one (already up to date, remote
// branch missing, nothing to commit) or an unexpected failure that must
// abort the operation.
type CommandError struct {
	// Name is the binary that was invoked (e.g. "git").
	Name string

	// Args are the arguments it was invoked with.
	Args []string

	// ExitCode is the process exit code, or -1 if the process did not
	// start or did not exit normally.
	ExitCode int

	// Stdout and Stderr are the captured output streams.
	Stdout string
	Stderr string

	// Err is the underlying execution error, if any.
	Err error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s failed (exit %d)", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if out := e.Output(); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Output returns the combined captured output, stderr first, trimmed.
func (e *CommandError) Output() string {
	out := strings.TrimSpace(e.Stderr)
	if s := strings.TrimSpace(e.Stdout); s != "" {
		if out != "" {
			out += "\n"
		}
		out += s
	}
	return out
}

// outputContains reports whether err is a *CommandError whose captured
// output contains any of the given fragments, case-insensitively. This
// is how expected conditions are recognized: the tool reports them only
// as exit codes plus message text, so message text is what we match.
func outputContains(err error, fragments ...string) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	out := strings.ToLower(cmdErr.Output())
	for _, f := range fragments {
		if strings.Contains(out, f) {
			return true
		}
	}
	return false
}

// IsMergeConflict reports whether err is a merge that stopped on content
// conflicts, leaving markers in the working tree.
func IsMergeConflict(err error) bool {
	return outputContains(err, "conflict", "automatic merge failed")
}

// IsAlreadyUpToDate reports the no-op merge/pull condition.
func IsAlreadyUpToDate(err error) bool {
	return outputContains(err, "already up to date", "already up-to-date")
}

// IsUnknownRevision reports a revision, ref, or path-at-ref that does
// not exist, which is how a missing remote branch, an empty history, or
// a file not yet committed at a given point surfaces.
func IsUnknownRevision(err error) bool {
	return outputContains(err,
		"unknown revision",
		"bad revision",
		"invalid object name",
		"does not exist",
		"not something we can merge",
		"exists on disk, but not in",
	)
}

// IsNothingToCommit reports a commit attempt with an empty staging area.
func IsNothingToCommit(err error) bool {
	return outputContains(err,
		"nothing to commit",
		"nothing added to commit",
		"no changes added to commit",
	)
}

// IsUnrelatedHistories reports a merge refused because the two histories
// share no common ancestor.
func IsUnrelatedHistories(err error) bool {
	return outputContains(err, "refusing to merge unrelated histories")
}

// IsPushRejected reports a push rejected by the remote, typically a
// non-fast-forward update raced by another device. The caller treats
// this as a retry-after-refetch signal, not a lost update.
func IsPushRejected(err error) bool {
	return outputContains(err, "non-fast-forward", "fetch first", "[rejected]", "failed to push")
}
