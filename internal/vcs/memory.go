package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// memCommit is one commit in the in-memory history graph. Each commit
// snapshots the full content of the tracked file.
type memCommit struct {
	id      string
	parents []string
	content string
	message string
}

// Memory implements Client with an in-memory commit graph and a real
// file on disk as the working tree. It models exactly as much of git as
// the synchronization engine exercises: linear histories with merges,
// remote tracking refs, content conflicts with conflict markers, and
// the structured errors the engine classifies. The orchestrator tests
// run against it without a git binary present.
type Memory struct {
	mu sync.Mutex

	workDir string
	relPath string

	commits  map[string]*memCommit
	branches map[string]string // "main", "origin/main" -> commit id
	remote   map[string]string // remote branch -> commit id

	// pendingMerge holds the second parent of the next commit while a
	// merge is in progress (conflicted or --no-commit).
	pendingMerge string

	seq int

	// FetchErr and PushErr, when set, are returned by Fetch and Push.
	// Tests use them to simulate network failure.
	FetchErr error
	PushErr  error
}

// NewMemory creates a Memory client whose working tree lives in workDir
// and which tracks the single file at relPath within it.
func NewMemory(workDir, relPath string) *Memory {
	return &Memory{
		workDir:  workDir,
		relPath:  relPath,
		commits:  make(map[string]*memCommit),
		branches: make(map[string]string),
		remote:   make(map[string]string),
	}
}

// WorkDir returns the working directory.
func (m *Memory) WorkDir() string { return m.workDir }

func (m *Memory) filePath() string { return filepath.Join(m.workDir, m.relPath) }

func (m *Memory) readFile() string {
	data, err := os.ReadFile(m.filePath())
	if err != nil {
		return ""
	}
	return string(data)
}

func (m *Memory) writeFile(content string) error {
	return os.WriteFile(m.filePath(), []byte(content), 0o644)
}

func (m *Memory) cmdErr(args []string, stderr string) *CommandError {
	return &CommandError{
		Name:     "git",
		Args:     args,
		ExitCode: 1,
		Stderr:   stderr,
		Err:      fmt.Errorf("exit status 1"),
	}
}

// newCommit records a commit and returns its id. Callers hold mu.
func (m *Memory) newCommit(parents []string, content, message string) string {
	m.seq++
	id := fmt.Sprintf("c%04d", m.seq)
	m.commits[id] = &memCommit{id: id, parents: parents, content: content, message: message}
	return id
}

// resolve maps a ref name to a commit id, or "" when unknown.
// Callers hold mu.
func (m *Memory) resolve(ref string) string {
	if ref == "HEAD" {
		return m.branches[DefaultBranch]
	}
	if id, ok := m.branches[ref]; ok {
		return id
	}
	if _, ok := m.commits[ref]; ok {
		return ref
	}
	return ""
}

// ancestors returns the set of commits reachable from id, inclusive.
// Callers hold mu.
func (m *Memory) ancestors(id string) map[string]bool {
	seen := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == "" || seen[cur] {
			continue
		}
		seen[cur] = true
		if c, ok := m.commits[cur]; ok {
			queue = append(queue, c.parents...)
		}
	}
	return seen
}

// mergeBase finds the nearest common ancestor of two commits, or ""
// when the histories are unrelated. Callers hold mu.
func (m *Memory) mergeBase(a, b string) string {
	if a == "" || b == "" {
		return ""
	}
	fromA := m.ancestors(a)
	// Breadth-first from b so the first hit is a nearest ancestor.
	seen := make(map[string]bool)
	queue := []string{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == "" || seen[cur] {
			continue
		}
		seen[cur] = true
		if fromA[cur] {
			return cur
		}
		if c, ok := m.commits[cur]; ok {
			queue = append(queue, c.parents...)
		}
	}
	return ""
}

// SeedRemote advances the remote branch with a commit holding content.
// It models someone else pushing from another machine. Returns the new
// commit id.
func (m *Memory) SeedRemote(content, message string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var parents []string
	if tip := m.remote[DefaultBranch]; tip != "" {
		parents = []string{tip}
	}
	id := m.newCommit(parents, content, message)
	m.remote[DefaultBranch] = id
	return id
}

// EnsureRepo creates the working directory. The in-memory graph needs
// no further initialization.
func (m *Memory) EnsureRepo(ctx context.Context, remoteURL string) error {
	return os.MkdirAll(m.workDir, 0o755)
}

// Fetch copies the remote branch tips into remote-tracking refs.
func (m *Memory) Fetch(ctx context.Context, remote string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FetchErr != nil {
		return m.FetchErr
	}
	for branch, tip := range m.remote {
		m.branches[remote+"/"+branch] = tip
	}
	return nil
}

// HasCommits reports whether the local branch has a commit.
func (m *Memory) HasCommits(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.branches[DefaultBranch] != ""
}

// RemoteBranchExists reports whether the remote-tracking ref exists.
func (m *Memory) RemoteBranchExists(ctx context.Context, remote, branch string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.branches[remote+"/"+branch] != ""
}

// MergeBase returns the common ancestor of two refs, or "" when the
// histories are unrelated.
func (m *Memory) MergeBase(ctx context.Context, a, b string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idA, idB := m.resolve(a), m.resolve(b)
	if idA == "" || idB == "" {
		return "", nil
	}
	return m.mergeBase(idA, idB), nil
}

// Diff returns a unified zero-context diff of the tracked file between
// two refs.
func (m *Memory) Diff(ctx context.Context, from, to, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idFrom, idTo := m.resolve(from), m.resolve(to)
	if idFrom == "" || idTo == "" {
		return "", m.cmdErr([]string{"diff", from, to},
			fmt.Sprintf("fatal: bad revision '%s'", from))
	}
	oldContent := m.commits[idFrom].content
	newContent := m.commits[idTo].content
	if oldContent == newContent {
		return "", nil
	}

	name := m.relPath
	if path != "" {
		name = path
	}
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", name, name)
	fmt.Fprintf(&b, "--- a/%s\n", name)
	fmt.Fprintf(&b, "+++ b/%s\n", name)
	b.WriteString(unifiedDiff(oldContent, newContent))
	return b.String(), nil
}

// ChangedPaths lists the paths that differ between two refs.
func (m *Memory) ChangedPaths(ctx context.Context, from, to string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idFrom, idTo := m.resolve(from), m.resolve(to)
	if idFrom == "" || idTo == "" {
		return nil, m.cmdErr([]string{"diff", "--name-only", from, to},
			fmt.Sprintf("fatal: bad revision '%s'", from))
	}
	if m.commits[idFrom].content == m.commits[idTo].content {
		return nil, nil
	}
	return []string{m.relPath}, nil
}

// ShowFile returns the tracked file's content at ref.
func (m *Memory) ShowFile(ctx context.Context, ref, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.resolve(ref)
	if id == "" {
		return "", m.cmdErr([]string{"show", ref + ":" + path},
			fmt.Sprintf("fatal: invalid object name '%s'", ref))
	}
	return m.commits[id].content, nil
}

// HasChanges reports whether the working file differs from the local
// branch tip.
func (m *Memory) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.readFile()
	tip := m.branches[DefaultBranch]
	if tip == "" {
		return current != "", nil
	}
	return current != m.commits[tip].content, nil
}

// AheadBehind counts commits reachable from only one of the two refs.
func (m *Memory) AheadBehind(ctx context.Context, local, remote string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idL, idR := m.resolve(local), m.resolve(remote)
	if idL == "" || idR == "" {
		return 0, 0, m.cmdErr([]string{"rev-list", "--left-right", "--count", local + "..." + remote},
			fmt.Sprintf("fatal: bad revision '%s...%s'", local, remote))
	}
	fromL, fromR := m.ancestors(idL), m.ancestors(idR)
	ahead, behind := 0, 0
	for id := range fromL {
		if !fromR[id] {
			ahead++
		}
	}
	for id := range fromR {
		if !fromL[id] {
			behind++
		}
	}
	return ahead, behind, nil
}

// Merge merges ref into the local branch. Content conflicts leave
// git-style conflict markers in the working file and return an error
// matched by IsMergeConflict; PreferRemote resolves them by taking the
// incoming side instead.
func (m *Memory) Merge(ctx context.Context, ref string, opts MergeOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := []string{"merge", ref}

	theirs := m.resolve(ref)
	if theirs == "" {
		return m.cmdErr(args, fmt.Sprintf("merge: %s - not something we can merge", ref))
	}
	ours := m.branches[DefaultBranch]
	if ours == "" {
		return m.cmdErr(args, "fatal: unknown revision HEAD")
	}

	base := m.mergeBase(ours, theirs)
	if base == "" && !opts.AllowUnrelated {
		return m.cmdErr(args, "fatal: refusing to merge unrelated histories")
	}
	if base == theirs {
		// Nothing to bring in.
		return nil
	}

	oursContent := m.commits[ours].content
	theirsContent := m.commits[theirs].content

	commitMerge := func(content string) error {
		if err := m.writeFile(content); err != nil {
			return err
		}
		if opts.NoCommit {
			m.pendingMerge = theirs
			return nil
		}
		id := m.newCommit([]string{ours, theirs}, content,
			fmt.Sprintf("Merge %s into %s", ref, DefaultBranch))
		m.branches[DefaultBranch] = id
		return nil
	}

	if base == ours {
		// Fast-forwardable.
		if !opts.NoFF {
			if err := m.writeFile(theirsContent); err != nil {
				return err
			}
			m.branches[DefaultBranch] = theirs
			return nil
		}
		return commitMerge(theirsContent)
	}

	// Diverged histories. A whole-file model can only auto-merge when
	// one side left the content alone or both sides agree.
	var baseContent string
	if base != "" {
		baseContent = m.commits[base].content
	}
	switch {
	case oursContent == theirsContent:
		return commitMerge(oursContent)
	case oursContent == baseContent:
		return commitMerge(theirsContent)
	case theirsContent == baseContent:
		return commitMerge(oursContent)
	case opts.PreferRemote:
		return commitMerge(theirsContent)
	}

	// Content conflict: leave markers in the working file.
	conflicted := fmt.Sprintf("<<<<<<< HEAD\n%s=======\n%s>>>>>>> %s\n",
		ensureTrailingNewline(oursContent), ensureTrailingNewline(theirsContent), ref)
	if err := m.writeFile(conflicted); err != nil {
		return err
	}
	m.pendingMerge = theirs
	return m.cmdErr(args,
		fmt.Sprintf("CONFLICT (content): Merge conflict in %s\nAutomatic merge failed; fix conflicts and then commit the result.", m.relPath))
}

// AbortMerge drops the in-progress merge and restores the working file
// to the local branch tip.
func (m *Memory) AbortMerge(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingMerge == "" {
		return m.cmdErr([]string{"merge", "--abort"},
			"fatal: There is no merge to abort (MERGE_HEAD missing).")
	}
	m.pendingMerge = ""
	tip := m.branches[DefaultBranch]
	if tip == "" {
		return m.writeFile("")
	}
	return m.writeFile(m.commits[tip].content)
}

// StageAll is a no-op: Commit snapshots the working file directly.
func (m *Memory) StageAll(ctx context.Context) error { return nil }

// Commit snapshots the working file as a new commit on the local
// branch. An in-progress merge contributes a second parent.
func (m *Memory) Commit(ctx context.Context, message string, opts CommitOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content := m.readFile()
	tip := m.branches[DefaultBranch]

	if m.pendingMerge == "" && tip != "" && content == m.commits[tip].content && !opts.AllowEmpty {
		return m.cmdErr([]string{"commit", "-m", message},
			"nothing to commit, working tree clean")
	}

	var parents []string
	if tip != "" {
		parents = append(parents, tip)
	}
	if m.pendingMerge != "" {
		parents = append(parents, m.pendingMerge)
		m.pendingMerge = ""
	}
	id := m.newCommit(parents, content, message)
	m.branches[DefaultBranch] = id
	return nil
}

// Push fast-forwards the remote branch to the local tip. A remote tip
// that is not an ancestor of the local tip is rejected the way git
// rejects a non-fast-forward push.
func (m *Memory) Push(ctx context.Context, remote, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PushErr != nil {
		return m.PushErr
	}
	tip := m.branches[branch]
	if tip == "" {
		return m.cmdErr([]string{"push", remote, branch},
			fmt.Sprintf("error: src refspec %s does not match any", branch))
	}
	if remoteTip := m.remote[branch]; remoteTip != "" && !m.ancestors(tip)[remoteTip] {
		return m.cmdErr([]string{"push", remote, branch},
			fmt.Sprintf("! [rejected] %s -> %s (non-fast-forward)", branch, branch))
	}
	m.remote[branch] = tip
	m.branches[remote+"/"+branch] = tip
	return nil
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// unifiedDiff computes a zero-context unified diff between two texts.
// Quadratic LCS is fine at notebook scale.
func unifiedDiff(oldText, newText string) string {
	oldLines := splitDiffLines(oldText)
	newLines := splitDiffLines(newText)

	n, m := len(oldLines), len(newLines)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	type op struct {
		kind byte // '-' or '+'
		line string
	}
	var ops []op
	// oldPos/newPos track the 1-based line numbers for hunk headers.
	i, j := 0, 0
	var b strings.Builder

	flush := func(group []op, oldStart, newStart int) {
		if len(group) == 0 {
			return
		}
		dels, adds := 0, 0
		for _, o := range group {
			if o.kind == '-' {
				dels++
			} else {
				adds++
			}
		}
		hunkOld := oldStart
		if dels == 0 {
			hunkOld = oldStart - 1
		}
		hunkNew := newStart
		if adds == 0 {
			hunkNew = newStart - 1
		}
		b.WriteString("@@ -")
		b.WriteString(rangeSpec(hunkOld, dels))
		b.WriteString(" +")
		b.WriteString(rangeSpec(hunkNew, adds))
		b.WriteString(" @@\n")
		for _, o := range group {
			if o.kind == '-' {
				b.WriteByte('-')
				b.WriteString(o.line)
				b.WriteByte('\n')
			}
		}
		for _, o := range group {
			if o.kind == '+' {
				b.WriteByte('+')
				b.WriteString(o.line)
				b.WriteByte('\n')
			}
		}
	}

	groupOldStart, groupNewStart := 1, 1
	for i < n || j < m {
		switch {
		case i < n && j < m && oldLines[i] == newLines[j]:
			flush(ops, groupOldStart, groupNewStart)
			ops = nil
			i++
			j++
			groupOldStart, groupNewStart = i+1, j+1
		case j < m && (i == n || lcs[i][j+1] >= lcs[i+1][j]):
			ops = append(ops, op{'+', newLines[j]})
			j++
		default:
			ops = append(ops, op{'-', oldLines[i]})
			i++
		}
	}
	flush(ops, groupOldStart, groupNewStart)
	return b.String()
}

func rangeSpec(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

func splitDiffLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
