package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lexbook/lexbook/internal/notebook"
	"github.com/lexbook/lexbook/internal/vcs"
)

// Syncer runs one full synchronization of the notebook against the
// remote. Implementations must be safe to re-run after partial failure:
// every step checks ambient repository state before acting.
type Syncer interface {
	Sync(ctx context.Context) (*Result, error)
}

// Options configure the Orchestrator.
type Options struct {
	// RemoteURL is the remote repository. Empty means local-only
	// operation: commits are still recorded, nothing is pushed.
	RemoteURL string

	// Remote and Branch name the remote and branch to reconcile
	// against; they default to vcs.DefaultRemote and vcs.DefaultBranch.
	Remote string
	Branch string

	// Path is the notebook file path relative to the repository root.
	Path string
}

// state enumerates the orchestrator's synchronization state machine.
// Each state has exactly one handler performing the transition out of
// it, so every branch of the flow is a named, testable transition.
type state int

const (
	stateStart state = iota
	stateFetched
	stateHistoryChecked
	stateFirstTimeSync
	stateNormalSync
	stateMerged
	stateCommitted
	statePushed
	stateDone
	stateAborted
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateFetched:
		return "fetched"
	case stateHistoryChecked:
		return "history-checked"
	case stateFirstTimeSync:
		return "first-time-sync"
	case stateNormalSync:
		return "normal-sync"
	case stateMerged:
		return "merged"
	case stateCommitted:
		return "committed"
	case statePushed:
		return "pushed"
	case stateDone:
		return "done"
	case stateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// pass carries the mutable context of one Sync call between state
// handlers.
type pass struct {
	result *Result

	remoteRef       string
	remoteAvailable bool // fetch succeeded this run
	remoteExists    bool // remote-tracking branch exists
	firstTime       bool
	base            string // merge base, normal sync only

	committed bool // something new was committed this run
}

// Orchestrator implements Syncer on top of a vcs.Client and the
// notebook store.
type Orchestrator struct {
	client   vcs.Client
	store    *notebook.Store
	detector *Detector
	log      *logrus.Entry
	opts     Options
}

// NewOrchestrator wires an Orchestrator. The store must point at the
// notebook file inside the client's working directory, and opts.Path at
// the same file relative to the repository root.
func NewOrchestrator(client vcs.Client, store *notebook.Store, log *logrus.Logger, opts Options) *Orchestrator {
	if opts.Remote == "" {
		opts.Remote = vcs.DefaultRemote
	}
	if opts.Branch == "" {
		opts.Branch = vcs.DefaultBranch
	}
	return &Orchestrator{
		client:   client,
		store:    store,
		detector: NewDetector(client, opts.Path),
		log:      log.WithField("component", "sync"),
		opts:     opts,
	}
}

// Sync drives the state machine from Start to Done. The returned Result
// is non-nil even on error, so the caller can report the trail of what
// happened before the abort.
func (o *Orchestrator) Sync(ctx context.Context) (*Result, error) {
	p := &pass{
		result:    &Result{},
		remoteRef: o.opts.Remote + "/" + o.opts.Branch,
	}

	st := stateStart
	for st != stateDone {
		next, err := o.step(ctx, st, p)
		if err != nil {
			o.log.WithError(err).WithField("state", st.String()).Error("synchronization aborted")
			p.result.trace("aborted during " + st.String() + ": " + err.Error())
			return p.result, err
		}
		o.log.WithFields(logrus.Fields{"from": st.String(), "to": next.String()}).Debug("sync transition")
		st = next
	}
	return p.result, nil
}

// step dispatches one transition.
func (o *Orchestrator) step(ctx context.Context, st state, p *pass) (state, error) {
	switch st {
	case stateStart:
		return o.begin(ctx, p)
	case stateFetched:
		return o.checkHistory(ctx, p)
	case stateHistoryChecked:
		if p.firstTime {
			return stateFirstTimeSync, nil
		}
		return stateNormalSync, nil
	case stateFirstTimeSync:
		return o.firstTimeSync(ctx, p)
	case stateNormalSync:
		return o.normalSync(ctx, p)
	case stateMerged:
		return o.ensureCommitted(ctx, p)
	case stateCommitted:
		return o.push(ctx, p)
	case statePushed:
		return o.finish(p)
	default:
		return stateAborted, fmt.Errorf("no transition out of state %q", st)
	}
}

// begin prepares the repository, commits any pending local edits, and
// fetches the remote. Merging must never run over uncommitted local
// changes, so the dirty-tree commit happens before anything else. Fetch
// is best-effort: a failure downgrades the run to local-only.
func (o *Orchestrator) begin(ctx context.Context, p *pass) (state, error) {
	if err := o.client.EnsureRepo(ctx, o.opts.RemoteURL); err != nil {
		return stateAborted, fmt.Errorf("preparing repository: %w", err)
	}
	if err := o.store.EnsureExists(); err != nil {
		return stateAborted, err
	}

	dirty, err := o.client.HasChanges(ctx, o.opts.Path)
	if err != nil {
		return stateAborted, fmt.Errorf("checking working tree: %w", err)
	}
	if dirty {
		committed, err := o.commit(ctx, "Record local notebook changes", vcs.CommitOptions{})
		if err != nil {
			return stateAborted, err
		}
		if committed {
			p.committed = true
			p.result.trace("committed pending local changes")
		}
	}

	if o.opts.RemoteURL == "" {
		p.result.trace("no remote configured; operating locally")
		return stateFetched, nil
	}
	if err := o.client.Fetch(ctx, o.opts.Remote); err != nil {
		o.log.WithError(err).Warn("fetch failed; continuing in local-only mode")
		p.result.trace("fetch failed; continuing with local state only")
		return stateFetched, nil
	}
	p.remoteAvailable = true
	p.result.trace("fetched " + o.opts.Remote)
	return stateFetched, nil
}

// checkHistory determines the relationship between local and remote
// history. No remote branch, no local commit, or no common ancestor
// routes to first-time sync; anything else is a normal sync.
func (o *Orchestrator) checkHistory(ctx context.Context, p *pass) (state, error) {
	p.remoteExists = p.remoteAvailable &&
		o.client.RemoteBranchExists(ctx, o.opts.Remote, o.opts.Branch)

	if !p.remoteExists || !o.client.HasCommits(ctx) {
		p.firstTime = true
		p.result.trace("no shared history; first-time sync")
		return stateHistoryChecked, nil
	}

	base, err := o.client.MergeBase(ctx, o.opts.Branch, p.remoteRef)
	if err != nil {
		return stateAborted, fmt.Errorf("finding merge base: %w", err)
	}
	if base == "" {
		p.firstTime = true
		p.result.trace("histories are unrelated; first-time sync")
		return stateHistoryChecked, nil
	}
	p.base = base
	return stateHistoryChecked, nil
}

// firstTimeSync reconciles histories that share no ancestor. Local
// content is captured first, the unrelated remote history is
// union-merged preferring remote content on raw conflict, and local
// sections not already present are re-prepended as a fresh commit so
// local entries end up newest regardless of remote history. A missing
// remote branch degenerates to committing local content standalone.
func (o *Orchestrator) firstTimeSync(ctx context.Context, p *pass) (state, error) {
	localContent, err := o.store.Read()
	if err != nil {
		return stateAborted, err
	}

	if !o.client.HasCommits(ctx) {
		committed, err := o.commit(ctx, "Initialize notebook", vcs.CommitOptions{AllowEmpty: true})
		if err != nil {
			return stateAborted, err
		}
		p.committed = p.committed || committed
	}

	if !p.remoteExists {
		p.result.trace("remote branch absent; keeping local history standalone")
		return stateMerged, nil
	}

	err = o.client.Merge(ctx, p.remoteRef, vcs.MergeOptions{
		AllowUnrelated: true,
		NoFF:           true,
		PreferRemote:   true,
	})
	if err != nil && !vcs.IsAlreadyUpToDate(err) {
		return stateAborted, fmt.Errorf("merging unrelated remote history: %w", err)
	}
	p.committed = true
	p.result.trace("merged unrelated remote history")

	if strings.TrimSpace(localContent) == "" {
		return stateMerged, nil
	}
	kept, err := o.missingLocalContent(localContent)
	if err != nil {
		return stateAborted, err
	}
	if kept == "" {
		return stateMerged, nil
	}
	if err := o.store.Prepend(kept); err != nil {
		return stateAborted, err
	}
	if _, err := o.commit(ctx, "Restore local sections after initial sync", vcs.CommitOptions{}); err != nil {
		return stateAborted, err
	}
	p.result.trace("re-prepended local sections above remote history")
	return stateMerged, nil
}

// missingLocalContent returns the captured local sections that the
// merged notebook does not already contain verbatim, serialized for a
// verbatim prepend. Local preamble text is kept when the merged file
// has none.
func (o *Orchestrator) missingLocalContent(localContent string) (string, error) {
	merged, err := o.store.Document()
	if err != nil {
		return "", err
	}
	mergedIdx := sectionIndex(merged.Sections)

	local := notebook.Parse(localContent)
	keep := &notebook.Document{}
	if strings.TrimSpace(merged.Preamble) == "" {
		keep.Preamble = local.Preamble
	}
	for _, s := range local.Sections {
		if m, ok := mergedIdx[s.Key()]; ok && m.Body == s.Body {
			continue
		}
		keep.Sections = append(keep.Sections, s)
	}
	if len(keep.Sections) == 0 && strings.TrimSpace(keep.Preamble) == "" {
		return "", nil
	}
	return keep.Serialize(), nil
}

// normalSync reconciles diverged but related histories. When only local
// commits exist there is nothing to merge; otherwise both change sets
// are computed up front (the working tree is about to be disturbed by
// the merge), conflicts are classified and resolved, and a
// no-fast-forward merge is attempted.
func (o *Orchestrator) normalSync(ctx context.Context, p *pass) (state, error) {
	ahead, behind, err := o.client.AheadBehind(ctx, o.opts.Branch, p.remoteRef)
	if err != nil {
		return stateAborted, fmt.Errorf("comparing histories: %w", err)
	}
	if behind == 0 {
		if ahead == 0 {
			p.result.trace("already reconciled with remote")
		} else {
			p.result.trace(fmt.Sprintf("local is %d ahead; nothing to merge", ahead))
		}
		return stateMerged, nil
	}

	localChanges, err := o.detector.Detect(ctx, p.base, o.opts.Branch)
	if err != nil {
		return stateAborted, fmt.Errorf("detecting local changes: %w", err)
	}
	remoteChanges, err := o.detector.Detect(ctx, p.base, p.remoteRef)
	if err != nil {
		return stateAborted, fmt.Errorf("detecting remote changes: %w", err)
	}

	table := o.buildResolution(localChanges, remoteChanges, p)

	err = o.client.Merge(ctx, p.remoteRef, vcs.MergeOptions{NoFF: true})
	switch {
	case err == nil || vcs.IsAlreadyUpToDate(err):
		// A clean merge commits immediately, even when it produced no
		// textual diff, since the histories still need reconciling.
		p.committed = true
		p.result.trace("merged remote changes cleanly")
		return stateMerged, nil
	case vcs.IsMergeConflict(err):
		p.result.trace("merge reported conflicts; resolving by section")
		return o.resolveConflictedMerge(ctx, p, table)
	default:
		return stateAborted, fmt.Errorf("merging %s: %w", p.remoteRef, err)
	}
}

// buildResolution classifies conflicts, resolves each by timestamp, and
// records per-side deletions. Unresolvable conflicts fall back to the
// remote side in the file but are surfaced on the result.
func (o *Orchestrator) buildResolution(local, remote []SectionChange, p *pass) resolution {
	table := resolution{
		winners:       make(map[string]Winner),
		localDeleted:  make(map[string]bool),
		remoteDeleted: make(map[string]bool),
	}
	for _, c := range local {
		if c.Type == Deleted {
			table.localDeleted[c.Key()] = true
		}
	}
	for _, c := range remote {
		if c.Type == Deleted {
			table.remoteDeleted[c.Key()] = true
		}
	}
	for _, c := range Classify(local, remote) {
		w := Resolve(c)
		table.winners[strings.ToLower(strings.TrimSpace(c.Identity))] = w
		if w == Unresolvable {
			p.result.Conflicts = append(p.result.Conflicts, c)
			o.log.WithField("section", c.Identity).
				Warn("conflict carries no timestamp on either side; keeping remote version")
		} else {
			o.log.WithFields(logrus.Fields{"section": c.Identity, "winner": w.String()}).
				Info("conflict resolved by timestamp")
		}
	}
	return table
}

// resolveConflictedMerge rewrites the conflict marker regions the merge
// left in the working file, each conflicted identity taking the winning
// side's literal text, then commits the resolved merge. If marker
// resolution itself fails the merge is aborted and the remote version
// is accepted wholesale — loudly, since that is the one path where
// local edits can be discarded.
func (o *Orchestrator) resolveConflictedMerge(ctx context.Context, p *pass, table resolution) (state, error) {
	content, err := o.store.Read()
	if err != nil {
		return stateAborted, err
	}

	resolved, rerr := resolveMarkers(content, table)
	if rerr == nil {
		if err := o.store.Write(resolved); err != nil {
			return stateAborted, err
		}
		if _, err := o.commit(ctx, "Merge remote notebook changes", vcs.CommitOptions{AllowEmpty: true}); err != nil {
			return stateAborted, err
		}
		p.committed = true
		p.result.trace("resolved conflicted sections and committed the merge")
		return stateMerged, nil
	}

	o.log.WithError(rerr).Error("conflict marker resolution failed; accepting remote version wholesale")
	if err := o.client.AbortMerge(ctx); err != nil {
		return stateAborted, fmt.Errorf("aborting conflicted merge: %w", err)
	}
	remoteContent, err := o.client.ShowFile(ctx, p.remoteRef, o.opts.Path)
	if err != nil {
		return stateAborted, fmt.Errorf("reading remote notebook: %w", err)
	}
	if err := o.store.Write(remoteContent); err != nil {
		return stateAborted, err
	}
	if _, err := o.commit(ctx, "Accept remote notebook version", vcs.CommitOptions{}); err != nil {
		return stateAborted, err
	}
	p.committed = true
	p.result.Degraded = true
	p.result.trace("marker resolution failed; remote version accepted wholesale (local edits may be lost)")
	return stateMerged, nil
}

// ensureCommitted is the safety net between merge and push: any
// remaining working tree changes are committed so the push never leaves
// resolved content behind.
func (o *Orchestrator) ensureCommitted(ctx context.Context, p *pass) (state, error) {
	dirty, err := o.client.HasChanges(ctx)
	if err != nil {
		return stateAborted, err
	}
	if dirty {
		committed, err := o.commit(ctx, "Record notebook reconciliation", vcs.CommitOptions{})
		if err != nil {
			return stateAborted, err
		}
		p.committed = p.committed || committed
	}
	return stateCommitted, nil
}

// push publishes local history. Failure is reported, not fatal: the
// local commits remain valid and the next sync retries.
func (o *Orchestrator) push(ctx context.Context, p *pass) (state, error) {
	if o.opts.RemoteURL == "" {
		return statePushed, nil
	}
	if p.remoteExists {
		ahead, _, err := o.client.AheadBehind(ctx, o.opts.Branch, p.remoteRef)
		if err != nil {
			return stateAborted, err
		}
		if ahead == 0 {
			p.result.trace("nothing to push")
			return statePushed, nil
		}
	}
	if err := o.client.Push(ctx, o.opts.Remote, o.opts.Branch); err != nil {
		o.log.WithError(err).Warn("push failed; local history is intact, sync can be retried")
		p.result.trace("push failed; local history kept, retry later")
		return statePushed, nil
	}
	p.result.Pushed = true
	p.result.trace("pushed to " + p.remoteRef)
	return statePushed, nil
}

// finish settles the terminal outcome.
func (o *Orchestrator) finish(p *pass) (state, error) {
	switch {
	case len(p.result.Conflicts) > 0:
		p.result.Outcome = Conflicts
	case p.committed || p.result.Pushed:
		p.result.Outcome = Success
	default:
		p.result.Outcome = NoChanges
	}
	p.result.trace("sync finished: " + p.result.Outcome.String())
	return stateDone, nil
}

// commit stages everything and commits, tolerating the nothing-to-commit
// condition. Returns whether a commit was actually recorded.
func (o *Orchestrator) commit(ctx context.Context, message string, opts vcs.CommitOptions) (bool, error) {
	if err := o.client.StageAll(ctx); err != nil {
		return false, fmt.Errorf("staging changes: %w", err)
	}
	if err := o.client.Commit(ctx, message, opts); err != nil {
		if vcs.IsNothingToCommit(err) {
			return false, nil
		}
		return false, fmt.Errorf("committing: %w", err)
	}
	return true, nil
}
