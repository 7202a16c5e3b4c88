package sync

// Outcome is the terminal status of one synchronization attempt.
type Outcome int

const (
	// NoChanges means local and remote were already reconciled and
	// nothing was committed or pushed.
	NoChanges Outcome = iota

	// Success means the notebook was reconciled; any conflicts were
	// resolved automatically.
	Success

	// Conflicts means the notebook was reconciled but one or more
	// conflicts could not be resolved by timestamp and were decided by
	// the documented remote-wins default. The conflicts are surfaced in
	// Result.Conflicts for the user to review.
	Conflicts
)

func (o Outcome) String() string {
	switch o {
	case NoChanges:
		return "no changes"
	case Success:
		return "success"
	case Conflicts:
		return "conflicts"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Orchestrator.Sync call, with the
// human-readable trail of what happened.
type Result struct {
	Outcome Outcome

	// Conflicts holds the conflicts that timestamp resolution could not
	// decide. The file content for these was taken from the remote
	// side; local edits for them may be superseded.
	Conflicts []Conflict

	// Degraded is set when marker-level resolution failed and the
	// remote version was accepted wholesale. Local edits in that pass
	// may have been discarded; the trail and the log say so loudly.
	Degraded bool

	// Pushed reports whether the local history reached the remote.
	// False with a Success outcome means the push failed or no remote
	// is configured and sync should be retried later.
	Pushed bool

	// Trail is the ordered, human-readable account of each step taken.
	Trail []string
}

func (r *Result) trace(msg string) {
	r.Trail = append(r.Trail, msg)
}
