package sync

// Conflict pairs a local and a remote change to the same section
// identity that cannot be safely unioned.
type Conflict struct {
	Identity string
	Local    SectionChange
	Remote   SectionChange
}

// Classify pairs local and remote changes by identity and returns the
// true conflicts, in local change order. The decision table:
//
//	local \ remote   Added                 Modified   Deleted
//	Added            conflict iff bodies   conflict   conflict
//	                 differ
//	Modified         conflict              conflict   conflict
//	Deleted          conflict              conflict   no conflict
//
// Every non-conflicting pair is a safe union: both sides apply
// independently, and a double delete collapses to one deletion.
func Classify(local, remote []SectionChange) []Conflict {
	remoteIdx := changeIndex(remote)

	var conflicts []Conflict
	for _, lc := range local {
		rc, ok := remoteIdx[lc.Key()]
		if !ok {
			continue
		}
		if lc.Type == Deleted && rc.Type == Deleted {
			continue
		}
		if lc.Type == Added && rc.Type == Added && lc.NewBody == rc.NewBody {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Identity: lc.Identity,
			Local:    lc,
			Remote:   rc,
		})
	}
	return conflicts
}
