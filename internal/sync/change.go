package sync

import (
	"strings"

	"github.com/lexbook/lexbook/internal/notebook"
)

// ChangeType says how a section differs between two snapshots.
type ChangeType int

const (
	Added ChangeType = iota
	Modified
	Deleted
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// SectionChange is a derived, transient record of how one section
// differs between a base snapshot and a tip snapshot. Added changes
// carry only the new side, Deleted only the old side, Modified both.
type SectionChange struct {
	Type     ChangeType
	Identity string

	OldBody string
	NewBody string

	OldTimestamp notebook.Timestamp
	NewTimestamp notebook.Timestamp
}

// Key returns the case-insensitive identity key the change is paired on.
func (c SectionChange) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Identity))
}

// Newest returns the most recent timestamp available on the change: the
// new side's when present, the old side's otherwise. An unordered
// timestamp means the change carries no usable ordering information.
func (c SectionChange) Newest() notebook.Timestamp {
	if c.NewTimestamp.Valid() {
		return c.NewTimestamp
	}
	return c.OldTimestamp
}

// changeIndex maps identity keys to changes, keeping first occurrence
// (file order, newest first) when an identity recurs.
func changeIndex(changes []SectionChange) map[string]SectionChange {
	idx := make(map[string]SectionChange, len(changes))
	for _, c := range changes {
		if _, ok := idx[c.Key()]; !ok {
			idx[c.Key()] = c
		}
	}
	return idx
}
