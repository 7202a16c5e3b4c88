package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexbook/lexbook/internal/notebook"
	"github.com/lexbook/lexbook/internal/vcs"
)

// Detector derives section-level changes between two historical points
// of the notebook file.
type Detector struct {
	client vcs.Client
	path   string
}

// NewDetector creates a Detector for the notebook at path (relative to
// the repository root).
func NewDetector(client vcs.Client, path string) *Detector {
	return &Detector{client: client, path: path}
}

// Detect returns the ordered section changes between two points. The
// unified diff scopes the work: an empty diff short-circuits to no
// changes, otherwise both snapshots are parsed and compared section by
// section, so a change is never attributed by re-scanning raw diff text.
// Added and Modified changes come out in tip-file order (newest first),
// followed by Deleted changes in base-file order.
func (d *Detector) Detect(ctx context.Context, from, to string) ([]SectionChange, error) {
	diff, err := d.client.Diff(ctx, from, to, d.path)
	if err != nil {
		return nil, fmt.Errorf("diffing %s against %s: %w", from, to, err)
	}
	if strings.TrimSpace(diff) == "" {
		return nil, nil
	}

	oldText, err := d.snapshot(ctx, from)
	if err != nil {
		return nil, err
	}
	newText, err := d.snapshot(ctx, to)
	if err != nil {
		return nil, err
	}
	return Compare(notebook.Parse(oldText).Sections, notebook.Parse(newText).Sections), nil
}

// snapshot returns the notebook content at ref. A ref that predates the
// file (or a ref where the path is absent) reads as empty: every section
// at the other point then surfaces as Added or Deleted.
func (d *Detector) snapshot(ctx context.Context, ref string) (string, error) {
	content, err := d.client.ShowFile(ctx, ref, d.path)
	if err != nil {
		if vcs.IsUnknownRevision(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s at %s: %w", d.path, ref, err)
	}
	return content, nil
}

// Compare derives section changes between two parsed snapshots. It is
// the pure core of Detect, also used directly on the first-time-sync
// path where no diff between the histories is defined.
func Compare(oldSections, newSections []notebook.Section) []SectionChange {
	oldIdx := sectionIndex(oldSections)
	newIdx := sectionIndex(newSections)

	var changes []SectionChange
	seen := make(map[string]bool, len(newSections))
	for _, s := range newSections {
		key := s.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		old, existed := oldIdx[key]
		if !existed {
			changes = append(changes, SectionChange{
				Type:         Added,
				Identity:     s.Identity,
				NewBody:      s.Body,
				NewTimestamp: s.Timestamp,
			})
			continue
		}
		if old.Body == s.Body {
			continue
		}
		changes = append(changes, SectionChange{
			Type:         Modified,
			Identity:     s.Identity,
			OldBody:      old.Body,
			NewBody:      s.Body,
			OldTimestamp: old.Timestamp,
			NewTimestamp: s.Timestamp,
		})
	}
	for _, s := range oldSections {
		key := s.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, stillThere := newIdx[key]; stillThere {
			continue
		}
		changes = append(changes, SectionChange{
			Type:         Deleted,
			Identity:     s.Identity,
			OldBody:      s.Body,
			OldTimestamp: s.Timestamp,
		})
	}
	return changes
}

// AllAdded reports every section as an Added change. This is the
// first-time-sync path, where local and remote share no ancestor and no
// diff between them is defined.
func AllAdded(sections []notebook.Section) []SectionChange {
	changes := make([]SectionChange, 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		changes = append(changes, SectionChange{
			Type:         Added,
			Identity:     s.Identity,
			NewBody:      s.Body,
			NewTimestamp: s.Timestamp,
		})
	}
	return changes
}

// sectionIndex maps identity keys to sections, keeping the first (and
// therefore newest) occurrence when an identity recurs in the file.
func sectionIndex(sections []notebook.Section) map[string]notebook.Section {
	idx := make(map[string]notebook.Section, len(sections))
	for _, s := range sections {
		if _, ok := idx[s.Key()]; !ok {
			idx[s.Key()] = s
		}
	}
	return idx
}
