package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/lexbook/lexbook/internal/notebook"
	"github.com/lexbook/lexbook/internal/vcs"
)

func section(identity, body, ts string) string {
	lines := []string{"## " + identity, body, ""}
	if ts != "" {
		lines = append(lines, "<!-- timestamp="+ts+" -->", "")
	}
	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

func notebookText(sections ...string) string {
	return strings.Join(sections, "\n") + "\n"
}

func changeByKey(changes []SectionChange, identity string) (SectionChange, bool) {
	for _, c := range changes {
		if c.Key() == strings.ToLower(identity) {
			return c, true
		}
	}
	return SectionChange{}, false
}

func TestDetectAcrossCommits(t *testing.T) {
	ctx := context.Background()
	m := vcs.NewMemory(t.TempDir(), "notebook.md")

	v1 := m.SeedRemote(notebookText(
		section("serendipity", "a happy accident", t1),
		section("obsolete", "no longer needed", t1),
		section("resilience", "bouncing back", t1),
	), "v1")
	v2 := m.SeedRemote(notebookText(
		section("ephemeral", "short-lived", t2),
		section("serendipity", "a happy accident", t1),
		section("resilience", "bouncing back, revised", t2),
	), "v2")

	changes, err := NewDetector(m, "notebook.md").Detect(ctx, v1, v2)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("got %d changes, want 3: %+v", len(changes), changes)
	}

	added, ok := changeByKey(changes, "ephemeral")
	if !ok || added.Type != Added {
		t.Errorf("ephemeral: got %+v, want Added", added)
	}
	if !added.NewTimestamp.Valid() {
		t.Error("added change lost its timestamp")
	}

	modified, ok := changeByKey(changes, "resilience")
	if !ok || modified.Type != Modified {
		t.Errorf("resilience: got %+v, want Modified", modified)
	}
	if modified.OldBody == modified.NewBody {
		t.Error("modified change has identical bodies")
	}

	deleted, ok := changeByKey(changes, "obsolete")
	if !ok || deleted.Type != Deleted {
		t.Errorf("obsolete: got %+v, want Deleted", deleted)
	}
	if deleted.OldBody == "" {
		t.Error("deleted change lost the old body")
	}

	if _, ok := changeByKey(changes, "serendipity"); ok {
		t.Error("untouched section reported as changed")
	}
}

// pathAbsentClient reproduces what a real git binary reports when the
// notebook exists in the working tree but was not yet committed at the
// requested ref.
type pathAbsentClient struct {
	vcs.Client
	absentRef string
}

func (c pathAbsentClient) ShowFile(ctx context.Context, ref, path string) (string, error) {
	if ref == c.absentRef {
		return "", &vcs.CommandError{
			Name:     "git",
			Args:     []string{"show", ref + ":" + path},
			ExitCode: 128,
			Stderr:   "fatal: path '" + path + "' exists on disk, but not in '" + ref + "'",
		}
	}
	return c.Client.ShowFile(ctx, ref, path)
}

func TestDetectRefPredatingNotebookReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	m := vcs.NewMemory(t.TempDir(), "notebook.md")
	base := m.SeedRemote("", "pre-notebook history")
	tip := m.SeedRemote(notebookText(section("serendipity", "a happy accident", t1)), "add notebook")

	client := pathAbsentClient{Client: m, absentRef: base}
	changes, err := NewDetector(client, "notebook.md").Detect(ctx, base, tip)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(changes) != 1 || changes[0].Type != Added {
		t.Fatalf("got %+v, want one Added change", changes)
	}
}

func TestDetectIdenticalPointsShortCircuits(t *testing.T) {
	ctx := context.Background()
	m := vcs.NewMemory(t.TempDir(), "notebook.md")
	v1 := m.SeedRemote(notebookText(section("serendipity", "a", t1)), "v1")

	changes, err := NewDetector(m, "notebook.md").Detect(ctx, v1, v1)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("identical points produced changes: %+v", changes)
	}
}

func TestDetectOrdersTipChangesFirst(t *testing.T) {
	ctx := context.Background()
	m := vcs.NewMemory(t.TempDir(), "notebook.md")
	v1 := m.SeedRemote(notebookText(section("gone", "x", t1)), "v1")
	v2 := m.SeedRemote(notebookText(section("fresh", "y", t2)), "v2")

	changes, err := NewDetector(m, "notebook.md").Detect(ctx, v1, v2)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Type != Added || changes[1].Type != Deleted {
		t.Errorf("order = %v then %v, want added then deleted", changes[0].Type, changes[1].Type)
	}
}

func TestCompareTreatsTimestampChangeAsModified(t *testing.T) {
	oldSec := notebook.Parse(notebookText(section("w", "same words", t1))).Sections
	newSec := notebook.Parse(notebookText(section("w", "same words", t2))).Sections

	changes := Compare(oldSec, newSec)
	if len(changes) != 1 || changes[0].Type != Modified {
		t.Fatalf("got %+v, want one Modified change", changes)
	}
}

func TestAllAdded(t *testing.T) {
	sections := notebook.Parse(notebookText(
		section("one", "a", t1),
		section("two", "b", t2),
	)).Sections

	changes := AllAdded(sections)
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	for _, c := range changes {
		if c.Type != Added {
			t.Errorf("%s reported as %v, want Added", c.Identity, c.Type)
		}
		if c.OldBody != "" {
			t.Errorf("%s carries an old body on first-time sync", c.Identity)
		}
	}
}
