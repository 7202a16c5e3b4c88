package notebook

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// newTestStore creates a store backed by a file in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "notebook.md"))
}

// seedStore writes initial notebook content.
func seedStore(t *testing.T, st *Store, content string) {
	t.Helper()
	if err := st.Write(content); err != nil {
		t.Fatalf("seed notebook: %v", err)
	}
}

func TestEnsureExists(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(filepath.Join(dir, "nested", "notebook.md"))

	if err := st.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if _, err := os.Stat(st.Path()); err != nil {
		t.Fatalf("notebook not created: %v", err)
	}

	// Never errors on pre-existing state.
	if err := st.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists on existing file failed: %v", err)
	}
}

func TestPrependWrapsBareContent(t *testing.T) {
	st := newTestStore(t)

	if err := st.Prepend("## hello\nA greeting."); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}

	content, err := st.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	// The layout's Z07:00 verb emits a literal Z for UTC offsets.
	tsRe := regexp.MustCompile(`<!-- timestamp=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}(?:Z|[+-]\d{2}:\d{2}) -->`)
	if !tsRe.MatchString(content) {
		t.Errorf("expected generated millisecond timestamp, got:\n%s", content)
	}
	if !strings.HasSuffix(content, Separator) {
		t.Errorf("expected trailing separator, got:\n%s", content)
	}

	secs, err := st.Sections()
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}
	if len(secs) != 1 || secs[0].Identity != "hello" {
		t.Fatalf("unexpected sections: %+v", secs)
	}
	if !secs[0].Timestamp.Valid() {
		t.Error("generated timestamp should parse")
	}
}

func TestPrependFormattedContentVerbatim(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st, "## old\nolder entry\n\n<!-- timestamp=2024-01-01T00:00:00.000+00:00 -->\n\n---")

	formatted := "## new\nnewer entry\n\n<!-- timestamp=2024-06-01T00:00:00.000+00:00 -->\n\n---"
	if err := st.Prepend(formatted); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}

	content, err := st.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !strings.HasPrefix(content, formatted) {
		t.Errorf("pre-formatted content must be inserted verbatim at top:\n%s", content)
	}

	secs, err := st.Sections()
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}
	if len(secs) != 2 || secs[0].Identity != "new" || secs[1].Identity != "old" {
		t.Fatalf("unexpected section order: %+v", secs)
	}
}

func TestPrependRoundTrip(t *testing.T) {
	st := newTestStore(t)
	if err := st.Prepend("## first\nbody one"); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}
	if err := st.Prepend("## second\nbody two"); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}

	content, err := st.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := Parse(content).Serialize(); got != content {
		t.Errorf("parse/serialize of store output not byte-identical:\n got: %q\nfile: %q", got, content)
	}
}

func TestDeleteByIdentity(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st, twoSectionNotebook)

	if err := st.Delete("serendipity", ""); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	secs, err := st.Sections()
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}
	if len(secs) != 1 || secs[0].Identity != "ephemeral" {
		t.Fatalf("unexpected sections after delete: %+v", secs)
	}

	// The document title above the first section survives the rewrite.
	content, _ := st.Read()
	if !strings.HasPrefix(content, "# My Notebook") {
		t.Errorf("preamble lost on delete:\n%s", content)
	}
}

func TestDeleteByTimestamp(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st, twoSectionNotebook)

	if err := st.Delete("", "2024-02-01T09:00:00.000+00:00"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	secs, _ := st.Sections()
	if len(secs) != 1 || secs[0].Identity != "Serendipity" {
		t.Fatalf("unexpected sections after delete: %+v", secs)
	}
}

func TestDeleteNotFoundLeavesFileUntouched(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st, twoSectionNotebook)

	err := st.Delete("missing", "")
	if !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}

	content, _ := st.Read()
	if content != twoSectionNotebook {
		t.Error("failed delete must leave the file byte-identical")
	}

	err = st.Delete("serendipity", "2099-01-01T00:00:00.000+00:00")
	if !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound for wrong timestamp, got %v", err)
	}
}

func TestDeleteAmbiguousRequiresTimestamp(t *testing.T) {
	st := newTestStore(t)
	// The same word recorded twice with different timestamps; the store
	// must refuse to pick one without a timestamp.
	seedStore(t, st,
		"## echo\nfirst take\n\n<!-- timestamp=2024-01-01T00:00:00.000+00:00 -->\n\n---\n"+
			"## echo\nsecond take\n\n<!-- timestamp=2024-02-01T00:00:00.000+00:00 -->\n\n---")

	err := st.Delete("echo", "")
	if !errors.Is(err, ErrAmbiguousSection) {
		t.Fatalf("expected ErrAmbiguousSection, got %v", err)
	}

	if err := st.Delete("echo", "2024-01-01T00:00:00.000+00:00"); err != nil {
		t.Fatalf("disambiguated delete failed: %v", err)
	}
	secs, _ := st.Sections()
	if len(secs) != 1 || !strings.Contains(secs[0].Body, "second take") {
		t.Fatalf("wrong section deleted: %+v", secs)
	}
}

func TestRemoveAll(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st,
		"## echo\nfirst\n\n<!-- timestamp=2024-01-01T00:00:00.000+00:00 -->\n\n---\n"+
			"## other\nkeep\n\n<!-- timestamp=2024-01-02T00:00:00.000+00:00 -->\n\n---\n"+
			"## Echo\nsecond\n\n<!-- timestamp=2024-02-01T00:00:00.000+00:00 -->\n\n---")

	n, err := st.RemoveAll("echo")
	if err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d sections, want 2", n)
	}

	secs, _ := st.Sections()
	if len(secs) != 1 || secs[0].Identity != "other" {
		t.Fatalf("unexpected sections: %+v", secs)
	}

	n, err = st.RemoveAll("echo")
	if err != nil || n != 0 {
		t.Errorf("RemoveAll on absent identity = (%d, %v), want (0, nil)", n, err)
	}
}
