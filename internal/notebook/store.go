package notebook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned by Store operations. Check with errors.Is.
var (
	// ErrSectionNotFound is returned when no section matches the
	// requested identity/timestamp pair.
	ErrSectionNotFound = errors.New("section not found")

	// ErrAmbiguousSection is returned when more than one section matches
	// an identity and no timestamp was given to disambiguate. Callers
	// must not guess which recurrence of an identity was meant.
	ErrAmbiguousSection = errors.New("multiple sections match; timestamp required")
)

// Store reads and writes one notebook file. It is the only component
// that touches the file directly; everything else works on parsed
// Documents and Sections.
//
// Writes are read-then-write, not atomic: a process killed between read
// and write can leave a partial file. Callers tolerate this by re-running
// the operation; the synchronization engine is idempotent around it.
type Store struct {
	path string
}

// NewStore returns a store for the notebook at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the notebook file path.
func (st *Store) Path() string { return st.path }

// EnsureExists creates the parent directory and an empty notebook file
// if absent. It never errors on pre-existing state.
func (st *Store) EnsureExists() error {
	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create notebook directory %s: %w", dir, err)
	}
	if _, err := os.Stat(st.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat notebook %s: %w", st.path, err)
	}
	if err := os.WriteFile(st.path, nil, 0o644); err != nil {
		return fmt.Errorf("create notebook %s: %w", st.path, err)
	}
	return nil
}

// Read returns the raw notebook content. A missing file reads as empty.
func (st *Store) Read() (string, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read notebook %s: %w", st.path, err)
	}
	return string(data), nil
}

// Write replaces the notebook content wholesale.
func (st *Store) Write(content string) error {
	if err := st.EnsureExists(); err != nil {
		return err
	}
	if err := os.WriteFile(st.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write notebook %s: %w", st.path, err)
	}
	return nil
}

// Document reads and parses the notebook.
func (st *Store) Document() (*Document, error) {
	content, err := st.Read()
	if err != nil {
		return nil, err
	}
	return Parse(content), nil
}

// Sections reads the notebook and returns its sections in file order.
func (st *Store) Sections() ([]Section, error) {
	doc, err := st.Document()
	if err != nil {
		return nil, err
	}
	return doc.Sections, nil
}

// Prepend places content before all existing notebook content. Content
// that already carries a timestamp marker and separator (produced by a
// prior merge or store step) is inserted verbatim; bare content is
// wrapped with a freshly generated local timestamp and separator.
func (st *Store) Prepend(content string) error {
	if err := st.EnsureExists(); err != nil {
		return err
	}
	existing, err := st.Read()
	if err != nil {
		return err
	}

	formatted := strings.TrimSpace(content)
	if !IsFormatted(content) {
		formatted = FormatBody(content, Now())
	}

	next := formatted
	if strings.TrimSpace(existing) != "" {
		next = formatted + "\n" + existing
	}
	return st.Write(next)
}

// Delete removes the first whole section matching identity (case
// insensitive) and, if timestamp is non-empty, whose timestamp marker
// contains it. Either selector may be empty, but not both. When several
// sections match and no timestamp narrows the choice, Delete returns
// ErrAmbiguousSection rather than guessing. On ErrSectionNotFound the
// file is left untouched.
func (st *Store) Delete(identity, timestamp string) error {
	if identity == "" && timestamp == "" {
		return fmt.Errorf("delete: identity or timestamp required")
	}
	doc, err := st.Document()
	if err != nil {
		return err
	}

	matches := doc.Find(identity, timestamp)
	if len(matches) == 0 {
		return fmt.Errorf("delete %q (timestamp %q): %w", identity, timestamp, ErrSectionNotFound)
	}
	if len(matches) > 1 && timestamp == "" {
		return fmt.Errorf("delete %q matched %d sections: %w", identity, len(matches), ErrAmbiguousSection)
	}

	doc.remove(matches[0])
	return st.Write(doc.Serialize())
}

// RemoveAll removes every section with the given identity and reports
// how many were removed. Zero matches is not an error; this is the
// replace-before-prepend primitive used by the union merge.
func (st *Store) RemoveAll(identity string) (int, error) {
	doc, err := st.Document()
	if err != nil {
		return 0, err
	}
	matches := doc.Find(identity, "")
	if len(matches) == 0 {
		return 0, nil
	}
	for i := len(matches) - 1; i >= 0; i-- {
		doc.remove(matches[i])
	}
	if err := st.Write(doc.Serialize()); err != nil {
		return 0, err
	}
	return len(matches), nil
}
