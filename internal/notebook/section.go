// Package notebook provides the section model, parser, and file store for
// the lexbook notebook.
//
// A notebook is a plain-text UTF-8 file composed of discrete sections.
// Each section starts with a heading line ("## <identity>"), carries an
// embedded timestamp marker, and ends with a separator line ("---"). The
// newest section is always nearest the top of the file. Non-section
// preamble text above the first heading is preserved verbatim.
package notebook

import (
	"strings"
	"time"
)

// Notebook format markers. These are fixed: every device writing the
// shared notebook uses the same markers, which is what makes sections
// addressable across replicas.
const (
	// HeadingMarker starts a section; the remainder of the line is the
	// section identity.
	HeadingMarker = "## "

	// Separator is the line that closes a section.
	Separator = "---"

	timestampOpen  = "<!-- timestamp="
	timestampClose = " -->"
)

// TimestampLayout is RFC 3339 with millisecond precision, the format
// embedded in timestamp markers.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is the optional creation/modification instant of a section.
//
// Timestamps are parsed exactly once, at the moment a section or marker
// is read; all ordering decisions go through Compare so that tie-break
// behavior is consistent across components. The zero Timestamp is
// "unordered": it sorts last and loses every comparison.
type Timestamp struct {
	// Raw is the marker text exactly as it appeared in the notebook.
	// It is kept even when unparsable so deletes can match on it.
	Raw string

	t     time.Time
	valid bool
}

// ParseTimestamp parses a raw marker value as RFC 3339. An unparsable or
// empty value yields an unordered Timestamp, never an error.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Timestamp{Raw: raw}
	}
	return Timestamp{Raw: raw, t: t, valid: true}
}

// NewTimestamp returns a Timestamp for the given instant.
func NewTimestamp(t time.Time) Timestamp {
	raw := t.Format(TimestampLayout)
	return Timestamp{Raw: raw, t: t, valid: true}
}

// Now returns a Timestamp for the current local time.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// Valid reports whether the timestamp parsed as a real instant.
func (ts Timestamp) Valid() bool { return ts.valid }

// Time returns the parsed instant. Only meaningful when Valid.
func (ts Timestamp) Time() time.Time { return ts.t }

// Compare orders two timestamps: it returns a positive value when ts is
// newer than other, negative when older, and zero when equal. A valid
// timestamp always ranks above an unordered one; two unordered
// timestamps compare equal.
func (ts Timestamp) Compare(other Timestamp) int {
	switch {
	case ts.valid && other.valid:
		return ts.t.Compare(other.t)
	case ts.valid:
		return 1
	case other.valid:
		return -1
	default:
		return 0
	}
}

// After reports whether ts is strictly newer than other.
func (ts Timestamp) After(other Timestamp) bool {
	return ts.Compare(other) > 0
}

// Marker renders the timestamp as an in-body marker line.
func (ts Timestamp) Marker() string {
	return timestampOpen + ts.Raw + timestampClose
}

// extractTimestamp pulls the marker value out of a single line. It
// returns an unordered Timestamp when the line carries no marker.
func extractTimestamp(line string) Timestamp {
	start := strings.Index(line, timestampOpen)
	if start < 0 {
		return Timestamp{}
	}
	rest := line[start+len(timestampOpen):]
	end := strings.Index(rest, timestampClose)
	if end < 0 {
		return Timestamp{}
	}
	return ParseTimestamp(rest[:end])
}

// Section is one addressable unit of the notebook.
type Section struct {
	// Identity is the heading text naming the section. Matching on
	// identity is case-insensitive; use Key for map lookups.
	Identity string

	// Body is the section text between the heading line and the
	// separator, verbatim, without the trailing separator itself.
	Body string

	// Timestamp is the embedded timestamp marker, unordered when the
	// section has none or it failed to parse.
	Timestamp Timestamp
}

// Key returns the case-insensitive lookup key for the section identity.
func (s Section) Key() string {
	return strings.ToLower(strings.TrimSpace(s.Identity))
}

// Format re-serializes the section, heading through separator. Parsing
// the result yields the section back unchanged.
func (s Section) Format() string {
	if s.Body == "" {
		return HeadingMarker + s.Identity + "\n" + Separator
	}
	return HeadingMarker + s.Identity + "\n" + s.Body + "\n" + Separator
}

// FormatBody wraps a bare section body with a timestamp marker and
// separator, producing the canonical stored form. The body is expected
// to begin with its heading line; bodies that already carry a marker and
// separator should be stored verbatim instead (see Store.Prepend).
func FormatBody(body string, ts Timestamp) string {
	return strings.TrimSpace(body) + "\n\n" + ts.Marker() + "\n\n" + Separator
}

// IsFormatted reports whether content already carries a timestamp marker
// and a separator, i.e. it was produced by a prior store or merge step
// and must be inserted verbatim.
func IsFormatted(content string) bool {
	return strings.Contains(content, timestampOpen) && strings.Contains(content, Separator)
}
