package notebook

import "strings"

// Document is the parsed form of a notebook file: optional preamble text
// above the first heading, the ordered sections (file order, newest
// first by construction of the writer), and any tail lines after the
// last separator.
type Document struct {
	// Preamble is everything above the first heading, verbatim.
	Preamble string

	// Sections in file order.
	Sections []Section

	// hasPreamble distinguishes an empty-but-present preamble (a file
	// starting with a blank line) from no preamble at all, so Serialize
	// round-trips both.
	hasPreamble bool

	// gaps[i] holds the verbatim lines found between the previous
	// separator and section i's heading; nil when the sections are
	// adjacent. Parallel to Sections.
	gaps [][]string

	// tailLines preserves content after the last section so that
	// Serialize round-trips the file byte for byte. Usually this is a
	// single empty line when the file ends with a newline.
	tailLines []string
	hasTail   bool
}

// Parse splits raw notebook text into a Document. A line beginning with
// the heading marker starts a section whose identity is the remainder of
// the line, trimmed; scanning continues until a separator line or end of
// input. Timestamp markers are extracted and parsed once here; malformed
// or absent markers yield an unordered timestamp, never an error.
func Parse(text string) *Document {
	doc := &Document{}
	if text == "" {
		return doc
	}

	lines := strings.Split(text, "\n")
	var preamble []string
	var pending []string
	seenSection := false

	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(line, HeadingMarker) {
			if seenSection {
				pending = append(pending, line)
			} else {
				preamble = append(preamble, line)
			}
			i++
			continue
		}

		// Stray lines between sections stay where they were found so
		// serialization round-trips the file byte for byte.
		var gap []string
		if len(pending) > 0 {
			gap = pending
			pending = nil
		}

		sec := Section{Identity: strings.TrimSpace(line[len(HeadingMarker):])}
		var body []string
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) != Separator {
			if !sec.Timestamp.Valid() && sec.Timestamp.Raw == "" {
				if ts := extractTimestamp(lines[i]); ts.Raw != "" {
					sec.Timestamp = ts
				}
			}
			body = append(body, lines[i])
			i++
		}
		if i < len(lines) {
			i++ // consume the separator
		}
		sec.Body = strings.Join(body, "\n")
		doc.Sections = append(doc.Sections, sec)
		doc.gaps = append(doc.gaps, gap)
		seenSection = true
	}

	// Whatever trails the final separator (typically a single newline)
	// is kept verbatim so Serialize round-trips the file.
	if len(pending) > 0 {
		doc.tailLines = pending
		doc.hasTail = true
	}

	doc.Preamble = strings.Join(preamble, "\n")
	doc.hasPreamble = len(preamble) > 0
	return doc
}

// Serialize reassembles the document into notebook text. For any parsed
// input, Serialize(Parse(text)) reproduces text byte-identically, modulo
// a single trailing separator added to an unterminated final section.
func (d *Document) Serialize() string {
	var parts []string
	if d.Preamble != "" || d.hasPreamble {
		parts = append(parts, d.Preamble)
	}
	for i, s := range d.Sections {
		if i < len(d.gaps) && d.gaps[i] != nil {
			parts = append(parts, strings.Join(d.gaps[i], "\n"))
		}
		parts = append(parts, s.Format())
	}
	if d.hasTail {
		parts = append(parts, strings.Join(d.tailLines, "\n"))
	}
	return strings.Join(parts, "\n")
}

// Find returns the indexes of sections matching identity (case
// insensitive; empty matches any) and, when timestamp is non-empty, whose
// raw timestamp marker contains it.
func (d *Document) Find(identity, timestamp string) []int {
	key := strings.ToLower(strings.TrimSpace(identity))
	var idx []int
	for i, s := range d.Sections {
		if key != "" && s.Key() != key {
			continue
		}
		if timestamp != "" && !strings.Contains(s.Timestamp.Raw, timestamp) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// remove drops the section at index i, preserving order.
func (d *Document) remove(i int) {
	d.Sections = append(d.Sections[:i], d.Sections[i+1:]...)
	if i < len(d.gaps) {
		d.gaps = append(d.gaps[:i], d.gaps[i+1:]...)
	}
}
