package sync

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexbook/lexbook/internal/notebook"
)

// Conflict marker prefixes left in the working file by a failed merge.
const (
	markerOurs   = "<<<<<<<"
	markerSplit  = "======="
	markerTheirs = ">>>>>>>"
)

// resolution carries everything marker resolution needs to decide each
// region: the per-identity winners, plus which identities each side
// deleted so a one-sided section is not resurrected by the union.
type resolution struct {
	winners       map[string]Winner
	localDeleted  map[string]bool
	remoteDeleted map[string]bool
}

// winner returns the decided side for key, defaulting to remote when
// the resolution table has no entry (including Unresolvable entries,
// which the caller has already surfaced).
func (r resolution) winner(key string) Winner {
	w, ok := r.winners[key]
	if !ok || w == Unresolvable {
		return WinnerRemote
	}
	return w
}

// resolveMarkers rewrites every conflict marker region in content,
// replacing it with the section-wise union of both sides where each
// conflicted identity contributes the winning side's literal text.
// Non-conflicted sections from either side are preserved. An
// unbalanced marker structure is an error; the caller falls back to
// accepting the remote version wholesale.
func resolveMarkers(content string, table resolution) (string, error) {
	lines := strings.Split(content, "\n")
	var out []string

	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], markerOurs) {
			out = append(out, lines[i])
			i++
			continue
		}

		split, end := -1, -1
		for j := i + 1; j < len(lines); j++ {
			if split == -1 && strings.HasPrefix(lines[j], markerSplit) {
				split = j
				continue
			}
			if split != -1 && strings.HasPrefix(lines[j], markerTheirs) {
				end = j
				break
			}
		}
		if split == -1 || end == -1 {
			return "", fmt.Errorf("unbalanced conflict markers at line %d", i+1)
		}

		region := resolveRegion(lines[i+1:split], lines[split+1:end], table)
		if region != "" {
			out = append(out, strings.Split(region, "\n")...)
		}
		i = end + 1
	}

	return strings.Join(out, "\n"), nil
}

// resolveRegion merges one marker region. Both sides are parsed into
// sections; each identity appears once in the output, taken from the
// winning side when conflicted and unioned otherwise. When neither side
// parses into any section the region cannot be attributed to an
// identity, and the remote side is kept per the documented default.
func resolveRegion(ours, theirs []string, table resolution) string {
	oursDoc := notebook.Parse(strings.Join(ours, "\n"))
	theirsDoc := notebook.Parse(strings.Join(theirs, "\n"))

	if len(oursDoc.Sections) == 0 && len(theirsDoc.Sections) == 0 {
		return strings.TrimRight(strings.Join(theirs, "\n"), "\n")
	}

	merged := &notebook.Document{}
	merged.Preamble = theirsDoc.Preamble
	if strings.TrimSpace(merged.Preamble) == "" {
		merged.Preamble = oursDoc.Preamble
	}

	theirsIdx := make(map[string]notebook.Section, len(theirsDoc.Sections))
	for _, s := range theirsDoc.Sections {
		if _, ok := theirsIdx[s.Key()]; !ok {
			theirsIdx[s.Key()] = s
		}
	}

	seen := make(map[string]bool)
	for _, s := range oursDoc.Sections {
		key := s.Key()
		if seen[key] {
			continue
		}
		if _, conflicted := table.winners[key]; conflicted {
			if table.winner(key) != WinnerLocal {
				continue // the remote copy is taken below
			}
		} else if other, both := theirsIdx[key]; both && other.Body != s.Body {
			continue // disagreement with no table entry: remote wins
		} else if table.remoteDeleted[key] {
			continue
		}
		seen[key] = true
		merged.Sections = append(merged.Sections, s)
	}
	for _, s := range theirsDoc.Sections {
		key := s.Key()
		if seen[key] {
			continue
		}
		if _, conflicted := table.winners[key]; conflicted {
			if table.winner(key) == WinnerLocal {
				continue // the local side won, even if its copy is a deletion
			}
		} else if table.localDeleted[key] {
			continue
		}
		seen[key] = true
		merged.Sections = append(merged.Sections, s)
	}

	sortNewestFirst(merged.Sections)
	return merged.Serialize()
}

// sortNewestFirst orders sections by descending timestamp, stable so
// that unordered sections keep their relative order at the bottom.
func sortNewestFirst(sections []notebook.Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Timestamp.Compare(sections[j].Timestamp) > 0
	})
}
