package search

import (
	"sort"
	"strings"

	"logreader/internal/walker"
)

// mergePeriod combines the files listed from a period's DEBUG subdirectory
// and from the period directory itself. DEBUG files come first; a
// period-level file whose name already appeared in DEBUG is dropped.
func mergePeriod(period string, debug, top []walker.File) []Candidate {
	seen := make(map[string]bool, len(debug))
	out := make([]Candidate, 0, len(debug)+len(top))

	for _, f := range debug {
		seen[f.Name] = true
		out = append(out, newCandidate(period, f))
	}
	for _, f := range top {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, newCandidate(period, f))
	}
	return out
}

func newCandidate(period string, f walker.File) Candidate {
	return Candidate{
		Path:    f.Path,
		Name:    f.Name,
		ModTime: f.ModTime,
		Period:  period,
	}
}

// Correlate sorts cands oldest first and attaches a description to each.
//
// A candidate takes the first description that contains its file name or
// stem. Descriptions are not consumed, so two files can share one. When no
// description mentions the file, the description at the candidate's
// position in the oldest-first order is used, on the assumption that the
// index was appended in the same order the logs were written. Candidates
// past the end of descs stay undescribed.
func Correlate(cands []Candidate, descs []string) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].ModTime.Before(cands[j].ModTime)
	})

	for i := range cands {
		if d, ok := matchContent(cands[i], descs); ok {
			cands[i].Description = d
			continue
		}
		if i < len(descs) {
			cands[i].Description = descs[i]
		}
	}
}

func matchContent(c Candidate, descs []string) (string, bool) {
	stem := c.Stem()
	for _, d := range descs {
		if strings.Contains(d, c.Name) || (stem != "" && strings.Contains(d, stem)) {
			return d, true
		}
	}
	return "", false
}
