package search

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TagDebug marks a candidate found under a debug-build log tree.
const TagDebug = "DEBUG"

// Candidate is a log file that matched the serial number.
type Candidate struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
	// Period is the period directory the file belongs to.
	Period string   `json:"period"`
	Tags   []string `json:"tags,omitempty"`
	// Description is the index line correlated with the file, or "" when
	// none could be attached. Index lines always contain the serial
	// number, so an empty description is never a real match.
	Description string `json:"description,omitempty"`
}

// HasTag reports whether the candidate carries tag.
func (c Candidate) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasDescription reports whether a description was attached.
func (c Candidate) HasDescription() bool {
	return c.Description != ""
}

// Stem is the file name without its final extension.
func (c Candidate) Stem() string {
	return strings.TrimSuffix(c.Name, filepath.Ext(c.Name))
}

// Tags returns the tags for candidates of a period. The DEBUG tag is set
// when the lower-cased path above the period directory contains marker
// (normally "/dbg/"), meaning the archive root is a debug-build tree. The
// period's own name and the DEBUG subdirectory a file may have been listed
// from play no part.
func Tags(period, marker string) []string {
	if marker == "" {
		return nil
	}
	p := strings.ToLower(filepath.ToSlash(filepath.Dir(period)) + "/")
	if strings.Contains(p, strings.ToLower(marker)) {
		return []string{TagDebug}
	}
	return nil
}

// SortByRecency orders candidates newest first, breaking ties by path so
// the numbering shown to users is stable.
func SortByRecency(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if !cands[i].ModTime.Equal(cands[j].ModTime) {
			return cands[i].ModTime.After(cands[j].ModTime)
		}
		return cands[i].Path < cands[j].Path
	})
}
