// Package report renders search results for people and tools.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"logreader/internal/search"
)

const timeLayout = "2006-01-02 15:04"

// Query identifies the search a result list belongs to.
type Query struct {
	SN string
	PN string
}

// Markdown renders a numbered result list. Candidates are expected in
// display order (newest first).
func Markdown(q Query, cands []search.Candidate) string {
	if len(cands) == 0 {
		return fmt.Sprintf("No logs found for SN `%s` (PN `%s`).\n", q.SN, q.PN)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Logs for SN `%s` (PN `%s`, %d found)\n\n", q.SN, q.PN, len(cands))
	for i, c := range cands {
		fmt.Fprintf(&sb, "%d. **%s**", i+1, c.Name)
		if c.HasTag(search.TagDebug) {
			sb.WriteString(" `DEBUG`")
		}
		sb.WriteString("  \n")
		fmt.Fprintf(&sb, "   %s · `%s`  \n", formatTime(c.ModTime), c.Path)
		if c.HasDescription() {
			fmt.Fprintf(&sb, "   %s\n", escapeMarkdown(c.Description))
		} else {
			sb.WriteString("   _no description_\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Detail renders a single candidate as Markdown.
func Detail(c search.Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", c.Name)
	fmt.Fprintf(&sb, "**Path:** `%s`  \n", c.Path)
	fmt.Fprintf(&sb, "**Modified:** %s  \n", formatTime(c.ModTime))
	fmt.Fprintf(&sb, "**Period:** `%s`  \n", c.Period)
	if len(c.Tags) > 0 {
		fmt.Fprintf(&sb, "**Tags:** %s  \n", strings.Join(c.Tags, ", "))
	}
	sb.WriteString("\n")
	if c.HasDescription() {
		fmt.Fprintf(&sb, "```\n%s\n```\n", c.Description)
	} else {
		sb.WriteString("_No index line could be attached to this file._\n")
	}
	return sb.String()
}

// Text writes one line per candidate: number, tags, time, path and
// description, tab separated.
func Text(w io.Writer, cands []search.Candidate) error {
	for i, c := range cands {
		tag := "-"
		if len(c.Tags) > 0 {
			tag = strings.Join(c.Tags, ",")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1, tag, formatTime(c.ModTime), c.Path, c.Description); err != nil {
			return err
		}
	}
	return nil
}

// Line is the one-line form used by the results list. Tags are left to
// the caller, which styles them.
func Line(n int, c search.Candidate) string {
	return fmt.Sprintf("%2d. %s  %s", n, formatTime(c.ModTime), c.Name)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format(timeLayout)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
