package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logreader/internal/search"
)

func sample() []search.Candidate {
	t := time.Date(2024, 3, 5, 10, 30, 0, 0, time.Local)
	return []search.Candidate{
		{
			Path:        "/dbg/log/S1/2024/03/DEBUG/SN1_run2.gz",
			Name:        "SN1_run2.gz",
			ModTime:     t,
			Period:      "/dbg/log/S1/2024/03",
			Tags:        []string{search.TagDebug},
			Description: "SN1 burn_in PASS",
		},
		{
			Path:    "/log/S1/202402/SN1_run1.gz",
			Name:    "SN1_run1.gz",
			ModTime: t.Add(-24 * time.Hour),
			Period:  "/log/S1/202402",
		},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(Query{SN: "SN1", PN: "S1"}, sample())

	assert.Contains(t, out, "## Logs for SN `SN1` (PN `S1`, 2 found)")
	assert.Contains(t, out, "1. **SN1_run2.gz** `DEBUG`")
	assert.Contains(t, out, "2. **SN1_run1.gz**")
	assert.Contains(t, out, `SN1 burn\_in PASS`)
	assert.Contains(t, out, "_no description_")
	assert.Contains(t, out, "2024-03-05 10:30")
	assert.Less(t, strings.Index(out, "SN1_run2.gz"), strings.Index(out, "SN1_run1.gz"))
}

func TestMarkdownEmpty(t *testing.T) {
	out := Markdown(Query{SN: "SN9", PN: "S9"}, nil)
	assert.Equal(t, "No logs found for SN `SN9` (PN `S9`).\n", out)
}

func TestDetail(t *testing.T) {
	c := sample()
	out := Detail(c[0])
	assert.Contains(t, out, "## SN1_run2.gz")
	assert.Contains(t, out, "**Tags:** DEBUG")
	assert.Contains(t, out, "```\nSN1 burn_in PASS\n```")

	out = Detail(c[1])
	assert.NotContains(t, out, "**Tags:**")
	assert.Contains(t, out, "No index line")
}

func TestText(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Text(&sb, sample()))

	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1\tDEBUG\t2024-03-05 10:30\t/dbg/log/S1/2024/03/DEBUG/SN1_run2.gz\tSN1 burn_in PASS", lines[0])
	assert.Equal(t, "2\t-\t2024-03-04 10:30\t/log/S1/202402/SN1_run1.gz\t", lines[1])
}

func TestLine(t *testing.T) {
	c := sample()
	assert.Equal(t, " 1. 2024-03-05 10:30  SN1_run2.gz", Line(1, c[0]))
	assert.Equal(t, "12. 2024-03-04 10:30  SN1_run1.gz", Line(12, c[1]))
}

func TestFormatTimeZero(t *testing.T) {
	assert.Equal(t, "unknown", formatTime(time.Time{}))
}
