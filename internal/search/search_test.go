package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var base = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

// touch writes a file under root, creating parents, with mtime base+offset.
func touch(t *testing.T, root, rel, content string, offset time.Duration) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	when := base.Add(offset)
	require.NoError(t, os.Chtimes(path, when, when))
	return path
}

func names(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

func newSearcher() *Searcher {
	return New(DefaultOptions())
}

func scenarioA(t *testing.T) string {
	root := t.TempDir()
	touch(t, root, "S12345/2024/01/S12345.mlnx", "Some info... SN123 ... more info\n", 0)
	touch(t, root, "S12345/2024/01/DEBUG/some_log_SN123.gz", "Log content", time.Minute)
	touch(t, root, "S12345/2024/01/DEBUG/other_log.gz", "", 2*time.Minute)
	return root
}

func TestSearchScenarioNestedLayout(t *testing.T) {
	root := scenarioA(t)

	got, err := newSearcher().Search(context.Background(), []string{root}, "S12345", "SN123")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "some_log_SN123.gz", got[0].Name)
	assert.Equal(t, filepath.Join(root, "S12345", "2024", "01", "DEBUG", "some_log_SN123.gz"), got[0].Path)
	assert.Equal(t, filepath.Join(root, "S12345", "2024", "01"), got[0].Period)
	assert.Equal(t, "Some info... SN123 ... more info", got[0].Description)
}

func TestSearchScenarioFlatLayout(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "S555/202401/S555.mlnx", "found SN555 here", 0)
	touch(t, root, "S555/202401/DEBUG/log_SN555.gz", "", 0)

	got, err := newSearcher().Search(context.Background(), []string{root}, "S555", "SN555")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "log_SN555.gz", got[0].Name)
}

func TestSearchScenarioWrongSerial(t *testing.T) {
	root := scenarioA(t)

	got, err := newSearcher().Search(context.Background(), []string{root}, "S12345", "WRONGSN")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchMissingProductDirectory(t *testing.T) {
	withProduct := scenarioA(t)
	empty := t.TempDir()
	absent := filepath.Join(t.TempDir(), "gone")

	got, err := newSearcher().Search(context.Background(), []string{empty, absent, withProduct}, "S12345", "SN123")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = newSearcher().Search(context.Background(), []string{empty, absent}, "S12345", "SN123")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchLayoutAgnostic(t *testing.T) {
	build := func(periodRel string) string {
		root := t.TempDir()
		p := "P1/" + periodRel + "/"
		touch(t, root, p+"P1.mlnx", "a_SN1.gz ok SN1\nsecond SN1 line\n", 0)
		touch(t, root, p+"DEBUG/a_SN1.gz", "", time.Minute)
		touch(t, root, p+"DEBUG/b_SN1.gz", "", 2*time.Minute)
		touch(t, root, p+"top_SN1.log", "", 3*time.Minute)
		touch(t, root, p+"DEBUG/led_SN1.gz", "", 4*time.Minute)
		return root
	}
	nested := build("2024/01")
	flat := build("202401")

	s := newSearcher()
	a, err := s.Search(context.Background(), []string{nested}, "P1", "SN1")
	require.NoError(t, err)
	b, err := s.Search(context.Background(), []string{flat}, "P1", "SN1")
	require.NoError(t, err)

	require.Equal(t, names(a), names(b))
	assert.Equal(t, []string{"a_SN1.gz", "b_SN1.gz", "top_SN1.log"}, names(a))

	descA := map[string]string{}
	for _, c := range a {
		descA[c.Name] = c.Description
	}
	for _, c := range b {
		assert.Equal(t, descA[c.Name], c.Description, c.Name)
	}
}

func TestSearchExclusionMarkers(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "P/202402/P.mlnx", "SN42\n", 0)
	touch(t, root, "P/202402/DEBUG/SN42_led_test.gz", "", 0)
	touch(t, root, "P/202402/DEBUG/SN42_SUMMARY.gz", "", 0)
	touch(t, root, "P/202402/SN42_SUMMARY.txt", "", 0)
	touch(t, root, "P/202402/DEBUG/SN42_run.gz", "", 0)

	got, err := newSearcher().Search(context.Background(), []string{root}, "P", "SN42")
	require.NoError(t, err)
	assert.Equal(t, []string{"SN42_run.gz"}, names(got))
}

func TestSearchCustomOptions(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "P/202402/P.idx", "SN42\n", 0)
	touch(t, root, "P/202402/logs/SN42_led.gz", "", 0)
	touch(t, root, "P/202402/logs/SN42_SKIP.gz", "", 0)

	s := New(Options{IndexExtension: "idx", ExcludeMarkers: []string{"SKIP"}, DebugDir: "logs"})
	got, err := s.Search(context.Background(), []string{root}, "P", "SN42")
	require.NoError(t, err)
	assert.Equal(t, []string{"SN42_led.gz"}, names(got))
}

func TestSearchDebugSubdirectoryWinsDedup(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "P/2024/03/P.mlnx", "SN7 entry\n", 0)
	touch(t, root, "P/2024/03/run_SN7.gz", "top", 0)
	touch(t, root, "P/2024/03/DEBUG/run_SN7.gz", "debug", time.Hour)

	got, err := newSearcher().Search(context.Background(), []string{root}, "P", "SN7")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(root, "P", "2024", "03", "DEBUG", "run_SN7.gz"), got[0].Path)
}

func TestSearchNoDedupAcrossPeriodsOrRoots(t *testing.T) {
	r1 := t.TempDir()
	r2 := t.TempDir()
	for _, root := range []string{r1, r2} {
		touch(t, root, "P/202401/P.mlnx", "SN1\n", 0)
		touch(t, root, "P/202401/DEBUG/x_SN1.gz", "", 0)
		touch(t, root, "P/202402/P.mlnx", "SN1\n", 0)
		touch(t, root, "P/202402/DEBUG/x_SN1.gz", "", 0)
	}

	got, err := newSearcher().Search(context.Background(), []string{r1, r2}, "P", "SN1")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestSearchDebugTag(t *testing.T) {
	parent := t.TempDir()
	prod := filepath.Join(parent, "lion", "log")
	dbg := filepath.Join(parent, "lion", "DBG", "log")
	for _, root := range []string{prod, dbg} {
		touch(t, root, "P/202401/P.mlnx", "SN1\n", 0)
		touch(t, root, "P/202401/DEBUG/x_SN1.gz", "", 0)
	}

	got, err := newSearcher().Search(context.Background(), []string{prod, dbg}, "P", "SN1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.False(t, got[0].HasTag(TagDebug), "DEBUG subdirectory alone does not tag")
	assert.Empty(t, got[0].Tags)
	assert.True(t, got[1].HasTag(TagDebug), "dbg segment matched case-insensitively")
}

func TestSearchSkipsPeriodWithoutIndexMatch(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "P/202401/P.mlnx", "SN2 only\n", 0)
	touch(t, root, "P/202401/DEBUG/x_SN1.gz", "", 0)
	touch(t, root, "P/202402/DEBUG/y_SN1.gz", "", 0)
	touch(t, root, "P/202403/P.mlnx", "SN1 tested\n", 0)
	touch(t, root, "P/202403/DEBUG/z_SN1.gz", "", 0)

	got, err := newSearcher().Search(context.Background(), []string{root}, "P", "SN1")
	require.NoError(t, err)
	assert.Equal(t, []string{"z_SN1.gz"}, names(got))
}

func TestSearchMultipleDescriptionsPerPeriod(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "P/202405/P.mlnx",
		"01 SN9 first station\n"+
			"02 SN9 second station\n"+
			"03 SN9 report for c_SN9.gz\n", 0)
	touch(t, root, "P/202405/DEBUG/a_SN9.gz", "", 1*time.Minute)
	touch(t, root, "P/202405/DEBUG/b_SN9.gz", "", 2*time.Minute)
	touch(t, root, "P/202405/DEBUG/c_SN9.gz", "", 3*time.Minute)
	touch(t, root, "P/202405/DEBUG/d_SN9.gz", "", 4*time.Minute)

	got, err := newSearcher().Search(context.Background(), []string{root}, "P", "SN9")
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Output of one period is oldest first.
	assert.Equal(t, "a_SN9.gz", got[0].Name)
	assert.Equal(t, "01 SN9 first station", got[0].Description)
	assert.Equal(t, "02 SN9 second station", got[1].Description)
	assert.Equal(t, "03 SN9 report for c_SN9.gz", got[2].Description)
	assert.False(t, got[3].HasDescription())
}

func TestSearchInvalidInput(t *testing.T) {
	s := newSearcher()
	_, err := s.Search(context.Background(), nil, "", "SN1")
	assert.ErrorIs(t, err, ErrMissingQuery)
	_, err = s.Search(context.Background(), nil, "P", "  ")
	assert.ErrorIs(t, err, ErrMissingQuery)
	_, err = s.Search(context.Background(), nil, "../etc", "SN1")
	assert.ErrorIs(t, err, ErrInvalidProduct)
	_, err = s.Search(context.Background(), nil, "..", "SN1")
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestSearchCancelled(t *testing.T) {
	root := scenarioA(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := newSearcher().Search(ctx, []string{root}, "S12345", "SN123")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, got)
}

func TestSearchLogsAbsorbedFaults(t *testing.T) {
	root := scenarioA(t)
	touch(t, root, "S12345/202402/S12345.mlnx", "SN123\n", 0)

	core, logs := observer.New(zapcore.DebugLevel)
	s := New(DefaultOptions(), WithLogger(zap.New(core)))

	got, err := s.Search(context.Background(), []string{root}, "S12345", "SN123")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// 202402 has no DEBUG directory.
	assert.NotZero(t, logs.FilterMessage("skipping unreadable path").Len())
	assert.Equal(t, 1, logs.FilterMessage("search finished").Len())
}

func TestSearchDebugTagIgnoresPeriodName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "log")
	touch(t, root, "P/2024/dbg/P.mlnx", "SN1\n", 0)
	touch(t, root, "P/2024/dbg/DEBUG/x_SN1.gz", "", 0)

	got, err := newSearcher().Search(context.Background(), []string{root}, "P", "SN1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(root, "P", "2024", "dbg"), got[0].Period)
	assert.Empty(t, got[0].Tags)
}

func TestSearchRelativeRootYieldsAbsolutePaths(t *testing.T) {
	parent := t.TempDir()
	touch(t, parent, "archive/P/202401/P.mlnx", "SN1\n", 0)
	touch(t, parent, "archive/P/202401/SN1_a.gz", "", 0)
	t.Chdir(parent)

	got, err := newSearcher().Search(context.Background(), []string{"archive"}, "P", "SN1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got[0].Period))
	assert.Equal(t, filepath.Join(wd, "archive", "P", "202401"), got[0].Period)
	assert.Equal(t, filepath.Join(got[0].Period, "SN1_a.gz"), got[0].Path)
}
