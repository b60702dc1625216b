package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estuary/streambench/internal/config"
	"github.com/estuary/streambench/internal/endpoint"
	"github.com/estuary/streambench/internal/epoch"
	"github.com/estuary/streambench/internal/opslog"
	"github.com/estuary/streambench/internal/stats"
)

func TestMatchesIsCaseInsensitiveSubstringOverCommaList(t *testing.T) {
	c, err := config.From([]string{"--benchmarks", "NEXmark, ysb"})
	require.NoError(t, err)

	assert.True(t, matches(c, "benchmarks", "nexmark"))
	assert.True(t, matches(c, "benchmarks", "ysb"))
	assert.False(t, matches(c, "benchmarks", "hibench"))
}

func TestMatchesSelectsEverythingWhenKeyAbsent(t *testing.T) {
	c, err := config.From(nil)
	require.NoError(t, err)

	assert.True(t, matches(c, "benchmarks", "anything"))
}

func TestOffsetForWorkerShiftsFirstEventIDAndCarriesOverKnownKeys(t *testing.T) {
	c, err := config.From([]string{"--first-event-id", "5", "--seconds", "10", "--unrelated-key", "x"})
	require.NoError(t, err)

	shifted := offsetForWorker(c, 2)

	assert.Equal(t, 5+2*1_000_000, shifted.GetInt("first-event-id", -1))
	assert.Equal(t, 10, shifted.GetInt("seconds", -1))
	_, ok := shifted.Get("unrelated-key")
	assert.False(t, ok, "keys outside the known carry-over list must not leak through")
}

func TestOffsetForWorkerIsIdentityShiftForWorkerZero(t *testing.T) {
	c, err := config.From([]string{"--first-event-id", "7"})
	require.NoError(t, err)

	shifted := offsetForWorker(c, 0)
	assert.Equal(t, 7, shifted.GetInt("first-event-id", -1))
}

func TestMergeStatsSumsCountAndTakesMaxTotal(t *testing.T) {
	all := []stats.Statistics{
		{Count: 3, Total: 2 * time.Second, Minimum: time.Millisecond, Maximum: 9 * time.Millisecond, Average: 3 * time.Millisecond, Median: 3 * time.Millisecond, Deviation: time.Millisecond},
		{Count: 1, Total: 5 * time.Second, Minimum: 2 * time.Millisecond, Maximum: 2 * time.Millisecond, Average: 2 * time.Millisecond, Median: 2 * time.Millisecond, Deviation: 0},
	}
	merged := mergeStats(all)

	assert.Equal(t, 4, merged.Count)
	assert.Equal(t, 5*time.Second, merged.Total)
	assert.Equal(t, time.Millisecond, merged.Minimum)
	assert.Equal(t, 9*time.Millisecond, merged.Maximum)
}

func TestMergeStatsOfEmptyInputIsZeroValue(t *testing.T) {
	assert.Equal(t, stats.Statistics{}, mergeStats(nil))
}

func TestRunTestsDrivesEveryWorkerConcurrentlyWithoutDeadlock(t *testing.T) {
	c, err := config.From([]string{
		"--input", "null", "--output", "null",
		"--benchmarks", "nexmark", "--tests", "q0", "--threads", "4",
	})
	require.NoError(t, err)
	assert.NoError(t, runTests(c))
}

func TestResolveSourceNullVariantIsImmediatelyOutOfData(t *testing.T) {
	c, err := config.From([]string{"--input", "null"})
	require.NoError(t, err)

	src, closeFn, err := resolveSource[int](c, "suite", ".json", 0, nil, nil)
	require.NoError(t, err)
	defer closeFn()

	_, _, nextErr := src.Next()
	assert.True(t, endpoint.IsOutOfData(nextErr))
}

func TestResolveSourceGeneratedVariantDelegatesToGenerator(t *testing.T) {
	c, err := config.From(nil)
	require.NoError(t, err)
	called := false

	_, _, err = resolveSource[int](c, "suite", ".json", 0, nil, func(*config.Config) endpoint.Source[int] {
		called = true
		return endpoint.NullSource[int]()
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestResolveSourceFileVariantReadsBackGeneratedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 1\n0 2\n"), 0o644))

	c, err := config.From([]string{"--input", "file", "--input-file", path})
	require.NoError(t, err)

	decode := func(line string) (epoch.T, int, error) { return 0, len(line), nil }
	src, closeFn, err := resolveSource[int](c, "suite", ".txt", 0, decode, nil)
	require.NoError(t, err)
	defer closeFn()

	_, batch, nextErr := src.Next()
	require.NoError(t, nextErr)
	assert.NotEmpty(t, batch)
}

func TestResolveDrainFileVariantWritesRenderedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	c, err := config.From([]string{"--output", "file", "--output-file", path})
	require.NoError(t, err)

	render := func(_ epoch.T, d int) string { return "line" }
	drain, closeFn, err := resolveDrain[int](c, 0, "q", render, opslog.New())
	require.NoError(t, err)

	drain.Push(0, []int{1, 2})
	require.NoError(t, closeFn())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\nline\n", string(got))
}

func TestResolveDrainDefaultsToNull(t *testing.T) {
	c, err := config.From(nil)
	require.NoError(t, err)

	drain, closeFn, err := resolveDrain[int](c, 0, "q", func(_ epoch.T, d int) string { return "" }, opslog.New())
	require.NoError(t, err)
	defer closeFn()

	// NullDrain discards everything; Push must not panic.
	drain.Push(0, []int{1})
}

func TestOutputFilePathDefaultsUnderDataDir(t *testing.T) {
	c, err := config.From([]string{"--data-dir", "/tmp/mydata"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/tmp/mydata", "out-3.txt"), outputFilePath(c, 3))
}

func TestOpenInputFilePrefersExplicitInputFile(t *testing.T) {
	c, err := config.From([]string{"--input-file", "/explicit/path.json"})
	require.NoError(t, err)

	assert.Equal(t, "/explicit/path.json", openInputFile(c, "nexmark", ".json", 0))
}

func TestOpenInputFileDefaultsToSuiteLayout(t *testing.T) {
	c, err := config.From([]string{"--data-dir", "/data"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data", "nexmark", "events-2.json"), openInputFile(c, "nexmark", ".json", 2))
}
