// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/fontslim/internal/cacheutil"
	"github.com/staranto/fontslim/internal/fontfile"
)

type fixture struct {
	cache     *Cache
	input     string
	artifact  string
	result    fontfile.Result
	clockTime time.Time
}

// newFixture lays out an input font, an optimized artifact and a matching
// result under a fresh temp dir.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()

	f := &fixture{
		input:     filepath.Join(dir, "src", "vazir-bold.ttf"),
		artifact:  filepath.Join(dir, "out", "vazir.1a2b3c4d.woff2"),
		clockTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(f.input), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.artifact), 0o755))
	require.NoError(t, os.WriteFile(f.input, append([]byte{0, 1, 0, 0}, make([]byte, 996)...), 0o600))
	require.NoError(t, os.WriteFile(f.artifact, make([]byte, 250), 0o600))

	f.result = fontfile.Result{
		Original:   fontfile.NewDescriptor(f.input, 1000),
		Optimized:  fontfile.NewDescriptor(f.artifact, 250),
		Reduction:  "75.0",
		CSS:        "@font-face {\n  font-family: 'Vazir';\n}\n",
		FontFamily: "Vazir",
		FontWeight: 700,
	}

	base := []Option{
		WithLogger(&log.Logger{Handler: discard.New(), Level: log.DebugLevel}),
		WithClock(func() time.Time { return f.clockTime }),
	}
	f.cache = New(filepath.Join(dir, "cache"), append(base, opts...)...)
	return f
}

func TestSetThenGet_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	got, ok := f.cache.Get(f.input)
	require.True(t, ok)
	assert.Equal(t, f.result, *got)
}

func TestGet_RelativeAndAbsolutePathsShareKey(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, f.input)
	require.NoError(t, err)

	_, ok := f.cache.Get(rel)
	assert.True(t, ok)
}

func TestGet_Missing(t *testing.T) {
	f := newFixture(t)
	l := f.cache.Lookup(f.input)
	assert.Equal(t, OutcomeMiss, l.Outcome)
	assert.Nil(t, l.Result)
	assert.NoError(t, l.Err)
}

func TestGet_InputContentChanged(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	require.NoError(t, os.WriteFile(f.input, []byte{0, 1, 0, 0, 42}, 0o600))

	l := f.cache.Lookup(f.input)
	assert.Equal(t, OutcomeStaleContent, l.Outcome)
	assert.NoFileExists(t, cacheutil.EntryPath(f.cache.Dir(), f.input))

	_, ok := f.cache.Get(f.input)
	assert.False(t, ok)
}

func TestGet_TouchWithSameBytesStillHits(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(f.input, later, later))

	_, ok := f.cache.Get(f.input)
	assert.True(t, ok)
}

func TestGet_ArtifactDeleted(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	require.NoError(t, os.Remove(f.artifact))

	l := f.cache.Lookup(f.input)
	assert.Equal(t, OutcomeMissingArtifact, l.Outcome)
	assert.NoFileExists(t, cacheutil.EntryPath(f.cache.Dir(), f.input))
}

func TestGet_VersionBump(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	bumped := New(f.cache.Dir(), WithVersion("99"), WithLogger(&log.Logger{Handler: discard.New()}))
	l := bumped.Lookup(f.input)
	assert.Equal(t, OutcomeStaleVersion, l.Outcome)

	// The old handle no longer finds it either; the entry was deleted.
	assert.Equal(t, OutcomeMiss, f.cache.Lookup(f.input).Outcome)
}

func TestGet_CorruptEntryDegradesToMiss(t *testing.T) {
	f := newFixture(t)
	p := cacheutil.EntryPath(f.cache.Dir(), f.input)
	require.NoError(t, cacheutil.WriteAtomic(p, []byte("{not json")))

	l := f.cache.Lookup(f.input)
	assert.Equal(t, OutcomeError, l.Outcome)
	assert.Error(t, l.Err)
	assert.NoFileExists(t, p)

	_, ok := f.cache.Get(f.input)
	assert.False(t, ok)
}

func TestGet_RestatsSizes(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	// Same content hash is required, so only the artifact may change size.
	require.NoError(t, os.WriteFile(f.artifact, make([]byte, 300), 0o600))

	got, ok := f.cache.Get(f.input)
	require.True(t, ok)
	assert.EqualValues(t, 300, got.Optimized.Size)
	assert.Equal(t, "300 B", got.Optimized.SizeFormatted)
	assert.Equal(t, "75.0", got.Reduction)
}

func TestSet_UnreadableInputIsLoggedNotPanicked(t *testing.T) {
	handler := memory.New()
	f := newFixture(t, WithLogger(&log.Logger{Handler: handler, Level: log.DebugLevel}))

	f.cache.Set(filepath.Join(filepath.Dir(f.input), "missing.ttf"), f.result)

	require.NotEmpty(t, handler.Entries)
	assert.Equal(t, log.WarnLevel, handler.Entries[0].Level)
	assert.Equal(t, 0, f.cache.Stats().Entries)
}

func TestSet_UnwritableRootIsSwallowed(t *testing.T) {
	f := newFixture(t)
	// A regular file where the root directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	c := New(blocker, WithLogger(&log.Logger{Handler: discard.New()}))

	assert.NotPanics(t, func() { c.Set(f.input, f.result) })
	_, ok := c.Get(f.input)
	assert.False(t, ok)
}

func TestDelete_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	f.cache.Delete(f.input)
	f.cache.Delete(f.input)

	_, ok := f.cache.Get(f.input)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	f.cache.Clear()

	_, ok := f.cache.Get(f.input)
	assert.False(t, ok)
	assert.Equal(t, 0, f.cache.Stats().Entries)
	assert.NoDirExists(t, f.cache.Dir())

	// Clearing an absent root is a no-op.
	assert.NotPanics(t, f.cache.Clear)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, Stats{}, f.cache.Stats())

	first := f.clockTime
	f.cache.Set(f.input, f.result)

	other := filepath.Join(filepath.Dir(f.input), "vazir-light.ttf")
	require.NoError(t, os.WriteFile(other, []byte{0, 1, 0, 0}, 0o600))
	f.clockTime = first.Add(2 * time.Hour)
	f.cache.Set(other, f.result)

	// A malformed entry counts toward size but not timestamps.
	bad := cacheutil.EntryPath(f.cache.Dir(), "garbage")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))

	st := f.cache.Stats()
	assert.Equal(t, 3, st.Entries)
	assert.Greater(t, st.TotalSize, int64(len("garbage")))
	assert.True(t, st.Oldest.Equal(first), "oldest %v", st.Oldest)
	assert.True(t, st.Newest.Equal(first.Add(2*time.Hour)), "newest %v", st.Newest)
}

func TestCleanOld(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)

	other := filepath.Join(filepath.Dir(f.input), "vazir-light.ttf")
	require.NoError(t, os.WriteFile(other, []byte{0, 1, 0, 0}, 0o600))
	f.clockTime = f.clockTime.Add(48 * time.Hour)
	f.cache.Set(other, f.result)

	assert.Equal(t, 0, f.cache.CleanOld(365*24*time.Hour))
	assert.Equal(t, 2, f.cache.Stats().Entries)

	assert.Equal(t, 1, f.cache.CleanOld(24*time.Hour))
	_, ok := f.cache.Get(f.input)
	assert.False(t, ok)
	_, ok = f.cache.Get(other)
	assert.True(t, ok)

	assert.Equal(t, 1, f.cache.CleanOld(0))
	assert.Equal(t, 0, f.cache.Stats().Entries)
}

func TestCleanOld_RemovesMalformed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, cacheutil.WriteAtomic(cacheutil.EntryPath(f.cache.Dir(), "x"), []byte(`{"timestamp":"soon"}`)))
	assert.Equal(t, 1, f.cache.CleanOld(time.Hour))
}

func TestStats_ZeroTimestamp(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)
	require.NoError(t, cacheutil.WriteAtomic(cacheutil.EntryPath(f.cache.Dir(), "epoch"), []byte(`{"timestamp":0}`)))

	st := f.cache.Stats()
	assert.Equal(t, 2, st.Entries)
	assert.True(t, st.Oldest.Equal(time.UnixMilli(0)), "oldest %v", st.Oldest)
	assert.True(t, st.Newest.Equal(f.clockTime), "newest %v", st.Newest)
}

func TestMaintenance_LeavesForeignFiles(t *testing.T) {
	f := newFixture(t)
	f.cache.Set(f.input, f.result)
	foreign := filepath.Join(f.cache.Dir(), "package.json")
	require.NoError(t, os.WriteFile(foreign, []byte(`{"name":"site"}`), 0o600))

	assert.Equal(t, 1, f.cache.Stats().Entries)
	assert.Equal(t, 0, f.cache.CleanOld(time.Hour))
	assert.FileExists(t, foreign)

	f.cache.Clear()
	assert.FileExists(t, foreign)
	assert.Equal(t, 0, f.cache.Stats().Entries)
}

func TestNew_UnresolvedDirIsDisabled(t *testing.T) {
	for _, k := range []string{"HOME", "XDG_CACHE_HOME", "LocalAppData", "FONTSLIM_CACHE_DIR"} {
		t.Setenv(k, "")
	}
	cwd := t.TempDir()
	t.Chdir(cwd)
	pkg := filepath.Join(cwd, "package.json")
	require.NoError(t, os.WriteFile(pkg, []byte(`{"name":"site"}`), 0o600))
	input := filepath.Join(cwd, "vazir-bold.ttf")
	require.NoError(t, os.WriteFile(input, []byte{0, 1, 0, 0}, 0o600))

	c := New("", WithLogger(&log.Logger{Handler: discard.New()}))
	assert.True(t, c.Disabled())
	assert.Empty(t, c.Dir())

	c.Set(input, fontfile.Result{Original: fontfile.NewDescriptor(input, 4)})
	_, ok := c.Get(input)
	assert.False(t, ok)
	assert.Equal(t, Stats{}, c.Stats())
	assert.Equal(t, 0, c.CleanOld(0))
	c.Clear()
	c.Delete(input)

	assert.FileExists(t, pkg)
	des, err := os.ReadDir(cwd)
	require.NoError(t, err)
	assert.Len(t, des, 2)
}

func TestCleanOld_MissingRoot(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "none"), WithLogger(&log.Logger{Handler: discard.New()}))
	assert.Equal(t, 0, c.CleanOld(0))
	assert.Equal(t, Stats{}, c.Stats())
}

func TestNew_DefaultsToCacheutilDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FONTSLIM_CACHE_DIR", dir)
	c := New("")
	assert.Equal(t, dir, c.Dir())
	assert.False(t, c.Disabled())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "hit", OutcomeHit.String())
	assert.Equal(t, "miss", OutcomeMiss.String())
	assert.Equal(t, "stale-content", OutcomeStaleContent.String())
	assert.Equal(t, "missing-artifact", OutcomeMissingArtifact.String())
}
