// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/fontslim/internal/cache"
	"github.com/staranto/fontslim/internal/fontfile"
	"github.com/staranto/fontslim/internal/subset"
)

var ttfMagic = []byte{0x00, 0x01, 0x00, 0x00}

// fakeEngine returns a fixed number of bytes and counts its calls.
type fakeEngine struct {
	size  int
	err   error
	calls int
	chars []rune
	fmt   fontfile.Format
}

func (e *fakeEngine) Subset(_ context.Context, font []byte, chars []rune, format fontfile.Format) ([]byte, error) {
	e.calls++
	e.chars = chars
	e.fmt = format
	if e.err != nil {
		return nil, e.err
	}
	out := make([]byte, e.size)
	copy(out, font)
	return out, nil
}

var _ subset.Engine = (*fakeEngine)(nil)

func quietLogger() log.Interface {
	return &log.Logger{Handler: discard.New(), Level: log.DebugLevel}
}

// writeFont creates a TrueType-looking file of size bytes under dir.
func writeFont(t *testing.T, dir, name string, size int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	data := make([]byte, size)
	copy(data, ttfMagic)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func newPipeline(t *testing.T, engine subset.Engine, opts ...Option) (*Pipeline, string) {
	t.Helper()
	cacheDir := filepath.Join(t.TempDir(), "cache")
	c := cache.New(cacheDir, cache.WithLogger(quietLogger()))
	base := []Option{WithCache(c), WithLogger(quietLogger())}
	return New(engine, append(base, opts...)...), cacheDir
}

func TestOptimizeOne_VazirBold(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 2_400_000)
	engine := &fakeEngine{size: 580_800}
	p, _ := newPipeline(t, engine)

	res, err := p.OptimizeOne(context.Background(), Request{
		InputPath: in,
		OutputDir: filepath.Join(dir, "out"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Vazir", res.FontFamily)
	assert.Equal(t, 700, res.FontWeight)
	assert.Equal(t, ".woff2", res.Optimized.Ext)
	assert.Equal(t, "vazir.woff2", res.Optimized.Name)
	assert.Equal(t, "75.8", res.Reduction)
	assert.Equal(t, int64(2_400_000), res.Original.Size)
	assert.Equal(t, int64(580_800), res.Optimized.Size)
	assert.Contains(t, res.CSS, "font-weight: 700;")
	assert.Contains(t, res.CSS, "font-style: normal;")
	assert.Contains(t, res.CSS, "font-display: swap;")
	assert.Contains(t, res.CSS, "src: url('./vazir.woff2') format('woff2');")
	assert.Contains(t, res.CSS, "unicode-range: U+")
	assert.Equal(t, fontfile.FormatWOFF2, engine.fmt)
	assert.Contains(t, engine.chars, 'ب')
	assert.Contains(t, engine.chars, 'A')

	info, err := os.Stat(res.Optimized.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(580_800), info.Size())
}

func TestOptimizeOne_ExplicitMetadataWins(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	p, _ := newPipeline(t, &fakeEngine{size: 100})

	res, err := p.OptimizeOne(context.Background(), Request{
		InputPath:   in,
		OutputDir:   dir,
		FontFamily:  "Vazir Text",
		FontWeight:  300,
		FontStyle:   "italic",
		FontDisplay: "optional",
		Format:      fontfile.FormatTTF,
		Subsets:     []string{"latin"},
	})
	require.NoError(t, err)

	assert.Equal(t, "vazir-text.ttf", res.Optimized.Name)
	assert.Equal(t, 300, res.FontWeight)
	assert.Contains(t, res.CSS, "font-family: 'Vazir Text';")
	assert.Contains(t, res.CSS, "format('truetype')")
	assert.Contains(t, res.CSS, "font-style: italic;")
	assert.Contains(t, res.CSS, "font-display: optional;")
	assert.Contains(t, res.CSS, "unicode-range: U+0020-007E, U+00A0-00FF;")
}

func TestOptimizeOne_HashedName(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	p, _ := newPipeline(t, &fakeEngine{size: 100})

	res, err := p.OptimizeOne(context.Background(), Request{InputPath: in, OutputDir: dir, Hash: true})
	require.NoError(t, err)

	out, err := os.ReadFile(res.Optimized.Path)
	require.NoError(t, err)
	want := "vazir." + fontfile.HashBytes(out)[:8] + ".woff2"
	assert.Equal(t, want, res.Optimized.Name)
	assert.Contains(t, res.CSS, "url('./"+want+"')")
}

func TestOptimizeOne_UnhashedNamesCollide(t *testing.T) {
	dir := t.TempDir()
	bold := writeFont(t, dir, "vazir-bold.ttf", 1000)
	light := writeFont(t, dir, "vazir-light.ttf", 2000)
	p, _ := newPipeline(t, &fakeEngine{size: 100})

	a, err := p.OptimizeOne(context.Background(), Request{InputPath: bold, OutputDir: dir})
	require.NoError(t, err)
	b, err := p.OptimizeOne(context.Background(), Request{InputPath: light, OutputDir: dir})
	require.NoError(t, err)

	assert.Equal(t, a.Optimized.Path, b.Optimized.Path)
}

func TestOptimizeOne_CacheIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	engine := &fakeEngine{size: 100}
	p, _ := newPipeline(t, engine)
	req := Request{InputPath: in, OutputDir: filepath.Join(dir, "out"), UseCache: true}

	first, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)
	second, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, engine.calls)
}

func TestOptimizeOne_CacheKeyIgnoresParameters(t *testing.T) {
	// The cache is keyed by input path only. A changed weight for the same
	// input is served from the stale entry until the cache is bypassed.
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	engine := &fakeEngine{size: 100}
	p, _ := newPipeline(t, engine)
	req := Request{InputPath: in, OutputDir: dir, UseCache: true}

	_, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)

	req.FontWeight = 300
	stale, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 700, stale.FontWeight)
	assert.Equal(t, 1, engine.calls)

	req.UseCache = false
	fresh, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 300, fresh.FontWeight)
	assert.Equal(t, 2, engine.calls)
}

func TestOptimizeOne_ContentChangeMissesCache(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	engine := &fakeEngine{size: 100}
	p, _ := newPipeline(t, engine)
	req := Request{InputPath: in, OutputDir: dir, UseCache: true}

	_, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)

	writeFont(t, dir, "vazir-bold.ttf", 1200)
	res, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), res.Original.Size)
	assert.Equal(t, 2, engine.calls)
}

func TestOptimizeOne_RequestCacheDir(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	engine := &fakeEngine{size: 100}
	p, defaultDir := newPipeline(t, engine)
	own := filepath.Join(dir, "own-cache")
	req := Request{InputPath: in, OutputDir: dir, UseCache: true, CacheDir: own}

	_, err := p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)
	_, err = p.OptimizeOne(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.calls)

	entries, err := os.ReadDir(own)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	_, err = os.Stat(defaultDir)
	assert.True(t, os.IsNotExist(err))
}

func TestOptimizeOne_CacheDisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	engine := &fakeEngine{size: 100}
	p, cacheDir := newPipeline(t, engine)

	for range 2 {
		_, err := p.OptimizeOne(context.Background(), Request{InputPath: in, OutputDir: dir})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, engine.calls)
	_, err := os.Stat(cacheDir)
	assert.True(t, os.IsNotExist(err))
}

func TestOptimizeOne_UnresolvedCacheDirSkipsCaching(t *testing.T) {
	for _, k := range []string{"HOME", "XDG_CACHE_HOME", "LocalAppData", "FONTSLIM_CACHE_DIR"} {
		t.Setenv(k, "")
	}
	cwd := t.TempDir()
	t.Chdir(cwd)
	pkg := filepath.Join(cwd, "package.json")
	require.NoError(t, os.WriteFile(pkg, []byte(`{"name":"site"}`), 0o600))

	in := writeFont(t, cwd, "vazir-bold.ttf", 1000)
	out := filepath.Join(cwd, "out")
	engine := &fakeEngine{size: 100}
	p := New(engine, WithLogger(quietLogger()))

	for range 2 {
		_, err := p.OptimizeOne(context.Background(), Request{InputPath: in, OutputDir: out, UseCache: true})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, engine.calls)

	des, err := os.ReadDir(cwd)
	require.NoError(t, err)
	var names []string
	for _, de := range des {
		names = append(names, de.Name())
	}
	assert.ElementsMatch(t, []string{"package.json", "vazir-bold.ttf", "out"}, names)
	assert.FileExists(t, pkg)
}

func TestOptimizeOne_ValidationErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)

	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"no input", Request{OutputDir: dir}, "inputPath"},
		{"no output", Request{InputPath: in}, "outputDir"},
		{"weight too high", Request{InputPath: in, OutputDir: dir, FontWeight: 1000}, "fontWeight"},
		{"weight too low", Request{InputPath: in, OutputDir: dir, FontWeight: 50}, "fontWeight"},
		{"style", Request{InputPath: in, OutputDir: dir, FontStyle: "slanted"}, "fontStyle"},
		{"display", Request{InputPath: in, OutputDir: dir, FontDisplay: "later"}, "fontDisplay"},
		{"empty subsets", Request{InputPath: in, OutputDir: dir, Subsets: []string{}}, "subsets"},
		{"unknown subset", Request{InputPath: in, OutputDir: dir, Subsets: []string{"klingon"}}, "subsets"},
		{"missing file", Request{InputPath: filepath.Join(dir, "nope.ttf"), OutputDir: dir}, "inputPath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{size: 10}
			p, _ := newPipeline(t, engine)

			_, err := p.OptimizeOne(context.Background(), tt.req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Zero(t, engine.calls)
		})
	}
}

func TestOptimizeOne_UnsupportedFormats(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	eot := writeFont(t, dir, "vazir-bold.eot", 1000)
	p, _ := newPipeline(t, &fakeEngine{size: 10})

	_, err := p.OptimizeOne(context.Background(), Request{InputPath: in, OutputDir: dir, Format: "eot"})
	var ue *UnsupportedFormatError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "eot", ue.Value)
	assert.Equal(t, []string{"woff2", "woff", "ttf"}, ue.Supported)

	_, err = p.OptimizeOne(context.Background(), Request{InputPath: eot, OutputDir: dir})
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ".eot", ue.Value)
}

func TestOptimizeOne_InvalidFont(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "vazir.ttf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	bogus := filepath.Join(dir, "bogus.woff2")
	require.NoError(t, os.WriteFile(bogus, []byte("definitely not a font"), 0o600))

	engine := &fakeEngine{size: 10}
	p, _ := newPipeline(t, engine)

	for _, in := range []string{empty, bogus} {
		_, err := p.OptimizeOne(context.Background(), Request{InputPath: in, OutputDir: dir, UseCache: true})
		var ie *InvalidFontError
		require.ErrorAs(t, err, &ie, in)
		var te *TransformError
		assert.False(t, errors.As(err, &te))
	}
	assert.Zero(t, engine.calls)
}

func TestOptimizeOne_TransformErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	boom := errors.New("boom")

	tests := []struct {
		name   string
		engine *fakeEngine
		cause  error
	}{
		{"engine failure", &fakeEngine{err: boom}, boom},
		{"empty output", &fakeEngine{size: 0}, errEmptyOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, cacheDir := newPipeline(t, tt.engine)

			_, err := p.OptimizeOne(context.Background(), Request{InputPath: in, OutputDir: dir, UseCache: true})
			var te *TransformError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, in, te.Path)
			assert.ErrorIs(t, err, tt.cause)

			_, statErr := os.Stat(cacheDir)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestOptimizeOne_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFont(t, dir, "vazir-bold.ttf", 1000)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	p, _ := newPipeline(t, &fakeEngine{size: 10})

	_, err := p.OptimizeOne(context.Background(), Request{InputPath: in, OutputDir: filepath.Join(blocker, "out")})
	var te *TransformError
	require.ErrorAs(t, err, &te)
}

func TestOptimizeMany_SkipsFailures(t *testing.T) {
	dir := t.TempDir()
	first := writeFont(t, dir, "alpha-regular.ttf", 1000)
	missing := filepath.Join(dir, "beta-regular.ttf")
	third := writeFont(t, dir, "gamma-bold.ttf", 1000)

	var failed []string
	p, _ := newPipeline(t, &fakeEngine{size: 100}, WithFailureHandler(func(in string, err error) {
		failed = append(failed, in)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	}))

	results := p.OptimizeMany(context.Background(), []string{first, missing, third}, filepath.Join(dir, "out"), Request{})

	require.Len(t, results, 2)
	assert.Equal(t, "Alpha", results[0].FontFamily)
	assert.Equal(t, "Gamma", results[1].FontFamily)
	assert.Equal(t, 700, results[1].FontWeight)
	assert.Equal(t, []string{missing}, failed)
}

func TestOptimizeMany_SharedOptions(t *testing.T) {
	dir := t.TempDir()
	a := writeFont(t, dir, "alpha-regular.ttf", 1000)
	b := writeFont(t, dir, "beta-regular.ttf", 1000)
	engine := &fakeEngine{size: 100}
	p, _ := newPipeline(t, engine)

	shared := Request{InputPath: "ignored", OutputDir: "ignored", Format: fontfile.FormatWOFF, Subsets: []string{"digits"}}
	results := p.OptimizeMany(context.Background(), []string{a, b}, filepath.Join(dir, "out"), shared)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, ".woff", r.Optimized.Ext)
		assert.Equal(t, filepath.Join(dir, "out"), filepath.Dir(r.Optimized.Path))
	}
	assert.Len(t, engine.chars, 30)
}

func TestOptimizeMany_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	a := writeFont(t, dir, "alpha-regular.ttf", 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	engine := &fakeEngine{size: 100}
	p, _ := newPipeline(t, engine, WithFailureHandler(func(_ string, err error) { errs = append(errs, err) }))

	results := p.OptimizeMany(ctx, []string{a}, dir, Request{})
	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Zero(t, engine.calls)
}

func TestGenerateAggregateCSS(t *testing.T) {
	results := []fontfile.Result{
		{
			Original:  fontfile.NewDescriptor("/src/a.ttf", 1000),
			Optimized: fontfile.NewDescriptor("/out/a.woff2", 200),
			Reduction: "80.0",
			CSS:       "@font-face {\n  font-family: 'A';\n}\n",
		},
		{
			Original:  fontfile.NewDescriptor("/src/b.ttf", 3000),
			Optimized: fontfile.NewDescriptor("/out/b.woff2", 2000),
			Reduction: "33.3",
			CSS:       "@font-face {\n  font-family: 'B';\n}\n",
		},
	}
	out := filepath.Join(t.TempDir(), "css", "fonts.css")

	require.NoError(t, GenerateAggregateCSS(results, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	css := string(data)
	assert.Contains(t, css, " * Fonts: 2\n")
	// (1 - 2200/4000) * 100, not the mean of 80.0 and 33.3
	assert.Contains(t, css, " * Average reduction: 45.0%\n")
	assert.Less(t, strings.Index(css, "'A'"), strings.Index(css, "'B'"))
}

func TestAggregateCSS_Empty(t *testing.T) {
	css := AggregateCSS(nil)
	assert.Contains(t, css, " * Fonts: 0\n")
	assert.Contains(t, css, " * Average reduction: 0.0%\n")
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "b.woff", 10)
	writeFont(t, dir, "a.ttf", 10)
	writeFont(t, dir, "notes.txt", 10)
	writeFont(t, dir, filepath.Join("nested", "c.ttf"), 10)
	loose := filepath.Join(t.TempDir(), "loose.otf")

	got, err := ExpandInputs([]string{loose, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{loose, filepath.Join(dir, "a.ttf"), filepath.Join(dir, "b.woff")}, got)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "vazir-text.woff", outputName("Vazir Text", fontfile.FormatWOFF, []byte("x"), false))
	assert.Equal(t, "font.ttf", outputName("", fontfile.FormatTTF, nil, false))
	assert.Regexp(t, `^vazir\.[0-9a-f]{8}\.woff2$`, outputName("Vazir", fontfile.FormatWOFF2, []byte("x"), true))
}
