package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/patcheck/internal/aggregate"
	"github.com/roach88/patcheck/internal/extract"
	"github.com/roach88/patcheck/internal/geom"
	"github.com/roach88/patcheck/internal/ir"
	"github.com/roach88/patcheck/internal/layout"
	"github.com/roach88/patcheck/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine(opts ...Option) *Engine {
	opts = append([]Option{WithLogger(testutil.DiscardLogger()), WithWorkers(4)}, opts...)
	return New(testutil.FixtureRules(), opts...)
}

func TestProcessCell_Fixture(t *testing.T) {
	e := newTestEngine()
	res, err := e.ProcessCell("a.gds", layout.FixtureCell())
	require.NoError(t, err)

	assert.Equal(t, "a.gds", res.File)
	assert.Equal(t, "SQUARES", res.Cell)
	assert.Equal(t, map[string]ir.Tally{
		testutil.FixtureRule: {GoodPass: 1, GoodFail: 1, BadPass: 1, BadFail: 1},
	}, res.Tallies)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 5, res.Layers)
}

func TestProcessCell_Pure(t *testing.T) {
	e := newTestEngine()
	cell := layout.FixtureCell()

	first, err := e.ProcessCell("a.gds", cell)
	require.NoError(t, err)
	second, err := e.ProcessCell("a.gds", cell)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProcessCell_CustomConvention(t *testing.T) {
	conv := extract.DefaultConvention()
	conv.Pattern = ir.LayerPurpose{Layer: 100, Purpose: 0}

	// Layer 100 carries the same squares as 255.0 in the fixture.
	e := newTestEngine(WithConvention(conv))
	res, err := e.ProcessCell("a.gds", layout.FixtureCell())
	require.NoError(t, err)
	assert.Equal(t, ir.Tally{GoodPass: 1, GoodFail: 1, BadPass: 1, BadFail: 1}, res.Tallies[testutil.FixtureRule])
}

func TestProcessCell_Unresolved(t *testing.T) {
	cell := layout.FixtureCell()
	cell.Labels = nil

	_, err := newTestEngine().ProcessCell("a.gds", cell)
	require.Error(t, err)
	assert.True(t, ir.IsUnresolved(err))
}

func TestRun_TwoFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		testutil.WriteFixtureGDS(t, dir, "b.gds"),
		testutil.WriteFixtureGDS(t, dir, "a.gds"),
	}

	r, err := newTestEngine().Run(context.Background(), files)
	require.NoError(t, err)

	rr, ok := r.Rule(testutil.FixtureRule)
	require.True(t, ok)
	assert.Equal(t, ir.Tally{GoodPass: 2, GoodFail: 2, BadPass: 2, BadFail: 2}, rr.Total())

	unused, ok := r.Rule("M.S.1")
	require.True(t, ok)
	assert.Len(t, unused.Cells, 2, "declared rule gets a zero tally per cell")
	assert.True(t, unused.Total().IsZero())

	assert.Equal(t, []string{filepath.Join(dir, "a.gds"), filepath.Join(dir, "b.gds")}, r.Files)
	assert.Empty(t, r.Diagnostics)
}

func TestRun_DecodeFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFixtureGDS(t, dir, "good.gds")
	bad := testutil.WriteFile(t, dir, "bad.gds", []byte{0x00, 0x06, 0x00, 0x02, 0x02})

	r, err := newTestEngine().Run(context.Background(), []string{bad, good})
	require.NoError(t, err)

	rr, _ := r.Rule(testutil.FixtureRule)
	assert.Equal(t, ir.Tally{GoodPass: 1, GoodFail: 1, BadPass: 1, BadFail: 1}, rr.Total())

	require.Len(t, r.Diagnostics, 1)
	d := r.Diagnostics[0]
	assert.Equal(t, ir.CodeDecodeFailure, d.Code)
	assert.Equal(t, bad, d.File)
	assert.True(t, d.Fatal)
}

func TestRun_BadCellIsolated(t *testing.T) {
	broken := layout.FixtureCell()
	broken.Name = "BROKEN"
	broken.Polygons = append(broken.Polygons, ir.Polygon{
		Points:  geom.Ring{geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(2, 2)},
		Layer:   255,
		Purpose: 0,
	})

	lib := layout.FixtureLibrary()
	lib.Cells = append(lib.Cells, broken)
	path := testutil.WriteLibrary(t, t.TempDir(), "two_cells.gds", lib)

	r, err := newTestEngine().Run(context.Background(), []string{path})
	require.NoError(t, err)

	rr, _ := r.Rule(testutil.FixtureRule)
	assert.Equal(t, ir.Tally{GoodPass: 1, GoodFail: 1, BadPass: 1, BadFail: 1}, rr.Total(), "aborted cell contributes nothing")
	assert.Equal(t, []aggregate.Unit{{File: path, Cell: "SQUARES"}}, r.Units)

	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, ir.CodeDegenerateGeometry, r.Diagnostics[0].Code)
	assert.Equal(t, "BROKEN", r.Diagnostics[0].Cell)
}

func TestRun_NoUsableInput(t *testing.T) {
	e := newTestEngine()

	_, err := e.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoUsableInput)

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.gds")
	r, err := e.Run(context.Background(), []string{missing})
	assert.ErrorIs(t, err, ErrNoUsableInput)
	require.NotNil(t, r)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, ir.CodeDecodeFailure, r.Diagnostics[0].Code)
}

func TestRun_EveryCellAborted(t *testing.T) {
	broken := layout.FixtureCell()
	broken.Name = "BROKEN"
	broken.Polygons = append(broken.Polygons, ir.Polygon{
		Points:  geom.Ring{geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(2, 2)},
		Layer:   255,
		Purpose: 0,
	})
	lib := layout.FixtureLibrary()
	lib.Cells = []ir.Cell{broken}
	path := testutil.WriteLibrary(t, t.TempDir(), "broken.gds", lib)

	r, err := newTestEngine().Run(context.Background(), []string{path})
	assert.ErrorIs(t, err, ErrNoUsableInput)
	require.NotNil(t, r)
	assert.Empty(t, r.Units)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, ir.CodeDegenerateGeometry, r.Diagnostics[0].Code)
}

func TestRun_NoCells(t *testing.T) {
	dec := layout.DecoderFunc(func(ctx context.Context, path string) (*layout.Library, error) {
		return &layout.Library{Name: "EMPTY"}, nil
	})

	r, err := newTestEngine(WithDecoder(dec)).Run(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrNoUsableInput)
	require.NotNil(t, r)
	assert.Equal(t, []string{"a", "b"}, r.Files)
}

func TestRun_Cancelled(t *testing.T) {
	path := testutil.WriteFixtureGDS(t, t.TempDir(), "a.gds")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().Run(ctx, []string{path})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_WorkerCountDoesNotChangeResult(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.gds", "b.gds", "c.gds", "d.gds", "e.gds"} {
		files = append(files, testutil.WriteFixtureGDS(t, dir, name))
	}

	serial, err := newTestEngine(WithWorkers(1)).Run(context.Background(), files)
	require.NoError(t, err)
	parallel, err := newTestEngine(WithWorkers(8)).Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, serial.Rows(), parallel.Rows())
	assert.Equal(t, serial.Totals(), parallel.Totals())
}

func TestRun_CustomDecoder(t *testing.T) {
	dec := layout.DecoderFunc(func(ctx context.Context, path string) (*layout.Library, error) {
		if path == "fail" {
			return nil, errors.New("boom")
		}
		return layout.FixtureLibrary(), nil
	})

	r, err := newTestEngine(WithDecoder(dec)).Run(context.Background(), []string{"x", "fail"})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Totals().Patterns)
	require.Len(t, r.Diagnostics, 1)
	assert.Contains(t, r.Diagnostics[0].Message, "boom")
}

func TestWithWorkers_IgnoresNonPositive(t *testing.T) {
	e := New(nil, WithWorkers(3), WithWorkers(0))
	assert.Equal(t, 3, e.workers)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("run-1", "run-2")
	assert.Equal(t, "run-1", g.Generate())
	assert.Equal(t, "run-2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`, a)
	assert.NotEqual(t, a, b)
}
