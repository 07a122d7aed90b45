package layout

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patcheck/internal/ir"
)

func TestReal8_KnownEncodings(t *testing.T) {
	// Reference values from the GDSII stream format manual.
	tests := []struct {
		v    float64
		bits uint64
	}{
		{1, 0x4110000000000000},
		{-1, 0xC110000000000000},
		{0.5, 0x4080000000000000},
		{16, 0x4210000000000000},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bits, encodeReal8(tt.v), "encode %g", tt.v)
		assert.Equal(t, tt.v, decodeReal8(tt.bits), "decode %#x", tt.bits)
	}
}

func TestReal8_RoundTrip(t *testing.T) {
	for _, v := range []float64{1e-3, 1e-9, 1e-6, 0.1, 3.14159, 123456.789, -2.5e-7} {
		assert.Equal(t, v, decodeReal8(encodeReal8(v)), "round trip %g", v)
	}
}

func TestWriteGDS_RoundTripFixture(t *testing.T) {
	want := FixtureLibrary()

	var buf bytes.Buffer
	require.NoError(t, WriteGDS(&buf, want))

	got, err := ReadGDS(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.DBUnitInUser, got.DBUnitInUser)
	assert.Equal(t, want.DBUnitInMeters, got.DBUnitInMeters)
	require.Len(t, got.Cells, 1)

	wc, gc := want.Cells[0], got.Cells[0]
	assert.Equal(t, wc.Name, gc.Name)
	require.Len(t, gc.Polygons, len(wc.Polygons))
	for i := range wc.Polygons {
		assert.Equal(t, wc.Polygons[i].LP(), gc.Polygons[i].LP())
		require.Len(t, gc.Polygons[i].Points, len(wc.Polygons[i].Points), "polygon %d closing vertex dropped", i)
		for j, p := range wc.Polygons[i].Points {
			assert.InDelta(t, p.X, gc.Polygons[i].Points[j].X, 1e-3)
			assert.InDelta(t, p.Y, gc.Polygons[i].Points[j].Y, 1e-3)
		}
	}

	require.Len(t, gc.Labels, 1)
	assert.Equal(t, "check_name", gc.Labels[0].Text)
	assert.Equal(t, ir.LayerPurpose{Layer: 22, Purpose: 22}, gc.Labels[0].LP())
	assert.InDelta(t, 0, gc.Labels[0].Origin.X, 1e-9)
	assert.InDelta(t, -0.5, gc.Labels[0].Origin.Y, 1e-9)
}

func TestWriteGDS_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteGDS(&a, FixtureLibrary()))
	require.NoError(t, WriteGDS(&b, FixtureLibrary()))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteGDS_RejectsBadUnits(t *testing.T) {
	lib := FixtureLibrary()
	lib.DBUnitInUser = 0
	assert.Error(t, WriteGDS(&bytes.Buffer{}, lib))
}

func TestWriteGDS_CoordinateOutOfRange(t *testing.T) {
	lib := &Library{Name: "L", DBUnitInUser: 1e-3, DBUnitInMeters: 1e-9, Cells: []ir.Cell{{
		Name:     "TOP",
		Polygons: []ir.Polygon{Rect(1e9, 0, 1, 1, 1, 0)},
	}}}
	err := WriteGDS(&bytes.Buffer{}, lib)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

// rec builds one raw stream record.
func rec(typ, dt byte, data ...byte) []byte {
	out := make([]byte, 4, 4+len(data))
	binary.BigEndian.PutUint16(out, uint16(4+len(data)))
	out[2], out[3] = typ, dt
	return append(out, data...)
}

func int2(v int) []byte {
	return binary.BigEndian.AppendUint16(nil, uint16(v))
}

func int4s(vs ...int32) []byte {
	var out []byte
	for _, v := range vs {
		out = binary.BigEndian.AppendUint32(out, uint32(v))
	}
	return out
}

func TestReadGDS_SkipsUnsupportedElements(t *testing.T) {
	var s []byte
	s = append(s, rec(recHeader, dtInt2, int2(600)...)...)
	s = append(s, rec(recBgnLib, dtInt2, make([]byte, 24)...)...)
	s = append(s, rec(recLibName, dtASCII, 'L', 'B')...)
	s = append(s, rec(recBgnStr, dtInt2, make([]byte, 24)...)...)
	s = append(s, rec(recStrName, dtASCII, 'T', 'O', 'P', 0)...)

	// PATH element, skipped.
	s = append(s, rec(recPath, dtNone)...)
	s = append(s, rec(recLayer, dtInt2, int2(5)...)...)
	s = append(s, rec(recDataType, dtInt2, int2(0)...)...)
	s = append(s, rec(recXY, dtInt4, int4s(0, 0, 1000, 0)...)...)
	s = append(s, rec(recEndEl, dtNone)...)

	// BOX element becomes a polygon on layer.boxtype.
	s = append(s, rec(recBox, dtNone)...)
	s = append(s, rec(recLayer, dtInt2, int2(0)...)...)
	s = append(s, rec(recBoxType, dtInt2, int2(1)...)...)
	s = append(s, rec(recXY, dtInt4, int4s(0, 0, 2000, 0, 2000, 1000, 0, 1000, 0, 0)...)...)
	s = append(s, rec(recEndEl, dtNone)...)

	s = append(s, rec(recEndStr, dtNone)...)
	s = append(s, rec(recEndLib, dtNone)...)

	lib, err := ReadGDS(context.Background(), bytes.NewReader(s))
	require.NoError(t, err)
	assert.Equal(t, "LB", lib.Name)
	require.Len(t, lib.Cells, 1)
	assert.Equal(t, "TOP", lib.Cells[0].Name)
	require.Len(t, lib.Cells[0].Polygons, 1)

	box := lib.Cells[0].Polygons[0]
	assert.Equal(t, ir.LayerPurpose{Layer: 0, Purpose: 1}, box.LP())
	require.Len(t, box.Points, 4)
	assert.InDelta(t, 2.0, box.Points[2].X, 1e-12)
	assert.InDelta(t, 1.0, box.Points[2].Y, 1e-12)
}

func TestReadGDS_SignedLayer(t *testing.T) {
	var s []byte
	s = append(s, rec(recHeader, dtInt2, int2(600)...)...)
	s = append(s, rec(recBgnLib, dtInt2, make([]byte, 24)...)...)
	s = append(s, rec(recLibName, dtASCII, 'L', 'B')...)
	s = append(s, rec(recBgnStr, dtInt2, make([]byte, 24)...)...)
	s = append(s, rec(recStrName, dtASCII, 'T', 'O', 'P', 0)...)

	s = append(s, rec(recBoundary, dtNone)...)
	s = append(s, rec(recLayer, dtInt2, int2(-1)...)...)
	s = append(s, rec(recDataType, dtInt2, int2(-2)...)...)
	s = append(s, rec(recXY, dtInt4, int4s(0, 0, 1000, 0, 1000, 1000, 0, 1000, 0, 0)...)...)
	s = append(s, rec(recEndEl, dtNone)...)

	s = append(s, rec(recEndStr, dtNone)...)
	s = append(s, rec(recEndLib, dtNone)...)

	lib, err := ReadGDS(context.Background(), bytes.NewReader(s))
	require.NoError(t, err)
	require.Len(t, lib.Cells, 1)
	require.Len(t, lib.Cells[0].Polygons, 1)
	assert.Equal(t, ir.LayerPurpose{Layer: -1, Purpose: -2}, lib.Cells[0].Polygons[0].LP())
}

func TestReadGDS_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte{0x00, 0x06}},
		{"bad length", []byte{0x00, 0x03, recHeader, dtInt2}},
		{"truncated", []byte{0x00, 0x08, recHeader, dtInt2, 0x02}},
		{"no endlib", rec(recHeader, dtInt2, int2(600)...)},
		{"endstr outside structure", append(rec(recHeader, dtInt2, int2(600)...), rec(recEndStr, dtNone)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGDS(context.Background(), bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedGDS)
		})
	}
}

func TestReadGDS_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGDS(&buf, FixtureLibrary()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadGDS(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaxXYPoints(t *testing.T) {
	assert.Equal(t, 8191, maxXYPoints)
	assert.LessOrEqual(t, 4+8*maxXYPoints, math.MaxUint16)
}
