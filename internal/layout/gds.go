package layout

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/roach88/patcheck/internal/geom"
	"github.com/roach88/patcheck/internal/ir"
)

// GDSII record types used by the reader and writer.
const (
	recHeader   = 0x00
	recBgnLib   = 0x01
	recLibName  = 0x02
	recUnits    = 0x03
	recEndLib   = 0x04
	recBgnStr   = 0x05
	recStrName  = 0x06
	recEndStr   = 0x07
	recBoundary = 0x08
	recPath     = 0x09
	recSRef     = 0x0A
	recARef     = 0x0B
	recText     = 0x0C
	recLayer    = 0x0D
	recDataType = 0x0E
	recXY       = 0x10
	recEndEl    = 0x11
	recNode     = 0x15
	recTextType = 0x16
	recString   = 0x19
	recBox      = 0x2D
	recBoxType  = 0x2E
)

// GDSII data types.
const (
	dtNone  = 0
	dtInt2  = 2
	dtInt4  = 3
	dtReal8 = 5
	dtASCII = 6
)

// ErrMalformedGDS is returned for streams that are not valid GDSII.
var ErrMalformedGDS = errors.New("malformed GDSII stream")

// GDSDecoder reads GDSII stream files.
type GDSDecoder struct{}

// Decode opens path and reads it as a GDSII stream.
func (GDSDecoder) Decode(ctx context.Context, path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	return ReadGDS(ctx, f)
}

type record struct {
	typ  byte
	dt   byte
	data []byte
}

// int2s decodes signed two-byte integers.
func (r record) int2s() []int {
	out := make([]int, len(r.data)/2)
	for i := range out {
		out[i] = int(int16(binary.BigEndian.Uint16(r.data[2*i:])))
	}
	return out
}

func (r record) int4s() []int32 {
	out := make([]int32, len(r.data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.data[4*i:]))
	}
	return out
}

func (r record) real8s() []float64 {
	out := make([]float64, len(r.data)/8)
	for i := range out {
		out[i] = decodeReal8(binary.BigEndian.Uint64(r.data[8*i:]))
	}
	return out
}

func (r record) ascii() string {
	return strings.TrimRight(string(r.data), "\x00")
}

type recordReader struct {
	r   *bufio.Reader
	hdr [4]byte
}

func (rr *recordReader) next() (record, error) {
	if _, err := io.ReadFull(rr.r, rr.hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return record{}, fmt.Errorf("%w: missing ENDLIB", ErrMalformedGDS)
		}
		return record{}, fmt.Errorf("%w: %v", ErrMalformedGDS, err)
	}
	n := int(binary.BigEndian.Uint16(rr.hdr[:2]))
	if n < 4 || n%2 != 0 {
		return record{}, fmt.Errorf("%w: bad record length %d", ErrMalformedGDS, n)
	}
	rec := record{typ: rr.hdr[2], dt: rr.hdr[3], data: make([]byte, n-4)}
	if _, err := io.ReadFull(rr.r, rec.data); err != nil {
		return record{}, fmt.Errorf("%w: truncated record 0x%02x: %v", ErrMalformedGDS, rec.typ, err)
	}
	return rec, nil
}

// element accumulates the records of one BOUNDARY, BOX or TEXT element.
type element struct {
	kind    byte
	layer   int
	purpose int
	xy      []int32
	text    string
}

// ReadGDS decodes a GDSII stream. BOUNDARY and BOX elements become
// polygons, TEXT elements become labels; references, paths and nodes
// are skipped. Coordinates are converted to user units.
func ReadGDS(ctx context.Context, r io.Reader) (*Library, error) {
	rr := &recordReader{r: bufio.NewReader(r)}
	lib := &Library{DBUnitInUser: 1e-3, DBUnitInMeters: 1e-9}

	var (
		cell *ir.Cell
		el   *element
		skip bool
	)

	for {
		rec, err := rr.next()
		if err != nil {
			return nil, err
		}

		switch rec.typ {
		case recHeader, recBgnLib:
		case recLibName:
			lib.Name = rec.ascii()
		case recUnits:
			units := rec.real8s()
			if len(units) != 2 || units[0] <= 0 || units[1] <= 0 {
				return nil, fmt.Errorf("%w: bad UNITS record", ErrMalformedGDS)
			}
			lib.DBUnitInUser, lib.DBUnitInMeters = units[0], units[1]
		case recEndLib:
			if cell != nil {
				return nil, fmt.Errorf("%w: ENDLIB inside structure %q", ErrMalformedGDS, cell.Name)
			}
			return lib, nil

		case recBgnStr:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if cell != nil {
				return nil, fmt.Errorf("%w: nested BGNSTR", ErrMalformedGDS)
			}
			cell = &ir.Cell{}
		case recStrName:
			if cell == nil {
				return nil, fmt.Errorf("%w: STRNAME outside structure", ErrMalformedGDS)
			}
			cell.Name = rec.ascii()
		case recEndStr:
			if cell == nil {
				return nil, fmt.Errorf("%w: ENDSTR outside structure", ErrMalformedGDS)
			}
			lib.Cells = append(lib.Cells, *cell)
			cell = nil

		case recBoundary, recBox, recText:
			if cell == nil || el != nil || skip {
				return nil, fmt.Errorf("%w: element record 0x%02x out of place", ErrMalformedGDS, rec.typ)
			}
			el = &element{kind: rec.typ}
		case recPath, recSRef, recARef, recNode:
			if cell == nil || el != nil || skip {
				return nil, fmt.Errorf("%w: element record 0x%02x out of place", ErrMalformedGDS, rec.typ)
			}
			skip = true

		case recLayer:
			if el != nil {
				el.layer = firstInt2(rec)
			}
		case recDataType, recBoxType, recTextType:
			if el != nil {
				el.purpose = firstInt2(rec)
			}
		case recXY:
			if el != nil {
				el.xy = rec.int4s()
			}
		case recString:
			if el != nil {
				el.text = rec.ascii()
			}
		case recEndEl:
			switch {
			case skip:
				skip = false
			case el != nil:
				if err := el.addTo(cell, lib.DBUnitInUser); err != nil {
					return nil, err
				}
				el = nil
			default:
				return nil, fmt.Errorf("%w: ENDEL without element", ErrMalformedGDS)
			}

		default:
			// Properties, transforms and other records carry nothing we use.
		}
	}
}

func firstInt2(rec record) int {
	v := rec.int2s()
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func (el *element) addTo(cell *ir.Cell, unit float64) error {
	if len(el.xy)%2 != 0 {
		return fmt.Errorf("%w: odd XY coordinate count", ErrMalformedGDS)
	}
	pts := make(geom.Ring, 0, len(el.xy)/2)
	for i := 0; i < len(el.xy); i += 2 {
		pts = append(pts, geom.Pt(float64(el.xy[i])*unit, float64(el.xy[i+1])*unit))
	}

	if el.kind == recText {
		if len(pts) != 1 {
			return fmt.Errorf("%w: TEXT with %d points in %q", ErrMalformedGDS, len(pts), cell.Name)
		}
		cell.Labels = append(cell.Labels, ir.Label{
			Origin:  pts[0],
			Text:    el.text,
			Layer:   el.layer,
			Purpose: el.purpose,
		})
		return nil
	}

	// Stream polygons repeat the first vertex at the end.
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	cell.Polygons = append(cell.Polygons, ir.Polygon{
		Points:  pts,
		Layer:   el.layer,
		Purpose: el.purpose,
	})
	return nil
}

// decodeReal8 converts an excess-64 base-16 GDSII real.
func decodeReal8(b uint64) float64 {
	mantissa := b & (1<<56 - 1)
	if mantissa == 0 {
		return 0
	}
	exp := int((b>>56)&0x7f) - 64
	v := math.Ldexp(float64(mantissa), 4*exp-56)
	if b>>63 != 0 {
		v = -v
	}
	return v
}

// encodeReal8 converts a float to an excess-64 base-16 GDSII real.
func encodeReal8(v float64) uint64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1 << 63
		v = -v
	}

	// v = frac * 2^e2, frac in [0.5, 1). Find exp with v = m * 16^exp, m in [1/16, 1).
	_, e2 := math.Frexp(v)
	exp := e2 / 4
	if e2%4 > 0 {
		exp++
	}
	m := math.Ldexp(v, -4*exp)
	for m >= 1 {
		m /= 16
		exp++
	}
	for m < 1.0/16 {
		m *= 16
		exp--
	}

	mantissa := uint64(math.Round(math.Ldexp(m, 56)))
	if mantissa >= 1<<56 {
		mantissa >>= 4
		exp++
	}
	if exp+64 < 0 || exp+64 > 127 {
		return 0
	}
	return sign | uint64(exp+64)<<56 | mantissa
}
