package layout

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// maxXYPoints is the largest vertex count one XY record can hold.
const maxXYPoints = (math.MaxUint16 - 4) / 8

type gdsWriter struct {
	w   *bufio.Writer
	err error
}

func (gw *gdsWriter) record(typ, dt byte, data []byte) {
	if gw.err != nil {
		return
	}
	if len(data)+4 > math.MaxUint16 {
		gw.err = fmt.Errorf("gds record 0x%02x too large (%d bytes)", typ, len(data))
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[:2], uint16(len(data)+4))
	hdr[2], hdr[3] = typ, dt
	if _, err := gw.w.Write(hdr[:]); err != nil {
		gw.err = err
		return
	}
	if _, err := gw.w.Write(data); err != nil {
		gw.err = err
	}
}

func (gw *gdsWriter) empty(typ byte) {
	gw.record(typ, dtNone, nil)
}

func (gw *gdsWriter) int2(typ byte, vals ...int) {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint16(data[2*i:], uint16(v))
	}
	gw.record(typ, dtInt2, data)
}

func (gw *gdsWriter) int4(typ byte, vals []int32) {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(data[4*i:], uint32(v))
	}
	gw.record(typ, dtInt4, data)
}

func (gw *gdsWriter) real8(typ byte, vals ...float64) {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint64(data[8*i:], encodeReal8(v))
	}
	gw.record(typ, dtReal8, data)
}

func (gw *gdsWriter) ascii(typ byte, s string) {
	data := []byte(s)
	if len(data)%2 != 0 {
		data = append(data, 0)
	}
	gw.record(typ, dtASCII, data)
}

func (gw *gdsWriter) fail(err error) {
	if gw.err == nil {
		gw.err = err
	}
}

// WriteGDS encodes lib as a GDSII stream. Polygons are written as
// BOUNDARY elements and labels as TEXT elements; coordinates are
// rounded to the library's database unit. Timestamps are zero so the
// output is reproducible.
func WriteGDS(w io.Writer, lib *Library) error {
	if lib.DBUnitInUser <= 0 || lib.DBUnitInMeters <= 0 {
		return fmt.Errorf("gds: library units must be positive")
	}
	gw := &gdsWriter{w: bufio.NewWriter(w)}
	unit := lib.DBUnitInUser

	toDB := func(v float64) int32 {
		d := math.Round(v / unit)
		if d > math.MaxInt32 || d < math.MinInt32 {
			gw.fail(fmt.Errorf("gds: coordinate %g out of range", v))
			return 0
		}
		return int32(d)
	}

	gw.int2(recHeader, 600)
	gw.int2(recBgnLib, make([]int, 12)...)
	gw.ascii(recLibName, lib.Name)
	gw.real8(recUnits, lib.DBUnitInUser, lib.DBUnitInMeters)

	for _, cell := range lib.Cells {
		gw.int2(recBgnStr, make([]int, 12)...)
		gw.ascii(recStrName, cell.Name)

		for _, p := range cell.Polygons {
			if len(p.Points)+1 > maxXYPoints {
				gw.fail(fmt.Errorf("gds: polygon in %q has %d points, limit is %d", cell.Name, len(p.Points), maxXYPoints-1))
				break
			}
			xy := make([]int32, 0, 2*(len(p.Points)+1))
			for _, pt := range p.Points {
				xy = append(xy, toDB(pt.X), toDB(pt.Y))
			}
			if len(p.Points) > 0 {
				xy = append(xy, xy[0], xy[1])
			}
			gw.empty(recBoundary)
			gw.int2(recLayer, p.Layer)
			gw.int2(recDataType, p.Purpose)
			gw.int4(recXY, xy)
			gw.empty(recEndEl)
		}

		for _, l := range cell.Labels {
			gw.empty(recText)
			gw.int2(recLayer, l.Layer)
			gw.int2(recTextType, l.Purpose)
			gw.int4(recXY, []int32{toDB(l.Origin.X), toDB(l.Origin.Y)})
			gw.ascii(recString, l.Text)
			gw.empty(recEndEl)
		}

		gw.empty(recEndStr)
	}
	gw.empty(recEndLib)

	if gw.err != nil {
		return gw.err
	}
	return gw.w.Flush()
}

// WriteGDSFile writes lib to path.
func WriteGDSFile(path string, lib *Library) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create layout: %w", err)
	}
	if err := WriteGDS(f, lib); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
