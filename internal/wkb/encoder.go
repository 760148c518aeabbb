package wkb

import (
	"encoding/binary"
	"math"

	"github.com/paulmach/orb"
)

// WKB type constants (ISO SQL/MM)
const (
	wkbPolygon = 3

	// SRID flag for EWKB (PostGIS extended WKB)
	wkbSRIDFlag = 0x20000000
)

// SRID4326 is WGS84
const SRID4326 = 4326

// Encoder encodes feature rings as little-endian EWKB polygons
type Encoder struct {
	buf  []byte
	srid uint32
}

// NewEncoder creates a new WKB encoder with pre-allocated buffer and SRID 4326
func NewEncoder(initialSize int) *Encoder {
	return &Encoder{
		buf:  make([]byte, 0, initialSize),
		srid: SRID4326,
	}
}

// SRID returns the encoder's SRID
func (e *Encoder) SRID() int {
	return int(e.srid)
}

// EncodeRing encodes a single ring as a polygon with SRID.
// PostGIS rejects open rings, so the first vertex is repeated when the
// ring is not already closed. Rings with fewer than 3 vertices return nil.
//
// The returned slice is owned by the caller.
func (e *Encoder) EncodeRing(ring orb.Ring) []byte {
	if len(ring) < 3 {
		return nil
	}

	numPoints := len(ring)
	closed := ring[0] == ring[len(ring)-1]
	if !closed {
		numPoints++
	}

	e.buf = e.buf[:0]
	// Size: 1 + 4 + 4 + 4 (num rings) + 4 (ring size) + (numPoints * 16)
	e.ensureCapacity(17 + numPoints*16)

	// Byte order (little-endian)
	e.buf = append(e.buf, 0x01)
	e.appendUint32(wkbPolygon | wkbSRIDFlag)
	e.appendUint32(e.srid)

	// Outer ring only
	e.appendUint32(1)
	e.appendUint32(uint32(numPoints))

	for _, p := range ring {
		e.appendFloat64(p[0]) // lon
		e.appendFloat64(p[1]) // lat
	}
	if !closed {
		e.appendFloat64(ring[0][0])
		e.appendFloat64(ring[0][1])
	}

	out := make([]byte, len(e.buf))
	copy(out, e.buf)
	return out
}

func (e *Encoder) ensureCapacity(n int) {
	if cap(e.buf) < n {
		e.buf = make([]byte, 0, n)
	}
}

func (e *Encoder) appendUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) appendFloat64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}
