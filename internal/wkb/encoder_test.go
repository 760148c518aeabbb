package wkb

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestEncodeRingClosesOpenRing(t *testing.T) {
	e := NewEncoder(64)
	ring := orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

	b := e.EncodeRing(ring)

	// header 1+4+4, ring count 4, point count 4, 5 points * 16
	if want := 17 + 5*16; len(b) != want {
		t.Fatalf("len = %d, want %d", len(b), want)
	}
	if b[0] != 0x01 {
		t.Errorf("byte order = %x, want little-endian", b[0])
	}
	if typ := binary.LittleEndian.Uint32(b[1:5]); typ != wkbPolygon|wkbSRIDFlag {
		t.Errorf("type = %x", typ)
	}
	if srid := binary.LittleEndian.Uint32(b[5:9]); srid != SRID4326 {
		t.Errorf("srid = %d, want %d", srid, SRID4326)
	}
	if n := binary.LittleEndian.Uint32(b[13:17]); n != 5 {
		t.Errorf("points = %d, want 5", n)
	}

	last := b[len(b)-16:]
	lon := math.Float64frombits(binary.LittleEndian.Uint64(last[:8]))
	lat := math.Float64frombits(binary.LittleEndian.Uint64(last[8:]))
	if lon != 0 || lat != 0 {
		t.Errorf("closing vertex = (%f, %f), want (0, 0)", lon, lat)
	}
}

func TestEncodeRingAlreadyClosed(t *testing.T) {
	e := NewEncoder(0)
	b := e.EncodeRing(orb.Ring{{0, 0}, {0, 1}, {1, 1}, {0, 0}})

	if n := binary.LittleEndian.Uint32(b[13:17]); n != 4 {
		t.Errorf("points = %d, want 4", n)
	}
}

func TestEncodeRingOwnership(t *testing.T) {
	e := NewEncoder(16)
	first := e.EncodeRing(orb.Ring{{0, 0}, {0, 1}, {1, 1}})
	snapshot := append([]byte(nil), first...)
	e.EncodeRing(orb.Ring{{5, 5}, {5, 6}, {6, 6}})

	for i := range first {
		if first[i] != snapshot[i] {
			t.Fatal("encoder reused a returned buffer")
		}
	}
}

func TestEncodeRingDegenerate(t *testing.T) {
	if b := NewEncoder(0).EncodeRing(orb.Ring{{0, 0}, {1, 1}}); b != nil {
		t.Errorf("expected nil for two-vertex ring, got %d bytes", len(b))
	}
}
