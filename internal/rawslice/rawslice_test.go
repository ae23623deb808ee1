package rawslice

import (
	"encoding/binary"
	"testing"
)

func TestOfInt32(t *testing.T) {
	want := []int32{-1, 0, 1, 1 << 20}
	b := make([]byte, 4*len(want))
	for i, v := range want {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	}
	got := Of[int32](b)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestOfUint16TruncatesTrailingBytes(t *testing.T) {
	b := []byte{0x01, 0x00, 0x02, 0x00, 0xff}
	got := Of[uint16](b)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got = %v, want [1 2]", got)
	}
}

func TestOfEmpty(t *testing.T) {
	if got := Of[int32](nil); got != nil {
		t.Errorf("Of(nil) = %v, want nil", got)
	}
}
