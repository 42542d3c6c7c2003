package rw

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUInt8(0xab)
	w.WriteUInt16(0xbeef)
	w.WriteInt32(-42)
	w.WriteUInt32(0xdeadbeef)
	w.WriteUInt64(1 << 60)
	w.WriteFloat32(3.5)
	w.WriteUInt8s([]uint8{7, 8})
	w.WriteUInt16s([]uint16{1, 2, 3})
	w.WriteFloat32s([]float32{-1, 0.25})
	require.Equal(t, len(w.Bytes()), w.Size())

	r := NewReader(w.Bytes())
	require.Equal(t, uint8(0xab), r.ReadUInt8())
	require.Equal(t, int16(-16657), r.ReadInt16())
	require.Equal(t, int32(-42), r.ReadInt32())
	require.Equal(t, uint32(0xdeadbeef), r.ReadUInt32())
	require.Equal(t, uint64(1<<60), r.ReadUInt64())
	require.Equal(t, float32(3.5), r.ReadFloat32())

	u8s := make([]uint8, 2)
	r.ReadUInt8s(u8s)
	require.Equal(t, []uint8{7, 8}, u8s)

	u16s := make([]uint16, 3)
	r.ReadUInt16s(u16s)
	require.Equal(t, []uint16{1, 2, 3}, u16s)

	f32s := make([]float32, 2)
	r.ReadFloat32s(f32s)
	require.Equal(t, []float32{-1, 0.25}, f32s)

	require.Equal(t, int8(-1), NewReader([]byte{0xff}).ReadInt8())

	require.NoError(t, r.Err())
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter()
	w.WriteUInt32(0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, w.Bytes())
}

func TestStickyReadError(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	require.Equal(t, uint16(0x0201), r.ReadUInt16())
	require.NoError(t, r.Err())

	// Short buffer: reads fail and stay failed.
	require.Equal(t, uint32(0), r.ReadUInt32())
	require.Error(t, r.Err())
	require.Equal(t, float32(0), r.ReadFloat32())
	require.Error(t, r.Err())
}

func TestByteOrderMatchesStdlib(t *testing.T) {
	w := NewWriter()
	w.WriteUInt64(0x1122334455667788)
	require.Equal(t, uint64(0x1122334455667788), binary.LittleEndian.Uint64(w.Bytes()))
}
