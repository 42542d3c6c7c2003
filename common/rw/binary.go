// Package rw implements the little-endian binary layout used by the
// navigation tile wire format.
package rw

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// ReaderWriter reads or writes fixed-width values over a byte buffer.
// Read errors are sticky: once the buffer is exhausted every subsequent
// read yields zero values and Err() reports the failure.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewReader(data []byte) *ReaderWriter {
	r := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	r.rw.Write(data)
	return r
}

// Err returns the first read failure, if any.
func (w *ReaderWriter) Err() error { return w.err }

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return w.dataBuf[:n] // zeroed by previous failure
	}
	if _, err := io.ReadFull(&w.rw, w.dataBuf[:n]); err != nil {
		w.err = err
		for i := range w.dataBuf {
			w.dataBuf[i] = 0
		}
	}
	return w.dataBuf[:n]
}

func (w *ReaderWriter) ReadUInt8() uint8   { return w.read(1)[0] }
func (w *ReaderWriter) ReadInt8() int8     { return int8(w.ReadUInt8()) }
func (w *ReaderWriter) ReadUInt16() uint16 { return w.order.Uint16(w.read(2)) }
func (w *ReaderWriter) ReadInt16() int16   { return int16(w.ReadUInt16()) }
func (w *ReaderWriter) ReadUInt32() uint32 { return w.order.Uint32(w.read(4)) }
func (w *ReaderWriter) ReadInt32() int32   { return int32(w.ReadUInt32()) }
func (w *ReaderWriter) ReadUInt64() uint64 { return w.order.Uint64(w.read(8)) }

func (w *ReaderWriter) ReadFloat32() float32 {
	return math.Float32frombits(w.ReadUInt32())
}

func (w *ReaderWriter) ReadUInt8s(value []uint8) {
	for i := range value {
		value[i] = w.ReadUInt8()
	}
}

func (w *ReaderWriter) ReadUInt16s(value []uint16) {
	for i := range value {
		value[i] = w.ReadUInt16()
	}
}

func (w *ReaderWriter) ReadFloat32s(value []float32) {
	for i := range value {
		value[i] = w.ReadFloat32()
	}
}

func (w *ReaderWriter) WriteUInt8(v uint8) { w.rw.WriteByte(v) }

func (w *ReaderWriter) WriteUInt16(v uint16) {
	w.order.PutUint16(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:2])
}

func (w *ReaderWriter) WriteUInt32(v uint32) {
	w.order.PutUint32(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32(v int32) { w.WriteUInt32(uint32(v)) }

func (w *ReaderWriter) WriteUInt64(v uint64) {
	w.order.PutUint64(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:8])
}

func (w *ReaderWriter) WriteFloat32(v float32) {
	w.WriteUInt32(math.Float32bits(v))
}

func (w *ReaderWriter) WriteUInt8s(value []uint8) {
	w.rw.Write(value)
}

func (w *ReaderWriter) WriteUInt16s(value []uint16) {
	for _, v := range value {
		w.WriteUInt16(v)
	}
}

func (w *ReaderWriter) WriteFloat32s(value []float32) {
	for _, v := range value {
		w.WriteFloat32(v)
	}
}

// Bytes returns the written buffer.
func (w *ReaderWriter) Bytes() []byte { return w.rw.Bytes() }

func (w *ReaderWriter) Size() int { return w.rw.Len() }
