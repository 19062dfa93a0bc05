package i2s

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// FrameSize is one stereo frame on the wire: left then right, 32 bits
	// little endian each.
	FrameSize = 8

	DefaultBufferSize = FrameSize * 128
)

var (
	ErrBufferSize = errors.New("i2s: buffer size must be a positive multiple of 8")
	ErrWrite      = errors.New("i2s: cannot write")
)

// Emitter buffers encoded frames and writes them to w whenever the buffer
// is full.
type Emitter struct {
	w   io.Writer
	buf []byte
}

func NewEmitter(w io.Writer, size int) (*Emitter, error) {
	if size <= 0 || size%FrameSize != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBufferSize, size)
	}
	return &Emitter{w: w, buf: make([]byte, 0, size)}, nil
}

// Emit appends one frame.
func (e *Emitter) Emit(left, right uint32) error {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, left)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, right)
	if len(e.buf) == cap(e.buf) {
		return e.Flush()
	}
	return nil
}

// Flush writes everything buffered. Short writes are resumed from where
// they stopped.
func (e *Emitter) Flush() error {
	written := 0
	for written != len(e.buf) {
		n, err := e.w.Write(e.buf[written:])
		written += n
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %w", ErrWrite, io.ErrShortWrite)
		}
	}
	e.buf = e.buf[:0]
	return nil
}

// Close drops a trailing partial frame, if any, and flushes the rest.
func (e *Emitter) Close() error {
	e.buf = e.buf[:len(e.buf)-len(e.buf)%FrameSize]
	return e.Flush()
}
