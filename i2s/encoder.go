package i2s

import (
	"bufio"
	"io"
)

// Encoder writes a synthetic capture that a Decoder with the same
// LineConfig turns back into the encoded frames.
//
// Every bit takes two samples: BCK low, then BCK high, with DOUT and LRCK
// already stable.
type Encoder struct {
	lines LineConfig
	w     *bufio.Writer
}

func NewEncoder(w io.Writer, lines LineConfig) *Encoder {
	return &Encoder{lines: lines, w: bufio.NewWriter(w)}
}

func (e *Encoder) bit(data, sel bool) error {
	if err := e.w.WriteByte(e.lines.Sample(false, data, sel)); err != nil {
		return err
	}
	return e.w.WriteByte(e.lines.Sample(true, data, sel))
}

func (e *Encoder) word(v uint32, sel bool) error {
	for i := SampleBits - 1; i >= 0; i-- {
		if err := e.bit(v&(1<<i) != 0, sel); err != nil {
			return err
		}
	}
	return nil
}

// Preamble writes one right channel pulse to synchronize on.
func (e *Encoder) Preamble() error {
	return e.bit(false, false)
}

// WriteFrame writes the left word, then the right word, MSB first.
func (e *Encoder) WriteFrame(left, right uint32) error {
	if err := e.word(left, true); err != nil {
		return err
	}
	return e.word(right, false)
}

// Close writes one left channel pulse, which closes the last frame, and
// flushes.
func (e *Encoder) Close() error {
	if err := e.bit(false, true); err != nil {
		return err
	}
	return e.w.Flush()
}
