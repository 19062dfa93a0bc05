package i2s

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrInitialRead = errors.New("i2s: bad initial read")
	ErrRead        = errors.New("i2s: cannot read")
)

// SampleBits is the number of BCK edges per channel in a complete frame.
const SampleBits = 32

type channel struct {
	value uint32
	count int
}

func (c *channel) shift(bit bool) {
	c.value <<= 1
	if bit {
		c.value |= 1
	}
	c.count++
}

// Stats counts what the decoder has seen so far.
type Stats struct {
	Offset  int // bytes skipped by synchronization
	Edges   int // BCK rising edges
	Frames  int // frames emitted
	Dropped int // incomplete frames
}

// Decoder turns a synchronized capture into 32-bit stereo frames.
//
// It shifts one DOUT bit per BCK rising edge into the channel LRCK selects,
// and closes a frame each time LRCK goes from right to left.
type Decoder struct {
	lines LineConfig
	out   *Emitter
	log   io.Writer

	lastClock  bool
	lastSelect bool
	left       channel
	right      channel

	stats Stats
}

type Option func(*options)

type options struct {
	bufSize int
	log     io.Writer
}

// WithBufferSize sets the output buffer size in bytes. It must be a
// multiple of FrameSize.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufSize = n }
}

// WithLog sets where warnings about dropped frames go. They are discarded
// by default.
func WithLog(w io.Writer) Option {
	return func(o *options) { o.log = w }
}

func NewDecoder(w io.Writer, lines LineConfig, opts ...Option) (*Decoder, error) {
	o := options{bufSize: DefaultBufferSize, log: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = io.Discard
	}

	out, err := NewEmitter(w, o.bufSize)
	if err != nil {
		return nil, err
	}
	return &Decoder{lines: lines, out: out, log: o.log}, nil
}

// Feed decodes samples. They must continue the stream from the previous
// call; the first call must start at a synchronized offset.
func (d *Decoder) Feed(samples []byte) error {
	for _, s := range samples {
		clock, data, sel := d.lines.Extract(s)

		if !clock {
			d.lastClock = false
			continue
		}
		if d.lastClock {
			continue
		}
		d.lastClock = true
		d.stats.Edges++

		if sel && !d.lastSelect {
			if err := d.closeFrame(); err != nil {
				return err
			}
		}

		if sel {
			d.left.shift(data)
		} else {
			d.right.shift(data)
		}

		d.lastSelect = sel
	}
	return nil
}

func (d *Decoder) closeFrame() error {
	defer func() {
		d.left = channel{}
		d.right = channel{}
	}()

	switch {
	case d.left.count == 0 && d.right.count == 0:
		// first frame
		return nil
	case d.left.count != SampleBits || d.right.count != SampleBits:
		d.stats.Dropped++
		fmt.Fprintf(d.log, "Warning: dropped frame (l: %d, r: %d)\n", d.left.count, d.right.count)
		return nil
	}

	d.stats.Frames++
	return d.out.Emit(d.left.value, d.right.value)
}

// Close ends the stream. The frame still being accumulated is not emitted:
// nothing after it can prove it complete.
func (d *Decoder) Close() error {
	return d.out.Close()
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Decode runs the whole pipeline: it synchronizes on the first block of r,
// decodes everything up to io.EOF and flushes the output.
func (d *Decoder) Decode(r io.Reader) error {
	buf := make([]byte, BlockSize)

	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %w", ErrInitialRead, err)
	}

	offset, err := Synchronize(buf[:n], d.lines)
	if err != nil {
		return err
	}
	d.stats.Offset = offset
	if err := d.Feed(buf[offset:n]); err != nil {
		return err
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if err := d.Feed(buf[:n]); err != nil {
				return err
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRead, err)
		}
	}

	return d.Close()
}
