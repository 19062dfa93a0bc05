package i2s

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// capture encodes frames behind a preamble and closes the last one.
func capture(t *testing.T, lines LineConfig, frames [][2]uint32) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc := NewEncoder(&buf, lines)
	if err := enc.Preamble(); err != nil {
		t.Fatal(err)
	}
	for _, f := range frames {
		if err := enc.WriteFrame(f[0], f[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeAll(t *testing.T, lines LineConfig, in []byte, opts ...Option) []byte {
	t.Helper()

	var out bytes.Buffer
	dec, err := NewDecoder(&out, lines, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(bytes.NewReader(in)); err != nil {
		t.Fatal(err)
	}
	return out.Bytes()
}

func pcm(frames [][2]uint32) []byte {
	var b []byte
	for _, f := range frames {
		b = binary.LittleEndian.AppendUint32(b, f[0])
		b = binary.LittleEndian.AppendUint32(b, f[1])
	}
	return b
}

// bits writes n bits of v, MSB first, holding BCK high for hold samples.
func bits(lines LineConfig, v uint32, n int, sel bool, hold int) []byte {
	var b []byte
	for i := n - 1; i >= 0; i-- {
		data := v&(1<<i) != 0
		b = append(b, lines.Sample(false, data, sel))
		for j := 0; j < hold; j++ {
			b = append(b, lines.Sample(true, data, sel))
		}
	}
	return b
}

func TestDecodeFrame(t *testing.T) {
	lines := LineConfig{Clock: 0, Data: 1, Select: 2}

	got := decodeAll(t, lines, capture(t, lines, [][2]uint32{{0xFFFFFFFF, 0x00000001}}))
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestDecodeFrames(t *testing.T) {
	frames := make([][2]uint32, 1000)
	for i := range frames {
		frames[i] = [2]uint32{uint32(i) * 0x9E3779B9, ^uint32(i) * 0x85EBCA6B}
	}

	for _, lines := range []LineConfig{{0, 1, 2}, {7, 0, 4}, {2, 6, 1}} {
		for _, size := range []int{FrameSize, 16, DefaultBufferSize, 4096} {
			got := decodeAll(t, lines, capture(t, lines, frames), WithBufferSize(size))
			if !bytes.Equal(got, pcm(frames)) {
				t.Errorf("%v, bufsize %d: %d bytes decoded, want %d", lines, size, len(got), len(frames)*FrameSize)
			}
		}
	}
}

func TestDecodeOneByteReader(t *testing.T) {
	lines := LineConfig{Clock: 0, Data: 1, Select: 2}
	frames := [][2]uint32{{1, 2}, {3, 4}, {0x80000000, 0x7FFFFFFF}}

	var out bytes.Buffer
	dec, err := NewDecoder(&out, lines)
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(iotest.OneByteReader(bytes.NewReader(capture(t, lines, frames)))); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), pcm(frames)) {
		t.Errorf("got % x", out.Bytes())
	}
}

func TestFeedChunks(t *testing.T) {
	lines := LineConfig{Clock: 1, Data: 2, Select: 3}
	frames := [][2]uint32{{0xDEADBEEF, 0xCAFEBABE}, {5, 6}, {7, 8}}
	in := capture(t, lines, frames)

	offset, err := Synchronize(in, lines)
	if err != nil {
		t.Fatal(err)
	}
	in = in[offset:]

	for _, chunk := range []int{1, 2, 3, 63, 64, 65, 1000} {
		var out bytes.Buffer
		dec, err := NewDecoder(&out, lines)
		if err != nil {
			t.Fatal(err)
		}
		for p := in; len(p) > 0; {
			n := min(chunk, len(p))
			if err := dec.Feed(p[:n]); err != nil {
				t.Fatal(err)
			}
			p = p[n:]
		}
		if err := dec.Close(); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out.Bytes(), pcm(frames)) {
			t.Errorf("chunk %d: got % x", chunk, out.Bytes())
		}
	}
}

func TestDecodeHeldClock(t *testing.T) {
	lines := LineConfig{Clock: 0, Data: 1, Select: 2}

	var in []byte
	in = append(in, bits(lines, 0, 1, false, 3)...)
	in = append(in, bits(lines, 0x12345678, 32, true, 5)...)
	in = append(in, bits(lines, 0x9ABCDEF0, 32, false, 2)...)
	in = append(in, bits(lines, 0, 1, true, 4)...)

	var out, log bytes.Buffer
	dec, err := NewDecoder(&out, lines, WithLog(&log))
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(bytes.NewReader(in)); err != nil {
		t.Fatal(err)
	}

	want := pcm([][2]uint32{{0x12345678, 0x9ABCDEF0}})
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % x, want % x", out.Bytes(), want)
	}
	if log.Len() != 0 {
		t.Errorf("unexpected log: %s", log.String())
	}
	// the preamble edge is skipped by synchronization
	if s := dec.Stats(); s.Edges != 65 || s.Frames != 1 || s.Dropped != 0 {
		t.Errorf("stats: %+v", s)
	}
}

func TestDecodeDroppedFrame(t *testing.T) {
	lines := LineConfig{Clock: 0, Data: 1, Select: 2}

	tests := []struct {
		name        string
		left, right int
	}{
		{"short left", 31, 32},
		{"short right", 32, 1},
		{"long left", 33, 32},
		{"long right", 32, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []byte
			in = append(in, bits(lines, 0, 1, false, 1)...)
			in = append(in, bits(lines, 0xFFFFFFFF, tt.left, true, 1)...)
			in = append(in, bits(lines, 0xFFFFFFFF, tt.right, false, 1)...)
			in = append(in, bits(lines, 0x11111111, 32, true, 1)...)
			in = append(in, bits(lines, 0x22222222, 32, false, 1)...)
			in = append(in, bits(lines, 0, 1, true, 1)...)

			var out, log bytes.Buffer
			dec, err := NewDecoder(&out, lines, WithLog(&log))
			if err != nil {
				t.Fatal(err)
			}
			if err := dec.Decode(bytes.NewReader(in)); err != nil {
				t.Fatal(err)
			}

			want := pcm([][2]uint32{{0x11111111, 0x22222222}})
			if !bytes.Equal(out.Bytes(), want) {
				t.Errorf("got % x, want % x", out.Bytes(), want)
			}
			if s := dec.Stats(); s.Frames != 1 || s.Dropped != 1 {
				t.Errorf("stats: %+v", s)
			}
			msg := fmt.Sprintf("dropped frame (l: %d, r: %d)", tt.left, tt.right)
			if !strings.Contains(log.String(), msg) {
				t.Errorf("log %q does not contain %q", log.String(), msg)
			}
		})
	}
}

func TestDecodeUnclosedFrame(t *testing.T) {
	lines := LineConfig{Clock: 0, Data: 1, Select: 2}

	var in []byte
	in = append(in, bits(lines, 0, 1, false, 1)...)
	in = append(in, bits(lines, 1, 32, true, 1)...)
	in = append(in, bits(lines, 2, 32, false, 1)...)

	if got := decodeAll(t, lines, in); len(got) != 0 {
		t.Errorf("got % x", got)
	}
}

func TestDecodeEmptyLog(t *testing.T) {
	lines := LineConfig{Clock: 4, Data: 5, Select: 6}

	var out, log bytes.Buffer
	dec, err := NewDecoder(&out, lines, WithLog(&log))
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(bytes.NewReader(capture(t, lines, [][2]uint32{{1, 1}}))); err != nil {
		t.Fatal(err)
	}
	if log.Len() != 0 {
		t.Errorf("first frame must not warn: %s", log.String())
	}
}

var errBoom = errors.New("boom")

func TestDecodeErrors(t *testing.T) {
	lines := LineConfig{Clock: 0, Data: 1, Select: 2}
	big := capture(t, lines, make([][2]uint32, 100))

	tests := []struct {
		name string
		r    io.Reader
		err  error
	}{
		{"initial read", iotest.ErrReader(errBoom), ErrInitialRead},
		{"short initial read", io.MultiReader(bytes.NewReader(big[:10]), iotest.ErrReader(errBoom)), ErrInitialRead},
		{"read", io.MultiReader(bytes.NewReader(big), iotest.ErrReader(errBoom)), ErrRead},
		{"empty", bytes.NewReader(nil), ErrNoRightChannel},
		{"zeros", bytes.NewReader(make([]byte, 10000)), ErrNoRightChannel},
		{"always right", bytes.NewReader(bits(lines, 0, 100, false, 1)), ErrNoLeftChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewDecoder(io.Discard, lines)
			if err != nil {
				t.Fatal(err)
			}
			err = dec.Decode(tt.r)
			if !errors.Is(err, tt.err) {
				t.Fatalf("want %v, got %v", tt.err, err)
			}
		})
	}
}

func TestDecodeWriteError(t *testing.T) {
	lines := LineConfig{Clock: 0, Data: 1, Select: 2}

	dec, err := NewDecoder(failWriter{}, lines, WithBufferSize(FrameSize))
	if err != nil {
		t.Fatal(err)
	}
	err = dec.Decode(bytes.NewReader(capture(t, lines, [][2]uint32{{1, 2}, {3, 4}})))
	if !errors.Is(err, ErrWrite) || !errors.Is(err, errBoom) {
		t.Fatalf("got %v", err)
	}
}

func TestNewDecoderBufferSize(t *testing.T) {
	for _, size := range []int{0, -8, 7, 12} {
		if _, err := NewDecoder(io.Discard, LineConfig{0, 1, 2}, WithBufferSize(size)); !errors.Is(err, ErrBufferSize) {
			t.Errorf("%d: got %v", size, err)
		}
	}
}
