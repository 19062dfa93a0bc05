package i2s

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/youpy/go-riff"
	"github.com/youpy/go-wav"
)

// WriteWAV writes pcm, as produced by a Decoder, in a 2ch 32bit PCM WAV
// container. A trailing partial frame is dropped.
func WriteWAV(w io.Writer, pcm []byte, sampleRate uint32) error {
	pcm = pcm[:len(pcm)-len(pcm)%FrameSize]
	numSamples := uint32(len(pcm) / FrameSize)

	writer := wav.NewWriter(w, numSamples, 2, sampleRate, SampleBits)
	if _, err := writer.Write(pcm); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// ReadFrames reads a 1ch or 2ch WAV and calls fn for every sample, left
// justified to 32 bits. Mono is sent to both channels.
func ReadFrames(r riff.RIFFReader, fn func(left, right uint32) error) (format *wav.WavFormat, err error) {
	// go-riff panics on truncated headers
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed WAV: %v", p)
		}
	}()

	reader := wav.NewReader(r)

	format, err = reader.Format()
	if err != nil {
		return nil, err
	}
	if format.AudioFormat != wav.AudioFormatPCM && format.AudioFormat != wav.AudioFormatIEEEFloat {
		return format, fmt.Errorf("unsupported format.AudioFormat: %d", format.AudioFormat)
	}
	if format.NumChannels != 1 && format.NumChannels != 2 {
		return format, fmt.Errorf("unsupported format.NumChannels: %d", format.NumChannels)
	}
	switch format.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return format, fmt.Errorf("unsupported format.BitsPerSample: %d", format.BitsPerSample)
	}

	bits := int(format.BitsPerSample)
	if format.AudioFormat == wav.AudioFormatIEEEFloat {
		// go-wav scales floats to int32
		bits = 32
	}

	for {
		samples, err := reader.ReadSamples(2048)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return format, err
		}

		for _, sample := range samples {
			lv := reader.IntValue(sample, 0)
			rv := reader.IntValue(sample, 1)
			if format.AudioFormat == wav.AudioFormatIEEEFloat {
				// +1.0 and louder scale past MaxInt32
				lv = clampInt32(lv)
				rv = clampInt32(rv)
			}
			left := justify(lv, bits)
			right := left
			if format.NumChannels == 2 {
				right = justify(rv, bits)
			}
			if err := fn(left, right); err != nil {
				return format, err
			}
		}
	}

	return format, nil
}

func clampInt32(v int) int {
	return max(math.MinInt32, min(v, math.MaxInt32))
}

// justify moves a signed sample of the given width to the top of 32 bits.
// 8bit WAV samples are unsigned.
func justify(value int, bits int) uint32 {
	if bits == 8 {
		value -= 128
	}
	return uint32(int32(value) << (32 - bits))
}
