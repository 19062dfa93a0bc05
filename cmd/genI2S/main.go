package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-riff"
	"golang.org/x/sync/errgroup"

	"github.com/ysh86/I2Stools/i2s"
)

func main() {
	var inFile string
	var bck, dout, lrck int

	flag.StringVar(&inFile, "infile", "-", "wav file to read")
	flag.IntVar(&bck, "bck", 0, "bit index of BCK")
	flag.IntVar(&dout, "dout", 1, "bit index of DOUT")
	flag.IntVar(&lrck, "lrck", 2, "bit index of LRCK")
	flag.Parse()
	if len(flag.Args()) == 1 {
		inFile = flag.Arg(0)
	}

	lines, err := i2s.NewLineConfig(bck, dout, lrck)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// in
	outFile := inFile + ".cap"
	var in []byte
	if inFile == "-" {
		in, err = io.ReadAll(os.Stdin) // go-wav needs io.ReaderAt
		outFile = "stdin.cap"
	} else {
		in, err = os.ReadFile(inFile)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}

	// out
	frames, err := convert(outFile, in, lines)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "lines:  %v\n", lines)
	fmt.Fprintf(os.Stderr, "frames: %d\n", frames)
	fmt.Fprintf(os.Stderr, "out:    %s\n", outFile)
}

// convert writes the capture of a WAV file to outFile. A partial outFile is
// removed on failure.
func convert(outFile string, in []byte, lines i2s.LineConfig) (frames int, err error) {
	fw, err := os.Create(outFile)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := fw.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(outFile)
		}
	}()

	return generate(context.Background(), fw, bytes.NewReader(in), lines)
}

// generate converts a WAV file into a capture in two stages joined by a pipe.
func generate(ctx context.Context, w io.Writer, wavFile riff.RIFFReader, lines i2s.LineConfig) (int, error) {
	rframes, wframes := io.Pipe()
	g, ctx := errgroup.WithContext(ctx)

	// step1: wav to frames
	g.Go(func() error {
		var frame [i2s.FrameSize]byte
		format, err := i2s.ReadFrames(wavFile, func(left, right uint32) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			binary.LittleEndian.PutUint32(frame[0:4], left)
			binary.LittleEndian.PutUint32(frame[4:8], right)
			_, err := wframes.Write(frame[:])
			return err
		})
		if err == nil {
			fmt.Fprintf(os.Stderr, "ch:          %v\n", format.NumChannels)
			fmt.Fprintf(os.Stderr, "bits/sample: %v\n", format.BitsPerSample)
			fmt.Fprintf(os.Stderr, "sample rate: %v\n", format.SampleRate)
		}
		wframes.CloseWithError(err)
		return err
	})

	// step2: frames to capture
	frames := 0
	g.Go(func() error {
		enc := i2s.NewEncoder(w, lines)
		if err := enc.Preamble(); err != nil {
			rframes.CloseWithError(err)
			return err
		}

		var frame [i2s.FrameSize]byte
		for {
			_, err := io.ReadFull(rframes, frame[:])
			if err == io.EOF {
				break
			}
			if err != nil {
				rframes.CloseWithError(err)
				return err
			}
			left := binary.LittleEndian.Uint32(frame[0:4])
			right := binary.LittleEndian.Uint32(frame[4:8])
			if err := enc.WriteFrame(left, right); err != nil {
				rframes.CloseWithError(err)
				return err
			}
			frames++
		}
		return enc.Close()
	})

	err := g.Wait()
	return frames, err
}
