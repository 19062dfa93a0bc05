package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ysh86/I2Stools/i2s"
)

const (
	exitOK = iota
	exitArgCount
	exitInvalidBit
	exitInitialRead
	exitNoRightChannel
	exitNoLeftChannel
	exitRead
	exitWrite
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	toWAV := fs.Bool("wav", false, "write a WAV file instead of raw PCM")
	rate := fs.Uint("rate", 48000, "sample rate of the WAV file")
	bufSize := fs.Int("bufsize", i2s.DefaultBufferSize, "output buffer size in bytes")
	verbose := fs.Bool("v", false, "print a summary")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <BCK> <DOUT> <LRCK>\n", args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitInvalidBit
	}

	lines, err := i2s.ParseLineConfig(fs.Args())
	if errors.Is(err, i2s.ErrArgCount) {
		fmt.Fprintf(stderr, "Incorrect arguments! Usage: %s <BCK> <DOUT> <LRCK>\n", args[0])
		return exitArgCount
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitInvalidBit
	}

	if *rate == 0 || *rate > math.MaxUint32 {
		fmt.Fprintf(stderr, "invalid sample rate: %d\n", *rate)
		return exitInvalidBit
	}

	// raw PCM streams out; WAV needs the size up front, so it's all on mem
	out := stdout
	var pcm *bytes.Buffer
	if *toWAV {
		pcm = &bytes.Buffer{}
		out = pcm
	}

	dec, err := i2s.NewDecoder(out, lines, i2s.WithBufferSize(*bufSize), i2s.WithLog(stderr))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitInvalidBit
	}

	err = dec.Decode(stdin)
	if err == nil && pcm != nil {
		err = i2s.WriteWAV(stdout, pcm.Bytes(), uint32(*rate))
	}

	if *verbose {
		s := dec.Stats()
		fmt.Fprintf(stderr, "lines:   %v\n", lines)
		fmt.Fprintf(stderr, "offset:  %d\n", s.Offset)
		fmt.Fprintf(stderr, "edges:   %d\n", s.Edges)
		fmt.Fprintf(stderr, "frames:  %d\n", s.Frames)
		fmt.Fprintf(stderr, "dropped: %d\n", s.Dropped)
	}

	if err != nil {
		fmt.Fprintln(stderr, err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, i2s.ErrInitialRead):
		return exitInitialRead
	case errors.Is(err, i2s.ErrNoRightChannel):
		return exitNoRightChannel
	case errors.Is(err, i2s.ErrNoLeftChannel):
		return exitNoLeftChannel
	case errors.Is(err, i2s.ErrRead):
		return exitRead
	default:
		return exitWrite
	}
}
