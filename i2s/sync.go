package i2s

import "errors"

// BlockSize is the size of each read from the capture. Synchronization only
// looks at the first block.
const BlockSize = 4096

var (
	ErrNoRightChannel = errors.New("i2s: bad data: always left channel or no BCK")
	ErrNoLeftChannel  = errors.New("i2s: bad data: always right channel")
)

// Synchronize returns the offset of the first sample in block that is a
// left channel sample with BCK high, preceded somewhere by a right channel
// sample with BCK high. Decoding from there never starts in the middle of a
// frame.
func Synchronize(block []byte, lines LineConfig) (int, error) {
	pos := 0

	// right channel
	for ; pos < len(block); pos++ {
		clock, _, sel := lines.Extract(block[pos])
		if !sel && clock {
			break
		}
	}
	if pos == len(block) {
		return 0, ErrNoRightChannel
	}

	// then left channel
	for ; pos < len(block); pos++ {
		clock, _, sel := lines.Extract(block[pos])
		if sel && clock {
			break
		}
	}
	if pos == len(block) {
		return 0, ErrNoLeftChannel
	}

	return pos, nil
}
