// Package i2s decodes logic-analyzer captures of a three-wire I2S bus
// (BCK, DOUT, LRCK) into 32-bit stereo PCM, and encodes PCM back into such
// captures.
//
// Each captured byte holds the levels of up to 8 lines at one sampling
// instant. A LineConfig names the bit of each byte that carries BCK, DOUT
// and LRCK.
package i2s

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrArgCount   = errors.New("i2s: expected 3 bit indexes: <BCK> <DOUT> <LRCK>")
	ErrInvalidBit = errors.New("i2s: invalid bit index")
)

// LineConfig is the bit position of each bus line within a captured byte.
type LineConfig struct {
	Clock  uint8 // BCK
	Data   uint8 // DOUT
	Select uint8 // LRCK, high for the left channel
}

// NewLineConfig validates three bit positions: each in [0,7], all distinct.
func NewLineConfig(clock, data, sel int) (LineConfig, error) {
	for _, b := range [3]int{clock, data, sel} {
		if b < 0 || b >= 8 {
			return LineConfig{}, fmt.Errorf("%w: %d", ErrInvalidBit, b)
		}
	}
	if clock == data || clock == sel || data == sel {
		return LineConfig{}, fmt.Errorf("%w: duplicated (%d, %d, %d)", ErrInvalidBit, clock, data, sel)
	}
	return LineConfig{Clock: uint8(clock), Data: uint8(data), Select: uint8(sel)}, nil
}

// ParseLineConfig parses command line arguments in BCK, DOUT, LRCK order.
func ParseLineConfig(args []string) (LineConfig, error) {
	if len(args) != 3 {
		return LineConfig{}, fmt.Errorf("%w: got %d", ErrArgCount, len(args))
	}
	var bits [3]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return LineConfig{}, fmt.Errorf("%w: %q", ErrInvalidBit, a)
		}
		bits[i] = v
	}
	return NewLineConfig(bits[0], bits[1], bits[2])
}

// Extract returns the level of each bus line in one captured sample.
func (c LineConfig) Extract(sample byte) (clock, data, sel bool) {
	clock = (sample>>c.Clock)&1 != 0
	data = (sample>>c.Data)&1 != 0
	sel = (sample>>c.Select)&1 != 0
	return
}

// Sample is the inverse of Extract. Unused lines are low.
func (c LineConfig) Sample(clock, data, sel bool) byte {
	var s byte
	if clock {
		s |= 1 << c.Clock
	}
	if data {
		s |= 1 << c.Data
	}
	if sel {
		s |= 1 << c.Select
	}
	return s
}

func (c LineConfig) String() string {
	return fmt.Sprintf("BCK:%d DOUT:%d LRCK:%d", c.Clock, c.Data, c.Select)
}
