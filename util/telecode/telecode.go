/*
 * E903 - Elliott 900 telecode translation
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package telecode translates between host text and the 900 series
// telecode punched on paper tape. The code is the ISO 7 bit set of the
// period with even parity in the eighth channel. Blank tape and fully
// punched erase characters carry no information and are skipped when
// reading a tape.
package telecode

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	Blank = 0x00 // Unpunched tape, runout
	Erase = 0xff // All channels punched, a deleted character
	CR    = 0x0d
	LF    = 0x0a
	Tab   = 0x09
)

// Even parity over eight channels: the parity channel is punched when
// the low seven carry an odd number of holes.
func Parity(c uint8) uint8 {
	c &= 0x7f
	if bits.OnesCount8(c)%2 == 1 {
		c |= 0x80
	}
	return c
}

// Report whether an eight bit tape character has valid even parity.
func ParityOK(c uint8) bool {
	return bits.OnesCount8(c)%2 == 0
}

// Report whether a character can be punched as telecode.
func valid(r rune) bool {
	return r == '\n' || r == '\t' || (r >= ' ' && r <= '~')
}

// Convert host text to telecode tape characters. Each newline becomes
// carriage return line feed the way the teletype expects.
func ToTelecode(text string) ([]byte, error) {
	tape := make([]byte, 0, len(text)+8)
	for _, r := range text {
		if !valid(r) {
			return nil, fmt.Errorf("telecode: no code for %q", r)
		}
		if r == '\n' {
			tape = append(tape, Parity(CR), Parity(LF))
			continue
		}
		tape = append(tape, Parity(uint8(r)))
	}
	return tape, nil
}

// Convert telecode tape characters back to host text. Runout, erases
// and carriage returns are dropped; a parity failure keeps the
// character but reports how many failed.
func FromTelecode(tape []byte) (string, int) {
	var text strings.Builder
	badParity := 0
	for _, c := range tape {
		if c == Blank || c == Erase {
			continue
		}
		if !ParityOK(c) {
			badParity++
		}
		c &= 0x7f
		switch {
		case c == CR:
		case c == LF:
			text.WriteByte('\n')
		case c == Tab:
			text.WriteByte('\t')
		case c >= ' ' && c <= '~':
			text.WriteByte(byte(c))
		}
	}
	return text.String(), badParity
}

// A stretch of blank tape for leaders and trailers.
func Runout(n int) []byte {
	return make([]byte, n)
}
