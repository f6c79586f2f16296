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

package telecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParity(t *testing.T) {
	// 'A' has two holes, already even.
	assert.Equal(t, uint8(0x41), Parity('A'))
	// 'C' has three holes, the parity channel is punched.
	assert.Equal(t, uint8(0xc3), Parity('C'))
	assert.Equal(t, uint8(0), Parity(0))

	assert.True(t, ParityOK(0x41))
	assert.True(t, ParityOK(0xc3))
	assert.False(t, ParityOK(0x43))
	assert.True(t, ParityOK(Blank))
	assert.True(t, ParityOK(Erase))
}

func TestToTelecode(t *testing.T) {
	tape, err := ToTelecode("AB\n")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x41, 0x42, Parity(CR), Parity(LF)}, tape)

	_, err = ToTelecode("café")
	assert.Error(t, err)
}

func TestFromTelecode(t *testing.T) {
	tape, err := ToTelecode("HELLO, WORLD\nSECOND LINE\n")
	assert.NoError(t, err)

	// Runout and erasures carry nothing.
	reel := append(Runout(20), tape...)
	reel = append(reel, Erase, Erase)
	reel = append(reel, Runout(20)...)

	text, badParity := FromTelecode(reel)
	assert.Equal(t, "HELLO, WORLD\nSECOND LINE\n", text)
	assert.Equal(t, 0, badParity)
}

func TestBadParity(t *testing.T) {
	_, badParity := FromTelecode([]byte{0x43})
	assert.Equal(t, 1, badParity)
}

func TestRunout(t *testing.T) {
	assert.Len(t, Runout(30), 30)
	for _, c := range Runout(5) {
		assert.Equal(t, uint8(Blank), c)
	}
}
