/* E903 - CPU definitions.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

package cpu

import (
	"fmt"

	dis "github.com/rcornwell/E903/emu/disassemble"
)

const (
	WordMask uint32 = 0o777777 // 18 bit word
	SignBit  uint32 = 0o400000 // Sign of 18 bit word, also the B modification flag
	AddrMask uint32 = 0o17777  // 13 bit address field
	ModMask  uint32 = 0o60000  // Module bits of a 14 bit address

	// Effective addresses are formed modulo 2^16; accesses past the end
	// of store are faults.
	CountMask uint32 = 0o177777
)

// SCR and B register live in the store at fixed cells selected by the
// active priority level.
const (
	Level1SCR uint32 = 0
	Level1B   uint32 = 1
	Level4SCR uint32 = 6
	Level4B   uint32 = 7
)

// Estimated execution times in microseconds. Function 7 costs 28 taken
// and 21 untaken, function 9 costs 25 taken and 20 untaken, shifts cost
// 24 plus 7 per place, and function 15 depends on the device.
var funcTime = [16]int{30, 23, 26, 25, 23, 25, 23, 21, 23, 20, 24, 30, 79, 79, 24, 0}

const (
	timeBMod       = 6
	timeJumpZero   = 28
	timeJumpNeg    = 25
	timeShiftBase  = 24
	timeShiftPlace = 7

	timeReader      = 4000
	timeTTY         = 100000
	timePunch       = 9091
	timePlotterPen  = 20000
	timePlotterStep = 3300
	timeTerminate   = 19
)

// A Fault is a fatal emulator error. The store contents are considered
// indeterminate afterwards and are not written back.
type Fault struct {
	Addr   uint32 // Address the instruction was fetched from
	Instr  uint32 // The offending instruction word
	Reason string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at %s: %s", f.Reason, dis.FormatAddr(f.Addr), dis.String(f.Instr))
}

// Sign extend an 18 bit word into a host integer.
func signExtend(w uint32) int64 {
	if (w & SignBit) != 0 {
		return int64(w) - int64(WordMask) - 1
	}
	return int64(w)
}
