/*
 * E903 - Bitmask gated trace output
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

package debug

import (
	"fmt"
	"io"
	"os"
)

// Diagnostic classes selected by the verbosity bitmask.
const (
	General = 1 << iota // Summary diagnostics
	Jumps               // Trace taken jumps
	Instr               // Trace every instruction
	IO                  // Trace peripheral transfers
)

var (
	out  io.Writer = os.Stderr
	mask int
)

// Select where trace output goes. The default is stderr.
func SetOutput(w io.Writer) {
	if w != nil {
		out = w
	}
}

// Set the verbosity bitmask.
func SetMask(m int) {
	mask = m
}

// Return the current verbosity bitmask.
func Mask() int {
	return mask
}

// Report whether a diagnostic class is selected.
func Enabled(bit int) bool {
	return (mask & bit) != 0
}

// Generic trace message, gated on the verbosity bitmask.
func Debugf(module string, bit int, format string, a ...interface{}) {
	if (mask & bit) != 0 {
		fmt.Fprintf(out, module+": "+format+"\n", a...)
	}
}

// Trace message emitted regardless of the mask. Used for one shot traces
// armed by a monitored address change.
func Forcef(module string, format string, a ...interface{}) {
	fmt.Fprintf(out, module+": "+format+"\n", a...)
}
