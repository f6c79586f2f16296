package disassemble

/*
 * E903  - Instruction encode, decode and display
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

import (
	"fmt"
	"strconv"
	"strings"
)

/*
   An 18 bit instruction word packs a B modification flag, a four bit
   function code and a 13 bit address field:

      17  16    13 12           0
     +---+--------+--------------+
     | B |  func  |   address    |
     +---+--------+--------------+

   The conventional written form is "/f a" where the leading slash marks
   B modification, f is the function code in decimal and a the address
   field in decimal.
*/

const (
	modBit   uint32 = 0o400000 // B modification flag
	funcMask uint32 = 0o17     // Four bit function code
	addrMask uint32 = 0o17777  // 13 bit address field
	funcPos         = 13
)

// Mnemonic comment for each function code.
var funcName = [16]string{
	"B",   // 0: set B register
	"ADD", // 1: add
	"NEG", // 2: negate and add
	"STQ", // 3: store Q
	"LDA", // 4: load A
	"STA", // 5: store A
	"AND", // 6: collate
	"JZ",  // 7: jump if zero
	"JMP", // 8: unconditional jump
	"JN",  // 9: jump if negative
	"INC", // 10: increment in store
	"STS", // 11: store sequence register
	"MUL", // 12: multiply
	"DIV", // 13: divide
	"SHF", // 14: shift A and Q
	"IO",  // 15: input/output and level control
}

// Split an instruction word into B flag, function code and address field.
func Decode(word uint32) (mod bool, function uint32, addr uint32) {
	mod = (word & modBit) != 0
	function = (word >> funcPos) & funcMask
	addr = word & addrMask
	return mod, function, addr
}

// Pack B flag, function code and address field into an instruction word.
func Encode(mod bool, function uint32, addr uint32) uint32 {
	word := ((function & funcMask) << funcPos) | (addr & addrMask)
	if mod {
		word |= modBit
	}
	return word
}

// Render an instruction word in the written "/f a" form.
func String(word uint32) string {
	mod, function, addr := Decode(word)
	var str strings.Builder
	if mod {
		str.WriteByte('/')
	}
	fmt.Fprintf(&str, "%d %d", function, addr)
	return str.String()
}

// Render an instruction word with its mnemonic for trace output.
func Trace(word uint32) string {
	_, function, _ := Decode(word)
	return fmt.Sprintf("%-9s %s", String(word), funcName[function])
}

// Format an 18 bit word as six octal digits.
func FormatWord(word uint32) string {
	return fmt.Sprintf("%06o", word&0o777777)
}

// Format a store address in the operator's m^n form.
func FormatAddr(addr uint32) string {
	return fmt.Sprintf("%d^%d", addr>>13, addr&0o17777)
}

// Parse an address in decimal, octal with a leading 0, or the
// operator's m^n form meaning m*8192+n.
func ParseAddr(arg string) (uint32, error) {
	if module, word, found := strings.Cut(arg, "^"); found {
		m, err := strconv.ParseUint(module, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("bad module in %q", arg)
		}
		n, err := strconv.ParseUint(word, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("bad word in %q", arg)
		}
		return uint32(m*8192 + n), nil
	}
	value, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", arg)
	}
	return uint32(value), nil
}
