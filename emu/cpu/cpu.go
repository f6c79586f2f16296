/* E903 - Central processor.

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
	"errors"

	dev "github.com/rcornwell/E903/emu/device"
	mem "github.com/rcornwell/E903/emu/store"
	ch "github.com/rcornwell/E903/emu/sysio"
)

/*
   The Elliott 903 is an 18 bit word addressed machine introduced in 1965,
   a repackaging of the military 920B. The 16K core store is word
   addressed; addresses are 14 bits, the top two selecting one of up to
   eight 8K modules.

   An instruction holds a B modification flag, a four bit function code
   and a 13 bit address field:

      17  16    13 12           0
     +---+--------+--------------+
     | B |  func  |   address    |
     +---+--------+--------------+

   The effective address ORs the address field with the module bits of
   the location the instruction came from, then adds the B register when
   the flag is set, all modulo 2^16.

   The machine has two accumulators, A and Q, combined into a 36 bit
   signed A:Q pair for multiply, divide and shift. The sequence control
   register and the B register are not flip flops but store cells chosen
   by the active priority level: cells 0 and 1 at level 1, cells 6 and 7
   at level 4. Program and interrupt code share the store; the initial
   instructions at 8180..8191 are hardware protected against level 1
   writes only.

   Function codes:

      0  set B          Q and B register loaded from store
      1  add            A = A + store
      2  negate add     A = store - A
      3  store Q        store = Q >> 1
      4  load A         A = store
      5  store A        store = A (ignored at 8180..8191 on level 1)
      6  collate        A = A & store
      7  jump if zero   SCR = address when A == 0
      8  jump           SCR = address
      9  jump if neg    SCR = address when A < 0
     10  count          store = store + 1
     11  store SCR      Q = module of SCR, store = address part of SCR
     12  multiply       A:Q = A * store
     13  divide         A and Q get the rounded quotient of A:Q / store
     14  shift          A:Q shifted left or right by the address field
     15  in/out         paper tape, teletype, plotter, level terminate
*/

// Holds state of CPU.
var sysCPU cpuState

type cpuState struct {
	A, Q    uint32 // Accumulators
	level   int    // Active priority level, 1 or 4
	scrSlot uint32 // Store cell holding the SCR for this level
	bSlot   uint32 // Store cell holding the B register for this level

	lastSCR uint32 // Address the current instruction came from
	instr   uint32 // The current instruction word
	jumped  bool   // Current instruction changed the SCR

	instrCount uint64     // Instructions executed
	opCount    [16]uint64 // Executions per function code
	elapsed    uint64     // Estimated microseconds of 903 time
}

// Initialize CPU to front panel reset state: level 1 active, both
// accumulators clear, counters zeroed. The store is left alone.
func InitializeCPU() {
	sysCPU.A = 0
	sysCPU.Q = 0
	sysCPU.jumped = false
	sysCPU.lastSCR = 0
	sysCPU.instr = 0
	sysCPU.instrCount = 0
	sysCPU.elapsed = 0
	for i := range sysCPU.opCount {
		sysCPU.opCount[i] = 0
	}
	setLevel(1)
}

// Select the active priority level and with it the SCR and B cells.
func setLevel(level int) {
	sysCPU.level = level
	if level == 1 {
		sysCPU.scrSlot = Level1SCR
		sysCPU.bSlot = Level1B
	} else {
		sysCPU.scrSlot = Level4SCR
		sysCPU.bSlot = Level4B
	}
}

// Set the SCR, as the operator's jump keys would.
func SetSCR(addr uint32) {
	mem.Set(sysCPU.scrSlot, addr&CountMask)
}

// Current sequence control register.
func SCR() uint32 {
	return mem.Get(sysCPU.scrSlot)
}

// Current B register.
func B() uint32 {
	return mem.Get(sysCPU.bSlot)
}

func A() uint32          { return sysCPU.A }
func Q() uint32          { return sysCPU.Q }
func Level() int         { return sysCPU.level }
func LastSCR() uint32    { return sysCPU.lastSCR }
func Instr() uint32      { return sysCPU.instr }
func Jumped() bool       { return sysCPU.jumped }
func InstrCount() uint64 { return sysCPU.instrCount }
func Elapsed() uint64    { return sysCPU.elapsed }

// Executions per function code. The sum equals InstrCount.
func OpCount() [16]uint64 {
	return sysCPU.opCount
}

// Copy of the processor state for the operator's dump command.
func State() interface{} {
	return sysCPU
}

// Execute one instruction. Returns the estimated microseconds the 903
// would have taken and nil to continue, a device stop, or a *Fault.
func CycleCPU() (int, error) {
	cpu := &sysCPU
	cpu.jumped = false

	scr := mem.Get(cpu.scrSlot)
	if !mem.CheckAddr(scr) {
		return 0, &Fault{Addr: scr, Instr: 0, Reason: "sequence control register past end of store"}
	}
	cpu.lastSCR = scr
	mem.Set(cpu.scrSlot, (scr+1)&WordMask)

	instr := mem.Get(scr)
	cpu.instr = instr

	micro := 0
	function := (instr >> 13) & 0o17
	addr := (instr & AddrMask) | (scr & ModMask)
	effective := addr & CountMask
	if (instr & SignBit) != 0 {
		effective = (addr + mem.Get(cpu.bSlot)) & CountMask
		micro += timeBMod
	}

	cpu.instrCount++
	cpu.opCount[function]++

	t, err := cpu.execute(function, effective)
	micro += t
	cpu.elapsed += uint64(micro)
	return micro, err
}

// Read a store word for the current instruction.
func (cpu *cpuState) read(addr uint32) (uint32, error) {
	value, bad := mem.GetWord(addr)
	if bad {
		return 0, cpu.fault("store address past end of store")
	}
	return value, nil
}

// Write a store word on behalf of the current priority level.
func (cpu *cpuState) write(addr, value uint32) error {
	if mem.PutWordLevel(addr, value, cpu.level) {
		return cpu.fault("store address past end of store")
	}
	return nil
}

func (cpu *cpuState) fault(reason string) error {
	return &Fault{Addr: cpu.lastSCR, Instr: cpu.instr, Reason: reason}
}

func (cpu *cpuState) setSCR(addr uint32) {
	mem.Set(cpu.scrSlot, addr)
	cpu.jumped = true
}

// One function code. Returns estimated microseconds.
func (cpu *cpuState) execute(function, m uint32) (int, error) {
	micro := funcTime[function]

	switch function {
	case 0: // Set B register
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		cpu.Q = value
		return micro, cpu.write(cpu.bSlot, value)

	case 1: // Add
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		cpu.A = (cpu.A + value) & WordMask

	case 2: // Negate and add
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		cpu.A = (value - cpu.A) & WordMask

	case 3: // Store Q
		return micro, cpu.write(m, cpu.Q>>1)

	case 4: // Load A
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		cpu.A = value

	case 5: // Store A
		return micro, cpu.write(m, cpu.A)

	case 6: // Collate
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		cpu.A &= value

	case 7: // Jump if zero
		if cpu.A == 0 {
			cpu.setSCR(m)
			micro = timeJumpZero
		}

	case 8: // Unconditional jump
		cpu.setSCR(m)

	case 9: // Jump if negative
		if (cpu.A & SignBit) != 0 {
			cpu.setSCR(m)
			micro = timeJumpNeg
		}

	case 10: // Increment in store
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		return micro, cpu.write(m, (value+1)&WordMask)

	case 11: // Store sequence register
		scr := mem.Get(cpu.scrSlot)
		cpu.Q = scr & ModMask
		return micro, cpu.write(m, scr&AddrMask)

	case 12: // Multiply
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		cpu.multiply(value)

	case 13: // Divide
		value, err := cpu.read(m)
		if err != nil {
			return micro, err
		}
		if err := cpu.divide(value); err != nil {
			return micro, err
		}

	case 14: // Shift A and Q
		return cpu.shift(m)

	case 15: // Input/output
		return cpu.inOut(m)
	}
	return micro, nil
}

// Multiply keeps the 36 bit product in A:Q. The product is shifted up
// one place into Q with the sign of the old A in the bottom bit, and A
// takes the high half via an arithmetic shift of 17.
func (cpu *cpuState) multiply(value uint32) {
	product := signExtend(cpu.A) * signExtend(value)
	q := uint32(product<<1) & WordMask
	if (cpu.A & SignBit) != 0 {
		q |= 1
	}
	cpu.A = uint32(product>>17) & WordMask
	cpu.Q = q
}

// Divide the 36 bit A:Q pair by the store word. The quotient lands in
// both accumulators; the hardware forces the bottom bit of A to one and
// the bottom bit of Q to zero.
func (cpu *cpuState) divide(value uint32) error {
	divisor := signExtend(value)
	if divisor == 0 {
		return cpu.fault("divide by zero")
	}
	aq := (signExtend(cpu.A) << 18) | int64(cpu.Q)
	quotient := uint32((aq/divisor)>>1) & WordMask
	cpu.A = quotient | 1
	cpu.Q = quotient & 0o777776
	return nil
}

// Shift the 36 bit A:Q pair. Address fields up to 2047 shift left,
// 6144 and up shift right arithmetically; the band between has no
// defined meaning on this machine.
func (cpu *cpuState) shift(m uint32) (int, error) {
	places := m & AddrMask
	aq := (signExtend(cpu.A) << 18) | int64(cpu.Q)

	var count uint32
	switch {
	case places <= 2047:
		count = min(places, 36)
		aq <<= count
	case places >= 6144:
		count = min(8192-places, 36)
		aq >>= count
	default:
		return timeShiftBase, cpu.fault("unsupported shift")
	}
	cpu.Q = uint32(aq) & WordMask
	cpu.A = uint32(aq>>18) & WordMask
	return timeShiftBase + timeShiftPlace*int(count), nil
}

// Function 15: devices and level control, selected by the effective
// address. Device stops pass out to the session manager untouched.
func (cpu *cpuState) inOut(m uint32) (int, error) {
	switch m & AddrMask {
	case ch.KeyReader:
		b, err := ch.ReaderByte()
		if err != nil {
			return timeReader, err
		}
		cpu.A = ((cpu.A << 7) | uint32(b)) & WordMask
		return timeReader, nil

	case ch.KeyTTYIn:
		b, err := ch.TTYByte()
		if err != nil {
			return timeTTY, err
		}
		cpu.A = ((cpu.A << 7) | uint32(b)) & WordMask
		return timeTTY, nil

	case ch.KeyPlotter:
		bits := cpu.A & 0o77
		ch.PlotterCmd(bits)
		if (bits & 0o60) != 0 {
			return timePlotterPen, nil
		}
		return timePlotterStep, nil

	case ch.KeyPunch:
		if err := ch.PunchByte(uint8(cpu.A & 0xff)); err != nil {
			return timePunch, err
		}
		return timePunch, nil

	case ch.KeyTTYOut:
		if err := ch.TTYWrite(uint8(cpu.A & 0x7f)); err != nil {
			return timeTTY, err
		}
		return timeTTY, nil

	case ch.KeyTerminate:
		setLevel(4)
		cpu.jumped = true
		return timeTerminate, nil
	}
	return 0, cpu.fault("unsupported input/output code")
}

// Device stops are orderly terminations, faults are not.
func IsDeviceStop(err error) bool {
	return errors.Is(err, dev.ErrReaderStop) ||
		errors.Is(err, dev.ErrTTYStop) ||
		errors.Is(err, dev.ErrPunchFull)
}
