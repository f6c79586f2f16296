/*
   E903 session manager and main emulation loop.

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

package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cpu "github.com/rcornwell/E903/emu/cpu"
	dev "github.com/rcornwell/E903/emu/device"
	dis "github.com/rcornwell/E903/emu/disassemble"
	mem "github.com/rcornwell/E903/emu/store"
	ch "github.com/rcornwell/E903/emu/sysio"
	"github.com/rcornwell/E903/util/debug"
)

// Exit codes handed back to the shell. The tape stitching scripts branch
// on these to decide whether a compile step produced output worth keeping.
const (
	ExitDynStop = 0  // Program reached a dynamic stop
	ExitFatal   = 1  // Emulator fault (store not written back) or interrupt
	ExitReader  = 2  // Paper tape reader ran out
	ExitTTY     = 4  // Teletype input ran out
	ExitLimit   = 8  // Instruction limit reached
	ExitPunch   = 16 // Punch filled a reel
)

// Number of instructions an r-trace window covers before abandoning.
const rTraceWindow = 1000

// A Session owns the machine for one run: it primes the store, drives
// the fetch decode execute loop, watches for stops, and persists the
// durable state on the way out.
type Session struct {
	StorePath string // Store image read at start, written at orderly exit
	StopPath  string // Where a dynamic stop address is recorded
	Jump      uint32 // Operator jump keys, initial SCR

	Abandon    uint64 // Stop after this many instructions, 0 for no limit
	TraceCount uint64 // Trace every instruction past this count, 0 off
	TraceAddr  int64  // Trace every instruction once this address runs, -1 off
	RTrace     uint64 // Trace a window of 1000 instructions from this count, 0 off
	Watch      int64  // Monitored store address, -1 off

	// MonitorHook, when set, is entered on an interrupt instead of
	// tearing down. It returns true to resume the program.
	MonitorHook func() bool

	tracing   bool // Sticky instruction trace, armed by count or address
	traceNext bool // One shot trace armed by a monitored address change
}

// Prepare primes the machine: overlay a persisted image on the cleared
// store, reinstall the initial instructions, reset the processor and the
// peripherals, and load the jump address into the SCR.
func (session *Session) Prepare() error {
	if session.Watch >= int64(mem.Size) {
		return fmt.Errorf("monitored address %d past end of store", session.Watch)
	}
	if err := mem.LoadImage(session.StorePath); err != nil {
		return err
	}
	mem.InstallInitialOrders()
	cpu.InitializeCPU()
	cpu.SetSCR(session.Jump)
	return ch.InitDevices()
}

// Run drives the main loop until the machine stops, then tears down.
// The return value is the process exit code.
func (session *Session) Run() int {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			if session.MonitorHook != nil && session.MonitorHook() {
				continue
			}
			slog.Warn("Interrupted")
			return session.teardown(ExitFatal, true)
		default:
		}

		var watched uint32
		if session.Watch >= 0 {
			watched = mem.Get(uint32(session.Watch))
		}

		_, err := cpu.CycleCPU()

		session.trace(watched)

		if err != nil {
			return session.stop(err)
		}

		if session.Abandon != 0 && cpu.InstrCount() >= session.Abandon {
			slog.Info("Instruction limit reached", "count", cpu.InstrCount())
			return session.teardown(ExitLimit, true)
		}
		if session.RTrace != 0 && cpu.InstrCount() >= session.RTrace+rTraceWindow {
			slog.Info("Trace window complete", "count", cpu.InstrCount())
			return session.teardown(ExitLimit, true)
		}

		// An instruction that jumps to itself is the conventional halt.
		if cpu.SCR() == cpu.LastSCR() {
			debug.Debugf("CPU", debug.General, "dynamic stop at %s", dis.FormatAddr(cpu.LastSCR()))
			if session.StopPath != "" {
				stop := fmt.Sprintf("%d\n", cpu.LastSCR())
				if err := os.WriteFile(session.StopPath, []byte(stop), 0o644); err != nil {
					slog.Error("Unable to record stop address", "err", err)
					return session.teardown(ExitFatal, false)
				}
			}
			return session.teardown(ExitDynStop, true)
		}
	}
}

// Finish ends a session that never ran, persisting whatever state the
// operator set up from the monitor.
func (session *Session) Finish() int {
	return session.teardown(ExitDynStop, true)
}

// Decide what kind of stop an execution error is.
func (session *Session) stop(err error) int {
	switch {
	case errors.Is(err, dev.ErrReaderStop):
		slog.Info("Reader stop", "scr", dis.FormatAddr(cpu.LastSCR()))
		return session.teardown(ExitReader, true)
	case errors.Is(err, dev.ErrTTYStop):
		slog.Info("Teletype stop", "scr", dis.FormatAddr(cpu.LastSCR()))
		return session.teardown(ExitTTY, true)
	case errors.Is(err, dev.ErrPunchFull):
		slog.Info("Punch overflow", "scr", dis.FormatAddr(cpu.LastSCR()))
		return session.teardown(ExitPunch, true)
	}

	// Anything else leaves the store indeterminate.
	slog.Error(err.Error())
	mem.Invalidate()
	return session.teardown(ExitFatal, false)
}

// Tear the session down exactly once: persist the store on orderly
// exits, then shut down every peripheral, which flushes the teletype
// line and spills the residual tape. The spill happens on every exit,
// fatal ones included; only the store write is skipped.
func (session *Session) teardown(code int, persist bool) int {
	if persist && mem.Valid() {
		if err := mem.PersistImage(session.StorePath); err != nil {
			slog.Error(err.Error())
			code = ExitFatal
		}
	}
	ch.Shutdown()
	session.summary()
	return code
}

// Summary diagnostics at end of session.
func (session *Session) summary() {
	if !debug.Enabled(debug.General) {
		return
	}
	debug.Debugf("CPU", debug.General, "%d instructions, %d.%06d seconds of 903 time",
		cpu.InstrCount(), cpu.Elapsed()/1000000, cpu.Elapsed()%1000000)
	counts := cpu.OpCount()
	for function, count := range counts {
		if count != 0 {
			debug.Debugf("CPU", debug.General, "function %2d executed %d times", function, count)
		}
	}
}

// Per instruction trace handling: one shot traces armed by a monitored
// address change, sticky traces armed by count or address, the r-trace
// window, and the jump trace.
func (session *Session) trace(watched uint32) {
	if session.traceNext {
		session.traceNext = false
		debug.Forcef("CPU", "%s", session.traceLine())
	}

	if session.Watch >= 0 {
		now := mem.Get(uint32(session.Watch))
		if now != watched {
			debug.Forcef("WATCH", "%d changed %s -> %s at %s", session.Watch,
				dis.FormatWord(watched), dis.FormatWord(now), dis.FormatAddr(cpu.LastSCR()))
			session.traceNext = true
		}
	}

	if !session.tracing {
		if session.TraceCount != 0 && cpu.InstrCount() >= session.TraceCount {
			session.tracing = true
		}
		if session.TraceAddr >= 0 && cpu.LastSCR() == uint32(session.TraceAddr) {
			session.tracing = true
		}
	}
	inWindow := session.RTrace != 0 && cpu.InstrCount() >= session.RTrace

	if session.tracing || inWindow || debug.Enabled(debug.Instr) {
		debug.Forcef("CPU", "%s", session.traceLine())
	} else if cpu.Jumped() {
		debug.Debugf("CPU", debug.Jumps, "%s", session.traceLine())
	}
}

// One line of instruction trace.
func (session *Session) traceLine() string {
	return fmt.Sprintf("%5d: %-12s A=%s Q=%s B=%s L%d", cpu.LastSCR(),
		dis.Trace(cpu.Instr()), dis.FormatWord(cpu.A()), dis.FormatWord(cpu.Q()),
		dis.FormatWord(cpu.B()), cpu.Level())
}
