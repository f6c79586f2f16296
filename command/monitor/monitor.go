/* E903 - Front panel monitor.

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

   A line oriented stand in for the 903 control panel: examine and
   deposit store words, inspect the registers, single step, set the jump
   address and let the program run. Entered before the run with the
   monitor option and again on interrupt while it is enabled.
*/

package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterh/liner"

	cpu "github.com/rcornwell/E903/emu/cpu"
	dis "github.com/rcornwell/E903/emu/disassemble"
	mem "github.com/rcornwell/E903/emu/store"
	ch "github.com/rcornwell/E903/emu/sysio"
)

var commands = []string{
	"examine", "deposit", "registers", "devices", "step", "jump",
	"go", "dump", "quit", "help",
}

// Enter the monitor. The step argument runs one instruction. Returns
// true if the program should resume, false to quit the session.
func Enter(step func() (int, error)) bool {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		matches := []string{}
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, strings.ToLower(prefix)) {
				matches = append(matches, cmd)
			}
		}
		return matches
	})

	fmt.Println("903 monitor, 'help' for commands")
	for {
		input, err := line.Prompt("903> ")
		if err != nil {
			return false
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "go", "g":
			return true
		case "quit", "q":
			return false
		case "examine", "ex", "e":
			examine(fields[1:])
		case "deposit", "dep", "d":
			deposit(fields[1:])
		case "registers", "reg", "r":
			registers()
		case "devices", "dev":
			for _, device := range ch.Devices() {
				fmt.Println(device.Show())
			}
		case "step", "s":
			doStep(fields[1:], step)
		case "jump", "j":
			jump(fields[1:])
		case "dump":
			spew.Dump(cpu.State())
		case "help", "h", "?":
			help()
		default:
			fmt.Println("unknown command, 'help' for commands")
		}
	}
}

func help() {
	fmt.Println("examine addr [count]   display store words")
	fmt.Println("deposit addr value     write a store word")
	fmt.Println("registers              display A, Q, B, SCR and level")
	fmt.Println("devices                display peripheral state")
	fmt.Println("step [count]           execute instructions one at a time")
	fmt.Println("jump addr              set the sequence control register")
	fmt.Println("go                     resume the program")
	fmt.Println("dump                   raw processor state")
	fmt.Println("quit                   end the session")
	fmt.Println("addresses are decimal, octal with leading 0, or m^n")
}

func examine(args []string) {
	if len(args) < 1 {
		fmt.Println("examine needs an address")
		return
	}
	addr, err := dis.ParseAddr(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	count := uint32(1)
	if len(args) > 1 {
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Println("bad count", args[1])
			return
		}
		count = uint32(n)
	}
	for ; count > 0 && mem.CheckAddr(addr); addr, count = addr+1, count-1 {
		word := mem.Get(addr)
		fmt.Printf("%5d: %s  %s\n", addr, dis.FormatWord(word), dis.String(word))
	}
}

func deposit(args []string) {
	if len(args) != 2 {
		fmt.Println("deposit needs an address and a value")
		return
	}
	addr, err := dis.ParseAddr(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	if !mem.CheckAddr(addr) {
		fmt.Println("address past end of store")
		return
	}
	value, err := strconv.ParseInt(args[1], 0, 32)
	if err != nil {
		fmt.Println("bad value", args[1])
		return
	}
	mem.Set(addr, uint32(value))
}

func registers() {
	fmt.Printf("A=%s Q=%s B=%s SCR=%d level %d\n",
		dis.FormatWord(cpu.A()), dis.FormatWord(cpu.Q()),
		dis.FormatWord(cpu.B()), cpu.SCR(), cpu.Level())
	fmt.Printf("%d instructions, %d microseconds\n", cpu.InstrCount(), cpu.Elapsed())
}

func doStep(args []string, step func() (int, error)) {
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Println("bad count", args[0])
			return
		}
		count = n
	}
	for ; count > 0; count-- {
		scr := cpu.SCR()
		if _, err := step(); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("%5d: %-12s A=%s Q=%s B=%s\n", scr, dis.Trace(cpu.Instr()),
			dis.FormatWord(cpu.A()), dis.FormatWord(cpu.Q()), dis.FormatWord(cpu.B()))
	}
}

func jump(args []string) {
	if len(args) != 1 {
		fmt.Println("jump needs an address")
		return
	}
	addr, err := dis.ParseAddr(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	cpu.SetSCR(addr)
}
