/* E903 - Function 15 device registry and dispatch.

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

package sysio

import (
	"errors"

	dev "github.com/rcornwell/E903/emu/device"
)

// Sub addresses recognised on function 15. Anything else is a fault.
const (
	KeyReader    = 2048 // Read paper tape
	KeyTTYIn     = 2052 // Read teletype
	KeyPlotter   = 4864 // Plotter command from A
	KeyPunch     = 6144 // Punch paper tape
	KeyTTYOut    = 6148 // Print on teletype
	KeyTerminate = 7168 // Terminate priority level
)

// A device bytes are read from.
type ByteSource interface {
	dev.Device
	ReadByte() (uint8, error)
}

// A device bytes are written to.
type ByteSink interface {
	dev.Device
	WriteByte(uint8) error
}

// The teletype both prints and reads.
type Printer interface {
	dev.Device
	ReadByte() (uint8, error)
	WriteByte(uint8) error
}

// The plotter takes six bit movement commands.
type Mover interface {
	dev.Device
	Command(bits uint32)
}

var (
	reader  ByteSource
	tty     Printer
	punch   ByteSink
	plotter Mover
)

// Device registration. Each device model registers its singleton from
// its package init function.
func SetReader(d ByteSource) { reader = d }
func SetTTY(d Printer)       { tty = d }
func SetPunch(d ByteSink)    { punch = d }
func SetPlotter(d Mover)     { plotter = d }

func Reader() ByteSource { return reader }
func TTY() Printer       { return tty }
func Punch() ByteSink    { return punch }
func Plotter() Mover     { return plotter }

// Read one byte from the paper tape reader.
func ReaderByte() (uint8, error) {
	if reader == nil {
		return 0, dev.ErrReaderStop
	}
	return reader.ReadByte()
}

// Read one byte from the teletype keyboard.
func TTYByte() (uint8, error) {
	if tty == nil {
		return 0, dev.ErrTTYStop
	}
	return tty.ReadByte()
}

// Punch one byte of paper tape.
func PunchByte(b uint8) error {
	if punch == nil {
		return errors.New("no punch attached")
	}
	return punch.WriteByte(b)
}

// Print one byte on the teletype.
func TTYWrite(b uint8) error {
	if tty == nil {
		return nil
	}
	return tty.WriteByte(b)
}

// Send a movement command to the plotter.
func PlotterCmd(bits uint32) {
	if plotter != nil {
		plotter.Command(bits)
	}
}

// All registered devices, for reset, show and shutdown.
func Devices() []dev.Device {
	list := []dev.Device{}
	if reader != nil {
		list = append(list, reader)
	}
	if tty != nil {
		list = append(list, tty)
	}
	if punch != nil {
		list = append(list, punch)
	}
	if plotter != nil {
		list = append(list, plotter)
	}
	return list
}

// Reset every device to its power on state.
func InitDevices() error {
	for _, d := range Devices() {
		if err := d.InitDev(); err != nil {
			return err
		}
	}
	return nil
}

// Flush and close every device. Called exactly once during teardown.
func Shutdown() {
	for _, d := range Devices() {
		d.Shutdown()
	}
}
