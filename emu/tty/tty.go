/* E903 - Teletype.

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

   Teletype input is scripted from a byte file and echoed to the host
   terminal as it is consumed. Output goes to host stdout; only line feed
   and the printable range survive, anything else the Teletype would have
   struck a meaningless combination for and is dropped.
*/

package tty

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	config "github.com/rcornwell/E903/config/configparser"
	dev "github.com/rcornwell/E903/emu/device"
	sysio "github.com/rcornwell/E903/emu/sysio"
	"github.com/rcornwell/E903/util/debug"
)

type TTYCtx struct {
	fileName string        // Scripted keyboard input.
	file     *os.File      // Open input file.
	reader   *bufio.Reader // Buffered input.
	out      *bufio.Writer // Printer output, host stdout.
	eof      bool          // Input script exhausted.
	inCount  uint64        // Characters read this session.
	outCount uint64        // Characters printed this session.
}

var ttyDev = TTYCtx{out: bufio.NewWriter(os.Stdout)}

// Attach names the keyboard input script.
func (device *TTYCtx) Attach(fileName string) error {
	if err := device.Detach(); err != nil {
		return err
	}
	device.fileName = fileName
	return nil
}

// Detach closes the keyboard input script.
func (device *TTYCtx) Detach() error {
	if device.file == nil {
		return nil
	}
	err := device.file.Close()
	device.file = nil
	device.reader = nil
	return err
}

// InitDev resets the session counters.
func (device *TTYCtx) InitDev() error {
	device.eof = false
	device.inCount = 0
	device.outCount = 0
	return nil
}

// Read the next scripted keyboard character, echoing it to the host.
func (device *TTYCtx) ReadByte() (uint8, error) {
	if device.eof || device.inCount >= dev.ReelBytes {
		return 0, dev.ErrTTYStop
	}
	if device.reader == nil {
		file, err := os.Open(device.fileName)
		if err != nil {
			return 0, fmt.Errorf("tty: unable to open %s: %w", device.fileName, err)
		}
		device.file = file
		device.reader = bufio.NewReader(file)
	}
	b, err := device.reader.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			device.eof = true
			return 0, dev.ErrTTYStop
		}
		return 0, fmt.Errorf("tty: %s: %w", device.fileName, err)
	}
	device.inCount++
	device.echo(b & 0x7f)
	debug.Debugf("TTY", debug.IO, "read %03o", b)
	return b, nil
}

// Print one character. Line feed and the printable range are emitted,
// everything else is dropped with a trace.
func (device *TTYCtx) WriteByte(b uint8) error {
	if b == '\n' || (b >= 32 && b <= 122) {
		device.echo(b)
		device.outCount++
		debug.Debugf("TTY", debug.IO, "print %03o", b)
		return nil
	}
	debug.Debugf("TTY", debug.IO, "dropped %03o", b)
	return nil
}

func (device *TTYCtx) echo(b uint8) {
	_ = device.out.WriteByte(b)
	if b == '\n' {
		_ = device.out.Flush()
	}
}

// FlushLine forces any partial output line out to the host terminal.
func (device *TTYCtx) FlushLine() {
	_ = device.out.Flush()
}

// Shutdown flushes the current line and closes the input script.
func (device *TTYCtx) Shutdown() {
	device.FlushLine()
	_ = device.Detach()
}

// Show describes the teletype for the operator.
func (device *TTYCtx) Show() string {
	in := "no input script"
	if device.fileName != "" {
		in = fmt.Sprintf("%s, %d read", device.fileName, device.inCount)
	}
	return fmt.Sprintf("TTY %s, %d printed", in, device.outCount)
}

// register the device on initialize.
func init() {
	config.RegisterModel("TTYIN", create)
	sysio.SetTTY(&ttyDev)
}

func create(fileName string, options []config.Option) error {
	if len(options) != 0 {
		return errors.New("ttyin takes no options")
	}
	if fileName == "" {
		return errors.New("ttyin requires a file name")
	}
	return ttyDev.Attach(fileName)
}
