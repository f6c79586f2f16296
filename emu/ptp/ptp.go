/* E903 - Paper tape punch.

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

   Punched characters go to a raw byte file, created on the first punch.
   Output past one reel stops the machine; a looping program would
   otherwise fill the disk one character at a time.
*/

package ptp

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	config "github.com/rcornwell/E903/config/configparser"
	dev "github.com/rcornwell/E903/emu/device"
	sysio "github.com/rcornwell/E903/emu/sysio"
	"github.com/rcornwell/E903/util/debug"
)

type PtpCtx struct {
	fileName string        // Output tape image.
	file     *os.File      // Open output file.
	writer   *bufio.Writer // Buffered output.
	count    uint64        // Characters punched this session.
}

var ptpDev = PtpCtx{}

// Attach names the output tape. The file is created on the first punch.
func (device *PtpCtx) Attach(fileName string) error {
	if err := device.Detach(); err != nil {
		return err
	}
	device.fileName = fileName
	return nil
}

// Detach flushes and closes the output tape.
func (device *PtpCtx) Detach() error {
	if device.file == nil {
		return nil
	}
	if err := device.writer.Flush(); err != nil {
		device.file.Close()
		device.file = nil
		device.writer = nil
		return err
	}
	err := device.file.Close()
	device.file = nil
	device.writer = nil
	return err
}

// InitDev resets the session counter.
func (device *PtpCtx) InitDev() error {
	device.count = 0
	return nil
}

// Punch one character.
func (device *PtpCtx) WriteByte(b uint8) error {
	if device.writer == nil {
		file, err := os.Create(device.fileName)
		if err != nil {
			return fmt.Errorf("punch: unable to create %s: %w", device.fileName, err)
		}
		device.file = file
		device.writer = bufio.NewWriter(file)
	}
	if device.count >= dev.ReelBytes {
		return dev.ErrPunchFull
	}
	if err := device.writer.WriteByte(b); err != nil {
		return fmt.Errorf("punch: %s: %w", device.fileName, err)
	}
	device.count++
	debug.Debugf("PTP", debug.IO, "punch %03o", b)
	return nil
}

// Shutdown flushes and closes the output tape.
func (device *PtpCtx) Shutdown() {
	if err := device.Detach(); err != nil {
		debug.Debugf("PTP", debug.General, "closing %s: %v", device.fileName, err)
	}
}

// Show describes the punch for the operator.
func (device *PtpCtx) Show() string {
	return fmt.Sprintf("PTP %s, %d characters punched", device.fileName, device.count)
}

// register the device on initialize.
func init() {
	config.RegisterModel("PUNCH", create)
	sysio.SetPunch(&ptpDev)
}

func create(fileName string, options []config.Option) error {
	if len(options) != 0 {
		return errors.New("punch takes no options")
	}
	if fileName == "" {
		return errors.New("punch requires a file name")
	}
	return ptpDev.Attach(fileName)
}
