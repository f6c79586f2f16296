/* E903 - Paper tape reader.

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

   The reader consumes a raw byte stream of 900 telecode characters.
   The tape file is opened on first demand. Whatever has not been read
   when the session ends is spilled to the save file so the next session
   can carry on from the same place on the tape.
*/

package ptr

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

type PtrCtx struct {
	fileName string        // Tape image to read.
	saveName string        // Where residual tape goes at shutdown.
	file     *os.File      // Open tape image.
	reader   *bufio.Reader // Buffered view of the tape.
	eof      bool          // Ran off the end of the tape.
	count    uint64        // Characters read this session.
}

var ptrDev = PtrCtx{}

// Attach names the tape image. Any open tape is detached first.
func (device *PtrCtx) Attach(fileName string) error {
	if err := device.Detach(); err != nil {
		return err
	}
	device.fileName = fileName
	return nil
}

// Detach closes the tape image without spilling residual bytes.
func (device *PtrCtx) Detach() error {
	if device.file == nil {
		return nil
	}
	err := device.file.Close()
	device.file = nil
	device.reader = nil
	return err
}

// InitDev resets the session counters.
func (device *PtrCtx) InitDev() error {
	device.eof = false
	device.count = 0
	return nil
}

// SetSave names the residual tape file.
func (device *PtrCtx) SetSave(fileName string) {
	device.saveName = fileName
}

// Read the next character from the tape.
func (device *PtrCtx) ReadByte() (uint8, error) {
	if device.eof {
		return 0, dev.ErrReaderStop
	}
	if device.reader == nil {
		file, err := os.Open(device.fileName)
		if err != nil {
			return 0, fmt.Errorf("reader: unable to open %s: %w", device.fileName, err)
		}
		device.file = file
		device.reader = bufio.NewReader(file)
	}
	b, err := device.reader.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			device.eof = true
			return 0, dev.ErrReaderStop
		}
		return 0, fmt.Errorf("reader: %s: %w", device.fileName, err)
	}
	device.count++
	debug.Debugf("PTR", debug.IO, "read %03o", b)
	return b, nil
}

// Spill the unread remainder of the tape to the save file, then close.
// A tape that was never opened is copied whole so nothing is lost.
func (device *PtrCtx) Shutdown() {
	defer func() { _ = device.Detach() }()

	if device.saveName == "" || device.eof {
		return
	}
	if device.reader == nil {
		if device.fileName == "" {
			return
		}
		file, err := os.Open(device.fileName)
		if err != nil {
			return
		}
		device.file = file
		device.reader = bufio.NewReader(file)
	}

	save, err := os.Create(device.saveName)
	if err != nil {
		debug.Debugf("PTR", debug.General, "unable to create %s: %v", device.saveName, err)
		return
	}
	defer save.Close()
	residual, err := io.Copy(save, device.reader)
	if err != nil {
		debug.Debugf("PTR", debug.General, "spilling residual tape: %v", err)
		return
	}
	debug.Debugf("PTR", debug.General, "%d residual characters to %s", residual, device.saveName)
}

// Show describes the reader for the operator.
func (device *PtrCtx) Show() string {
	state := "at load point"
	if device.count != 0 {
		state = fmt.Sprintf("%d characters read", device.count)
	}
	if device.eof {
		state = "run out"
	}
	return fmt.Sprintf("PTR %s, %s", device.fileName, state)
}

// register the device on initialize.
func init() {
	config.RegisterModel("READER", createReader)
	config.RegisterModel("SAVE", createSave)
	sysio.SetReader(&ptrDev)
}

func createReader(fileName string, options []config.Option) error {
	if len(options) != 0 {
		return errors.New("reader takes no options")
	}
	if fileName == "" {
		return errors.New("reader requires a file name")
	}
	return ptrDev.Attach(fileName)
}

func createSave(fileName string, options []config.Option) error {
	if len(options) != 0 {
		return errors.New("save takes no options")
	}
	if fileName == "" {
		return errors.New("save requires a file name")
	}
	ptrDev.SetSave(fileName)
	return nil
}
