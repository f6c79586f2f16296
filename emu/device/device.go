/* E903 - Peripheral device interface.

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

package device

import "errors"

// All peripherals are synchronous byte streams owned by the session.
// Files are opened lazily on first transfer and closed exactly once
// during Shutdown.
type Device interface {
	// Attach names the backing file. The file is not opened until the
	// first transfer touches it.
	Attach(fileName string) error

	// Detach closes the backing file if it was opened.
	Detach() error

	// InitDev resets the device to its power on state.
	InitDev() error

	// Shutdown flushes and closes the device at end of session.
	Shutdown()

	// Show describes the device and its attachment for the operator.
	Show() string
}

// One reel of paper tape. Punching or typing past this is taken as a
// runaway program.
const ReelBytes = 120000

// Orderly stop conditions raised by the peripherals. The session manager
// maps these onto the documented exit codes.
var (
	ErrReaderStop = errors.New("paper tape reader exhausted")
	ErrTTYStop    = errors.New("teletype input exhausted")
	ErrPunchFull  = errors.New("punch output past one reel")
)
