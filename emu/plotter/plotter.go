/* E903 - Incremental flat bed plotter.

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

   The plotter steps one increment at a time under the low six bits of A.
   The head stops hard at the paper edges. While the pen is down each
   command blackens a square of side 2*pen+1 around the head. The paper is
   an RGB raster in memory, written out as a PNG when the session ends.
*/

package plotter

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"

	config "github.com/rcornwell/E903/config/configparser"
	sysio "github.com/rcornwell/E903/emu/sysio"
	"github.com/rcornwell/E903/util/debug"
)

// Command bits in the low six bits of A.
const (
	CmdEast    = 0o01
	CmdWest    = 0o02
	CmdNorth   = 0o04
	CmdSouth   = 0o10
	CmdPenUp   = 0o20
	CmdPenDown = 0o40
)

const (
	DefaultWidth  = 3600
	DefaultHeight = 3600
	DefaultPen    = 3
)

type PlotterCtx struct {
	fileName string // Output PNG.
	width    int    // Paper width in steps.
	height   int    // Paper height in steps.
	pen      int    // Pen radius in steps.
	x, y     int    // Head position, origin southwest.
	penDown  bool
	moved    bool   // Anything plotted this session.
	paper    []byte // 3 bytes per pixel RGB, row 0 northern edge.
}

var plotterDev = PlotterCtx{
	width:  DefaultWidth,
	height: DefaultHeight,
	pen:    DefaultPen,
}

// Attach names the output image.
func (device *PlotterCtx) Attach(fileName string) error {
	device.fileName = fileName
	return nil
}

// Detach discards the paper.
func (device *PlotterCtx) Detach() error {
	device.paper = nil
	return nil
}

// SetGeometry sizes the paper and the pen. Takes effect at the next InitDev.
func (device *PlotterCtx) SetGeometry(width, height, pen int) error {
	if width < 1 || height < 1 || pen < 0 {
		return errors.New("plotter: bad geometry")
	}
	device.width = width
	device.height = height
	device.pen = pen
	return nil
}

// InitDev loads fresh paper and homes the head, pen up.
func (device *PlotterCtx) InitDev() error {
	device.paper = make([]byte, 3*device.width*device.height)
	for i := range device.paper {
		device.paper[i] = 0xff
	}
	device.x = 0
	device.y = 0
	device.penDown = false
	device.moved = false
	return nil
}

// Command applies one step or pen change, then marks the paper if the
// pen is down.
func (device *PlotterCtx) Command(bits uint32) {
	if device.paper == nil {
		if err := device.InitDev(); err != nil {
			return
		}
	}
	if bits&CmdEast != 0 && device.x < device.width-1 {
		device.x++
	}
	if bits&CmdWest != 0 && device.x > 0 {
		device.x--
	}
	if bits&CmdNorth != 0 && device.y < device.height-1 {
		device.y++
	}
	if bits&CmdSouth != 0 && device.y > 0 {
		device.y--
	}
	if bits&CmdPenUp != 0 {
		device.penDown = false
	}
	if bits&CmdPenDown != 0 {
		device.penDown = true
	}
	debug.Debugf("PLT", debug.IO, "cmd %02o head (%d,%d)", bits, device.x, device.y)
	if device.penDown {
		device.mark()
	}
}

// Blacken the pen square around the head, clipped to the paper.
func (device *PlotterCtx) mark() {
	device.moved = true
	for dy := -device.pen; dy <= device.pen; dy++ {
		py := device.y + dy
		if py < 0 || py >= device.height {
			continue
		}
		row := device.height - 1 - py
		for dx := -device.pen; dx <= device.pen; dx++ {
			px := device.x + dx
			if px < 0 || px >= device.width {
				continue
			}
			at := 3 * (row*device.width + px)
			device.paper[at] = 0
			device.paper[at+1] = 0
			device.paper[at+2] = 0
		}
	}
}

// Flush writes the paper out as an 8 bit RGB PNG.
func (device *PlotterCtx) Flush() error {
	if device.paper == nil || !device.moved || device.fileName == "" {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, device.width, device.height))
	for p := 0; p < device.width*device.height; p++ {
		img.SetNRGBA(p%device.width, p/device.width, color.NRGBA{
			R: device.paper[3*p],
			G: device.paper[3*p+1],
			B: device.paper[3*p+2],
			A: 0xff,
		})
	}
	file, err := os.Create(device.fileName)
	if err != nil {
		return fmt.Errorf("plotter: unable to create %s: %w", device.fileName, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("plotter: encoding %s: %w", device.fileName, err)
	}
	return file.Close()
}

// Shutdown writes the image out if anything was plotted.
func (device *PlotterCtx) Shutdown() {
	if err := device.Flush(); err != nil {
		debug.Debugf("PLT", debug.General, "%v", err)
	}
	device.paper = nil
}

// Show describes the plotter for the operator.
func (device *PlotterCtx) Show() string {
	pen := "up"
	if device.penDown {
		pen = "down"
	}
	return fmt.Sprintf("PLT %s, %dx%d pen %d, head (%d,%d) pen %s",
		device.fileName, device.width, device.height, device.pen, device.x, device.y, pen)
}

// register the device on initialize.
func init() {
	config.RegisterModel("PLOTTER", create)
	sysio.SetPlotter(&plotterDev)
}

func create(fileName string, options []config.Option) error {
	if fileName != "" {
		if err := plotterDev.Attach(fileName); err != nil {
			return err
		}
	}
	width, height, pen := plotterDev.width, plotterDev.height, plotterDev.pen
	for _, option := range options {
		value, err := strconv.Atoi(option.EqualOpt)
		if err != nil {
			return fmt.Errorf("plotter option %s: %w", option.Name, err)
		}
		switch option.Name {
		case "WIDTH":
			width = value
		case "HEIGHT":
			height = value
		case "PEN":
			pen = value
		case "FILE":
			return errors.New("plotter file is the bare value, not an option")
		default:
			return errors.New("plotter invalid option " + option.Name)
		}
	}
	return plotterDev.SetGeometry(width, height, pen)
}
