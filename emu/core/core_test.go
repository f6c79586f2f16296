/*
   E903 session manager tests.

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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	config "github.com/rcornwell/E903/config/configparser"
	cpu "github.com/rcornwell/E903/emu/cpu"
	dis "github.com/rcornwell/E903/emu/disassemble"
	mem "github.com/rcornwell/E903/emu/store"
	"github.com/rcornwell/E903/util/debug"

	_ "github.com/rcornwell/E903/emu/models"
)

// A fresh session against an empty scratch directory.
func testSession(t *testing.T, jump uint32) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	session := &Session{
		StorePath: filepath.Join(dir, "test.store"),
		StopPath:  filepath.Join(dir, "test.stop"),
		Jump:      jump,
		TraceAddr: -1,
		Watch:     -1,
	}
	if err := config.Set("READER", filepath.Join(dir, "test.reader"), nil); err != nil {
		t.Fatalf("Unable to set reader: %v", err)
	}
	if err := config.Set("SAVE", filepath.Join(dir, "test.save"), nil); err != nil {
		t.Fatalf("Unable to set save: %v", err)
	}
	if err := config.Set("PUNCH", filepath.Join(dir, "test.punch"), nil); err != nil {
		t.Fatalf("Unable to set punch: %v", err)
	}
	if err := session.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	return session, dir
}

// An instruction that jumps to itself is a dynamic stop: exit 0 with the
// address recorded in the stop file.
func TestDynamicStop(t *testing.T) {
	session, _ := testSession(t, 100)
	mem.Set(100, dis.Encode(false, 8, 100))

	code := session.Run()
	if code != ExitDynStop {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitDynStop)
	}
	if cpu.InstrCount() < 1 {
		t.Errorf("No instructions counted")
	}

	stop, err := os.ReadFile(session.StopPath)
	if err != nil {
		t.Fatalf("Unable to read stop file: %v", err)
	}
	if strings.TrimSpace(string(stop)) != "100" {
		t.Errorf("Stop address not correct got: %q expected: %q", stop, "100")
	}

	// The store image must exist and parse back.
	if err := mem.LoadImage(session.StorePath); err != nil {
		t.Fatalf("Persisted store did not load: %v", err)
	}
	if mem.Get(100) != dis.Encode(false, 8, 100) {
		t.Errorf("Persisted store not correct got: %o", mem.Get(100))
	}
}

// The initial instructions unpack a tape into store and stop the reader
// when it runs out. Each stored word is four tape characters, the first
// carrying the marker bit that ends the gathering loop.
func TestBootstrap(t *testing.T) {
	session, dir := testSession(t, 8181)
	tape := []byte{0o10, 0, 0, 1, 0o10, 0, 0, 2}
	if err := os.WriteFile(filepath.Join(dir, "test.reader"), tape, 0o644); err != nil {
		t.Fatalf("Unable to write tape: %v", err)
	}

	code := session.Run()
	if code != ExitReader {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitReader)
	}
	if mem.Get(8177) != 1 {
		t.Errorf("First word not correct got: %o expected: %o", mem.Get(8177), 1)
	}
	if mem.Get(8178) != 2 {
		t.Errorf("Second word not correct got: %o expected: %o", mem.Get(8178), 2)
	}

	// Both words were consumed, so nothing residual was spilled.
	if _, err := os.Stat(filepath.Join(dir, "test.save")); err == nil {
		data, _ := os.ReadFile(filepath.Join(dir, "test.save"))
		if len(data) != 0 {
			t.Errorf("Residual tape not correct got: %d bytes expected: none", len(data))
		}
	}
}

// A one character punch program: load A, punch, dynamic stop.
func TestPunchRoundTrip(t *testing.T) {
	session, dir := testSession(t, 10)
	mem.Set(50, 0o101)
	mem.Set(10, dis.Encode(false, 4, 50))
	mem.Set(11, dis.Encode(false, 15, 6144))
	mem.Set(12, dis.Encode(false, 8, 12))

	code := session.Run()
	if code != ExitDynStop {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitDynStop)
	}
	data, err := os.ReadFile(filepath.Join(dir, "test.punch"))
	if err != nil {
		t.Fatalf("Unable to read punch output: %v", err)
	}
	if string(data) != "A" {
		t.Errorf("Punch output not correct got: %q expected: %q", data, "A")
	}
	stop, err := os.ReadFile(session.StopPath)
	if err != nil {
		t.Fatalf("Unable to read stop file: %v", err)
	}
	if strings.TrimSpace(string(stop)) != "12" {
		t.Errorf("Stop address not correct got: %q expected: %q", stop, "12")
	}
}

// The abandonment limit ends a looping program with the limit code.
func TestAbandon(t *testing.T) {
	session, _ := testSession(t, 10)
	session.Abandon = 100
	mem.Set(10, dis.Encode(false, 8, 11))
	mem.Set(11, dis.Encode(false, 8, 10))

	code := session.Run()
	if code != ExitLimit {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitLimit)
	}
	if cpu.InstrCount() != 100 {
		t.Errorf("Instruction count not correct got: %d expected: %d", cpu.InstrCount(), 100)
	}
}

// An r-trace window runs exactly 1000 instructions past its trigger and
// then abandons.
func TestRTraceWindow(t *testing.T) {
	debug.SetOutput(io.Discard)
	defer debug.SetOutput(os.Stderr)

	session, _ := testSession(t, 10)
	session.RTrace = 10
	mem.Set(10, dis.Encode(false, 8, 11))
	mem.Set(11, dis.Encode(false, 8, 10))

	code := session.Run()
	if code != ExitLimit {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitLimit)
	}
	if cpu.InstrCount() != 10+1000 {
		t.Errorf("Instruction count not correct got: %d expected: %d", cpu.InstrCount(), 1010)
	}
}

// A fault ends the session with code 1 and without writing the store.
func TestFatalNoPersist(t *testing.T) {
	session, _ := testSession(t, 10)
	mem.Set(10, dis.Encode(false, 14, 3000)) // unsupported shift

	code := session.Run()
	if code != ExitFatal {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitFatal)
	}
	if _, err := os.Stat(session.StorePath); err == nil {
		t.Errorf("Fatal exit wrote the store back")
	}
}

// A monitored address change is reported and arms a one shot trace.
func TestWatch(t *testing.T) {
	var captured bytes.Buffer
	debug.SetOutput(&captured)
	defer debug.SetOutput(os.Stderr)

	session, _ := testSession(t, 10)
	session.Watch = 60
	mem.Set(50, 0o123)
	mem.Set(10, dis.Encode(false, 4, 50))
	mem.Set(11, dis.Encode(false, 5, 60))
	mem.Set(12, dis.Encode(false, 8, 12))

	code := session.Run()
	if code != ExitDynStop {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitDynStop)
	}
	out := captured.String()
	if !strings.Contains(out, "WATCH: 60 changed 000000 -> 000123") {
		t.Errorf("Watch change not reported got: %q", out)
	}
	// The one shot trace covers the following instruction.
	if !strings.Contains(out, "8 12") {
		t.Errorf("One shot trace missing got: %q", out)
	}
}

// Residual reader tape is spilled to the save file on an orderly stop.
func TestResidualSpill(t *testing.T) {
	session, dir := testSession(t, 10)
	tape := []byte{0o101, 0o102, 0o103, 0o104, 0o105}
	if err := os.WriteFile(filepath.Join(dir, "test.reader"), tape, 0o644); err != nil {
		t.Fatalf("Unable to write tape: %v", err)
	}
	mem.Set(10, dis.Encode(false, 15, 2048))
	mem.Set(11, dis.Encode(false, 15, 2048))
	mem.Set(12, dis.Encode(false, 8, 12))

	code := session.Run()
	if code != ExitDynStop {
		t.Fatalf("Exit code not correct got: %d expected: %d", code, ExitDynStop)
	}
	data, err := os.ReadFile(filepath.Join(dir, "test.save"))
	if err != nil {
		t.Fatalf("Unable to read save file: %v", err)
	}
	if !bytes.Equal(data, tape[2:]) {
		t.Errorf("Residual tape not correct got: %v expected: %v", data, tape[2:])
	}
}
