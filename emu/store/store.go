package store

/*
 * E903  - Core store and image persistence
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
)

type coreStore struct {
	core  [Size]uint32
	valid bool
}

var store coreStore

const (
	// Size of store in 18 bit words.
	Size uint32 = 16384

	// Words per 8K module.
	ModuleSize uint32 = 8192

	WordMask uint32 = 0o777777 // 18 bit word
	SignBit  uint32 = 0o400000 // Sign of 18 bit word

	// Initial instructions occupy the top of the first module.
	// They are write protected while running at level 1.
	InitialOrders    uint32 = 8180
	InitialOrdersEnd uint32 = 8191
)

// The initial instructions. A fixed loader for self unpacking tapes,
// entered at 8181 with the B register cell at 1.
var initialOrders = [12]uint32{
	0o777775,                  // 8180: -3
	(0 << 13) | 8180,          // 8181: 0 8180
	(4 << 13) | (8189 & 8191), // 8182: 4 8189
	(15 << 13) | 2048,         // 8183: 15 2048
	(9 << 13) | (8186 & 8191), // 8184: 9 8186
	(8 << 13) | (8183 & 8191), // 8185: 8 8183
	(15 << 13) | 2048,         // 8186: 15 2048
	(1 << 17) | (5 << 13) | (8180 & 8191), // 8187: /5 8180
	(10 << 13) | 1,            // 8188: 10 1
	(4 << 13) | 1,             // 8189: 4 1
	(9 << 13) | (8182 & 8191), // 8190: 9 8182
	(8 << 13) | (8177 & 8191), // 8191: 8 8177
}

// Set every word of the store to zero.
func Clear() {
	for i := range store.core {
		store.core[i] = 0
	}
	store.valid = false
}

// Report whether the store holds a machine state worth persisting.
func Valid() bool {
	return store.valid
}

// Mark the store contents indeterminate so an exit will not write them back.
func Invalidate() {
	store.valid = false
}

// Get memory value without range check.
func Get(addr uint32) uint32 {
	return store.core[addr]
}

// Set memory to a value, without range check or protection.
func Set(addr, data uint32) {
	store.core[addr] = data & WordMask
}

// Check if address out of range.
func CheckAddr(addr uint32) bool {
	return addr < Size
}

// Get a word from the store.
func GetWord(addr uint32) (value uint32, error bool) {
	if addr >= Size {
		return 0, true
	}
	return store.core[addr], false
}

// Put a word to the store.
func PutWord(addr, data uint32) bool {
	if addr >= Size {
		return true
	}
	store.core[addr] = data & WordMask
	return false
}

// Put a word to the store on behalf of a priority level. Writes into the
// initial instructions are ignored at level 1; level 4 may overwrite them.
func PutWordLevel(addr, data uint32, level int) bool {
	if addr >= Size {
		return true
	}
	if level == 1 && addr >= InitialOrders && addr <= InitialOrdersEnd {
		return false
	}
	store.core[addr] = data & WordMask
	return false
}

// Reinstall the initial instructions at the top of the first module.
func InstallInitialOrders() {
	for i, word := range initialOrders {
		store.core[InitialOrders+uint32(i)] = word
	}
}

// Load a store image. Each word is a signed decimal integer separated by
// whitespace. A missing file leaves the store cleared. The store is marked
// valid either way so an orderly exit writes the state back.
func LoadImage(fileName string) error {
	Clear()
	file, err := os.Open(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			store.valid = true
			return nil
		}
		return fmt.Errorf("store: unable to open image %s: %w", fileName, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanWords)
	addr := uint32(0)
	for scanner.Scan() {
		if addr >= Size {
			return fmt.Errorf("store: image %s holds more than %d words", fileName, Size)
		}
		value, err := strconv.ParseInt(scanner.Text(), 10, 64)
		if err != nil {
			return fmt.Errorf("store: image %s word %d: %w", fileName, addr, err)
		}
		store.core[addr] = uint32(value) & WordMask
		addr++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("store: reading image %s: %w", fileName, err)
	}
	store.valid = true
	return nil
}

// Write the store as decimal integers, ten to a line, replacing the
// previous image only once the new one is complete.
func PersistImage(fileName string) error {
	if !store.valid {
		return errors.New("store: contents indeterminate, not persisted")
	}
	temp := fileName + ".tmp"
	file, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("store: unable to create image %s: %w", temp, err)
	}

	writer := bufio.NewWriter(file)
	for addr := uint32(0); addr < Size; addr++ {
		value := int32(store.core[addr])
		if store.core[addr]&SignBit != 0 {
			value -= int32(WordMask) + 1
		}
		fmt.Fprintf(writer, " %6d", value)
		if addr%10 == 9 {
			fmt.Fprintln(writer)
		}
	}
	fmt.Fprintln(writer)

	if err := writer.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("store: writing image %s: %w", temp, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("store: syncing image %s: %w", temp, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("store: closing image %s: %w", temp, err)
	}
	if err := os.Rename(temp, fileName); err != nil {
		return fmt.Errorf("store: replacing image %s: %w", fileName, err)
	}
	return nil
}
