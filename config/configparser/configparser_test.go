/*
 * E903 - Configuration file parser
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

package configparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	value   string
	options []Option
	calls   int
}

func register(t *testing.T, name string) *captured {
	t.Helper()
	result := &captured{}
	RegisterModel(name, func(value string, options []Option) error {
		result.value = value
		result.options = options
		result.calls++
		return nil
	})
	return result
}

func load(t *testing.T, text string) error {
	t.Helper()
	name := filepath.Join(t.TempDir(), "test.cfg")
	require.NoError(t, os.WriteFile(name, []byte(text), 0o644))
	return LoadConfigFile(name)
}

func TestParseValue(t *testing.T) {
	result := register(t, "TESTDEV")
	err := load(t, "# a comment\n\ntestdev tapes/prog.bin # trailing comment\n")
	require.NoError(t, err)
	assert.Equal(t, 1, result.calls)
	assert.Equal(t, "tapes/prog.bin", result.value)
	assert.Empty(t, result.options)
}

func TestParseOptions(t *testing.T) {
	result := register(t, "TESTPLT")
	err := load(t, "testplt out.png width=100 height=200 pen=2\n")
	require.NoError(t, err)
	assert.Equal(t, "out.png", result.value)
	require.Len(t, result.options, 3)
	assert.Equal(t, Option{Name: "WIDTH", EqualOpt: "100"}, result.options[0])
	assert.Equal(t, Option{Name: "HEIGHT", EqualOpt: "200"}, result.options[1])
	assert.Equal(t, Option{Name: "PEN", EqualOpt: "2"}, result.options[2])
}

func TestUnknownModel(t *testing.T) {
	err := load(t, "nosuchdevice file\n")
	assert.Error(t, err)
}

func TestTwoValues(t *testing.T) {
	register(t, "TESTTWO")
	err := load(t, "testtwo one two\n")
	assert.Error(t, err)
}

func TestMalformedOption(t *testing.T) {
	register(t, "TESTBAD")
	err := load(t, "testbad file width=\n")
	assert.Error(t, err)
}

func TestMissingNewlineAtEnd(t *testing.T) {
	result := register(t, "TESTEOF")
	err := load(t, "testeof file.bin")
	require.NoError(t, err)
	assert.Equal(t, "file.bin", result.value)
}

func TestSet(t *testing.T) {
	result := register(t, "TESTSET")
	require.NoError(t, Set("testset", "direct", []Option{{Name: "PEN", EqualOpt: "1"}}))
	assert.Equal(t, "direct", result.value)
	require.Len(t, result.options, 1)
	assert.Error(t, Set("neverregistered", "x", nil))
}
