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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <model> [<value>] *(<option>)
 * <model> := <string>
 * <value> ::= <string>
 * <option> ::= <string> '=' <string>
 *
 * A model is a registered device or setting name (READER, PUNCH, TTYIN,
 * PLOTTER, STORE, SAVE, STOP, LOGFILE, ...). The bare value is usually a
 * file name; key=value options carry device parameters.
 */

// One key=value option following the model value.
type Option struct {
	Name     string // Name of option.
	EqualOpt string // Value of string after =.
}

// Model creation list.
type modelDef struct {
	create func(value string, options []Option) error
}

var models = map[string]modelDef{}

var lineNumber int

// RegisterModel should be called from init functions.
func RegisterModel(mod string, fn func(string, []Option) error) {
	mod = strings.ToUpper(mod)
	models[mod] = modelDef{create: fn}
}

// Set applies a model line programmatically, as the command line
// options do when they override the configuration file.
func Set(mod string, value string, options []Option) error {
	return createModel(mod, value, options)
}

// Create a device of type model.
func createModel(mod string, value string, options []Option) error {
	model, ok := models[strings.ToUpper(mod)]
	if !ok {
		return fmt.Errorf("unknown model %s, line %d", mod, lineNumber)
	}
	return model.create(value, options)
}

// Load in a configuration file.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		lineNumber++
		if len(line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if parseErr := parseLine(line); parseErr != nil {
			return parseErr
		}
		if err != nil {
			break
		}
	}
	return nil
}

// Parse one line from file.
func parseLine(line string) error {
	if at := strings.IndexByte(line, '#'); at >= 0 {
		line = line[:at]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	model := fields[0]
	value := ""
	options := []Option{}
	for _, field := range fields[1:] {
		name, equalOpt, found := strings.Cut(field, "=")
		if !found {
			if value != "" {
				return fmt.Errorf("%s given two values, line %d", model, lineNumber)
			}
			value = name
			continue
		}
		if name == "" || equalOpt == "" {
			return fmt.Errorf("malformed option %s, line %d", field, lineNumber)
		}
		options = append(options, Option{Name: strings.ToUpper(name), EqualOpt: equalOpt})
	}
	return createModel(model, value, options)
}
