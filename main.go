/*
 * E903 - Main process.
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

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	getopt "github.com/pborman/getopt/v2"

	monitor "github.com/rcornwell/E903/command/monitor"
	config "github.com/rcornwell/E903/config/configparser"
	core "github.com/rcornwell/E903/emu/core"
	cpu "github.com/rcornwell/E903/emu/cpu"
	dis "github.com/rcornwell/E903/emu/disassemble"
	"github.com/rcornwell/E903/util/debug"
	logger "github.com/rcornwell/E903/util/logger"

	_ "github.com/rcornwell/E903/emu/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	optReader := getopt.StringLong("reader", 'r', ".reader", "Paper tape reader input")
	optPunch := getopt.StringLong("punch", 'p', ".punch", "Paper tape punch output")
	optTTYIn := getopt.StringLong("ttyin", 't', ".ttyin", "Teletype input")
	optPlot := getopt.StringLong("plot", 'o', ".plot.png", "Plotter output image")
	optStore := getopt.StringLong("store", 's', ".store", "Store image")
	optSave := getopt.StringLong("save", 'v', ".save", "Residual reader tape")
	optStop := getopt.StringLong("stop", 'S', ".stop", "Dynamic stop address file")
	optJump := getopt.StringLong("jump", 'j', "8181", "Initial jump address, m^n accepted")
	optAbandon := getopt.Uint64Long("abandon", 'a', 0, "Abandon after this many instructions")
	optTraceCount := getopt.Uint64Long("tracecount", 'T', 0, "Trace instructions past this count")
	optTraceAddr := getopt.StringLong("traceaddr", 'A', "", "Trace instructions once this address runs")
	optRTrace := getopt.Uint64Long("rtrace", 'R', 0, "Trace a 1000 instruction window from this count")
	optWatch := getopt.StringLong("watch", 'w', "", "Monitored store address")
	optDiag := getopt.IntLong("diag", 'd', 0, "Verbosity bitmask: 1 summary, 2 jumps, 4 instructions, 8 I/O")
	optWidth := getopt.IntLong("width", 'W', 3600, "Plotter paper width in steps")
	optHeight := getopt.IntLong("height", 'H', 3600, "Plotter paper height in steps")
	optPen := getopt.IntLong("pen", 'P', 3, "Plotter pen radius in steps")
	optLog := getopt.StringLong("log", 'l', "", "Log file")
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optMonitor := getopt.BoolLong("monitor", 'm', "Enter the monitor before running")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		return 0
	}

	// Settings the configuration file may name alongside the devices.
	storePath := *optStore
	stopPath := *optStop
	logPath := *optLog
	pathSetting := func(target *string, what string) func(string, []config.Option) error {
		return func(value string, options []config.Option) error {
			if value == "" || len(options) != 0 {
				return errors.New(what + " takes just a file name")
			}
			*target = value
			return nil
		}
	}
	config.RegisterModel("STORE", pathSetting(&storePath, "store"))
	config.RegisterModel("STOP", pathSetting(&stopPath, "stop"))
	config.RegisterModel("LOGFILE", pathSetting(&logPath, "logfile"))

	// Device attachments: defaults first, then the configuration file,
	// then any option given explicitly on the command line.
	applyOptions := func(onlySeen bool) error {
		settings := []struct {
			model string
			flag  string
			value *string
		}{
			{"READER", "reader", optReader},
			{"PUNCH", "punch", optPunch},
			{"TTYIN", "ttyin", optTTYIn},
			{"SAVE", "save", optSave},
			{"STORE", "store", optStore},
			{"STOP", "stop", optStop},
		}
		for _, setting := range settings {
			if onlySeen && !getopt.Lookup(setting.flag).Seen() {
				continue
			}
			if err := config.Set(setting.model, *setting.value, nil); err != nil {
				return err
			}
		}
		geometry := []config.Option{
			{Name: "WIDTH", EqualOpt: strconv.Itoa(*optWidth)},
			{Name: "HEIGHT", EqualOpt: strconv.Itoa(*optHeight)},
			{Name: "PEN", EqualOpt: strconv.Itoa(*optPen)},
		}
		if !onlySeen {
			return config.Set("PLOTTER", *optPlot, geometry)
		}
		seen := []config.Option{}
		for i, flag := range []string{"width", "height", "pen"} {
			if getopt.Lookup(flag).Seen() {
				seen = append(seen, geometry[i])
			}
		}
		plot := ""
		if getopt.Lookup("plot").Seen() {
			plot = *optPlot
		}
		if plot != "" || len(seen) != 0 {
			return config.Set("PLOTTER", plot, seen)
		}
		return nil
	}

	if err := applyOptions(false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return core.ExitFatal
	}
	if *optConfig != "" {
		if err := config.LoadConfigFile(*optConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return core.ExitFatal
		}
	}
	if err := applyOptions(true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return core.ExitFatal
	}
	if getopt.Lookup("log").Seen() {
		logPath = *optLog
	}

	// Logging and trace output.
	var logWriter io.Writer
	if logPath != "" {
		file, err := os.Create(logPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to create log file:", err)
			return core.ExitFatal
		}
		logWriter = file
		defer file.Close()
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	slog.SetDefault(slog.New(logger.NewHandler(logWriter, &slog.HandlerOptions{Level: programLevel}, false)))
	debug.SetMask(*optDiag)
	if logWriter != nil {
		debug.SetOutput(logWriter)
	}

	jump, err := dis.ParseAddr(*optJump)
	if err != nil {
		slog.Error(err.Error())
		return core.ExitFatal
	}
	traceAddr := int64(-1)
	if *optTraceAddr != "" {
		addr, err := dis.ParseAddr(*optTraceAddr)
		if err != nil {
			slog.Error(err.Error())
			return core.ExitFatal
		}
		traceAddr = int64(addr)
	}
	watch := int64(-1)
	if *optWatch != "" {
		addr, err := dis.ParseAddr(*optWatch)
		if err != nil {
			slog.Error(err.Error())
			return core.ExitFatal
		}
		watch = int64(addr)
	}

	session := &core.Session{
		StorePath:  storePath,
		StopPath:   stopPath,
		Jump:       jump,
		Abandon:    *optAbandon,
		TraceCount: *optTraceCount,
		TraceAddr:  traceAddr,
		RTrace:     *optRTrace,
		Watch:      watch,
	}
	if *optMonitor {
		session.MonitorHook = func() bool {
			return monitor.Enter(cpu.CycleCPU)
		}
	}

	if err := session.Prepare(); err != nil {
		slog.Error(err.Error())
		return core.ExitFatal
	}
	if *optMonitor && !monitor.Enter(cpu.CycleCPU) {
		return session.Finish()
	}
	return session.Run()
}
