/*
 * E903 - Paper tape utilities.
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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dis "github.com/rcornwell/E903/emu/disassemble"
	mem "github.com/rcornwell/E903/emu/store"
	"github.com/rcornwell/E903/util/telecode"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tapetool",
		Short: "Work with 900 series paper tape and store images",
	}

	var runout int
	toCmd := &cobra.Command{
		Use:   "to900text <text file> <tape file>",
		Short: "Punch host text as telecode tape",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tape, err := telecode.ToTelecode(string(text))
			if err != nil {
				return err
			}
			out := telecode.Runout(runout)
			out = append(out, tape...)
			out = append(out, telecode.Runout(runout)...)
			return os.WriteFile(args[1], out, 0o644)
		},
	}
	toCmd.Flags().IntVar(&runout, "runout", 30, "blank leader and trailer length")

	fromCmd := &cobra.Command{
		Use:   "from900text <tape file> [text file]",
		Short: "Read a telecode tape back as host text",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tape, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text, badParity := telecode.FromTelecode(tape)
			if badParity != 0 {
				fmt.Fprintf(os.Stderr, "%d characters with bad parity\n", badParity)
			}
			if len(args) == 2 {
				return os.WriteFile(args[1], []byte(text), 0o644)
			}
			fmt.Print(text)
			return nil
		},
	}

	reverseCmd := &cobra.Command{
		Use:   "reverse <tape file> <reversed file>",
		Short: "Reverse a tape image, as if the reel were flipped",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tape, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			for i, j := 0, len(tape)-1; i < j; i, j = i+1, j-1 {
				tape[i], tape[j] = tape[j], tape[i]
			}
			return os.WriteFile(args[1], tape, 0o644)
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <store image>",
		Short: "List the nonzero words of a store image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			if err := mem.LoadImage(args[0]); err != nil {
				return err
			}
			for addr := uint32(0); addr < mem.Size; addr++ {
				word := mem.Get(addr)
				if word != 0 {
					fmt.Printf("%5d: %s  %s\n", addr, dis.FormatWord(word), dis.String(word))
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(toCmd, fromCmd, reverseCmd, dumpCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
