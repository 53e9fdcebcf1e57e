// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command lc3vm loads one or more LC-3 object images and runs them,
// dropping into an interactive single-step debugger whenever the run
// state is Step and re-entering it on a console interrupt.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"lc3vm/internal/diag"
	"lc3vm/pkg/console"
	"lc3vm/pkg/debugger"
	"lc3vm/pkg/machine"
	"lc3vm/pkg/rawterm"
	"lc3vm/pkg/replline"
)

var log = diag.For(diag.ModCore)

type cli struct {
	Images []string `arg:"" name:"image" help:"LC-3 object image(s) to load."`
}

var kongVars = kong.Vars{
	"description": "Loads one or more LC-3 object images and runs them under an interactive single-step debugger.",
}

func parseArgs(args []string) (cli, error) {
	var cfg cli

	parser, err := kong.New(&cfg,
		kong.Name("lc3vm"),
		kong.Description(kongVars["description"]),
		kongVars,
	)
	if err != nil {
		return cfg, fmt.Errorf("build argument parser: %w", err)
	}

	if _, err := parser.Parse(args); err != nil {
		return cfg, err
	}

	if len(cfg.Images) == 0 {
		return cfg, fmt.Errorf("usage: lc3vm <image> [<image> ...]")
	}

	return cfg, nil
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	mc := &machine.Machine{LEAUpdatesFlags: true}
	mc.Reset()
	mc.Devices.Stdout = os.Stdout
	mc.Devices.Keyboard = console.NewStdinProber()
	mc.Devices.Stdin = bufio.NewReader(os.Stdin)

	for _, path := range cfg.Images {
		if err := mc.LoadImage(path); err != nil {
			fmt.Fprintf(os.Stderr, "lc3vm: failed to load %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	term := rawterm.Stdin()
	if err := term.Enter(); err != nil {
		fmt.Fprintf(os.Stderr, "lc3vm: %v\n", err)
		os.Exit(71)
	}
	defer term.Restore()

	editor := replline.New(os.Stdin, os.Stdout)
	if err := editor.SetHistoryLimit(1024); err != nil {
		fmt.Fprintf(os.Stderr, "lc3vm: %v\n", err)
		term.Restore()
		os.Exit(71)
	}

	repl := &debugger.REPL{Editor: editor, Out: os.Stdout}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT)
	go func() {
		for range sigint {
			mc.Interrupt()
		}
	}()

	run(mc, repl, term)

	term.Restore()
}

// run drives the fetch/decode/execute loop until the machine's run state
// becomes Off. Before each fetch in Step mode, it restores canonical
// terminal mode for the debugger's line editor and puts the terminal
// back into raw mode afterward, per the resource-handoff rule: the line
// editor owns the terminal while it runs, the fetch loop owns it the
// rest of the time.
func run(mc *machine.Machine, repl *debugger.REPL, term *rawterm.Terminal) {
	for mc.RunState() != machine.Off {
		stepping := mc.RunState() == machine.Step

		if stepping {
			if err := term.Restore(); err != nil {
				log.Warnf("restore terminal for debugger: %v", err)
			}
		}

		pc, instr := mc.Fetch()

		if stepping {
			repl.Run(mc, pc, instr)
			if err := term.Enter(); err != nil {
				log.Warnf("re-enter raw terminal: %v", err)
			}
			if mc.RunState() == machine.Off {
				return
			}
		}

		if err := mc.Execute(instr); err != nil {
			log.Errorf("%v", err)
			return
		}

		if stepping {
			debugger.Trace(os.Stdout, pc, instr, mc)
		}
	}
}
