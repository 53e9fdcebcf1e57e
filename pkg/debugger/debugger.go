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

// Package debugger implements the single-step command loop: entered
// before every instruction fetch while the machine is in step mode, it
// reads operator commands through a LineEditor and dispatches on the
// first letter.
package debugger

import (
	"fmt"
	"io"
	"strings"

	"lc3vm/internal/diag"
	"lc3vm/pkg/encoding"
	"lc3vm/pkg/machine"
)

var log = diag.For(diag.ModDebugger)

const prompt = "(lc3vm) "

const helpText = `commands (first letter matches):
  help, h      show this page
  continue, c  resume at full speed
  step, s      execute one instruction
  reg, r       print R0..R7, PC, COND
  memory, m    display N words of memory from address A (m A N, A in 0xNNNN form)
`

// REPL is the debugger's command loop. Out receives the fetch banner,
// register dumps, and other operator-facing text; it is typically the
// same writer the machine's TRAP handlers write program output to, so
// debugger chatter and program output interleave the way a single
// terminal session would show them.
type REPL struct {
	Editor LineEditor
	Out    io.Writer
}

// Run prints the fetch banner for the instruction at pc and loops reading
// commands until the operator asks to step or continue, or the line
// editor reports EOF. It mutates mc's run state directly: "step" leaves
// it at Step (the caller's loop will re-enter Run before the next
// fetch), "continue" sets it to Turbo, and EOF sets it to Off.
func (r *REPL) Run(mc *machine.Machine, pc, instr uint16) {
	fmt.Fprintf(r.Out, "[%#04x] %#04x\n", pc, instr)

	for {
		line, ok := r.Editor.ReadLine(prompt)
		if !ok {
			fmt.Fprintln(r.Out, "quit")
			mc.SetRunState(machine.Off)
			return
		}

		if line == "" {
			continue
		}

		switch line[0] {
		case 'h':
			fmt.Fprint(r.Out, helpText)
		case 'c':
			mc.SetRunState(machine.Turbo)
			return
		case 's':
			return
		case 'r':
			printRegisters(r.Out, mc)
		case 'm':
			printMemory(r.Out, mc, line)
		default:
			fmt.Fprintf(r.Out, "unrecognized command: %q\n", line)
		}
	}
}

// printMemory implements the "m" command: "m A N" dumps N words of
// memory starting at address A. A is parsed with encoding.DecodeHex
// (0x3000, x3000, 0x30) and N with encoding.DecodeInt (8, #8); N
// defaults to 8 when omitted.
func printMemory(out io.Writer, mc *machine.Machine, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		fmt.Fprintln(out, "usage: m <address> [<count>]")
		return
	}

	addr, err := encoding.DecodeHex(fields[1])
	if err != nil {
		fmt.Fprintf(out, "m: invalid address %q: %v\n", fields[1], err)
		return
	}

	count := int16(8)
	if len(fields) >= 3 {
		count, err = encoding.DecodeInt(fields[2])
		if err != nil {
			fmt.Fprintf(out, "m: invalid count %q: %v\n", fields[2], err)
			return
		}
	}

	for i := int16(0); i < count; i++ {
		fmt.Fprintf(out, "[%#04x] %#04x\n", addr, mc.State.Memory[addr])
		if addr == 0xFFFF {
			break
		}
		addr++
	}
}

func printRegisters(out io.Writer, mc *machine.Machine) {
	for i, v := range mc.State.Registers {
		fmt.Fprintf(out, "R%d: %#04x\n", i, v)
	}
	fmt.Fprintf(out, "PC: %#04x\n", mc.State.PC)
	fmt.Fprintf(out, "COND: %#04x\n", mc.State.Cond)
}

// Trace emits the one-line, implementation-defined trace the reference
// debugger prints after every instruction step: the opcode, the source
// registers of ADD/AND/NOT/LDR and the stored register of ST/STI/STR,
// and (for instructions with a destination register) that register and
// the value it ended up with. Instructions without a destination register
// are shown with their raw instruction word.
func Trace(out io.Writer, pc, instr uint16, mc *machine.Machine) {
	op := instr >> 12
	name, hasDR := mnemonic(op)

	var srcs string
	switch op {
	case machine.OP_ADD, machine.OP_AND:
		srcs = fmt.Sprintf(" from R%d", (instr>>6)&0b111)
		if instr&0x20 == 0 {
			srcs += fmt.Sprintf(", R%d", instr&0b111)
		}
	case machine.OP_NOT, machine.OP_LDR:
		srcs = fmt.Sprintf(" from R%d", (instr>>6)&0b111)
	case machine.OP_ST, machine.OP_STI, machine.OP_STR:
		srcs = fmt.Sprintf(" from R%d", (instr>>9)&0b111)
	}

	if !hasDR {
		fmt.Fprintf(out, "[%#04x] %-5s %#06b%s\n", pc, name, instr, srcs)
		return
	}

	dr := (instr >> 9) & 0b111
	fmt.Fprintf(out, "[%#04x] %-5s R%d <- %#04x%s\n", pc, name, dr, mc.State.Registers[dr], srcs)
}

func mnemonic(op uint16) (name string, hasDR bool) {
	switch op {
	case machine.OP_ADD:
		return "ADD", true
	case machine.OP_AND:
		return "AND", true
	case machine.OP_NOT:
		return "NOT", true
	case machine.OP_LD:
		return "LD", true
	case machine.OP_LDI:
		return "LDI", true
	case machine.OP_LDR:
		return "LDR", true
	case machine.OP_LEA:
		return "LEA", true
	case machine.OP_BR:
		return "BR", false
	case machine.OP_JMP:
		return "JMP", false
	case machine.OP_JSR:
		return "JSR", false
	case machine.OP_ST:
		return "ST", false
	case machine.OP_STI:
		return "STI", false
	case machine.OP_STR:
		return "STR", false
	case machine.OP_TRAP:
		return "TRAP", false
	default:
		log.Warnf("trace: no mnemonic for opcode %#04b", op)
		return "???", false
	}
}
