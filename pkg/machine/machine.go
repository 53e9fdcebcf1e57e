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

package machine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"lc3vm/internal/diag"
	"lc3vm/pkg/encoding"
)

var log = diag.For(diag.ModCore)

// Reset returns the machine to its power-on state: all registers and
// memory zeroed, PC at UserSpaceStart, COND zero, run state Step.
func (m *Machine) Reset() {
	m.State = MachineState{PC: UserSpaceStart, Cond: FLAG_ZERO}
	m.SetRunState(Step)
}

// RunState reports the machine's current lifecycle state.
func (m *Machine) RunState() RunState {
	return RunState(atomic.LoadInt32(&m.runState))
}

// SetRunState unconditionally sets the machine's lifecycle state.
func (m *Machine) SetRunState(s RunState) {
	atomic.StoreInt32(&m.runState, int32(s))
}

// Interrupt steps the machine's run state down one level: Turbo to Step,
// Step to Off. Already-Off is left alone. It is safe to call from a signal
// handler goroutine concurrently with Fetch/Execute, matching
// original_source/main.c's handle_interrupt, which the reference C
// implementation installs as a SIGINT handler to drop a running program
// into single-step mode (and, on a second interrupt, stop it) rather than
// killing it outright.
func (m *Machine) Interrupt() {
	for {
		cur := RunState(atomic.LoadInt32(&m.runState))

		var next RunState
		switch cur {
		case Turbo:
			next = Step
		case Step:
			next = Off
		default:
			return
		}

		if atomic.CompareAndSwapInt32(&m.runState, int32(cur), int32(next)) {
			if next == Step && m.Devices.Stdout != nil {
				fmt.Fprintln(m.Devices.Stdout, "\n-- interrupt: entering single-step mode --")
			}
			return
		}
	}
}

// Read loads one word from memory, applying the keyboard status/data
// register side effect documented in spec.md section 4.2: reading KBSR
// polls the keyboard and, when a byte is ready, buffers it so the
// immediately following KBDR read returns it.
func (m *Machine) Read(addr uint16) uint16 {
	if addr == DEV_KBSR {
		if m.Devices.Keyboard != nil && m.Devices.Keyboard.KeyPending() {
			m.State.Memory[DEV_KBSR] = 1 << 15
			if m.Devices.Stdin != nil {
				if b, err := m.Devices.Stdin.ReadByte(); err == nil {
					m.State.Memory[DEV_KBDR] = uint16(b)
				}
			}
		} else {
			m.State.Memory[DEV_KBSR] = 0
		}
	}

	return m.State.Memory[addr]
}

// Write stores one word to memory. There are no writable memory-mapped
// device registers in this machine's I/O model, so this is a plain store.
func (m *Machine) Write(addr, value uint16) {
	m.State.Memory[addr] = value
}

func (m *Machine) setFlags(r uint16) {
	switch {
	case m.State.Registers[r] == 0:
		m.State.Cond = FLAG_ZERO
	case m.State.Registers[r]>>15 == 1:
		m.State.Cond = FLAG_NEG
	default:
		m.State.Cond = FLAG_POS
	}
}

// Fetch reads the instruction at PC and advances PC, returning the raw
// instruction word. It does not execute the instruction; callers (the
// run loop in cmd/lc3vm) separate fetch from execute so the debugger can
// inspect the about-to-execute instruction and the pre-increment PC
// before any state changes.
func (m *Machine) Fetch() (pc, instr uint16) {
	pc = m.State.PC
	instr = m.Read(pc)
	m.State.PC++
	return pc, instr
}

// Execute performs the effect of one fetched instruction. It never
// advances PC itself: PC-relative instructions (LD, ST, LDI, STI, LEA)
// read the already-incremented PC, and only the control-flow instructions
// (BR, JMP, JSR/JSRR) write it. RTI and RES halt the machine: this
// machine has no supervisor mode, so both opcodes are illegal.
func (m *Machine) Execute(instr uint16) error {
	op := instr >> 12

	switch op {
	case OP_BR:
		nzp := (instr >> 9) & 0b111
		pcoffset9 := encoding.SignExtend(instr&0x1FF, 9)
		if nzp&m.State.Cond != 0 {
			m.State.PC += pcoffset9
		}

	case OP_ADD:
		dr := (instr >> 9) & 0b111
		sr1 := (instr >> 6) & 0b111
		if instr&0x20 != 0 {
			imm5 := encoding.SignExtend(instr&0x1F, 5)
			m.State.Registers[dr] = m.State.Registers[sr1] + imm5
		} else {
			sr2 := instr & 0b111
			m.State.Registers[dr] = m.State.Registers[sr1] + m.State.Registers[sr2]
		}
		m.setFlags(dr)

	case OP_LD:
		dr := (instr >> 9) & 0b111
		pcoffset9 := encoding.SignExtend(instr&0x1FF, 9)
		m.State.Registers[dr] = m.Read(m.State.PC + pcoffset9)
		m.setFlags(dr)

	case OP_ST:
		sr := (instr >> 9) & 0b111
		pcoffset9 := encoding.SignExtend(instr&0x1FF, 9)
		m.Write(m.State.PC+pcoffset9, m.State.Registers[sr])

	case OP_JSR:
		m.State.Registers[7] = m.State.PC
		if instr&0x800 != 0 {
			pcoffset11 := encoding.SignExtend(instr&0x7FF, 11)
			m.State.PC += pcoffset11
		} else {
			baser := (instr >> 6) & 0b111
			m.State.PC = m.State.Registers[baser]
		}

	case OP_AND:
		dr := (instr >> 9) & 0b111
		sr1 := (instr >> 6) & 0b111
		if instr&0x20 != 0 {
			imm5 := encoding.SignExtend(instr&0x1F, 5)
			m.State.Registers[dr] = m.State.Registers[sr1] & imm5
		} else {
			sr2 := instr & 0b111
			m.State.Registers[dr] = m.State.Registers[sr1] & m.State.Registers[sr2]
		}
		m.setFlags(dr)

	case OP_LDR:
		dr := (instr >> 9) & 0b111
		baser := (instr >> 6) & 0b111
		offset6 := encoding.SignExtend(instr&0x3F, 6)
		m.State.Registers[dr] = m.Read(m.State.Registers[baser] + offset6)
		m.setFlags(dr)

	case OP_STR:
		sr := (instr >> 9) & 0b111
		baser := (instr >> 6) & 0b111
		offset6 := encoding.SignExtend(instr&0x3F, 6)
		m.Write(m.State.Registers[baser]+offset6, m.State.Registers[sr])

	case OP_NOT:
		dr := (instr >> 9) & 0b111
		sr := (instr >> 6) & 0b111
		m.State.Registers[dr] = ^m.State.Registers[sr]
		m.setFlags(dr)

	case OP_LDI:
		dr := (instr >> 9) & 0b111
		pcoffset9 := encoding.SignExtend(instr&0x1FF, 9)
		m.State.Registers[dr] = m.Read(m.Read(m.State.PC + pcoffset9))
		m.setFlags(dr)

	case OP_STI:
		sr := (instr >> 9) & 0b111
		pcoffset9 := encoding.SignExtend(instr&0x1FF, 9)
		m.Write(m.Read(m.State.PC+pcoffset9), m.State.Registers[sr])

	case OP_JMP:
		baser := (instr >> 6) & 0b111
		m.State.PC = m.State.Registers[baser]

	case OP_LEA:
		dr := (instr >> 9) & 0b111
		pcoffset9 := encoding.SignExtend(instr&0x1FF, 9)
		m.State.Registers[dr] = m.State.PC + pcoffset9
		if m.LEAUpdatesFlags {
			m.setFlags(dr)
		}

	case OP_TRAP:
		return m.trap(instr & 0xFF)

	case OP_RTI, OP_RES:
		m.SetRunState(Off)
		return fmt.Errorf("illegal opcode %#04b at pc %#04x", op, m.State.PC-1)

	default:
		m.SetRunState(Off)
		return fmt.Errorf("unknown opcode %#04b at pc %#04x", op, m.State.PC-1)
	}

	return nil
}

func (m *Machine) trap(vector uint16) error {
	switch vector {
	case TRAP_GETC:
		if m.Devices.Stdin != nil {
			if b, err := m.Devices.Stdin.ReadByte(); err == nil {
				m.State.Registers[0] = uint16(b)
				m.setFlags(0)
			}
		}

	case TRAP_OUT:
		if m.Devices.Stdout != nil {
			fmt.Fprintf(m.Devices.Stdout, "%c", rune(m.State.Registers[0]))
		}

	case TRAP_PUTS:
		if m.Devices.Stdout != nil {
			for addr := m.State.Registers[0]; m.State.Memory[addr] != 0; addr++ {
				fmt.Fprintf(m.Devices.Stdout, "%c", rune(m.State.Memory[addr]))
				if addr == 0xFFFF {
					break
				}
			}
		}

	case TRAP_IN:
		if m.Devices.Stdout != nil {
			fmt.Fprint(m.Devices.Stdout, "Enter a character: ")
		}
		if m.Devices.Stdin != nil {
			if b, err := m.Devices.Stdin.ReadByte(); err == nil {
				m.State.Registers[0] = uint16(b)
				m.setFlags(0)
				if m.Devices.Stdout != nil {
					fmt.Fprintf(m.Devices.Stdout, "%c", rune(b))
				}
			}
		}

	case TRAP_PUTSP:
		if m.Devices.Stdout != nil {
			for addr := m.State.Registers[0]; m.State.Memory[addr] != 0; addr++ {
				word := m.State.Memory[addr]
				lo := rune(word & 0xFF)
				hi := rune(word >> 8)
				fmt.Fprintf(m.Devices.Stdout, "%c", lo)
				if hi != 0 {
					fmt.Fprintf(m.Devices.Stdout, "%c", hi)
				}
				if addr == 0xFFFF {
					break
				}
			}
		}

	case TRAP_HALT:
		if m.Devices.Stdout != nil {
			fmt.Fprintln(m.Devices.Stdout, "\nHALT")
		}
		m.SetRunState(Off)

	default:
		log.Warnf("invalid trap vector %#02x", vector)
	}

	return nil
}

// LoadImage reads an LC-3 object file: a big-endian origin word followed
// by big-endian program words, loaded starting at that origin. This is
// the classic LC-3 tools image format, distinct from the raw,
// origin-less binary format this package's teacher used.
func (m *Machine) LoadImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	origin, err := readWord(r)
	if err != nil {
		return fmt.Errorf("read origin: %w", err)
	}

	addr := origin
	for {
		word, err := readWord(r)
		if err != nil {
			break
		}
		m.State.Memory[addr] = word
		if addr == 0xFFFF {
			break
		}
		addr++
	}

	// When multiple images are loaded in sequence (spec.md section 8,
	// scenario 5), the last one's origin wins here too; callers loading
	// more than one image at different origins should reset PC to the
	// entry point themselves after the final LoadImage call.
	m.State.PC = origin
	return nil
}

// readWord reads one big-endian word. LC-3 object files are big-endian on
// disk: raw combines the two bytes low-byte-first, and encoding.SwapEndian
// then moves the first byte on disk into the high byte, per spec.md
// section 4.1's "used only during image load".
func readWord(r *bufio.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	raw := uint16(buf[0]) | uint16(buf[1])<<8
	return encoding.SwapEndian(raw), nil
}
