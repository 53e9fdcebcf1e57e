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
	"io"

	"lc3vm/pkg/console"
)

// RunState is the machine's three-state lifecycle: Off is terminal, Step
// runs the debugger before every fetch, Turbo runs at full speed.
type RunState int32

const (
	Off RunState = iota
	Step
	Turbo
)

func (s RunState) String() string {
	switch s {
	case Off:
		return "off"
	case Step:
		return "step"
	case Turbo:
		return "turbo"
	default:
		return "unknown"
	}
}

// MachineState is the register file plus the whole address space.
// Invariant: len(Memory) is always exactly 1<<16.
type MachineState struct {
	Registers [8]uint16
	PC        uint16
	Cond      uint16
	Memory    [1 << 16]uint16
}

// Devices bundles the machine's I/O collaborators. Keyboard is required for
// the KBSR/KBDR memory-mapped hook to do anything; a nil Keyboard makes KBSR
// always read as "not ready", which is enough to run headless in tests.
type Devices struct {
	Keyboard console.Prober
	Stdin    *bufio.Reader
	Stdout   io.Writer
}

// Machine owns one LC-3's entire state: memory, registers, run state, and
// its I/O collaborators. Passing it by pointer rather than through package
// globals keeps multiple independent VMs runnable side by side, e.g. in
// tests.
type Machine struct {
	State   MachineState
	Devices Devices

	// LEAUpdatesFlags selects between this spec's LEA (updates COND, the
	// reference behavior spec.md documents) and the post-2009 LC-3 ISA
	// revision, which does not.
	LEAUpdatesFlags bool

	runState int32
}
