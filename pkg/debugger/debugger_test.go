package debugger_test

import (
	"bytes"
	"testing"

	"lc3vm/pkg/debugger"
	"lc3vm/pkg/machine"
)

type scriptedEditor struct {
	lines []string
	i     int
}

func (e *scriptedEditor) ReadLine(prompt string) (string, bool) {
	if e.i >= len(e.lines) {
		return "", false
	}
	line := e.lines[e.i]
	e.i++
	return line, true
}

func (e *scriptedEditor) AddHistory(string)        {}
func (e *scriptedEditor) SetHistoryLimit(int) error { return nil }

func TestRunStepReturnsWithoutChangingRunState(t *testing.T) {
	mc := &machine.Machine{}
	mc.SetRunState(machine.Step)

	var out bytes.Buffer
	r := &debugger.REPL{Editor: &scriptedEditor{lines: []string{"s"}}, Out: &out}

	r.Run(mc, 0x3000, 0x1060)

	if mc.RunState() != machine.Step {
		t.Errorf("RunState(): want Step, have %s", mc.RunState())
	}
}

func TestRunContinueSwitchesToTurbo(t *testing.T) {
	mc := &machine.Machine{}
	mc.SetRunState(machine.Step)

	var out bytes.Buffer
	r := &debugger.REPL{Editor: &scriptedEditor{lines: []string{"c"}}, Out: &out}

	r.Run(mc, 0x3000, 0x1060)

	if mc.RunState() != machine.Turbo {
		t.Errorf("RunState(): want Turbo, have %s", mc.RunState())
	}
}

func TestRunEOFSwitchesToOff(t *testing.T) {
	mc := &machine.Machine{}
	mc.SetRunState(machine.Step)

	var out bytes.Buffer
	r := &debugger.REPL{Editor: &scriptedEditor{lines: nil}, Out: &out}

	r.Run(mc, 0x3000, 0x1060)

	if mc.RunState() != machine.Off {
		t.Errorf("RunState(): want Off, have %s", mc.RunState())
	}
}

func TestRunUnrecognizedCommandReprompts(t *testing.T) {
	mc := &machine.Machine{}
	mc.SetRunState(machine.Step)

	var out bytes.Buffer
	editor := &scriptedEditor{lines: []string{"bogus", "s"}}
	r := &debugger.REPL{Editor: editor, Out: &out}

	r.Run(mc, 0x3000, 0x1060)

	if editor.i != 2 {
		t.Errorf("editor consumed %d lines, want 2", editor.i)
	}
	if !bytes.Contains(out.Bytes(), []byte("unrecognized command")) {
		t.Errorf("output missing unrecognized-command notice: %q", out.String())
	}
}

func TestRunRegPrintsRegisters(t *testing.T) {
	mc := &machine.Machine{}
	mc.SetRunState(machine.Step)
	mc.State.Registers[0] = 0x00FF

	var out bytes.Buffer
	r := &debugger.REPL{Editor: &scriptedEditor{lines: []string{"r", "s"}}, Out: &out}

	r.Run(mc, 0x3000, 0x1060)

	if !bytes.Contains(out.Bytes(), []byte("R0: 0x00ff")) {
		t.Errorf("output missing register dump: %q", out.String())
	}
}

func TestRunMemoryPrintsWordsFromAddress(t *testing.T) {
	mc := &machine.Machine{}
	mc.SetRunState(machine.Step)
	mc.State.Memory[0x4000] = 0xBEEF
	mc.State.Memory[0x4001] = 0xCAFE

	var out bytes.Buffer
	r := &debugger.REPL{Editor: &scriptedEditor{lines: []string{"m 0x4000 2", "s"}}, Out: &out}

	r.Run(mc, 0x3000, 0x1060)

	if !bytes.Contains(out.Bytes(), []byte("0xbeef")) || !bytes.Contains(out.Bytes(), []byte("0xcafe")) {
		t.Errorf("output missing memory dump: %q", out.String())
	}
}

func TestRunMemoryRejectsBadAddress(t *testing.T) {
	mc := &machine.Machine{}
	mc.SetRunState(machine.Step)

	var out bytes.Buffer
	r := &debugger.REPL{Editor: &scriptedEditor{lines: []string{"m notanaddress", "s"}}, Out: &out}

	r.Run(mc, 0x3000, 0x1060)

	if !bytes.Contains(out.Bytes(), []byte("invalid address")) {
		t.Errorf("output missing invalid-address notice: %q", out.String())
	}
}

func TestTraceNamesOpcodeAndDestination(t *testing.T) {
	mc := &machine.Machine{}
	mc.State.Registers[0] = 7

	var out bytes.Buffer
	debugger.Trace(&out, 0x3000, 0b0001_000_001_1_00001, mc) // ADD R0, R1, #1

	if !bytes.Contains(out.Bytes(), []byte("ADD")) {
		t.Errorf("trace missing opcode name: %q", out.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("R0")) {
		t.Errorf("trace missing destination register: %q", out.String())
	}
}
