// Package diag provides the module-tagged, level-gated logging used for
// the emulator's non-fatal diagnostics: illegal opcodes, invalid trap
// vectors, and REPL notices. Fatal startup errors (bad CLI usage, image
// load failure) are instead written to standard error with fmt, once, at
// the top of cmd/lc3vm and followed immediately by os.Exit.
package diag

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

// Module tags log entries by subsystem so a caller can enable verbose
// output for, say, the decoder without drowning in REPL chatter.
type Module uint

const (
	ModCore Module = iota + 1
	ModDebugger
	ModConsole

	endModules
)

var modNames = []string{"<error>", "core", "debugger", "console"}

// ModuleMask selects a set of modules for EnableModules/DisableModules.
type ModuleMask uint64

const MaskAll ModuleMask = 1<<uint(endModules) - 1

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

var enabledMask ModuleMask

// EnableModules lets Debugf calls for the given modules through to logrus;
// logrus's own level setting (Info by default) still filters them.
func EnableModules(mask ModuleMask) {
	enabledMask |= mask
}

// DisableModules turns off Debug-level output for the given modules.
// Warn and Error are always emitted regardless of mask.
func DisableModules(mask ModuleMask) {
	enabledMask &^= mask
}

func (mod Module) debugEnabled() bool {
	return enabledMask&mod.Mask() != 0
}

// Entry is a nullable logging handle bound to one module.
type Entry struct {
	mod Module
}

// For returns the logging entry for mod.
func For(mod Module) Entry {
	return Entry{mod: mod}
}

func (e Entry) log() *logrus.Entry {
	name := "<error>"
	if int(e.mod) < len(modNames) {
		name = modNames[e.mod]
	}
	return logrus.StandardLogger().WithField("module", name)
}

func (e Entry) Debugf(format string, args ...interface{}) {
	if e.mod.debugEnabled() {
		e.log().Debugf(format, args...)
	}
}

func (e Entry) Infof(format string, args ...interface{}) {
	e.log().Infof(format, args...)
}

func (e Entry) Warnf(format string, args ...interface{}) {
	e.log().Warnf(format, args...)
}

func (e Entry) Errorf(format string, args ...interface{}) {
	e.log().Errorf(format, args...)
}
