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

// Package rawterm puts a terminal file descriptor into raw, no-echo mode
// for the emulator's standard input and restores it on the way out.
package rawterm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Terminal toggles a file descriptor between its original mode and the
// raw/no-echo mode the emulator needs for unbuffered, unechoed stdin.
type Terminal struct {
	fd      int
	saved   unix.Termios
	entered bool
}

// New returns a Terminal controlling fd. Use os.Stdin.Fd() for the
// process's standard input.
func New(fd int) *Terminal {
	return &Terminal{fd: fd}
}

// Enter saves the current terminal attributes and switches to raw mode:
// canonical processing, echo, and extended input processing are disabled,
// and reads return immediately with whatever bytes are available rather
// than blocking for a full line. Signal-generating control characters stay
// enabled, so the interrupt key still delivers SIGINT.
func (t *Terminal) Enter() error {
	termios, err := unix.IoctlGetTermios(t.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("rawterm: get attributes: %w", err)
	}

	t.saved = *termios
	raw := *termios

	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8

	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, &raw); err != nil {
		return fmt.Errorf("rawterm: set attributes: %w", err)
	}

	t.entered = true
	return nil
}

// Restore puts the terminal back in the mode Enter found it in. It is a
// no-op if Enter was never called or already undone, so it is safe to
// call unconditionally from every exit path (HALT, illegal opcode,
// operator quit).
func (t *Terminal) Restore() error {
	if !t.entered {
		return nil
	}
	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, &t.saved); err != nil {
		return fmt.Errorf("rawterm: restore attributes: %w", err)
	}
	t.entered = false
	return nil
}

// Stdin is a convenience constructor for the common case.
func Stdin() *Terminal {
	return New(int(os.Stdin.Fd()))
}
