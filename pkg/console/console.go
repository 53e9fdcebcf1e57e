// Package console provides the non-blocking stdin-readiness probe the
// machine's memory-mapped keyboard status register polls.
package console

import (
	"os"

	"golang.org/x/sys/unix"
)

// Prober answers whether a byte is available to read from stdin without
// blocking. Implementations must not consume input and must not block.
type Prober interface {
	KeyPending() bool
}

// TermiosProber polls a file descriptor's read-readiness with a
// zero-duration select, the same technique original_source/main.c uses
// via check_key()'s select(..., &timeout) with a zeroed timeval.
type TermiosProber struct {
	Fd int
}

// NewStdinProber returns a TermiosProber watching os.Stdin.
func NewStdinProber() *TermiosProber {
	return &TermiosProber{Fd: int(os.Stdin.Fd())}
}

func (p *TermiosProber) KeyPending() bool {
	var readfds unix.FdSet
	fdSet(&readfds, p.Fd)

	timeout := unix.Timeval{}

	n, err := unix.Select(p.Fd+1, &readfds, nil, nil, &timeout)
	if err != nil {
		return false
	}

	return n > 0
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}
