package rawterm_test

import (
	"testing"

	"lc3vm/pkg/rawterm"
)

func TestRestoreWithoutEnterIsNoop(t *testing.T) {
	term := rawterm.New(0)
	if err := term.Restore(); err != nil {
		t.Fatalf("Restore() before Enter: want nil, have %v", err)
	}
}
