package replline_test

import (
	"bytes"
	"strings"
	"testing"

	"lc3vm/pkg/replline"
)

func TestReadLine(t *testing.T) {
	in := strings.NewReader("step\ncontinue\n")
	var out bytes.Buffer

	e := replline.New(in, &out)

	line, ok := e.ReadLine("(lc3vm) ")
	if !ok || line != "step" {
		t.Fatalf("ReadLine #1: want (%q, true), have (%q, %v)", "step", line, ok)
	}

	line, ok = e.ReadLine("(lc3vm) ")
	if !ok || line != "continue" {
		t.Fatalf("ReadLine #2: want (%q, true), have (%q, %v)", "continue", line, ok)
	}

	if _, ok := e.ReadLine("(lc3vm) "); ok {
		t.Fatal("ReadLine at EOF: want ok=false")
	}

	if !strings.Contains(out.String(), "(lc3vm) ") {
		t.Errorf("prompt not written to out: %q", out.String())
	}
}

func TestHistoryRingBuffer(t *testing.T) {
	e := replline.New(strings.NewReader(""), nil)
	if err := e.SetHistoryLimit(2); err != nil {
		t.Fatalf("SetHistoryLimit: %v", err)
	}

	e.AddHistory("a")
	e.AddHistory("b")
	e.AddHistory("c")

	want := []string{"b", "c"}
	have := e.History()
	if len(have) != len(want) || have[0] != want[0] || have[1] != want[1] {
		t.Errorf("History(): want %v, have %v", want, have)
	}
}

func TestSetHistoryLimitRejectsNonPositive(t *testing.T) {
	e := replline.New(strings.NewReader(""), nil)
	if err := e.SetHistoryLimit(0); err == nil {
		t.Fatal("SetHistoryLimit(0): want error, have nil")
	}
}
