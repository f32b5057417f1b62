package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := &prompter{in: bufio.NewReader(strings.NewReader("  solar sails \n\nseven\n3\n")), out: &out}

	if got := p.ask("Query? "); got != "solar sails" {
		t.Errorf("ask = %q, want %q", got, "solar sails")
	}
	if got := p.askInt("Breadth? ", 4); got != 4 {
		t.Errorf("askInt on empty input = %d, want 4", got)
	}
	if got := p.askInt("Depth? ", 2); got != 2 {
		t.Errorf("askInt on invalid input = %d, want 2", got)
	}
	if got := p.askInt("Depth? ", 2); got != 3 {
		t.Errorf("askInt = %d, want 3", got)
	}
	if got := p.ask("Mode? "); got != "" {
		t.Errorf("ask at EOF = %q, want empty", got)
	}

	if !strings.HasPrefix(out.String(), "Query? Breadth? ") {
		t.Errorf("unexpected prompts %q", out.String())
	}
}
