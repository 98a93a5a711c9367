package report_test

import (
	"strings"
	"testing"

	"lockwalk/pkg/analyzer"
	"lockwalk/pkg/report"
)

func TestPlainPrinter(t *testing.T) {
	cat := analyzer.DefaultCatalog()
	var sb strings.Builder
	p := report.NewPrinter(&sb, cat, false)
	p.PrintAll([]analyzer.Diagnostic{
		{
			File:     "intr.c",
			Function: "intr_leak",
			Line:     12,
			Kind:     analyzer.Return,
			Reason:   "unbalanced lock state at return",
			State:    []int{1, 0, 0},
		},
		{
			File:     "queue.c",
			Function: "queue_flush",
			Line:     40,
			Kind:     analyzer.EndOfFunction,
			Reason:   "unbalanced lock state at end of function",
			State:    []int{0, 0, -1},
		},
	})
	out := sb.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if lines[0] != "intr.c:12: intr_leak() return unbalanced lock state at return [spl=1]" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "queue_flush()") || !strings.Contains(lines[1], "[mtx=-1]") {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestStateStringBalanced(t *testing.T) {
	cat := analyzer.DefaultCatalog()
	d := analyzer.Diagnostic{Kind: analyzer.Internal, State: []int{0, 0, 0}}
	if got := d.StateString(cat); got != "balanced" {
		t.Errorf("StateString = %q, want balanced", got)
	}
}
