package analyzer_test

import (
	"reflect"
	"testing"

	"lockwalk/pkg/analyzer"
	"lockwalk/pkg/cc/parser"
)

// check runs the default-catalog checker over one C snippet.
func check(t *testing.T, src string) []analyzer.Diagnostic {
	t.Helper()
	f, err := parser.ParseFile("test.c", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return analyzer.New(analyzer.DefaultCatalog()).CheckFile(f)
}

// state builds a default-catalog snapshot: spl, mpl, mtx.
func state(spl, mpl, mtx int) []int {
	return []int{spl, mpl, mtx}
}

type want struct {
	fn    string
	kind  analyzer.Kind
	state []int
}

func expectDiags(t *testing.T, src string, wants ...want) {
	t.Helper()
	diags := check(t, src)
	if len(diags) != len(wants) {
		t.Fatalf("got %d diagnostics, want %d: %+v", len(diags), len(wants), diags)
	}
	for i, w := range wants {
		d := diags[i]
		if d.Function != w.fn {
			t.Errorf("diag %d: function = %q, want %q", i, d.Function, w.fn)
		}
		if d.Kind != w.kind {
			t.Errorf("diag %d: kind = %v, want %v", i, d.Kind, w.kind)
		}
		if w.state != nil && !reflect.DeepEqual(d.State, w.state) {
			t.Errorf("diag %d: state = %v, want %v", i, d.State, w.state)
		}
	}
}

func TestBalancedStraightLine(t *testing.T) {
	expectDiags(t, `
void f(void) {
	splraise(IPL_HIGH);
	spllower(IPL_NONE);
}
`)
}

func TestReturnWhileHolding(t *testing.T) {
	expectDiags(t, `
void f(void) {
	splraise(IPL_HIGH);
	return;
}
`, want{fn: "f", kind: analyzer.Return, state: state(1, 0, 0)})
}

func TestBranchReleasesOnlyOneSide(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	splraise(IPL_HIGH);
	if (x) {
		spllower(IPL_NONE);
	}
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(1, 0, 0)})
}

func TestLockOpInLoopCondition(t *testing.T) {
	expectDiags(t, `
void f(void) {
	while (splraise(IPL_HIGH)) {
	}
}
`, want{fn: "f", kind: analyzer.Forbidden})
}

func TestSwitchArmSkipsRelease(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	mtx_enter(&m);
	switch (x) {
	case 1:
		mtx_leave(&m);
		break;
	case 2:
		break;
	}
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(0, 0, 1)})
}

func TestPanicSilencesPath(t *testing.T) {
	expectDiags(t, `
void f(void) {
	mtx_enter(&m);
	panic("dying");
}
`)
}

func TestNoCatalogCallsNoDiagnostics(t *testing.T) {
	expectDiags(t, `
int g(int x) {
	if (x)
		return x * 2;
	while (x--)
		do_stuff(x);
	return 0;
}
`)
}

func TestBalancedInBothArms(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	if (x) {
		mtx_enter(&a);
		mtx_leave(&a);
	} else {
		mtx_enter(&b);
		mtx_leave(&b);
	}
}
`)
}

func TestEndlessWhileAbsorbs(t *testing.T) {
	expectDiags(t, `
void f(void) {
	while (1) {
		splraise(IPL_HIGH);
	}
}
`)
}

func TestEndlessForAbsorbs(t *testing.T) {
	expectDiags(t, `
void f(void) {
	for (;;) {
		mtx_enter(&m);
	}
}
`)
}

func TestBreakLeavesEndlessLoop(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	while (1) {
		if (x) {
			mtx_enter(&m);
			break;
		}
	}
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(0, 0, 1)})
}

func TestForwardGotoSkipsRelease(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	splraise(IPL_HIGH);
	if (x)
		goto out;
	spllower(IPL_NONE);
out:
	;
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(1, 0, 0)})
}

func TestForwardGotoPastBalancedTail(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	mtx_enter(&m);
	if (x)
		goto out;
	mtx_leave(&m);
	return;
out:
	mtx_leave(&m);
}
`)
}

func TestBackwardGotoEndsPathCleanly(t *testing.T) {
	expectDiags(t, `
void f(void) {
again:
	splraise(IPL_HIGH);
	spllower(IPL_NONE);
	goto again;
}
`)
}

func TestOverRelease(t *testing.T) {
	expectDiags(t, `
void f(void) {
	spllower(IPL_NONE);
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(-1, 0, 0)})
}

func TestTernarySplits(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	x ? mtx_enter(&m) : 0;
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(0, 0, 1)})
}

func TestCondMemoKeepsBranchesConsistent(t *testing.T) {
	// both ifs share a condition, so within one exploration they take
	// the same side and the pair stays balanced on every path
	expectDiags(t, `
void f(int x) {
	if (x)
		splraise(IPL_HIGH);
	if (x)
		spllower(IPL_NONE);
}
`)
}

func TestFunctionPointerCalleeIsOpaque(t *testing.T) {
	expectDiags(t, `
void f(struct ops *o) {
	o->lock(&m);
	(*o->unlock)(&m);
}
`)
}

func TestCallInReturnExpressionCounts(t *testing.T) {
	expectDiags(t, `
int f(void) {
	return mtx_enter(&m);
}
`, want{fn: "f", kind: analyzer.Return, state: state(0, 0, 1)})
}

func TestDoWhileBodyAlwaysRuns(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	do {
		mtx_enter(&m);
	} while (x);
	mtx_leave(&m);
}
`)
}

func TestForLoopBodySplit(t *testing.T) {
	expectDiags(t, `
void f(int n) {
	int i;
	for (i = 0; i < n; i++) {
		mtx_enter(&m);
	}
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(0, 0, 1)})
}

func TestLockOpInForHeader(t *testing.T) {
	expectDiags(t, `
void f(int n) {
	int i;
	for (i = 0; i < n; mtx_leave(&m)) {
		mtx_enter(&m);
	}
}
`, want{fn: "f", kind: analyzer.Forbidden})
}

func TestLockOpInSwitchSelector(t *testing.T) {
	expectDiags(t, `
void f(void) {
	switch (mtx_enter(&m)) {
	case 1:
		break;
	}
}
`, want{fn: "f", kind: analyzer.Forbidden})
}

func TestBreakAtFunctionRoot(t *testing.T) {
	expectDiags(t, `
void f(void) {
	mtx_enter(&m);
	break;
}
`, want{fn: "f", kind: analyzer.Internal, state: state(0, 0, 1)})
}

func TestContinueAtFunctionRoot(t *testing.T) {
	expectDiags(t, `
void f(void) {
	mtx_enter(&m);
	continue;
}
`, want{fn: "f", kind: analyzer.Internal, state: state(0, 0, 1)})
}

func TestGotoIntoSwitchArmIsInternal(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	mtx_enter(&m);
	goto in;
	switch (x) {
	case 1:
in:
		mtx_leave(&m);
	}
}
`, want{fn: "f", kind: analyzer.Internal})
}

func TestMultipleFamiliesTrackedIndependently(t *testing.T) {
	expectDiags(t, `
void f(void) {
	splraise(IPL_HIGH);
	mtx_enter(&m);
	spllower(IPL_NONE);
}
`, want{fn: "f", kind: analyzer.EndOfFunction, state: state(0, 0, 1)})
}

func TestSwitchFallthroughBalances(t *testing.T) {
	expectDiags(t, `
void f(int x) {
	switch (x) {
	case 1:
		mtx_enter(&m);
	case 2:
		mtx_enter(&m);
		mtx_leave(&m);
		mtx_leave(&m);
		return;
	default:
		break;
	}
}
`, want{fn: "f", kind: analyzer.Return, state: state(0, 0, -1)})
}

func TestCheckerIsIdempotent(t *testing.T) {
	src := `
void f(int x) {
	splraise(IPL_HIGH);
	if (x)
		spllower(IPL_NONE);
	mtx_enter(&m);
}
`
	first := check(t, src)
	second := check(t, src)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs disagree:\n%+v\n%+v", first, second)
	}
}

func TestIndependentPairsInDistinctBranches(t *testing.T) {
	expectDiags(t, `
void f(int x, int y) {
	if (x) {
		splraise(IPL_HIGH);
		spllower(IPL_NONE);
	}
	if (y) {
		mtx_enter(&m);
		mtx_leave(&m);
	}
}
`)
}

func TestIrrelevantBranchIsPruned(t *testing.T) {
	// an if holding no lock calls and no goto is skipped wholesale, so
	// the early return inside it goes unnoticed; the checker is a
	// lint, not a verifier
	expectDiags(t, `
void f(int x) {
	mtx_enter(&m);
	if (x)
		return;
	mtx_leave(&m);
}
`)
}

func TestDiagnosticsPerFunction(t *testing.T) {
	diags := check(t, `
void ok(void) {
	mtx_enter(&m);
	mtx_leave(&m);
}

void leaky(void) {
	mtx_enter(&m);
}
`)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %+v", len(diags), diags)
	}
	if diags[0].Function != "leaky" || diags[0].Kind != analyzer.EndOfFunction {
		t.Fatalf("unexpected diagnostic: %+v", diags[0])
	}
	if diags[0].File != "test.c" {
		t.Errorf("file = %q, want test.c", diags[0].File)
	}
}
