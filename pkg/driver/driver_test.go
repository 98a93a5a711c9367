package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lockwalk/pkg/analyzer"
	"lockwalk/pkg/driver"
)

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	leaky := writeFile(t, dir, "leaky.c", `
void f(void) {
	mtx_enter(&m);
}
`)
	clean := writeFile(t, dir, "clean.c", `
void g(void) {
	mtx_enter(&m);
	mtx_leave(&m);
}
`)
	missing := filepath.Join(dir, "missing.c")

	results := driver.Run(context.Background(), []string{leaky, clean, missing},
		analyzer.DefaultCatalog(), 4)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].File != leaky || results[1].File != clean || results[2].File != missing {
		t.Fatalf("result order does not follow argument order: %+v", results)
	}
	if len(results[0].Diags) != 1 || results[0].Diags[0].Kind != analyzer.EndOfFunction {
		t.Fatalf("leaky.c diagnostics: %+v", results[0].Diags)
	}
	if results[0].Diags[0].File != leaky {
		t.Errorf("diagnostic file = %q, want %q", results[0].Diags[0].File, leaky)
	}
	if len(results[1].Diags) != 0 || results[1].Err != nil {
		t.Fatalf("clean.c: %+v", results[1])
	}
	if results[2].Err == nil {
		t.Fatal("missing file produced no error")
	}
}

func TestRunParseError(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.c", "void f(void) { if ( }\n")
	results := driver.Run(context.Background(), []string{bad}, analyzer.DefaultCatalog(), 1)
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("parse failure not reported: %+v", results)
	}
}

func TestRunStripsExtensionsBeforeParsing(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "dev.c", `# 1 "dev.c"
static __inline void
dev_lock(struct dev *d)
{
	mtx_enter(&d->mtx);
}
`)
	results := driver.Run(context.Background(), []string{src}, analyzer.DefaultCatalog(), 1)
	if results[0].Err != nil {
		t.Fatalf("parse: %v", results[0].Err)
	}
	if len(results[0].Diags) != 1 || results[0].Diags[0].Function != "dev_lock" {
		t.Fatalf("diagnostics: %+v", results[0].Diags)
	}
}
