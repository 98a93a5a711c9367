package analyzer

import (
	"strings"
	"testing"
)

func TestCatalogRejectsOverlap(t *testing.T) {
	_, err := NewCatalog(
		LockFamily{Name: "a", Acquire: "take", Release: "drop"},
		LockFamily{Name: "b", Acquire: "take", Release: "give"},
	)
	if err == nil {
		t.Fatal("overlapping acquire names accepted")
	}
	_, err = NewCatalog(
		LockFamily{Name: "a", Acquire: "take", Release: "drop"},
		LockFamily{Name: "take", Acquire: "grab", Release: "give"},
	)
	if err == nil {
		t.Fatal("family named after another family's acquire accepted")
	}
}

func TestCatalogRejectsIncompleteFamily(t *testing.T) {
	if _, err := NewCatalog(LockFamily{Name: "a", Acquire: "take"}); err == nil {
		t.Fatal("family without release accepted")
	}
}

func TestDefaultCatalogClassification(t *testing.T) {
	cat := DefaultCatalog()
	tests := []struct {
		callee string
		family int
		op     Op
	}{
		{"splraise", 0, OpAcquire},
		{"spllower", 0, OpRelease},
		{"__mp_lock", 1, OpAcquire},
		{"__mp_unlock", 1, OpRelease},
		{"mtx_enter", 2, OpAcquire},
		{"mtx_leave", 2, OpRelease},
		{"mtx_enter_try", -1, OpNone}, // try-acquire deliberately ignored
		{"panic", -1, OpNone},
	}
	for _, tt := range tests {
		family, op := cat.Classify(tt.callee)
		if family != tt.family || op != tt.op {
			t.Errorf("Classify(%q) = (%d, %v), want (%d, %v)",
				tt.callee, family, op, tt.family, tt.op)
		}
	}
}

func TestCatalogFilter(t *testing.T) {
	cat := DefaultCatalog()
	sub, err := cat.Filter("mtx", "spl")
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 2 {
		t.Fatalf("filtered catalog has %d families, want 2", sub.Len())
	}
	// catalog order is preserved regardless of argument order
	if sub.Families()[0].Name != "spl" || sub.Families()[1].Name != "mtx" {
		t.Fatalf("unexpected family order: %+v", sub.Families())
	}
	if sub.Relevant("__mp_lock") {
		t.Fatal("filtered-out family still classified")
	}
	if _, err := cat.Filter("rwlock"); err == nil {
		t.Fatal("unknown family name accepted")
	}
}

func TestParseCatalogYAML(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
locks:
  - name: rw
    acquire: rw_enter_write
    release: rw_exit_write
  - name: mtx
    acquire: mtx_enter
    release: mtx_leave
`))
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 2 {
		t.Fatalf("catalog has %d families, want 2", cat.Len())
	}
	if family, op := cat.Classify("rw_enter_write"); family != 0 || op != OpAcquire {
		t.Fatalf("rw_enter_write misclassified: (%d, %v)", family, op)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	if _, err := ParseCatalog([]byte("locks: []")); err == nil {
		t.Fatal("empty catalog accepted")
	}
	if _, err := ParseCatalog([]byte("{:bad yaml")); err == nil {
		t.Fatal("malformed yaml accepted")
	}
	_, err := ParseCatalog([]byte(`
locks:
  - name: a
    acquire: take
    release: take
`))
	if err == nil || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("acquire==release accepted: %v", err)
	}
}
