package procedure

import "testing"

func TestRegistryReusesSlotsWithNewGeneration(t *testing.T) {
	var r registry[string]
	a := r.insert("a")
	b := r.insert("b")
	if a.IsZero() || b.IsZero() || a == b {
		t.Fatalf("expected distinct non-zero ids, got %s and %s", a, b)
	}
	if !r.remove(a) {
		t.Fatalf("expected remove to succeed")
	}
	if r.remove(a) {
		t.Fatalf("expected second remove to fail")
	}
	c := r.insert("c")
	if c.index != a.index || c.gen != a.gen+1 {
		t.Fatalf("expected slot %d reused with next generation, got %s", a.index, c)
	}
	if _, ok := r.get(a); ok {
		t.Fatalf("expected stale id to miss")
	}
	if v, ok := r.get(c); !ok || v != "c" {
		t.Fatalf("expected c, got %q (ok=%v)", v, ok)
	}
	ids := r.ids()
	if len(ids) != 2 || ids[0] != b || ids[1] != c {
		t.Fatalf("expected creation order [b c], got %v", ids)
	}
}

func TestRegistryRejectsZeroAndOutOfRange(t *testing.T) {
	var r registry[int]
	r.insert(1)
	if _, ok := r.get(ThreadID{}); ok {
		t.Fatalf("zero id must never resolve")
	}
	if _, ok := r.get(ThreadID{index: 9, gen: 1}); ok {
		t.Fatalf("out of range id must not resolve")
	}
	if s := (ThreadID{}).String(); s != "t-" {
		t.Fatalf("unexpected zero id string %q", s)
	}
}
