package symtab

import "testing"

func TestToIDAssignsDenseInsertionOrder(t *testing.T) {
	tab := New[string]()
	words := []string{"動詞", "名詞", "助詞", "名詞", "動詞", "記号"}
	wantIDs := []int{0, 1, 2, 1, 0, 3}
	for i, w := range words {
		if got := tab.ToID(w); got != wantIDs[i] {
			t.Errorf("ToID(%q) = %d, want %d", w, got, wantIDs[i])
		}
	}
	if got := tab.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}

func TestLookupDoesNotIntern(t *testing.T) {
	tab := New[string]()
	tab.ToID("a")
	if id, ok := tab.Lookup("a"); !ok || id != 0 {
		t.Errorf("Lookup(a) = %d, %v, want 0, true", id, ok)
	}
	if _, ok := tab.Lookup("b"); ok {
		t.Error("Lookup(b) = true for an absent key")
	}
	if got := tab.Len(); got != 1 {
		t.Errorf("Len() = %d after Lookup miss, want 1", got)
	}
}

func TestValueInverse(t *testing.T) {
	tab := New[string]()
	for _, w := range []string{"あ", "い", "う"} {
		id := tab.ToID(w)
		if got := tab.Value(id); got != w {
			t.Errorf("Value(%d) = %q, want %q", id, got, w)
		}
	}
}

func TestEachAscendingOrder(t *testing.T) {
	tab := New[int]()
	for _, v := range []int{30, 10, 20} {
		tab.ToID(v)
	}
	var ids []int
	var vals []int
	tab.Each(func(id int, v int) {
		ids = append(ids, id)
		vals = append(vals, v)
	})
	wantIDs := []int{0, 1, 2}
	wantVals := []int{30, 10, 20}
	for i := range wantIDs {
		if ids[i] != wantIDs[i] || vals[i] != wantVals[i] {
			t.Errorf("Each step %d = (%d, %d), want (%d, %d)", i, ids[i], vals[i], wantIDs[i], wantVals[i])
		}
	}
}
