package model

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ynaga-jagger/jagger/internal/decision"
	"github.com/ynaga-jagger/jagger/internal/jaggererr"
	"github.com/ynaga-jagger/jagger/internal/trie"
)

func TestWriteLoadRoundtrip(t *testing.T) {
	tr := trie.New()
	*tr.Update([]uint16{1, 2}) = 100
	*tr.Update([]uint16{1}) = 200
	*tr.Update([]uint16{3}) = 300
	tr.Freeze()

	c2i := []uint16{0, 5, 9, 0, 7}
	p2f := []decision.FeatureInfo{
		{TI: 1, CoreFeatLen: 10, FeatLen: 4, CoreFeatOffset: 0, FeatOffset: 10},
		{TI: 2, CoreFeatLen: 3, FeatLen: 7, CoreFeatOffset: 10, FeatOffset: 14},
	}
	fs := []byte("\t名詞,数詞,*,*,1,イチ\n")

	prefix := filepath.Join(t.TempDir(), "patterns")
	w := &Writer{C2I: c2i, Trie: tr, P2F: p2f, FS: fs}
	if err := w.WriteTo(prefix); err != nil {
		t.Fatal(err)
	}

	m, err := Load(prefix)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if len(m.C2I) != len(c2i) {
		t.Fatalf("len(C2I) = %d, want %d", len(m.C2I), len(c2i))
	}
	for i, v := range c2i {
		if m.C2I[i] != v {
			t.Errorf("C2I[%d] = %d, want %d", i, m.C2I[i], v)
		}
	}

	if len(m.P2F) != len(p2f) {
		t.Fatalf("len(P2F) = %d, want %d", len(m.P2F), len(p2f))
	}
	for i, fi := range p2f {
		if m.P2F[i] != fi {
			t.Errorf("P2F[%d] = %+v, want %+v", i, m.P2F[i], fi)
		}
	}

	if string(m.FS) != string(fs) {
		t.Errorf("FS = %q, want %q", m.FS, fs)
	}

	testCases := []struct {
		name string
		key  []uint16
		val  int32
	}{
		{"two-label key", []uint16{1, 2}, 100},
		{"prefix key", []uint16{1}, 200},
		{"sibling key", []uint16{3}, 300},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := trie.Root
			var status trie.Status
			var val int32
			for _, k := range tc.key {
				state, status, val = m.Trie.Step(state, k)
				if status == trie.NoPath {
					t.Fatalf("Step(%d) hit NoPath", k)
				}
			}
			if status != trie.HasValue || val != tc.val {
				t.Errorf("walk = (%v, %d), want (HasValue, %d)", status, val, tc.val)
			}
		})
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "nope")
	if _, err := Load(prefix); !errors.Is(err, jaggererr.ErrModelMissing) {
		t.Errorf("Load error = %v, want ErrModelMissing", err)
	}
}

func TestEmptyFeatureBlob(t *testing.T) {
	tr := trie.New()
	*tr.Update([]uint16{1}) = 1
	tr.Freeze()
	prefix := filepath.Join(t.TempDir(), "patterns")
	w := &Writer{C2I: []uint16{0, 1}, Trie: tr, P2F: nil, FS: nil}
	if err := w.WriteTo(prefix); err != nil {
		t.Fatal(err)
	}
	m, err := Load(prefix)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	if len(m.P2F) != 0 || len(m.FS) != 0 {
		t.Errorf("P2F/FS lengths = %d/%d, want 0/0", len(m.P2F), len(m.FS))
	}
}
