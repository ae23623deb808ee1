// Package tagger implements the runtime pattern-match loop: longest-prefix
// double-array search with POS-suffix refinement, the char-type
// concatenation state machine, and feature-string emission.
package tagger

import (
	"io"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ynaga-jagger/jagger/internal/chartype"
	"github.com/ynaga-jagger/jagger/internal/decision"
	"github.com/ynaga-jagger/jagger/internal/model"
	"github.com/ynaga-jagger/jagger/internal/streambuf"
	"github.com/ynaga-jagger/jagger/internal/trie"
)

func tracer() tracing.Trace {
	return tracing.Select("jagger/tagger")
}

// Mode selects between full tagging output and segmentation-only output.
type Mode int

const (
	Tagging Mode = iota
	Segmentation
)

// Tagger streams UTF-8 bytes from the src reader to the dst writer given
// to Run, one run of Run per call.
type Tagger struct {
	m    *model.Model
	mode Mode
	// interactive forces line-buffered flushing, matching -c or a TTY
	// stdin detected by the caller (platform TTY detection is out of
	// scope here — see cmd/jagger-tag).
	interactive bool
}

// New builds a Tagger over an already-loaded Model.
func New(m *model.Model, mode Mode, interactive bool) *Tagger {
	tracer().Infof("tagger ready: mode=%v interactive=%v trie_states=%d", mode, interactive, m.Trie.NStates())
	return &Tagger{m: m, mode: mode, interactive: interactive}
}

// Run consumes src until EOF, writing to dst, and returns the first fatal
// error encountered (already wrapped with a jaggererr sentinel).
func (t *Tagger) Run(src io.Reader, dst io.Writer) error {
	reader, err := streambuf.NewReader(src, t.interactive)
	if err != nil {
		return err
	}
	writer := streambuf.NewWriter(dst)

	bosTI := t.m.C2I[chartype.CPMax+1]
	var prevInfo decision.FeatureInfo
	prevInfo.TI = uint32(bosTI)
	var prev decision.PatternDecision
	havePrev := false

	for !reader.EOB() {
		window := reader.Window()
		if window[0] == '\n' {
			if havePrev && t.mode == Tagging {
				t.emit(writer, prev, prevInfo)
			}
			if t.mode == Tagging {
				writer.WriteString("EOS\n")
			} else {
				writer.WriteString("\n")
			}
			havePrev = false
			prevInfo = decision.FeatureInfo{TI: uint32(bosTI)}
			reader.Advance(1)
			if t.interactive {
				if err := writer.Flush(); err != nil {
					return err
				}
			}
		} else {
			cur := t.search(window, int(prevInfo.TI))
			shift := cur.Shift()
			if shift == 0 {
				shift = chartype.U8Len(window[0])
				if shift > len(window) {
					// truncated trailing sequence: consume what is left
					shift = len(window)
				}
				cur = cur.WithShift(shift)
			}

			if havePrev {
				concat := prev.CType() == cur.CType() &&
					prev.CType() != chartype.OTHER &&
					(prev.CType() != chartype.KANA || prev.Shift()+shift < 18)
				cur = cur.WithConcat(concat)
				if !concat {
					if t.mode == Tagging {
						t.emit(writer, prev, prevInfo)
					} else {
						writer.WriteString(" ")
					}
				}
			}

			id := cur.ID()
			if id < len(t.m.P2F) {
				prevInfo = t.m.P2F[id]
			} else {
				prevInfo = decision.FeatureInfo{}
			}
			prev = cur
			havePrev = true
			writer.Write(window[:shift])
			reader.Advance(shift)
		}

		if !t.interactive && !writer.Writable(1<<chartype.MaxFeatureBits) {
			if err := writer.Flush(); err != nil {
				return err
			}
		}
		if t.interactive && reader.EOB() {
			if err := reader.Refill(); err != nil {
				return err
			}
		}
		if !t.interactive && !reader.Readable(1<<chartype.MaxPatternBits) {
			if err := reader.Refill(); err != nil {
				return err
			}
		}
	}

	if havePrev {
		if t.mode == Tagging {
			t.emit(writer, prev, prevInfo)
			writer.WriteString("EOS\n")
		} else {
			writer.WriteString("\n")
		}
	}
	return writer.Flush()
}

// emit writes the pending morpheme's feature trailer: the core POS string
// from its deduplicated slot, then the lemma/reading suffix — unless this
// is a fused word, which gets the synthetic ",*,*,*\n" trailer instead.
func (t *Tagger) emit(w *streambuf.Writer, d decision.PatternDecision, f decision.FeatureInfo) {
	fs := t.m.FS
	w.Write(fs[f.CoreFeatOffset : f.CoreFeatOffset+f.CoreFeatLen])
	if d.Concat() {
		w.WriteString(",*,*,*\n")
		return
	}
	w.Write(fs[f.FeatOffset : f.FeatOffset+f.FeatLen])
}

// search finds the longest matching pattern: a surface-only pass followed
// by a POS-refined pass that backwalks check-parent pointers.
func (t *Tagger) search(window []byte, prevPOSKeyID int) decision.PatternDecision {
	if len(window) == 0 {
		return 0
	}
	view := t.m.Trie
	state := trie.Root
	bestState := trie.Root
	var best int32
	haveBest := false

	i := 0
	for i < len(window) {
		r, size := utf8.DecodeRune(window[i:])
		if size == 0 {
			break
		}
		if int(r) > chartype.CPMax {
			i += size
			continue
		}
		id := t.m.C2I[r]
		if id == 0 {
			i += size
			continue
		}
		next, status, val := view.Step(state, id)
		if status == trie.NoPath {
			break
		}
		state = next
		if status == trie.HasValue {
			best = val
			bestState = next
			haveBest = true
		}
		i += size
	}

	if prevPOSKeyID != 0 {
		for cur := state; ; {
			_, status, val := view.Step(cur, uint16(prevPOSKeyID))
			if status == trie.HasValue {
				return decision.PatternDecision(val)
			}
			if cur == bestState {
				break
			}
			cur = view.Parent(cur)
		}
	}
	if haveBest {
		return decision.PatternDecision(best)
	}
	return 0
}

func (m Mode) String() string {
	if m == Tagging {
		return "tagging"
	}
	return "segmentation"
}
