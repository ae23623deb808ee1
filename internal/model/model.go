// Package model reads and writes the four flat, headerless compiled-model
// artifacts (.c2i, .da, .p2f, .fs), memory-mapping them for the reader and
// streaming them out with buffered file writes for the writer.
package model

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/ynaga-jagger/jagger/internal/chartype"
	"github.com/ynaga-jagger/jagger/internal/decision"
	"github.com/ynaga-jagger/jagger/internal/jaggererr"
	"github.com/ynaga-jagger/jagger/internal/rawslice"
	"github.com/ynaga-jagger/jagger/internal/trie"
)

// C2ILen is the fixed length of the c2i array: one entry per code point
// 0..CPMax, plus one for BOS at index CPMax+1 (CP_MAX+2 total).
const C2ILen = chartype.CPMax + 2

// Model is the runtime's read-only view over a compiled pattern set. Every
// field is backed directly by a memory-mapped file; the Model must be
// Closed before the process exits (or may simply be leaked for the
// lifetime of a short-running CLI process).
type Model struct {
	maps []mmap.MMap

	C2I  []uint16
	Trie *trie.View
	P2F  []decision.FeatureInfo
	FS   []byte
}

// Load memory-maps the four artifacts at prefix+".c2i", prefix+".da",
// prefix+".p2f", prefix+".fs".
func Load(prefix string) (*Model, error) {
	m := &Model{}
	c2iBytes, err := m.mapFile(prefix + ".c2i")
	if err != nil {
		return nil, err
	}
	daBytes, err := m.mapFile(prefix + ".da")
	if err != nil {
		return nil, err
	}
	p2fBytes, err := m.mapFile(prefix + ".p2f")
	if err != nil {
		return nil, err
	}
	fsBytes, err := m.mapFile(prefix + ".fs")
	if err != nil {
		return nil, err
	}

	m.C2I = rawslice.Of[uint16](c2iBytes)
	m.FS = fsBytes
	m.P2F = rawslice.Of[decision.FeatureInfo](p2fBytes)

	n := len(daBytes) / 4 / 3
	flat := rawslice.Of[int32](daBytes)
	base, check, value := flat[:n], flat[n:2*n], flat[2*n:3*n]
	m.Trie = trie.NewView(base, check, value)
	return m, nil
}

func (m *Model) mapFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", jaggererr.ErrModelMissing, path, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", jaggererr.ErrModelMissing, path, err)
	}
	if fi.Size() == 0 {
		m.maps = append(m.maps, nil)
		return nil, nil
	}
	mp, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", jaggererr.ErrModelMissing, path, err)
	}
	m.maps = append(m.maps, mp)
	return []byte(mp), nil
}

// Close unmaps every artifact.
func (m *Model) Close() error {
	var first error
	for _, mp := range m.maps {
		if mp == nil {
			continue
		}
		if err := mp.Unmap(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Writer accumulates a compiled model in memory and emits the four
// artifacts in one pass. Offsets into fs are only meaningful once the
// whole blob has been laid out, so FS must be final before WriteTo.
type Writer struct {
	C2I  []uint16
	Trie *trie.Trie
	P2F  []decision.FeatureInfo
	FS   []byte
}

// WriteTo emits the four artifacts at prefix+".c2i"/".da"/".p2f"/".fs".
func (w *Writer) WriteTo(prefix string) error {
	if err := writeUint16Array(prefix+".c2i", w.C2I); err != nil {
		return err
	}
	base, check, value := w.Trie.Arrays()
	if err := writeDA(prefix+".da", base, check, value); err != nil {
		return err
	}
	if err := writeFeatureInfo(prefix+".p2f", w.P2F); err != nil {
		return err
	}
	if err := writeBytes(prefix+".fs", w.FS); err != nil {
		return err
	}
	return nil
}

func writeUint16Array(path string, data []uint16) error {
	f, bw, err := createBuffered(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, v := range data {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %s: %v", jaggererr.ErrIO, path, err)
		}
	}
	return bw.Flush()
}

func writeDA(path string, base, check, value []int32) error {
	f, bw, err := createBuffered(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, arr := range [][]int32{base, check, value} {
		for _, v := range arr {
			if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
				return fmt.Errorf("%w: %s: %v", jaggererr.ErrIO, path, err)
			}
		}
	}
	return bw.Flush()
}

func writeFeatureInfo(path string, infos []decision.FeatureInfo) error {
	f, bw, err := createBuffered(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, fi := range infos {
		fields := [5]uint32{fi.TI, fi.CoreFeatLen, fi.FeatLen, fi.CoreFeatOffset, fi.FeatOffset}
		for _, v := range fields {
			if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
				return fmt.Errorf("%w: %s: %v", jaggererr.ErrIO, path, err)
			}
		}
	}
	return bw.Flush()
}

func writeBytes(path string, data []byte) error {
	f, bw, err := createBuffered(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("%w: %s: %v", jaggererr.ErrIO, path, err)
	}
	return bw.Flush()
}

func createBuffered(path string) (*os.File, *bufio.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", jaggererr.ErrIO, path, err)
	}
	return f, bufio.NewWriter(f), nil
}
