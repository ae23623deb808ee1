// Package pattern implements the training-time pipeline that turns a
// tagged corpus and zero or more word dictionaries into a compiled model:
// seed candidate patterns, mine usage statistics, decide and prune, then
// compile a frozen trie plus its supporting artifacts. The pipeline is
// split into separately callable phases.
package pattern

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ynaga-jagger/jagger/internal/chartype"
	"github.com/ynaga-jagger/jagger/internal/decision"
	"github.com/ynaga-jagger/jagger/internal/jaggererr"
	"github.com/ynaga-jagger/jagger/internal/model"
	"github.com/ynaga-jagger/jagger/internal/symtab"
	"github.com/ynaga-jagger/jagger/internal/trie"
)

func tracer() tracing.Trace {
	return tracing.Select("jagger/pattern")
}

const maxPlen = 1 << chartype.MaxPatternBits

// patKey identifies one candidate pattern: its surface bytes, optionally
// suffixed by the dense id of the POS core immediately preceding it (-1
// for a surface-only, context-free pattern).
type patKey struct {
	Surf    string
	PrevPOS int
}

// sfKey identifies one observed (shift, feature) pair for a pattern.
type sfKey struct {
	Shift     int
	FeatureID int
}

// fsKey identifies one compiled (feature-suffix, POS-core) pair: the id a
// frozen PatternDecision actually carries.
type fsKey struct {
	FeatureID int
	TI        int
}

// patternRecord is one fully-decided pattern, ready for trie compilation.
type patternRecord struct {
	Surf      string
	PrevPOS   int
	Count     int
	Shift     int
	CType     chartype.CharType
	FeatureID int
}

// ccntEntry tracks how often a code point (or POS-pseudo-code-point) is
// used across every decided pattern, feeding the dense c2i id assignment:
// the most-used keys get the smallest ids.
type ccntEntry struct {
	Count int
	Key   int
}

// token is one mined corpus line: a surface's byte length and its full
// tab-prefixed, newline-terminated feature string.
type token struct {
	shift   int
	feature string
}

// Builder runs the pattern-extraction pipeline in three phases: seeding
// (dictionaries and literal character inventories), mining (a tagged
// corpus), and pruning/compilation. Not safe for concurrent use.
type Builder struct {
	classifier *chartype.Classifier

	tbag *symtab.Table[string]
	fbag *symtab.Table[string]
	pbag *symtab.Table[patKey]

	numSeed   int
	seedTI2FI []map[int]int

	pi2sfic []map[sfKey]int
	ti2c    []int

	records []patternRecord
	ccnt    []ccntEntry
}

// NewBuilder seeds the reserved ti/pi slots (BOS, the three synthetic POS
// cores, and the null pattern) and returns a ready-to-use Builder.
func NewBuilder() *Builder {
	b := &Builder{
		classifier: chartype.NewClassifier(),
		tbag:       symtab.New[string](),
		fbag:       symtab.New[string](),
		pbag:       symtab.New[patKey](),
	}
	b.tbag.ToID("\tBOS")             // ti=0
	b.tbag.ToID(chartype.FeatUnk)    // ti=1
	b.tbag.ToID(chartype.FeatNum)    // ti=2
	b.tbag.ToID(chartype.FeatSymbol) // ti=3
	b.pbag.ToID(patKey{"", -1})      // pi=0: null pattern
	b.growSeedTI2FI()
	return b
}

func (b *Builder) growSeedTI2FI() {
	for len(b.seedTI2FI) < b.pbag.Len() {
		b.seedTI2FI = append(b.seedTI2FI, nil)
	}
}

func (b *Builder) growPI2SFIC() {
	for len(b.pi2sfic) < b.pbag.Len() {
		b.pi2sfic = append(b.pi2sfic, nil)
	}
}

func (b *Builder) growTi2c() {
	for len(b.ti2c) < b.tbag.Len() {
		b.ti2c = append(b.ti2c, 0)
	}
}

// SeedDictionary registers every row of a MeCab-format CSV dictionary as a
// candidate word pattern. Column 0 is the surface form; columns 1-3 (left
// id, right id, cost) are skipped; the next NumPOSField columns are the POS
// core; any remaining columns (lemma, reading, ...) complete the full
// feature string. Call once per dictionary file, in the order
// the caller wants seeding precedence to follow, then call FinishSeeding
// once every seed source (dictionaries and literals) has been processed.
func (b *Builder) SeedDictionary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", jaggererr.ErrTrainInput, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	n := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", jaggererr.ErrTrainInput, path, err)
		}
		if len(row) < 4+chartype.NumPOSField {
			return fmt.Errorf("%w: %s: row %d has too few columns", jaggererr.ErrTrainInput, path, n)
		}
		surf := row[0]
		if len(surf) >= maxPlen {
			return fmt.Errorf("%w: dictionary surface %q", jaggererr.ErrPatternTooLong, surf)
		}
		core := "\t" + strings.Join(row[4:4+chartype.NumPOSField], ",")
		full := "\t" + strings.Join(row[4:], ",") + "\n"

		ti := b.tbag.ToID(core)
		fi := b.fbag.ToID(full)
		pi := b.pbag.ToID(patKey{surf, -1})
		b.growSeedTI2FI()
		if b.seedTI2FI[pi] == nil {
			b.seedTI2FI[pi] = make(map[int]int)
		}
		if _, ok := b.seedTI2FI[pi][ti]; !ok {
			b.seedTI2FI[pi][ti] = fi
		}
		n++
	}
	tracer().Infof("seeded %d dictionary rows from %s", n, path)
	return nil
}

// SeedLiterals registers the literal NUM/ALPHA/KANA character inventories
// and the fixed symbol Unicode ranges as one-character candidate patterns:
// the same seed set the char-type classifier itself is built from.
func (b *Builder) SeedLiterals() {
	for _, group := range chartype.Runes() {
		for _, r := range group {
			b.pbag.ToID(patKey{string(r), -1})
		}
	}
	for _, rg := range chartype.SymbolRanges {
		for cp := rg.Lo; cp <= rg.Hi; cp++ {
			b.pbag.ToID(patKey{string(rune(cp)), -1})
		}
	}
	tracer().Infof("seeded literal char-type and symbol-range patterns: %d total candidates", b.pbag.Len())
}

// FinishSeeding fixes the boundary between seeded patterns (ids below
// numSeed, which may fall back to a dictionary-chosen feature when never
// observed in the corpus) and patterns that can only arise from mining.
// Call once, after every SeedDictionary/SeedLiterals call and before Mine.
func (b *Builder) FinishSeeding() {
	b.numSeed = b.pbag.Len()
	b.growSeedTI2FI()
	b.growPI2SFIC()
	tracer().Infof("seeding complete: %d candidate patterns", b.numSeed)
}

// Mine reads a tagged training corpus (one "surface\tfeature" token per
// line, sentences terminated by a literal "EOS" line) and records, for
// every growing-window substring of every sentence, how often it was used
// at each (shift, feature) combination, both as a context-free pattern and
// as a pattern anchored to the immediately preceding POS core.
func (b *Builder) Mine(corpus io.Reader) error {
	scanner := bufio.NewScanner(corpus)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var cs strings.Builder
	var toks []token

	flush := func() error {
		if err := b.mineSentence(cs.String(), toks); err != nil {
			return err
		}
		cs.Reset()
		toks = toks[:0]
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "EOS" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return fmt.Errorf("%w: corpus line missing feature column: %q", jaggererr.ErrTrainInput, line)
		}
		surf := line[:tab]
		if len(surf) >= 1<<chartype.MaxPatternBits {
			return fmt.Errorf("%w: token %q", jaggererr.ErrPatternTooLong, surf)
		}
		toks = append(toks, token{shift: len(surf), feature: line[tab:] + "\n"})
		cs.WriteString(surf)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", jaggererr.ErrIO, err)
	}
	if len(toks) > 0 {
		if err := flush(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) mineSentence(cs string, toks []token) error {
	i := 0
	tiPrev := 0
	for _, tk := range toks {
		fi := b.fbag.ToID(tk.feature)

		for k := tk.shift; k <= maxPlen && i+k <= len(cs); {
			piMax := b.pbag.Len()
			pi := b.pbag.ToID(patKey{cs[i : i+k], -1})
			piCtx := b.pbag.ToID(patKey{cs[i : i+k], tiPrev})
			b.growPI2SFIC()
			if b.pi2sfic[pi] == nil {
				b.pi2sfic[pi] = make(map[sfKey]int)
			}
			if b.pi2sfic[piCtx] == nil {
				b.pi2sfic[piCtx] = make(map[sfKey]int)
			}
			b.pi2sfic[pi][sfKey{tk.shift, fi}]++
			b.pi2sfic[piCtx][sfKey{tk.shift, fi}]++
			if pi < piMax {
				// this window's context-free pattern already existed: the
				// growing loop has stopped turning up new ground.
				break
			}
			if i+k >= len(cs) {
				break
			}
			k += chartype.U8Len(cs[i+k])
		}

		core, err := posCore(tk.feature)
		if err != nil {
			return err
		}
		ti := b.tbag.ToID(core)
		b.growTi2c()

		n := b.pbag.ToID(patKey{cs[i : i+tk.shift], -1})
		if n >= b.numSeed && b.classifier.CheckRun(cs[i:i+tk.shift], chartype.ANY) != chartype.NUM {
			b.ti2c[ti]++
			piUnk := b.pbag.ToID(patKey{"", tiPrev})
			fiUnk := b.fbag.ToID(b.tbag.Value(ti) + ",*,*,*\n")
			b.growPI2SFIC()
			if b.pi2sfic[piUnk] == nil {
				b.pi2sfic[piUnk] = make(map[sfKey]int)
			}
			b.pi2sfic[piUnk][sfKey{0, fiUnk}]++
		}
		i += tk.shift
		tiPrev = ti
	}
	return nil
}

// posCore extracts the POS-core prefix (a leading tab plus the first
// NumPOSField comma-joined fields) from a full "\tPOS,sub1,sub2,sub3,...\n"
// feature string.
func posCore(feature string) (string, error) {
	rest := feature[1:] // drop the leading tab
	parts := strings.SplitN(rest, ",", chartype.NumPOSField+1)
	if len(parts) < chartype.NumPOSField {
		return "", fmt.Errorf("%w: feature %q has too few POS fields", jaggererr.ErrTrainInput, feature)
	}
	return "\t" + strings.Join(parts[:chartype.NumPOSField], ","), nil
}

// Prune decides, for every candidate pattern, which (shift, feature)
// combination it actually commits to the compiled model, then drops any
// corpus-observed pattern whose decision is identical to that of the
// deepest surface-only pattern already committed along its surface (a
// shorter prefix, or for a POS-conditioned pattern also its own surface):
// the longest match would stop at that entry and the redundant entry's
// extra bytes would never matter. Shallower committed prefixes are not
// compared, and patterns never observed in the corpus are never dropped.
// Must be called after Mine and before Compile.
func (b *Builder) Prune() error {
	b.growPI2SFIC()
	b.growTi2c()

	numKeys := chartype.CPMax + 1 + b.tbag.Len()
	ccnt := make([]ccntEntry, numKeys)
	for i := range ccnt {
		ccnt[i].Key = i
	}

	// BOS (ti=0) is never a usable unknown-word core; start at FEAT_UNK.
	maxTi := 1
	for ti := 2; ti < len(b.ti2c); ti++ {
		if b.ti2c[ti] > b.ti2c[maxTi] {
			maxTi = ti
		}
	}

	type patEntry struct {
		ID  int
		Key patKey
	}
	entries := make([]patEntry, 0, b.pbag.Len())
	b.pbag.Each(func(id int, k patKey) { entries = append(entries, patEntry{id, k}) })
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Key.Surf != entries[j].Key.Surf {
			return entries[i].Key.Surf < entries[j].Key.Surf
		}
		return entries[i].Key.PrevPOS < entries[j].Key.PrevPOS
	})

	prefix := newPrefixIndex()

	for _, e := range entries {
		pi, surf, prevPOS := e.ID, e.Key.Surf, e.Key.PrevPOS
		if surf == "" && prevPOS == -1 {
			continue // the null pattern carries no surface and no context
		}

		var shift, count, fi int
		observed := len(b.pi2sfic[pi]) > 0

		if !observed {
			switch {
			case pi < b.numSeed && len(b.seedTI2FI[pi]) > 0:
				fi = b.bestSeedFeature(pi)
			case b.classifier.CheckRun(surf, chartype.ANY) == chartype.NUM:
				fi = b.fbag.ToID(chartype.FeatNum + ",*,*,*\n")
			case b.classifier.CheckRun(surf, chartype.ANY) != chartype.OTHER:
				fi = b.fbag.ToID(b.tbag.Value(maxTi) + "," + surf + "," + surf + ",*\n")
			default:
				fi = b.fbag.ToID(chartype.FeatSymbol + ",*,*,*\n")
			}
			shift = len(surf)
		} else {
			shift, count, fi = b.bestObservedShiftFeature(pi)
			if pshift, pfi, ok := prefix.LongestAlongPath(surf); ok && pshift == shift && pfi == fi {
				continue
			}
		}

		ctype := chartype.OTHER
		if shift > 0 {
			ctype = b.classifier.CheckRun(surf[:shift], chartype.ANY)
			if ctype == chartype.NUM {
				ctype = chartype.OTHER // numbers never fuse via the concat rule
			}
		}

		weight := count + 1
		for idx := 0; idx < len(surf); {
			r, size := utf8.DecodeRuneInString(surf[idx:])
			ccnt[int(r)].Count += weight
			idx += size
		}
		if prevPOS != -1 {
			ccnt[chartype.CPMax+1+prevPOS].Count += weight
		} else {
			prefix.Insert(surf, shift, fi)
		}

		b.records = append(b.records, patternRecord{
			Surf: surf, PrevPOS: prevPOS, Count: count,
			Shift: shift, CType: ctype, FeatureID: fi,
		})
	}

	sort.Slice(b.records, func(i, j int) bool {
		if b.records[i].Count != b.records[j].Count {
			return b.records[i].Count > b.records[j].Count
		}
		return b.records[i].Surf > b.records[j].Surf
	})

	b.ccnt = ccnt
	tracer().Infof("decided %d patterns after pruning", len(b.records))
	return nil
}

// bestSeedFeature picks the dictionary-seeded feature for an unseen
// pattern by choosing, among its candidate POS cores, the one with the
// highest corpus usage count; ties favor the higher ti.
func (b *Builder) bestSeedFeature(pi int) int {
	cand := b.seedTI2FI[pi]
	tis := make([]int, 0, len(cand))
	for ti := range cand {
		tis = append(tis, ti)
	}
	sort.Ints(tis)
	best := tis[0]
	for _, ti := range tis {
		if b.ti2c[ti] >= b.ti2c[best] {
			best = ti
		}
	}
	return cand[best]
}

// bestObservedShiftFeature picks the shift most frequently used for this
// pattern (ties favor the larger shift, so a longer match wins), then the
// single most frequent feature recorded at that shift.
func (b *Builder) bestObservedShiftFeature(pi int) (shift, count, fi int) {
	sfic := b.pi2sfic[pi]
	shiftTotal := make(map[int]int, len(sfic))
	for k, c := range sfic {
		shiftTotal[k.Shift] += c
	}
	shifts := make([]int, 0, len(shiftTotal))
	for s := range shiftTotal {
		shifts = append(shifts, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(shifts)))
	bestTotal := -1
	for _, s := range shifts {
		if shiftTotal[s] > bestTotal {
			bestTotal = shiftTotal[s]
			shift = s
		}
	}
	for k, c := range sfic {
		if k.Shift == shift && c > count {
			count, fi = c, k.FeatureID
		}
	}
	return
}

// prefixNode is one node of the training-only subsumption index.
type prefixNode struct {
	children  map[byte]*prefixNode
	hasValue  bool
	shift     int
	featureID int
}

// prefixIndex is a byte-keyed trie used purely to detect subsumption while
// Prune walks decided patterns in ascending lexicographic order (which
// guarantees every prefix of a surface is inserted before the surface
// itself is checked).
type prefixIndex struct {
	root *prefixNode
}

func newPrefixIndex() *prefixIndex {
	return &prefixIndex{root: &prefixNode{children: make(map[byte]*prefixNode)}}
}

func (p *prefixIndex) Insert(key string, shift, featureID int) {
	n := p.root
	for i := 0; i < len(key); i++ {
		c := n.children[key[i]]
		if c == nil {
			c = &prefixNode{children: make(map[byte]*prefixNode)}
			n.children[key[i]] = c
		}
		n = c
	}
	n.hasValue = true
	n.shift = shift
	n.featureID = featureID
}

// LongestAlongPath walks key byte by byte along existing edges, returning
// the deepest recorded value seen before the first missing edge (or before
// key is exhausted).
func (p *prefixIndex) LongestAlongPath(key string) (shift, featureID int, ok bool) {
	n := p.root
	for i := 0; i < len(key); i++ {
		c := n.children[key[i]]
		if c == nil {
			break
		}
		n = c
		if n.hasValue {
			shift, featureID, ok = n.shift, n.featureID, true
		}
	}
	return
}

// Compile assigns dense c2i ids (most-used code points and POS cores get
// the smallest ids), lays out the final fs blob (POS cores first, then
// feature suffixes), freezes the trie over every decided pattern's key,
// and returns a ready-to-serialize model.Writer. Must be called after
// Prune.
func (b *Builder) Compile() (*model.Writer, error) {
	entries := append([]ccntEntry(nil), b.ccnt...)
	rest := entries[1:]
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Count > rest[j].Count })

	maxKey := (1 << chartype.MaxKeyBits) - 1
	fullC2I := make([]uint16, len(entries))
	for i := 1; i < len(entries); i++ {
		if entries[i].Count == 0 {
			break
		}
		if i > maxKey {
			return nil, fmt.Errorf("%w: more than %d distinct c2i keys", jaggererr.ErrFeatureTooLong, maxKey)
		}
		fullC2I[entries[i].Key] = uint16(i)
	}

	persisted := make([]uint16, model.C2ILen)
	copy(persisted, fullC2I[:model.C2ILen])

	fsbag := symtab.New[fsKey]()
	compiledFbag := symtab.New[string]()
	compiledFbag.ToID(",*,*,*\n") // fi=0: harmless placeholder suffix
	fsbag.ToID(fsKey{0, 1})       // id=0: the reserved unknown-word decision

	trieBuilder := trie.New()

	for _, rec := range b.records {
		if rec.Shift > decision.MaxShift {
			return nil, fmt.Errorf("%w: %q", jaggererr.ErrPatternTooLong, rec.Surf)
		}

		pv := make([]uint16, 0, len(rec.Surf)+1)
		for idx := 0; idx < len(rec.Surf); {
			r, size := utf8.DecodeRuneInString(rec.Surf[idx:])
			pv = append(pv, fullC2I[int(r)])
			idx += size
		}
		if rec.PrevPOS != -1 {
			pv = append(pv, fullC2I[chartype.CPMax+1+rec.PrevPOS])
		}

		full := b.fbag.Value(rec.FeatureID)
		core, err := posCore(full)
		if err != nil {
			return nil, err
		}
		ti := b.tbag.ToID(core)
		suffix := full[len(core):]
		fi := compiledFbag.ToID(suffix)

		pid := fsbag.ToID(fsKey{fi, ti})
		if pid > decision.MaxID {
			return nil, fmt.Errorf("%w: pattern id overflow", jaggererr.ErrFeatureTooLong)
		}

		d := decision.NewPatternDecision(rec.Shift, rec.CType, pid)
		slot := trieBuilder.Update(pv)
		*slot = int32(d.Persistable())
	}
	trieBuilder.Freeze()

	var fs bytes.Buffer
	coreOffset := make([]uint32, b.tbag.Len())
	b.tbag.Each(func(id int, v string) {
		coreOffset[id] = uint32(fs.Len())
		fs.WriteString(v)
	})
	suffixOffset := make([]uint32, compiledFbag.Len())
	compiledFbag.Each(func(id int, v string) {
		suffixOffset[id] = uint32(fs.Len())
		fs.WriteString(v)
	})

	maxFeat := (1 << chartype.MaxFeatureBits) - 1
	p2f := make([]decision.FeatureInfo, fsbag.Len())
	for pid := 0; pid < fsbag.Len(); pid++ {
		k := fsbag.Value(pid)
		coreStr := b.tbag.Value(k.TI)
		suffixStr := compiledFbag.Value(k.FeatureID)
		if len(coreStr) > maxFeat || len(suffixStr) > maxFeat {
			return nil, fmt.Errorf("%w: pattern id %d", jaggererr.ErrFeatureTooLong, pid)
		}
		p2f[pid] = decision.FeatureInfo{
			TI:             uint32(fullC2I[chartype.CPMax+1+k.TI]),
			CoreFeatLen:    uint32(len(coreStr)),
			FeatLen:        uint32(len(suffixStr)),
			CoreFeatOffset: coreOffset[k.TI],
			FeatOffset:     suffixOffset[k.FeatureID],
		}
	}

	tracer().Infof("compiled %d patterns into %d distinct decisions, %d bytes of feature strings",
		len(b.records), fsbag.Len(), fs.Len())

	return &model.Writer{
		C2I:  persisted,
		Trie: trieBuilder,
		P2F:  p2f,
		FS:   fs.Bytes(),
	}, nil
}
