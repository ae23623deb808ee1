// Package decision defines the two compiled-model record types: the
// bit-packed PatternDecision stored in the trie, and the plain-struct
// FeatureInfo stored in the p2f artifact.
package decision

import "github.com/ynaga-jagger/jagger/internal/chartype"

// PatternDecision packs (shift, ctype, id, concat) into a single uint32.
// Bit layout, low to high: shift (7 bits), ctype (4 bits), id (20 bits),
// concat (1 bit, runtime-only, never persisted to the .da/.p2f artifacts).
// Accessor methods keep the packing an implementation detail.
type PatternDecision uint32

const (
	shiftBits = 7
	ctypeBits = 4
	idBits    = 20

	shiftMask = (1 << shiftBits) - 1
	ctypeMask = (1 << ctypeBits) - 1
	idMask    = (1 << idBits) - 1

	ctypeShift = shiftBits
	idShift    = shiftBits + ctypeBits
	concatBit  = shiftBits + ctypeBits + idBits
)

// MaxShift is the largest representable shift value.
const MaxShift = shiftMask

// MaxID is the largest representable feature/pattern index.
const MaxID = idMask

// NewPatternDecision packs shift/ctype/id into a record; concat starts
// false (so the record is already persistable) and is set later via
// WithConcat.
func NewPatternDecision(shift int, ctype chartype.CharType, id int) PatternDecision {
	var d PatternDecision
	d = d.WithShift(shift).WithCType(ctype).WithID(id)
	return d
}

func (d PatternDecision) Shift() int { return int(d) & shiftMask }

func (d PatternDecision) WithShift(shift int) PatternDecision {
	return (d &^ shiftMask) | PatternDecision(shift&shiftMask)
}

func (d PatternDecision) CType() chartype.CharType {
	return chartype.CharType((int(d) >> ctypeShift) & ctypeMask)
}

func (d PatternDecision) WithCType(ct chartype.CharType) PatternDecision {
	return (d &^ (ctypeMask << ctypeShift)) | PatternDecision(int(ct)&ctypeMask)<<ctypeShift
}

func (d PatternDecision) ID() int {
	return (int(d) >> idShift) & idMask
}

func (d PatternDecision) WithID(id int) PatternDecision {
	return (d &^ (idMask << idShift)) | PatternDecision(id&idMask)<<idShift
}

func (d PatternDecision) Concat() bool {
	return (d>>concatBit)&1 == 1
}

func (d PatternDecision) WithConcat(concat bool) PatternDecision {
	if concat {
		return d | (1 << concatBit)
	}
	return d &^ (1 << concatBit)
}

// Persistable strips the runtime-only concat bit, yielding the value that
// is valid to write into the .da trie / compare against a freshly-read one.
func (d PatternDecision) Persistable() PatternDecision {
	return d &^ (1 << concatBit)
}

// FeatureInfo is one entry of the p2f artifact. Go has no bitfields, so
// this is a plain fixed-width struct; the MaxKeyBits/MaxFeatureBits bounds
// are enforced as range checks at compile time rather than by the fields'
// physical width. Five uint32 slots, read straight off the mmap'd .p2f
// file with a fixed 20-byte stride.
type FeatureInfo struct {
	TI             uint32 // POS/core-feature string id, through c2i
	CoreFeatLen    uint32 // byte length of the core-feature substring
	FeatLen        uint32 // byte length of the full feature substring
	CoreFeatOffset uint32 // compact-mode only: byte offset into fs
	FeatOffset     uint32 // byte offset into fs
}
