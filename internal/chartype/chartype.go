// Package chartype classifies Unicode code points into the small set of
// character classes the pattern runtime and trainer reason about, and
// gives the UTF-8 byte length of a character from its lead byte via a
// 16-entry nibble table. It does not decode code points itself.
package chartype

// CharType is a bitmask classification of a code point.
type CharType uint8

const (
	OTHER CharType = 0
	NUM   CharType = 1 << 0
	ALPHA CharType = 1 << 1
	KANA  CharType = 1 << 2
	ANY   CharType = NUM | ALPHA | KANA
)

// CPMax is the largest valid Unicode scalar value.
const CPMax = 0x10FFFF

// MaxPatternBits bounds a pattern surface's byte length (shift).
const MaxPatternBits = 7

// MaxFeatureBits bounds a feature or core-feature substring's byte length.
const MaxFeatureBits = 9

// MaxKeyBits bounds the dense id space used for c2i keys.
const MaxKeyBits = 14

// NumPOSField is the number of comma-joined fields that make up a POS core
// string (POS, subPOS1, subPOS2, subPOS3).
const NumPOSField = 4

// BufSize is the fixed I/O buffer size shared by the stream reader/writer.
const BufSize = 1 << 17

// Reserved feature strings, carried over byte-for-byte from the training
// pipeline's literal constants. ti=0 is BOS, ti=1..3 are these three.
const (
	FeatUnk    = "\t名詞,普通名詞,*,*"
	FeatNum    = "\t名詞,数詞,*,*"
	FeatSymbol = "\t特殊,記号,*,*"
)

// u8Len is a 16-entry table on the high nibble of a UTF-8 lead byte,
// yielding the encoded byte length (1, 2, 3, or 4).
var u8Len = [16]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 3, 4}

// U8Len returns the UTF-8 byte length of the character starting with lead.
func U8Len(lead byte) int {
	return int(u8Len[lead>>4])
}

// symbolRange is a closed inclusive Unicode scalar range.
type symbolRange struct {
	Lo, Hi int
}

// SymbolRanges are the fixed Unicode blocks treated as symbol-like during
// training seeding. Classified OTHER at match time, but seeded as patterns.
var SymbolRanges = []symbolRange{
	{0x0021, 0x002F}, {0x003A, 0x0040}, {0x005B, 0x0060}, {0x007B, 0x007E},
	{0x00A1, 0x00BF}, {0x00D7, 0x00D7}, {0x00F7, 0x00F7},
	{0x2000, 0x206F}, {0x20A0, 0x214F}, {0x2190, 0x2BFF},
	{0x3000, 0x3004}, {0x3008, 0x303F}, {0x3200, 0x33FF},
	{0xFE30, 0xFE4F}, {0xFE50, 0xFE6B}, {0xFF01, 0xFF0F}, {0xFF1A, 0xFF20},
	{0xFF3B, 0xFF40}, {0xFF5B, 0xFF65}, {0xFFE0, 0xFFEF},
	{0x10190, 0x1019C}, {0x1F000, 0x1FBFF},
}

// charGroups are the literal character inventories seeded as NUM, ALPHA,
// and KANA respectively, indexed so that group i carries bit 1<<i.
var charGroups = [3]string{
	"0123456789０１２３４５６７８９〇一二三四五六七八九十百千万億兆数・",
	"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"ａｂｃｄｅｆｇｈｉｊｋｌｍｎｏｐｑｒｓｔｕｖｗｘｙｚＡＢＣＤＥＦＧＨＩＪＫＬＭＮＯＰＱＲＳＴＵＶＷＸＹＺ",
	"ァアィイゥウェエォオカガキギクグケゲコゴサザシジスズセゼソゾタダチヂッツヅテデトドナニヌネノハバパヒビピ" +
		"フブプヘベペホボポマミムメモャヤュユョヨラリルレロヮワヰヱヲンヴヵヶヷヸヹヺーヽヾヿ",
}

// Classifier is the precomputed char_t lookup (a map from code point to
// CharType; absent code points are OTHER), built at training time from the
// literal character inventories above.
type Classifier struct {
	table map[rune]CharType
}

// NewClassifier builds a Classifier seeded from the NUM/ALPHA/KANA literal
// inventories. Symbol ranges are not registered here: they remain OTHER at
// classification time, and are seeded separately as trie patterns.
func NewClassifier() *Classifier {
	c := &Classifier{table: make(map[rune]CharType)}
	for i, group := range charGroups {
		bit := CharType(1 << uint(i))
		for _, r := range group {
			c.table[r] = bit
		}
	}
	return c
}

// Of returns the CharType of a single code point (OTHER if unclassified).
func (c *Classifier) Of(r rune) CharType {
	return c.table[r]
}

// Runes returns the NUM, ALPHA, and KANA inventories in group-index order,
// for callers that need to iterate the literal character seed sets (e.g.
// the pattern builder registering one-character seed patterns).
func Runes() [3]string {
	return charGroups
}

// CheckRun classifies a UTF-8 run, intersecting the CharType mask across
// every code point, starting from init (use ANY for "all of NUM|ALPHA|KANA
// allowed", OTHER to require the empty intersection trivially). Short-circuits
// as soon as the running mask goes to zero.
func (c *Classifier) CheckRun(s string, init CharType) CharType {
	mask := init
	for _, r := range s {
		if mask == 0 {
			break
		}
		mask &= c.Of(r)
	}
	return mask
}
