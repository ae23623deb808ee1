package chartype

import (
	"testing"
	"unicode/utf8"
)

func TestU8Len(t *testing.T) {
	testCases := []struct {
		name string
		lead byte
		want int
	}{
		{"ascii letter", 'a', 1},
		{"ascii digit", '0', 1},
		{"newline", '\n', 1},
		{"continuation byte", 0x80, 1},
		{"two-byte lead", 0xC3, 2},
		{"three-byte lead", 0xE3, 3},
		{"four-byte lead", 0xF0, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := U8Len(tc.lead); got != tc.want {
				t.Errorf("U8Len(%#x) = %d, want %d", tc.lead, got, tc.want)
			}
		})
	}
}

func TestU8LenMatchesEncoding(t *testing.T) {
	for _, r := range []rune{'a', '0', 'é', 'あ', 'カ', '走', '𠮷', '\U0001F000'} {
		buf := make([]byte, 4)
		n := utf8.EncodeRune(buf, r)
		if got := U8Len(buf[0]); got != n {
			t.Errorf("U8Len(lead of %q) = %d, want %d", r, got, n)
		}
	}
}

func TestClassifierOf(t *testing.T) {
	c := NewClassifier()
	testCases := []struct {
		name string
		r    rune
		want CharType
	}{
		{"ascii digit", '7', NUM},
		{"fullwidth digit", '３', NUM},
		{"kanji numeral", '五', NUM},
		{"middle dot", '・', NUM},
		{"ascii lower", 'q', ALPHA},
		{"ascii upper", 'Z', ALPHA},
		{"fullwidth letter", 'ｇ', ALPHA},
		{"katakana", 'カ', KANA},
		{"katakana mark", 'ー', KANA},
		{"small katakana", 'ッ', KANA},
		{"hiragana is other", 'あ', OTHER},
		{"kanji is other", '走', OTHER},
		{"ascii symbol is other", '!', OTHER},
		{"space is other", ' ', OTHER},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Of(tc.r); got != tc.want {
				t.Errorf("Of(%q) = %v, want %v", tc.r, got, tc.want)
			}
		})
	}
}

func TestSymbolRangeStaysOther(t *testing.T) {
	// symbol ranges are seeded as patterns at training time but must not
	// gain a concatenating class
	c := NewClassifier()
	for _, r := range []rune{'!', '/', '【', '→', 0x1F004} {
		if got := c.Of(r); got != OTHER {
			t.Errorf("Of(%q) = %v, want OTHER", r, got)
		}
	}
}

func TestCheckRun(t *testing.T) {
	c := NewClassifier()
	testCases := []struct {
		name string
		s    string
		init CharType
		want CharType
	}{
		{"digit run", "123", ANY, NUM},
		{"alpha run", "abcXYZ", ANY, ALPHA},
		{"kana run", "カタカナー", ANY, KANA},
		{"mixed run is other", "a1", ANY, OTHER},
		{"kanji run is other", "走る", ANY, OTHER},
		{"empty keeps init", "", ANY, ANY},
		{"other init stays other", "123", OTHER, OTHER},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.CheckRun(tc.s, tc.init); got != tc.want {
				t.Errorf("CheckRun(%q, %v) = %v, want %v", tc.s, tc.init, got, tc.want)
			}
		})
	}
}

func FuzzU8Len(f *testing.F) {
	f.Add("a")
	f.Add("カタカナ")
	f.Add("走る123")
	f.Add("\x80\xff")
	f.Fuzz(func(t *testing.T, s string) {
		for i := 0; i < len(s); {
			n := U8Len(s[i])
			if n < 1 || n > 4 {
				t.Fatalf("U8Len(%#x) = %d out of range", s[i], n)
			}
			if r, size := utf8.DecodeRuneInString(s[i:]); r != utf8.RuneError && n != size {
				t.Errorf("U8Len(%#x) = %d, utf8 says %d", s[i], n, size)
			}
			i += n
		}
	})
}
