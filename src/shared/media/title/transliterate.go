package title

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that carry no combining mark under NFKD but still have a plain
// text spelling
var foldTable = map[rune]string{
	'ß': "ss", 'ẞ': "SS",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
	'ø': "o", 'Ø': "O",
	'ł': "l", 'Ł': "L",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "Th",
	'ı': "i",
	'‘': "'", '’': "'", '‚': "'", '′': "'",
	'“': `"`, '”': `"`, '„': `"`, '″': `"`,
	'‐': "-", '‑': "-", '‒': "-", '–': "-", '—': "-", '―': "-", '−': "-",
	'…': "...",
	' ': " ",
}

func newStripper() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// transliterate reduces text to ASCII wherever a text equivalent exists.
// Runes without one are kept; the filename sanitizer deals with them.
func transliterate(s string) string {
	stripped, _, err := transform.String(newStripper(), s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if folded, ok := foldTable[r]; ok {
			b.WriteString(folded)
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
