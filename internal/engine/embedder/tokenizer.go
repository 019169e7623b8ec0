package embedder

import (
	"strings"
	"unicode"

	"github.com/hejijunhao/taxon/internal/textnorm"
)

const (
	maxSeqLen        = 128
	maxWordpieceRune = 200
)

// sequence is one tokenized input: [CLS] tokens... [SEP], unpadded.
type sequence struct {
	ids  []int64
	mask []int64
}

// tokenizer performs BERT-style WordPiece tokenization (uncased).
type tokenizer struct {
	vocab *vocab
}

// encode tokenizes text, truncating so [CLS] + tokens + [SEP] fits maxSeqLen.
func (t *tokenizer) encode(text string) sequence {
	var pieces []string
	for _, word := range basicTokenize(text) {
		pieces = append(pieces, t.wordpiece(word)...)
	}
	if len(pieces) > maxSeqLen-2 {
		pieces = pieces[:maxSeqLen-2]
	}

	seq := sequence{
		ids:  make([]int64, 0, len(pieces)+2),
		mask: make([]int64, len(pieces)+2),
	}
	seq.ids = append(seq.ids, t.vocab.clsID)
	for _, p := range pieces {
		seq.ids = append(seq.ids, t.vocab.lookup(p))
	}
	seq.ids = append(seq.ids, t.vocab.sepID)
	for i := range seq.mask {
		seq.mask[i] = 1
	}
	return seq
}

// wordpiece splits one basic token into the longest-matching subwords,
// continuation pieces prefixed with "##". Undecomposable words are [UNK].
func (t *tokenizer) wordpiece(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordpieceRune {
		return []string{"[UNK]"}
	}

	var out []string
	for start := 0; start < len(runes); {
		end := len(runes)
		var piece string
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if t.vocab.contains(sub) {
				piece = sub
				break
			}
		}
		if piece == "" {
			return []string{"[UNK]"}
		}
		out = append(out, piece)
		start = end
	}
	return out
}

// basicTokenize cleans, lowercases and strips accents, then splits on
// whitespace and punctuation. CJK ideographs become single tokens.
func basicTokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
		case isWhitespace(r):
			b.WriteByte(' ')
		case isCJK(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := textnorm.StripAccents(strings.ToLower(b.String()))

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		start := 0
		for i, r := range word {
			if !isPunctuation(r) {
				continue
			}
			if i > start {
				tokens = append(tokens, word[start:i])
			}
			tokens = append(tokens, string(r))
			start = i + len(string(r))
		}
		if start < len(word) {
			tokens = append(tokens, word[start:])
		}
	}
	return tokens
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

// isPunctuation follows BERT: all non-alphanumeric printable ASCII plus
// Unicode punctuation.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
