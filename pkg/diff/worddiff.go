// Package diff implements the change-tracking core: word-level text
// diffing, field-level change detection, structured diff building, and
// human-readable change narration.
package diff

import (
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/natty6418/task-flow-sub000/pkg/models"
)

// WordDiff computes a word-level alignment between two strings. The
// result is lossless: concatenating the values of all non-removed parts
// reconstructs newText, and all non-added parts reconstruct oldText.
// Identical inputs yield a single unchanged part. The function is pure
// and deterministic for identical inputs.
//
// Tokens are words, whitespace runs, and individual punctuation marks,
// which keeps diffs readable for prose-like description fields.
func WordDiff(oldText, newText string) []models.TextDiffPart {
	if oldText == newText {
		return []models.TextDiffPart{{Value: newText}}
	}

	enc := newTokenEncoder()
	a := enc.encode(tokenize(oldText))
	b := enc.encode(tokenize(newText))

	dmp := diffmatchpatch.New()
	// A deadline would make tie-breaking load-dependent; diffs must be
	// reproducible for identical inputs.
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMain(a, b, false)

	var parts []models.TextDiffPart
	for _, d := range diffs {
		value := enc.decode(d.Text)
		if value == "" {
			continue
		}
		part := models.TextDiffPart{
			Value:   value,
			Added:   d.Type == diffmatchpatch.DiffInsert,
			Removed: d.Type == diffmatchpatch.DiffDelete,
		}
		if n := len(parts); n > 0 && parts[n-1].Added == part.Added && parts[n-1].Removed == part.Removed {
			parts[n-1].Value += part.Value
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// tokenize splits text into words (letters, digits, apostrophes,
// underscores), whitespace runs, and single punctuation marks. The
// concatenation of all tokens is the original text.
func tokenize(text string) []string {
	const (
		classNone = iota
		classWord
		classSpace
	)

	var tokens []string
	var cur []rune
	curClass := classNone

	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
		curClass = classNone
	}

	for _, r := range text {
		var class int
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '_':
			class = classWord
		case unicode.IsSpace(r):
			class = classSpace
		default:
			// Punctuation stands alone so "bug." and "bug" share a token.
			flush()
			tokens = append(tokens, string(r))
			continue
		}
		if class != curClass {
			flush()
			curClass = class
		}
		cur = append(cur, r)
	}
	flush()
	return tokens
}

// tokenEncoder maps distinct tokens to runes so the rune-oriented diff
// core operates on whole words. The mapping is reversible per token, so
// decoding a diff segment reproduces the exact original text.
type tokenEncoder struct {
	runes  map[string]rune
	tokens []string
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{runes: make(map[string]rune)}
}

func (e *tokenEncoder) encode(tokens []string) string {
	encoded := make([]rune, 0, len(tokens))
	for _, tok := range tokens {
		r, ok := e.runes[tok]
		if !ok {
			r = rune(len(e.tokens) + 1)
			// Surrogate halves are not valid runes; skip past them.
			if r >= 0xD800 {
				r += 0x0800
			}
			e.runes[tok] = r
			e.tokens = append(e.tokens, tok)
		}
		encoded = append(encoded, r)
	}
	return string(encoded)
}

func (e *tokenEncoder) decode(encoded string) string {
	var out []byte
	for _, r := range encoded {
		idx := int(r) - 1
		if r > 0xDFFF {
			idx -= 0x0800
		}
		if idx >= 0 && idx < len(e.tokens) {
			out = append(out, e.tokens[idx]...)
		}
	}
	return string(out)
}
