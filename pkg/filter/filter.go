// Package filter implements the message profanity filter.
// Text is normalized before being matched against a lexicon, so that
// accents and leetspeak substitutions do not hide a flagged word.
package filter

import (
	"regexp"
	"strings"
	"unicode"

	goaway "github.com/TwiN/go-away"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lexicon decides whether normalized text contains a flagged word.
type Lexicon interface {
	IsProfane(text string) bool
	ExtractProfanity(text string) string
}

// NewDefaultLexicon returns the go-away detector. Its own sanitizers stay on;
// they are idempotent over already normalized input.
func NewDefaultLexicon() Lexicon {
	return goaway.NewProfanityDetector()
}

// leetMap maps look-alike digits and symbols to the letter they stand for.
var leetMap = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
	'9': 'g',
	'@': 'a',
	'$': 's',
	'!': 'i',
	'|': 'i',
	'+': 't',
	'€': 'e',
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases text, strips diacritics, undoes leetspeak and
// collapses everything that is not a word character into single spaces.
func Normalize(text string) string {
	text = strings.ToLower(text)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, text); err == nil {
		text = stripped
	}

	text = strings.Map(func(r rune) rune {
		if mapped, ok := leetMap[r]; ok {
			return mapped
		}
		return r
	}, text)

	text = nonWord.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Result describes the outcome of checking one message.
type Result struct {
	Normalized  string
	Flagged     bool
	Whitelisted string
	Match       string
}

// Filter checks messages against a whitelist and a lexicon.
type Filter struct {
	lexicon   Lexicon
	whitelist []*regexp.Regexp
	words     []string
}

// New creates a Filter. Whitelist words are normalized like messages are.
func New(lexicon Lexicon, whitelist []string) *Filter {
	f := &Filter{lexicon: lexicon}
	for _, w := range whitelist {
		w = Normalize(w)
		if w == "" {
			continue
		}
		f.words = append(f.words, w)
		f.whitelist = append(f.whitelist, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return f
}

// Whitelist returns the normalized whitelist words.
func (f *Filter) Whitelist() []string {
	return append([]string{}, f.words...)
}

// Check normalizes text and reports whether it should be acted on. A whole
// whitelisted word anywhere in the message suppresses the lexicon check.
func (f *Filter) Check(text string) Result {
	res := Result{Normalized: Normalize(text)}
	if res.Normalized == "" {
		return res
	}

	for i, re := range f.whitelist {
		if re.MatchString(res.Normalized) {
			res.Whitelisted = f.words[i]
			return res
		}
	}

	if f.lexicon != nil && f.lexicon.IsProfane(res.Normalized) {
		res.Flagged = true
		res.Match = f.lexicon.ExtractProfanity(res.Normalized)
	}
	return res
}
