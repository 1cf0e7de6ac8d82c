package markov

import (
	"io"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CommaStyle selects where the separator rule puts a comma around a
// conjunction.
type CommaStyle int

const (
	// CommaAfterConjunction renders "x that, y": the comma follows a
	// conjunction that does not start a sentence.
	CommaAfterConjunction CommaStyle = iota
	// CommaBeforeConjunction renders "x, that y": the comma precedes a
	// conjunction that does not start a sentence.
	CommaBeforeConjunction
)

// debugContextRadius is how many characters around a proper-noun candidate are
// logged in debug mode.
const debugContextRadius = 20

// WordParser is the default implementation of the Tokenizer interface.
// It scans text rune by rune, emits lowercased words, inserts EndToken at
// sentence boundaries, and restores the casing of words that look like
// proper nouns. Its behavior can be customized with functional options.
type WordParser struct {
	lang         Language
	conjunctions map[string]struct{}
	commaStyle   CommaStyle
	normalize    bool
	debug        bool
	logger       *slog.Logger
}

// Option Is a function that configures a WordParser.
type Option func(*WordParser)

// WithLanguage sets the alphabet, case mapping and conjunction list.
// Default: Universal
func WithLanguage(lang Language) Option {
	return func(p *WordParser) {
		p.lang = lang
	}
}

// WithCommaStyle sets where commas go around conjunctions in output.
// Default: CommaAfterConjunction
func WithCommaStyle(style CommaStyle) Option {
	return func(p *WordParser) {
		p.commaStyle = style
	}
}

// WithNormalization toggles NFC normalization of input before scanning.
// Default: true
func WithNormalization(enabled bool) Option {
	return func(p *WordParser) {
		p.normalize = enabled
	}
}

// WithDebug logs every proper-noun candidate with its surrounding text.
func WithDebug(enabled bool) Option {
	return func(p *WordParser) {
		p.debug = enabled
	}
}

// WithLogger sets the logger used in debug mode. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(p *WordParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewWordParser creates a new parser with default settings, which can be
// overridden by providing one or more Option functions.
func NewWordParser(opts ...Option) *WordParser {
	p := &WordParser{
		lang:       Universal,
		commaStyle: CommaAfterConjunction,
		normalize:  true,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.conjunctions = make(map[string]struct{}, len(p.lang.Conjunctions))
	for _, c := range p.lang.Conjunctions {
		p.conjunctions[c] = struct{}{}
	}

	return p
}

// Parsed is the result of tokenizing a text with fresh side tables.
type Parsed struct {
	Tokens []string
	Names  NameTable
	Freq   FrequencyTable
}

// Tokenize parses raw with empty side tables.
func (p *WordParser) Tokenize(raw string) Parsed {
	names := make(NameTable)
	freq := make(FrequencyTable)
	tokens := p.Parse(raw, names, freq)
	return Parsed{Tokens: tokens, Names: names, Freq: freq}
}

// Parse splits raw into lowercased words and EndToken markers. Words that
// appear capitalized in mid-sentence are recorded in names; after the scan,
// every entry of names whose capitalized form is rarer than its lowercase
// form is dropped, and surviving entries replace their lowercase tokens in the
// returned sequence. A non-empty result always ends with exactly one EndToken.
func (p *WordParser) Parse(raw string, names NameTable, freq FrequencyTable) []string {
	if p.normalize {
		raw = norm.NFC.String(raw)
	}
	caser := cases.Lower(p.lang.Tag)
	runes := []rune(raw)

	var words []string
	start := 0

	for i, ch := range runes {
		if p.isTokenChar(ch) {
			continue
		}

		if i > start {
			rawWord := string(runes[start:i])
			word := caser.String(rawWord)

			if rawWord != word && len(words) > 0 && !endsWithEnd(words) {
				if _, ok := names[word]; !ok {
					if p.debug {
						p.logCandidate(runes, start, word, rawWord)
					}
					names[word] = rawWord
				}
			}

			if isLegalWord(word) {
				words = append(words, word)
				freq[rawWord]++
			} else {
				words = appendEnd(words)
			}
		}

		if isEndChar(ch) {
			words = appendEnd(words)
		}

		start = i + 1
	}

	if start < len(runes) {
		words = append(words, caser.String(string(runes[start:])))
	}
	words = appendEnd(words)

	for word, rawWord := range names {
		if freq[word] > freq[rawWord] {
			delete(names, word)
		}
	}

	for i, word := range words {
		if name, ok := names[word]; ok {
			words[i] = name
		}
	}

	return words
}

// Separator implements the spacing rule: no separator before the first token
// or before EndToken, a comma around conjunctions according to the comma
// style, and a single space otherwise.
func (p *WordParser) Separator(prevPrev, prev, next string) string {
	if prev == "" || next == EndToken {
		return ""
	}

	switch p.commaStyle {
	case CommaBeforeConjunction:
		if prev != EndToken && p.isConjunction(next) {
			return ", "
		}
	default:
		// A missing prevPrev means prev opened the text, which counts as a
		// sentence start.
		if prevPrev != "" && prevPrev != EndToken && p.isConjunction(prev) {
			return ", "
		}
	}
	return " "
}

// EOC returns the rendering of an End-Of-Chain token.
func (p *WordParser) EOC() string {
	return EndToken
}

func (p *WordParser) isConjunction(word string) bool {
	_, ok := p.conjunctions[word]
	return ok
}

func (p *WordParser) isTokenChar(ch rune) bool {
	return p.lang.IsLetter(ch) || ch == '-' || unicode.IsDigit(ch)
}

func (p *WordParser) logCandidate(runes []rune, start int, word, rawWord string) {
	from := max(0, start-debugContextRadius)
	to := min(len(runes), start+debugContextRadius)
	context := strings.ReplaceAll(string(runes[from:to]), "\n", "")
	p.logger.Debug("Proper noun candidate",
		slog.String("name", word),
		slog.String("raw", rawWord),
		slog.String("context", context),
	)
}

// isLegalWord reports whether word may enter the chain: it must contain at
// least one non-digit and must not be a lone hyphen.
func isLegalWord(word string) bool {
	if word == "-" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isEndChar(ch rune) bool {
	switch ch {
	case '.', '?', '!', ';', '…', ':', '[', ']':
		return true
	}
	return false
}

func endsWithEnd(words []string) bool {
	return len(words) > 0 && words[len(words)-1] == EndToken
}

// appendEnd adds an EndToken unless words is empty or already ends with one.
func appendEnd(words []string) []string {
	if len(words) > 0 && !endsWithEnd(words) {
		return append(words, EndToken)
	}
	return words
}
