package markov

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// EndToken is the reserved token marking sentence and chain boundaries. It is
// also the text rendered for a boundary in generated output. A '.' is never a
// word character, so EndToken cannot collide with a real word.
const EndToken = "."

var (
	// ErrInvalidLength is returned when a generation budget is not positive.
	ErrInvalidLength = errors.New("max length must be positive")
	// ErrWordNotFound is returned when a word has never been seen as a chain state.
	ErrWordNotFound = errors.New("word not found")
	// ErrCorruptState signals that transition weights are inconsistent, e.g. a
	// weighted draw fell outside every cumulative range.
	ErrCorruptState = errors.New("corrupt transition state")
)

// NameTable maps a lowercase token to the original-case rendering that should
// be used for it in output.
type NameTable map[string]string

// FrequencyTable counts raw, original-case surface forms of words.
type FrequencyTable map[string]int

// Tokenizer is an interface that defines the contract for splitting input text
// into tokens and for joining tokens back into text. This allows the core
// generator logic to be independent of the specific language rules.
type Tokenizer interface {
	// Parse splits raw text into tokens. Proper-noun candidates and raw word
	// counts are recorded in names and freq, which belong to the caller and
	// may carry entries from earlier calls.
	Parse(raw string, names NameTable, freq FrequencyTable) []string
	// Separator returns the string placed before next, given the two tokens
	// emitted before it. An empty prev means next is the first token.
	Separator(prevPrev, prev, next string) string
	// EOC returns the string representation for an End-Of-Chain token
	// in the final generated output.
	EOC() string
}

// Capitalize returns s with its leading rune upper-cased.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	upper := unicode.ToUpper(r)
	if upper == r {
		return s
	}
	return string(upper) + s[size:]
}
