package markov

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Language bundles the language-specific rules used by WordParser: the tag
// used for case mapping, the letters that may form words, and the closed set
// of conjunctions and relative pronouns that attract a comma in output.
type Language struct {
	Tag          language.Tag
	IsLetter     func(rune) bool
	Conjunctions []string
}

var russianConjunctions = []string{"но", "а", "что", "чтобы", "который", "которая", "которые", "которую", "когда"}

var englishConjunctions = []string{"but", "that", "which", "who", "whom", "whose", "when"}

// Russian accepts only the letters of the modern Russian alphabet.
var Russian = Language{
	Tag:          language.Russian,
	IsLetter:     isRussianLetter,
	Conjunctions: russianConjunctions,
}

// English accepts Latin letters.
var English = Language{
	Tag:          language.English,
	IsLetter:     isLatinLetter,
	Conjunctions: englishConjunctions,
}

// Universal accepts any Unicode letter and knows the conjunctions of both
// Russian and English. It is the default.
var Universal = Language{
	Tag:          language.Und,
	IsLetter:     unicode.IsLetter,
	Conjunctions: append(append([]string{}, russianConjunctions...), englishConjunctions...),
}

// LanguageByName resolves the names used in configuration files. Matching is
// case-insensitive.
func LanguageByName(name string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "universal":
		return Universal, true
	case "russian", "ru":
		return Russian, true
	case "english", "en":
		return English, true
	}
	return Language{}, false
}

func isRussianLetter(r rune) bool {
	r = unicode.ToLower(r)
	return r >= 'а' && r <= 'я' || r == 'ё'
}

func isLatinLetter(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}
