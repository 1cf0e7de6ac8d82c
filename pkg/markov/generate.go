package markov

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"
)

// cumulative holds the next tokens of one state in sorted order together with
// the running sum of their weights. bounds[i] is the exclusive upper end of
// the draw range that selects tokens[i].
type cumulative struct {
	tokens []string
	bounds []int
	total  int
	valid  bool
}

func newCumulative(next map[string]int) *cumulative {
	c := &cumulative{
		tokens: make([]string, 0, len(next)),
		bounds: make([]int, 0, len(next)),
		valid:  true,
	}
	for token := range next {
		c.tokens = append(c.tokens, token)
	}
	sort.Strings(c.tokens)
	for _, token := range c.tokens {
		weight := next[token]
		if weight <= 0 {
			c.valid = false
		}
		c.total += weight
		c.bounds = append(c.bounds, c.total)
	}
	return c
}

// pick returns the token whose range contains draw.
func (c *cumulative) pick(draw int) (string, error) {
	i := sort.SearchInts(c.bounds, draw+1)
	if i >= len(c.tokens) {
		return "", fmt.Errorf("%w: draw %d not covered by total weight %d", ErrCorruptState, draw, c.total)
	}
	return c.tokens[i], nil
}

// Generate walks the chain and renders it as text of at most maxChars
// characters. With an empty firstWord the walk starts from a sentence-initial
// word chosen from the corpus; otherwise it starts from firstWord, matched
// verbatim, lowercased or capitalized, and used literally when none of those
// is known. The walk ends at a dead end or when the next token does not fit;
// an unfinished sentence is closed with the end-of-chain text when it fits.
func (g *Generator) Generate(maxChars int, firstWord string) (string, error) {
	if maxChars <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLength, maxChars)
	}

	word, ok, err := g.startWord(firstWord)
	if err != nil {
		return "", fmt.Errorf("failed to choose first word: %w", err)
	}

	var builder strings.Builder
	var prevPrev, prev string
	length := 0
	tokenCount := 0

	for ok {
		sep := g.tokenizer.Separator(prevPrev, prev, word)
		sepLen := utf8.RuneCountInString(sep)
		wordLen := utf8.RuneCountInString(word)

		if length+sepLen+wordLen > maxChars {
			g.logger.Debug("Generation stopped by max length",
				slog.Int("max_chars", maxChars),
				slog.Int("generated_chars", length),
				slog.Int("generated_tokens", tokenCount),
			)
			break
		}

		builder.WriteString(sep)
		if prev == "" || prev == EndToken {
			builder.WriteString(Capitalize(word))
		} else {
			builder.WriteString(word)
		}
		length += sepLen + wordLen
		tokenCount++

		prevPrev, prev = prev, word
		word, ok, err = g.NextToken(word)
		if err != nil {
			return "", fmt.Errorf("failed to choose token after '%s': %w", prev, err)
		}
		if !ok {
			g.logger.Debug("Generation terminated due to dead-end",
				slog.String("last_token", prev),
				slog.Int("generated_tokens", tokenCount),
			)
		}
	}

	// Ensure that an unfinished sentence ends with an EOC when there is room for it.
	if eoc := g.tokenizer.EOC(); prev != EndToken && length+utf8.RuneCountInString(eoc) <= maxChars {
		builder.WriteString(eoc)
	}

	return builder.String(), nil
}

// NextToken picks the successor of word according to the Generator's
// selection policy. It reports false when word has no outgoing transitions.
func (g *Generator) NextToken(word string) (string, bool, error) {
	next, ok := g.edges[word]
	if !ok || len(next) == 0 {
		return "", false, nil
	}

	table, ok := g.tables[word]
	if !ok {
		table = newCumulative(next)
		g.tables[word] = table
	}

	if g.selection == SelectUniform {
		return table.tokens[g.rng.IntN(len(table.tokens))], true, nil
	}

	if !table.valid || table.total <= 0 {
		return "", false, fmt.Errorf("%w: non-positive weight after '%s'", ErrCorruptState, word)
	}
	token, err := table.pick(g.rng.IntN(table.total))
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// startWord resolves the first token of a walk.
func (g *Generator) startWord(hint string) (string, bool, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return g.NextToken(EndToken)
	}
	if known, ok := lookupWord(g.edges, hint); ok {
		return known, true, nil
	}
	// Unknown words are still emitted; the walk ends right after them.
	return hint, true, nil
}

// lookupWord finds word among the states of edges, trying it verbatim, then
// lowercased, then capitalized.
func lookupWord(edges Transitions, word string) (string, bool) {
	if _, ok := edges[word]; ok {
		return word, true
	}
	lower := strings.ToLower(word)
	if _, ok := edges[lower]; ok {
		return lower, true
	}
	capitalized := Capitalize(lower)
	if _, ok := edges[capitalized]; ok {
		return capitalized, true
	}
	return "", false
}
