package markov

import (
	"fmt"
	"sort"
)

// Stats holds aggregated statistics for a corpus.
type Stats struct {
	UniqueNodes    int `json:"unique_nodes"`    // The number of tokens that have been a chain state.
	ProperNouns    int `json:"proper_nouns"`    // The number of validated proper-noun renderings.
	TotalChains    int `json:"total_chains"`    // The number of unique token->next_token links.
	TotalFrequency int `json:"total_frequency"` // The sum of all link weights; the total number of transitions.
	StartingTokens int `json:"starting_tokens"` // The number of unique tokens that can start a sentence.
}

// Edge is one outgoing transition of a token.
type Edge struct {
	Token  string `json:"token"`
	Weight int    `json:"weight"`
}

// Stats returns a snapshot of statistics for the corpus.
func (c *Corpus) Stats() (Stats, error) {
	edges, err := c.graph.Transitions()
	if err != nil {
		return Stats{}, fmt.Errorf("could not read transitions: %w", err)
	}

	stats := Stats{
		UniqueNodes:    len(edges),
		ProperNouns:    len(c.names),
		StartingTokens: len(edges[EndToken]),
	}
	for _, next := range edges {
		stats.TotalChains += len(next)
		for _, weight := range next {
			stats.TotalFrequency += weight
		}
	}
	return stats, nil
}

// StatsFor returns the outgoing transitions of word, heaviest first. The
// word is matched like a generation hint: verbatim, lowercased, then
// capitalized. ErrWordNotFound is returned when none of them is a state.
func (c *Corpus) StatsFor(word string) ([]Edge, error) {
	edges, err := c.graph.Transitions()
	if err != nil {
		return nil, fmt.Errorf("could not read transitions: %w", err)
	}
	known, ok := lookupWord(edges, word)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrWordNotFound, word)
	}
	return SortedEdges(edges[known]), nil
}

// SortedEdges flattens a next-token map, heaviest first and alphabetically
// among equal weights.
func SortedEdges(next map[string]int) []Edge {
	result := make([]Edge, 0, len(next))
	for token, weight := range next {
		result = append(result, Edge{Token: token, Weight: weight})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weight != result[j].Weight {
			return result[i].Weight > result[j].Weight
		}
		return result[i].Token < result[j].Token
	})
	return result
}
