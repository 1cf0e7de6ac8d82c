/*
Package markov builds a first-order Markov chain over the words of a text
corpus and generates bounded-length pseudo-text from it.

A WordParser turns raw text into a lowercased token stream with sentence
boundaries (the END token) and restores the casing of words it has judged
to be proper nouns. A Graph counts word-to-word transitions, and a
Generator walks those transitions with frequency-weighted random choice,
rendering the walk under a character budget. Corpus ties the three together
and is what a host program normally talks to:

	corpus := markov.NewCorpus(markov.NewMemoryGraph(), markov.NewWordParser())
	if _, err := corpus.LoadString(text); err != nil {
		// ...
	}
	sentence, err := corpus.Generate(140, "")

Nothing in this package is safe for concurrent use; callers that share a
Corpus between goroutines must serialize access to it.
*/
package markov
