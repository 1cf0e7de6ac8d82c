package markov

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"time"
)

// LoadResult describes one ingested text.
type LoadResult struct {
	Tokens []string       // The token sequence fed to the graph
	Names  NameTable      // The corpus-wide name table after the load
	Freq   FrequencyTable // The corpus-wide raw word counts after the load
}

// Sentences counts the EndToken markers in the sequence.
func (r *LoadResult) Sentences() int {
	n := 0
	for _, token := range r.Tokens {
		if token == EndToken {
			n++
		}
	}
	return n
}

// Corpus is the main entry point for hosts. It owns a graph, the name and
// frequency tables shared by every load, and a Generator that is rebuilt
// lazily after the graph changes.
type Corpus struct {
	graph     Graph
	tokenizer Tokenizer
	names     NameTable
	freq      FrequencyTable
	selection Selection
	rng       *rand.Rand
	gen       *Generator
	logger    *slog.Logger
}

// NewCorpus creates an empty corpus over graph. The generate options are
// resolved once, so a seeded source keeps advancing across reloads instead of
// restarting with every rebuilt Generator.
func NewCorpus(graph Graph, tokenizer Tokenizer, opts ...GenerateOption) *Corpus {
	options := &generateOptions{
		selection: SelectWeighted,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.rng == nil {
		options.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Corpus{
		graph:     graph,
		tokenizer: tokenizer,
		names:     make(NameTable),
		freq:      make(FrequencyTable),
		selection: options.selection,
		rng:       options.rng,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the corpus and the generators it builds.
// By default, all logs are discarded.
func (c *Corpus) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
		if c.gen != nil {
			c.gen.SetLogger(logger)
		}
	}
}

// Load reads all of r and ingests it like LoadString.
func (c *Corpus) Load(r io.Reader) (*LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read corpus: %w", err)
	}
	return c.LoadString(string(data))
}

// LoadString tokenizes text and feeds every token to the graph. Loads
// accumulate: the graph, name table and frequency table keep what earlier
// loads added.
func (c *Corpus) LoadString(text string) (*LoadResult, error) {
	started := time.Now()
	tokens := c.tokenizer.Parse(text, c.names, c.freq)

	// Any change to the graph invalidates the cached generator, even a partial one.
	c.gen = nil

	if adder, ok := c.graph.(sequenceAdder); ok {
		if err := adder.AddSequence(tokens); err != nil {
			return nil, fmt.Errorf("could not add tokens to graph: %w", err)
		}
	} else {
		for _, token := range tokens {
			if err := c.graph.AddNext(token); err != nil {
				return nil, fmt.Errorf("could not add token '%s' to graph: %w", token, err)
			}
		}
	}

	result := &LoadResult{
		Tokens: tokens,
		Names:  maps.Clone(c.names),
		Freq:   maps.Clone(c.freq),
	}

	c.logger.Info("Corpus loaded",
		slog.Int("chars", len(text)),
		slog.Int("tokens", len(tokens)),
		slog.Int("sentences", result.Sentences()),
		slog.Int("names", len(c.names)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return result, nil
}

// Generate produces text of at most maxChars characters, optionally starting
// from firstWord. See Generator.Generate.
func (c *Corpus) Generate(maxChars int, firstWord string) (string, error) {
	gen, err := c.generator()
	if err != nil {
		return "", err
	}
	return gen.Generate(maxChars, firstWord)
}

// Clear empties the graph and the name and frequency tables.
func (c *Corpus) Clear() error {
	c.gen = nil
	if err := c.graph.Clear(); err != nil {
		return fmt.Errorf("could not clear graph: %w", err)
	}
	clear(c.names)
	clear(c.freq)
	c.logger.Info("Corpus cleared")
	return nil
}

// Names returns a copy of the name table.
func (c *Corpus) Names() NameTable {
	return maps.Clone(c.names)
}

// generator returns the cached Generator, building it from the current
// graph when needed.
func (c *Corpus) generator() (*Generator, error) {
	if c.gen != nil {
		return c.gen, nil
	}
	edges, err := c.graph.Transitions()
	if err != nil {
		return nil, fmt.Errorf("could not read transitions: %w", err)
	}
	c.gen = NewGenerator(edges, c.tokenizer, WithSelection(c.selection), WithRand(c.rng))
	c.gen.SetLogger(c.logger)
	c.logger.Debug("Generator rebuilt",
		slog.Int("unique_nodes", len(edges)),
		slog.String("selection", c.selection.String()),
	)
	return c.gen, nil
}
