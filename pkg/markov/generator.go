package markov

import (
	"io"
	"log/slog"
	"math/rand/v2"
)

// Selection is the policy used to pick the next token of a walk.
type Selection int

const (
	// SelectWeighted picks a next token with probability proportional to how
	// often it followed the current token in the corpus.
	SelectWeighted Selection = iota
	// SelectUniform picks uniformly among the distinct next tokens, ignoring
	// their frequencies.
	SelectUniform
)

// String returns the configuration name of the policy.
func (s Selection) String() string {
	if s == SelectUniform {
		return "uniform"
	}
	return "weighted"
}

// SelectionByName resolves the names used in configuration files.
func SelectionByName(name string) (Selection, bool) {
	switch name {
	case "", "weighted":
		return SelectWeighted, true
	case "uniform":
		return SelectUniform, true
	}
	return SelectWeighted, false
}

// generateOptions Is used by NewGenerator to configure default options.
type generateOptions struct {
	selection Selection
	rng       *rand.Rand
}

// GenerateOption is a function that configures a Generator. Options are applied
// once at construction; a Generator's policy never changes afterwards.
type GenerateOption func(*generateOptions)

// WithSelection sets the next-token policy. Default: SelectWeighted
func WithSelection(s Selection) GenerateOption {
	return func(o *generateOptions) { o.selection = s }
}

// WithRand sets the random source used for every draw. Tests pass a seeded
// source to make walks reproducible.
func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) {
		if r != nil {
			o.rng = r
		}
	}
}

// WithSeed is shorthand for WithRand with a PCG source seeded by seed.
func WithSeed(seed uint64) GenerateOption {
	return func(o *generateOptions) { o.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// Generator walks a snapshot of a transition table to produce text. A
// Generator must be discarded once the graph it was built from changes.
type Generator struct {
	edges     Transitions
	tokenizer Tokenizer
	selection Selection
	rng       *rand.Rand
	tables    map[string]*cumulative
	logger    *slog.Logger
}

// NewGenerator creates a Generator over edges that renders text with the
// separator and end-of-chain rules of tokenizer.
func NewGenerator(edges Transitions, tokenizer Tokenizer, opts ...GenerateOption) *Generator {
	options := &generateOptions{
		selection: SelectWeighted,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.rng == nil {
		options.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Generator{
		edges:     edges,
		tokenizer: tokenizer,
		selection: options.selection,
		rng:       options.rng,
		tables:    make(map[string]*cumulative),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Selection returns the policy the Generator was built with.
func (g *Generator) Selection() Selection {
	return g.selection
}
