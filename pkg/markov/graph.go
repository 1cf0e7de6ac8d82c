package markov

// Transitions maps a chain state to the tokens observed after it and how
// many times each was observed.
type Transitions map[string]map[string]int

// Graph accumulates first-order transitions between consecutive tokens.
// Graphs are append-only: weights only grow and states are never removed
// except by Clear.
type Graph interface {
	// AddNext records a transition from the current state to token and makes
	// token the current state. The initial state is EndToken.
	AddNext(token string) error
	// Clear removes every transition and resets the current state to EndToken.
	Clear() error
	// Transitions returns the full transition table. Callers must not modify it.
	Transitions() (Transitions, error)
}

// sequenceAdder is implemented by graphs that can ingest a whole token
// sequence more efficiently than one AddNext call per token.
type sequenceAdder interface {
	AddSequence(tokens []string) error
}

// MemoryGraph is a Graph held in nested maps.
type MemoryGraph struct {
	edges   Transitions
	current string
}

// NewMemoryGraph returns an empty graph whose current state is EndToken.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		edges:   make(Transitions),
		current: EndToken,
	}
}

// AddNext never fails.
func (m *MemoryGraph) AddNext(token string) error {
	next, ok := m.edges[m.current]
	if !ok {
		next = make(map[string]int)
		m.edges[m.current] = next
	}
	next[token]++
	m.current = token
	return nil
}

// Clear never fails.
func (m *MemoryGraph) Clear() error {
	clear(m.edges)
	m.current = EndToken
	return nil
}

// Transitions returns the live transition table.
func (m *MemoryGraph) Transitions() (Transitions, error) {
	return m.edges, nil
}

// Current returns the state the next AddNext will transition from.
func (m *MemoryGraph) Current() string {
	return m.current
}
