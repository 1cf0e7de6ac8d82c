package markov

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// endTokenID is the reserved vocabulary ID of EndToken.
const endTokenID = 1

// SetupSchema initializes the necessary tables and the EndToken vocabulary
// entry in the provided database. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS markov_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaChains = `
CREATE TABLE IF NOT EXISTS markov_chains (
    prefix_id INTEGER NOT NULL,
    next_token_id INTEGER NOT NULL,
    frequency  INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (prefix_id, next_token_id)
);
`
	)

	endToken := fmt.Sprintf("INSERT OR IGNORE INTO markov_vocabulary (token_id, token_text) VALUES (%d, '%s');", endTokenID, EndToken)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaVocab); err != nil {
		return fmt.Errorf("could not create vocabulary schema: %w", err)
	}

	if _, err = tx.Exec(schemaChains); err != nil {
		return fmt.Errorf("could not create chains schema: %w", err)
	}

	if _, err = tx.Exec(endToken); err != nil {
		return fmt.Errorf("could not insert end token: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// SQLGraph is a Graph stored in a SQL database. It exists for corpora whose
// transition tables are better kept in SQLite than in Go maps; it is not a
// persistence format, and NewSQLGraph empties any tables it finds.
type SQLGraph struct {
	db              *sql.DB
	current         int
	ids             map[string]int
	stmtInsertVocab *sql.Stmt
	stmtInsertLink  *sql.Stmt
	stmtTransitions *sql.Stmt
	stmtClearChains *sql.Stmt
	stmtClearVocab  *sql.Stmt
	stmtCountChains *sql.Stmt
	logger          *slog.Logger
}

// NewSQLGraph prepares the schema and statements on db and clears any
// existing transitions.
func NewSQLGraph(db *sql.DB) (*SQLGraph, error) {
	if err := SetupSchema(db); err != nil {
		return nil, err
	}

	g := &SQLGraph{
		db:      db,
		current: endTokenID,
		ids:     map[string]int{EndToken: endTokenID},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	statements := []struct {
		stmt  **sql.Stmt
		query string
	}{
		{&g.stmtInsertVocab, `INSERT INTO markov_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`},
		{&g.stmtInsertLink, `INSERT INTO markov_chains (prefix_id, next_token_id) VALUES (?, ?) ON CONFLICT(prefix_id, next_token_id) DO UPDATE SET frequency = frequency + 1;`},
		{&g.stmtTransitions, `
SELECT p.token_text, n.token_text, c.frequency
FROM markov_chains c
JOIN markov_vocabulary p ON p.token_id = c.prefix_id
JOIN markov_vocabulary n ON n.token_id = c.next_token_id;`},
		{&g.stmtClearChains, `DELETE FROM markov_chains;`},
		{&g.stmtClearVocab, `DELETE FROM markov_vocabulary WHERE token_id != ?;`},
		{&g.stmtCountChains, `SELECT COUNT(*) FROM markov_chains;`},
	}
	for _, s := range statements {
		stmt, err := db.Prepare(s.query)
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*s.stmt = stmt
	}

	if err := g.Clear(); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// Close releases all prepared SQL statements held by the graph. The database
// itself belongs to the caller.
func (g *SQLGraph) Close() {
	for _, stmt := range []*sql.Stmt{
		g.stmtInsertVocab,
		g.stmtInsertLink,
		g.stmtTransitions,
		g.stmtClearChains,
		g.stmtClearVocab,
		g.stmtCountChains,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the graph. By default, all logs are discarded.
func (g *SQLGraph) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// AddNext records a single transition outside of any transaction. For whole
// texts AddSequence is significantly faster.
func (g *SQLGraph) AddNext(token string) error {
	tokenID, err := g.tokenID(token)
	if err != nil {
		return err
	}
	if _, err = g.stmtInsertLink.Exec(g.current, tokenID); err != nil {
		return fmt.Errorf("could not insert transition to '%s': %w", token, err)
	}
	g.current = tokenID
	return nil
}

// AddSequence records the transitions of tokens inside a single transaction.
// On failure nothing is recorded and the current state is left unchanged.
func (g *SQLGraph) AddSequence(tokens []string) error {
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtInsertVocab := tx.Stmt(g.stmtInsertVocab)
	stmtInsertLink := tx.Stmt(g.stmtInsertLink)

	pending := make(map[string]int)
	current := g.current

	for _, token := range tokens {
		tokenID, ok := g.ids[token]
		if !ok {
			if tokenID, ok = pending[token]; !ok {
				if err = stmtInsertVocab.QueryRow(token).Scan(&tokenID); err != nil {
					return fmt.Errorf("sql insert vocabulary error for token '%s': %w", token, err)
				}
				pending[token] = tokenID
			}
		}
		if _, err = stmtInsertLink.Exec(current, tokenID); err != nil {
			return fmt.Errorf("failed to insert chain link (%d -> %d): %w", current, tokenID, err)
		}
		current = tokenID
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	for token, id := range pending {
		g.ids[token] = id
	}
	g.current = current

	g.logger.Debug("Sequence added",
		slog.Int("tokens", len(tokens)),
		slog.Int("new_vocabulary", len(pending)),
	)
	return nil
}

// Clear deletes every transition and every vocabulary entry except EndToken.
func (g *SQLGraph) Clear() error {
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Stmt(g.stmtClearChains).Exec(); err != nil {
		return fmt.Errorf("failed to clear chains: %w", err)
	}
	if _, err = tx.Stmt(g.stmtClearVocab).Exec(endTokenID); err != nil {
		return fmt.Errorf("failed to clear vocabulary: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	g.ids = map[string]int{EndToken: endTokenID}
	g.current = endTokenID
	return nil
}

// Transitions reads the whole chain table into memory.
func (g *SQLGraph) Transitions() (Transitions, error) {
	rows, err := g.stmtTransitions.Query()
	if err != nil {
		return nil, fmt.Errorf("could not query transitions: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	edges := make(Transitions)
	for rows.Next() {
		var from, to string
		var freq int
		if err = rows.Scan(&from, &to, &freq); err != nil {
			return nil, err
		}
		next, ok := edges[from]
		if !ok {
			next = make(map[string]int)
			edges[from] = next
		}
		next[to] = freq
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// ChainCount returns the number of distinct transitions stored.
func (g *SQLGraph) ChainCount() (int, error) {
	var count int
	if err := g.stmtCountChains.QueryRow().Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// tokenID returns the vocabulary ID of token, inserting it when needed.
func (g *SQLGraph) tokenID(token string) (int, error) {
	if id, ok := g.ids[token]; ok {
		return id, nil
	}
	var id int
	if err := g.stmtInsertVocab.QueryRow(token).Scan(&id); err != nil {
		return 0, fmt.Errorf("sql insert vocabulary error for token '%s': %w", token, err)
	}
	g.ids[token] = id
	return id, nil
}
