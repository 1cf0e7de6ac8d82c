package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CTAG07/wordogram/pkg/markov"
)

// openDB opens dsn with the SQLite driver selected at build time. The pool
// is limited to one connection so an in-memory database is seen by every
// statement.
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	return db, nil
}

// newGraph builds the graph backend named in cfg. The returned function
// releases whatever the backend holds.
func newGraph(cfg *GraphConfig, logger *slog.Logger) (markov.Graph, func(), error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return markov.NewMemoryGraph(), func() {}, nil
	case "sqlite":
		db, err := openDB(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		g, err := markov.NewSQLGraph(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("could not prepare sqlite graph: %w", err)
		}
		g.SetLogger(logger)
		logger.Debug("Using sqlite graph", "driver", sqliteDriver)
		return g, func() {
			g.Close()
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown graph backend %q", cfg.Backend)
}

// newCorpus assembles a corpus from the configuration.
func newCorpus(cfg *Config, logger *slog.Logger) (*markov.Corpus, func(), error) {
	parserOpts, err := cfg.Tokenizer.Options(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid tokenizer_config: %w", err)
	}
	genOpts, err := cfg.Generator.Options()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid generator_config: %w", err)
	}
	graph, closeGraph, err := newGraph(cfg.Graph, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid graph_config: %w", err)
	}

	corpus := markov.NewCorpus(graph, markov.NewWordParser(parserOpts...), genOpts...)
	corpus.SetLogger(logger)
	return corpus, closeGraph, nil
}
