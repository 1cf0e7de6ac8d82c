package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/CTAG07/wordogram/pkg/markov"
)

// CorpusAPI holds the dependencies for the corpus API handlers. Every
// request holds the mutex, so the corpus only ever sees one caller.
type CorpusAPI struct {
	mu         sync.Mutex
	corpus     *markov.Corpus
	defaultMax int
	maxBody    int64
	logger     *slog.Logger
}

// LoadResponse is returned after text has been added to the corpus.
type LoadResponse struct {
	Tokens    int          `json:"tokens"`
	Sentences int          `json:"sentences"`
	Stats     markov.Stats `json:"stats"`
}

// GenerateResponse wraps generated text.
type GenerateResponse struct {
	Text string `json:"text"`
}

// WordStatsResponse lists the outgoing transitions of one word.
type WordStatsResponse struct {
	Word string        `json:"word"`
	Next []markov.Edge `json:"next"`
}

// NewCorpusAPI creates a new instance of the CorpusAPI.
func NewCorpusAPI(corpus *markov.Corpus, cfg *Config, logger *slog.Logger) *CorpusAPI {
	return &CorpusAPI{
		corpus:     corpus,
		defaultMax: cfg.Generator.DefaultMaxChars,
		maxBody:    cfg.Server.MaxBodyBytes,
		logger:     logger,
	}
}

// RegisterRoutes sets up the routing for the corpus, generate and stats endpoints.
func (a *CorpusAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/corpus", a.handleCorpus)
	mux.HandleFunc("/api/generate", a.handleGenerate)
	mux.HandleFunc("/api/stats", a.handleStats)
	mux.HandleFunc("/api/stats/", a.handleWordStats)
}

// handleCorpus handles POST for loading text and DELETE for clearing the corpus.
func (a *CorpusAPI) handleCorpus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.handleLoad(w, r)
	case http.MethodDelete:
		a.mu.Lock()
		err := a.corpus.Clear()
		a.mu.Unlock()
		if err != nil {
			a.logger.Error("Failed to clear corpus", "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to clear corpus: %v", err))
			return
		}
		a.logger.Info("Corpus cleared via API")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (a *CorpusAPI) handleLoad(w http.ResponseWriter, r *http.Request) {
	charset := "utf-8"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil && params["charset"] != "" {
			charset = params["charset"]
		}
	}

	body := r.Body
	if a.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, a.maxBody)
	}
	decoded, err := decodeReader(body, charset)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return
		}
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	result, err := a.corpus.LoadString(string(data))
	if err != nil {
		a.logger.Error("Failed to load text", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load text: %v", err))
		return
	}
	stats, err := a.corpus.Stats()
	if err != nil {
		a.logger.Error("Failed to read stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read stats: %v", err))
		return
	}

	respondWithJSON(w, http.StatusOK, LoadResponse{
		Tokens:    len(result.Tokens),
		Sentences: result.Sentences(),
		Stats:     stats,
	})
}

// handleGenerate produces text for GET /api/generate?max_chars=N&word=W.
func (a *CorpusAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	maxChars := a.defaultMax
	if raw := r.URL.Query().Get("max_chars"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "max_chars must be a positive integer")
			return
		}
		maxChars = n
	}
	word := r.URL.Query().Get("word")

	a.mu.Lock()
	text, err := a.corpus.Generate(maxChars, word)
	a.mu.Unlock()
	if err != nil {
		if errors.Is(err, markov.ErrInvalidLength) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Error("Failed to generate text", "max_chars", maxChars, "word", word, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate text: %v", err))
		return
	}

	respondWithJSON(w, http.StatusOK, GenerateResponse{Text: text})
}

// handleStats returns corpus-wide statistics.
func (a *CorpusAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	a.mu.Lock()
	stats, err := a.corpus.Stats()
	a.mu.Unlock()
	if err != nil {
		a.logger.Error("Failed to read stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read stats: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// handleWordStats returns the outgoing transitions of the word in the path.
func (a *CorpusAPI) handleWordStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	word := strings.TrimPrefix(r.URL.Path, "/api/stats/")
	if word == "" || strings.Contains(word, "/") {
		respondWithError(w, http.StatusBadRequest, "A single word must be specified")
		return
	}

	a.mu.Lock()
	edges, err := a.corpus.StatsFor(word)
	a.mu.Unlock()
	if err != nil {
		if errors.Is(err, markov.ErrWordNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Error("Failed to read word stats", "word", word, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read stats: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, WordStatsResponse{Word: word, Next: edges})
}
