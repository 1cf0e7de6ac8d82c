package markov

import (
	"database/sql"
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a new SQLite database and an SQLGraph on it for testing.
// It uses tb.Cleanup to ensure resources are released.
func setupTestDB(tb testing.TB) (*sql.DB, *SQLGraph) {
	dbFile := filepath.Join(tb.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = db.Close() })

	g, err := NewSQLGraph(db)
	if err != nil {
		tb.Fatalf("NewSQLGraph() error = %v", err)
	}
	tb.Cleanup(g.Close)

	return db, g
}

// setupTestCorpus is a convenience helper that loads text into an in-memory corpus.
func setupTestCorpus(t *testing.T, text string, opts ...GenerateOption) *Corpus {
	t.Helper()
	c := NewCorpus(NewMemoryGraph(), NewWordParser(), opts...)
	if _, err := c.LoadString(text); err != nil {
		t.Fatalf("setup: LoadString() failed: %v", err)
	}
	return c
}

// countCurrent returns how many times each token is the current state while
// tokens are fed to a fresh graph, i.e. the expected outgoing weight sums.
func countCurrent(tokens []string) map[string]int {
	counts := make(map[string]int)
	current := EndToken
	for _, token := range tokens {
		counts[current]++
		current = token
	}
	return counts
}

const fableCorpus = `The fox saw the crow. The crow had cheese, and the fox wanted it.
The fox said that the crow sang well. The crow opened its beak; the cheese fell!
The fox took the cheese and ran. Who was wise? The fox was wise, but the crow was vain.`

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = strings.Repeat(fableCorpus+"\n", 200)
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
