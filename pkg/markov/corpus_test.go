package markov

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCorpus_LoadString(t *testing.T) {
	c := NewCorpus(NewMemoryGraph(), NewWordParser())

	result, err := c.LoadString("Cats chase mice. Mice run fast.")
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if got := result.Sentences(); got != 2 {
		t.Errorf("Sentences() = %d, want 2", got)
	}

	edges, _ := c.graph.Transitions()
	for _, link := range []struct{ from, to string }{
		{EndToken, "cats"},
		{EndToken, "mice"},
		{"cats", "chase"},
	} {
		if w := edges[link.from][link.to]; w != 1 {
			t.Errorf("weight of %q -> %q = %d, want 1", link.from, link.to, w)
		}
	}
}

func TestCorpus_Load(t *testing.T) {
	c := NewCorpus(NewMemoryGraph(), NewWordParser())
	result, err := c.Load(strings.NewReader(fableCorpus))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Tokens) == 0 {
		t.Fatal("expected tokens from the reader")
	}
}

func TestCorpus_Stats(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(t *testing.T) *Corpus
	}{
		{
			name: "Memory",
			setup: func(t *testing.T) *Corpus {
				return NewCorpus(NewMemoryGraph(), NewWordParser())
			},
		},
		{
			name: "SQLite",
			setup: func(t *testing.T) *Corpus {
				_, g := setupTestDB(t)
				return NewCorpus(g, NewWordParser())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.setup(t)
			if _, err := c.LoadString("Cats chase mice. Mice run fast."); err != nil {
				t.Fatalf("LoadString failed: %v", err)
			}

			stats, err := c.Stats()
			if err != nil {
				t.Fatalf("Stats failed: %v", err)
			}
			want := Stats{
				UniqueNodes:    6,
				ProperNouns:    0,
				TotalChains:    8,
				TotalFrequency: 8,
				StartingTokens: 2,
			}
			if diff := cmp.Diff(want, stats); diff != "" {
				t.Errorf("stats mismatch (-want +got):\n%s", diff)
			}

			edges, err := c.StatsFor("MICE")
			if err != nil {
				t.Fatalf("StatsFor failed: %v", err)
			}
			wantEdges := []Edge{{Token: EndToken, Weight: 1}, {Token: "run", Weight: 1}}
			if diff := cmp.Diff(wantEdges, edges); diff != "" {
				t.Errorf("StatsFor(\"MICE\") mismatch (-want +got):\n%s", diff)
			}

			if _, err = c.StatsFor("dogs"); !errors.Is(err, ErrWordNotFound) {
				t.Errorf("StatsFor(\"dogs\") error = %v, want ErrWordNotFound", err)
			}
		})
	}
}

func TestCorpus_WeightConservation(t *testing.T) {
	c := NewCorpus(NewMemoryGraph(), NewWordParser())
	var all []string
	for _, text := range []string{fableCorpus, "Cats chase mice.", fableCorpus} {
		result, err := c.LoadString(text)
		if err != nil {
			t.Fatalf("LoadString failed: %v", err)
		}
		all = append(all, result.Tokens...)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalFrequency != len(all) {
		t.Errorf("TotalFrequency = %d, want %d", stats.TotalFrequency, len(all))
	}

	want := countCurrent(all)
	for state, total := range want {
		edges, err := c.StatsFor(state)
		if err != nil {
			t.Fatalf("StatsFor(%q) failed: %v", state, err)
		}
		sum := 0
		for _, e := range edges {
			sum += e.Weight
		}
		if sum != total {
			t.Errorf("outgoing weight of %q = %d, want %d", state, sum, total)
		}
	}
}

func TestCorpus_NamesAccumulate(t *testing.T) {
	c := NewCorpus(NewMemoryGraph(), NewWordParser())

	loads := []struct {
		text      string
		wantNames NameTable
	}{
		{"I met Anna today.", NameTable{"anna": "Anna"}},
		{"then anna left. anna came. I saw Anna.", NameTable{"anna": "Anna"}},
		{"anna anna.", NameTable{}},
	}
	for i, load := range loads {
		result, err := c.LoadString(load.text)
		if err != nil {
			t.Fatalf("load %d failed: %v", i, err)
		}
		if diff := cmp.Diff(load.wantNames, result.Names); diff != "" {
			t.Errorf("load %d names mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(load.wantNames, c.Names()); diff != "" {
			t.Errorf("load %d Names() mismatch (-want +got):\n%s", i, diff)
		}
	}

	stats, _ := c.Stats()
	if stats.ProperNouns != 0 {
		t.Errorf("ProperNouns = %d, want 0", stats.ProperNouns)
	}
}

func TestCorpus_GeneratorSeesNewLoads(t *testing.T) {
	c := setupTestCorpus(t, "alpha beta.", WithSeed(5))

	before, err := c.Generate(12, "gamma")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if before != "Gamma." {
		t.Fatalf("Generate before load = %q, want %q", before, "Gamma.")
	}

	if _, err = c.LoadString("gamma delta."); err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	after, err := c.Generate(12, "gamma")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if after != "Gamma delta." {
		t.Errorf("Generate after load = %q, want %q", after, "Gamma delta.")
	}
}

func TestCorpus_Clear(t *testing.T) {
	c := setupTestCorpus(t, "I saw Moscow and Moscow saw me.")
	if len(c.Names()) == 0 {
		t.Fatal("setup: expected a proper noun")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if diff := cmp.Diff(Stats{}, stats); diff != "" {
		t.Errorf("stats after Clear mismatch (-want +got):\n%s", diff)
	}

	output, err := c.Generate(20, "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if output != EndToken {
		t.Errorf("Generate on a cleared corpus = %q, want %q", output, EndToken)
	}

	// Old names must not resurface in new loads.
	result, err := c.LoadString("moscow is a city.")
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if diff := cmp.Diff([]string{"moscow", "is", "a", "city", "."}, result.Tokens); diff != "" {
		t.Errorf("tokens after Clear mismatch (-want +got):\n%s", diff)
	}
}

func TestCorpus_Logging(t *testing.T) {
	var buf bytes.Buffer
	c := NewCorpus(NewMemoryGraph(), NewWordParser())
	c.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if _, err := c.LoadString("Cats chase mice."); err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if _, err := c.Generate(40, ""); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Corpus loaded", "tokens=4", "sentences=1", "Generator rebuilt"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got %q", want, out)
		}
	}
}

func BenchmarkCorpus_LoadString(b *testing.B) {
	text := createBenchmarkCorpus()
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := NewCorpus(NewMemoryGraph(), NewWordParser())
		if _, err := c.LoadString(text); err != nil {
			b.Fatalf("LoadString failed: %v", err)
		}
	}
}
