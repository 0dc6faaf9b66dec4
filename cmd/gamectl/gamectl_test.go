package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"changekit/internal/config"
	"changekit/internal/models"
)

const mcqContent = `{"questions":[
	{"id":"q1","text":"Who sponsors the change?","options":[{"id":"a","text":"Leadership"},{"id":"b","text":"Nobody"}],"correct_answer":"a"},
	{"id":"q2","text":"When do we train?","options":[{"id":"a","text":"Never"},{"id":"b","text":"Before go-live"}],"correct_answer":"b"}
]}`

const simulationContent = `{"scenarios":[
	{"id":"sc1","title":"Kickoff","decisions":[{"id":"d1","text":"Town hall","outcome_id":"o1"}],
	 "outcomes":{"o1":{"text":"People feel heard","impact":{"timeline":5,"adoption":20,"results":10}}}}
]}`

// fakeBackend serves the backend endpoints gamectl calls
type fakeBackend struct {
	mu          sync.Mutex
	games       []models.Game
	completions []models.GameCompletion
	drafts      []models.DraftRequest
	created     []models.GameCreationRequest
	lastQuery   string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastQuery = r.URL.RawQuery
		f.mu.Unlock()
		json.NewEncoder(w).Encode(models.GameList{Games: f.games})
	})
	mux.HandleFunc("GET /recommend_games/{userId}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.GameRecommendations{RecommendedGames: f.games[:1]})
	})
	mux.HandleFunc("POST /complete_game", func(w http.ResponseWriter, r *http.Request) {
		var c models.GameCompletion
		json.NewDecoder(r.Body).Decode(&c)
		f.mu.Lock()
		f.completions = append(f.completions, c)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(models.UserProgress{Points: 150, Badges: []string{"Change Champion"}})
	})
	mux.HandleFunc("POST /create_draft", func(w http.ResponseWriter, r *http.Request) {
		var d models.DraftRequest
		json.NewDecoder(r.Body).Decode(&d)
		f.mu.Lock()
		f.drafts = append(f.drafts, d)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(models.DraftResponse{
			Draft: "# Hello team\n\nWe announce the upcoming change to our CRM.",
		})
	})
	mux.HandleFunc("POST /create_game", func(w http.ResponseWriter, r *http.Request) {
		var req models.GameCreationRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.created = append(f.created, req)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(models.Game{GameID: "g9", GameType: req.GameType})
	})
	return mux
}

// calls returns copies of what the backend received
func (f *fakeBackend) calls() (query string, completions []models.GameCompletion, drafts []models.DraftRequest, created []models.GameCreationRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery, append(completions, f.completions...), append(drafts, f.drafts...), append(created, f.created...)
}

func newFakeBackend(t *testing.T) (*fakeBackend, string) {
	t.Helper()
	f := &fakeBackend{games: []models.Game{
		{GameID: "g1", Title: "Sponsor quiz", GameType: "mcq", AdkarStage: "awareness", Points: 50, Content: json.RawMessage(mcqContent)},
		{GameID: "g2", Title: "Kickoff simulation", GameType: "simulation", Points: 80, Content: json.RawMessage(simulationContent)},
	}}
	ts := httptest.NewServer(f.handler())
	t.Cleanup(ts.Close)
	return f, ts.URL
}

// run executes gamectl with args against the fake backend
func run(t *testing.T, backendURL, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := config.Load()
	cfg.StageRulesPath = ""

	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--backend", backendURL, "--user", "u1", "--plain"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestGamesListsWithFilters(t *testing.T) {
	f, url := newFakeBackend(t)

	out, err := run(t, url, "", "games", "--adkar-stage", "awareness")
	if err != nil {
		t.Fatalf("games failed: %v", err)
	}
	if query, _, _, _ := f.calls(); query != "adkar_stage=awareness" {
		t.Errorf("query = %q", query)
	}
	for _, want := range []string{"g1", "Sponsor quiz", "mcq · awareness · 50 pts", "g2", "simulation · 80 pts"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGamesRecommended(t *testing.T) {
	_, url := newFakeBackend(t)

	out, err := run(t, url, "", "games", "--recommended")
	if err != nil {
		t.Fatalf("games failed: %v", err)
	}
	if !strings.Contains(out, "g1") || strings.Contains(out, "g2") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestGamesEmpty(t *testing.T) {
	f, url := newFakeBackend(t)
	f.games = nil

	out, err := run(t, url, "", "games", "--change-type", "process_change")
	if err != nil {
		t.Fatalf("games failed: %v", err)
	}
	if !strings.Contains(out, "No games found.") {
		t.Errorf("output = %q", out)
	}
}

func TestPlayMCQToCompletion(t *testing.T) {
	f, url := newFakeBackend(t)

	out, err := run(t, url, "1\n2\n:quit\n", "play", "g1")
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	for _, want := range []string{
		"Play · /play/mcq/g1",
		"Who sponsors the change?",
		"When do we train?",
		"100%",
		"Points earned: 50",
		"Total points: 150",
		"Change Champion",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, completions, _, _ := f.calls()
	if len(completions) != 1 {
		t.Fatalf("completions = %d, want 1", len(completions))
	}
	c := completions[0]
	if c.UserID != "u1" || c.GameID != "g1" || c.Score != 100 {
		t.Errorf("completion = %+v", c)
	}
}

func TestPlaySimulationShowsOutcomeBeforeMovingOn(t *testing.T) {
	f, url := newFakeBackend(t)

	out, err := run(t, url, "1\n\n", "play", "g2")
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !strings.Contains(out, "Outcome: People feel heard") {
		t.Errorf("outcome not shown:\n%s", out)
	}
	if !strings.Contains(out, "Timeline +5  Adoption +20  Results +10") {
		t.Errorf("impact not shown:\n%s", out)
	}
	if _, completions, _, _ := f.calls(); len(completions) != 1 {
		t.Errorf("completions = %d, want 1", len(completions))
	}
}

func TestPlayInputErrors(t *testing.T) {
	f, url := newFakeBackend(t)

	out, err := run(t, url, "9\n\n:submit\n:quit\n", "play", "g1")
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !strings.Contains(out, "Please choose one of the listed numbers.") {
		t.Errorf("bad choice not reported:\n%s", out)
	}
	if strings.Count(out, "Answer the current item first.") != 2 {
		t.Errorf("unanswered moves not reported twice:\n%s", out)
	}
	if _, completions, _, _ := f.calls(); len(completions) != 0 {
		t.Errorf("completions = %d, want 0", len(completions))
	}
}

func TestPlayUnknownGame(t *testing.T) {
	_, url := newFakeBackend(t)

	_, err := run(t, url, "", "play", "missing")
	if err == nil || !strings.Contains(err.Error(), "game not found") {
		t.Errorf("error = %v, want game not found", err)
	}
}

func TestPlayWrongKind(t *testing.T) {
	_, url := newFakeBackend(t)

	_, err := run(t, url, "", "play", "g1", "--kind", "challenge")
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Errorf("error = %v, want a type mismatch", err)
	}
}

func TestStage(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"arguments", []string{"stage", "join", "the", "training", "and", "learn", "the", "guide"}, "", "Knowledge"},
		{"stdin", []string{"stage"}, "We celebrate and reward the new habit", "Reinforcement"},
		{"no keywords", []string{"stage", "hello"}, "", "Awareness"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "http://unused", tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("stage failed: %v", err)
			}
			if !strings.Contains(out, "ADKAR stage: "+tt.want) {
				t.Errorf("output = %q, want stage %s", out, tt.want)
			}
		})
	}
}

func TestStageRejectsFileAndArgs(t *testing.T) {
	_, err := run(t, "http://unused", "", "stage", "--file", "notes.txt", "text")
	if err == nil {
		t.Error("expected an error for text and --file together")
	}
}

func TestDraftRendersAndCreatesGame(t *testing.T) {
	f, url := newFakeBackend(t)

	out, err := run(t, url, "", "draft",
		"--change-type", "technology-upgrade",
		"--audience", "all_employees",
		"--purpose", "CRM rollout",
		"--key-point", "Training starts Monday",
		"--key-point", "Old CRM retires in June",
		"--game", "mcq",
	)
	if err != nil {
		t.Fatalf("draft failed: %v", err)
	}

	for _, want := range []string{"New Change Communication - CRM rollout", "ADKAR stage: Awareness", "Hello team", "Game created: g9"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, _, drafts, created := f.calls()
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(drafts))
	}
	d := drafts[0]
	if d.ChangeType != "technology_upgrade" || len(d.KeyPoints) != 2 {
		t.Errorf("draft request = %+v", d)
	}
	if len(created) != 1 || created[0].GameType != "mcq" || created[0].AdkarStage != "awareness" {
		t.Errorf("game requests = %+v", created)
	}
}

func TestDraftValidatesBeforeCallingBackend(t *testing.T) {
	f, url := newFakeBackend(t)

	_, err := run(t, url, "", "draft", "--change-type", "maintenance", "--purpose", "Patch night", "--key-point", "Downtime")
	if err == nil || err.Error() != "Please fill in the audience field" {
		t.Errorf("error = %v, want the audience validation error", err)
	}
	if _, _, drafts, _ := f.calls(); len(drafts) != 0 {
		t.Errorf("backend called %d times", len(drafts))
	}
}
