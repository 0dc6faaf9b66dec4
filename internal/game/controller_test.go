package game

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"changekit/internal/models"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const mcqContent = `{"questions":[
	{"id":"q1","text":"First?","options":[{"id":"a","text":"A"},{"id":"b","text":"B"}],"correct_answer":"a"},
	{"id":"q2","text":"Second?","options":[{"id":"a","text":"A"},{"id":"b","text":"B"}],"correct_answer":"b"},
	{"id":"q3","text":"Third?","options":[{"id":"a","text":"A"},{"id":"b","text":"B"}],"correct_answer":"a"},
	{"id":"q4","text":"Fourth?","options":[{"id":"a","text":"A"},{"id":"b","text":"B"}],"correct_answer":"b"}
]}`

const simulationContent = `{"scenarios":[
	{"id":"sc1","title":"Kickoff","decisions":[{"id":"a","text":"Town hall","outcome_id":"o1"},{"id":"x","text":"Email","outcome_id":"o2"}],
	 "outcomes":{"o1":{"text":"Energy","impact":{"timeline":10,"adoption":20,"results":-10}},"o2":{"text":"Silence","impact":{"timeline":0,"adoption":-20,"results":0}}}},
	{"id":"sc2","title":"Rollout","decisions":[{"id":"b","text":"Pilot","outcome_id":"o3"}],
	 "outcomes":{"o3":{"text":"Learning","impact":{"timeline":-5,"adoption":10,"results":30}}}}
]}`

const challengeContent = `{"stages":[
	{"id":"s1","name":"Plan","task":"Write the plan","time_limit":120},
	{"id":"s2","name":"Pitch","task":"Pitch it","time_limit":3}
]}`

func gameFixture(id string, t Type, content string) models.Game {
	return models.Game{
		GameID:   id,
		Title:    "Test " + string(t),
		GameType: string(t),
		Points:   200,
		Content:  json.RawMessage(content),
	}
}

type fakeBackend struct {
	mu          sync.Mutex
	games       []models.Game
	listErr     error
	completeErr error
	completions []models.GameCompletion
	// release, when set, blocks CompleteGame until closed
	release chan struct{}
	entered chan struct{}
}

func (f *fakeBackend) ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.games, nil
}

func (f *fakeBackend) CompleteGame(ctx context.Context, req models.GameCompletion) (*models.UserProgress, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, req)
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &models.UserProgress{Points: 150, Badges: []string{"Quick Learner"}}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLoaded(t *testing.T, typ Type, content string, backend Backend, clock *fakeClock) *Controller {
	t.Helper()
	strategy, err := StrategyFor(typ)
	if err != nil {
		t.Fatalf("StrategyFor() error = %v", err)
	}
	opts := Options{UserID: "user123", ManualTicks: true}
	if clock != nil {
		opts.Now = clock.Now
	}
	c := NewController(strategy, backend, opts)
	t.Cleanup(c.Close)

	g := gameFixture("g1", typ, content)
	if err := c.Load(context.Background(), "g1", &g); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return c
}

func answerAndNext(t *testing.T, c *Controller, itemID, value string) {
	t.Helper()
	if err := c.Answer(itemID, value); err != nil {
		t.Fatalf("Answer(%s) error = %v", itemID, err)
	}
	if err := c.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
}

func TestMCQSubmitSurvivesBackendFailure(t *testing.T) {
	backend := &fakeBackend{completeErr: errors.New("connection refused")}
	c := newLoaded(t, TypeMCQ, mcqContent, backend, nil)

	answerAndNext(t, c, "q1", "a")
	answerAndNext(t, c, "q2", "b")
	answerAndNext(t, c, "q3", "a")
	if err := c.Answer("q4", "a"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	result, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Score != 75 {
		t.Errorf("Score = %d, want 75", result.Score)
	}
	if result.Progress != nil {
		t.Errorf("Progress = %+v, want nil", result.Progress)
	}

	view := c.Snapshot()
	if !view.Completed() || view.Result.Score != 75 {
		t.Errorf("completed view = %+v", view)
	}
	if len(backend.completions) != 1 || backend.completions[0].UserID != "user123" || backend.completions[0].Score != 75 {
		t.Errorf("completions = %+v", backend.completions)
	}
}

func TestSubmitMergesProgress(t *testing.T) {
	c := newLoaded(t, TypeMCQ, mcqContent, &fakeBackend{}, nil)
	for _, id := range []string{"q1", "q2", "q3"} {
		answerAndNext(t, c, id, "a")
	}
	c.Answer("q4", "b")

	result, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Progress == nil || result.Progress.Points != 150 {
		t.Errorf("Progress = %+v", result.Progress)
	}
	if result.PointsEarned != PointsEarned(200, result.Score) {
		t.Errorf("PointsEarned = %d", result.PointsEarned)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("second Submit() error = %v, want ErrSessionCompleted", err)
	}
	if err := c.Answer("q1", "b"); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Answer() after submit error = %v, want ErrSessionCompleted", err)
	}
}

func TestNextRequiresAnswer(t *testing.T) {
	c := newLoaded(t, TypeMCQ, mcqContent, &fakeBackend{}, nil)

	if c.CanNext() {
		t.Error("CanNext() should be false before answering")
	}
	if err := c.Next(); !errors.Is(err, ErrNotAnswered) {
		t.Errorf("Next() error = %v, want ErrNotAnswered", err)
	}
	if c.Snapshot().Index != 0 {
		t.Error("Next() without answer must not move")
	}

	c.Answer("q1", "b")
	if !c.CanNext() {
		t.Error("CanNext() should be true after answering")
	}
	c.Answer("q1", "a")
	if !c.CanNext() {
		t.Error("CanNext() should stay true after overwriting")
	}
	c.Answer("q1", "")
	if c.CanNext() {
		t.Error("CanNext() should be false after clearing the answer")
	}
	if err := c.Answer("nope", "a"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Answer(nope) error = %v, want ErrUnknownItem", err)
	}
}

func TestPrevAndBounds(t *testing.T) {
	c := newLoaded(t, TypeMCQ, mcqContent, &fakeBackend{}, nil)

	if err := c.Prev(); err != nil || c.Snapshot().Index != 0 {
		t.Errorf("Prev() at start moved or failed: %v", err)
	}
	answerAndNext(t, c, "q1", "a")
	answerAndNext(t, c, "q2", "a")
	answerAndNext(t, c, "q3", "a")
	c.Answer("q4", "a")

	view := c.Snapshot()
	if !view.IsLast || view.CanNext || !view.CanSubmit {
		t.Errorf("last item view = %+v", view)
	}
	if err := c.Next(); err != nil || c.Snapshot().Index != 3 {
		t.Errorf("Next() past the end moved or failed: %v", err)
	}
	if err := c.Prev(); err != nil || c.Snapshot().Index != 2 {
		t.Errorf("Prev() = %v, index %d", err, c.Snapshot().Index)
	}
	if c.Snapshot().Item.Answer != "a" {
		t.Error("answers must survive navigation")
	}
}

func TestResetRestoresInitialSession(t *testing.T) {
	c := newLoaded(t, TypeMCQ, mcqContent, &fakeBackend{}, nil)
	initial := c.Snapshot()

	for _, id := range []string{"q1", "q2", "q3"} {
		answerAndNext(t, c, id, "a")
	}
	c.Answer("q4", "a")
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	after := c.Snapshot()
	if !reflect.DeepEqual(initial, after) {
		t.Errorf("reset session differs from initial:\n got %+v\nwant %+v", after, initial)
	}
	if after.Result != nil || after.Index != 0 || after.Item.Answer != "" {
		t.Errorf("reset left state behind: %+v", after)
	}
}

func TestFillBlankSession(t *testing.T) {
	content := `{"questions":[{"id":"q1","type":"fill_blank","text":"Capital of France?","correct_answer":"paris"}]}`
	c := newLoaded(t, TypeQuiz, content, &fakeBackend{}, nil)

	c.Answer("q1", "   ")
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotAnswered) {
		t.Errorf("Submit() with blank answer error = %v, want ErrNotAnswered", err)
	}
	c.Answer("q1", " Paris ")
	result, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Score != 100 {
		t.Errorf("Score = %d, want 100", result.Score)
	}
}

func TestChallengeStageScoring(t *testing.T) {
	clock := newFakeClock()
	content := `{"stages":[{"id":"s1","name":"Plan","task":"Write the plan","time_limit":120}]}`
	c := newLoaded(t, TypeChallenge, content, &fakeBackend{}, clock)

	if c.Remaining() != 120 {
		t.Fatalf("Remaining() = %d, want 120", c.Remaining())
	}
	c.Answer("s1", strings.Repeat("r", 80))
	clock.Advance(60 * time.Second)

	result, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Score != 85 {
		t.Errorf("Score = %d, want 85", result.Score)
	}
	if result.StageTimes["s1"] != 60 {
		t.Errorf("StageTimes = %v, want s1=60", result.StageTimes)
	}
	if result.TimeTakenSeconds != 60 {
		t.Errorf("TimeTakenSeconds = %d, want 60", result.TimeTakenSeconds)
	}
	stages := c.Snapshot().Stages
	if len(stages) != 1 || stages[0].Spent != 60 || stages[0].Limit != 120 {
		t.Errorf("stage summary = %+v", stages)
	}
}

func TestChallengeTimerStopsAtZero(t *testing.T) {
	c := newLoaded(t, TypeChallenge, challengeContent, &fakeBackend{}, nil)
	answerAndNext(t, c, "s1", "plan")

	if c.Remaining() != 3 {
		t.Fatalf("Remaining() = %d, want 3", c.Remaining())
	}
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	view := c.Snapshot()
	if view.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", view.Remaining)
	}
	if view.Index != 1 || view.Completed() {
		t.Errorf("expired timer must not advance or submit: %+v", view)
	}

	// Going back restarts the countdown of the earlier stage
	if err := c.Prev(); err != nil {
		t.Fatalf("Prev() error = %v", err)
	}
	if c.Remaining() != 120 {
		t.Errorf("Remaining() after Prev = %d, want 120", c.Remaining())
	}
}

func TestChallengeCountdownGoroutine(t *testing.T) {
	strategy, _ := StrategyFor(TypeChallenge)
	c := NewController(strategy, &fakeBackend{}, Options{TickInterval: 2 * time.Millisecond})
	defer c.Close()

	g := gameFixture("g1", TypeChallenge, `{"stages":[{"id":"s1","task":"t","time_limit":3}]}`)
	if err := c.Load(context.Background(), "g1", &g); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	updates, cancel := c.Subscribe()
	defer cancel()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case st := <-updates:
			if st.Expired {
				if c.Remaining() != 0 || c.Snapshot().Index != 0 {
					t.Errorf("unexpected state after expiry: %+v", c.Snapshot())
				}
				return
			}
		case <-timeout:
			t.Fatal("countdown never expired")
		}
	}
}

func TestLateSubmitResponseIsDropped(t *testing.T) {
	backend := &fakeBackend{release: make(chan struct{}), entered: make(chan struct{})}
	c := newLoaded(t, TypeMCQ, `{"questions":[{"id":"q1","options":["a","b"],"correct_answer":"a"}]}`, backend, nil)
	c.Answer("q1", "a")

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	<-backend.entered
	if !c.Loading(OpSubmit) {
		t.Error("submit loading flag should be set while in flight")
	}
	if c.Loading(OpLoad) {
		t.Error("load flag must be independent of submit")
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	close(backend.release)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Errorf("Submit() error = %v, want ErrStale", err)
	}
	view := c.Snapshot()
	if view.Completed() || view.Result != nil {
		t.Errorf("late response mutated the reset session: %+v", view)
	}
}

func TestLoadFetchesAndFinds(t *testing.T) {
	backend := &fakeBackend{games: []models.Game{
		gameFixture("other", TypeMCQ, mcqContent),
		gameFixture("g7", TypeMCQ, mcqContent),
	}}
	strategy, _ := StrategyFor(TypeMCQ)

	c := NewController(strategy, backend, Options{ManualTicks: true})
	defer c.Close()
	if err := c.Load(context.Background(), "g7", nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if view := c.Snapshot(); view.Game.GameID != "g7" || view.Total != 4 {
		t.Errorf("loaded view = %+v", view)
	}

	missing := NewController(strategy, backend, Options{ManualTicks: true})
	defer missing.Close()
	if err := missing.Load(context.Background(), "nope", nil); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Load(nope) error = %v, want ErrGameNotFound", err)
	}
}

func TestLoadErrors(t *testing.T) {
	strategy, _ := StrategyFor(TypeMCQ)

	t.Run("wrong type", func(t *testing.T) {
		c := NewController(strategy, &fakeBackend{}, Options{ManualTicks: true})
		defer c.Close()
		g := gameFixture("g1", TypeSimulation, simulationContent)
		if err := c.Load(context.Background(), "g1", &g); !errors.Is(err, ErrWrongType) {
			t.Errorf("Load() error = %v, want ErrWrongType", err)
		}
	})

	t.Run("invalid content", func(t *testing.T) {
		c := NewController(strategy, &fakeBackend{}, Options{ManualTicks: true})
		defer c.Close()
		g := gameFixture("g1", TypeMCQ, `{"questions":{}}`)
		if err := c.Load(context.Background(), "g1", &g); !errors.Is(err, ErrInvalidContent) {
			t.Errorf("Load() error = %v, want ErrInvalidContent", err)
		}
		if c.SessionID() != "" {
			t.Error("invalid content must not start a session")
		}
	})

	t.Run("backend down", func(t *testing.T) {
		c := NewController(strategy, &fakeBackend{listErr: errors.New("dial tcp: refused")}, Options{ManualTicks: true})
		defer c.Close()
		err := c.Load(context.Background(), "g1", nil)
		if err == nil || errors.Is(err, ErrGameNotFound) {
			t.Errorf("Load() error = %v, want transport error", err)
		}
	})
}

func TestSimulationSession(t *testing.T) {
	c := newLoaded(t, TypeSimulation, simulationContent, &fakeBackend{}, nil)

	c.Answer("sc1", "a")
	view := c.Snapshot()
	if view.Item.Outcome == nil || view.Item.Outcome.Text != "Energy" {
		t.Errorf("outcome = %+v", view.Item.Outcome)
	}
	if err := c.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	c.Answer("sc2", "b")

	result, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Score != 71 {
		t.Errorf("Score = %d, want 71", result.Score)
	}
	if result.TotalImpact == nil || result.TotalImpact.Adoption != 30 {
		t.Errorf("TotalImpact = %+v", result.TotalImpact)
	}
}

func TestClosedControllerRejectsWork(t *testing.T) {
	strategy, _ := StrategyFor(TypeChallenge)
	c := NewController(strategy, &fakeBackend{}, Options{TickInterval: time.Millisecond})
	g := gameFixture("g1", TypeChallenge, challengeContent)
	if err := c.Load(context.Background(), "g1", &g); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	updates, _ := c.Subscribe()

	c.Close()
	c.Close()

	if err := c.Answer("s1", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Answer() error = %v, want ErrClosed", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrClosed) {
		t.Errorf("Reset() error = %v, want ErrClosed", err)
	}
	for range updates {
	}
}
