package routes

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) observe(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Phase
	for _, s := range r.states {
		out = append(out, s.Phase)
	}
	return out
}

type countingScroller struct{ n int }

func (s *countingScroller) ScrollTop() { s.n++ }

type stepAnimator struct {
	mu    sync.Mutex
	calls []string
}

func (a *stepAnimator) Exit(ctx context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "exit "+path)
	return nil
}

func (a *stepAnimator) Enter(ctx context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "enter "+path)
	return nil
}

type slowExit struct{}

func (slowExit) Exit(ctx context.Context, path string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowExit) Enter(ctx context.Context, path string) error { return nil }

type panicAnimator struct{}

func (panicAnimator) Exit(ctx context.Context, path string) error  { panic("no animation library") }
func (panicAnimator) Enter(ctx context.Context, path string) error { return errors.New("broken") }

func TestNavigateBetweenGames(t *testing.T) {
	rec := &recorder{}
	scroller := &countingScroller{}
	anim := &stepAnimator{}
	tr := NewTransitioner("/play/mcq/a", TransitionOptions{
		Scroller:  scroller,
		Animator:  anim,
		Observers: []Observer{rec.observe},
	})

	if !tr.Navigate(context.Background(), "/play/mcq/b") {
		t.Fatal("Navigate() = false, want true")
	}

	want := []State{
		{Phase: Exiting, Path: "/play/mcq/a"},
		{Phase: Entering, Path: "/play/mcq/b"},
		{Phase: Idle, Path: "/play/mcq/b"},
	}
	if !reflect.DeepEqual(rec.states, want) {
		t.Errorf("states = %+v, want %+v", rec.states, want)
	}
	if scroller.n != 1 {
		t.Errorf("ScrollTop called %d times, want 1", scroller.n)
	}
	if !reflect.DeepEqual(anim.calls, []string{"exit /play/mcq/a", "enter /play/mcq/b"}) {
		t.Errorf("animator calls = %q", anim.calls)
	}
	if tr.State().Phase != Idle || tr.Current() != "/play/mcq/b" {
		t.Errorf("final state = %+v, current %q", tr.State(), tr.Current())
	}
}

func TestNavigateSamePathIsNoop(t *testing.T) {
	rec := &recorder{}
	scroller := &countingScroller{}
	tr := NewTransitioner("/games", TransitionOptions{Scroller: scroller, Observers: []Observer{rec.observe}})

	if tr.Navigate(context.Background(), "/games/") {
		t.Error("Navigate() to the same path = true, want false")
	}
	if len(rec.states) != 0 || scroller.n != 0 {
		t.Errorf("unexpected side effects: states %v, scrolls %d", rec.states, scroller.n)
	}
}

func TestNavigateDegradesToInstantSwap(t *testing.T) {
	tests := []struct {
		name string
		anim Animator
	}{
		{"no animator", nil},
		{"panicking animator", panicAnimator{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			tr := NewTransitioner("/", TransitionOptions{Animator: tt.anim, Observers: []Observer{rec.observe}})

			tr.Navigate(context.Background(), "/work")

			if got := rec.phases(); !reflect.DeepEqual(got, []Phase{Exiting, Entering, Idle}) {
				t.Errorf("phases = %v", got)
			}
			if tr.Current() != "/work" {
				t.Errorf("Current() = %q", tr.Current())
			}
		})
	}
}

func TestExitIsTimeBoxed(t *testing.T) {
	tr := NewTransitioner("/", TransitionOptions{Animator: slowExit{}, ExitTimeout: 20 * time.Millisecond})

	start := time.Now()
	tr.Navigate(context.Background(), "/faq")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Navigate() took %v, exit should be cut off", elapsed)
	}
	if tr.State().Phase != Idle {
		t.Errorf("Phase = %v, want idle", tr.State().Phase)
	}
}

func TestPathSwapsBeforeAnimation(t *testing.T) {
	var seen string
	var tr *Transitioner
	tr = NewTransitioner("/", TransitionOptions{
		Animator: animatorFunc(func(path string) { seen = tr.Current() }),
	})

	tr.Navigate(context.Background(), "/review")
	if seen != "/review" {
		t.Errorf("current path during exit = %q, want /review", seen)
	}
}

type animatorFunc func(path string)

func (f animatorFunc) Exit(ctx context.Context, path string) error {
	f(path)
	return nil
}

func (f animatorFunc) Enter(ctx context.Context, path string) error { return nil }

func TestPhaseString(t *testing.T) {
	if Idle.String() != "idle" || Exiting.String() != "exiting" || Entering.String() != "entering" {
		t.Error("unexpected phase names")
	}
}

// blockingEnter holds the enter animation of one path until released
type blockingEnter struct {
	path    string
	started chan struct{}
	release chan struct{}
}

func (b *blockingEnter) Exit(ctx context.Context, path string) error { return nil }

func (b *blockingEnter) Enter(ctx context.Context, path string) error {
	if path == b.path {
		close(b.started)
		<-b.release
	}
	return nil
}

func TestSupersedingNavigationSettlesToIdle(t *testing.T) {
	rec := &recorder{}
	anim := &blockingEnter{path: "/play/mcq/a", started: make(chan struct{}), release: make(chan struct{})}
	tr := NewTransitioner("/games", TransitionOptions{Animator: anim, Observers: []Observer{rec.observe}})

	done := make(chan struct{})
	go func() {
		defer close(done)
		tr.Navigate(context.Background(), "/play/mcq/a")
	}()

	<-anim.started
	tr.Navigate(context.Background(), "/play/mcq/b")
	close(anim.release)
	<-done

	rec.mu.Lock()
	got := append([]State(nil), rec.states...)
	rec.mu.Unlock()
	want := []State{
		{Phase: Exiting, Path: "/games"},
		{Phase: Entering, Path: "/play/mcq/a"},
		{Phase: Idle, Path: "/play/mcq/a"},
		{Phase: Exiting, Path: "/play/mcq/a"},
		{Phase: Entering, Path: "/play/mcq/b"},
		{Phase: Idle, Path: "/play/mcq/b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("states = %+v, want %+v", got, want)
	}

	// Exiting is only ever entered from Idle
	prev := Idle
	for i, s := range got {
		if s.Phase == Exiting && prev != Idle {
			t.Errorf("state %d: exiting entered from %v", i, prev)
		}
		prev = s.Phase
	}
	if tr.Current() != "/play/mcq/b" || tr.State().Phase != Idle {
		t.Errorf("final state = %+v, current %q", tr.State(), tr.Current())
	}
}

type panicScroller struct{}

func (panicScroller) ScrollTop() { panic("no window") }

func TestPanickingScrollerDoesNotStopNavigation(t *testing.T) {
	rec := &recorder{}
	tr := NewTransitioner("/", TransitionOptions{Scroller: panicScroller{}, Observers: []Observer{rec.observe}})

	if !tr.Navigate(context.Background(), "/about") {
		t.Fatal("Navigate() = false, want true")
	}
	if got := rec.phases(); !reflect.DeepEqual(got, []Phase{Exiting, Entering, Idle}) {
		t.Errorf("phases = %v", got)
	}
	if tr.Current() != "/about" {
		t.Errorf("Current() = %q", tr.Current())
	}
}
