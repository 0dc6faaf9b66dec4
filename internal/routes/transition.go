package routes

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultExitTimeout bounds how long an exit animation may delay the enter animation
const DefaultExitTimeout = 300 * time.Millisecond

// Phase is the state of a page transition
type Phase int

const (
	Idle Phase = iota
	Exiting
	Entering
)

func (p Phase) String() string {
	switch p {
	case Exiting:
		return "exiting"
	case Entering:
		return "entering"
	default:
		return "idle"
	}
}

// State is a transition phase together with the path it applies to. While
// exiting, Path is the outgoing path.
type State struct {
	Phase Phase
	Path  string
}

// Scroller resets the viewport to the top
type Scroller interface {
	ScrollTop()
}

// Animator plays the visual part of a transition
type Animator interface {
	Exit(ctx context.Context, path string) error
	Enter(ctx context.Context, path string) error
}

// Observer is called with every state the transitioner enters. It must not
// call back into the transitioner.
type Observer func(State)

// TransitionOptions configure a Transitioner
type TransitionOptions struct {
	Scroller    Scroller
	Animator    Animator
	ExitTimeout time.Duration
	Observers   []Observer
}

// Transitioner swaps the current path immediately and then plays the exit
// and enter animations. A newer navigation supersedes a running one; the
// interrupted target is settled to Idle before the new exit starts.
type Transitioner struct {
	mu      sync.Mutex
	current string
	state   State
	gen     uint64
	opts    TransitionOptions
}

// NewTransitioner starts idle on the initial path
func NewTransitioner(initial string, opts TransitionOptions) *Transitioner {
	if opts.ExitTimeout <= 0 {
		opts.ExitTimeout = DefaultExitTimeout
	}
	initial = normalize(initial)
	return &Transitioner{
		current: initial,
		state:   State{Phase: Idle, Path: initial},
		opts:    opts,
	}
}

// Current returns the current path
func (t *Transitioner) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// State returns the current transition state
func (t *Transitioner) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Navigate moves to path. It returns false without doing anything when path
// equals the current path. Animation failures never surface to the caller.
func (t *Transitioner) Navigate(ctx context.Context, path string) bool {
	path = normalize(path)

	t.mu.Lock()
	if path == t.current {
		t.mu.Unlock()
		return false
	}
	old := t.current
	t.current = path
	t.gen++
	gen := t.gen
	if t.state.Phase != Idle {
		t.setState(State{Phase: Idle, Path: old})
	}
	t.mu.Unlock()

	t.scrollTop()

	if !t.emit(gen, State{Phase: Exiting, Path: old}) {
		return true
	}
	exitCtx, cancel := context.WithTimeout(ctx, t.opts.ExitTimeout)
	t.animate(exitCtx, "exit", old)
	cancel()

	if !t.emit(gen, State{Phase: Entering, Path: path}) {
		return true
	}
	t.animate(ctx, "enter", path)

	t.emit(gen, State{Phase: Idle, Path: path})
	return true
}

// animate runs one animation. It returns when the animation finishes or ctx
// is done, whichever comes first.
func (t *Transitioner) animate(ctx context.Context, step, path string) {
	a := t.opts.Animator
	if a == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Transition: %s animation for %s panicked: %v", step, path, r)
			}
		}()
		var err error
		if step == "exit" {
			err = a.Exit(ctx, path)
		} else {
			err = a.Enter(ctx, path)
		}
		if err != nil && ctx.Err() == nil {
			log.Printf("Transition: %s animation for %s failed: %v", step, path, err)
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (t *Transitioner) scrollTop() {
	if t.opts.Scroller == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Transition: scroll to top panicked: %v", r)
		}
	}()
	t.opts.Scroller.ScrollTop()
}

func (t *Transitioner) emit(gen uint64, s State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return false
	}
	t.setState(s)
	return true
}

// setState records s and notifies the observers. Callers hold t.mu.
func (t *Transitioner) setState(s State) {
	t.state = s
	for _, o := range t.opts.Observers {
		o(s)
	}
}
