package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"changekit/internal/models"

	"github.com/google/uuid"
)

// Loading operation keys
const (
	OpLoad   = "game"
	OpSubmit = "submit"
)

// ErrBusy is returned while a submission is in flight
var ErrBusy = errors.New("submission in progress")

// GameSource lists games from the backend
type GameSource interface {
	ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
}

// ProgressRecorder records finished games
type ProgressRecorder interface {
	CompleteGame(ctx context.Context, req models.GameCompletion) (*models.UserProgress, error)
}

// Backend is what a controller needs from the backend client
type Backend interface {
	GameSource
	ProgressRecorder
}

// Options configures a Controller
type Options struct {
	// UserID is sent with completions
	UserID string
	// Owner is the visitor the session belongs to
	Owner string
	// TickInterval is the countdown period, one second by default
	TickInterval time.Duration
	// ManualTicks disables the countdown goroutine; callers drive Tick
	ManualTicks bool
	Now         func() time.Time
	Debug       bool
}

// Controller drives one game session through load, play, submit and reset
type Controller struct {
	mu       sync.Mutex
	strategy Strategy
	backend  Backend
	opts     Options

	session *Session
	loading map[string]bool
	closed  bool

	// sessionGen changes on load, reset and close; late responses are dropped
	sessionGen uint64
	// timerGen changes whenever the countdown restarts or stops
	timerGen   uint64
	countdown  *Countdown
	remaining  int
	itemStart  time.Time
	lastActive time.Time

	subs    map[int]chan TimerState
	nextSub int
}

// NewController creates a controller for one game type
func NewController(strategy Strategy, backend Backend, opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		strategy: strategy,
		backend:  backend,
		opts:     opts,
		loading:  make(map[string]bool),
		subs:     make(map[int]chan TimerState),
	}
	c.lastActive = opts.Now()
	return c
}

// Load loads a game. A preloaded game handed over by the game list is used
// as is; otherwise the full list is fetched and searched by id.
func (c *Controller) Load(ctx context.Context, gameID string, preloaded *models.Game) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.loading[OpLoad] = true
	gen := c.sessionGen
	c.mu.Unlock()

	game, err := c.resolve(ctx, gameID, preloaded)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading[OpLoad] = false
	if c.closed || gen != c.sessionGen {
		return ErrStale
	}
	if err != nil {
		return err
	}

	if game.GameType != "" {
		if t, err := ParseType(game.GameType); err == nil && t != c.strategy.Type() {
			return fmt.Errorf("%w: game %s is %s", ErrWrongType, game.GameID, t)
		}
	}

	items, err := c.strategy.Extract(game.Content)
	if err != nil {
		log.Printf("Load: game %s has invalid content: %v", game.GameID, err)
		return err
	}

	c.sessionGen++
	c.session = newSession(uuid.New().String(), *game, c.strategy.Type(), items, c.opts.Now())
	c.enterItem()
	c.touch()
	if c.opts.Debug {
		log.Printf("[DEBUG] Load: session %s started for game %s with %d items", c.session.ID, game.GameID, len(items))
	}
	return nil
}

func (c *Controller) resolve(ctx context.Context, gameID string, preloaded *models.Game) (*models.Game, error) {
	if preloaded != nil && (gameID == "" || preloaded.GameID == gameID) {
		g := *preloaded
		return &g, nil
	}
	if c.backend == nil {
		return nil, ErrGameNotFound
	}

	games, err := c.backend.ListGames(ctx, models.GameFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}
	for i := range games {
		if games[i].GameID == gameID {
			return &games[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
}

// Answer records or overwrites the answer of an item
func (c *Controller) Answer(itemID, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkPlayable(); err != nil {
		return err
	}
	if c.session.indexOf(itemID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	c.session.Answers[itemID] = value
	c.touch()
	return nil
}

// CanNext reports whether the player may move to the next item
func (c *Controller) CanNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canNext()
}

func (c *Controller) canNext() bool {
	if c.checkPlayable() != nil {
		return false
	}
	return c.currentAnswered() && c.session.CurrentIndex < len(c.session.Items)-1
}

func (c *Controller) currentAnswered() bool {
	item := c.session.current()
	return c.strategy.Answered(item, c.session.Answers[item.ItemID()])
}

// Next moves to the next item. It fails with ErrNotAnswered until the
// current item is answered and does nothing on the last item.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkPlayable(); err != nil {
		return err
	}
	if !c.currentAnswered() {
		return ErrNotAnswered
	}
	if c.session.CurrentIndex >= len(c.session.Items)-1 {
		return nil
	}
	c.recordElapsed()
	c.session.CurrentIndex++
	c.enterItem()
	c.touch()
	return nil
}

// Prev moves to the previous item, if any
func (c *Controller) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkPlayable(); err != nil {
		return err
	}
	if c.session.CurrentIndex == 0 {
		return nil
	}
	c.session.CurrentIndex--
	c.enterItem()
	c.touch()
	return nil
}

// Tick decrements the countdown of the current timed item by one second.
// The countdown stops at zero; it never advances or submits.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
}

func (c *Controller) tickFor(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen {
		return
	}
	c.tickLocked()
}

func (c *Controller) tickLocked() {
	if c.checkPlayable() != nil || !c.timed() || c.remaining <= 0 {
		return
	}
	c.remaining--
	if c.remaining == 0 {
		c.stopCountdown()
	}
	c.notify()
}

// Remaining is the countdown of the current item in seconds
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Submit scores the session and records the completion. A failed record
// still completes the session with a nil Progress.
func (c *Controller) Submit(ctx context.Context) (*models.GameResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.session == nil {
		c.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if c.session.Status == models.SessionCompleted {
		result := c.session.Result
		c.mu.Unlock()
		return result, ErrSessionCompleted
	}
	if c.loading[OpSubmit] {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if !c.currentAnswered() {
		c.mu.Unlock()
		return nil, ErrNotAnswered
	}

	c.recordElapsed()
	c.stopCountdown()
	now := c.opts.Now()
	score := c.strategy.Score(c.session)
	completion := models.GameCompletion{
		UserID:    c.opts.UserID,
		GameID:    c.session.Game.GameID,
		Score:     score,
		TimeTaken: seconds(now.Sub(c.session.StartedAt)),
	}
	c.loading[OpSubmit] = true
	gen := c.sessionGen
	c.mu.Unlock()

	var progress *models.UserProgress
	var err error
	if c.backend != nil {
		progress, err = c.backend.CompleteGame(ctx, completion)
	} else {
		err = errors.New("no backend configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.sessionGen {
		return nil, ErrStale
	}
	c.loading[OpSubmit] = false
	if err != nil {
		log.Printf("Submit: failed to record completion of game %s: %v", completion.GameID, err)
		progress = nil
	}

	result := &models.GameResult{
		Score:            score,
		TimeTakenSeconds: completion.TimeTaken,
		Progress:         progress,
		PointsEarned:     PointsEarned(c.session.Game.Points, score),
		Message:          c.strategy.Message(score),
		CompletedAt:      now,
	}
	if d, ok := c.strategy.(resultDecorator); ok {
		d.Decorate(c.session, result)
	}
	c.session.Result = result
	c.session.Status = models.SessionCompleted
	c.touch()

	if c.opts.Debug {
		log.Printf("[DEBUG] Submit: session %s scored %d", c.session.ID, score)
	}
	return result, nil
}

// Reset restarts the session with the same items
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.session == nil {
		return ErrNotLoaded
	}

	c.stopCountdown()
	c.sessionGen++
	c.loading[OpSubmit] = false
	old := c.session
	c.session = newSession(old.ID, old.Game, old.Type, old.Items, c.opts.Now())
	c.enterItem()
	c.touch()
	return nil
}

// Close stops the countdown and drops any in-flight responses
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.sessionGen++
	cd := c.countdown
	c.stopCountdown()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	if cd != nil {
		cd.Wait()
	}
}

// Loading reports whether an operation is in flight
func (c *Controller) Loading(op string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[op]
}

// SessionID is the id of the loaded session, empty before Load
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.ID
}

// Owner is the visitor the controller was created for
func (c *Controller) Owner() string {
	return c.opts.Owner
}

// Type is the game type the controller plays
func (c *Controller) Type() Type {
	return c.strategy.Type()
}

// LastActive is when the session was last loaded or played
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Snapshot returns a render model of the session
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := View{
		Type:    c.strategy.Type(),
		Loading: make(map[string]bool, len(c.loading)),
	}
	for op, busy := range c.loading {
		if busy {
			view.Loading[op] = true
		}
	}
	if c.session == nil {
		return view
	}

	s := c.session
	item := s.current()
	view.SessionID = s.ID
	view.Game = s.Game
	view.Index = s.CurrentIndex
	view.Total = len(s.Items)
	view.Item = c.strategy.Render(item, s.Answers[item.ItemID()])
	view.IsLast = s.CurrentIndex == len(s.Items)-1
	view.CanPrev = s.Status == models.SessionInProgress && s.CurrentIndex > 0
	view.CanNext = c.canNext()
	view.CanSubmit = view.IsLast && c.checkPlayable() == nil && c.currentAnswered()
	view.Progress = percent(s.CurrentIndex+1, len(s.Items))
	view.Timed = c.timed()
	view.Remaining = c.remaining
	view.Status = s.Status
	view.Result = s.Result
	if s.Result != nil {
		view.Band = Band(s.Result.Score)
		if s.Type == TypeChallenge {
			for i, it := range s.Items {
				st := it.(Stage)
				view.Stages = append(view.Stages, StageSummary{
					Number: i + 1,
					Name:   st.Name,
					Spent:  s.Result.StageTimes[st.ID],
					Limit:  st.TimeLimitSeconds,
				})
			}
		}
	}
	return view
}

// Subscribe returns a channel of countdown updates. Slow readers only see
// the latest state. The channel is closed by Close or the returned cancel.
func (c *Controller) Subscribe() (<-chan TimerState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan TimerState, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	if c.session != nil && c.timed() {
		ch <- c.timerState()
	}

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Controller) checkPlayable() error {
	if c.closed {
		return ErrClosed
	}
	if c.session == nil {
		return ErrNotLoaded
	}
	if c.session.Status == models.SessionCompleted {
		return ErrSessionCompleted
	}
	if c.loading[OpSubmit] {
		return ErrBusy
	}
	return nil
}

func (c *Controller) timed() bool {
	_, ok := c.strategy.(timed)
	return ok
}

// enterItem resets the countdown for the current item
func (c *Controller) enterItem() {
	c.stopCountdown()
	c.itemStart = c.opts.Now()
	t, ok := c.strategy.(timed)
	if !ok {
		return
	}
	c.remaining = t.TimeLimit(c.session.current())
	if !c.opts.ManualTicks && c.remaining > 0 {
		gen := c.timerGen
		c.countdown = StartCountdown(c.opts.TickInterval, func() { c.tickFor(gen) })
	}
	c.notify()
}

func (c *Controller) stopCountdown() {
	c.timerGen++
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
}

// recordElapsed stores the time spent on the current timed item
func (c *Controller) recordElapsed() {
	if !c.timed() {
		return
	}
	c.session.Elapsed[c.session.current().ItemID()] = c.opts.Now().Sub(c.itemStart)
}

func (c *Controller) timerState() TimerState {
	item := c.session.current()
	return TimerState{
		SessionID: c.session.ID,
		ItemID:    item.ItemID(),
		Index:     c.session.CurrentIndex,
		Remaining: c.remaining,
		Expired:   c.remaining == 0,
	}
}

func (c *Controller) notify() {
	if len(c.subs) == 0 {
		return
	}
	st := c.timerState()
	for _, ch := range c.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

func (c *Controller) touch() {
	c.lastActive = c.opts.Now()
}
