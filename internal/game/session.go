package game

import (
	"math"
	"time"

	"changekit/internal/models"
)

// Session is one playthrough of a game
type Session struct {
	ID           string
	Game         models.Game
	Type         Type
	Items        []Item
	CurrentIndex int
	// Answers is keyed by item id
	Answers   map[string]string
	StartedAt time.Time
	// Elapsed holds the time spent on each timed item, keyed by item id
	Elapsed map[string]time.Duration
	Status  models.SessionStatus
	Result  *models.GameResult
}

func newSession(id string, game models.Game, t Type, items []Item, now time.Time) *Session {
	return &Session{
		ID:        id,
		Game:      game,
		Type:      t,
		Items:     items,
		Answers:   make(map[string]string),
		StartedAt: now,
		Elapsed:   make(map[string]time.Duration),
		Status:    models.SessionInProgress,
	}
}

func (s *Session) current() Item {
	return s.Items[s.CurrentIndex]
}

func (s *Session) indexOf(itemID string) int {
	for i, item := range s.Items {
		if item.ItemID() == itemID {
			return i
		}
	}
	return -1
}

// seconds rounds a duration to whole seconds
func seconds(d time.Duration) int {
	return int(math.Round(d.Seconds()))
}

// View is a read-only snapshot of a controller for rendering
type View struct {
	SessionID string
	Game      models.Game
	Type      Type
	Index     int
	Total     int
	Item      ItemView
	CanPrev   bool
	CanNext   bool
	CanSubmit bool
	IsLast    bool
	// Progress is the percentage of items reached
	Progress  int
	Timed     bool
	Remaining int
	Status    models.SessionStatus
	Result    *models.GameResult
	Band      string
	Stages    []StageSummary
	Loading   map[string]bool
}

// Completed reports whether the session has a result
func (v View) Completed() bool {
	return v.Status == models.SessionCompleted
}

// StageSummary is a challenge stage line on the result view
type StageSummary struct {
	Number int
	Name   string
	Spent  int
	Limit  int
}

// TimerState is pushed to subscribers on every countdown change
type TimerState struct {
	SessionID string
	ItemID    string
	Index     int
	Remaining int
	Expired   bool
}
