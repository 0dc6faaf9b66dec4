package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type identifies a game variant
type Type string

const (
	TypeMCQ        Type = "mcq"
	TypeQuiz       Type = "quiz"
	TypeChallenge  Type = "challenge"
	TypeSimulation Type = "simulation"
)

// Sentinel errors returned by the session controller
var (
	ErrGameNotFound     = errors.New("game not found")
	ErrInvalidContent   = errors.New("invalid game content")
	ErrUnknownType      = errors.New("unknown game type")
	ErrWrongType        = errors.New("game type does not match")
	ErrUnknownItem      = errors.New("unknown item")
	ErrNotAnswered      = errors.New("current item has no answer")
	ErrNotLoaded        = errors.New("no game loaded")
	ErrSessionCompleted = errors.New("session already completed")
	ErrStale            = errors.New("session changed while request was in flight")
	ErrClosed           = errors.New("session closed")
)

// ParseType maps a route kind or backend game_type to a Type.
// The backend calls the quiz variant "truefalse_fillblank".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mcq":
		return TypeMCQ, nil
	case "quiz", "truefalse_fillblank", "true_false", "fill_blank":
		return TypeQuiz, nil
	case "challenge":
		return TypeChallenge, nil
	case "simulation":
		return TypeSimulation, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Types lists every playable variant in display order
func Types() []Type {
	return []Type{TypeMCQ, TypeQuiz, TypeChallenge, TypeSimulation}
}

// Item is one unit of interaction within a session
type Item interface {
	ItemID() string
}

// Option is a selectable answer of a multiple-choice question
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a multiple-choice item
type Question struct {
	ID            string
	Text          string
	Options       []Option
	CorrectAnswer string
	Explanation   string
	// OptionsErr is set when the options could not be read
	OptionsErr string
}

func (q Question) ItemID() string { return q.ID }

// Quiz question kinds
const (
	KindTrueFalse = "true_false"
	KindFillBlank = "fill_blank"
)

// QuizQuestion is a true/false or fill-in-the-blank item
type QuizQuestion struct {
	ID            string
	Kind          string
	Text          string
	CorrectAnswer string
	Explanation   string
}

func (q QuizQuestion) ItemID() string { return q.ID }

// DefaultTimeLimit is used for challenge stages without a time_limit
const DefaultTimeLimit = 120

// Stage is a timed challenge item
type Stage struct {
	ID               string
	Name             string
	Description      string
	Task             string
	TimeLimitSeconds int
	SuccessCriteria  []string
}

func (s Stage) ItemID() string { return s.ID }

// Decision is one choice within a scenario
type Decision struct {
	ID        string
	Text      string
	OutcomeID string
}

// Outcome is the consequence of a decision
type Outcome struct {
	Text   string
	Impact map[string]float64
}

// Scenario is a simulation item
type Scenario struct {
	ID          string
	Title       string
	Description string
	Decisions   []Decision
	Outcomes    map[string]Outcome
}

func (s Scenario) ItemID() string { return s.ID }

// OutcomeFor returns the outcome of a decision, if any
func (s Scenario) OutcomeFor(decisionID string) (Outcome, bool) {
	for _, d := range s.Decisions {
		if d.ID != decisionID {
			continue
		}
		key := d.OutcomeID
		if key == "" {
			key = d.ID
		}
		o, ok := s.Outcomes[key]
		return o, ok
	}
	return Outcome{}, false
}

// text decodes a JSON scalar into a string; the backend is loose about
// whether ids and answers are strings, numbers or booleans.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = text(x)
	case bool:
		if x {
			*t = "true"
		} else {
			*t = "false"
		}
	case float64:
		*t = text(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return fmt.Errorf("expected scalar, got %T", v)
	}
	return nil
}

// textList decodes either a list of strings or a single string
type textList []string

func (l *textList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = textList{one}
		}
		return nil
	}
	var many []text
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	out := make(textList, 0, len(many))
	for _, m := range many {
		out = append(out, string(m))
	}
	*l = out
	return nil
}
