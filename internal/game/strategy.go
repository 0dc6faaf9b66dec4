package game

import (
	"encoding/json"
	"fmt"
	"math"

	"changekit/internal/models"
)

// Strategy holds everything that differs between game variants
type Strategy interface {
	Type() Type
	// Extract parses the backend content into items
	Extract(content json.RawMessage) ([]Item, error)
	// Render builds the view of one item with its current answer
	Render(item Item, answer string) ItemView
	// Answered reports whether answer lets the player move past item
	Answered(item Item, answer string) bool
	// Score computes the 0-100 score of a session
	Score(s *Session) int
	// Message is the result text shown for a score
	Message(score int) string
}

// timed is implemented by strategies whose items run a countdown
type timed interface {
	TimeLimit(item Item) int
}

// resultDecorator adds variant specific details to a result
type resultDecorator interface {
	Decorate(s *Session, r *models.GameResult)
}

// ItemView is the render model of the current item
type ItemView struct {
	ID          string
	Kind        string
	Heading     string
	Title       string
	Prompt      string
	Description string
	Options     []OptionView
	Answer      string
	Placeholder string
	// Error is a visible error state for an item that cannot be played normally
	Error           string
	TimeLimit       int
	SuccessCriteria []string
	Outcome         *OutcomeView
}

// OptionView is one selectable choice
type OptionView struct {
	ID       string
	Text     string
	Selected bool
}

// OutcomeView is the consequence shown after a simulation decision
type OutcomeView struct {
	Text   string
	Impact models.Impact
}

// StrategyFor returns the strategy of a game type
func StrategyFor(t Type) (Strategy, error) {
	switch t {
	case TypeMCQ:
		return mcqStrategy{}, nil
	case TypeQuiz:
		return quizStrategy{}, nil
	case TypeChallenge:
		return challengeStrategy{}, nil
	case TypeSimulation:
		return simulationStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// percent returns round(100 * part / total), 0 when total is 0
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Band classifies a score for display: "high", "medium" or "low"
func Band(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}

// PointsEarned is the share of a game's points a score earns
func PointsEarned(points, score int) int {
	return int(math.Round(float64(points) * float64(score) / 100))
}

func bandMessage(score int, messages [4]string) string {
	switch {
	case score >= 80:
		return messages[0]
	case score >= 60:
		return messages[1]
	case score >= 40:
		return messages[2]
	default:
		return messages[3]
	}
}

var knowledgeMessages = [4]string{
	"Excellent work! You've demonstrated a great understanding of the concepts.",
	"Good job! You've grasped most of the key concepts.",
	"Nice effort! With a bit more practice, you'll master these concepts.",
	"Good start! Consider reviewing the material and trying again to strengthen your understanding.",
}
