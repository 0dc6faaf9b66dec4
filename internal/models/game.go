package models

import (
	"encoding/json"
	"time"
)

// Game is a game definition as served by the backend
type Game struct {
	GameID       string          `json:"game_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Instructions string          `json:"instructions"`
	GameType     string          `json:"game_type"`
	AdkarStage   string          `json:"adkar_stage"`
	ChangeType   string          `json:"change_type"`
	Points       int             `json:"points"`
	Content      json.RawMessage `json:"content"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

// GameList is the response of GET /games
type GameList struct {
	Games []Game `json:"games"`
}

// GameFilter narrows GET /games
type GameFilter struct {
	AdkarStage string
	ChangeType string
}

// GameRecommendations is the response of GET /recommend_games/{userId}
type GameRecommendations struct {
	RecommendedGames []Game `json:"recommended_games"`
}

// GameCreationRequest is the body of POST /create_game
type GameCreationRequest struct {
	ChangeType        string   `json:"change_type"`
	Audience          string   `json:"audience"`
	TechProficiency   string   `json:"tech_proficiency"`
	ChangeName        string   `json:"change_name"`
	ChangeDescription string   `json:"change_description"`
	AdkarStage        string   `json:"adkar_stage"`
	GameType          string   `json:"game_type"`
	KeyPoints         []string `json:"key_points"`
}

// GameCompletion is the body of POST /complete_game
type GameCompletion struct {
	UserID    string `json:"user_id"`
	GameID    string `json:"game_id"`
	Score     int    `json:"score"`
	TimeTaken int    `json:"time_taken"`
}

// UserProgress is returned by /complete_game and /user_progress/{userId}
type UserProgress struct {
	UserID         string   `json:"user_id,omitempty"`
	Points         int      `json:"points"`
	Badges         []string `json:"badges"`
	CompletedGames []string `json:"completed_games,omitempty"`
	Level          int      `json:"level,omitempty"`
}

// SessionStatus is the lifecycle state of a game session
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Impact holds the simulation impact totals
type Impact struct {
	Timeline float64 `json:"timeline"`
	Adoption float64 `json:"adoption"`
	Results  float64 `json:"results"`
}

// GameResult is created when a session is submitted and never mutated afterwards
type GameResult struct {
	Score            int
	TimeTakenSeconds int
	// Progress is nil when the completion could not be recorded by the backend
	Progress     *UserProgress
	PointsEarned int
	Message      string
	StageTimes   map[string]int
	TotalImpact  *Impact
	CompletedAt  time.Time
}
