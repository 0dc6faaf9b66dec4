package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"changekit/internal/flow"
	"changekit/internal/game"
	"changekit/internal/models"

	"golang.org/x/sync/errgroup"
)

// ErrSessionNotFound is returned for unknown sessions and sessions of other visitors
var ErrSessionNotFound = errors.New("game session not found")

// GameBackend is what the game service needs from the backend client
type GameBackend interface {
	game.Backend
	UserProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	RecommendGames(ctx context.Context, userID string) ([]models.Game, error)
	CreateGame(ctx context.Context, req models.GameCreationRequest) (*models.Game, error)
}

// GameServiceOptions configure a GameService
type GameServiceOptions struct {
	// UserID is the backend user progress is recorded for
	UserID string
	// Rules classify drafts into ADKAR stages; nil uses the defaults
	Rules []flow.KeywordSet
	// ManualTicks disables countdown goroutines in started sessions
	ManualTicks bool
	Debug       bool
}

// GamesPage is the data of the games page
type GamesPage struct {
	Games       []models.Game        `json:"games"`
	Filter      models.GameFilter    `json:"filter"`
	Progress    *models.UserProgress `json:"progress"`
	Recommended []models.Game        `json:"recommended_games"`
	// Warnings name the optional parts that could not be loaded
	Warnings []string `json:"warnings,omitempty"`
}

// GameService serves the game catalogue and the live game sessions
type GameService struct {
	backend  GameBackend
	registry *game.Registry
	opts     GameServiceOptions
}

func NewGameService(backend GameBackend, registry *game.Registry, opts GameServiceOptions) *GameService {
	return &GameService{backend: backend, registry: registry, opts: opts}
}

// Page loads the filtered game list together with the user's progress and
// recommendations. Only the game list is required.
func (s *GameService) Page(ctx context.Context, filter models.GameFilter) (*GamesPage, error) {
	page := &GamesPage{Filter: filter}
	var progressErr, recommendErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		games, err := s.backend.ListGames(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list games: %w", err)
		}
		page.Games = games
		return nil
	})
	g.Go(func() error {
		page.Progress, progressErr = s.backend.UserProgress(gctx, s.opts.UserID)
		return nil
	})
	g.Go(func() error {
		page.Recommended, recommendErr = s.backend.RecommendGames(gctx, s.opts.UserID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if progressErr != nil {
		log.Printf("GamesPage: failed to load progress for %s: %v", s.opts.UserID, progressErr)
		page.Warnings = append(page.Warnings, "progress")
	}
	if recommendErr != nil {
		log.Printf("GamesPage: failed to load recommendations for %s: %v", s.opts.UserID, recommendErr)
		page.Warnings = append(page.Warnings, "recommendations")
	}
	return page, nil
}

// Create generates a game from a draft handed over by the draft flow
func (s *GameService) Create(ctx context.Context, h flow.Handoff, gameType string) (*models.Game, error) {
	t, err := game.ParseType(gameType)
	if err != nil {
		return nil, err
	}
	if h.Draft == "" {
		return nil, flow.ErrNoDraft
	}

	req := h.Form.GameRequest(h.Draft, string(t), s.opts.Rules)
	if s.opts.Debug {
		log.Printf("[DEBUG] CreateGame: type=%s stage=%s change=%q", req.GameType, req.AdkarStage, req.ChangeName)
	}
	created, err := s.backend.CreateGame(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return created, nil
}

// Start loads a game into a new session owned by owner. preloaded is the
// game handed over by the game list, if any.
func (s *GameService) Start(ctx context.Context, owner, kind, gameID string, preloaded *models.Game) (*game.Controller, error) {
	t, err := game.ParseType(kind)
	if err != nil {
		return nil, err
	}
	strategy, err := game.StrategyFor(t)
	if err != nil {
		return nil, err
	}

	c := game.NewController(strategy, s.backend, game.Options{
		UserID:      s.opts.UserID,
		Owner:       owner,
		ManualTicks: s.opts.ManualTicks,
		Debug:       s.opts.Debug,
	})
	if err := c.Load(ctx, gameID, preloaded); err != nil {
		c.Close()
		return nil, err
	}

	s.registry.Add(c)
	return c, nil
}

// Session returns a live session of owner
func (s *GameService) Session(owner, sessionID string) (*game.Controller, error) {
	c, ok := s.registry.Get(sessionID)
	if !ok || c.Owner() != owner {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// End closes a session of owner
func (s *GameService) End(owner, sessionID string) error {
	if _, err := s.Session(owner, sessionID); err != nil {
		return err
	}
	s.registry.Remove(sessionID)
	return nil
}
