package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"changekit/internal/flow"
	"changekit/internal/game"
	"changekit/internal/models"
	"changekit/internal/routes"
	"changekit/internal/service"
)

// GameHandler serves the games page and live game sessions
type GameHandler struct {
	games    *service.GameService
	handoffs flow.HandoffStore
	table    *routes.Table
	debug    bool
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService, handoffs flow.HandoffStore, table *routes.Table, debug bool) *GameHandler {
	return &GameHandler{
		games:    games,
		handoffs: handoffs,
		table:    table,
		debug:    debug,
	}
}

type createGameRequest struct {
	Handoff  string `json:"handoff"`
	GameType string `json:"game_type"`
}

type startSessionRequest struct {
	Handoff string `json:"handoff"`
}

type answerRequest struct {
	ItemID string `json:"item_id"`
	Value  string `json:"value"`
}

// ListGames returns the filtered games with progress and recommendations
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.GameFilter{
		AdkarStage: query.Get("adkar_stage"),
		ChangeType: query.Get("change_type"),
	}

	page, err := h.games.Page(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to load games", "", err)
		return
	}

	respondJSON(w, http.StatusOK, GamesViewData{
		Games:       newGameSummaries(page.Games),
		AdkarStage:  filter.AdkarStage,
		ChangeType:  filter.ChangeType,
		Progress:    page.Progress,
		Recommended: newGameSummaries(page.Recommended),
		Warnings:    page.Warnings,
	})
}

// CreateGame generates a game from a draft handoff and hands the new game
// over to the play page
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	visitor := GetVisitorFromContext(r.Context())
	var req createGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}

	handoff, ok := takeHandoff(w, r, h.handoffs, req.Handoff)
	if !ok {
		return
	}
	if handoff.Kind != flow.HandoffGame {
		respondWithError(w, http.StatusNotFound, ErrHandoffNotFound, "", nil)
		return
	}

	created, err := h.games.Create(r.Context(), *handoff, req.GameType)
	if err != nil {
		respondWithError(w, gameErrorStatus(err), gameErrorMessage(err, "Failed to create game"), "CreateGame", err)
		return
	}

	play := flow.Handoff{Kind: flow.HandoffPlay, Owner: visitor, Form: handoff.Form, Draft: handoff.Draft, Game: created}
	token, err := h.handoffs.Put(r.Context(), play)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to store play handoff", err)
		return
	}

	path := h.table.Build(routes.Play, map[string]string{"kind": kindOf(created), "gameId": created.GameID})
	respondJSON(w, http.StatusCreated, CreateGameViewData{
		Game:     newGameSummary(*created),
		PlayPath: path + "?handoff=" + url.QueryEscape(token),
	})
}

// StartSession loads a game into a new session. A play handoff supplies the
// game directly; otherwise it is looked up by id.
func (h *GameHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	visitor := GetVisitorFromContext(r.Context())
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}

	var preloaded *models.Game
	if req.Handoff != "" {
		handoff, ok := takeHandoff(w, r, h.handoffs, req.Handoff)
		if !ok {
			return
		}
		if handoff.Kind == flow.HandoffPlay && handoff.Game != nil && handoff.Game.GameID == r.PathValue("gameId") {
			preloaded = handoff.Game
		}
	}

	c, err := h.games.Start(r.Context(), visitor, r.PathValue("kind"), r.PathValue("gameId"), preloaded)
	if err != nil {
		respondWithError(w, gameErrorStatus(err), gameErrorMessage(err, "Failed to load game"), "StartSession", err)
		return
	}
	if h.debug {
		log.Printf("[DEBUG] StartSession: visitor %s started session %s", visitor, c.SessionID())
	}

	respondJSON(w, http.StatusCreated, newSessionViewData(c.Snapshot(), h.table))
}

// GetSession returns the current view of a session
func (h *GameHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondSession(w, c, nil)
}

// Answer records the answer of an item
func (h *GameHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondSession(w, c, c.Answer(req.ItemID, req.Value))
}

// Next moves to the next item
func (h *GameHandler) Next(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondSession(w, c, c.Next())
}

// Prev moves to the previous item
func (h *GameHandler) Prev(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondSession(w, c, c.Prev())
}

// Submit scores the session and records the completion
func (h *GameHandler) Submit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	_, err := c.Submit(r.Context())
	if errors.Is(err, game.ErrSessionCompleted) {
		err = nil
	}
	h.respondSession(w, c, err)
}

// Reset restarts the session with the same items
func (h *GameHandler) Reset(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondSession(w, c, c.Reset())
}

// EndSession closes a session
func (h *GameHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.games.End(GetVisitorFromContext(r.Context()), r.PathValue("id")); err != nil {
		respondWithError(w, http.StatusNotFound, ErrSessionNotFound, "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) session(w http.ResponseWriter, r *http.Request) (*game.Controller, bool) {
	c, err := h.games.Session(GetVisitorFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrSessionNotFound, "", nil)
		return nil, false
	}
	return c, true
}

// respondSession writes the session view, or the error when the operation
// was rejected
func (h *GameHandler) respondSession(w http.ResponseWriter, c *game.Controller, err error) {
	if err != nil {
		respondWithError(w, gameErrorStatus(err), gameErrorMessage(err, "Game request failed"), "", nil)
		return
	}
	respondJSON(w, http.StatusOK, newSessionViewData(c.Snapshot(), h.table))
}

func kindOf(g *models.Game) string {
	t, err := game.ParseType(g.GameType)
	if err != nil {
		return g.GameType
	}
	return string(t)
}

func gameErrorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrUnknownType), errors.Is(err, game.ErrWrongType), errors.Is(err, game.ErrUnknownItem):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrNotAnswered), errors.Is(err, game.ErrSessionCompleted),
		errors.Is(err, game.ErrBusy), errors.Is(err, flow.ErrNoDraft):
		return http.StatusConflict
	case errors.Is(err, game.ErrStale), errors.Is(err, game.ErrClosed), errors.Is(err, game.ErrNotLoaded):
		return http.StatusGone
	default:
		return http.StatusBadGateway
	}
}

// gameErrorMessage shows the sentinel error text for rejected operations
// and the fallback for backend failures
func gameErrorMessage(err error, fallback string) string {
	if gameErrorStatus(err) == http.StatusBadGateway {
		return fallback
	}
	return err.Error()
}
