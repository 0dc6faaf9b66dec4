package handlers

import (
	"time"

	"changekit/internal/flow"
	"changekit/internal/game"
	"changekit/internal/models"
	"changekit/internal/routes"
	"changekit/internal/theme"
)

type StatusView struct {
	Message string `json:"message"`
	IsError bool   `json:"is_error"`
}

func newStatusView(s flow.Status) StatusView {
	return StatusView{Message: s.Message, IsError: s.IsError}
}

type BootstrapViewData struct {
	CSRFToken string      `json:"csrf_token"`
	Theme     ThemeView   `json:"theme"`
	Routes    []RouteView `json:"routes"`
	Choices   ChoicesView `json:"choices"`
}

type ChoicesView struct {
	ChangeTypes     []flow.Choice `json:"change_types"`
	Audiences       []flow.Choice `json:"audiences"`
	TechProficiency []flow.Choice `json:"tech_proficiency"`
	Urgency         []flow.Choice `json:"urgency"`
	GameTypes       []string      `json:"game_types"`
	AdkarStages     []StageView   `json:"adkar_stages"`
}

type StageView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type RouteView struct {
	Name     routes.Name       `json:"name"`
	Pattern  string            `json:"pattern,omitempty"`
	Title    string            `json:"title"`
	Path     string            `json:"path,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Found    bool              `json:"found"`
	Redirect string            `json:"redirect,omitempty"`
	// Prefill is the draft form a work detail page opens with
	Prefill *flow.DraftForm `json:"prefill,omitempty"`
}

type ThemeView struct {
	Name          string `json:"name"`
	IsDark        bool   `json:"is_dark"`
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Accent        string `json:"accent"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	Text          string `json:"text"`
	TextSecondary string `json:"text_secondary"`
	Border        string `json:"border"`
	Shadow        string `json:"shadow"`
	Gradient      string `json:"gradient"`
	Glass         string `json:"glass"`
	GlassStroke   string `json:"glass_stroke"`
	Transition    string `json:"transition"`
}

func newThemeView(t theme.Theme) ThemeView {
	return ThemeView{
		Name:          t.Name,
		IsDark:        t.IsDark(),
		Primary:       t.Primary,
		Secondary:     t.Secondary,
		Accent:        t.Accent,
		Background:    t.Background,
		Surface:       t.Surface,
		Text:          t.Text,
		TextSecondary: t.TextSecondary,
		Border:        t.Border,
		Shadow:        t.Shadow,
		Gradient:      t.Gradient,
		Glass:         t.Glass,
		GlassStroke:   t.GlassStroke,
		Transition:    t.Transition,
	}
}

type FlowViewData struct {
	Form       flow.DraftForm              `json:"form"`
	Draft      string                      `json:"draft"`
	References []models.ScholarlyReference `json:"scholarly_references"`
	Approved   bool                        `json:"approved"`
	Status     StatusView                  `json:"status"`
	FieldError string                      `json:"field_error,omitempty"`
	Loading    map[string]bool             `json:"loading"`
	Subject    string                      `json:"subject,omitempty"`
	// AdkarStage is the stage a game generated from the draft would target
	AdkarStage string `json:"adkar_stage,omitempty"`
}

func newFlowViewData(s flow.State, rules []flow.KeywordSet) FlowViewData {
	view := FlowViewData{
		Form:       s.Form,
		Draft:      s.Draft,
		References: s.References,
		Approved:   s.Approved,
		Status:     newStatusView(s.Status),
		FieldError: s.FieldError,
		Loading:    s.Loading,
	}
	if s.HasDraft() {
		view.Subject = flow.Subject(s.Form.Purpose)
		view.AdkarStage = string(flow.DetermineStage(s.Draft, s.Form.KeyPointList(), s.Form.Purpose, rules))
	}
	return view
}

type HandoffViewData struct {
	Token string `json:"token"`
	Path  string `json:"path"`
}

type ReviewViewData struct {
	Review *models.DraftReview `json:"review,omitempty"`
	Status StatusView          `json:"status"`
}

type FAQViewData struct {
	FAQs   []models.FAQ `json:"faqs"`
	Status StatusView   `json:"status"`
}

type AssistantViewData struct {
	Result interface{} `json:"result,omitempty"`
	Status StatusView  `json:"status"`
}

type CreateGameViewData struct {
	Game     GameSummary `json:"game"`
	PlayPath string      `json:"play_path"`
}

// GameSummary is a game without its content, which holds the answers
type GameSummary struct {
	GameID       string `json:"game_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	GameType     string `json:"game_type"`
	AdkarStage   string `json:"adkar_stage"`
	ChangeType   string `json:"change_type"`
	Points       int    `json:"points"`
}

func newGameSummary(g models.Game) GameSummary {
	return GameSummary{
		GameID:       g.GameID,
		Title:        g.Title,
		Description:  g.Description,
		Instructions: g.Instructions,
		GameType:     g.GameType,
		AdkarStage:   g.AdkarStage,
		ChangeType:   g.ChangeType,
		Points:       g.Points,
	}
}

func newGameSummaries(games []models.Game) []GameSummary {
	out := make([]GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, newGameSummary(g))
	}
	return out
}

type GamesViewData struct {
	Games       []GameSummary        `json:"games"`
	AdkarStage  string               `json:"adkar_stage,omitempty"`
	ChangeType  string               `json:"change_type,omitempty"`
	Progress    *models.UserProgress `json:"progress"`
	Recommended []GameSummary        `json:"recommended_games"`
	Warnings    []string             `json:"warnings,omitempty"`
}

type OptionView struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

type OutcomeView struct {
	Text   string        `json:"text"`
	Impact models.Impact `json:"impact"`
}

type ItemViewData struct {
	ID              string       `json:"id"`
	Kind            string       `json:"kind,omitempty"`
	Heading         string       `json:"heading,omitempty"`
	Title           string       `json:"title,omitempty"`
	Prompt          string       `json:"prompt"`
	Description     string       `json:"description,omitempty"`
	Options         []OptionView `json:"options,omitempty"`
	Answer          string       `json:"answer"`
	Placeholder     string       `json:"placeholder,omitempty"`
	Error           string       `json:"error,omitempty"`
	TimeLimit       int          `json:"time_limit,omitempty"`
	SuccessCriteria []string     `json:"success_criteria,omitempty"`
	Outcome         *OutcomeView `json:"outcome,omitempty"`
}

func newItemViewData(v game.ItemView) ItemViewData {
	item := ItemViewData{
		ID:              v.ID,
		Kind:            v.Kind,
		Heading:         v.Heading,
		Title:           v.Title,
		Prompt:          v.Prompt,
		Description:     v.Description,
		Answer:          v.Answer,
		Placeholder:     v.Placeholder,
		Error:           v.Error,
		TimeLimit:       v.TimeLimit,
		SuccessCriteria: v.SuccessCriteria,
	}
	for _, o := range v.Options {
		item.Options = append(item.Options, OptionView{ID: o.ID, Text: o.Text, Selected: o.Selected})
	}
	if v.Outcome != nil {
		item.Outcome = &OutcomeView{Text: v.Outcome.Text, Impact: v.Outcome.Impact}
	}
	return item
}

type ResultViewData struct {
	Score          int                  `json:"score"`
	Band           string               `json:"band"`
	TimeTaken      int                  `json:"time_taken"`
	TimeTakenClock string               `json:"time_taken_clock"`
	Progress       *models.UserProgress `json:"progress"`
	PointsEarned   int                  `json:"points_earned"`
	Message        string               `json:"message"`
	Stages         []StageTimeView      `json:"stages,omitempty"`
	TotalImpact    *models.Impact       `json:"total_impact,omitempty"`
	CompletedAt    time.Time            `json:"completed_at"`
}

type StageTimeView struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Spent      int    `json:"spent"`
	SpentClock string `json:"spent_clock"`
	Limit      int    `json:"limit"`
}

type SessionViewData struct {
	SessionID      string          `json:"session_id"`
	Game           GameSummary     `json:"game"`
	Type           game.Type       `json:"type"`
	Index          int             `json:"index"`
	Total          int             `json:"total"`
	Item           ItemViewData    `json:"item"`
	CanPrev        bool            `json:"can_prev"`
	CanNext        bool            `json:"can_next"`
	CanSubmit      bool            `json:"can_submit"`
	IsLast         bool            `json:"is_last"`
	Progress       int             `json:"progress"`
	Timed          bool            `json:"timed"`
	Remaining      int             `json:"remaining,omitempty"`
	RemainingClock string          `json:"remaining_clock,omitempty"`
	Status         string          `json:"status"`
	Result         *ResultViewData `json:"result,omitempty"`
	Loading        map[string]bool `json:"loading"`
	Path           string          `json:"path"`
}

func newSessionViewData(v game.View, table *routes.Table) SessionViewData {
	data := SessionViewData{
		SessionID: v.SessionID,
		Game:      newGameSummary(v.Game),
		Type:      v.Type,
		Index:     v.Index,
		Total:     v.Total,
		Item:      newItemViewData(v.Item),
		CanPrev:   v.CanPrev,
		CanNext:   v.CanNext,
		CanSubmit: v.CanSubmit,
		IsLast:    v.IsLast,
		Progress:  v.Progress,
		Timed:     v.Timed,
		Status:    string(v.Status),
		Loading:   v.Loading,
		Path:      table.Build(routes.Play, map[string]string{"kind": string(v.Type), "gameId": v.Game.GameID}),
	}
	if v.Timed {
		data.Remaining = v.Remaining
		data.RemainingClock = game.FormatClock(v.Remaining)
	}
	if r := v.Result; r != nil {
		result := &ResultViewData{
			Score:          r.Score,
			Band:           v.Band,
			TimeTaken:      r.TimeTakenSeconds,
			TimeTakenClock: game.FormatClock(r.TimeTakenSeconds),
			Progress:       r.Progress,
			PointsEarned:   r.PointsEarned,
			Message:        r.Message,
			TotalImpact:    r.TotalImpact,
			CompletedAt:    r.CompletedAt,
		}
		for _, st := range v.Stages {
			result.Stages = append(result.Stages, StageTimeView{
				Number:     st.Number,
				Name:       st.Name,
				Spent:      st.Spent,
				SpentClock: game.FormatClock(st.Spent),
				Limit:      st.Limit,
			})
		}
		data.Result = result
	}
	return data
}

// TimerMessage is pushed over the session websocket
type TimerMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id"`
	Index     int    `json:"index"`
	Remaining int    `json:"remaining"`
	Clock     string `json:"clock"`
	Expired   bool   `json:"expired"`
}

func newTimerMessage(s game.TimerState) TimerMessage {
	return TimerMessage{
		Type:      "timer",
		SessionID: s.SessionID,
		ItemID:    s.ItemID,
		Index:     s.Index,
		Remaining: s.Remaining,
		Clock:     game.FormatClock(s.Remaining),
		Expired:   s.Expired,
	}
}
