package handlers

import (
	"net/http"
	"path/filepath"
)

const HealthPath = "/api/health"

// RouterConfig holds the handlers the router dispatches to
type RouterConfig struct {
	Middleware *Middleware
	Pages      *PageHandler
	Flow       *FlowHandler
	Assistant  *AssistantHandler
	Games      *GameHandler
	Startup    *StartupStatus
	// StaticFilesPath holds the client bundle; empty serves the API only
	StaticFilesPath string
}

// NewRouter registers every route and wraps the mux with the visitor,
// startup and logging middleware
func NewRouter(cfg RouterConfig) http.Handler {
	m := cfg.Middleware
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+HealthPath, cfg.Startup.ShowStatus)

	// Pages and theme
	mux.HandleFunc("GET /api/bootstrap", cfg.Pages.Bootstrap)
	mux.HandleFunc("GET /api/route", cfg.Pages.ResolveRoute)
	mux.HandleFunc("GET /api/theme", cfg.Pages.GetTheme)
	mux.HandleFunc("POST /api/theme/toggle", m.CSRFProtect(cfg.Pages.ToggleTheme))

	// Draft flow
	mux.HandleFunc("GET /api/flow", cfg.Flow.GetFlow)
	mux.HandleFunc("POST /api/flow/generate", m.CSRFProtect(m.RateLimit(cfg.Flow.Generate)))
	mux.HandleFunc("POST /api/flow/regenerate", m.CSRFProtect(m.RateLimit(cfg.Flow.Regenerate)))
	mux.HandleFunc("POST /api/flow/send", m.CSRFProtect(m.RateLimit(cfg.Flow.Send)))
	mux.HandleFunc("POST /api/flow/reset", m.CSRFProtect(cfg.Flow.Reset))
	mux.HandleFunc("POST /api/flow/dismiss", m.CSRFProtect(cfg.Flow.DismissStatus))
	mux.HandleFunc("POST /api/flow/handoff/{kind}", m.CSRFProtect(cfg.Flow.CreateHandoff))
	mux.HandleFunc("GET /api/handoff/{token}", cfg.Flow.TakeHandoff)
	mux.HandleFunc("POST /api/review", m.CSRFProtect(m.RateLimit(cfg.Flow.Review)))
	mux.HandleFunc("POST /api/faqs", m.CSRFProtect(m.RateLimit(cfg.Flow.FAQs)))

	// Strategy assistant and knowledge base
	mux.HandleFunc("POST /api/strategies", m.CSRFProtect(m.RateLimit(cfg.Assistant.Strategies)))
	mux.HandleFunc("POST /api/feedback/immediate", m.CSRFProtect(m.RateLimit(cfg.Assistant.FeedbackImmediate)))
	mux.HandleFunc("POST /api/feedback/training", m.CSRFProtect(m.RateLimit(cfg.Assistant.FeedbackTraining)))
	mux.HandleFunc("POST /api/query", m.CSRFProtect(m.RateLimit(cfg.Assistant.Query)))
	mux.HandleFunc("POST /api/compare", m.CSRFProtect(m.RateLimit(cfg.Assistant.Compare)))
	mux.HandleFunc("POST /api/case-studies", m.CSRFProtect(m.RateLimit(cfg.Assistant.CaseStudies)))
	mux.HandleFunc("POST /api/what-if", m.CSRFProtect(m.RateLimit(cfg.Assistant.WhatIf)))

	// Games and sessions
	mux.HandleFunc("GET /api/games", cfg.Games.ListGames)
	mux.HandleFunc("POST /api/games", m.CSRFProtect(m.RateLimit(cfg.Games.CreateGame)))
	mux.HandleFunc("POST /api/play/{kind}/{gameId}", m.CSRFProtect(cfg.Games.StartSession))
	mux.HandleFunc("GET /api/sessions/{id}", cfg.Games.GetSession)
	mux.HandleFunc("GET /api/sessions/{id}/ws", cfg.Games.SessionSocket)
	mux.HandleFunc("POST /api/sessions/{id}/answer", m.CSRFProtect(cfg.Games.Answer))
	mux.HandleFunc("POST /api/sessions/{id}/next", m.CSRFProtect(cfg.Games.Next))
	mux.HandleFunc("POST /api/sessions/{id}/prev", m.CSRFProtect(cfg.Games.Prev))
	mux.HandleFunc("POST /api/sessions/{id}/submit", m.CSRFProtect(cfg.Games.Submit))
	mux.HandleFunc("POST /api/sessions/{id}/reset", m.CSRFProtect(cfg.Games.Reset))
	mux.HandleFunc("DELETE /api/sessions/{id}", m.CSRFProtect(cfg.Games.EndSession))

	mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
	})

	// Client bundle; every other path is a client-side route
	if cfg.StaticFilesPath != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))
		index := filepath.Join(cfg.StaticFilesPath, "index.html")
		mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, index)
		})
	}

	return Logging(cfg.Startup.Gate(HealthPath, m.Visitor(mux)))
}
