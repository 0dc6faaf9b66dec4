package handlers

import (
	"net/http"

	"changekit/internal/flow"
	"changekit/internal/game"
	"changekit/internal/routes"
	"changekit/internal/theme"
)

// PrefersColorSchemeHeader carries the browser's colour scheme client hint
const PrefersColorSchemeHeader = "Sec-CH-Prefers-Color-Scheme"

// PageHandler serves the route table and the theme
type PageHandler struct {
	table      *routes.Table
	themes     *theme.Service
	middleware *Middleware
}

// NewPageHandler creates a new page handler
func NewPageHandler(table *routes.Table, themes *theme.Service, middleware *Middleware) *PageHandler {
	return &PageHandler{
		table:      table,
		themes:     themes,
		middleware: middleware,
	}
}

// Bootstrap returns what the client needs before the first page: the CSRF
// token, the theme, the page table and the form choices
func (h *PageHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	visitor := GetVisitorFromContext(r.Context())
	w.Header().Set("Accept-CH", PrefersColorSchemeHeader)

	data := BootstrapViewData{
		CSRFToken: h.middleware.CSRFToken(visitor),
		Theme:     newThemeView(h.themes.Current(r.Context(), visitor, prefersDark(r))),
		Choices: ChoicesView{
			ChangeTypes:     flow.ChangeTypeChoices,
			Audiences:       flow.AudienceChoices,
			TechProficiency: flow.TechProficiencyChoices,
			Urgency:         flow.UrgencyChoices,
		},
	}
	for _, route := range h.table.Routes() {
		data.Routes = append(data.Routes, RouteView{Name: route.Name, Pattern: route.Pattern, Title: route.Title, Found: true})
	}
	for _, t := range game.Types() {
		data.Choices.GameTypes = append(data.Choices.GameTypes, string(t))
	}
	for _, s := range flow.Stages {
		data.Choices.AdkarStages = append(data.Choices.AdkarStages, StageView{Value: string(s), Label: s.Label()})
	}

	respondJSON(w, http.StatusOK, data)
}

// ResolveRoute resolves the path query parameter to a page. Unknown paths
// resolve to the not-found page with a 404 status.
func (h *PageHandler) ResolveRoute(w http.ResponseWriter, r *http.Request) {
	m := h.table.Resolve(r.URL.Query().Get("path"))
	view := RouteView{
		Name:    m.Route.Name,
		Title:   m.Route.Title,
		Path:    m.Path,
		Params:  m.Params,
		Found:   m.Found(),
		Pattern: m.Route.Pattern,
	}

	if m.Route.Name == routes.WorkDetail {
		changeType, ok := flow.ChangeTypeForSlug(m.Param("slug"))
		if !ok {
			view.Redirect = h.table.Build(routes.Work, nil)
		} else {
			view.Prefill = &flow.DraftForm{ChangeType: changeType}
		}
	}

	status := http.StatusOK
	if !view.Found {
		status = http.StatusNotFound
	}
	respondJSON(w, status, view)
}

// GetTheme returns the visitor's theme
func (h *PageHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	visitor := GetVisitorFromContext(r.Context())
	respondJSON(w, http.StatusOK, newThemeView(h.themes.Current(r.Context(), visitor, prefersDark(r))))
}

// ToggleTheme switches the visitor between the light and dark themes
func (h *PageHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	visitor := GetVisitorFromContext(r.Context())
	t, err := h.themes.Toggle(r.Context(), visitor, prefersDark(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save theme", "", err)
		return
	}
	respondJSON(w, http.StatusOK, newThemeView(t))
}

func prefersDark(r *http.Request) bool {
	return r.Header.Get(PrefersColorSchemeHeader) == "dark"
}
