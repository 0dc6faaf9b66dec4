package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"changekit/internal/flow"
	"changekit/internal/routes"
)

// FlowHandler serves the draft flow and the pages it hands over to
type FlowHandler struct {
	store    *flow.Store
	handoffs flow.HandoffStore
	backend  flow.DraftBackend
	table    *routes.Table
	rules    []flow.KeywordSet
	debug    bool
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(store *flow.Store, handoffs flow.HandoffStore, backend flow.DraftBackend, table *routes.Table, rules []flow.KeywordSet, debug bool) *FlowHandler {
	return &FlowHandler{
		store:    store,
		handoffs: handoffs,
		backend:  backend,
		table:    table,
		rules:    rules,
		debug:    debug,
	}
}

type regenerateRequest struct {
	Feedback string `json:"feedback"`
}

type sendRequest struct {
	Recipients string `json:"recipients"`
}

// GetFlow returns the visitor's draft flow
func (h *FlowHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	h.respondFlow(w, r, http.StatusOK)
}

// Generate validates the form and generates a draft
func (h *FlowHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var form flow.DraftForm
	if err := decodeJSON(w, r, &form); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}

	f := h.store.Get(GetVisitorFromContext(r.Context()))
	err := f.Generate(r.Context(), form)
	h.respondFlow(w, r, flowStatusCode(err))
}

// Regenerate asks for a new draft with the visitor's feedback
func (h *FlowHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}

	f := h.store.Get(GetVisitorFromContext(r.Context()))
	err := f.Regenerate(r.Context(), req.Feedback)
	h.respondFlow(w, r, flowStatusCode(err))
}

// Send delivers the approved draft to the recipients
func (h *FlowHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}

	f := h.store.Get(GetVisitorFromContext(r.Context()))
	err := f.Send(r.Context(), req.Recipients)
	h.respondFlow(w, r, flowStatusCode(err))
}

// Reset clears the draft flow
func (h *FlowHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.store.Get(GetVisitorFromContext(r.Context())).Reset()
	h.respondFlow(w, r, http.StatusOK)
}

// DismissStatus clears the status banner
func (h *FlowHandler) DismissStatus(w http.ResponseWriter, r *http.Request) {
	h.store.Get(GetVisitorFromContext(r.Context())).DismissStatus()
	h.respondFlow(w, r, http.StatusOK)
}

// CreateHandoff copies the flow for the FAQ, review or games page and
// returns the path to continue on
func (h *FlowHandler) CreateHandoff(w http.ResponseWriter, r *http.Request) {
	visitor := GetVisitorFromContext(r.Context())
	kind := flow.HandoffKind(r.PathValue("kind"))

	var target routes.Name
	switch kind {
	case flow.HandoffFAQ:
		target = routes.FAQ
	case flow.HandoffReview:
		target = routes.Review
	case flow.HandoffGame:
		target = routes.Games
	default:
		respondWithError(w, http.StatusNotFound, "Unknown handoff kind", "", nil)
		return
	}

	handoff := h.store.Get(visitor).Handoff(kind)
	handoff.Owner = visitor
	if kind == flow.HandoffFAQ {
		if err := handoff.Form.Validate(); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
	} else if handoff.Draft == "" {
		respondWithError(w, http.StatusConflict, "Generate a draft first", "", nil)
		return
	}

	token, err := h.handoffs.Put(r.Context(), handoff)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to store handoff", err)
		return
	}
	if h.debug {
		log.Printf("[DEBUG] CreateHandoff: %s handoff for visitor %s", kind, visitor)
	}

	respondJSON(w, http.StatusCreated, HandoffViewData{
		Token: token,
		Path:  h.table.Build(target, nil) + "?handoff=" + url.QueryEscape(token),
	})
}

// TakeHandoff returns a handoff once. Handoffs of other visitors are not found.
func (h *FlowHandler) TakeHandoff(w http.ResponseWriter, r *http.Request) {
	handoff, ok := takeHandoff(w, r, h.handoffs, r.PathValue("token"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, handoff)
}

// Review scores a draft
func (h *FlowHandler) Review(w http.ResponseWriter, r *http.Request) {
	var form flow.ReviewForm
	if err := decodeJSON(w, r, &form); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}
	if err := form.Validate(); err != nil {
		respondJSON(w, http.StatusBadRequest, ReviewViewData{Status: StatusView{Message: err.Error(), IsError: true}})
		return
	}

	review, status := flow.ReviewDraft(r.Context(), h.backend, form)
	code := http.StatusOK
	if status.IsError {
		code = http.StatusBadGateway
	}
	respondJSON(w, code, ReviewViewData{Review: review, Status: newStatusView(status)})
}

// FAQs generates FAQs for a draft form
func (h *FlowHandler) FAQs(w http.ResponseWriter, r *http.Request) {
	var form flow.DraftForm
	if err := decodeJSON(w, r, &form); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return
	}
	if err := form.Validate(); err != nil {
		respondJSON(w, http.StatusBadRequest, FAQViewData{Status: StatusView{Message: err.Error(), IsError: true}})
		return
	}

	faqs, status := flow.GenerateFAQs(r.Context(), h.backend, form)
	code := http.StatusOK
	if status.IsError {
		code = http.StatusBadGateway
	}
	respondJSON(w, code, FAQViewData{FAQs: faqs, Status: newStatusView(status)})
}

func (h *FlowHandler) respondFlow(w http.ResponseWriter, r *http.Request, status int) {
	f := h.store.Get(GetVisitorFromContext(r.Context()))
	respondJSON(w, status, newFlowViewData(f.State(), h.rules))
}

// takeHandoff consumes a handoff of the current visitor, writing the error
// response itself when there is none
func takeHandoff(w http.ResponseWriter, r *http.Request, store flow.HandoffStore, token string) (*flow.Handoff, bool) {
	handoff, err := store.Take(r.Context(), token)
	if errors.Is(err, flow.ErrHandoffNotFound) || (err == nil && handoff.Owner != GetVisitorFromContext(r.Context())) {
		respondWithError(w, http.StatusNotFound, ErrHandoffNotFound, "", nil)
		return nil, false
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load handoff", err)
		return nil, false
	}
	return handoff, true
}

// flowStatusCode maps a flow error to a response status. The flow keeps the
// banner either way.
func flowStatusCode(err error) int {
	var verr *flow.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrNoDraft), errors.Is(err, flow.ErrStale):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
