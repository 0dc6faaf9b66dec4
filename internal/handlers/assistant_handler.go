package handlers

import (
	"context"
	"log"
	"net/http"

	"changekit/internal/client"
	"changekit/internal/flow"
	"changekit/internal/models"
)

// AssistantBackend is what the strategy assistant and knowledge pages need
// from the backend client
type AssistantBackend interface {
	Strategies(ctx context.Context, req models.StrategyRequest) (*models.StrategyResponse, error)
	FeedbackImmediate(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error)
	FeedbackTraining(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error)
	Query(ctx context.Context, question string) (*models.QueryResponse, error)
	CompareFrameworks(ctx context.Context, req models.CompareRequest) (string, error)
	CaseStudies(ctx context.Context, req models.CaseStudyRequest) (*models.CaseStudyResponse, error)
	WhatIfAnalysis(ctx context.Context, req models.WhatIfRequest) (string, error)
}

// AssistantHandler serves the strategy assistant and knowledge pages
type AssistantHandler struct {
	backend AssistantBackend
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(backend AssistantBackend) *AssistantHandler {
	return &AssistantHandler{backend: backend}
}

// Strategies generates a change strategy guide
func (h *AssistantHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	var req models.StrategyRequest
	if !decodeAssistant(w, r, &req) {
		return
	}
	h.run(w, flow.ValidateStrategy(req), func() (interface{}, error) {
		return h.backend.Strategies(r.Context(), req)
	}, func(err error) string {
		return "Error generating strategy: " + client.Detail(err)
	})
}

// FeedbackImmediate regenerates a guide from the visitor's feedback
func (h *AssistantHandler) FeedbackImmediate(w http.ResponseWriter, r *http.Request) {
	h.feedback(w, r, false)
}

// FeedbackTraining saves feedback for the next training batch
func (h *AssistantHandler) FeedbackTraining(w http.ResponseWriter, r *http.Request) {
	h.feedback(w, r, true)
}

func (h *AssistantHandler) feedback(w http.ResponseWriter, r *http.Request, training bool) {
	var req models.FeedbackRequest
	if !decodeAssistant(w, r, &req) {
		return
	}
	if err := flow.ValidateFeedback(req.Feedback); err != nil {
		respondJSON(w, http.StatusBadRequest, AssistantViewData{Status: StatusView{Message: err.Error(), IsError: true}})
		return
	}

	send, failure := h.backend.FeedbackImmediate, "Failed to submit immediate feedback."
	if training {
		send, failure = h.backend.FeedbackTraining, "Failed to submit training feedback."
	}
	resp, err := send(r.Context(), req)
	if err != nil {
		log.Printf("Feedback: backend request failed: %v", err)
		respondJSON(w, http.StatusBadGateway, AssistantViewData{Status: StatusView{Message: failure, IsError: true}})
		return
	}
	respondJSON(w, http.StatusOK, AssistantViewData{Result: resp, Status: newStatusView(flow.FeedbackStatus(resp, training))})
}

// Query answers a question from the knowledge base
func (h *AssistantHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if !decodeAssistant(w, r, &req) {
		return
	}
	h.run(w, flow.ValidateQuestion(req.Question), func() (interface{}, error) {
		return h.backend.Query(r.Context(), req.Question)
	}, func(error) string {
		return "Something went wrong. Please try again."
	})
}

// Compare compares two change management frameworks
func (h *AssistantHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if !decodeAssistant(w, r, &req) {
		return
	}
	h.run(w, flow.ValidateComparison(req), func() (interface{}, error) {
		comparison, err := h.backend.CompareFrameworks(r.Context(), req)
		if err != nil {
			return nil, err
		}
		return models.CompareResponse{Comparison: comparison}, nil
	}, func(error) string {
		return "Failed to compare frameworks."
	})
}

// CaseStudies finds case studies for an industry or challenge
func (h *AssistantHandler) CaseStudies(w http.ResponseWriter, r *http.Request) {
	var req models.CaseStudyRequest
	if !decodeAssistant(w, r, &req) {
		return
	}
	h.run(w, flow.ValidateCaseStudies(req), func() (interface{}, error) {
		return h.backend.CaseStudies(r.Context(), req)
	}, func(err error) string {
		return "Failed to fetch case studies: " + client.Detail(err)
	})
}

// WhatIf analyses switching to an alternative framework
func (h *AssistantHandler) WhatIf(w http.ResponseWriter, r *http.Request) {
	var req models.WhatIfRequest
	if !decodeAssistant(w, r, &req) {
		return
	}
	h.run(w, flow.ValidateWhatIf(req), func() (interface{}, error) {
		analysis, err := h.backend.WhatIfAnalysis(r.Context(), req)
		if err != nil {
			return nil, err
		}
		return models.WhatIfResponse{Analysis: analysis}, nil
	}, func(err error) string {
		return "Failed to fetch what-if analysis: " + client.Detail(err)
	})
}

// run answers with the validation banner, the failure banner or the result
func (h *AssistantHandler) run(w http.ResponseWriter, invalid error, call func() (interface{}, error), failure func(error) string) {
	if invalid != nil {
		respondJSON(w, http.StatusBadRequest, AssistantViewData{Status: StatusView{Message: invalid.Error(), IsError: true}})
		return
	}
	result, err := call()
	if err != nil {
		log.Printf("Assistant: backend request failed: %v", err)
		respondJSON(w, http.StatusBadGateway, AssistantViewData{Status: StatusView{Message: failure(err), IsError: true}})
		return
	}
	respondJSON(w, http.StatusOK, AssistantViewData{Result: result})
}

func decodeAssistant(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeJSON(w, r, v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequest, "", err)
		return false
	}
	return true
}
