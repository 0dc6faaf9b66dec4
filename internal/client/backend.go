package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"changekit/internal/models"

	"golang.org/x/oauth2/clientcredentials"
)

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// Options configures a BackendClient
type Options struct {
	BaseURL string
	Timeout time.Duration

	// Client credentials; all three must be set to enable token auth
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// BackendClient talks to the change-assistant HTTP API
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a backend client
func NewBackendClient(opts Options) *BackendClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if opts.ClientID != "" && opts.ClientSecret != "" && opts.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}

	return &BackendClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// NewBackendClientWithHTTP creates a backend client around an existing http.Client
func NewBackendClientWithHTTP(baseURL string, httpClient *http.Client) *BackendClient {
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateDraft generates a communication draft
func (c *BackendClient) CreateDraft(ctx context.Context, req models.DraftRequest) (*models.DraftResponse, error) {
	var resp models.DraftResponse
	if err := c.post(ctx, "/create_draft", req, &resp); err != nil {
		return nil, err
	}
	if resp.Draft == "" {
		return nil, fmt.Errorf("create draft: invalid response format")
	}
	return &resp, nil
}

// ReviewDraft scores a draft
func (c *BackendClient) ReviewDraft(ctx context.Context, req models.DraftReviewRequest) (*models.DraftReview, error) {
	var resp models.DraftReview
	if err := c.post(ctx, "/review_draft", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateFAQs generates FAQs for a change
func (c *BackendClient) GenerateFAQs(ctx context.Context, req models.FAQRequest) ([]models.FAQ, error) {
	var resp struct {
		FAQs *[]models.FAQ `json:"faqs"`
	}
	if err := c.post(ctx, "/generate_faqs", req, &resp); err != nil {
		return nil, err
	}
	if resp.FAQs == nil {
		return nil, fmt.Errorf("generate faqs: invalid response format")
	}
	return *resp.FAQs, nil
}

// SendApprovedDraft asks the backend to email an approved draft
func (c *BackendClient) SendApprovedDraft(ctx context.Context, req models.SendDraftRequest) (string, error) {
	var resp models.MessageResponse
	if err := c.post(ctx, "/send_approved_draft", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ListGames lists games, optionally filtered
func (c *BackendClient) ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	params := url.Values{}
	if filter.AdkarStage != "" {
		params.Set("adkar_stage", filter.AdkarStage)
	}
	if filter.ChangeType != "" {
		params.Set("change_type", filter.ChangeType)
	}

	path := "/games"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp models.GameList
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

// CreateGame creates a game from change details
func (c *BackendClient) CreateGame(ctx context.Context, req models.GameCreationRequest) (*models.Game, error) {
	var resp models.Game
	if err := c.post(ctx, "/create_game", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompleteGame records a finished game and returns the user's updated progress
func (c *BackendClient) CompleteGame(ctx context.Context, req models.GameCompletion) (*models.UserProgress, error) {
	var resp models.UserProgress
	if err := c.post(ctx, "/complete_game", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserProgress fetches a user's progress
func (c *BackendClient) UserProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	var resp models.UserProgress
	if err := c.get(ctx, "/user_progress/"+url.PathEscape(userID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecommendGames fetches game recommendations for a user
func (c *BackendClient) RecommendGames(ctx context.Context, userID string) ([]models.Game, error) {
	var resp models.GameRecommendations
	if err := c.get(ctx, "/recommend_games/"+url.PathEscape(userID), &resp); err != nil {
		return nil, err
	}
	return resp.RecommendedGames, nil
}

// Strategies generates an adoption strategy guide
func (c *BackendClient) Strategies(ctx context.Context, req models.StrategyRequest) (*models.StrategyResponse, error) {
	var resp models.StrategyResponse
	if err := c.post(ctx, "/strategies", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FeedbackImmediate regenerates a guide from one piece of feedback
func (c *BackendClient) FeedbackImmediate(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error) {
	var resp models.FeedbackResponse
	if err := c.post(ctx, "/feedback_immediate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FeedbackTraining queues feedback for the next training batch
func (c *BackendClient) FeedbackTraining(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error) {
	var resp models.FeedbackResponse
	if err := c.post(ctx, "/feedback_training", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Query asks the knowledge base a question
func (c *BackendClient) Query(ctx context.Context, question string) (*models.QueryResponse, error) {
	var resp models.QueryResponse
	if err := c.post(ctx, "/api/query", models.QueryRequest{Question: question}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompareFrameworks compares two change management frameworks
func (c *BackendClient) CompareFrameworks(ctx context.Context, req models.CompareRequest) (string, error) {
	var resp models.CompareResponse
	if err := c.post(ctx, "/api/compare-frameworks", req, &resp); err != nil {
		return "", err
	}
	return resp.Comparison, nil
}

// CaseStudies finds case studies for an industry or challenge
func (c *BackendClient) CaseStudies(ctx context.Context, req models.CaseStudyRequest) (*models.CaseStudyResponse, error) {
	var resp models.CaseStudyResponse
	if err := c.post(ctx, "/api/case-studies", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WhatIfAnalysis compares switching frameworks in a scenario
func (c *BackendClient) WhatIfAnalysis(ctx context.Context, req models.WhatIfRequest) (string, error) {
	var resp models.WhatIfResponse
	if err := c.post(ctx, "/api/what-if-analysis", req, &resp); err != nil {
		return "", err
	}
	return resp.Analysis, nil
}

func (c *BackendClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *BackendClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *BackendClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// decodeAPIError reads FastAPI's {"detail": ...} or {"message": ...} bodies
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil {
			apiErr.Detail = detail
		} else if len(payload.Detail) > 0 {
			apiErr.Detail = string(payload.Detail)
		} else {
			apiErr.Detail = payload.Message
		}
	} else {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}

// Detail extracts a user-facing message from a backend error
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errors.As(err, &apiErr) {
		return "Server error"
	}
	return err.Error()
}
