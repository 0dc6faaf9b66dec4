package models

import (
	"encoding/json"
	"strconv"
)

// DraftRequest is the body of POST /create_draft
type DraftRequest struct {
	ChangeType                 string   `json:"change_type"`
	Audience                   string   `json:"audience"`
	TechProficiency            string   `json:"tech_proficiency"`
	Urgency                    string   `json:"urgency"`
	Purpose                    string   `json:"purpose"`
	KeyPoints                  []string `json:"key_points"`
	SpecialConsiderations      string   `json:"special_considerations,omitempty"`
	IncludeScholarlyReferences bool     `json:"include_scholarly_references"`
}

// ScholarlyReference is a citation attached to a generated draft
type ScholarlyReference struct {
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	Year          string `json:"year"`
	URL           string `json:"url"`
	RelevanceNote string `json:"relevance_note"`
}

// DraftResponse is the response of POST /create_draft
type DraftResponse struct {
	Draft               string               `json:"draft"`
	ScholarlyReferences []ScholarlyReference `json:"scholarly_references,omitempty"`
}

// DraftReviewRequest is the body of POST /review_draft
type DraftReviewRequest struct {
	Content    string   `json:"content"`
	ChangeType string   `json:"change_type"`
	Audience   string   `json:"audience"`
	Purpose    string   `json:"purpose"`
	KeyPoints  []string `json:"key_points"`
}

// DraftReview is the scored review returned by POST /review_draft
type DraftReview struct {
	ClarityScore              float64  `json:"clarity_score"`
	CompletenessScore         float64  `json:"completeness_score"`
	ToneScore                 float64  `json:"tone_score"`
	ActionClarityScore        float64  `json:"action_clarity_score"`
	RelevanceScore            float64  `json:"relevance_score"`
	EmpathyScore              float64  `json:"empathy_score"`
	ResistanceMitigationScore float64  `json:"resistance_mitigation_score"`
	OverallScore              float64  `json:"overall_score"`
	Strengths                 []string `json:"strengths"`
	ImprovementAreas          []string `json:"improvement_areas"`
	SpecificSuggestions       []string `json:"specific_suggestions"`
	ImprovedDraft             string   `json:"improved_draft"`
}

// FAQRequest is the body of POST /generate_faqs
type FAQRequest struct {
	ChangeType      string   `json:"change_type"`
	Audience        string   `json:"audience"`
	TechProficiency string   `json:"tech_proficiency"`
	KeyPoints       []string `json:"key_points"`
	Purpose         string   `json:"purpose"`
}

// FAQ is one generated question and answer
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQResponse is the response of POST /generate_faqs
type FAQResponse struct {
	FAQs []FAQ `json:"faqs"`
}

// SendDraftRequest is the body of POST /send_approved_draft
type SendDraftRequest struct {
	Subject    string   `json:"subject"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// MessageResponse is a plain {message} response
type MessageResponse struct {
	Message string `json:"message"`
}

// StrategyRequest is the body of POST /strategies
type StrategyRequest struct {
	Technology string `json:"technology"`
	Framework  string `json:"framework"`
	Audience   string `json:"audience"`
}

// StrategyResponse is the response of POST /strategies
type StrategyResponse struct {
	OriginalPrompt string `json:"original_prompt"`
	Guide          string `json:"guide"`
}

// FeedbackRequest is the body of the feedback endpoints
type FeedbackRequest struct {
	OriginalPrompt string `json:"original_prompt"`
	Feedback       string `json:"feedback"`
}

// FeedbackResponse is returned by the feedback endpoints. The improved fields
// are empty when a training batch is not yet due.
type FeedbackResponse struct {
	Message        string `json:"message,omitempty"`
	ImprovedPrompt string `json:"improved_prompt,omitempty"`
	ImprovedGuide  string `json:"improved_guide,omitempty"`
}

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Question string `json:"question"`
}

// Source is a document reference returned by the knowledge endpoints.
// The backend sends either a bare string or an object.
type Source struct {
	Content string `json:"content,omitempty"`
	Source  string `json:"source,omitempty"`
	Page    *int   `json:"page,omitempty"`
}

// UnmarshalJSON accepts both a plain string and an object
func (s *Source) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Source{Source: text}
		return nil
	}
	type plain Source
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Source(p)
	return nil
}

// Label is a short human-readable label for the source
func (s Source) Label() string {
	if s.Page != nil {
		return s.Source + " (p. " + strconv.Itoa(*s.Page) + ")"
	}
	return s.Source
}

// QueryResponse is the response of POST /api/query
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// CompareRequest is the body of POST /api/compare-frameworks
type CompareRequest struct {
	Framework1 string `json:"framework1"`
	Framework2 string `json:"framework2"`
}

// CompareResponse is the response of POST /api/compare-frameworks
type CompareResponse struct {
	Comparison string `json:"comparison"`
}

// CaseStudyRequest is the body of POST /api/case-studies
type CaseStudyRequest struct {
	Industry  string `json:"industry"`
	Challenge string `json:"challenge"`
}

// CaseStudyResponse is the response of POST /api/case-studies
type CaseStudyResponse struct {
	Answer      string   `json:"answer"`
	CaseStudies []Source `json:"case_studies"`
}

// WhatIfRequest is the body of POST /api/what-if-analysis
type WhatIfRequest struct {
	CurrentFramework     string `json:"current_framework"`
	AlternativeFramework string `json:"alternative_framework"`
	Scenario             string `json:"scenario"`
}

// WhatIfResponse is the response of POST /api/what-if-analysis
type WhatIfResponse struct {
	Analysis string `json:"analysis"`
}
