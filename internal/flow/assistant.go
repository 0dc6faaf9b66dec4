package flow

import (
	"strings"

	"changekit/internal/models"
)

// Validation of the strategy assistant and knowledge page forms. The
// messages are the banners shown to the visitor.

func ValidateStrategy(req models.StrategyRequest) error {
	if strings.TrimSpace(req.Technology) == "" || strings.TrimSpace(req.Framework) == "" {
		return &ValidationError{Message: "Please enter both a technology and framework."}
	}
	return nil
}

func ValidateFeedback(feedback string) error {
	if strings.TrimSpace(feedback) == "" {
		return &ValidationError{Field: "feedback", Message: "Please enter feedback before submitting."}
	}
	return nil
}

func ValidateCaseStudies(req models.CaseStudyRequest) error {
	if strings.TrimSpace(req.Industry) == "" && strings.TrimSpace(req.Challenge) == "" {
		return &ValidationError{Message: "Please enter either an industry or challenge for case studies."}
	}
	return nil
}

func ValidateWhatIf(req models.WhatIfRequest) error {
	if strings.TrimSpace(req.CurrentFramework) == "" ||
		strings.TrimSpace(req.AlternativeFramework) == "" ||
		strings.TrimSpace(req.Scenario) == "" {
		return &ValidationError{Message: "Please fill all fields for What-If Analysis."}
	}
	return nil
}

func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return &ValidationError{Field: "question", Message: "Please enter a question."}
	}
	return nil
}

func ValidateComparison(req models.CompareRequest) error {
	if strings.TrimSpace(req.Framework1) == "" || strings.TrimSpace(req.Framework2) == "" {
		return &ValidationError{Message: "Please enter two frameworks to compare."}
	}
	return nil
}

// FeedbackStatus is the banner after feedback was accepted. Training
// feedback only returns an improved guide once a batch is processed.
func FeedbackStatus(resp *models.FeedbackResponse, training bool) Status {
	switch {
	case resp.ImprovedGuide != "" && training:
		return Status{Message: "Training batch processed! Here's the new version."}
	case resp.ImprovedGuide != "":
		return Status{Message: "Improved guide generated based on your feedback."}
	case training:
		return Status{Message: "Feedback saved for training. We'll process it after 5 entries."}
	default:
		return Status{Message: "Feedback received."}
	}
}
