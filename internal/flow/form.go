package flow

import (
	"fmt"
	"regexp"
	"strings"

	"changekit/internal/models"
)

// ValidationError is a missing or malformed form field. It blocks the
// request and is shown inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Choice is an option of a select field
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var ChangeTypeChoices = []Choice{
	{"technology_upgrade", "Technology Upgrade"},
	{"process_change", "Process Change"},
	{"policy_update", "Policy Update"},
	{"security_update", "Security Update"},
	{"maintenance", "Maintenance"},
	{"feature_release", "Feature Release"},
	{"service_outage", "Service Outage"},
	{"organizational_change", "Organizational Change"},
}

// ChangeTypeForSlug maps a URL slug such as "technology-upgrade" to a
// change type value
func ChangeTypeForSlug(slug string) (string, bool) {
	value := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(slug)), "-", "_")
	for _, c := range ChangeTypeChoices {
		if c.Value == value {
			return value, true
		}
	}
	return "", false
}

var AudienceChoices = []Choice{
	{"all_employees", "All Employees"},
	{"engineering_team", "Engineering Team"},
	{"sales_team", "Sales Team"},
	{"leadership", "Leadership Team"},
	{"product_team", "Product Team"},
	{"marketing", "Marketing Team"},
	{"customer_support", "Customer Support"},
	{"external_clients", "External Clients"},
}

var TechProficiencyChoices = []Choice{
	{"high", "High"},
	{"medium", "Medium"},
	{"low", "Low"},
	{"mixed", "Mixed"},
}

var UrgencyChoices = []Choice{
	{"high", "High"},
	{"medium", "Medium"},
	{"low", "Low"},
	{"fyi", "FYI Only"},
}

// DraftForm holds the fields of the communication draft form
type DraftForm struct {
	ChangeType            string `json:"change_type"`
	Audience              string `json:"audience"`
	TechProficiency       string `json:"tech_proficiency"`
	Urgency               string `json:"urgency"`
	Purpose               string `json:"purpose"`
	KeyPoints             string `json:"key_points"`
	Recipients            string `json:"recipients"`
	IncludeReferences     bool   `json:"include_references"`
	SpecialConsiderations string `json:"special_considerations,omitempty"`
}

// Validate checks the required fields in form order
func (f DraftForm) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"change_type", f.ChangeType},
		{"audience", f.Audience},
		{"purpose", f.Purpose},
		{"key_points", f.KeyPoints},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{
				Field:   r.name,
				Message: fmt.Sprintf("Please fill in the %s field", strings.Replace(r.name, "_", " ", 1)),
			}
		}
	}
	return nil
}

// KeyPointList splits the key points on newlines, dropping blank lines
func (f DraftForm) KeyPointList() []string {
	return SplitKeyPoints(f.KeyPoints)
}

// SplitKeyPoints splits newline separated key points
func SplitKeyPoints(s string) []string {
	var points []string
	for _, line := range strings.Split(s, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			points = append(points, p)
		}
	}
	return points
}

// DraftRequest builds the create_draft body
func (f DraftForm) DraftRequest() models.DraftRequest {
	return models.DraftRequest{
		ChangeType:                 f.ChangeType,
		Audience:                   f.Audience,
		TechProficiency:            f.TechProficiency,
		Urgency:                    f.Urgency,
		Purpose:                    f.Purpose,
		KeyPoints:                  f.KeyPointList(),
		SpecialConsiderations:      f.SpecialConsiderations,
		IncludeScholarlyReferences: f.IncludeReferences,
	}
}

// FAQRequest builds the generate_faqs body
func (f DraftForm) FAQRequest() models.FAQRequest {
	return models.FAQRequest{
		ChangeType:      f.ChangeType,
		Audience:        f.Audience,
		TechProficiency: f.TechProficiency,
		KeyPoints:       f.KeyPointList(),
		Purpose:         f.Purpose,
	}
}

// GameRequest builds the create_game body for a draft
func (f DraftForm) GameRequest(draft, gameType string, rules []KeywordSet) models.GameCreationRequest {
	points := f.KeyPointList()
	return models.GameCreationRequest{
		ChangeType:        f.ChangeType,
		Audience:          f.Audience,
		TechProficiency:   f.TechProficiency,
		ChangeName:        f.Purpose,
		ChangeDescription: draft,
		AdkarStage:        string(DetermineStage(draft, points, f.Purpose, rules)),
		GameType:          gameType,
		KeyPoints:         points,
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ParseRecipients splits a comma separated recipient list and validates
// every address
func ParseRecipients(s string) ([]string, error) {
	var emails, invalid []string
	for _, part := range strings.Split(s, ",") {
		email := strings.TrimSpace(part)
		if email == "" {
			continue
		}
		if !emailPattern.MatchString(email) {
			invalid = append(invalid, email)
		}
		emails = append(emails, email)
	}

	if len(emails) == 0 {
		return nil, &ValidationError{Field: "recipients", Message: "Please enter at least one recipient email"}
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{
			Field:   "recipients",
			Message: "Invalid email format: " + strings.Join(invalid, ", "),
		}
	}
	return emails, nil
}

// Subject is the email subject of an approved draft
func Subject(purpose string) string {
	return "New Change Communication - " + purpose
}

// ReviewForm holds the fields of the draft review page
type ReviewForm struct {
	Content    string `json:"content"`
	ChangeType string `json:"change_type"`
	Audience   string `json:"audience"`
	Purpose    string `json:"purpose"`
	KeyPoints  string `json:"key_points"`
}

// Validate requires every review field
func (f ReviewForm) Validate() error {
	for _, v := range []string{f.Content, f.ChangeType, f.Audience, f.Purpose, f.KeyPoints} {
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Message: "Please fill in all required fields."}
		}
	}
	return nil
}

// Request builds the review_draft body
func (f ReviewForm) Request() models.DraftReviewRequest {
	return models.DraftReviewRequest{
		Content:    f.Content,
		ChangeType: f.ChangeType,
		Audience:   f.Audience,
		Purpose:    f.Purpose,
		KeyPoints:  SplitKeyPoints(f.KeyPoints),
	}
}
