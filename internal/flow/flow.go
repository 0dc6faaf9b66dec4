package flow

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"changekit/internal/client"
	"changekit/internal/models"
)

// Loading operation keys
const (
	OpGenerate = "generating"
	OpSend     = "sending"
)

var (
	// ErrNoDraft is returned by operations that need a generated draft
	ErrNoDraft = errors.New("no draft generated yet")
	// ErrStale is returned when the flow was reset while a request was in flight
	ErrStale = errors.New("flow was reset while request was in flight")
)

// DraftBackend generates and reviews drafts
type DraftBackend interface {
	CreateDraft(ctx context.Context, req models.DraftRequest) (*models.DraftResponse, error)
	ReviewDraft(ctx context.Context, req models.DraftReviewRequest) (*models.DraftReview, error)
	GenerateFAQs(ctx context.Context, req models.FAQRequest) ([]models.FAQ, error)
}

// Sender delivers an approved draft
type Sender interface {
	SendApprovedDraft(ctx context.Context, req models.SendDraftRequest) (string, error)
}

// Status is the dismissible banner of a page
type Status struct {
	Message string
	IsError bool
}

// State is the draft flow of one visitor
type State struct {
	Form       DraftForm
	Draft      string
	References []models.ScholarlyReference
	Approved   bool
	Status     Status
	// FieldError names the form field a validation error belongs to
	FieldError string
	Loading    map[string]bool
}

// HasDraft reports whether a draft has been generated
func (s State) HasDraft() bool {
	return s.Draft != ""
}

// Flow owns the draft flow state. Backend failures set the banner and never
// touch the form or an earlier draft.
type Flow struct {
	mu      sync.Mutex
	backend DraftBackend
	sender  Sender
	state   State
	// gen changes on reset; responses for an older gen are dropped
	gen uint64
}

// New creates an empty flow
func New(backend DraftBackend, sender Sender) *Flow {
	return &Flow{
		backend: backend,
		sender:  sender,
		state:   State{Loading: make(map[string]bool)},
	}
}

// State returns a copy of the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.state
	s.Loading = make(map[string]bool, len(f.state.Loading))
	for k, v := range f.state.Loading {
		if v {
			s.Loading[k] = true
		}
	}
	s.References = append([]models.ScholarlyReference(nil), f.state.References...)
	return s
}

// Generate validates the form and asks the backend for a draft
func (f *Flow) Generate(ctx context.Context, form DraftForm) error {
	f.mu.Lock()
	f.state.Form = form
	if err := form.Validate(); err != nil {
		f.fail(err)
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	return f.requestDraft(ctx, form.DraftRequest(), "Draft generated successfully!")
}

// Regenerate asks for a new draft that takes the visitor's feedback on the
// current one into account
func (f *Flow) Regenerate(ctx context.Context, feedback string) error {
	f.mu.Lock()
	if f.state.Draft == "" {
		f.setStatus(ErrNoDraft.Error(), true)
		f.mu.Unlock()
		return ErrNoDraft
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		err := &ValidationError{Field: "feedback", Message: "Please enter feedback before submitting."}
		f.fail(err)
		f.mu.Unlock()
		return err
	}
	req := f.state.Form.DraftRequest()
	req.SpecialConsiderations = strings.TrimSpace(req.SpecialConsiderations + "\nRevise this previous draft:\n" +
		f.state.Draft + "\nFeedback on it: " + feedback)
	f.mu.Unlock()

	return f.requestDraft(ctx, req, "Draft regenerated with your feedback.")
}

func (f *Flow) requestDraft(ctx context.Context, req models.DraftRequest, success string) error {
	f.mu.Lock()
	f.state.Loading[OpGenerate] = true
	f.setStatus("", false)
	gen := f.gen
	f.mu.Unlock()

	resp, err := f.backend.CreateDraft(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return ErrStale
	}
	f.state.Loading[OpGenerate] = false
	if err != nil {
		log.Printf("Generate: failed to create draft: %v", err)
		f.setStatus("Error generating draft: "+client.Detail(err), true)
		return err
	}

	f.state.Draft = resp.Draft
	f.state.References = resp.ScholarlyReferences
	f.state.Approved = false
	f.setStatus(success, false)
	return nil
}

// Send validates the recipients and delivers the approved draft
func (f *Flow) Send(ctx context.Context, recipients string) error {
	f.mu.Lock()
	f.state.Form.Recipients = recipients
	if f.state.Draft == "" {
		f.setStatus(ErrNoDraft.Error(), true)
		f.mu.Unlock()
		return ErrNoDraft
	}
	emails, err := ParseRecipients(recipients)
	if err != nil {
		f.fail(err)
		f.mu.Unlock()
		return err
	}
	req := models.SendDraftRequest{
		Subject:    Subject(f.state.Form.Purpose),
		Message:    f.state.Draft,
		Recipients: emails,
	}
	f.state.Loading[OpSend] = true
	f.setStatus("Sending email...", false)
	gen := f.gen
	f.mu.Unlock()

	msg, err := f.sender.SendApprovedDraft(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return ErrStale
	}
	f.state.Loading[OpSend] = false
	if err != nil {
		log.Printf("Send: failed to send approved draft: %v", err)
		f.setStatus("Error sending email: "+client.Detail(err), true)
		return err
	}
	if msg == "" {
		msg = "Email sent successfully!"
	}
	f.state.Approved = true
	f.setStatus(msg, false)
	return nil
}

// Reset clears the flow back to an empty form and drops in-flight responses
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.state = State{Loading: make(map[string]bool)}
}

// DismissStatus clears the banner
func (f *Flow) DismissStatus() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setStatus("", false)
}

// Handoff copies the flow for a follow-up page
func (f *Flow) Handoff(kind HandoffKind) Handoff {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Handoff{Kind: kind, Form: f.state.Form, Draft: f.state.Draft}
}

func (f *Flow) fail(err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		f.state.FieldError = verr.Field
	}
	f.state.Status = Status{Message: err.Error(), IsError: true}
}

func (f *Flow) setStatus(msg string, isError bool) {
	f.state.FieldError = ""
	f.state.Status = Status{Message: msg, IsError: isError}
}

// ReviewDraft validates a review form and scores the draft. The returned
// status is the banner to show.
func ReviewDraft(ctx context.Context, backend DraftBackend, form ReviewForm) (*models.DraftReview, Status) {
	if err := form.Validate(); err != nil {
		return nil, Status{Message: err.Error(), IsError: true}
	}
	review, err := backend.ReviewDraft(ctx, form.Request())
	if err != nil {
		log.Printf("ReviewDraft: failed to review draft: %v", err)
		return nil, Status{Message: "Error reviewing draft: " + client.Detail(err), IsError: true}
	}
	return review, Status{Message: "Draft review completed successfully!"}
}

// GenerateFAQs generates FAQs for a handed over draft form
func GenerateFAQs(ctx context.Context, backend DraftBackend, form DraftForm) ([]models.FAQ, Status) {
	if err := form.Validate(); err != nil {
		return nil, Status{Message: err.Error(), IsError: true}
	}
	faqs, err := backend.GenerateFAQs(ctx, form.FAQRequest())
	if err != nil {
		log.Printf("GenerateFAQs: failed to generate FAQs: %v", err)
		return nil, Status{Message: "Error generating FAQs: " + client.Detail(err), IsError: true}
	}
	return faqs, Status{}
}
