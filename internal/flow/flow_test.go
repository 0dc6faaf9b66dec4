package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"changekit/internal/client"
	"changekit/internal/models"
)

type fakeBackend struct {
	draftErr  error
	reviewErr error
	faqErr    error
	requests  []models.DraftRequest
	drafts    []string
}

func (f *fakeBackend) CreateDraft(ctx context.Context, req models.DraftRequest) (*models.DraftResponse, error) {
	f.requests = append(f.requests, req)
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	draft := "Draft for " + req.Purpose
	if len(f.drafts) > 0 {
		draft, f.drafts = f.drafts[0], f.drafts[1:]
	}
	return &models.DraftResponse{Draft: draft}, nil
}

func (f *fakeBackend) ReviewDraft(ctx context.Context, req models.DraftReviewRequest) (*models.DraftReview, error) {
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	return &models.DraftReview{OverallScore: 8.5, Strengths: []string{"clear"}}, nil
}

func (f *fakeBackend) GenerateFAQs(ctx context.Context, req models.FAQRequest) ([]models.FAQ, error) {
	if f.faqErr != nil {
		return nil, f.faqErr
	}
	return []models.FAQ{{Question: "Why?", Answer: "Because " + req.Purpose}}, nil
}

type fakeSender struct {
	err  error
	sent []models.SendDraftRequest
}

func (f *fakeSender) SendApprovedDraft(ctx context.Context, req models.SendDraftRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, req)
	return "Email sent to " + strings.Join(req.Recipients, ", "), nil
}

func TestGenerateValidationBlocksRequest(t *testing.T) {
	backend := &fakeBackend{}
	f := New(backend, &fakeSender{})

	form := validForm()
	form.Purpose = ""
	err := f.Generate(context.Background(), form)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Generate() error = %v, want ValidationError", err)
	}
	if len(backend.requests) != 0 {
		t.Error("invalid form must not reach the backend")
	}
	st := f.State()
	if !st.Status.IsError || st.FieldError != "purpose" {
		t.Errorf("state = %+v", st)
	}
	if st.Form.ChangeType != form.ChangeType {
		t.Error("entered fields must be kept")
	}
}

func TestGenerateAndSend(t *testing.T) {
	sender := &fakeSender{}
	f := New(&fakeBackend{}, sender)
	ctx := context.Background()

	if err := f.Generate(ctx, validForm()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	st := f.State()
	if st.Draft != "Draft for New CI pipeline" || st.Status.Message != "Draft generated successfully!" {
		t.Errorf("state after generate = %+v", st)
	}

	if err := f.Send(ctx, "ana@example.com, bo@example.org"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	st = f.State()
	if !st.Approved || st.Status.IsError {
		t.Errorf("state after send = %+v", st)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	req := sender.sent[0]
	if req.Subject != "New Change Communication - New CI pipeline" || req.Message != st.Draft || len(req.Recipients) != 2 {
		t.Errorf("send request = %+v", req)
	}
}

func TestBackendFailureKeepsState(t *testing.T) {
	backend := &fakeBackend{}
	f := New(backend, &fakeSender{err: &client.APIError{StatusCode: 502, Detail: "smtp down"}})
	ctx := context.Background()

	if err := f.Generate(ctx, validForm()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	before := f.State()

	backend.draftErr = &client.APIError{StatusCode: 500, Detail: "model overloaded"}
	if err := f.Regenerate(ctx, "shorter please"); err == nil {
		t.Fatal("Regenerate() should fail")
	}
	st := f.State()
	if st.Draft != before.Draft || st.Form != before.Form {
		t.Error("failed regeneration must keep the draft and form")
	}
	if !st.Status.IsError || st.Status.Message != "Error generating draft: model overloaded" {
		t.Errorf("status = %+v", st.Status)
	}
	if st.Loading[OpGenerate] {
		t.Error("loading flag left set")
	}

	if err := f.Send(ctx, "ana@example.com"); err == nil {
		t.Fatal("Send() should fail")
	}
	st = f.State()
	if st.Approved || st.Status.Message != "Error sending email: smtp down" {
		t.Errorf("state after failed send = %+v", st)
	}
}

func TestRegenerateIncludesFeedback(t *testing.T) {
	backend := &fakeBackend{drafts: []string{"first", "second"}}
	f := New(backend, &fakeSender{})
	ctx := context.Background()

	if err := f.Regenerate(ctx, "more detail"); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Regenerate() before a draft error = %v, want ErrNoDraft", err)
	}
	f.Generate(ctx, validForm())
	if err := f.Regenerate(ctx, "  "); err == nil {
		t.Error("empty feedback should fail validation")
	}
	if err := f.Regenerate(ctx, "more detail"); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}

	last := backend.requests[len(backend.requests)-1]
	if !strings.Contains(last.SpecialConsiderations, "first") || !strings.Contains(last.SpecialConsiderations, "more detail") {
		t.Errorf("SpecialConsiderations = %q", last.SpecialConsiderations)
	}
	if f.State().Draft != "second" {
		t.Errorf("Draft = %q, want second", f.State().Draft)
	}
}

func TestSendValidatesRecipients(t *testing.T) {
	sender := &fakeSender{}
	f := New(&fakeBackend{}, sender)
	ctx := context.Background()

	if err := f.Send(ctx, "ana@example.com"); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Send() without draft error = %v, want ErrNoDraft", err)
	}
	f.Generate(ctx, validForm())
	if err := f.Send(ctx, "not-an-email"); err == nil {
		t.Fatal("expected validation error")
	}
	st := f.State()
	if st.FieldError != "recipients" || st.Form.Recipients != "not-an-email" {
		t.Errorf("state = %+v", st)
	}
	if len(sender.sent) != 0 {
		t.Error("invalid recipients must not be sent")
	}
}

func TestResetAndHandoff(t *testing.T) {
	f := New(&fakeBackend{}, &fakeSender{})
	f.Generate(context.Background(), validForm())

	h := f.Handoff(HandoffFAQ)
	if h.Kind != HandoffFAQ || h.Draft == "" || h.Form.Purpose != "New CI pipeline" {
		t.Errorf("handoff = %+v", h)
	}

	f.Reset()
	st := f.State()
	if st.HasDraft() || st.Form != (DraftForm{}) || st.Status.Message != "" {
		t.Errorf("state after reset = %+v", st)
	}
	if h.Draft == "" {
		t.Error("handoff must be a copy unaffected by reset")
	}
}

func TestReviewDraftAndFAQs(t *testing.T) {
	backend := &fakeBackend{}
	ctx := context.Background()

	if _, st := ReviewDraft(ctx, backend, ReviewForm{}); !st.IsError {
		t.Error("empty review form should fail")
	}
	review, st := ReviewDraft(ctx, backend, ReviewForm{
		Content: "Hi all", ChangeType: "process_change", Audience: "leadership", Purpose: "x", KeyPoints: "a\nb",
	})
	if review == nil || st.IsError || st.Message != "Draft review completed successfully!" {
		t.Errorf("ReviewDraft() = %+v, %+v", review, st)
	}

	faqs, st := GenerateFAQs(ctx, backend, validForm())
	if len(faqs) != 1 || st.IsError {
		t.Errorf("GenerateFAQs() = %+v, %+v", faqs, st)
	}

	backend.faqErr = errors.New("timeout")
	if _, st := GenerateFAQs(ctx, backend, validForm()); !st.IsError || st.Message != "Error generating FAQs: timeout" {
		t.Errorf("status = %+v", st)
	}
}

func TestFeedbackStatus(t *testing.T) {
	improved := &models.FeedbackResponse{ImprovedGuide: "v2"}
	pending := &models.FeedbackResponse{Message: "queued"}

	if st := FeedbackStatus(pending, true); !strings.Contains(st.Message, "after 5 entries") {
		t.Errorf("pending training status = %q", st.Message)
	}
	if st := FeedbackStatus(improved, true); !strings.HasPrefix(st.Message, "Training batch processed") {
		t.Errorf("processed training status = %q", st.Message)
	}
	if st := FeedbackStatus(improved, false); !strings.HasPrefix(st.Message, "Improved guide") {
		t.Errorf("immediate status = %q", st.Message)
	}
}

// gatedBackend blocks CreateDraft until release is closed
type gatedBackend struct {
	fakeBackend
	started chan struct{}
	release chan struct{}
}

func (g *gatedBackend) CreateDraft(ctx context.Context, req models.DraftRequest) (*models.DraftResponse, error) {
	close(g.started)
	<-g.release
	return &models.DraftResponse{Draft: "late draft"}, nil
}

// gatedSender blocks SendApprovedDraft until release is closed
type gatedSender struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedSender) SendApprovedDraft(ctx context.Context, req models.SendDraftRequest) (string, error) {
	close(g.started)
	<-g.release
	return "Email sent", nil
}

func TestLateResponsesAfterResetAreDropped(t *testing.T) {
	t.Run("generate", func(t *testing.T) {
		backend := &gatedBackend{started: make(chan struct{}), release: make(chan struct{})}
		f := New(backend, &fakeSender{})

		done := make(chan error, 1)
		go func() { done <- f.Generate(context.Background(), validForm()) }()

		<-backend.started
		f.Reset()
		close(backend.release)

		if err := <-done; !errors.Is(err, ErrStale) {
			t.Errorf("Generate() error = %v, want ErrStale", err)
		}
		st := f.State()
		if st.Draft != "" || st.Status.Message != "" || st.Loading[OpGenerate] || st.Form.Purpose != "" {
			t.Errorf("reset flow was changed by a late draft: %+v", st)
		}
	})

	t.Run("send", func(t *testing.T) {
		sender := &gatedSender{started: make(chan struct{}), release: make(chan struct{})}
		f := New(&fakeBackend{}, sender)
		if err := f.Generate(context.Background(), validForm()); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		done := make(chan error, 1)
		go func() { done <- f.Send(context.Background(), "a@example.com") }()

		<-sender.started
		f.Reset()
		close(sender.release)

		if err := <-done; !errors.Is(err, ErrStale) {
			t.Errorf("Send() error = %v, want ErrStale", err)
		}
		st := f.State()
		if st.Approved || st.Draft != "" || st.Status.Message != "" || st.Loading[OpSend] {
			t.Errorf("reset flow was changed by a late send: %+v", st)
		}
	})
}
