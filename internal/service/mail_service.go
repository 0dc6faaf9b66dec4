package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"changekit/internal/flow"
	"changekit/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of the SES client the mail service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// MailService delivers approved drafts through Amazon SES. Without a
// sender address it hands delivery to the fallback, normally the backend's
// /send_approved_draft endpoint.
type MailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	fallback  flow.Sender
	enabled   bool
	debug     bool
}

// NewMailService creates a mail service. It is disabled when fromEmail is empty.
func NewMailService(ctx context.Context, awsRegion, fromEmail, fromName string, fallback flow.Sender, debug bool) (*MailService, error) {
	if fromEmail == "" {
		log.Println("Direct mail delivery disabled: SES_FROM_EMAIL not configured, using the backend")
		return &MailService{fallback: fallback, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing mail service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Direct mail delivery enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newMailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, fallback, debug), nil
}

func newMailService(client sesAPI, fromEmail, fromName string, fallback flow.Sender, debug bool) *MailService {
	return &MailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		fallback:  fallback,
		enabled:   true,
		debug:     debug,
	}
}

// IsEnabled reports whether drafts are sent through SES
func (s *MailService) IsEnabled() bool {
	return s.enabled
}

// SendApprovedDraft sends the draft to all recipients in one message
func (s *MailService) SendApprovedDraft(ctx context.Context, req models.SendDraftRequest) (string, error) {
	if !s.enabled {
		if s.fallback == nil {
			return "", fmt.Errorf("no mail delivery configured")
		}
		return s.fallback.SendApprovedDraft(ctx, req)
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: req.Recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(req.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(draftHTML(req.Message)),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(req.Message),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if s.debug {
		log.Printf("[DEBUG] Calling SES SendEmail API for %d recipients", len(req.Recipients))
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to send draft to %s: %w", strings.Join(req.Recipients, ", "), err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Draft sent: recipients=%d, subject=%s", len(req.Recipients), req.Subject)
	return fmt.Sprintf("Email sent successfully to %d recipient(s)!", len(req.Recipients)), nil
}

// draftHTML renders a plain text draft as escaped paragraphs
func draftHTML(text string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head>`)
	b.WriteString(`<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #1a1a2e;">`)
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
