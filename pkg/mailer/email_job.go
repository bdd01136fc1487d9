package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/langbridge/pkg/mailer/templates"
)

// TemplateWelcome is sent once after signup.
const TemplateWelcome = mailtpl.Welcome

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (+ Data) or Subject/Text/HTML is set; Text is the fallback body.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Message is a rendered email ready for delivery. Tag groups messages
// of one kind in the provider's analytics.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Tag     string
}

// Sender delivers a rendered email. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrInvalidJob = errors.New("invalid email job")

// Render resolves the final subject and bodies of job, filling template data
// with branding the producer does not know about.
func Render(job EmailJob, b mailtpl.Branding) (subject, text, html string, err error) {
	if strings.TrimSpace(job.To) == "" {
		return "", "", "", fmt.Errorf("%w: missing recipient", ErrInvalidJob)
	}
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", fmt.Errorf("%w: missing subject or body", ErrInvalidJob)
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	data := mailtpl.MergeBranding(b, job.Data)
	if _, ok := data["RecipientEmail"]; !ok || data["RecipientEmail"] == "" {
		data["RecipientEmail"] = job.To
	}
	subject, text, html, err = mailtpl.Render(job.Template, data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return subject, text, html, nil
}

// Deliver renders job and hands it to s.
func Deliver(ctx context.Context, s Sender, b mailtpl.Branding, job EmailJob) error {
	subject, text, html, err := Render(job, b)
	if err != nil {
		return err
	}
	return s.Send(ctx, Message{To: job.To, Subject: subject, Text: text, HTML: html, Tag: job.Template})
}
