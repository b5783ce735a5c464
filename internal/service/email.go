package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridNotifier struct {
	client    mailSender
	fromEmail string
	fromName  string
}

// NewSendGridNotifier e-mails every recipient that has an address on file.
func NewSendGridNotifier(apiKey, fromEmail, fromName string) Notifier {
	return &sendGridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridNotifier) Notify(ctx context.Context, n domain.Notification) error {
	subject, body := renderNotification(n)
	from := mail.NewEmail(s.fromName, s.fromEmail)

	var failed []string
	for _, r := range n.Recipients {
		if r.Email == "" {
			logger.Debug("Recipient has no e-mail address, skipping", "orgID", r.ID)
			continue
		}
		message := mail.NewSingleEmail(from, subject, mail.NewEmail(r.Name, r.Email), body, "")

		logger.ExternalServiceCall("SendGrid", "Send", "to", r.Email, "kind", n.Kind)
		response, err := s.client.SendWithContext(ctx, message)
		if err == nil && response.StatusCode >= 400 {
			err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		}
		logger.ExternalServiceResult("SendGrid", "Send", err, "to", r.Email)
		if err != nil {
			failed = append(failed, r.Email)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to send %s notification to %s", n.Kind, strings.Join(failed, ", "))
	}
	return nil
}

type logNotifier struct{}

// NewLogNotifier records notifications in the log instead of delivering them.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) Notify(ctx context.Context, n domain.Notification) error {
	subject, _ := renderNotification(n)
	ids := make([]string, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		ids = append(ids, r.ID)
	}
	logger.InfoContext(ctx, "Notification", "kind", n.Kind, "eventID", n.Event.ID, "subject", subject, "recipients", ids)
	return nil
}

func renderNotification(n domain.Notification) (string, string) {
	ev := n.Event
	actor := "An organization"
	if n.Actor != nil {
		actor = n.Actor.Name
	}
	when := fmt.Sprintf("%s - %s", ev.StartTime.Format("Mon 02 Jan 2006 15:04"), ev.EndTime.Format("15:04 MST"))

	var subject, body string
	switch n.Kind {
	case domain.NotificationEventSubmitted:
		subject = fmt.Sprintf("Approval requested: %s", ev.Name)
		body = fmt.Sprintf("%s submitted the event \"%s\" (%s) and it is awaiting your review.", actor, ev.Name, when)
	case domain.NotificationEventResubmitted:
		subject = fmt.Sprintf("Event resubmitted: %s", ev.Name)
		body = fmt.Sprintf("%s updated the event \"%s\" (%s) after a modification request. Please review it again.", actor, ev.Name, when)
	case domain.NotificationEventReviewed:
		subject = fmt.Sprintf("Event %s: %s", strings.ReplaceAll(string(n.Decision), "_", " "), ev.Name)
		body = fmt.Sprintf("%s reviewed your event \"%s\" (%s).\n\nDecision: %s\nEvent status: %s",
			actor, ev.Name, when, n.Decision, ev.Status)
		if n.Comments != "" {
			body += fmt.Sprintf("\nComments: %s", n.Comments)
		}
	case domain.NotificationEventCancelled:
		subject = fmt.Sprintf("Event cancelled: %s", ev.Name)
		body = fmt.Sprintf("%s cancelled the event \"%s\" (%s). No further review is needed.", actor, ev.Name, when)
	default:
		subject = fmt.Sprintf("Event update: %s", ev.Name)
		body = fmt.Sprintf("The event \"%s\" (%s) changed.", ev.Name, when)
	}
	return subject, body + "\n\nVenue Approvals"
}
