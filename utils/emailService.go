package utils

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"lms/config"
	"lms/logger"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Mailer delivers one HTML message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer returns the SendGrid mailer when an API key is configured and
// a mailer that only logs otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SendgridAPIKey == "" {
		return ConsoleMailer{}
	}
	return &SendgridMailer{
		key:        cfg.SendgridAPIKey,
		from:       sgmail.NewEmail(cfg.AppName, cfg.EmailSender),
		subjPrefix: "[" + cfg.AppName + "] ",
		host:       sendgridHost,
	}
}

type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	host       string
}

func (m *SendgridMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	msg := sgmail.NewSingleEmail(m.from, m.subjPrefix+subject, sgmail.NewEmail("", to), subject, htmlBody)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.API(req)
	if err != nil {
		return errors.Wrap(err, "sendgrid request")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of sending them.
type ConsoleMailer struct{}

func (ConsoleMailer) Send(_ context.Context, to, subject, _ string) error {
	logger.Log.Info("email (console)", "to", to, "subject", subject)
	return nil
}

func getEmailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<body style="font-family: Helvetica, Arial, sans-serif; background-color: #F6F6F6;">
		<div style="max-width: 600px; margin: 40px auto; background: #FFFFFF; padding: 30px;">
			<h2>%s</h2>
			%s
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

// deliver sends and logs the outcome. Mail never fails the caller.
func deliver(m Mailer, to, subject, body string) {
	if m == nil || to == "" {
		return
	}
	if err := m.Send(context.Background(), to, subject, body); err != nil {
		logger.Log.Error("email delivery failed", "to", to, "subject", subject, "error", err)
	}
}

// --- Triggers ---

func SendCourseApprovedEmail(m Mailer, email, name, courseTitle string) {
	subject := "Course approved: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your course <strong>%s</strong> has been approved and is now listed in the catalog.</p>
	`, html.EscapeString(name), html.EscapeString(courseTitle))
	deliver(m, email, subject, getEmailTemplate("Course Approved", body))
}

func SendCourseRejectedEmail(m Mailer, email, name, courseTitle, reason string) {
	subject := "Course rejected: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your course <strong>%s</strong> was not approved.</p>
		<p><strong>Reason:</strong> %s</p>
		<p>Edit the course to send it back for review.</p>
	`, html.EscapeString(name), html.EscapeString(courseTitle), html.EscapeString(reason))
	deliver(m, email, subject, getEmailTemplate("Course Rejected", body))
}

func SendCourseCompletedEmail(m Mailer, email, name, courseTitle string) {
	subject := "You completed " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! You have completed every lesson of <strong>%s</strong>.</p>
	`, html.EscapeString(name), html.EscapeString(courseTitle))
	deliver(m, email, subject, getEmailTemplate("Course Completed", body))
}
