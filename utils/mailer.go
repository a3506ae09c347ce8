package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"projecthub/config"
)

// Mailer delivers invitation emails. Dispatch is best effort: callers
// log failures and keep going, the invitation link is always returned
// to the inviter as well.
type Mailer interface {
	SendInvitation(to, projectName, inviterName, link string) error
}

// Embedded email templates
var emailTemplates = map[string]string{
	"invitation": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 12px 24px; background-color: #84B179; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Project Invitation</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.InviterName}}</strong> has invited you to join the project <strong>"{{.ProjectName}}"</strong>.</p>

        <p style="text-align: center;">
            <a href="{{.Link}}" class="button">Accept Invitation</a>
        </p>

        <p>Or copy and paste this link into your browser:<br>
        <small>{{.Link}}</small></p>

        <p>This invitation will expire in 7 days.</p>
    </div>

    <div class="footer">
        <p>If you didn't expect this invitation, you can safely ignore this email.</p>
    </div>
</body>
</html>`,
}

type invitationData struct {
	Subject     string
	ProjectName string
	InviterName string
	Link        string
}

// SMTPMailer sends mail through the configured SMTP relay.
type SMTPMailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

// NewMailer returns an SMTP mailer when SMTP_HOST is configured and a
// logging no-op otherwise, so development setups without a relay still
// hand out working invitation links.
func NewMailer(cfg config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &NoopMailer{}
	}
	return &SMTPMailer{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (m *SMTPMailer) SendInvitation(to, projectName, inviterName, link string) error {
	subject := fmt.Sprintf("You're invited to join %q", projectName)

	tmpl, err := template.New("invitation").Parse(emailTemplates["invitation"])
	if err != nil {
		return fmt.Errorf("error parsing template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, invitationData{
		Subject:     subject,
		ProjectName: projectName,
		InviterName: inviterName,
		Link:        link,
	}); err != nil {
		return fmt.Errorf("error executing template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

// NoopMailer logs the invitation instead of sending it.
type NoopMailer struct{}

func (m *NoopMailer) SendInvitation(to, projectName, inviterName, link string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"project": projectName,
		"link":    link,
	}).Info("email not configured, invitation link logged instead")
	return nil
}
