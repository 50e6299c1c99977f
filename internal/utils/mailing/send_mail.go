package mailing

import (
	"fmt"
	"html"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"leaflens/internal/utils"
)

type MailConfig struct {
	AppURL       string
	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPEmail    string
	SMTPPassword string
}

// Mailer delivers a single HTML message.
type Mailer interface {
	SendMail(toEmail string, subject string, body string) error
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		AppURL:       utils.GetConfig("APP_URL"),
		SMTPHost:     utils.GetConfig("SMTP_HOST"),
		SMTPPort:     utils.GetConfig("SMTP_PORT"),
		SMTPSender:   utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:    utils.GetConfig("SMTP_AUTH_EMAIL"),
		SMTPPassword: utils.GetConfig("SMTP_AUTH_PASSWORD"),
	}
}

type smtpMailer struct {
	config MailConfig
}

type discardMailer struct {
	logger *zap.Logger
}

// NewMailer sends through SMTP when SMTP_HOST is configured. Without it mail
// is dropped and a warning is logged.
func NewMailer(config MailConfig, logger *zap.Logger) Mailer {
	if config.SMTPHost == "" {
		return &discardMailer{logger: logger.Named("mail")}
	}
	return &smtpMailer{config: config}
}

func (m *smtpMailer) SendMail(toEmail string, subject string, body string) error {
	mailer := gomail.NewMessage()
	if m.config.SMTPSender != "" {
		mailer.SetAddressHeader("From", m.config.SMTPEmail, m.config.SMTPSender)
	} else {
		mailer.SetHeader("From", m.config.SMTPEmail)
	}
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)
	port, err := strconv.Atoi(m.config.SMTPPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	dialer := gomail.NewDialer(
		m.config.SMTPHost,
		port,
		m.config.SMTPEmail,
		m.config.SMTPPassword,
	)

	return dialer.DialAndSend(mailer)
}

func (m *discardMailer) SendMail(toEmail string, subject string, _ string) error {
	m.logger.Warn("smtp not configured, mail dropped", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// ResetPasswordLink points the user at the frontend reset page.
func ResetPasswordLink(appURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", appURL, token)
}

func ResetPasswordBody(username, link string) string {
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>We received a request to reset your LeafLens password. The link below is valid for one hour.</p>
<p><a href="%s">Reset your password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`,
		html.EscapeString(username), html.EscapeString(link))
}
