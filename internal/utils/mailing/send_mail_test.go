package mailing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResetPasswordLink(t *testing.T) {
	assert.Equal(t, "http://app.test/reset-password?token=abc123", ResetPasswordLink("http://app.test", "abc123"))
}

func TestResetPasswordBodyEscapes(t *testing.T) {
	body := ResetPasswordBody(`<script>alert(1)</script>`, "http://app.test/reset-password?token=a&b")

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, `href="http://app.test/reset-password?token=a&amp;b"`)
}

func TestNewMailerWithoutHostDropsMail(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mailer := NewMailer(MailConfig{}, zap.New(core))

	require.IsType(t, &discardMailer{}, mailer)
	require.NoError(t, mailer.SendMail("ana@example.com", "Reset", "secret-token-body"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ana@example.com", entries[0].ContextMap()["to"])
	assert.NotContains(t, entries[0].ContextMap(), "body")
}

func TestSMTPMailerRejectsBadPort(t *testing.T) {
	mailer := NewMailer(MailConfig{SMTPHost: "smtp.example.com", SMTPPort: "not-a-port"}, zap.NewNop())

	err := mailer.SendMail("ana@example.com", "Reset", "<p>hi</p>")
	assert.ErrorContains(t, err, "invalid SMTP_PORT")
}
