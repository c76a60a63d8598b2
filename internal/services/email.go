package services

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/medcheck/api/internal/config"
)

// EmailService sends password-reset mail over SMTP.
type EmailService struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig, logger *zap.Logger) *EmailService {
	return &EmailService{
		cfg:    cfg,
		logger: logger,
	}
}

// SendResetEmail sends a password-reset link to the recipient. Callers
// must treat failure as non-fatal: the forgot-password response never
// reveals whether an account exists or whether mail went out.
func (s *EmailService) SendResetEmail(email, resetURL string) error {
	if s.cfg.SMTPHost == "" || s.cfg.Username == "" {
		return fmt.Errorf("email service not configured")
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h1>Password Reset</h1>
			<p>You requested a password reset. Click the link below to reset your password:</p>
			<p><a href="%[1]s">Reset Password</a></p>
			<p>If you didn't request this, please ignore this email.</p>
			<p>This link will expire in 1 hour.</p>
			<p>If the link above doesn't work, copy and paste this URL into your browser:<br>%[1]s</p>
		</div>`, resetURL)

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Password Reset Request")
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.Info("Reset email sent", zap.String("email", email))
	return nil
}
