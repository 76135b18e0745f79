package notification

import (
	"fmt"
	"net/smtp"
)

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

type EmailService struct {
	config EmailConfig
}

func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendApprovalEmail(to, name, membershipNumber, expiryDate string) error {
	subject := "Your Membership Application Has Been Approved"
	body := fmt.Sprintf(`<html><body>
		<h2>Welcome, %s!</h2>
		<p>Your membership application has been approved.</p>
		<p>Membership number: <strong>%s</strong></p>
		<p>Your membership is valid until %s.</p>
		<p>Sign in to view your digital membership card.</p>
	</body></html>`, name, membershipNumber, expiryDate)
	return s.sendEmail(to, subject, body)
}

func (s *EmailService) SendRejectionEmail(to, name string) error {
	subject := "Update on Your Membership Application"
	body := fmt.Sprintf(`<html><body>
		<h2>Hello %s,</h2>
		<p>After careful review, we are unable to approve your membership application at this time.</p>
		<p>If you have questions, please contact the admissions office.</p>
	</body></html>`, name)
	return s.sendEmail(to, subject, body)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	return smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg))
}
