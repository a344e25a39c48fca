package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// Mailer delivers account mail. It is injected into the auth handler so tests
// and SMTP-less deployments can substitute the logging implementation.
type Mailer interface {
	SendPasswordReset(to, link string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

func (m *SMTPMailer) SendPasswordReset(to, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password reset request")
	msg.SetBody("text/plain", fmt.Sprintf(
		"To reset your password, visit the following link:\n%s\n\nIf you did not make this request, simply ignore this email and nothing will change.\n", link))
	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return d.DialAndSend(msg)
}

// LogMailer is the dev/test fallback: it logs the reset link instead of
// dialing out.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(to, link string) error {
	log.Printf("password reset for %s: %s", to, link)
	return nil
}
