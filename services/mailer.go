package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/alexeybedrinsky/restaurant-booking/models"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

// Mailer sends reservation status updates to guests. Implementations are
// best-effort; the booking flow never depends on delivery.
type Mailer interface {
	SendReservationStatus(r *models.Reservation, status string) error
	SendFeedback(name, email, message string) error
}

// SMTPMailer reads its configuration from the environment. When SMTP is not
// configured the mail is logged instead of sent, which keeps development
// setups working without a mail server.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	AdminTo  string
}

func NewSMTPMailer() *SMTPMailer {
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USERNAME")
	}
	return &SMTPMailer{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     from,
		AdminTo:  os.Getenv("FEEDBACK_EMAIL"),
	}
}

func (m *SMTPMailer) configured() bool {
	return m.Host != "" && m.Port != "" && m.Username != "" && m.Password != ""
}

func (m *SMTPMailer) send(to, subject, body string) error {
	if !m.configured() {
		utils.InfoLogger.Printf("[MOCK EMAIL] to:%s subject:%q body:%q", to, subject, body)
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", m.From))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(body + "\r\n")

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	return smtp.SendMail(addr, auth, m.From, []string{to}, []byte(sb.String()))
}

func (m *SMTPMailer) SendReservationStatus(r *models.Reservation, status string) error {
	subject := fmt.Sprintf("Your reservation status: %s", status)
	body := fmt.Sprintf("Your reservation for %s at %s has been %s.",
		r.Date.Format("2006-01-02"), r.Time, status)
	return m.send(r.Email, subject, body)
}

func (m *SMTPMailer) SendFeedback(name, email, message string) error {
	to := m.AdminTo
	if to == "" {
		to = m.From
	}
	subject := fmt.Sprintf("Feedback from %s", name)
	body := fmt.Sprintf("From: %s <%s>\r\n\r\n%s", name, email, message)
	return m.send(to, subject, body)
}
