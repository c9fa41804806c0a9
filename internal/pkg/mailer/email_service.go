package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendTranscriptSummary(toEmail, businessName string, lines []TranscriptLine) error
	SendEscalationAlert(toEmail, businessName, sessionId, dashboardURL string) error
}

// TranscriptLine is one rendered row of the conversation summary email.
type TranscriptLine struct {
	Role    string
	Content string
	SentAt  time.Time
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) SendTranscriptSummary(toEmail, businessName string, lines []TranscriptLine) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Your conversation with %s", businessName))

	var rows strings.Builder
	for _, line := range lines {
		label := "You"
		color := "#333"
		if line.Role != "user" {
			label = businessName
			color = "#4F46E5"
		}
		rows.WriteString(fmt.Sprintf(`
			<p style="margin: 8px 0;">
				<strong style="color: %s;">%s</strong>
				<span style="color: #999; font-size: 12px;">%s</span><br/>
				%s
			</p>
		`, color, html.EscapeString(label), line.SentAt.Format("15:04"), html.EscapeString(line.Content)))
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Conversation summary</h2>
			<p>Here is a copy of your conversation with %s:</p>
			<div style="border-left: 3px solid #eee; padding-left: 12px;">%s</div>
		</div>
	`, html.EscapeString(businessName), rows.String())

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send summary to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Transcript summary sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendEscalationAlert(toEmail, businessName, sessionId, dashboardURL string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "A visitor is waiting for a human reply")

	link := fmt.Sprintf("%s/inbox?session=%s", dashboardURL, sessionId)
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Human handoff requested</h2>
			<p>A visitor on the %s chat widget asked for a human. The bot has stopped replying.</p>
			<p><a href="%s" style="color: #4F46E5;">Open the conversation</a></p>
		</div>
	`, html.EscapeString(businessName), link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send escalation alert to %s: %v\n", toEmail, err)
		return err
	}

	return nil
}
