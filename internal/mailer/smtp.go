package mailer

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	gomail "gopkg.in/mail.v2"
)

type smtpMailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func NewSMTP(host string, port int, username, password, fromEmail string) Client {
	return &smtpMailer{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
	}
}

func (m *smtpMailer) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", FromName, m.fromEmail))
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)

	var lastErr error
	for i := 0; i < maxRetires; i++ {
		if lastErr = dialer.DialAndSend(msg); lastErr == nil {
			return 200, nil
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetires, lastErr)
}
