package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	"gopkg.in/gomail.v2"
)

func NewEmailSender(host string, port int, user, password, from, templateDir string) *EmailSender {
	if templateDir == "" {
		templateDir = "templates"
	}
	return &EmailSender{
		Host:        host,
		Port:        port,
		User:        user,
		Password:    password,
		From:        from,
		TemplateDir: templateDir,
	}
}

// Send renders templates/<name>.html with data and delivers it over SMTP.
func (s *EmailSender) Send(to, name string, data map[string]string) error {
	tmplPath := filepath.Join(s.TemplateDir, name+".html")
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("failed to load email template %q: %w", name, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template %q: %w", name, err)
	}

	subject, ok := subjects[name]
	if !ok {
		subject = defaultSubject
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}

	return nil
}
