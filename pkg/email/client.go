package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// Mailer is implemented by Client and by test doubles.
type Mailer interface {
	SendEmail(opts EmailOptions) error
}

// Client sends mail through an SMTP relay.
type Client struct {
	host     string
	port     string
	username string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewClient creates a new email client.
func NewClient(host, port, username, password, from string) *Client {
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

// EmailOptions represents the options for sending an email.
type EmailOptions struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SendEmail sends a multipart text/HTML message.
func (c *Client) SendEmail(opts EmailOptions) error {
	if strings.TrimSpace(opts.To) == "" {
		return fmt.Errorf("email recipient is required")
	}

	message := c.buildMessage(opts.To, opts.Subject, wrapHTML(opts.HTML), opts.Text)

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	addr := c.host + ":" + c.port
	if err := c.send(addr, auth, c.fromAddress(), []string{opts.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background:#f9f9f9;">
  <div style="padding:32px;">
    <div style="max-width:600px;margin:auto;background:#fff;border-radius:8px;padding:32px;">
      <div style="font-size:16px;color:#333;">{{.Content}}</div>
      <div style="margin-top:32px;text-align:center;color:#aaa;font-size:12px;">&copy; {{.Year}} Course Server Academy</div>
    </div>
  </div>
</body>
</html>`))

func wrapHTML(content string) string {
	var buf bytes.Buffer
	err := layout.Execute(&buf, map[string]any{
		"Content": template.HTML(content),
		"Year":    time.Now().Year(),
	})
	if err != nil {
		return content
	}
	return buf.String()
}

func (c *Client) fromAddress() string {
	if c.from == "" {
		return "noreply@example.com"
	}
	return c.from
}

func (c *Client) buildMessage(to, subject, html, text string) string {
	const boundary = "course-server-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.fromAddress())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	if text != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, text)
	}
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, html)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return b.String()
}

// SendCourseCompleted congratulates a learner and links the certificate.
func SendCourseCompleted(m Mailer, to, userName, courseName, certificateURL string) error {
	html := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Congratulations on completing <strong>%s</strong>!</p>
		<p style="text-align:center;margin:24px 0;">
			<a href="%s" style="background:#2a7ae2;color:#fff;padding:12px 24px;text-decoration:none;border-radius:4px;">Download certificate</a>
		</p>
	`, template.HTMLEscapeString(userName), template.HTMLEscapeString(courseName), certificateURL)

	return m.SendEmail(EmailOptions{
		To:      to,
		Subject: "You completed " + courseName,
		HTML:    html,
		Text:    fmt.Sprintf("Hello %s, you completed %s. Certificate: %s", userName, courseName, certificateURL),
	})
}
