package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
)

type Links struct {
	ActivationURL string
	RecoveryURL   string
}

type Email struct {
	from  string
	auth  smtp.Auth
	addr  string
	links Links
}

func New(address, password, host, port string, links Links) *Email {
	return &Email{
		from:  address,
		auth:  smtp.PlainAuth("", address, password, host),
		addr:  host + ":" + port,
		links: links,
	}
}

func (e *Email) send(to, subject, tmpl string, data any) error {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	var body bytes.Buffer
	fmt.Fprintf(&body, "From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n", e.from, to, subject)
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}

	if err := smtp.SendMail(e.addr, e.auth, e.from, []string{to}, body.Bytes()); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

const activationBody = `Welcome!

Activate your account by following this link:

{{.URL}}?token={{.Token}}

The token expires in {{.Timeout}}.
`

func (e *Email) SendActivationToken(to, token string, timeout string) error {
	data := struct {
		URL, Token, Timeout string
	}{e.links.ActivationURL, token, timeout}
	return e.send(to, "Activate your account", activationBody, data)
}

const recoveryBody = `A password reset was requested for your account.

Follow this link to choose a new password:

{{.URL}}?token={{.Token}}

If you didn't request this, you can ignore this email.
`

func (e *Email) SendRecoveryToken(to, token string, timeout string) error {
	data := struct {
		URL, Token, Timeout string
	}{e.links.RecoveryURL, token, timeout}
	return e.send(to, "Reset your password", recoveryBody, data)
}

const receiptBody = `Thanks for your purchase!

{{range .Items}}{{.Quantity}} x {{.Name}}
{{end}}
{{.Sessions}} training sessions were added to your account.
`

type ReceiptItem struct {
	Name     string
	Quantity int
}

func (e *Email) SendReceipt(to string, items []ReceiptItem, sessions int) error {
	data := struct {
		Items    []ReceiptItem
		Sessions int
	}{items, sessions}
	return e.send(to, "Your purchase is complete", receiptBody, data)
}

const assignmentBody = `Hi {{.Name}},

{{.Message}}
`

func (e *Email) SendAssignmentNotice(to, name, message string) error {
	data := struct {
		Name, Message string
	}{name, message}
	return e.send(to, "Trainer assignment update", assignmentBody, data)
}
