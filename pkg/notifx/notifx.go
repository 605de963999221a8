package notifx

import (
	"context"
	"strings"
)

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error
}

// CodeSender delivers a one-time code to a phone number. The SMS transport
// itself lives outside this service; only a console provider ships.
type CodeSender interface {
	SendCode(ctx context.Context, msg CodeMessage) error
}

// Template names registered by NewClient.
const (
	TemplateVerifyEmail   = "verify_email"
	TemplatePasswordReset = "password_reset"
)

const verifyEmailTemplate = `<p>Hi {{.Name}},</p>
<p>Confirm your {{.AppName}} email address by opening the link below.</p>
<p><a href="{{.Link}}">Verify email</a></p>`

const verifyEmailText = `Hi {{.Name}},

Confirm your {{.AppName}} email address by opening this link:
{{.Link}}
`

const passwordResetTemplate = `<p>Hi {{.Name}},</p>
<p>Someone asked to reset the password of your {{.AppName}} account. If it was you, open the link below.</p>
<p><a href="{{.Link}}">Reset password</a></p>`

const passwordResetText = `Hi {{.Name}},

Someone asked to reset the password of your {{.AppName}} account. If it was you, open this link:
{{.Link}}
`

// Client is the main entry point for sending notifications.
type Client struct {
	email     EmailSender
	code      CodeSender
	templates *TemplateRegistry
	from      string
}

// NewClient creates a notification client with the built-in templates registered.
func NewClient(email EmailSender, code CodeSender, from string) *Client {
	c := &Client{
		email:     email,
		code:      code,
		templates: NewTemplateRegistry(),
		from:      from,
	}
	// built-in templates are constant and always parse
	_ = c.templates.Register(TemplateVerifyEmail, verifyEmailTemplate, verifyEmailText)
	_ = c.templates.Register(TemplatePasswordReset, passwordResetTemplate, passwordResetText)
	return c
}

// SendEmail sends an email through the configured provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error {
	if c.email == nil {
		return notifxErrors.New(ErrNoProvider).WithDetail("channel", "email")
	}
	if len(msg.To) == 0 {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	if msg.Subject == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	if msg.From == "" {
		msg.From = c.from
	}
	return c.email.SendEmail(ctx, msg, opts...)
}

// SendCode hands a one-time code to the code provider.
func (c *Client) SendCode(ctx context.Context, msg CodeMessage) error {
	if c.code == nil {
		return notifxErrors.New(ErrNoProvider).WithDetail("channel", "code")
	}
	if strings.TrimSpace(msg.PhoneNumber) == "" || msg.Code == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "missing phone number or code")
	}
	return c.code.SendCode(ctx, msg)
}

// RegisterTemplate parses and stores a named template for later use. text
// may be empty.
func (c *Client) RegisterTemplate(name, html, text string) error {
	return c.templates.Register(name, html, text)
}

// SendTemplatedEmail renders a template and sends the resulting email.
func (c *Client) SendTemplatedEmail(ctx context.Context, templateName string, data interface{}, msg EmailMessage, opts ...Option) error {
	body, err := c.templates.Render(templateName, data)
	if err != nil {
		return err
	}

	msg.HTMLBody = body.HTML
	msg.TextBody = body.Text
	return c.SendEmail(ctx, msg, opts...)
}
