package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/Abraxas-365/flavormind/pkg/notifx"
)

// ConsoleProvider prints notifications through logx. Intended for
// development and tests; it is the only shipped code sender.
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the email details instead of sending it.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	so := notifx.ApplySendOptions(opts)
	fields := logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}
	for k, v := range so.Tags {
		fields["tag."+k] = v
	}
	logx.WithFields(fields).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}

// SendCode logs the one-time code.
func (p *ConsoleProvider) SendCode(_ context.Context, msg notifx.CodeMessage) error {
	logx.WithFields(logx.Fields{
		"phone":      msg.PhoneNumber,
		"code":       msg.Code,
		"expires_in": msg.ExpiresIn.String(),
	}).Info("notifx/console: otp sent (dev mode)")
	return nil
}
