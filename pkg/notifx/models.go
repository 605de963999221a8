package notifx

import "time"

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string   `json:"from,omitempty"`
	To       []string `json:"to"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
}

// CodeMessage carries a one-time code to a phone number.
type CodeMessage struct {
	PhoneNumber string        `json:"phone_number"`
	Code        string        `json:"code"`
	ExpiresIn   time.Duration `json:"expires_in"`
}

// LinkEmail is the data rendered into the verification and password reset
// templates.
type LinkEmail struct {
	Name    string
	Link    string
	AppName string
}
