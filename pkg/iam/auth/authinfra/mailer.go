package authinfra

import (
	"context"

	"github.com/Abraxas-365/flavormind/pkg/iam/auth"
	"github.com/Abraxas-365/flavormind/pkg/jobx"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/Abraxas-365/flavormind/pkg/notifx"
)

// Job types handled by RegisterMailJobs.
const (
	JobVerifyEmail   = "mail.verify_email"
	JobPasswordReset = "mail.password_reset"
)

// LinkMail is the payload of both mail jobs.
type LinkMail struct {
	To   string `json:"to"`
	Name string `json:"name,omitempty"`
	Link string `json:"link"`
}

// ============================================================================
// Inline
// ============================================================================

// InlineMailer renders the link templates and sends them right away.
type InlineMailer struct {
	client  *notifx.Client
	appName string
	opts    []notifx.Option
}

var _ auth.Mailer = (*InlineMailer)(nil)

// NewInlineMailer passes opts to every send, e.g. an SES configuration set.
func NewInlineMailer(client *notifx.Client, appName string, opts ...notifx.Option) *InlineMailer {
	return &InlineMailer{client: client, appName: appName, opts: opts}
}

func (m *InlineMailer) SendVerificationLink(ctx context.Context, to, name, link string) error {
	return m.client.SendTemplatedEmail(ctx, notifx.TemplateVerifyEmail,
		notifx.LinkEmail{Name: name, Link: link, AppName: m.appName},
		notifx.EmailMessage{To: []string{to}, Subject: "Verify your " + m.appName + " email"},
		m.options(JobVerifyEmail)...,
	)
}

func (m *InlineMailer) SendPasswordResetLink(ctx context.Context, to, link string) error {
	return m.client.SendTemplatedEmail(ctx, notifx.TemplatePasswordReset,
		notifx.LinkEmail{Name: "there", Link: link, AppName: m.appName},
		notifx.EmailMessage{To: []string{to}, Subject: "Reset your " + m.appName + " password"},
		m.options(JobPasswordReset)...,
	)
}

// options tags the message with its kind after the configured options.
func (m *InlineMailer) options(kind string) []notifx.Option {
	return append(append([]notifx.Option(nil), m.opts...), notifx.WithTags(map[string]string{"kind": kind}))
}

// ============================================================================
// Queued
// ============================================================================

// QueuedMailer enqueues mail jobs; a jobx worker running RegisterMailJobs
// delivers them.
type QueuedMailer struct {
	jobs  jobx.Enqueuer
	queue string
}

var _ auth.Mailer = (*QueuedMailer)(nil)

func NewQueuedMailer(jobs jobx.Enqueuer, queue string) *QueuedMailer {
	return &QueuedMailer{jobs: jobs, queue: queue}
}

func (m *QueuedMailer) SendVerificationLink(ctx context.Context, to, name, link string) error {
	return m.enqueue(ctx, JobVerifyEmail, LinkMail{To: to, Name: name, Link: link})
}

func (m *QueuedMailer) SendPasswordResetLink(ctx context.Context, to, link string) error {
	return m.enqueue(ctx, JobPasswordReset, LinkMail{To: to, Link: link})
}

func (m *QueuedMailer) enqueue(ctx context.Context, jobType string, mail LinkMail) error {
	job, err := jobx.NewJob(m.queue, jobType, mail)
	if err != nil {
		return err
	}
	id, err := m.jobs.Enqueue(ctx, job)
	if err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"job_type": jobType, "queue": m.queue}).
			WithError(err).
			Error("mail: enqueue failed")
		return err
	}
	logx.WithContext(ctx).WithFields(logx.Fields{"job_id": id, "job_type": jobType}).Debug("mail: queued")
	return nil
}

// RegisterMailJobs binds the mail job types to an inline mailer.
func RegisterMailJobs(client *jobx.Client, mailer *InlineMailer) {
	client.Register(JobVerifyEmail, func(ctx context.Context, job *jobx.JobInfo) error {
		var mail LinkMail
		if err := job.Decode(&mail); err != nil {
			return err
		}
		return mailer.SendVerificationLink(ctx, mail.To, mail.Name, mail.Link)
	})
	client.Register(JobPasswordReset, func(ctx context.Context, job *jobx.JobInfo) error {
		var mail LinkMail
		if err := job.Decode(&mail); err != nil {
			return err
		}
		return mailer.SendPasswordResetLink(ctx, mail.To, mail.Link)
	})
}
