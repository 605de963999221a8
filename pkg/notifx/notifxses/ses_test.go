package notifxses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/notifx"
	"github.com/Abraxas-365/flavormind/pkg/notifx/notifxses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendEmailBuildsInput(t *testing.T) {
	api := &fakeSES{}
	p := notifxses.NewSESProvider(api, "no-reply@flavormind.app")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"nimal@example.com"},
		Subject:  "Reset your password",
		HTMLBody: "<p>link</p>",
	}, notifx.WithConfigID("auth"), notifx.WithTags(map[string]string{"kind": "password_reset"}))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	in := api.input
	if aws.ToString(in.Source) != "no-reply@flavormind.app" {
		t.Fatalf("source = %q", aws.ToString(in.Source))
	}
	if aws.ToString(in.ConfigurationSetName) != "auth" {
		t.Fatalf("configuration set not applied")
	}
	if len(in.Tags) != 1 || aws.ToString(in.Tags[0].Value) != "password_reset" {
		t.Fatalf("tags not applied: %+v", in.Tags)
	}
	if in.Message.Body.Text != nil || aws.ToString(in.Message.Body.Html.Data) != "<p>link</p>" {
		t.Fatalf("unexpected body: %+v", in.Message.Body)
	}
}

func TestSendEmailWrapsFailure(t *testing.T) {
	p := notifxses.NewSESProvider(&fakeSES{err: errors.New("throttled")}, "a@b.c")
	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"x@y.z"}, Subject: "s"})
	if !errx.HasCode(err, notifxses.ErrSendFailed) {
		t.Fatalf("expected send failed, got %v", err)
	}
	if errx.StatusOf(err) != 500 {
		t.Fatalf("status = %d", errx.StatusOf(err))
	}
}
