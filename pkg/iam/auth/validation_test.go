package auth

import (
	"encoding/json"
	"testing"

	"github.com/Abraxas-365/flavormind/pkg/apix"
	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/google/go-cmp/cmp"
)

func TestEmailRule(t *testing.T) {
	cases := map[string]bool{
		"cook@example.com":        true,
		"first.last+tag@mail.lk":  true,
		"":                        false,
		"cook":                    false,
		"Cook <cook@example.com>": false,
		"cook@exa mple.com":       false,
		"two@@example.com":        false,
	}
	for in, want := range cases {
		err := (&EmailRequest{Email: in}).Validate()
		if got := err == nil; got != want {
			t.Errorf("email %q valid = %v, want %v (%v)", in, got, want, err)
		}
	}
}

func TestPhonePattern(t *testing.T) {
	valid := []string{"+94771234567", "0771234567"}
	invalid := []string{"771234567", "+9477123456", "+947712345678", "+44771234567", "07712345a7"}

	for _, p := range valid {
		if !phonePattern.MatchString(p) {
			t.Errorf("%q should match", p)
		}
	}
	for _, p := range invalid {
		if phonePattern.MatchString(p) {
			t.Errorf("%q should not match", p)
		}
	}
}

func TestAppleName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"idToken":"t","user":{"name":"Saman Perera"}}`, "Saman Perera"},
		{`{"idToken":"t","user":{"name":{"firstName":"Saman","lastName":"Perera"}}}`, "Saman Perera"},
		{`{"idToken":"t","user":{"name":{"firstName":"Saman"}}}`, "Saman"},
		{`{"idToken":"t"}`, ""},
	}
	for _, tc := range cases {
		var req AppleRequest
		if err := json.Unmarshal([]byte(tc.raw), &req); err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if got := req.NameHint(); got != tc.want {
			t.Errorf("%s: NameHint = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestValidateStructReportsFirstProblemPerField(t *testing.T) {
	cases := []struct {
		name string
		req  interface{ Validate() error }
		want []errx.FieldError
	}{
		{
			name: "blank login",
			req:  &LoginRequest{Email: "  "},
			want: []errx.FieldError{
				{Field: "email", Message: "Email is required", Value: ""},
				{Field: "password", Message: "Password is required"},
			},
		},
		{
			name: "short otp with letters",
			req:  &VerifyOTPRequest{PhoneNumber: "0771234567", OTP: "1a3"},
			want: []errx.FieldError{{Field: "otp", Message: "OTP must be 6 digits", Value: "1a3"}},
		},
		{
			name: "signed otp",
			req:  &VerifyOTPRequest{PhoneNumber: "0771234567", OTP: "-12345"},
			want: []errx.FieldError{{Field: "otp", Message: "OTP must contain only numbers", Value: "-12345"}},
		},
		{
			name: "foreign phone",
			req:  &OTPRequest{PhoneNumber: "+4915112345678"},
			want: []errx.FieldError{{Field: "phoneNumber", Message: "Please provide a valid Sri Lankan phone number", Value: "+4915112345678"}},
		},
		{
			name: "password never echoed",
			req:  &RegisterRequest{Name: "Nimal", Email: "nimal@example.com", Password: "12345"},
			want: []errx.FieldError{{Field: "password", Message: "Password must be at least 6 characters"}},
		},
		{
			name: "blank id token",
			req:  &AppleRequest{IDToken: " "},
			want: []errx.FieldError{{Field: "idToken", Message: "Invalid value", Value: ""}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields, ok := apix.FieldErrors(tc.req.Validate())
			if !ok {
				t.Fatal("expected a validation error")
			}
			if diff := cmp.Diff(tc.want, fields); diff != "" {
				t.Errorf("field errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
