package auth

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/Abraxas-365/flavormind/pkg/apix"
	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^(\+94|0)[0-9]{9}$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("lkphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// fieldMessages maps "<json field>.<tag>" to the message sent to clients.
var fieldMessages = map[string]string{
	"name.required":        "Name is required",
	"name.min":             "Name must be at least 2 characters",
	"email.required":       "Email is required",
	"email.email":          "Please provide a valid email",
	"password.required":    "Password is required",
	"password.min":         "Password must be at least 6 characters",
	"phoneNumber.required": "Phone number is required",
	"phoneNumber.lkphone":  "Please provide a valid Sri Lankan phone number",
	"otp.required":         "OTP is required",
	"otp.len":              "OTP must be 6 digits",
	"otp.number":           "OTP must contain only numbers",
	"idToken.required":     "Invalid value",
}

// secretFields are never echoed back in a validation response.
var secretFields = map[string]bool{"password": true}

// validateStruct runs the validate tags on req. The validator stops at the
// first failing tag of a field, so each field reports one problem, in field
// order.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return ErrInvalidBody(err)
	}

	fields := make([]errx.FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, toFieldError(fe))
	}
	return apix.ValidationFailed(fields)
}

func toFieldError(fe validator.FieldError) errx.FieldError {
	field := fe.Field()
	msg, ok := fieldMessages[field+"."+fe.Tag()]
	if !ok {
		msg = "Invalid value"
	}
	out := errx.FieldError{Field: field, Message: msg}
	if !secretFields[field] {
		out.Value = fe.Value()
	}
	return out
}

// ============================================================================
// Requests
// ============================================================================

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

type IDTokenRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

func (r *IDTokenRequest) Validate() error {
	r.IDToken = strings.TrimSpace(r.IDToken)
	return validateStruct(r)
}

// AppleRequest carries the user object Apple returns on first authorization.
type AppleRequest struct {
	IDToken string     `json:"idToken" validate:"required"`
	User    *AppleUser `json:"user,omitempty"`
}

func (r *AppleRequest) Validate() error {
	r.IDToken = strings.TrimSpace(r.IDToken)
	return validateStruct(r)
}

// NameHint returns the display name Apple sent, if any.
func (r *AppleRequest) NameHint() string {
	if r.User == nil {
		return ""
	}
	return r.User.Name.String()
}

type AppleUser struct {
	Name  AppleName `json:"name"`
	Email string    `json:"email,omitempty"`
}

type OTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,lkphone"`
}

func (r *OTPRequest) Validate() error {
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	return validateStruct(r)
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,lkphone"`
	OTP         string `json:"otp" validate:"required,len=6,number"`
}

func (r *VerifyOTPRequest) Validate() error {
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.OTP = strings.TrimSpace(r.OTP)
	return validateStruct(r)
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}
