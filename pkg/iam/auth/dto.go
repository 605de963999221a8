package auth

import (
	"encoding/json"
	"strings"

	"github.com/Abraxas-365/flavormind/pkg/iam/account"
)

// AppleName accepts both a plain string and Apple's
// {"firstName","lastName"} object.
type AppleName struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	full      string
}

func (n *AppleName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.full = strings.TrimSpace(s)
		return nil
	}
	type parts AppleName
	var p parts
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = AppleName(p)
	return nil
}

func (n AppleName) String() string {
	if n.full != "" {
		return n.full
	}
	return strings.TrimSpace(strings.TrimSpace(n.FirstName) + " " + strings.TrimSpace(n.LastName))
}

// ============================================================================
// Responses
// ============================================================================

// SignInUser is the user summary returned with a fresh token.
type SignInUser struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoURL,omitempty"`
	EmailVerified *bool  `json:"emailVerified,omitempty"`
}

type TokenResponse struct {
	Token string     `json:"token"`
	User  SignInUser `json:"user"`
}

type ProfileResponse struct {
	User account.ProfileDTO `json:"user"`
}
