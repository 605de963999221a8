package account

import (
	"strings"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/ptrx"
)

// Account is the durable user record. Its ID is the Identity Provider uid.
// Email, PhoneNumber and Provider never change after creation.
type Account struct {
	ID              kernel.AccountID `json:"uid"`
	Email           string           `json:"email,omitempty"`
	PhoneNumber     string           `json:"phoneNumber,omitempty"`
	Name            string           `json:"name,omitempty"`
	PhotoURL        string           `json:"photoURL,omitempty"`
	Provider        iam.Provider     `json:"provider"`
	ProfileComplete bool             `json:"profileComplete"`
	Role            iam.Role         `json:"role"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	LastLogin       *time.Time       `json:"lastLogin,omitempty"`

	// Owned by the profile features, opaque here
	Preferences    map[string]interface{}   `json:"preferences"`
	SavedRecipes   []string                 `json:"savedRecipes"`
	CookingHistory []map[string]interface{} `json:"cookingHistory"`
}

// New builds a first-login account from verified claims.
func New(id kernel.AccountID, provider iam.Provider, claims iam.Claims, now time.Time) *Account {
	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = iam.FallbackName(claims.Email)
	}

	a := &Account{
		ID:             id,
		Email:          strings.ToLower(strings.TrimSpace(claims.Email)),
		PhoneNumber:    claims.PhoneNumber,
		Name:           name,
		PhotoURL:       claims.PhotoURL,
		Provider:       provider,
		Role:           iam.RoleUser,
		CreatedAt:      now,
		UpdatedAt:      now,
		Preferences:    map[string]interface{}{},
		SavedRecipes:   []string{},
		CookingHistory: []map[string]interface{}{},
	}
	a.ProfileComplete = a.computeProfileComplete()
	return a
}

// ============================================================================
// Domain Methods
// ============================================================================

func (a *Account) IsAdmin() bool {
	return a.Role == iam.RoleAdmin
}

// computeProfileComplete requires a name and at least one contact.
func (a *Account) computeProfileComplete() bool {
	return a.Name != "" && (a.Email != "" || a.PhoneNumber != "")
}

// RecordLogin stamps a repeat sign-in. Nothing else is touched.
func (a *Account) RecordLogin(at time.Time) {
	a.LastLogin = ptrx.Time(at)
	a.UpdatedAt = at
}

// DisplayName falls back to "User" for accounts created without a name.
func (a *Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return "User"
}

// Validate checks the fields a repository relies on.
func (a *Account) Validate() error {
	if a.ID.IsEmpty() {
		return ErrInvalidAccount().WithDetail("field", "uid")
	}
	if !a.Provider.IsValid() {
		return ErrInvalidAccount().WithDetail("field", "provider")
	}
	if a.Email == "" && a.PhoneNumber == "" {
		return ErrInvalidAccount().WithDetail("field", "email|phoneNumber")
	}
	return nil
}
