package account

import "time"

// ProfileDTO is the /me view of an account.
type ProfileDTO struct {
	UID             string                   `json:"uid"`
	Email           string                   `json:"email,omitempty"`
	PhoneNumber     string                   `json:"phoneNumber,omitempty"`
	Name            string                   `json:"name"`
	PhotoURL        string                   `json:"photoURL,omitempty"`
	Provider        string                   `json:"provider"`
	ProfileComplete bool                     `json:"profileComplete"`
	Role            string                   `json:"role"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
	LastLogin       *time.Time               `json:"lastLogin,omitempty"`
	Preferences     map[string]interface{}   `json:"preferences"`
	SavedRecipes    []string                 `json:"savedRecipes"`
	CookingHistory  []map[string]interface{} `json:"cookingHistory"`
}

func (a *Account) ToDTO() ProfileDTO {
	return ProfileDTO{
		UID:             a.ID.String(),
		Email:           a.Email,
		PhoneNumber:     a.PhoneNumber,
		Name:            a.Name,
		PhotoURL:        a.PhotoURL,
		Provider:        string(a.Provider),
		ProfileComplete: a.ProfileComplete,
		Role:            string(a.Role),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		LastLogin:       a.LastLogin,
		Preferences:     a.Preferences,
		SavedRecipes:    a.SavedRecipes,
		CookingHistory:  a.CookingHistory,
	}
}
