package config

import (
	"time"

	"github.com/spf13/viper"
)

// AuthConfig groups everything the identity subsystem needs.
type AuthConfig struct {
	JWT       JWTConfig
	OTP       OTPConfig
	Password  PasswordConfig
	Federated FederatedConfig

	// LinkBaseURL prefixes email verification and password reset links
	LinkBaseURL string
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

type PasswordConfig struct {
	BcryptCost int
	MinLength  int
}

// FederatedConfig names the audiences and key sets used to check Google and
// Apple ID tokens.
type FederatedConfig struct {
	GoogleClientID string
	GoogleJWKSURL  string
	GoogleIssuers  []string
	AppleClientID  string
	AppleJWKSURL   string
	AppleIssuer    string
	JWKSCacheTTL   time.Duration
}

func loadAuthConfig(v *viper.Viper) AuthConfig {
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "flavormind")
	v.SetDefault("JWT_AUDIENCE", "flavormind-api")
	v.SetDefault("JWT_TTL", time.Hour)
	v.SetDefault("OTP_TTL", 5*time.Minute)
	v.SetDefault("OTP_MAX_ATTEMPTS", 3)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PASSWORD_MIN_LENGTH", 6)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs")
	v.SetDefault("GOOGLE_ISSUERS", "https://accounts.google.com,accounts.google.com")
	v.SetDefault("APPLE_CLIENT_ID", "")
	v.SetDefault("APPLE_JWKS_URL", "https://appleid.apple.com/auth/keys")
	v.SetDefault("APPLE_ISSUER", "https://appleid.apple.com")
	v.SetDefault("JWKS_CACHE_TTL", time.Hour)
	v.SetDefault("AUTH_LINK_BASE_URL", "http://localhost:3000/auth/action")

	return AuthConfig{
		JWT: JWTConfig{
			Secret:   v.GetString("JWT_SECRET"),
			Issuer:   v.GetString("JWT_ISSUER"),
			Audience: v.GetString("JWT_AUDIENCE"),
			TTL:      v.GetDuration("JWT_TTL"),
		},
		OTP: OTPConfig{
			TTL:         v.GetDuration("OTP_TTL"),
			MaxAttempts: v.GetInt("OTP_MAX_ATTEMPTS"),
		},
		Password: PasswordConfig{
			BcryptCost: v.GetInt("BCRYPT_COST"),
			MinLength:  v.GetInt("PASSWORD_MIN_LENGTH"),
		},
		Federated: FederatedConfig{
			GoogleClientID: v.GetString("GOOGLE_CLIENT_ID"),
			GoogleJWKSURL:  v.GetString("GOOGLE_JWKS_URL"),
			GoogleIssuers:  splitList(v.GetString("GOOGLE_ISSUERS")),
			AppleClientID:  v.GetString("APPLE_CLIENT_ID"),
			AppleJWKSURL:   v.GetString("APPLE_JWKS_URL"),
			AppleIssuer:    v.GetString("APPLE_ISSUER"),
			JWKSCacheTTL:   v.GetDuration("JWKS_CACHE_TTL"),
		},
		LinkBaseURL: v.GetString("AUTH_LINK_BASE_URL"),
	}
}
