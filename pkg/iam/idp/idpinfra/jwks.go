package idpinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// FederatedAudience describes one ID token issuer this service accepts.
type FederatedAudience struct {
	Provider iam.Provider
	ClientID string
	JWKSURL  string
	Issuers  []string
}

// JWKSVerifier checks RS256 ID tokens against the issuer's published keys.
// Each key set URL is fetched once at construction and then every
// refreshInterval in the background. A token naming an unknown kid triggers
// at most one extra fetch per unknownKIDEvery; the rest are rejected.
type JWKSVerifier struct {
	audiences map[iam.Provider]FederatedAudience
	keys      map[string]jwkSource
	clock     kernel.Clock
	cancel    context.CancelFunc
}

type jwkSource struct {
	storage jwkset.Storage
	keyfunc keyfunc.Keyfunc
}

const (
	unknownKIDEvery  = 5 * time.Minute
	rateLimitWaitMax = time.Second
)

func NewJWKSVerifier(httpClient *http.Client, refreshInterval time.Duration, clock kernel.Clock, audiences ...FederatedAudience) *JWKSVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if refreshInterval <= 0 {
		refreshInterval = time.Hour
	}

	// Fetches run under the verifier's context, never a request's.
	ctx, cancel := context.WithCancel(context.Background())
	v := &JWKSVerifier{
		audiences: make(map[iam.Provider]FederatedAudience, len(audiences)),
		keys:      make(map[string]jwkSource),
		clock:     clock,
		cancel:    cancel,
	}

	for _, a := range audiences {
		v.audiences[a.Provider] = a
		if a.ClientID == "" || a.JWKSURL == "" {
			continue
		}
		if _, ok := v.keys[a.JWKSURL]; ok {
			continue
		}
		src, err := newJWKSource(ctx, httpClient, a.JWKSURL, refreshInterval)
		if err != nil {
			logx.WithFields(logx.Fields{"provider": a.Provider, "url": a.JWKSURL}).
				WithError(err).
				Error("idp: jwks source not created")
			continue
		}
		v.keys[a.JWKSURL] = src
	}
	return v
}

func newJWKSource(ctx context.Context, httpClient *http.Client, url string, refreshInterval time.Duration) (jwkSource, error) {
	remote, err := jwkset.NewStorageFromHTTP(url, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		Ctx:                       ctx,
		HTTPTimeout:               httpClient.Timeout,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(ctx context.Context, err error) {
			logx.WithContext(ctx).WithField("url", url).WithError(err).Warn("idp: jwks refresh failed")
		},
	})
	if err != nil {
		return jwkSource{}, err
	}

	storage, err := jwkset.NewHTTPClient(jwkset.HTTPClientOptions{
		HTTPURLs:          map[string]jwkset.Storage{url: remote},
		RateLimitWaitMax:  rateLimitWaitMax,
		RefreshUnknownKID: rate.NewLimiter(rate.Every(unknownKIDEvery), 1),
	})
	if err != nil {
		return jwkSource{}, err
	}

	kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return jwkSource{}, err
	}
	return jwkSource{storage: storage, keyfunc: kf}, nil
}

// Close stops the background refreshes.
func (v *JWKSVerifier) Close() {
	v.cancel()
}

// federatedClaims covers Google and Apple. Apple sends email_verified as a
// string.
type federatedClaims struct {
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
	jwt.RegisteredClaims
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		parsed, _ := strconv.ParseBool(t)
		*b = flexBool(parsed)
	}
	return nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, provider iam.Provider, idToken string) (*idp.IDTokenClaims, error) {
	aud, ok := v.audiences[provider]
	if !ok || aud.ClientID == "" {
		return nil, idp.Fail(idp.CodeInternal, "verify_id_token", fmt.Errorf("%s sign-in is not configured", provider))
	}

	src, ok := v.keys[aud.JWKSURL]
	if !ok {
		return nil, idp.Fail(idp.CodeInternal, "verify_id_token", fmt.Errorf("%s key set is unavailable", provider))
	}

	claims := &federatedClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, src.keyfunc.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(aud.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		if src.empty(ctx) {
			return nil, idp.Fail(idp.CodeInternal, "verify_id_token", err)
		}
		return nil, idp.Fail(idp.CodeInvalidIDToken, "verify_id_token", err)
	}

	if !slices.Contains(aud.Issuers, claims.Issuer) {
		return nil, idp.Fail(idp.CodeInvalidIDToken, "verify_id_token", fmt.Errorf("unexpected issuer %q", claims.Issuer))
	}
	if claims.Subject == "" {
		return nil, idp.Fail(idp.CodeInvalidIDToken, "verify_id_token", errors.New("missing sub"))
	}

	return &idp.IDTokenClaims{
		UID:           kernel.NewAccountID(string(provider) + ":" + claims.Subject),
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// empty reports whether no key was ever fetched, which means the issuer's
// endpoint is unreachable rather than the token being bad.
func (src jwkSource) empty(ctx context.Context) bool {
	keys, err := src.storage.KeyReadAll(ctx)
	return err != nil || len(keys) == 0
}
