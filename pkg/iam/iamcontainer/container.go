package iamcontainer

import (
	"github.com/Abraxas-365/flavormind/pkg/config"
	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/iam/account/accountinfra"
	"github.com/Abraxas-365/flavormind/pkg/iam/account/accountsrv"
	"github.com/Abraxas-365/flavormind/pkg/iam/auth"
	"github.com/Abraxas-365/flavormind/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/flavormind/pkg/iam/credential"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp/idpinfra"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp/otpinfra"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp/otpsrv"
	"github.com/Abraxas-365/flavormind/pkg/iam/session"
	"github.com/Abraxas-365/flavormind/pkg/jobx"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/Abraxas-365/flavormind/pkg/notifx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	Cfg   *config.Config
	Clock kernel.Clock

	// DB is nil in memory storage mode.
	DB *sqlx.DB

	// Redis is set only in redis storage mode.
	Redis *redis.Client

	// Notifier renders and sends link emails and hands out OTP codes.
	Notifier *notifx.Client
	Codes    notifx.CodeSender

	// Jobs, when set, moves link emails onto the mail queue.
	Jobs *jobx.Client
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// ---------------------------------------------------------------------------

type Container struct {
	Provider    idp.Provider
	Accounts    account.Repository
	Resolver    *accountsrv.Resolver
	OTP         *otpsrv.Manager
	Credentials *credential.Service
	Sessions    *session.Issuer

	// Handlers registers /api/v1/auth.
	Handlers *auth.AuthHandlers

	// Guard protects any route group outside the auth routes.
	Guard *auth.Guard

	federated *idpinfra.JWKSVerifier
}

// New builds the IAM graph: stores, provider, core services, then HTTP.
func New(deps Deps) *Container {
	logx.WithField("storage_mode", deps.Cfg.Storage.Mode).Info("iam: initializing container")

	clock := deps.Clock
	if clock == nil {
		clock = kernel.SystemClock{}
	}
	cfg := deps.Cfg.Auth

	// ── Stores ───────────────────────────────────────────────────────────

	challenges, revocations := volatileStores(deps)
	identities, accounts := durableStores(deps)

	// ── Identity Provider ────────────────────────────────────────────────

	federated := idpinfra.NewJWKSVerifier(nil, cfg.Federated.JWKSCacheTTL, clock,
		idpinfra.FederatedAudience{
			Provider: iam.ProviderGoogle,
			ClientID: cfg.Federated.GoogleClientID,
			JWKSURL:  cfg.Federated.GoogleJWKSURL,
			Issuers:  cfg.Federated.GoogleIssuers,
		},
		idpinfra.FederatedAudience{
			Provider: iam.ProviderApple,
			ClientID: cfg.Federated.AppleClientID,
			JWKSURL:  cfg.Federated.AppleJWKSURL,
			Issuers:  []string{cfg.Federated.AppleIssuer},
		},
	)
	if cfg.Federated.GoogleClientID == "" || cfg.Federated.AppleClientID == "" {
		logx.Warn("iam: a federated client id is empty; matching ID tokens will be rejected")
	}

	provider := idp.Translated(idpinfra.NewProvider(idpinfra.Config{
		Secret:            cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
		TokenTTL:          cfg.JWT.TTL,
		LinkBaseURL:       cfg.LinkBaseURL,
		BcryptCost:        cfg.Password.BcryptCost,
		MinPasswordLength: cfg.Password.MinLength,
	}, identities, revocations, federated, clock))

	// ── Core services ────────────────────────────────────────────────────

	c := &Container{Provider: provider, Accounts: accounts, federated: federated}

	c.OTP = otpsrv.NewManager(challenges, deps.Codes, clock, otpsrv.Config{
		TTL:         cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
	})
	c.Resolver = accountsrv.NewResolver(accounts, provider, clock)
	c.Credentials = credential.NewService(provider, provider, c.OTP)
	c.Sessions = session.NewIssuer(provider)

	// ── Mail ─────────────────────────────────────────────────────────────

	var sendOpts []notifx.Option
	if set := deps.Cfg.Notifx.ConfigurationSet; set != "" {
		sendOpts = append(sendOpts, notifx.WithConfigID(set))
	}
	inline := authinfra.NewInlineMailer(deps.Notifier, deps.Cfg.Notifx.FromName, sendOpts...)
	var mailer auth.Mailer = inline
	if deps.Jobs != nil {
		authinfra.RegisterMailJobs(deps.Jobs, inline)
		mailer = authinfra.NewQueuedMailer(deps.Jobs, deps.Cfg.Jobx.Queues[0])
		logx.Info("iam: link emails go through the job queue")
	}

	// ── HTTP ─────────────────────────────────────────────────────────────

	c.Guard = auth.NewGuard(provider, accounts)
	c.Handlers = auth.NewAuthHandlers(
		c.Credentials,
		c.Resolver,
		c.Sessions,
		c.OTP,
		provider,
		accounts,
		mailer,
		authinfra.NewLogxAuditService(clock),
		c.Guard,
	)

	logx.Info("iam: container initialized")
	return c
}

// Close stops the background key set refreshes.
func (c *Container) Close() {
	c.federated.Close()
}

// volatileStores picks where OTP challenges and revocation watermarks live.
func volatileStores(deps Deps) (otp.ChallengeStore, idpinfra.RevocationStore) {
	if deps.Redis != nil {
		return otpinfra.NewRedisChallengeStore(deps.Redis), idpinfra.NewRedisRevocationStore(deps.Redis)
	}
	if deps.Cfg.Storage.Mode != config.StorageMemory {
		logx.Warn("iam: OTP challenges and revocations are held in process memory")
	}
	return otpinfra.NewMemoryChallengeStore(), idpinfra.NewMemoryRevocationStore()
}

// durableStores picks where identities and accounts live.
func durableStores(deps Deps) (idpinfra.IdentityStore, account.Repository) {
	if deps.DB != nil {
		return idpinfra.NewPostgresIdentityStore(deps.DB), accountinfra.NewPostgresAccountRepository(deps.DB)
	}
	logx.Warn("iam: identities and accounts are held in process memory")
	return idpinfra.NewMemoryIdentityStore(), accountinfra.NewMemoryAccountRepository()
}
