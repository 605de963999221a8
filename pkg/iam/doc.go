// Package iam is the identity and credential issuance subsystem of FlavorMind.
//
// # Overview
//
//   - iam/otp         phone challenges (6-digit codes, TTL, attempt limit, single use)
//   - iam/account     Account entity and the Identity Resolver (accountsrv)
//   - iam/idp         Identity Provider port, error translation, self-hosted adapter
//   - iam/credential  password, Google, Apple and phone-OTP verification strategies
//   - iam/session     Session Issuer, mints and revokes bearer tokens
//   - iam/auth        Access Guard middleware and the /api/v1/auth HTTP handlers
//   - iam/migrations  identities and accounts schema, applied with golang-migrate
//
// # Flow
//
//	request → credential.Verifier → accountsrv.Resolver → session.Issuer → response
//
// The Access Guard runs on its own for every protected request: it verifies
// the bearer token, loads the current account and stores an auth.SessionContext
// in fiber locals.
//
// # Storage
//
// With STORAGE_MODE=redis, challenges and revocation watermarks live in Redis
// and accounts and provider identities live in Postgres. Every store has an
// in-memory twin, so STORAGE_MODE=postgres keeps only the volatile state in
// process and STORAGE_MODE=memory needs no external service at all.
//
// # Errors
//
// Each sub-domain owns an errx registry (OTP, ACCOUNT, IDP, CREDENTIAL,
// SESSION, IAM). Provider failures are translated once, by idp.Translate, and
// never reach a handler as raw errors.
//
// # Quick Start
//
//	c := iamcontainer.New(deps)
//	c.Handlers.RegisterRoutes(app, "v1") // mounts /api/v1/auth
//
//	recipes := app.Group("/api/v1/recipes", c.Guard.Authenticate(), c.Guard.RequireCompleteProfile())
//
//	session, ok := auth.SessionFrom(c)
package iam
