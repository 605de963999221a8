package authinfra

import (
	"context"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/auth"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
)

// LogxAuditService implements auth.AuditService as structured log lines
// tagged with audit_event.
type LogxAuditService struct {
	clock kernel.Clock
}

var _ auth.AuditService = (*LogxAuditService)(nil)

func NewLogxAuditService(clock kernel.Clock) *LogxAuditService {
	return &LogxAuditService{clock: clock}
}

func (s *LogxAuditService) event(ctx context.Context, name string, fields logx.Fields) *logx.Entry {
	fields["audit_event"] = name
	fields["timestamp"] = s.clock.Now()
	return logx.WithContext(ctx).WithFields(fields)
}

func (s *LogxAuditService) LogLoginAttempt(ctx context.Context, accountID kernel.AccountID, method iam.Provider, success bool, ip string, userAgent string) {
	entry := s.event(ctx, "login_attempt", logx.Fields{
		"account_id": accountID,
		"method":     method,
		"success":    success,
		"ip":         ip,
		"user_agent": userAgent,
	})
	if !success {
		entry.Warn("Audit: login failed")
		return
	}
	entry.Info("Audit: login succeeded")
}

func (s *LogxAuditService) LogLogout(ctx context.Context, accountID kernel.AccountID, ip string) {
	s.event(ctx, "logout", logx.Fields{
		"account_id": accountID,
		"ip":         ip,
	}).Info("Audit: logout")
}

func (s *LogxAuditService) LogOTPIssued(ctx context.Context, phone kernel.PhoneNumber, ip string) {
	s.event(ctx, "otp_issued", logx.Fields{
		"phone": maskPhone(phone),
		"ip":    ip,
	}).Info("Audit: OTP issued")
}

func (s *LogxAuditService) LogOTPVerification(ctx context.Context, phone kernel.PhoneNumber, success bool, ip string) {
	s.event(ctx, "otp_verification", logx.Fields{
		"phone":   maskPhone(phone),
		"success": success,
		"ip":      ip,
	}).Info("Audit: OTP verification")
}

func (s *LogxAuditService) LogAccountCreated(ctx context.Context, accountID kernel.AccountID, method iam.Provider, ip string) {
	s.event(ctx, "account_created", logx.Fields{
		"account_id": accountID,
		"method":     method,
		"ip":         ip,
	}).Info("Audit: account created")
}

// maskPhone keeps the last three digits.
func maskPhone(phone kernel.PhoneNumber) string {
	p := phone.String()
	if len(p) <= 3 {
		return "***"
	}
	masked := make([]byte, len(p))
	for i := range p {
		if i < len(p)-3 && p[i] != '+' {
			masked[i] = '*'
			continue
		}
		masked[i] = p[i]
	}
	return string(masked)
}
