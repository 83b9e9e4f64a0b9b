package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/kioskpay/kioskpay/internal/domain"
)

const loginRateScope = "login"

// RateLimitError is returned when a subject has used up its attempts.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %ds", e.RetryAfterSeconds)
}

func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// Authenticate checks a login against the account table for kind. Any
// lookup or digest mismatch is reported as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string, kind domain.AccountKind) (*domain.UserDescriptor, error) {
	if !kind.Valid() {
		return nil, domain.NewValidationError("kind", "must be admin or customer")
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.consumeLoginAttempt(ctx, kind, email); err != nil {
		return nil, err
	}

	accounts, err := s.repo.FindAccountsByEmail(ctx, kind, email)
	if err != nil {
		return nil, err
	}
	if len(accounts) != 1 {
		if len(accounts) > 1 {
			s.logger.Warn("ambiguous login email", "kind", kind, "matches", len(accounts))
		}
		return nil, domain.ErrInvalidCredentials
	}
	account := accounts[0]

	ok, legacy := verifyPassword(account, password, s.opts.AllowLegacyDigest)
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	s.resetLoginAttempts(ctx, kind, email)
	if legacy {
		s.upgradeLegacyCredential(ctx, account, password)
	}

	descriptor := account.Descriptor()
	return &descriptor, nil
}

func (s *Service) consumeLoginAttempt(ctx context.Context, kind domain.AccountKind, email string) error {
	if s.limiter == nil || s.opts.LoginRateLimit <= 0 {
		return nil
	}
	count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, loginRateScope, loginSubject(kind, email), s.opts.LoginRateLimit, s.opts.LoginRateWindow)
	if err != nil {
		s.logger.Warn("login rate limiter unavailable", "error", err)
		return nil
	}
	if count > s.opts.LoginRateLimit {
		return &RateLimitError{RetryAfterSeconds: retryAfter}
	}
	return nil
}

// resetLoginAttempts clears the failed-attempt window after a good login.
func (s *Service) resetLoginAttempts(ctx context.Context, kind domain.AccountKind, email string) {
	if s.limiter == nil || s.opts.LoginRateLimit <= 0 {
		return
	}
	if err := s.limiter.ResetRateLimit(ctx, loginRateScope, loginSubject(kind, email)); err != nil {
		s.logger.Warn("failed to reset login attempts", "error", err)
	}
}

func loginSubject(kind domain.AccountKind, email string) string {
	return string(kind) + ":" + strings.ToLower(email)
}

// upgradeLegacyCredential replaces a legacy digest with a bcrypt hash after
// a successful login. Failures are logged; the login still succeeds.
func (s *Service) upgradeLegacyCredential(ctx context.Context, account domain.Account, password string) {
	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Warn("legacy credential not upgraded", "account_id", account.ID, "error", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, account.Kind, account.ID, hash); err != nil {
		s.logger.Warn("failed to store upgraded credential", "account_id", account.ID, "error", err)
		return
	}
	s.logger.Info("legacy credential upgraded to bcrypt", "account_id", account.ID, "kind", account.Kind)
}
