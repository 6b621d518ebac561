package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/inkwell-social/apiserver/internal/token"
	"github.com/inkwell-social/apiserver/types"
)

const (
	// DefaultActionTokenTTL bounds confirmation, reset, and email-change
	// tokens.
	DefaultActionTokenTTL = time.Hour

	// DefaultAPITokenTTL bounds API access tokens.
	DefaultAPITokenTTL = 24 * time.Hour
)

// Notifier delivers account-action mail. Implementations receive the
// token value and target address only; the transport is theirs.
type Notifier interface {
	SendConfirmation(ctx context.Context, user types.User, tok string) error
	SendPasswordReset(ctx context.Context, user types.User, tok string) error
	SendEmailChange(ctx context.Context, user types.User, newEmail, tok string) error
}

// AccountService drives the token-guarded account workflows: email
// confirmation, password reset, and email change. Each workflow is a
// single transition guarded by token verification; outcomes are boolean
// and verification failures never surface as errors.
type AccountService struct {
	repo     UserRepository
	issuer   *token.Issuer
	notifier Notifier

	actionTTL time.Duration
	apiTTL    time.Duration
}

func NewAccountService(repo UserRepository, issuer *token.Issuer, notifier Notifier) *AccountService {
	return &AccountService{
		repo:      repo,
		issuer:    issuer,
		notifier:  notifier,
		actionTTL: DefaultActionTokenTTL,
		apiTTL:    DefaultAPITokenTTL,
	}
}

// IssueAPIToken mints an API access token for the account.
func (s *AccountService) IssueAPIToken(user types.User) (string, error) {
	return s.issuer.Issue(user.ID, token.KindAPI, "", s.apiTTL)
}

// VerifyAPIToken resolves an API access token to its account.
func (s *AccountService) VerifyAPIToken(ctx context.Context, tok string) (types.User, error) {
	payload, err := s.issuer.Verify(tok, token.KindAPI, 0)
	if err != nil {
		return types.User{}, err
	}
	return s.repo.GetByID(ctx, payload.UserID)
}

// RequestConfirmation issues a fresh confirmation token and mails it.
func (s *AccountService) RequestConfirmation(ctx context.Context, user types.User) error {
	tok, err := s.issuer.Issue(user.ID, token.KindConfirm, "", s.actionTTL)
	if err != nil {
		return err
	}
	s.notify(func() error { return s.notifier.SendConfirmation(ctx, user, tok) })
	return nil
}

// Confirm marks the account confirmed when the token verifies for it.
// An already confirmed account is a no-op success.
func (s *AccountService) Confirm(ctx context.Context, user types.User, tok string) (bool, error) {
	if user.Confirmed {
		return true, nil
	}
	if _, err := s.issuer.Verify(tok, token.KindConfirm, user.ID); err != nil {
		return false, nil
	}
	if err := s.repo.SetConfirmed(ctx, user.ID, true); err != nil {
		return false, err
	}
	return true, nil
}

// RequestPasswordReset issues a reset token for the account that owns
// the email and mails it. Unknown addresses are silently ignored so the
// endpoint does not leak which emails are registered.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	tok, err := s.issuer.Issue(user.ID, token.KindReset, "", s.actionTTL)
	if err != nil {
		return err
	}
	s.notify(func() error { return s.notifier.SendPasswordReset(ctx, user, tok) })
	return nil
}

// ResetPassword sets a new password for the account found by email when
// the token verifies for that account. Confirmation status is not
// required.
func (s *AccountService) ResetPassword(ctx context.Context, email, tok, newPassword string) (bool, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.issuer.Verify(tok, token.KindReset, user.ID); err != nil {
		return false, nil
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	if err := s.repo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return false, err
	}
	return true, nil
}

// RequestEmailChange validates the candidate address, binds it into a
// change-email token, and mails the token to the new address. The
// caller must have verified the requester's password first.
func (s *AccountService) RequestEmailChange(ctx context.Context, user types.User, newEmail string) (ValidationResult, error) {
	result, err := ValidateNewEmail(ctx, s.repo, newEmail, user.ID)
	if err != nil || !result.OK() {
		return result, err
	}
	tok, err := s.issuer.Issue(user.ID, token.KindChangeEmail, newEmail, s.actionTTL)
	if err != nil {
		return ValidationResult{}, err
	}
	s.notify(func() error { return s.notifier.SendEmailChange(ctx, user, newEmail, tok) })
	return result, nil
}

// ChangeEmail rewrites the account's email to the address carried by the
// token. It rejects tokens for other accounts and addresses that are
// meanwhile owned by a different account.
func (s *AccountService) ChangeEmail(ctx context.Context, user types.User, tok string) (bool, error) {
	payload, err := s.issuer.Verify(tok, token.KindChangeEmail, user.ID)
	if err != nil {
		return false, nil
	}
	newEmail := payload.Extra
	if newEmail == "" {
		return false, nil
	}
	taken, err := s.repo.EmailExists(ctx, newEmail, user.ID)
	if err != nil {
		return false, err
	}
	if taken {
		return false, nil
	}
	if err := s.repo.SetEmail(ctx, user.ID, newEmail); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// notify runs a mail enqueue without failing the surrounding workflow;
// delivery is best-effort and retried by the broker, not by us.
func (s *AccountService) notify(send func() error) {
	if s.notifier == nil {
		return
	}
	if err := send(); err != nil {
		log.Printf("mail enqueue failed: %v", err)
	}
}
