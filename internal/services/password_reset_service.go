package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"legalaid/internal/repositories"
	"legalaid/internal/utils"
)

// ErrInvalidOrExpiredToken — unknown, expired or already-used reset token.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

const defaultResetTokenTTL = time.Hour

type PasswordResetService interface {
	RequestReset(identifier string) error
	ResetPassword(token, newPassword string) error
}

type passwordResetService struct {
	accounts repositories.AccountRepository
	tokens   repositories.PasswordResetRepository
	emails   EmailService
	sms      SMSSender
	auth     AuthService
	TokenTTL time.Duration // 0 means defaultResetTokenTTL
}

func NewPasswordResetService(
	accounts repositories.AccountRepository,
	tokens repositories.PasswordResetRepository,
	emails EmailService,
	sms SMSSender,
	auth AuthService,
) PasswordResetService {
	return &passwordResetService{
		accounts: accounts,
		tokens:   tokens,
		emails:   emails,
		sms:      sms,
		auth:     auth,
		TokenTTL: defaultResetTokenTTL,
	}
}

// RequestReset reveals whether the identifier exists: unlike login, an unknown
// identifier returns ErrAccountNotFound.
func (s *passwordResetService) RequestReset(identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ErrAccountNotFound
	}

	account, err := s.accounts.GetByIdentifier(identifier)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	token, err := utils.NewOpaqueToken(32)
	if err != nil {
		return err
	}
	ttl := s.TokenTTL
	if ttl == 0 {
		ttl = defaultResetTokenTTL
	}
	if _, err := s.tokens.Create(account.ID, token, time.Now().Add(ttl)); err != nil {
		return err
	}

	// route by the field the identifier matched; delivery is best-effort
	if strings.EqualFold(identifier, account.Email) {
		if err := s.emails.SendPasswordResetEmail(account.Email, token); err != nil {
			log.Printf("[password-reset] failed to send email to %s: %v", account.Email, err)
		}
	} else {
		if _, err := s.sms.SendSMS(account.Phone, fmt.Sprintf("Password reset token: %s", token)); err != nil {
			log.Printf("[password-reset] failed to send sms to %s: %v", account.Phone, err)
		}
	}

	log.Printf("[password-reset] token issued accountID=%d", account.ID)
	return nil
}

// ResetPassword hashes the new password and applies it together with marking
// the token used, atomically in the store.
func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	token = strings.TrimSpace(token)
	newPassword = strings.TrimSpace(newPassword)
	if token == "" || newPassword == "" {
		return ErrInvalidOrExpiredToken
	}

	pr, err := s.tokens.GetActiveByToken(token)
	if err != nil {
		return err
	}
	if pr == nil {
		return ErrInvalidOrExpiredToken
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.tokens.ConsumeAndSetPassword(pr.ID, pr.AccountID, hash)
	if err != nil {
		return err
	}
	if !ok {
		// lost a race with a concurrent reset or with expiry
		return ErrInvalidOrExpiredToken
	}

	log.Printf("[password-reset] password updated accountID=%d", pr.AccountID)
	return nil
}
