package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"legalaid/internal/models"
	"legalaid/internal/repositories"
	"legalaid/internal/utils"
)

var (
	// ErrInvalidOrExpiredCode — wrong code, expired code or already-consumed
	// code; the caller cannot tell which (no brute-force signal).
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrResendThrottled      = errors.New("resend throttled")
	ErrAccountNotFound      = errors.New("account not found")
	ErrUnknownChannel       = errors.New("unknown channel")
)

const (
	defaultCodeTTL      = 15 * time.Minute
	resendWindow        = 10 * time.Minute
	maxResendsPerWindow = 3
)

// SMSSender is satisfied by utils.Client.
type SMSSender interface {
	SendSMS(to, text string) (*utils.SendSMSResponse, error)
}

type VerificationService interface {
	// IssueRegistrationCodes creates one code per channel and dispatches both
	// concurrently. A failed dispatch is logged, not returned: the codes stay
	// valid regardless of delivery.
	IssueRegistrationCodes(account *models.Account) error
	Resend(accountID int, channel string) error
	Verify(accountID int, channel, code string) error
}

type verificationService struct {
	codes    repositories.OneTimeCodeRepository
	accounts repositories.AccountRepository
	emails   EmailService
	sms      SMSSender
	CodeTTL  time.Duration // 0 means defaultCodeTTL
}

func NewVerificationService(
	codes repositories.OneTimeCodeRepository,
	accounts repositories.AccountRepository,
	emails EmailService,
	sms SMSSender,
) VerificationService {
	return &verificationService{
		codes:    codes,
		accounts: accounts,
		emails:   emails,
		sms:      sms,
		CodeTTL:  defaultCodeTTL,
	}
}

func (s *verificationService) ttl() time.Duration {
	if s.CodeTTL == 0 {
		return defaultCodeTTL
	}
	return s.CodeTTL
}

func (s *verificationService) issueCode(accountID int, channel string) (string, error) {
	code, err := utils.NewOTPCode()
	if err != nil {
		return "", err
	}
	rec := &models.OneTimeCode{
		AccountID: accountID,
		Channel:   channel,
		Code:      code,
		ExpiresAt: time.Now().Add(s.ttl()),
	}
	if err := s.codes.Create(rec); err != nil {
		return "", err
	}
	return code, nil
}

func (s *verificationService) IssueRegistrationCodes(account *models.Account) error {
	emailCode, err := s.issueCode(account.ID, models.ChannelEmail)
	if err != nil {
		return err
	}
	phoneCode, err := s.issueCode(account.ID, models.ChannelPhone)
	if err != nil {
		return err
	}

	// both channels dispatch concurrently; completion order does not matter
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.emails.SendVerificationEmail(account.Email, emailCode); err != nil {
			log.Printf("[verify][send] email dispatch to %s failed: %v", account.Email, err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := s.sms.SendSMS(account.Phone, smsText(phoneCode)); err != nil {
			log.Printf("[verify][send] sms dispatch to %s failed: %v", account.Phone, err)
		}
	}()
	wg.Wait()

	log.Printf("[verify][send] codes issued accountID=%d", account.ID)
	return nil
}

// Resend issues a fresh code for one channel; earlier codes expire on their own
// clock. Throttled per account+channel. Sends to the stored email/phone, never
// to a caller-supplied destination.
func (s *verificationService) Resend(accountID int, channel string) error {
	if !models.IsValidChannel(channel) {
		return ErrUnknownChannel
	}

	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	since := time.Now().Add(-resendWindow)
	cnt, err := s.codes.CountRecentSends(accountID, channel, since)
	if err != nil {
		return err
	}
	if cnt >= maxResendsPerWindow {
		return ErrResendThrottled
	}

	code, err := s.issueCode(accountID, channel)
	if err != nil {
		return err
	}

	switch channel {
	case models.ChannelEmail:
		if err := s.emails.SendVerificationEmail(account.Email, code); err != nil {
			return fmt.Errorf("resend email: %w", err)
		}
	case models.ChannelPhone:
		if _, err := s.sms.SendSMS(account.Phone, smsText(code)); err != nil {
			return fmt.Errorf("resend sms: %w", err)
		}
	}

	log.Printf("[verify][resend] accountID=%d channel=%s", accountID, channel)
	return nil
}

// Verify consumes the code and flips the account's flag for that channel.
// Channels are independent: an EMAIL consume never touches phone_verified.
func (s *verificationService) Verify(accountID int, channel, code string) error {
	if !models.IsValidChannel(channel) {
		return ErrUnknownChannel
	}

	ok, err := s.codes.Consume(accountID, channel, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOrExpiredCode
	}

	if err := s.accounts.MarkChannelVerified(accountID, channel); err != nil {
		return err
	}
	log.Printf("[verify][confirm] OK accountID=%d channel=%s", accountID, channel)
	return nil
}

func smsText(code string) string {
	return fmt.Sprintf("Legal aid portal verification code: %s", code)
}
