package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"legalaid/internal/models"
	"legalaid/internal/repositories"
	"legalaid/internal/utils"
)

var errDeliveryDown = errors.New("delivery down")

// ===== account repo =====

type fakeAccountRepo struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: map[int]*models.Account{}}
}

func (r *fakeAccountRepo) Create(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == account.Email || a.Phone == account.Phone {
			return repositories.ErrDuplicateKey
		}
		if a.Username != nil && account.Username != nil && *a.Username == *account.Username {
			return repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	account.ID = r.nextID
	account.CreatedAt = time.Now()
	r.byID[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) GetByID(id int) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *fakeAccountRepo) GetByIdentifier(identifier string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == strings.ToLower(identifier) || a.Phone == identifier {
			return a, nil
		}
		if a.Username != nil && *a.Username == identifier {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) GetCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *fakeAccountRepo) UpdateLastLogin(accountID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a := r.byID[accountID]; a != nil {
		a.LastLoginAt = &at
	}
	return nil
}

func (r *fakeAccountRepo) MarkChannelVerified(accountID int, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.byID[accountID]
	if a == nil {
		return nil
	}
	switch channel {
	case models.ChannelEmail:
		a.EmailVerified = true
	case models.ChannelPhone:
		a.PhoneVerified = true
	}
	return nil
}

func (r *fakeAccountRepo) UpdatePassword(accountID int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a := r.byID[accountID]; a != nil {
		a.PasswordHash = passwordHash
	}
	return nil
}

func (r *fakeAccountRepo) UpdateRefresh(accountID int, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a := r.byID[accountID]; a != nil {
		a.RefreshToken = &token
		a.RefreshExpiresAt = &expiresAt
		a.RefreshRevoked = false
	}
	return nil
}

func (r *fakeAccountRepo) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.RefreshToken != nil && *a.RefreshToken == oldToken && !a.RefreshRevoked {
			a.RefreshToken = &newToken
			a.RefreshExpiresAt = &newExpiresAt
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) ClearRefresh(accountID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a := r.byID[accountID]; a != nil {
		a.RefreshToken = nil
		a.RefreshExpiresAt = nil
		a.RefreshRevoked = true
	}
	return nil
}

func (r *fakeAccountRepo) GetByRefreshToken(token string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.RefreshToken != nil && *a.RefreshToken == token {
			return a, nil
		}
	}
	return nil, nil
}

// ===== one-time code repo =====

type fakeCodeRepo struct {
	mu     sync.Mutex
	nextID int64
	codes  []*models.OneTimeCode
}

func newFakeCodeRepo() *fakeCodeRepo { return &fakeCodeRepo{} }

func (r *fakeCodeRepo) Create(code *models.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	code.ID = r.nextID
	code.CreatedAt = time.Now()
	r.codes = append(r.codes, code)
	return nil
}

func (r *fakeCodeRepo) Consume(accountID int, channel, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.AccountID == accountID && c.Channel == channel && c.Code == code &&
			!c.Consumed && c.ExpiresAt.After(time.Now()) {
			c.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCodeRepo) CountRecentSends(accountID int, channel string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.codes {
		if c.AccountID == accountID && c.Channel == channel && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeCodeRepo) latest(accountID int, channel string) *models.OneTimeCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.OneTimeCode
	for _, c := range r.codes {
		if c.AccountID == accountID && c.Channel == channel {
			latest = c
		}
	}
	return latest
}

func (r *fakeCodeRepo) byChannel(accountID int, channel string) []*models.OneTimeCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OneTimeCode
	for _, c := range r.codes {
		if c.AccountID == accountID && c.Channel == channel {
			out = append(out, c)
		}
	}
	return out
}

// ===== password reset repo =====

type fakeResetRepo struct {
	mu       sync.Mutex
	nextID   int
	tokens   []*models.PasswordResetToken
	accounts *fakeAccountRepo
}

func newFakeResetRepo(accounts *fakeAccountRepo) *fakeResetRepo {
	return &fakeResetRepo{accounts: accounts}
}

func (r *fakeResetRepo) Create(accountID int, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.AccountID == accountID && t.UsedAt == nil && t.ExpiresAt.After(now) {
			t.ExpiresAt = now
		}
	}
	r.nextID++
	pr := &models.PasswordResetToken{
		ID:        r.nextID,
		AccountID: accountID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	r.tokens = append(r.tokens, pr)
	return pr, nil
}

func (r *fakeResetRepo) GetActiveByToken(token string) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token && t.UsedAt == nil && t.ExpiresAt.After(time.Now()) {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeResetRepo) ConsumeAndSetPassword(tokenID, accountID int, passwordHash string) (bool, error) {
	r.mu.Lock()
	for _, t := range r.tokens {
		if t.ID == tokenID {
			if t.UsedAt != nil || !t.ExpiresAt.After(time.Now()) {
				r.mu.Unlock()
				return false, nil
			}
			now := time.Now()
			t.UsedAt = &now
			r.mu.Unlock()
			return true, r.accounts.UpdatePassword(accountID, passwordHash)
		}
	}
	r.mu.Unlock()
	return false, nil
}

// ===== senders =====

type emailSend struct {
	To    string
	Value string // code or token
}

type fakeEmailSender struct {
	mu            sync.Mutex
	verifications []emailSend
	resets        []emailSend
	failSends     bool
}

func (s *fakeEmailSender) SendVerificationEmail(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSends {
		return errDeliveryDown
	}
	s.verifications = append(s.verifications, emailSend{To: email, Value: code})
	return nil
}

func (s *fakeEmailSender) SendPasswordResetEmail(email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSends {
		return errDeliveryDown
	}
	s.resets = append(s.resets, emailSend{To: email, Value: token})
	return nil
}

type smsSend struct {
	To   string
	Text string
}

type fakeSMSSender struct {
	mu        sync.Mutex
	sends     []smsSend
	failSends bool
}

func (s *fakeSMSSender) SendSMS(to, text string) (*utils.SendSMSResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSends {
		return nil, errDeliveryDown
	}
	s.sends = append(s.sends, smsSend{To: to, Text: text})
	return &utils.SendSMSResponse{Acknowledge: "success"}, nil
}
