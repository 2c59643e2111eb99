package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"legalaid/internal/authz"
	"legalaid/internal/middleware"
	"legalaid/internal/models"
	"legalaid/internal/repositories"
	"legalaid/internal/utils"
)

var (
	// ErrDuplicateIdentifier — email, phone or username already registered.
	ErrDuplicateIdentifier = errors.New("identifier already in use")
	// ErrInvalidCredentials covers both unknown identifier and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken — unknown, revoked or expired refresh token.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const (
	bcryptCost      = 10
	sessionTokenTTL = 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// SessionTokens — signed session JWT plus the opaque refresh token stored in DB.
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService interface {
	Register(req models.RegisterRequest) (*models.Account, *SessionTokens, error)
	Login(identifier, password string) (*models.Account, *SessionTokens, error)
	Refresh(refreshToken string) (*models.Account, *SessionTokens, error)
	Logout(accountID int) error
	HashPassword(plain string) (string, error)
}

type authService struct {
	accounts     repositories.AccountRepository
	verification VerificationService
	jwtKey       []byte
}

func NewAuthService(accounts repositories.AccountRepository, verification VerificationService, jwtKey []byte) AuthService {
	return &authService{
		accounts:     accounts,
		verification: verification,
		jwtKey:       jwtKey,
	}
}

func (s *authService) HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *authService) Register(req models.RegisterRequest) (*models.Account, *SessionTokens, error) {
	hash, err := s.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return nil, nil, err
	}

	account := &models.Account{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		RoleID:       authz.RoleClient, // public registration is always a client
	}
	if u := strings.TrimSpace(req.Username); u != "" {
		account.Username = &u
	}

	if err := s.accounts.Create(account); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, nil, ErrDuplicateIdentifier
		}
		return nil, nil, err
	}
	log.Printf("[auth][register] account created id=%d", account.ID)

	// one code per channel; delivery is best-effort and never rolls back
	if err := s.verification.IssueRegistrationCodes(account); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueSession(account)
	if err != nil {
		return nil, nil, err
	}
	return account, tokens, nil
}

func (s *authService) Login(identifier, password string) (*models.Account, *SessionTokens, error) {
	identifier = strings.TrimSpace(identifier)
	account, err := s.accounts.GetByIdentifier(identifier)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrInvalidCredentials
	}

	ph := strings.TrimSpace(account.PasswordHash)
	if ph == "" {
		log.Printf("[auth][login] empty password_hash for accountID=%d", account.ID)
		return nil, nil, ErrInvalidCredentials
	}
	// bcrypt comparison is constant-time
	if err := bcrypt.CompareHashAndPassword([]byte(ph), []byte(strings.TrimSpace(password))); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.accounts.UpdateLastLogin(account.ID, now); err != nil {
		return nil, nil, err
	}
	account.LastLoginAt = &now

	tokens, err := s.issueSession(account)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[auth][login] success accountID=%d role=%d", account.ID, account.RoleID)
	return account, tokens, nil
}

func (s *authService) Refresh(refreshToken string) (*models.Account, *SessionTokens, error) {
	old := strings.TrimSpace(refreshToken)
	account, err := s.accounts.GetByRefreshToken(old)
	if err != nil {
		return nil, nil, err
	}
	if account == nil || account.RefreshToken == nil || account.RefreshExpiresAt == nil || account.RefreshRevoked {
		return nil, nil, ErrInvalidRefreshToken
	}
	if time.Now().After(*account.RefreshExpiresAt) {
		return nil, nil, ErrInvalidRefreshToken
	}

	newRT, err := utils.NewOpaqueToken(32)
	if err != nil {
		return nil, nil, err
	}
	rotated, err := s.accounts.RotateRefresh(old, newRT, time.Now().Add(refreshTokenTTL))
	if err != nil {
		return nil, nil, err
	}
	if rotated == nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	access, err := s.signAccessToken(rotated)
	if err != nil {
		return nil, nil, err
	}
	return rotated, &SessionTokens{AccessToken: access, RefreshToken: newRT}, nil
}

func (s *authService) Logout(accountID int) error {
	return s.accounts.ClearRefresh(accountID)
}

func (s *authService) signAccessToken(account *models.Account) (string, error) {
	claims := &middleware.Claims{
		AccountID: account.ID,
		RoleID:    account.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

func (s *authService) issueSession(account *models.Account) (*SessionTokens, error) {
	access, err := s.signAccessToken(account)
	if err != nil {
		return nil, err
	}

	rt, err := utils.NewOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateRefresh(account.ID, rt, time.Now().Add(refreshTokenTTL)); err != nil {
		return nil, err
	}

	return &SessionTokens{AccessToken: access, RefreshToken: rt}, nil
}
