package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"legalaid/internal/models"
)

// ErrDuplicateKey — unique-constraint violation on email/phone/username.
var ErrDuplicateKey = errors.New("duplicate key")

type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id int) (*models.Account, error)
	// GetByIdentifier matches email, phone or username; nil when no match.
	GetByIdentifier(identifier string) (*models.Account, error)
	GetCount() (int, error)

	UpdateLastLogin(accountID int, at time.Time) error
	MarkChannelVerified(accountID int, channel string) error
	UpdatePassword(accountID int, passwordHash string) error

	// refresh helpers
	UpdateRefresh(accountID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.Account, error)
	ClearRefresh(accountID int) error
	GetByRefreshToken(token string) (*models.Account, error)
}

type accountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{DB: db}
}

const accountColumns = `
	id, full_name, email, phone, username, password_hash, role_id,
	email_verified, phone_verified,
	created_at, last_login_at,
	refresh_token, refresh_expires_at, refresh_revoked
`

func (r *accountRepository) Create(account *models.Account) error {
	const q = `
		INSERT INTO accounts (
			full_name, email, phone, username, password_hash, role_id,
			email_verified, phone_verified,
			refresh_token, refresh_expires_at, refresh_revoked
		)
		VALUES ($1,$2,$3,$4,$5,$6,FALSE,FALSE,NULL,NULL,FALSE)
		RETURNING id, created_at
	`
	var username sql.NullString
	if account.Username != nil && *account.Username != "" {
		username = sql.NullString{String: *account.Username, Valid: true}
	}
	err := r.DB.QueryRow(q,
		account.FullName,
		account.Email,
		account.Phone,
		username,
		account.PasswordHash,
		account.RoleID,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var (
		username  sql.NullString
		lastLogin sql.NullTime
		rt        sql.NullString
		rte       sql.NullTime
		rr        sql.NullBool
	)
	err := row.Scan(
		&a.ID, &a.FullName, &a.Email, &a.Phone, &username, &a.PasswordHash, &a.RoleID,
		&a.EmailVerified, &a.PhoneVerified,
		&a.CreatedAt, &lastLogin,
		&rt, &rte, &rr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if username.Valid {
		s := username.String
		a.Username = &s
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	if rt.Valid {
		s := rt.String
		a.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		a.RefreshExpiresAt = &t
	}
	if rr.Valid {
		a.RefreshRevoked = rr.Bool
	}
	return a, nil
}

func (r *accountRepository) GetByID(id int) (*models.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.DB.QueryRow(q, id))
}

func (r *accountRepository) GetByIdentifier(identifier string) (*models.Account, error) {
	const q = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = LOWER($1) OR phone = $1 OR username = $1
		LIMIT 1
	`
	return scanAccount(r.DB.QueryRow(q, identifier))
}

func (r *accountRepository) GetCount() (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&c)
	return c, err
}

func (r *accountRepository) UpdateLastLogin(accountID int, at time.Time) error {
	_, err := r.DB.Exec(`UPDATE accounts SET last_login_at=$1 WHERE id=$2`, at, accountID)
	return err
}

func (r *accountRepository) MarkChannelVerified(accountID int, channel string) error {
	var q string
	switch channel {
	case models.ChannelEmail:
		q = `UPDATE accounts SET email_verified=TRUE WHERE id=$1`
	case models.ChannelPhone:
		q = `UPDATE accounts SET phone_verified=TRUE WHERE id=$1`
	default:
		return errors.New("unknown channel: " + channel)
	}
	_, err := r.DB.Exec(q, accountID)
	return err
}

func (r *accountRepository) UpdatePassword(accountID int, passwordHash string) error {
	_, err := r.DB.Exec(`UPDATE accounts SET password_hash=$1 WHERE id=$2`, passwordHash, accountID)
	return err
}

// ===== refresh helpers =====

func (r *accountRepository) UpdateRefresh(accountID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE accounts
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.DB.Exec(q, token, expiresAt, accountID)
	return err
}

func (r *accountRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.Account, error) {
	const q = `
		UPDATE accounts
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE refresh_token=$3 AND NOT refresh_revoked
		RETURNING ` + accountColumns
	return scanAccount(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
}

func (r *accountRepository) ClearRefresh(accountID int) error {
	_, err := r.DB.Exec(`
		UPDATE accounts
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`, accountID)
	return err
}

func (r *accountRepository) GetByRefreshToken(token string) (*models.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE refresh_token = $1`
	return scanAccount(r.DB.QueryRow(q, token))
}
