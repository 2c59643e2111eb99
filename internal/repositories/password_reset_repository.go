package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"legalaid/internal/models"
)

type PasswordResetRepository interface {
	// Create expires any still-active token for the account before inserting,
	// so at most one token is actionable at a time.
	Create(accountID int, token string, expiresAt time.Time) (*models.PasswordResetToken, error)
	GetActiveByToken(token string) (*models.PasswordResetToken, error)
	// ConsumeAndSetPassword marks the token used and updates the account's
	// password hash in one transaction. Returns false when the token was
	// already used or expired by the time the transaction ran.
	ConsumeAndSetPassword(tokenID, accountID int, passwordHash string) (bool, error)
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Create(accountID int, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE password_reset_tokens
		SET expires_at = NOW()
		WHERE account_id = $1 AND used_at IS NULL AND expires_at > NOW()
	`, accountID); err != nil {
		return nil, fmt.Errorf("password_reset expire previous: %w", err)
	}

	pr := &models.PasswordResetToken{AccountID: accountID, Token: token, ExpiresAt: expiresAt}
	if err := tx.QueryRow(`
		INSERT INTO password_reset_tokens (account_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, accountID, token, expiresAt).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		return nil, fmt.Errorf("password_reset create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *passwordResetRepository) GetActiveByToken(token string) (*models.PasswordResetToken, error) {
	const q = `
		SELECT id, account_id, token, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token = $1 AND used_at IS NULL AND expires_at > NOW()
	`
	pr := &models.PasswordResetToken{}
	var usedAt sql.NullTime
	err := r.DB.QueryRow(q, token).
		Scan(&pr.ID, &pr.AccountID, &pr.Token, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("password_reset get active: %w", err)
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return pr, nil
}

func (r *passwordResetRepository) ConsumeAndSetPassword(tokenID, accountID int, passwordHash string) (bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE password_reset_tokens
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL AND expires_at > NOW()
	`, tokenID)
	if err != nil {
		return false, fmt.Errorf("password_reset mark used: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		// raced with another consume or with expiry; nothing changed
		return false, nil
	}

	if _, err := tx.Exec(`UPDATE accounts SET password_hash=$1 WHERE id=$2`, passwordHash, accountID); err != nil {
		return false, fmt.Errorf("password_reset set password: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
