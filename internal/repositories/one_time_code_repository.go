package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"legalaid/internal/models"
)

type OneTimeCodeRepository interface {
	Create(code *models.OneTimeCode) error
	// Consume atomically marks the first matching unconsumed, unexpired code.
	// Returns false when the code is wrong, expired or already consumed —
	// the three cases are indistinguishable on purpose.
	Consume(accountID int, channel, code string) (bool, error)
	CountRecentSends(accountID int, channel string, since time.Time) (int, error)
}

type oneTimeCodeRepository struct {
	DB *sql.DB
}

func NewOneTimeCodeRepository(db *sql.DB) OneTimeCodeRepository {
	return &oneTimeCodeRepository{DB: db}
}

func (r *oneTimeCodeRepository) Create(code *models.OneTimeCode) error {
	const q = `
		INSERT INTO one_time_codes (account_id, channel, code, consumed, expires_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q, code.AccountID, code.Channel, code.Code, code.ExpiresAt).
		Scan(&code.ID, &code.CreatedAt); err != nil {
		return fmt.Errorf("one_time_code create: %w", err)
	}
	return nil
}

func (r *oneTimeCodeRepository) Consume(accountID int, channel, code string) (bool, error) {
	// Single statement so concurrent double-submits serialize on the row:
	// exactly one caller sees rows=1.
	const q = `
		UPDATE one_time_codes
		SET consumed = TRUE
		WHERE account_id = $1 AND channel = $2 AND code = $3
		  AND NOT consumed AND expires_at > NOW()
	`
	res, err := r.DB.Exec(q, accountID, channel, code)
	if err != nil {
		return false, fmt.Errorf("one_time_code consume: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CountRecentSends — issues in the last window (for resend throttling).
func (r *oneTimeCodeRepository) CountRecentSends(accountID int, channel string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM one_time_codes
		WHERE account_id = $1 AND channel = $2 AND created_at >= $3
	`
	var c int
	if err := r.DB.QueryRow(q, accountID, channel, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("one_time_code count recent: %w", err)
	}
	return c, nil
}

