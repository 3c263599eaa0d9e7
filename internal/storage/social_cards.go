package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

// IssueSocialCard сохраняет card и повышает владельца GENERIC_USER до
// SOCIAL_CARD_HOLDER в одной транзакции. Карта, уже выпущенная по тому же
// платежному намерению, не меняется, и issued равен false.
func (s *Storage) IssueSocialCard(ctx context.Context, card models.SocialCard) (issued bool, err error) {
	const op = "storage.IssueSocialCard"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO social_cards
				(account_id, card_id, sessions_total, sessions_remaining, status, payment_intent_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (payment_intent_id) DO NOTHING
			RETURNING id`,
			card.AccountID, card.CardID, card.SessionsTotal, card.SessionsRemaining,
			string(card.Status), card.PaymentIntentID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		issued = true

		_, err = tx.ExecContext(ctx, `UPDATE accounts SET membership_type = $1
			WHERE id = $2 AND membership_type = $3`,
			string(models.SocialCardHolder), card.AccountID, string(models.GenericUser))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return issued, nil
}

// ListSocialCards возвращает карты аккаунта, начиная со старейшей.
func (s *Storage) ListSocialCards(ctx context.Context, accountID int64) ([]models.SocialCard, error) {
	const op = "storage.ListSocialCards"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT id, account_id, card_id, sessions_total, sessions_remaining,
			status, payment_intent_id, purchase_date
		FROM social_cards WHERE account_id = $1 ORDER BY purchase_date, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var cards []models.SocialCard
	for rows.Next() {
		var (
			c      models.SocialCard
			status string
			intent sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.AccountID, &c.CardID, &c.SessionsTotal, &c.SessionsRemaining,
			&status, &intent, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.Status = models.SocialCardStatus(status)
		if intent.Valid {
			c.PaymentIntentID = &intent.String
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cards, nil
}
