package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

// IsFeePaid сообщает, есть ли запись PAID о взносе для аккаунта и сезона.
func (s *Storage) IsFeePaid(ctx context.Context, accountID, seasonID int64) (bool, error) {
	const op = "storage.IsFeePaid"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}
	var paid bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM season_fee_records
			WHERE account_id = $1 AND season_id = $2 AND payment_status = $3
		)`, accountID, seasonID, string(models.PaymentPaid)).Scan(&paid)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return paid, nil
}

// MarkFeePaid одним запросом делает upsert записи (account, season) в PAID с chargeRef,
// поэтому параллельные доставки сходятся к одной строке.
// changed сообщает, перевел ли этот вызов запись в PAID, вставив ее
// или изменив статус существующей записи. Запись, которая
// уже в PAID, не меняется.
func (s *Storage) MarkFeePaid(ctx context.Context, accountID, seasonID int64, chargeRef string) (changed bool, err error) {
	const op = "storage.MarkFeePaid"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}
	query := `INSERT INTO season_fee_records (account_id, season_id, payment_status, external_charge_ref, updated_at)
			  VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
			  ON CONFLICT (account_id, season_id) DO UPDATE
			  SET payment_status = EXCLUDED.payment_status,
			      external_charge_ref = COALESCE(EXCLUDED.external_charge_ref, season_fee_records.external_charge_ref),
			      updated_at = NOW()
			  WHERE season_fee_records.payment_status <> EXCLUDED.payment_status
			  RETURNING TRUE`
	err = s.DB.QueryRowContext(ctx, query, accountID, seasonID, string(models.PaymentPaid), chargeRef).Scan(&changed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return changed, nil
}

// GetFeeRecord возвращает запись о взносе для аккаунта и сезона.
func (s *Storage) GetFeeRecord(ctx context.Context, accountID, seasonID int64) (*models.SeasonFeeRecord, error) {
	const op = "storage.GetFeeRecord"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	var (
		rec    models.SeasonFeeRecord
		status string
		ref    sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, `SELECT id, account_id, season_id, payment_status, external_charge_ref, updated_at
		FROM season_fee_records WHERE account_id = $1 AND season_id = $2`, accountID, seasonID).
		Scan(&rec.ID, &rec.AccountID, &rec.SeasonID, &status, &ref, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.PaymentStatus = models.PaymentStatus(status)
	if ref.Valid {
		rec.ExternalChargeRef = &ref.String
	}
	return &rec, nil
}
