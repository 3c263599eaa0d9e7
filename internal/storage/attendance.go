package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

// OpenAttendance регистрирует приход за day в момент entry. Если задан consumeSession
// и аккаунт в этот день еще не тратил посещение, одно посещение
// списывается со старейшей карты ACTIVE, которая при нуле становится USED_UP.
// Строка аккаунта блокируется, поэтому параллельные отметки выполняются по очереди.
func (s *Storage) OpenAttendance(ctx context.Context, accountID int64, day, entry time.Time, consumeSession bool) (*models.AttendanceRecord, error) {
	const op = "storage.OpenAttendance"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	dayArg := day.Format(dateArg)
	rec := models.AttendanceRecord{AccountID: accountID, EntryTime: entry}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var open, consumedToday bool
		err = tx.QueryRowContext(ctx, `SELECT
				COALESCE(BOOL_OR(exit_time IS NULL), FALSE),
				COALESCE(BOOL_OR(daily_session_consumed), FALSE)
			FROM attendance_records WHERE account_id = $1 AND date_of_play = $2::date`,
			accountID, dayArg).Scan(&open, &consumedToday)
		if err != nil {
			return err
		}
		if open {
			return ErrAlreadyCheckedIn
		}

		if consumeSession && !consumedToday {
			var cardID int64
			err = tx.QueryRowContext(ctx, `SELECT id FROM social_cards
				WHERE account_id = $1 AND status = $2 AND sessions_remaining > 0
				ORDER BY purchase_date, id
				LIMIT 1
				FOR UPDATE`, accountID, string(models.SocialCardActive)).Scan(&cardID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNoActiveSocialCard
			}
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `UPDATE social_cards
				SET sessions_remaining = sessions_remaining - 1,
				    status = CASE WHEN sessions_remaining - 1 = 0 THEN $2 ELSE status END
				WHERE id = $1`, cardID, string(models.SocialCardUsedUp))
			if err != nil {
				return err
			}
			rec.DailySessionConsumed = true
		}

		return tx.QueryRowContext(ctx, `INSERT INTO attendance_records
				(account_id, date_of_play, entry_time, daily_session_consumed)
			VALUES ($1, $2::date, $3, $4)
			RETURNING id, date_of_play`,
			accountID, dayArg, entry, rec.DailySessionConsumed).Scan(&rec.ID, &rec.DateOfPlay)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyCheckedIn)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// CloseAttendance проставляет exit в открытой записи аккаунта за day.
func (s *Storage) CloseAttendance(ctx context.Context, accountID int64, day, exit time.Time) (*models.AttendanceRecord, error) {
	const op = "storage.CloseAttendance"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	var rec models.AttendanceRecord
	var exitTime sql.NullTime
	err := s.DB.QueryRowContext(ctx, `UPDATE attendance_records SET exit_time = $3
		WHERE account_id = $1 AND date_of_play = $2::date AND exit_time IS NULL
		RETURNING id, account_id, date_of_play, entry_time, exit_time, daily_session_consumed`,
		accountID, day.Format(dateArg), exit).
		Scan(&rec.ID, &rec.AccountID, &rec.DateOfPlay, &rec.EntryTime, &exitTime, &rec.DailySessionConsumed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exitTime.Valid {
		rec.ExitTime = &exitTime.Time
	}
	return &rec, nil
}

// CloseOpenAttendance проставляет exit всем записям day без времени ухода
// и возвращает число обновленных. Закрытые записи не меняются,
// поэтому повторный запуск ничего не обновляет.
func (s *Storage) CloseOpenAttendance(ctx context.Context, day, exit time.Time) (int64, error) {
	const op = "storage.CloseOpenAttendance"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE attendance_records SET exit_time = $1
		WHERE date_of_play = $2::date AND exit_time IS NULL`, exit, day.Format(dateArg))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
