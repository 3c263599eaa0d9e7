package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

// emailIndex является уникальным индексом accounts.email без учета регистра.
const emailIndex = "idx_accounts_email_lower"

const accountColumns = `id, email, password_hash, first_name, last_name, phone, dob,
	membership_type, is_active_annual_member, annual_membership_expiry_date,
	billing_customer_id, is_active, is_staff, created_at`

// CreateAccount добавляет новый аккаунт и возвращает его id.
// ErrEmailTaken возвращается, если email уже зарегистрирован в любом регистре.
func (s *Storage) CreateAccount(ctx context.Context, a models.Account) (int64, error) {
	const op = "storage.CreateAccount"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	if a.MembershipType == "" {
		a.MembershipType = models.GenericUser
	}

	query := `INSERT INTO accounts (email, password_hash, first_name, last_name, phone, dob,
			      membership_type, is_active_annual_member, annual_membership_expiry_date,
			      billing_customer_id, is_active, is_staff)
			  VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9::date, $10, TRUE, $11)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, optionalDate(a.DOB),
		string(a.MembershipType), a.IsActiveAnnualMember, optionalDate(a.AnnualMembershipExpiryDate),
		a.BillingCustomerID, a.IsStaff).Scan(&id)
	if err != nil {
		if isUniqueViolationOf(err, emailIndex) {
			return 0, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetAccountByEmail ищет аккаунт по email без учета регистра.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// GetAccountByID возвращает аккаунт по id.
func (s *Storage) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	const op = "storage.GetAccountByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// UpdateMembership задает уровень и поля годового членства аккаунта.
func (s *Storage) UpdateMembership(ctx context.Context, id int64, tier models.MembershipType, annualExpiry *time.Time) error {
	const op = "storage.UpdateMembership"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE accounts
		SET membership_type = $1,
		    is_active_annual_member = $2,
		    annual_membership_expiry_date = $3::date
		WHERE id = $4`,
		string(tier), annualExpiry != nil, optionalDate(annualExpiry), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		a          models.Account
		tier       string
		dob        sql.NullTime
		expiry     sql.NullTime
		customerID sql.NullString
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Phone, &dob,
		&tier, &a.IsActiveAnnualMember, &expiry, &customerID, &a.IsActive, &a.IsStaff, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.MembershipType = models.MembershipType(tier)
	if dob.Valid {
		a.DOB = &dob.Time
	}
	if expiry.Valid {
		a.AnnualMembershipExpiryDate = &expiry.Time
	}
	if customerID.Valid {
		a.BillingCustomerID = &customerID.String
	}
	return &a, nil
}

func optionalDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateArg)
}
