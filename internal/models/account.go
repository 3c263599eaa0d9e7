// Package models содержит доменные типы, общие для слоев хранилища, сервисов
// и HTTP: аккаунты клуба, социальные карты, сезоны, записи о взносах
// и записи посещаемости.
package models

import "time"

// MembershipType задает уровень членства Account.
type MembershipType string

// Уровни членства.
const (
	GenericUser      MembershipType = "GENERIC_USER"
	SocialCardHolder MembershipType = "SOCIAL_CARD_HOLDER"
	GoldAnnual       MembershipType = "GOLD_ANNUAL"
	SilverAnnual     MembershipType = "SILVER_ANNUAL"
)

// Valid сообщает, является ли t одним из известных уровней.
func (t MembershipType) Valid() bool {
	switch t {
	case GenericUser, SocialCardHolder, GoldAnnual, SilverAnnual:
		return true
	}
	return false
}

// Account представляет зарегистрированного участника клуба.
type Account struct {
	ID                         int64
	Email                      string
	PasswordHash               string
	FirstName                  string
	LastName                   string
	Phone                      string
	DOB                        *time.Time
	MembershipType             MembershipType
	IsActiveAnnualMember       bool
	AnnualMembershipExpiryDate *time.Time
	BillingCustomerID          *string
	IsActive                   bool
	IsStaff                    bool
	CreatedAt                  time.Time
}

// AccountView является публичным представлением Account, которое возвращает API.
type AccountView struct {
	ID                         int64          `json:"id"`
	FirstName                  string         `json:"first_name"`
	LastName                   string         `json:"last_name"`
	Email                      string         `json:"email"`
	Phone                      string         `json:"phone"`
	DOB                        *string        `json:"dob"`
	MembershipType             MembershipType `json:"membership_type"`
	IsActiveAnnualMember       bool           `json:"is_active_annual_member"`
	AnnualMembershipExpiryDate *string        `json:"annual_membership_expiry_date"`
}

// View переводит аккаунт в представление для API.
func (a *Account) View() AccountView {
	return AccountView{
		ID:                         a.ID,
		FirstName:                  a.FirstName,
		LastName:                   a.LastName,
		Email:                      a.Email,
		Phone:                      a.Phone,
		DOB:                        formatOptionalDate(a.DOB),
		MembershipType:             a.MembershipType,
		IsActiveAnnualMember:       a.IsActiveAnnualMember,
		AnnualMembershipExpiryDate: formatOptionalDate(a.AnnualMembershipExpiryDate),
	}
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
