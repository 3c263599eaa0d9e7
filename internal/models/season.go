package models

import "time"

// Season задает диапазон дат и связанный с ним взнос за матчи.
// StartDate и EndDate являются календарными датами включительно.
type Season struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	FixtureFeeAmount  Money     `json:"fixture_fee_amount"`
	FixtureFeeDueDate time.Time `json:"fixture_fee_due_date"`
}

// Contains сообщает, попадает ли day в диапазон дат сезона.
func (s *Season) Contains(day time.Time) bool {
	d := day.Format(DateLayout)
	return d >= s.StartDate.Format(DateLayout) && d <= s.EndDate.Format(DateLayout)
}

// PaymentStatus задает состояние SeasonFeeRecord.
type PaymentStatus string

// Состояния записи о взносе.
const (
	PaymentPaid       PaymentStatus = "PAID"
	PaymentPending    PaymentStatus = "PENDING"
	PaymentWaivedGold PaymentStatus = "WAIVED_GOLD"
)

// SeasonFeeRecord хранит статус оплаты одного Account за один Season.
type SeasonFeeRecord struct {
	ID                int64
	AccountID         int64
	SeasonID          int64
	PaymentStatus     PaymentStatus
	ExternalChargeRef *string
	UpdatedAt         time.Time
}
