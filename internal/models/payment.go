package models

// PaymentType является тегом, который прикрепляется к каждому платежному намерению
// и читается обратно, когда шлюз сообщает результат.
type PaymentType string

// Типы платежей, которые принимает оркестратор намерений.
const (
	PaymentTypeFixtureFee         PaymentType = "fixture_fee"
	PaymentTypeSocialCardPurchase PaymentType = "social_card_purchase"
)

// Ключи metadata платежных намерений.
const (
	MetadataPaymentType = "payment_type"
	MetadataAccountID   = "account_id"
	MetadataSeasonID    = "season_id"
)

// IntentRequest описывает, что оркестратор просит создать шлюз.
type IntentRequest struct {
	Amount       Money
	Currency     string
	Description  string
	ReceiptEmail string
	Metadata     map[string]string
}

// PaymentIntent является ответом шлюза на IntentRequest.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentEvent является проверенным событием вебхука, сокращенным до полей для сверки.
type PaymentEvent struct {
	ID           string
	Type         string
	IntentID     string
	ChargeID     string
	Amount       Money
	Currency     string
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

// PaymentNotification публикуется после сверки платежного события
// (или неудачного сопоставления), чтобы уведомить участников и администраторов клуба.
type PaymentNotification struct {
	Kind        string      `json:"kind"`
	EventID     string      `json:"event_id"`
	IntentID    string      `json:"intent_id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name,omitempty"`
	PaymentType PaymentType `json:"payment_type,omitempty"`
	SeasonName  string      `json:"season_name,omitempty"`
	Amount      string      `json:"amount"`
	Currency    string      `json:"currency"`
	Reason      string      `json:"reason,omitempty"`
}

// Виды уведомлений.
const (
	NotificationFeePaid          = "fixture_fee_paid"
	NotificationSocialCardIssued = "social_card_issued"
	NotificationUnmatched        = "unmatched_payment"
)
