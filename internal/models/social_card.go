package models

import (
	"time"

	"github.com/google/uuid"
)

// SocialCardStatus задает состояние жизненного цикла SocialCard.
type SocialCardStatus string

// Состояния социальной карты.
const (
	SocialCardActive  SocialCardStatus = "ACTIVE"
	SocialCardUsedUp  SocialCardStatus = "USED_UP"
	SocialCardExpired SocialCardStatus = "EXPIRED"
)

// DefaultSocialCardSessions задает число посещений на купленной карте.
const DefaultSocialCardSessions = 10

// SocialCard является предоплаченным абонементом на несколько посещений одного Account.
type SocialCard struct {
	ID                int64
	AccountID         int64
	CardID            uuid.UUID
	SessionsTotal     int
	SessionsRemaining int
	Status            SocialCardStatus
	PaymentIntentID   *string
	CreatedAt         time.Time
}

// NewSocialCard возвращает карту ACTIVE с числом посещений по умолчанию.
func NewSocialCard(accountID int64, paymentIntentID string) SocialCard {
	card := SocialCard{
		AccountID:         accountID,
		CardID:            uuid.New(),
		SessionsTotal:     DefaultSocialCardSessions,
		SessionsRemaining: DefaultSocialCardSessions,
		Status:            SocialCardActive,
	}
	if paymentIntentID != "" {
		card.PaymentIntentID = &paymentIntentID
	}
	return card
}
