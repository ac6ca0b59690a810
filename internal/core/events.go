package core

import "time"

type LedgerEventKind string

const (
	EventPosted  LedgerEventKind = "transaction.posted"
	EventDeleted LedgerEventKind = "transaction.deleted"
)

// LedgerEvent is emitted after a balance-affecting change commits.
type LedgerEvent struct {
	Kind          LedgerEventKind `json:"kind"`
	TransactionID int64           `json:"transactionId"`
	OwnerID       int64           `json:"ownerId"`
	AccountID     int64           `json:"accountId"`
	AccountName   string          `json:"accountName"`
	CategoryName  string          `json:"categoryName,omitempty"`
	Type          TransactionType `json:"type"`
	AmountCents   int64           `json:"amountCents"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// NewLedgerEvent builds the event for tx.
func NewLedgerEvent(kind LedgerEventKind, tx Transaction, now time.Time) LedgerEvent {
	ev := LedgerEvent{
		Kind:          kind,
		TransactionID: tx.ID,
		OwnerID:       tx.OwnerID,
		AccountID:     tx.AccountID,
		AccountName:   tx.Account.Name,
		Type:          tx.Type,
		AmountCents:   tx.Amount.Cents,
		Date:          tx.Date,
		Description:   tx.Description,
		OccurredAt:    now,
	}
	if tx.Category != nil {
		ev.CategoryName = tx.Category.Name
	}
	return ev
}

// Signed returns the balance effect this event represents.
func (e LedgerEvent) Signed() Money {
	m := e.Type.Signed(Money{Cents: e.AmountCents})
	if e.Kind == EventDeleted {
		return m.Neg()
	}
	return m
}
