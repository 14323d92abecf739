package models

import "time"

// TransactionType is the kind of ledger entry.
type TransactionType string

const (
	TransactionTopUp      TransactionType = "top-up"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTip        TransactionType = "tip"
)

// Transaction is an append-only ledger row. Amounts are positive integer
// cents. For top-ups and withdrawals FromUser == ToUser.
type Transaction struct {
	ID       string          `json:"id"`
	FromUser string          `json:"fromUser"`
	ToUser   string          `json:"toUser"`
	Amount   int64           `json:"amount"`
	Type     TransactionType `json:"type"`
	Date     time.Time       `json:"date"`
}

// Involves reports whether userID participates in the transaction.
func (t *Transaction) Involves(userID string) bool {
	return t.FromUser == userID || t.ToUser == userID
}
