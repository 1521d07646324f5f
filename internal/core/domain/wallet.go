package domain

import (
	"fmt"
	"time"
)

// TransactionType classifies wallet ledger entries.
type TransactionType string

const (
	TxReserve TransactionType = "reserve"
	TxDebit   TransactionType = "debit"
	TxCredit  TransactionType = "credit"
)

// Transaction is one immutable line in a wallet's ledger.
type Transaction struct {
	ID         string
	WalletID   int64
	OccurredAt time.Time
	Title      string
	Amount     Money
	Type       TransactionType
}

// Wallet holds a dealer's balances. ReserveBalance is the portion of
// TotalBalance earmarked for active campaigns but not yet spent, so
// 0 <= ReserveBalance <= TotalBalance must hold after every operation.
// SpentBalance only ever increases, via click debits.
type Wallet struct {
	ID             int64
	DealerID       int64
	TotalBalance   Money
	ReserveBalance Money
	SpentBalance   Money
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Available is the portion of the total balance not reserved for campaigns.
func (w *Wallet) Available() Money {
	return w.TotalBalance - w.ReserveBalance
}

// Reserve earmarks amount out of the available balance. The caller is
// expected to have checked affordability; Reserve re-validates and fails
// rather than break the reserve <= total invariant.
func (w *Wallet) Reserve(amount Money) error {
	if amount <= 0 {
		return fmt.Errorf("reserve amount must be positive, got %s", amount)
	}
	if w.Available() < amount {
		return fmt.Errorf("reserve %s exceeds available balance %s", amount, w.Available())
	}
	w.ReserveBalance += amount
	return nil
}

// Debit spends amount out of the reserved funds: total and reserve shrink
// together, spent grows by the same amount.
func (w *Wallet) Debit(amount Money) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %s", amount)
	}
	if w.ReserveBalance < amount {
		return fmt.Errorf("debit %s exceeds reserved balance %s", amount, w.ReserveBalance)
	}
	w.TotalBalance -= amount
	w.ReserveBalance -= amount
	w.SpentBalance += amount
	return nil
}

// Release returns unspent reserved funds to the available balance. Amounts
// larger than the current reservation are floored at the reservation, so a
// release can never drive the reserve negative.
func (w *Wallet) Release(amount Money) Money {
	if amount <= 0 {
		return 0
	}
	if amount > w.ReserveBalance {
		amount = w.ReserveBalance
	}
	w.ReserveBalance -= amount
	return amount
}
