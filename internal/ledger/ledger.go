// Package ledger implements the exchange-wide monetary ledger: user
// accounts, balances, and each user's bet index. It is deliberately not
// safe for concurrent use from multiple goroutines — it lives exclusively
// inside the exchange supervisor's single goroutine (see internal/exchange).
package ledger

import "github.com/Chaman-veteran/betunfair/internal/model"

type account struct {
	name    string
	balance int64
	bets    []model.BetId // newest last; reversed on read
}

// Ledger holds every user account for one exchange.
type Ledger struct {
	users map[model.UserId]*account
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{users: make(map[model.UserId]*account)}
}

// Create registers a new user with a zero balance.
func (l *Ledger) Create(id model.UserId, name string) error {
	if _, ok := l.users[id]; ok {
		return model.ErrDuplicateId
	}
	l.users[id] = &account{name: name}
	return nil
}

// Deposit credits amount (strictly positive) to the user's balance.
func (l *Ledger) Deposit(id model.UserId, amount int64) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	a, ok := l.users[id]
	if !ok {
		return model.ErrNotFound
	}
	a.balance += amount
	return nil
}

// Withdraw debits amount (strictly positive, no overdraft) from the user's
// balance.
func (l *Ledger) Withdraw(id model.UserId, amount int64) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	a, ok := l.users[id]
	if !ok {
		return model.ErrNotFound
	}
	if amount > a.balance {
		return model.ErrInvalidAmount
	}
	a.balance -= amount
	return nil
}

// Get returns the public view of a user's account.
func (l *Ledger) Get(id model.UserId) (model.UserInfo, error) {
	a, ok := l.users[id]
	if !ok {
		return model.UserInfo{}, model.ErrNotFound
	}
	return model.UserInfo{Id: id, Name: a.name, Balance: a.balance}, nil
}

// Bets returns the user's bet ids, most recently placed first.
func (l *Ledger) Bets(id model.UserId) ([]model.BetId, error) {
	a, ok := l.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := make([]model.BetId, len(a.bets))
	for i, b := range a.bets {
		out[len(a.bets)-1-i] = b
	}
	return out, nil
}

// AppendBet records a newly placed bet against its owner's index. Called by
// the supervisor once placement has been accepted by the market engine.
func (l *Ledger) AppendBet(id model.UserId, bet model.BetId) error {
	a, ok := l.users[id]
	if !ok {
		return model.ErrNotFound
	}
	a.bets = append(a.bets, bet)
	return nil
}

// Reset discards every account. Used by the exchange's clean() operation.
func (l *Ledger) Reset() {
	l.users = make(map[model.UserId]*account)
}

// Snapshot is the persisted shape of one user account (see internal/persist).
type Snapshot struct {
	Name    string        `json:"name"`
	Balance int64         `json:"balance"`
	Bets    []model.BetId `json:"bets"`
}

// Export returns every account keyed by user id, in persisted shape.
func (l *Ledger) Export() map[model.UserId]Snapshot {
	out := make(map[model.UserId]Snapshot, len(l.users))
	for id, a := range l.users {
		bets := make([]model.BetId, len(a.bets))
		copy(bets, a.bets)
		out[id] = Snapshot{Name: a.name, Balance: a.balance, Bets: bets}
	}
	return out
}

// Restore replaces the ledger's contents with a previously exported snapshot.
func (l *Ledger) Restore(accounts map[model.UserId]Snapshot) {
	l.users = make(map[model.UserId]*account, len(accounts))
	for id, s := range accounts {
		bets := make([]model.BetId, len(s.Bets))
		copy(bets, s.Bets)
		l.users[id] = &account{name: s.Name, balance: s.Balance, bets: bets}
	}
}
