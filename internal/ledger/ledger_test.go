package ledger

import (
	"testing"

	"github.com/Chaman-veteran/betunfair/internal/model"
)

func TestCreateDuplicateRejected(t *testing.T) {
	l := New()
	if err := l.Create("u1", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Create("u1", "alice2"); err != model.ErrDuplicateId {
		t.Fatalf("want ErrDuplicateId, got %v", err)
	}
}

func TestDepositRequiresPositiveAmount(t *testing.T) {
	l := New()
	l.Create("u1", "alice")
	if err := l.Deposit("u1", 0); err != model.ErrInvalidAmount {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if err := l.Deposit("u1", -5); err != model.ErrInvalidAmount {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if err := l.Deposit("u1", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, _ := l.Get("u1")
	if info.Balance != 100 {
		t.Fatalf("want balance 100, got %d", info.Balance)
	}
}

func TestWithdrawRejectsOverdraft(t *testing.T) {
	l := New()
	l.Create("u1", "alice")
	l.Deposit("u1", 50)
	if err := l.Withdraw("u1", 51); err != model.ErrInvalidAmount {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if err := l.Withdraw("u1", 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, _ := l.Get("u1")
	if info.Balance != 0 {
		t.Fatalf("want balance 0, got %d", info.Balance)
	}
}

func TestUnknownUserOperationsNotFound(t *testing.T) {
	l := New()
	if _, err := l.Get("ghost"); err != model.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := l.Deposit("ghost", 10); err != model.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := l.Bets("ghost"); err != model.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestBetsNewestFirst(t *testing.T) {
	l := New()
	l.Create("u1", "alice")
	b1 := model.BetId{User: "u1", Market: "m1", Counter: 1}
	b2 := model.BetId{User: "u1", Market: "m1", Counter: 2}
	l.AppendBet("u1", b1)
	l.AppendBet("u1", b2)

	got, err := l.Bets("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != b2 || got[1] != b1 {
		t.Fatalf("want [b2,b1], got %v", got)
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	l := New()
	l.Create("u1", "alice")
	l.Deposit("u1", 500)
	l.AppendBet("u1", model.BetId{User: "u1", Market: "m1", Counter: 1})

	snap := l.Export()

	other := New()
	other.Restore(snap)

	info, err := other.Get("u1")
	if err != nil || info.Balance != 500 || info.Name != "alice" {
		t.Fatalf("restore mismatch: %+v err=%v", info, err)
	}
	bets, _ := other.Bets("u1")
	if len(bets) != 1 {
		t.Fatalf("want 1 bet restored, got %d", len(bets))
	}
}
