package exchange

import (
	"path/filepath"
	"testing"

	"github.com/Chaman-veteran/betunfair/internal/model"
	"github.com/Chaman-veteran/betunfair/internal/persist"
)

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	s := New(nil, nil, nil)
	go s.Run()
	if err := s.Start("test"); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestUserCreateDepositWithdraw(t *testing.T) {
	s := newTestSupervisor(t)
	if err := s.UserCreate("u1", "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UserCreate("u1", "alice"); err != model.ErrDuplicateId {
		t.Fatalf("want ErrDuplicateId, got %v", err)
	}
	if err := s.UserDeposit("u1", 1000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	info, err := s.UserGet("u1")
	if err != nil || info.Balance != 1000 {
		t.Fatalf("get: want balance 1000, got %+v err=%v", info, err)
	}
	if err := s.UserWithdraw("u1", 2000); err != model.ErrInvalidAmount {
		t.Fatalf("want ErrInvalidAmount on overdraft, got %v", err)
	}
}

func TestBetPlacementWithdrawsAndRefundsOnRejection(t *testing.T) {
	s := newTestSupervisor(t)
	must(t, s.UserCreate("u1", "alice"))
	must(t, s.UserDeposit("u1", 1000))
	mid, err := s.MarketCreate("will it rain", "")
	if err != nil {
		t.Fatalf("market create: %v", err)
	}

	// Invalid odds: placement rejected, stake must be refunded in full.
	if _, err := s.BetBack("u1", mid, 500, 100); err != model.ErrInvalidAmount {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	info, _ := s.UserGet("u1")
	if info.Balance != 1000 {
		t.Fatalf("balance after rejected placement want 1000, got %d", info.Balance)
	}

	id, err := s.BetBack("u1", mid, 500, 150)
	if err != nil {
		t.Fatalf("bet back: %v", err)
	}
	info, _ = s.UserGet("u1")
	if info.Balance != 500 {
		t.Fatalf("balance after accepted placement want 500, got %d", info.Balance)
	}
	bets, _ := s.UserBets("u1")
	if len(bets) != 1 || bets[0] != id {
		t.Fatalf("want user_bets [%v], got %v", id, bets)
	}
}

func TestMarketLifecycleCreditsLedger(t *testing.T) {
	s := newTestSupervisor(t)
	must(t, s.UserCreate("u1", "alice"))
	must(t, s.UserCreate("u2", "bob"))
	must(t, s.UserDeposit("u1", 2000))
	must(t, s.UserDeposit("u2", 2000))
	mid, err := s.MarketCreate("m1", "")
	if err != nil {
		t.Fatalf("market create: %v", err)
	}

	bb1, err := s.BetBack("u1", mid, 1000, 150)
	if err != nil {
		t.Fatalf("bet back: %v", err)
	}
	bl2, err := s.BetLay("u2", mid, 200, 150)
	if err != nil {
		t.Fatalf("bet lay: %v", err)
	}
	if err := s.MarketMatch(mid); err != nil {
		t.Fatalf("match: %v", err)
	}
	// liability_capacity(1000,150) = 500 >= lay_need 200, so consumed_back =
	// 200*100/50 = 400, leaving bb1.remaining = 600.
	bet, err := s.BetGet(bb1)
	if err != nil || bet.RemainingStake != 600 {
		t.Fatalf("bb1 remaining want 600, got %+v err=%v", bet, err)
	}

	if err := s.MarketSettle(mid, true); err != nil {
		t.Fatalf("settle: %v", err)
	}
	// bb1: unmatched(600) + matched winnings (400 @ 150 = 600) = 1200; started
	// with 2000, withdrew 1000 on placement, leaving 1000, plus 1200 credited.
	info, _ := s.UserGet("u1")
	if info.Balance != 2200 {
		t.Fatalf("u1 balance after settle want 2200, got %d", info.Balance)
	}
	// bl2's lay fully matched (200 liability) and lost on a back win; started
	// with 2000, withdrew 200 on placement, no settlement credit -> 1800.
	info2, _ := s.UserGet("u2")
	if info2.Balance != 1800 {
		t.Fatalf("u2 balance after settle want 1800, got %d", info2.Balance)
	}
	_ = bl2
}

func TestMarketFreezeRefundsUnmatchedOnly(t *testing.T) {
	s := newTestSupervisor(t)
	must(t, s.UserCreate("u1", "alice"))
	must(t, s.UserDeposit("u1", 1000))
	mid, err := s.MarketCreate("m1", "")
	if err != nil {
		t.Fatalf("market create: %v", err)
	}
	if _, err := s.BetBack("u1", mid, 1000, 150); err != nil {
		t.Fatalf("bet back: %v", err)
	}
	if err := s.MarketFreeze(mid); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	info, _ := s.UserGet("u1")
	if info.Balance != 1000 {
		t.Fatalf("balance after freeze refund want 1000, got %d", info.Balance)
	}
	if _, err := s.BetBack("u1", mid, 100, 150); err != model.ErrInvalidState {
		t.Fatalf("want ErrInvalidState placing on frozen market, got %v", err)
	}
}

// S6 — deposit 2000, place a back of 1000, stop, start: balance is 1000,
// the market is still listed, and the bet is still resolvable by id, all
// after going through the JSON/bbolt round trip rather than staying in the
// same in-memory Supervisor.
func TestRestartFidelity(t *testing.T) {
	dir := t.TempDir()
	raw, err := persist.OpenBoltStore(filepath.Join(dir, "exchange.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer raw.Close()

	s := New(raw, nil, nil)
	go s.Run()
	if err := s.Start("test"); err != nil {
		t.Fatalf("start: %v", err)
	}

	must(t, s.UserCreate("u1", "alice"))
	must(t, s.UserDeposit("u1", 2000))
	mid, err := s.MarketCreate("m1", "")
	if err != nil {
		t.Fatalf("market create: %v", err)
	}
	bid, err := s.BetBack("u1", mid, 1000, 150)
	if err != nil {
		t.Fatalf("bet back: %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// A fresh Supervisor standing in for a restarted process: only the
	// snapshot written to raw during Stop carries state across.
	s2 := New(raw, nil, nil)
	go s2.Run()
	if err := s2.Start("test"); err != nil {
		t.Fatalf("start after restart: %v", err)
	}
	t.Cleanup(func() { s2.Stop() })

	info, err := s2.UserGet("u1")
	if err != nil || info.Balance != 1000 {
		t.Fatalf("balance after restart want 1000, got %+v err=%v", info, err)
	}

	active := s2.MarketListActive()
	found := false
	for _, id := range active {
		if id == mid {
			found = true
		}
	}
	if !found {
		t.Fatalf("want market %v among active markets after restart, got %v", mid, active)
	}

	bet, err := s2.BetGet(bid)
	if err != nil {
		t.Fatalf("bet_get after restart: %v", err)
	}
	if bet.RemainingStake != 1000 || bet.Status != model.BetActive {
		t.Fatalf("want bet still resting with remaining_stake 1000, got %+v", bet)
	}

	bets, err := s2.UserBets("u1")
	if err != nil || len(bets) != 1 || bets[0] != bid {
		t.Fatalf("want user_bets [%v] after restart, got %v err=%v", bid, bets, err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
