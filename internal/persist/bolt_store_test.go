package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Chaman-veteran/betunfair/internal/ledger"
	"github.com/Chaman-veteran/betunfair/internal/model"
)

func TestBoltStorePutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchange.db")
	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, ok, err := store.Get(ctx, "n1"); err != nil || ok {
		t.Fatalf("want miss on empty store, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "n1", []byte(`{"counter":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx, "n1")
	if err != nil || !ok || string(got) != `{"counter":1}` {
		t.Fatalf("get want hit %q, got ok=%v val=%q err=%v", `{"counter":1}`, ok, got, err)
	}

	if err := store.Delete(ctx, "n1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, "n1"); err != nil || ok {
		t.Fatalf("want miss after delete, got ok=%v err=%v", ok, err)
	}
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchange.db")
	ctx := context.Background()

	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(ctx, "n1", []byte("persisted")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Get(ctx, "n1")
	if err != nil || !ok || string(got) != "persisted" {
		t.Fatalf("want value to survive reopen, got ok=%v val=%q err=%v", ok, got, err)
	}
}

func TestAdapterSaveLoadDeleteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchange.db")
	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	adapter := NewAdapter(store)
	ctx := context.Background()

	if _, ok, err := adapter.Load(ctx, "exch"); err != nil || ok {
		t.Fatalf("want no snapshot yet, got ok=%v err=%v", ok, err)
	}

	bb1 := model.Bet{
		Id:             model.BetId{User: "u1", Market: "m1", Counter: 1},
		Type:           model.Back,
		Odds:           150,
		OriginalStake:  1000,
		RemainingStake: 600,
		MatchedAmount:  400,
		Status:         model.BetActive,
	}
	snap := Snapshot{
		Users: map[model.UserId]ledger.Snapshot{
			"u1": {Name: "alice", Balance: 500, Bets: []model.BetId{bb1.Id}},
		},
		Counter: 1,
		Markets: []MarketSnapshot{{
			Info:  model.MarketInfo{Id: "m1", Name: "m1", Status: model.MarketActive},
			Backs: []model.Bet{bb1},
		}},
	}

	if err := adapter.Save(ctx, "exch", snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := adapter.Load(ctx, "exch")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Counter != 1 || len(got.Markets) != 1 || len(got.Markets[0].Backs) != 1 {
		t.Fatalf("load mismatch: %+v", got)
	}
	if got.Markets[0].Backs[0].RemainingStake != 600 {
		t.Fatalf("want restored bet remaining_stake 600, got %d", got.Markets[0].Backs[0].RemainingStake)
	}
	if u, ok := got.Users["u1"]; !ok || u.Balance != 500 {
		t.Fatalf("want restored user balance 500, got %+v ok=%v", u, ok)
	}

	if err := adapter.Delete(ctx, "exch"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := adapter.Load(ctx, "exch"); err != nil || ok {
		t.Fatalf("want no snapshot after delete, got ok=%v err=%v", ok, err)
	}
}
