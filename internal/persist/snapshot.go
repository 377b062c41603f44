package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Chaman-veteran/betunfair/internal/ledger"
	"github.com/Chaman-veteran/betunfair/internal/model"
)

// MarketSnapshot is the persisted shape of one market: its summary info plus
// every bet ever placed against it, split by bet type. Every bet is written,
// whether it is still resting, fully matched, cancelled or settled.
type MarketSnapshot struct {
	Info  model.MarketInfo `json:"market_info"`
	Backs []model.Bet      `json:"backs"`
	Lays  []model.Bet      `json:"lays"`
}

// Snapshot is the full persisted state of one exchange: a user table, the
// global bet counter, and every market in creation order.
type Snapshot struct {
	Users   map[model.UserId]ledger.Snapshot `json:"users"`
	Counter uint64                           `json:"counter"`
	Markets []MarketSnapshot                 `json:"markets"`
}

// Adapter snapshots and restores exchange state to/from a Store, keyed by
// exchange name.
type Adapter struct {
	store Store
}

// NewAdapter returns an Adapter backed by store.
func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// Save writes snap under key name, overwriting any previous snapshot.
func (a *Adapter) Save(ctx context.Context, name string, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persist: encode snapshot: %w", err)
	}
	return a.store.Put(ctx, name, b)
}

// Load reads the snapshot for name. ok is false if no snapshot exists yet.
func (a *Adapter) Load(ctx context.Context, name string) (Snapshot, bool, error) {
	b, ok, err := a.store.Get(ctx, name)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("persist: read snapshot: %w", err)
	}
	if !ok {
		return Snapshot{}, false, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("persist: decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Delete removes the snapshot for name, if any.
func (a *Adapter) Delete(ctx context.Context, name string) error {
	return a.store.Delete(ctx, name)
}
