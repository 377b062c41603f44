// Package persist implements the exchange's persistence adapter: a narrow
// key-value Store interface, a bbolt-backed implementation of it, an
// optional read-through cache decorator, and the snapshot codec that
// (de)serialises a whole exchange's state under one key per exchange name.
package persist

import "context"

// Store is the external durable key-value collaborator the exchange
// supervisor snapshots to and restores from. A caller of this module may
// supply any implementation; BoltStore is the one this repository ships.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
