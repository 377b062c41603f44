// Package model defines the core domain types shared by the ledger, the
// order book, and the market engine: identifiers, bets, markets, and the
// sentinel errors the rest of the exchange returns at its API boundary.
package model

import "fmt"

// ── Identifiers ─────────────────────────────────────────────────────

// UserId is an opaque, exchange-unique user identifier.
type UserId string

// MarketId is an opaque, exchange-unique market identifier.
type MarketId string

// BetId is globally unique within one exchange. Counter is allocated by the
// exchange supervisor, never by a market engine, because it must be
// monotonic and comparable across every market.
type BetId struct {
	User    UserId   `json:"user"`
	Market  MarketId `json:"market"`
	Counter uint64   `json:"counter"`
}

func (b BetId) String() string {
	return fmt.Sprintf("%s/%s/%d", b.Market, b.User, b.Counter)
}

// ── Bets ────────────────────────────────────────────────────────────

// BetType distinguishes a back bet (backs the outcome occurring) from a lay
// bet (backs the outcome not occurring, posting liability as collateral).
type BetType string

const (
	Back BetType = "BACK"
	Lay  BetType = "LAY"
)

// BetStatus is the bet's lifecycle state. A bet stays Active across any
// number of cancel_unmatched calls (there is no user-facing whole-bet
// cancel: bet_cancel always refunds only the unmatched remainder and
// leaves the matched portion live); MarketCancelled and MarketSettled are
// terminal states reached through a market-level lifecycle transition.
type BetStatus string

const (
	BetActive          BetStatus = "ACTIVE"
	BetMarketCancelled BetStatus = "MARKET_CANCELLED"
	BetMarketSettled   BetStatus = "MARKET_SETTLED"
)

// Bet is one resting (or already resolved) back/lay order.
//
// Credited, MatchedAmount, and AbsorbedStake are bookkeeping fields with no
// entry in a bet's externally visible shape. Credited tracks how much of
// this bet's entitlement has already been paid out, so a market that was
// Frozen and later Cancelled or Settled never pays the unmatched portion
// twice. MatchedAmount is the cumulative stake (back) or liability (lay)
// ever committed to a match; unlike RemainingStake, it is never reduced by
// a cancellation, so settlement can still tell "how much was truly matched"
// apart from "how much was unmatched and already refunded" after a freeze.
// AbsorbedStake accumulates, for lay bets only, the total back stake this
// lay has ever absorbed across every match it took part in — distinct from
// its own committed liability (MatchedAmount).
type Bet struct {
	Id             BetId     `json:"id"`
	Type           BetType   `json:"type"`
	Odds           int       `json:"odds"` // x100, e.g. 150 == 1.50
	OriginalStake  int64     `json:"original_stake"`
	RemainingStake int64     `json:"remaining_stake"`
	MatchedAmount  int64     `json:"matched_amount"`
	Matched        []BetId   `json:"matched"`
	Status         BetStatus `json:"status"`
	Result         *bool     `json:"result,omitempty"`
	Credited       int64     `json:"credited"`
	AbsorbedStake  int64     `json:"absorbed_stake,omitempty"`
}

// UnmatchedPortion is the slice of the bet's original stake that was never
// committed to a match, whether it is still resting or has already been
// refunded. Unlike RemainingStake it never changes once matching stops.
func (b *Bet) UnmatchedPortion() int64 {
	return b.OriginalStake - b.MatchedAmount
}

// IsActive reports whether the bet can still be matched or cancelled.
func (b *Bet) IsActive() bool {
	return b.Status == BetActive
}

// ── Markets ─────────────────────────────────────────────────────────

// MarketStatus is the market's lifecycle state.
type MarketStatus string

const (
	MarketActive    MarketStatus = "ACTIVE"
	MarketFrozen    MarketStatus = "FROZEN"
	MarketCancelled MarketStatus = "CANCELLED"
	MarketSettled   MarketStatus = "SETTLED"
)

// MarketInfo is the static/summary information about one market.
type MarketInfo struct {
	Id          MarketId     `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      MarketStatus `json:"status"`
	Result      *bool        `json:"result,omitempty"`
}

// IsOpen reports whether the market still accepts placements.
func (m MarketInfo) IsOpen() bool {
	return m.Status == MarketActive
}

// Terminal reports whether the market can never change state again.
func (m MarketInfo) Terminal() bool {
	return m.Status == MarketCancelled || m.Status == MarketSettled
}

// ── Users ───────────────────────────────────────────────────────────

// UserInfo is the public view of a ledger account.
type UserInfo struct {
	Id      UserId `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// ── Matching / settlement value types ────────────────────────────────

// MatchEvent records a single pairing produced by the matching algorithm.
type MatchEvent struct {
	Back      BetId `json:"back"`
	Lay       BetId `json:"lay"`
	Odds      int   `json:"odds"`
	BackStake int64 `json:"back_stake"` // stake the back gave up in this match
	LayStake  int64 `json:"lay_stake"`  // liability the lay gave up in this match
}

// Payout is the ledger-facing description of one bet's settlement or
// cancellation outcome: Amount is the incremental credit still owed (total
// entitlement minus whatever was already credited via an earlier freeze).
type Payout struct {
	User   UserId `json:"user"`
	Bet    BetId  `json:"bet"`
	Amount int64  `json:"amount"`
}
