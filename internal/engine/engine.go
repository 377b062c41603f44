// Package engine implements the per-market actor: one goroutine draining a
// buffered command channel, owning one order book and one bet record store,
// generalised from a continuous double-auction matcher to a back/lay
// betting exchange.
package engine

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Chaman-veteran/betunfair/internal/book"
	"github.com/Chaman-veteran/betunfair/internal/metrics"
	"github.com/Chaman-veteran/betunfair/internal/model"
)

// command is anything the engine's single goroutine can execute against its
// own state. Every concrete command carries its own reply channel.
type command interface {
	exec(e *MarketEngine)
}

// MarketEngine owns one market's order book and bet records, and serialises
// every mutation through cmdCh.
type MarketEngine struct {
	info  model.MarketInfo
	book  *book.Book
	bets  map[uint64]*model.Bet
	order []uint64 // placement order of every bet counter ever seen

	cmdCh chan command

	log     *logrus.Logger
	metrics *metrics.Collector
}

// New constructs a fresh, Active market engine. Run must be started in its
// own goroutine before any operation is sent.
func New(info model.MarketInfo, log *logrus.Logger, m *metrics.Collector) *MarketEngine {
	return &MarketEngine{
		info:    info,
		book:    book.New(),
		bets:    make(map[uint64]*model.Bet),
		cmdCh:   make(chan command, 64),
		log:     log,
		metrics: m,
	}
}

// Restore rebuilds an engine's internal state from persisted bets (used on
// supervisor start()). Must be called before Run.
func Restore(info model.MarketInfo, backs, lays []model.Bet, log *logrus.Logger, m *metrics.Collector) *MarketEngine {
	e := New(info, log, m)
	all := make([]model.Bet, 0, len(backs)+len(lays))
	all = append(all, backs...)
	all = append(all, lays...)
	sort.Slice(all, func(i, j int) bool { return all[i].Id.Counter < all[j].Id.Counter })
	for i := range all {
		b := all[i]
		cp := b
		e.bets[b.Id.Counter] = &cp
		e.order = append(e.order, b.Id.Counter)
		if cp.IsActive() && cp.RemainingStake > 0 {
			side := book.Backs
			if cp.Type == model.Lay {
				side = book.Lays
			}
			e.book.Insert(side, cp.Id.Counter, cp.Odds)
		}
	}
	return e
}

// Run drains cmdCh until it is closed. Intended to be launched with `go`.
func (e *MarketEngine) Run() {
	for cmd := range e.cmdCh {
		cmd.exec(e)
	}
}

// Stop closes the command channel, causing Run to return once the channel
// drains. No further commands may be sent afterwards.
func (e *MarketEngine) Stop() {
	close(e.cmdCh)
}

func (e *MarketEngine) logf(format string, args ...interface{}) {
	if e.log == nil {
		return
	}
	e.log.Infof(format, args...)
}

// reportDepth refreshes the book-depth gauge for this market. Called after
// every command that inserts into or removes from the book.
func (e *MarketEngine) reportDepth() {
	if e.metrics == nil {
		return
	}
	id := string(e.info.Id)
	e.metrics.BookDepth.WithLabelValues(id, "backs").Set(float64(e.book.Len(book.Backs)))
	e.metrics.BookDepth.WithLabelValues(id, "lays").Set(float64(e.book.Len(book.Lays)))
}

// ── Place ─────────────────────────────────────────────────────────────

type placeCmd struct {
	id    model.BetId
	typ   model.BetType
	stake int64
	odds  int
	reply chan error
}

func (c *placeCmd) exec(e *MarketEngine) {
	c.reply <- e.place(c.id, c.typ, c.stake, c.odds)
}

func (e *MarketEngine) place(id model.BetId, typ model.BetType, stake int64, odds int) error {
	if e.info.Status != model.MarketActive {
		e.logf("place %s rejected: market %s not active", id, e.info.Status)
		return model.ErrInvalidState
	}
	if stake <= 0 || odds <= 100 {
		e.logf("place %s rejected: stake=%d odds=%d", id, stake, odds)
		return model.ErrInvalidAmount
	}
	bet := &model.Bet{
		Id:             id,
		Type:           typ,
		Odds:           odds,
		OriginalStake:  stake,
		RemainingStake: stake,
		Status:         model.BetActive,
	}
	e.bets[id.Counter] = bet
	e.order = append(e.order, id.Counter)
	side := book.Backs
	if typ == model.Lay {
		side = book.Lays
	}
	e.book.Insert(side, id.Counter, odds)
	if e.metrics != nil {
		e.metrics.BetsPlaced.WithLabelValues(string(typ)).Inc()
	}
	e.reportDepth()
	return nil
}

// Place sends a placement request and blocks for the result.
func (e *MarketEngine) Place(id model.BetId, typ model.BetType, stake int64, odds int) error {
	reply := make(chan error, 1)
	e.cmdCh <- &placeCmd{id: id, typ: typ, stake: stake, odds: odds, reply: reply}
	return <-reply
}

// ── CancelUnmatched ───────────────────────────────────────────────────

type cancelUnmatchedCmd struct {
	counter uint64
	reply   chan cancelResult
}

type cancelResult struct {
	amount int64
	err    error
}

func (c *cancelUnmatchedCmd) exec(e *MarketEngine) {
	c.reply <- e.cancelUnmatched(c.counter)
}

func (e *MarketEngine) cancelUnmatched(counter uint64) cancelResult {
	b, ok := e.bets[counter]
	if !ok {
		return cancelResult{0, model.ErrNotFound}
	}
	if b.RemainingStake == 0 {
		return cancelResult{0, nil}
	}
	amount := b.RemainingStake
	b.RemainingStake = 0
	b.Credited += amount
	e.book.Remove(counter)
	if e.metrics != nil {
		e.metrics.BetsCancelled.Inc()
	}
	e.reportDepth()
	return cancelResult{amount, nil}
}

// CancelUnmatched refunds a bet's unmatched remainder, leaving its matched
// portion (if any) live. Idempotent: a second call returns amount zero.
func (e *MarketEngine) CancelUnmatched(id model.BetId) (int64, error) {
	reply := make(chan cancelResult, 1)
	e.cmdCh <- &cancelUnmatchedCmd{counter: id.Counter, reply: reply}
	r := <-reply
	return r.amount, r.err
}

// ── CancelWhole ───────────────────────────────────────────────────────

type cancelWholeCmd struct {
	counter uint64
	reply   chan cancelResult
}

func (c *cancelWholeCmd) exec(e *MarketEngine) {
	c.reply <- e.cancelWhole(c.counter)
}

func (e *MarketEngine) cancelWhole(counter uint64) cancelResult {
	b, ok := e.bets[counter]
	if !ok {
		return cancelResult{0, model.ErrNotFound}
	}
	if b.Status == model.BetMarketCancelled || b.Status == model.BetMarketSettled {
		return cancelResult{0, nil}
	}
	amount := b.OriginalStake - b.Credited
	b.Credited = b.OriginalStake
	b.RemainingStake = 0
	b.Matched = nil
	b.Status = model.BetMarketCancelled
	e.book.Remove(counter)
	if e.metrics != nil {
		e.metrics.BetsCancelled.Inc()
	}
	e.reportDepth()
	return cancelResult{amount, nil}
}

// CancelWhole refunds a bet's original stake in full (net of anything
// already refunded via a prior freeze) and marks it MarketCancelled. Used
// only by the supervisor while unwinding a cancelled market.
func (e *MarketEngine) CancelWhole(id model.BetId) (int64, error) {
	reply := make(chan cancelResult, 1)
	e.cmdCh <- &cancelWholeCmd{counter: id.Counter, reply: reply}
	r := <-reply
	return r.amount, r.err
}

// ── Freeze / Cancel (market-level transitions) ───────────────────────

type transitionCmd struct {
	to    model.MarketStatus
	reply chan transitionResult
}

type transitionResult struct {
	ids []model.BetId
	err error
}

func (c *transitionCmd) exec(e *MarketEngine) {
	c.reply <- e.transition(c.to)
}

func (e *MarketEngine) transition(to model.MarketStatus) transitionResult {
	switch to {
	case model.MarketFrozen:
		if e.info.Status != model.MarketActive {
			return transitionResult{nil, model.ErrInvalidState}
		}
	case model.MarketCancelled:
		if e.info.Status != model.MarketActive && e.info.Status != model.MarketFrozen {
			return transitionResult{nil, model.ErrInvalidState}
		}
	default:
		return transitionResult{nil, model.ErrInvalidState}
	}
	e.info.Status = to
	e.logf("market %s transitioned to %s", e.info.Id, to)
	ids := make([]model.BetId, 0, len(e.order))
	for _, counter := range e.order {
		ids = append(ids, e.bets[counter].Id)
	}
	return transitionResult{ids, nil}
}

// Freeze moves the market to Frozen and returns every bet id so the caller
// can refund unmatched portions via CancelUnmatched.
func (e *MarketEngine) Freeze() ([]model.BetId, error) {
	reply := make(chan transitionResult, 1)
	e.cmdCh <- &transitionCmd{to: model.MarketFrozen, reply: reply}
	r := <-reply
	return r.ids, r.err
}

// Cancel moves the market to Cancelled and returns every bet id so the
// caller can refund original stakes in full via CancelWhole.
func (e *MarketEngine) Cancel() ([]model.BetId, error) {
	reply := make(chan transitionResult, 1)
	e.cmdCh <- &transitionCmd{to: model.MarketCancelled, reply: reply}
	r := <-reply
	return r.ids, r.err
}

// ── Settle ────────────────────────────────────────────────────────────

type settleCmd struct {
	result bool
	reply  chan settleResult
}

type settleResult struct {
	payouts []model.Payout
	err     error
}

func (c *settleCmd) exec(e *MarketEngine) {
	c.reply <- e.settle(c.result)
}

func (e *MarketEngine) settle(result bool) settleResult {
	if e.info.Status != model.MarketActive && e.info.Status != model.MarketFrozen {
		return settleResult{nil, model.ErrInvalidState}
	}
	e.info.Status = model.MarketSettled
	e.info.Result = &result
	e.logf("market %s settled result=%v", e.info.Id, result)

	var payouts []model.Payout
	for _, counter := range e.order {
		b := e.bets[counter]
		entitlement := settlementEntitlement(b, result)
		amount := entitlement - b.Credited
		b.Credited = entitlement
		b.RemainingStake = 0
		b.Status = model.BetMarketSettled
		b.Result = &result
		e.book.Remove(counter)
		if amount > 0 {
			payouts = append(payouts, model.Payout{User: b.Id.User, Bet: b.Id, Amount: amount})
		}
		if e.metrics != nil {
			e.metrics.BetsSettled.Inc()
		}
	}
	e.reportDepth()
	return settleResult{payouts, nil}
}

// settlementEntitlement computes a bet's total entitlement (not yet netted
// against Credited) under the given market result, per the back/lay payout
// rules.
//
// It is built from OriginalStake and MatchedAmount, not RemainingStake:
// RemainingStake is zeroed by CancelUnmatched the moment a market is frozen,
// and by that point it can no longer tell "this much was never matched" apart
// from "this much was never matched and has already been refunded". The
// unmatched portion (UnmatchedPortion) stays correct either way since nothing
// mutates MatchedAmount once the market stops accepting new matches.
func settlementEntitlement(b *model.Bet, result bool) int64 {
	unmatched := b.UnmatchedPortion()
	switch b.Type {
	case model.Back:
		if result {
			return unmatched + model.GrossReturn(b.MatchedAmount, b.Odds)
		}
		return unmatched
	case model.Lay:
		if !result {
			return unmatched + b.AbsorbedStake + b.MatchedAmount
		}
		return unmatched
	}
	return unmatched
}

// Settle moves the market to Settled(result) and returns the incremental
// ledger credit owed to every bet with a positive entitlement delta.
func (e *MarketEngine) Settle(result bool) ([]model.Payout, error) {
	reply := make(chan settleResult, 1)
	e.cmdCh <- &settleCmd{result: result, reply: reply}
	r := <-reply
	return r.payouts, r.err
}

// ── Queries ───────────────────────────────────────────────────────────

type getCmd struct{ reply chan model.MarketInfo }

func (c *getCmd) exec(e *MarketEngine) { c.reply <- e.info }

// Get returns the market's current summary info.
func (e *MarketEngine) Get() model.MarketInfo {
	reply := make(chan model.MarketInfo, 1)
	e.cmdCh <- &getCmd{reply: reply}
	return <-reply
}

type betsCmd struct{ reply chan []model.Bet }

func (c *betsCmd) exec(e *MarketEngine) {
	out := make([]model.Bet, 0, len(e.order))
	for _, counter := range e.order {
		out = append(out, *e.bets[counter])
	}
	c.reply <- out
}

// Bets returns every bet ever placed on this market, in placement order.
func (e *MarketEngine) Bets() []model.Bet {
	reply := make(chan []model.Bet, 1)
	e.cmdCh <- &betsCmd{reply: reply}
	return <-reply
}

type betGetCmd struct {
	counter uint64
	reply   chan betGetResult
}

type betGetResult struct {
	bet model.Bet
	err error
}

func (c *betGetCmd) exec(e *MarketEngine) {
	b, ok := e.bets[c.counter]
	if !ok {
		c.reply <- betGetResult{err: model.ErrNotFound}
		return
	}
	c.reply <- betGetResult{bet: *b}
}

// BetGet returns a single bet's current record.
func (e *MarketEngine) BetGet(id model.BetId) (model.Bet, error) {
	reply := make(chan betGetResult, 1)
	e.cmdCh <- &betGetCmd{counter: id.Counter, reply: reply}
	r := <-reply
	return r.bet, r.err
}

type pendingCmd struct {
	side  book.Side
	reply chan []book.Entry
}

func (c *pendingCmd) exec(e *MarketEngine) {
	c.reply <- e.book.Pending(c.side)
}

// PendingBacks returns every resting back, ascending by odds.
func (e *MarketEngine) PendingBacks() []book.Entry {
	reply := make(chan []book.Entry, 1)
	e.cmdCh <- &pendingCmd{side: book.Backs, reply: reply}
	return <-reply
}

// PendingLays returns every resting lay, descending by odds.
func (e *MarketEngine) PendingLays() []book.Entry {
	reply := make(chan []book.Entry, 1)
	e.cmdCh <- &pendingCmd{side: book.Lays, reply: reply}
	return <-reply
}

// ── Match ─────────────────────────────────────────────────────────────

type matchCmd struct{ reply chan []model.MatchEvent }

func (c *matchCmd) exec(e *MarketEngine) {
	c.reply <- e.match()
}

// Match runs the matching algorithm to exhaustion and returns every event
// it produced.
func (e *MarketEngine) Match() []model.MatchEvent {
	reply := make(chan []model.MatchEvent, 1)
	e.cmdCh <- &matchCmd{reply: reply}
	return <-reply
}
