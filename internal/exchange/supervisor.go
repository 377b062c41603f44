// Package exchange implements the top-level actor: the market registry,
// the ledger, and the global bet counter, all private to one goroutine and
// reachable only through a command channel. The registry itself could get
// away with a plain mutex, but the ledger needs the same single-writer
// guarantee, so both are folded into one actor rather than split across two
// synchronisation mechanisms.
package exchange

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Chaman-veteran/betunfair/internal/book"
	"github.com/Chaman-veteran/betunfair/internal/engine"
	"github.com/Chaman-veteran/betunfair/internal/ledger"
	"github.com/Chaman-veteran/betunfair/internal/metrics"
	"github.com/Chaman-veteran/betunfair/internal/model"
	"github.com/Chaman-veteran/betunfair/internal/persist"
)

// command is anything the supervisor's single goroutine can execute against
// its own state.
type command interface {
	exec(s *Supervisor)
}

// market is one registry entry.
type market struct {
	eng *engine.MarketEngine
}

// Supervisor is the exchange's single top-level actor. The zero value is
// not usable; construct with New.
type Supervisor struct {
	ledger  *ledger.Ledger
	markets map[model.MarketId]*market
	order   []model.MarketId // creation order
	counter uint64
	running bool
	name    string

	store   *persist.Adapter
	log     *logrus.Logger
	metrics *metrics.Collector

	cmdCh chan command
}

// New constructs a Supervisor. Run must be started in its own goroutine
// before any operation is sent.
func New(store persist.Store, log *logrus.Logger, m *metrics.Collector) *Supervisor {
	var adapter *persist.Adapter
	if store != nil {
		adapter = persist.NewAdapter(store)
	}
	return &Supervisor{
		ledger:  ledger.New(),
		markets: make(map[model.MarketId]*market),
		store:   adapter,
		log:     log,
		metrics: m,
		cmdCh:   make(chan command, 64),
	}
}

// Run drains cmdCh for the lifetime of the process. Intended to be launched
// with `go`; Stop/Clean transition state but never close cmdCh, since a
// supervisor may be started again after being stopped.
func (s *Supervisor) Run() {
	for cmd := range s.cmdCh {
		cmd.exec(s)
	}
}

func (s *Supervisor) logf(format string, args ...interface{}) {
	if s.log == nil {
		return
	}
	s.log.Infof(format, args...)
}

// ── start / stop / clean ─────────────────────────────────────────────

type startCmd struct {
	name  string
	reply chan error
}

func (c *startCmd) exec(s *Supervisor) { c.reply <- s.start(c.name) }

func (s *Supervisor) start(name string) error {
	if s.running {
		return model.ErrAlreadyRunning
	}
	s.name = name
	if s.store != nil {
		snap, ok, err := s.store.Load(context.Background(), name)
		if err != nil {
			return fmt.Errorf("exchange: start: %w", err)
		}
		if ok {
			s.ledger.Restore(snap.Users)
			s.counter = snap.Counter
			for _, ms := range snap.Markets {
				eng := engine.Restore(ms.Info, ms.Backs, ms.Lays, s.log, s.metrics)
				go eng.Run()
				s.markets[ms.Info.Id] = &market{eng: eng}
				s.order = append(s.order, ms.Info.Id)
			}
			s.logf("exchange %s restored: %d users, %d markets", name, len(snap.Users), len(snap.Markets))
		}
	}
	s.running = true
	s.logf("exchange %s started", name)
	return nil
}

// Start boots the exchange under name, restoring a prior snapshot if the
// persistence adapter has one.
func (s *Supervisor) Start(name string) error {
	reply := make(chan error, 1)
	s.cmdCh <- &startCmd{name: name, reply: reply}
	return <-reply
}

type stopCmd struct{ reply chan error }

func (c *stopCmd) exec(s *Supervisor) { c.reply <- s.stop() }

func (s *Supervisor) stop() error {
	if !s.running {
		return model.ErrInvalidState
	}
	if s.store != nil {
		if err := s.snapshot(); err != nil {
			return err
		}
	}
	for _, mk := range s.markets {
		mk.eng.Stop()
	}
	s.markets = make(map[model.MarketId]*market)
	s.order = nil
	s.running = false
	s.logf("exchange %s stopped", s.name)
	return nil
}

func (s *Supervisor) snapshot() error {
	snap := persist.Snapshot{
		Users:   s.ledger.Export(),
		Counter: s.counter,
	}
	for _, id := range s.order {
		mk := s.markets[id]
		info := mk.eng.Get()
		bets := mk.eng.Bets()
		var backs, lays []model.Bet
		for _, b := range bets {
			if b.Type == model.Back {
				backs = append(backs, b)
			} else {
				lays = append(lays, b)
			}
		}
		snap.Markets = append(snap.Markets, persist.MarketSnapshot{Info: info, Backs: backs, Lays: lays})
	}
	return s.store.Save(context.Background(), s.name, snap)
}

// Stop snapshots state (if a persistence adapter is configured) and stops
// every market engine.
func (s *Supervisor) Stop() error {
	reply := make(chan error, 1)
	s.cmdCh <- &stopCmd{reply: reply}
	return <-reply
}

type cleanCmd struct {
	name  string
	reply chan error
}

func (c *cleanCmd) exec(s *Supervisor) { c.reply <- s.clean(c.name) }

func (s *Supervisor) clean(name string) error {
	for _, mk := range s.markets {
		mk.eng.Stop()
	}
	s.ledger.Reset()
	s.markets = make(map[model.MarketId]*market)
	s.order = nil
	s.counter = 0
	s.running = false
	if s.store != nil {
		if err := s.store.Delete(context.Background(), name); err != nil {
			return err
		}
	}
	s.logf("exchange %s cleaned", name)
	return nil
}

// Clean discards all in-memory state and deletes the named snapshot.
func (s *Supervisor) Clean(name string) error {
	reply := make(chan error, 1)
	s.cmdCh <- &cleanCmd{name: name, reply: reply}
	return <-reply
}

// ── users ─────────────────────────────────────────────────────────────

type userCreateCmd struct {
	id    model.UserId
	name  string
	reply chan error
}

func (c *userCreateCmd) exec(s *Supervisor) { c.reply <- s.ledger.Create(c.id, c.name) }

// UserCreate registers a new user with a zero balance.
func (s *Supervisor) UserCreate(id model.UserId, name string) error {
	reply := make(chan error, 1)
	s.cmdCh <- &userCreateCmd{id: id, name: name, reply: reply}
	return <-reply
}

type userDepositCmd struct {
	id     model.UserId
	amount int64
	reply  chan error
}

func (c *userDepositCmd) exec(s *Supervisor) { c.reply <- s.ledger.Deposit(c.id, c.amount) }

// UserDeposit credits amount (strictly positive) to the user's balance.
func (s *Supervisor) UserDeposit(id model.UserId, amount int64) error {
	reply := make(chan error, 1)
	s.cmdCh <- &userDepositCmd{id: id, amount: amount, reply: reply}
	return <-reply
}

type userWithdrawCmd struct {
	id     model.UserId
	amount int64
	reply  chan error
}

func (c *userWithdrawCmd) exec(s *Supervisor) { c.reply <- s.ledger.Withdraw(c.id, c.amount) }

// UserWithdraw debits amount (strictly positive, no overdraft) from the
// user's balance.
func (s *Supervisor) UserWithdraw(id model.UserId, amount int64) error {
	reply := make(chan error, 1)
	s.cmdCh <- &userWithdrawCmd{id: id, amount: amount, reply: reply}
	return <-reply
}

type userGetCmd struct {
	id    model.UserId
	reply chan userGetResult
}

type userGetResult struct {
	info model.UserInfo
	err  error
}

func (c *userGetCmd) exec(s *Supervisor) {
	info, err := s.ledger.Get(c.id)
	c.reply <- userGetResult{info, err}
}

// UserGet returns the public view of a user's account.
func (s *Supervisor) UserGet(id model.UserId) (model.UserInfo, error) {
	reply := make(chan userGetResult, 1)
	s.cmdCh <- &userGetCmd{id: id, reply: reply}
	r := <-reply
	return r.info, r.err
}

type userBetsCmd struct {
	id    model.UserId
	reply chan userBetsResult
}

type userBetsResult struct {
	bets []model.BetId
	err  error
}

func (c *userBetsCmd) exec(s *Supervisor) {
	bets, err := s.ledger.Bets(c.id)
	c.reply <- userBetsResult{bets, err}
}

// UserBets returns the user's bet ids, most recently placed first.
func (s *Supervisor) UserBets(id model.UserId) ([]model.BetId, error) {
	reply := make(chan userBetsResult, 1)
	s.cmdCh <- &userBetsCmd{id: id, reply: reply}
	r := <-reply
	return r.bets, r.err
}

// ── markets ───────────────────────────────────────────────────────────

type marketCreateCmd struct {
	name, description string
	reply             chan marketCreateResult
}

type marketCreateResult struct {
	id  model.MarketId
	err error
}

func (c *marketCreateCmd) exec(s *Supervisor) {
	id := model.MarketId(fmt.Sprintf("mkt-%d", len(s.order)+1))
	info := model.MarketInfo{Id: id, Name: c.name, Description: c.description, Status: model.MarketActive}
	eng := engine.New(info, s.log, s.metrics)
	go eng.Run()
	s.markets[id] = &market{eng: eng}
	s.order = append(s.order, id)
	s.logf("market %s created: %q", id, c.name)
	c.reply <- marketCreateResult{id, nil}
}

// MarketCreate creates a new, Active market and returns its id.
func (s *Supervisor) MarketCreate(name, description string) (model.MarketId, error) {
	reply := make(chan marketCreateResult, 1)
	s.cmdCh <- &marketCreateCmd{name: name, description: description, reply: reply}
	r := <-reply
	return r.id, r.err
}

type marketListCmd struct {
	onlyActive bool
	reply      chan []model.MarketId
}

func (c *marketListCmd) exec(s *Supervisor) {
	out := make([]model.MarketId, 0, len(s.order))
	for _, id := range s.order {
		if c.onlyActive && s.markets[id].eng.Get().Status != model.MarketActive {
			continue
		}
		out = append(out, id)
	}
	c.reply <- out
}

// MarketList returns every market id in creation order.
func (s *Supervisor) MarketList() []model.MarketId {
	reply := make(chan []model.MarketId, 1)
	s.cmdCh <- &marketListCmd{reply: reply}
	return <-reply
}

// MarketListActive returns every Active market id in creation order.
func (s *Supervisor) MarketListActive() []model.MarketId {
	reply := make(chan []model.MarketId, 1)
	s.cmdCh <- &marketListCmd{onlyActive: true, reply: reply}
	return <-reply
}

type marketGetCmd struct {
	id    model.MarketId
	reply chan marketGetResult
}

type marketGetResult struct {
	info model.MarketInfo
	err  error
}

func (c *marketGetCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id]
	if !ok {
		c.reply <- marketGetResult{err: model.ErrNotFound}
		return
	}
	c.reply <- marketGetResult{info: mk.eng.Get()}
}

// MarketGet returns a market's current summary info.
func (s *Supervisor) MarketGet(id model.MarketId) (model.MarketInfo, error) {
	reply := make(chan marketGetResult, 1)
	s.cmdCh <- &marketGetCmd{id: id, reply: reply}
	r := <-reply
	return r.info, r.err
}

type marketMatchCmd struct {
	id    model.MarketId
	reply chan error
}

func (c *marketMatchCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id]
	if !ok {
		c.reply <- model.ErrNotFound
		return
	}
	events := mk.eng.Match()
	s.logf("market %s matched: %d events", c.id, len(events))
	c.reply <- nil
}

// MarketMatch runs the matching algorithm to exhaustion on a market.
func (s *Supervisor) MarketMatch(id model.MarketId) error {
	reply := make(chan error, 1)
	s.cmdCh <- &marketMatchCmd{id: id, reply: reply}
	return <-reply
}

type marketPendingCmd struct {
	id    model.MarketId
	side  book.Side
	reply chan marketPendingResult
}

type marketPendingResult struct {
	entries []book.Entry
	err     error
}

func (c *marketPendingCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id]
	if !ok {
		c.reply <- marketPendingResult{err: model.ErrNotFound}
		return
	}
	var entries []book.Entry
	if c.side == book.Backs {
		entries = mk.eng.PendingBacks()
	} else {
		entries = mk.eng.PendingLays()
	}
	c.reply <- marketPendingResult{entries: entries}
}

// MarketPendingBacks returns every resting back on a market, ascending by
// odds.
func (s *Supervisor) MarketPendingBacks(id model.MarketId) ([]book.Entry, error) {
	reply := make(chan marketPendingResult, 1)
	s.cmdCh <- &marketPendingCmd{id: id, side: book.Backs, reply: reply}
	r := <-reply
	return r.entries, r.err
}

// MarketPendingLays returns every resting lay on a market, descending by
// odds.
func (s *Supervisor) MarketPendingLays(id model.MarketId) ([]book.Entry, error) {
	reply := make(chan marketPendingResult, 1)
	s.cmdCh <- &marketPendingCmd{id: id, side: book.Lays, reply: reply}
	r := <-reply
	return r.entries, r.err
}

type marketBetsCmd struct {
	id    model.MarketId
	reply chan marketBetsResult
}

type marketBetsResult struct {
	bets []model.BetId
	err  error
}

func (c *marketBetsCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id]
	if !ok {
		c.reply <- marketBetsResult{err: model.ErrNotFound}
		return
	}
	bets := mk.eng.Bets()
	ids := make([]model.BetId, 0, len(bets))
	for _, b := range bets {
		ids = append(ids, b.Id)
	}
	c.reply <- marketBetsResult{bets: ids}
}

// MarketBets returns the id of every bet ever placed on a market, in
// placement order.
func (s *Supervisor) MarketBets(id model.MarketId) ([]model.BetId, error) {
	reply := make(chan marketBetsResult, 1)
	s.cmdCh <- &marketBetsCmd{id: id, reply: reply}
	r := <-reply
	return r.bets, r.err
}

// ── market lifecycle: freeze / cancel / settle ───────────────────────

type marketFreezeCmd struct {
	id    model.MarketId
	reply chan error
}

func (c *marketFreezeCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id]
	if !ok {
		c.reply <- model.ErrNotFound
		return
	}
	ids, err := mk.eng.Freeze()
	if err != nil {
		c.reply <- err
		return
	}
	for _, id := range ids {
		amount, err := mk.eng.CancelUnmatched(id)
		if err != nil || amount == 0 {
			continue
		}
		if err := s.ledger.Deposit(id.User, amount); err != nil {
			s.logf("market %s freeze: credit %s failed: %v", c.id, id, err)
		}
	}
	s.logf("market %s frozen: %d bets refunded unmatched portions", c.id, len(ids))
	c.reply <- nil
}

// MarketFreeze moves a market to Frozen, refunding every bet's unmatched
// remainder.
func (s *Supervisor) MarketFreeze(id model.MarketId) error {
	reply := make(chan error, 1)
	s.cmdCh <- &marketFreezeCmd{id: id, reply: reply}
	return <-reply
}

type marketCancelCmd struct {
	id    model.MarketId
	reply chan error
}

func (c *marketCancelCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id]
	if !ok {
		c.reply <- model.ErrNotFound
		return
	}
	ids, err := mk.eng.Cancel()
	if err != nil {
		c.reply <- err
		return
	}
	for _, id := range ids {
		amount, err := mk.eng.CancelWhole(id)
		if err != nil || amount == 0 {
			continue
		}
		if err := s.ledger.Deposit(id.User, amount); err != nil {
			s.logf("market %s cancel: credit %s failed: %v", c.id, id, err)
		}
	}
	s.logf("market %s cancelled: %d bets refunded in full", c.id, len(ids))
	c.reply <- nil
}

// MarketCancel moves a market to Cancelled, refunding every bet's original
// stake in full (net of anything already refunded via a prior freeze).
func (s *Supervisor) MarketCancel(id model.MarketId) error {
	reply := make(chan error, 1)
	s.cmdCh <- &marketCancelCmd{id: id, reply: reply}
	return <-reply
}

type marketSettleCmd struct {
	id     model.MarketId
	result bool
	reply  chan error
}

func (c *marketSettleCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id]
	if !ok {
		c.reply <- model.ErrNotFound
		return
	}
	payouts, err := mk.eng.Settle(c.result)
	if err != nil {
		c.reply <- err
		return
	}
	for _, p := range payouts {
		if err := s.ledger.Deposit(p.User, p.Amount); err != nil {
			s.logf("market %s settle: credit %s failed: %v", c.id, p.Bet, err)
		}
	}
	s.logf("market %s settled result=%v: %d payouts", c.id, c.result, len(payouts))
	c.reply <- nil
}

// MarketSettle moves a market to Settled(result) and credits every bet's
// payout to the ledger.
func (s *Supervisor) MarketSettle(id model.MarketId, result bool) error {
	reply := make(chan error, 1)
	s.cmdCh <- &marketSettleCmd{id: id, result: result, reply: reply}
	return <-reply
}

// ── bets (compensating withdrawal) ───────────────────────────────────

type betPlaceCmd struct {
	user  model.UserId
	mkt   model.MarketId
	typ   model.BetType
	stake int64
	odds  int
	reply chan betPlaceResult
}

type betPlaceResult struct {
	id  model.BetId
	err error
}

func (c *betPlaceCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.mkt]
	if !ok {
		c.reply <- betPlaceResult{err: model.ErrNotFound}
		return
	}
	if c.stake <= 0 {
		c.reply <- betPlaceResult{err: model.ErrInvalidAmount}
		return
	}
	if err := s.ledger.Withdraw(c.user, c.stake); err != nil {
		c.reply <- betPlaceResult{err: err}
		return
	}
	s.counter++
	id := model.BetId{User: c.user, Market: c.mkt, Counter: s.counter}
	if err := mk.eng.Place(id, c.typ, c.stake, c.odds); err != nil {
		// The withdrawal already happened in this same goroutine, so the
		// credit back below races nothing else touching this user's balance.
		if depErr := s.ledger.Deposit(c.user, c.stake); depErr != nil {
			s.logf("bet place %s: refund after rejection failed: %v", id, depErr)
		}
		c.reply <- betPlaceResult{err: err}
		return
	}
	if err := s.ledger.AppendBet(c.user, id); err != nil {
		s.logf("bet place %s: ledger index update failed: %v", id, err)
	}
	c.reply <- betPlaceResult{id: id}
}

func (s *Supervisor) placeBet(user model.UserId, mkt model.MarketId, typ model.BetType, stake int64, odds int) (model.BetId, error) {
	reply := make(chan betPlaceResult, 1)
	s.cmdCh <- &betPlaceCmd{user: user, mkt: mkt, typ: typ, stake: stake, odds: odds, reply: reply}
	r := <-reply
	return r.id, r.err
}

// BetBack places a back bet, withdrawing stake from the user first and
// refunding it if the market engine rejects the placement.
func (s *Supervisor) BetBack(user model.UserId, mkt model.MarketId, stake int64, odds int) (model.BetId, error) {
	return s.placeBet(user, mkt, model.Back, stake, odds)
}

// BetLay places a lay bet, withdrawing stake from the user first and
// refunding it if the market engine rejects the placement.
func (s *Supervisor) BetLay(user model.UserId, mkt model.MarketId, stake int64, odds int) (model.BetId, error) {
	return s.placeBet(user, mkt, model.Lay, stake, odds)
}

type betCancelCmd struct {
	id    model.BetId
	reply chan error
}

func (c *betCancelCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id.Market]
	if !ok {
		c.reply <- model.ErrNotFound
		return
	}
	amount, err := mk.eng.CancelUnmatched(c.id)
	if err != nil {
		c.reply <- err
		return
	}
	if amount > 0 {
		if err := s.ledger.Deposit(c.id.User, amount); err != nil {
			s.logf("bet cancel %s: refund failed: %v", c.id, err)
		}
	}
	c.reply <- nil
}

// BetCancel refunds a bet's unmatched remainder (always a cancel_unmatched;
// there is no user-facing whole-bet cancel).
func (s *Supervisor) BetCancel(id model.BetId) error {
	reply := make(chan error, 1)
	s.cmdCh <- &betCancelCmd{id: id, reply: reply}
	return <-reply
}

type betGetCmd struct {
	id    model.BetId
	reply chan betGetResult
}

type betGetResult struct {
	bet model.Bet
	err error
}

func (c *betGetCmd) exec(s *Supervisor) {
	mk, ok := s.markets[c.id.Market]
	if !ok {
		c.reply <- betGetResult{err: model.ErrNotFound}
		return
	}
	bet, err := mk.eng.BetGet(c.id)
	c.reply <- betGetResult{bet: bet, err: err}
}

// BetGet returns a single bet's current record.
func (s *Supervisor) BetGet(id model.BetId) (model.Bet, error) {
	reply := make(chan betGetResult, 1)
	s.cmdCh <- &betGetCmd{id: id, reply: reply}
	r := <-reply
	return r.bet, r.err
}
