package engine

import (
	"github.com/Chaman-veteran/betunfair/internal/book"
	"github.com/Chaman-veteran/betunfair/internal/model"
)

// match runs the matching algorithm to exhaustion against the current book
// heads, mutating bet records and the book in place, and returns every
// match event produced.
//
// At each step the back's head is matched at its own quoted odds against
// the lay's head. Whichever side's need is smaller is fully consumed; the
// other side keeps its remainder resting. A lazily-dropped head (zero
// remaining stake or no longer Active) is removed from the book and the
// loop re-peeks rather than assuming the book was already kept in sync —
// a defensive check the exchange supervisor's freeze/cancel paths can rely
// on even though normal placement/match/cancel keeps the book consistent
// eagerly.
func (e *MarketEngine) match() []model.MatchEvent {
	var events []model.MatchEvent

	for {
		backHead, ok := e.book.Head(book.Backs)
		if !ok {
			break
		}
		backBet := e.bets[backHead.Counter]
		if backBet.RemainingStake == 0 || !backBet.IsActive() {
			e.book.Remove(backHead.Counter)
			continue
		}

		layHead, ok := e.book.Head(book.Lays)
		if !ok {
			break
		}
		layBet := e.bets[layHead.Counter]
		if layBet.RemainingStake == 0 || !layBet.IsActive() {
			e.book.Remove(layHead.Counter)
			continue
		}

		if backHead.Odds > layHead.Odds {
			break
		}

		odds := backHead.Odds
		backStakeAvailable := backBet.RemainingStake
		capacity := model.LiabilityCapacity(backStakeAvailable, odds)
		layNeed := layBet.RemainingStake

		var consumedBack, consumedLay, backAbsorbedThisMatch int64
		if capacity >= layNeed {
			consumedBack = model.ConsumedBackForLayNeed(layNeed, odds)
			consumedLay = layNeed
			backAbsorbedThisMatch = consumedBack

			layBet.RemainingStake = 0
			backBet.RemainingStake -= consumedBack
			e.book.Remove(layHead.Counter)
			if backBet.RemainingStake == 0 {
				e.book.Remove(backHead.Counter)
			}
		} else {
			consumedLay = model.ConsumedLayForBackStake(backStakeAvailable, odds)
			consumedBack = backStakeAvailable
			backAbsorbedThisMatch = backStakeAvailable

			backBet.RemainingStake = 0
			layBet.RemainingStake -= consumedLay
			e.book.Remove(backHead.Counter)
		}

		backBet.MatchedAmount += consumedBack
		layBet.MatchedAmount += consumedLay
		backBet.Matched = append(backBet.Matched, layBet.Id)
		layBet.Matched = append(layBet.Matched, backBet.Id)
		layBet.AbsorbedStake += backAbsorbedThisMatch

		events = append(events, model.MatchEvent{
			Back:      backBet.Id,
			Lay:       layBet.Id,
			Odds:      odds,
			BackStake: consumedBack,
			LayStake:  consumedLay,
		})
		if e.metrics != nil {
			e.metrics.BetsMatched.Inc()
		}
	}

	e.reportDepth()
	return events
}
