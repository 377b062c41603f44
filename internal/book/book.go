// Package book implements the per-market order book: two price-ordered
// sequences of resting bet ids, backs ascending by odds and lays descending
// by odds, both stable on insertion order (the bet's own monotonic counter).
//
// Each side is backed by a github.com/google/btree tree instead of a sorted
// slice, giving O(log n) insert/remove while preserving the externally
// observable price/time order exactly.
package book

import "github.com/google/btree"

const treeDegree = 32

// Side selects which half of the book an operation targets.
type Side int

const (
	Backs Side = iota
	Lays
)

// Entry is one (odds, bet) pair in book order.
type Entry struct {
	Odds    int
	Counter uint64
}

// item is the btree.Item stored in each side's tree.
type item struct {
	odds    int
	counter uint64
	lay     bool // true selects the descending-by-odds comparator
}

func (a *item) Less(than btree.Item) bool {
	b := than.(*item)
	if a.odds != b.odds {
		if a.lay {
			return a.odds > b.odds
		}
		return a.odds < b.odds
	}
	return a.counter < b.counter
}

// Book is one market's pair of order-book sides.
type Book struct {
	backs *btree.BTree
	lays  *btree.BTree
	index map[uint64]*item // keyed by bet counter, unique per market
}

// New returns an empty order book.
func New() *Book {
	return &Book{
		backs: btree.New(treeDegree),
		lays:  btree.New(treeDegree),
		index: make(map[uint64]*item),
	}
}

func (b *Book) treeFor(side Side) *btree.BTree {
	if side == Lays {
		return b.lays
	}
	return b.backs
}

// Insert adds a bet of the given counter and odds to the named side. The
// counter is assumed unique within the market (it is the bet's BetId.Counter).
func (b *Book) Insert(side Side, counter uint64, odds int) {
	it := &item{odds: odds, counter: counter, lay: side == Lays}
	b.treeFor(side).ReplaceOrInsert(it)
	b.index[counter] = it
}

// Remove drops a resting bet from whichever side it is on. It is a no-op if
// the counter is not currently resting.
func (b *Book) Remove(counter uint64) {
	it, ok := b.index[counter]
	if !ok {
		return
	}
	delete(b.index, counter)
	if it.lay {
		b.lays.Delete(it)
	} else {
		b.backs.Delete(it)
	}
}

// Head returns the best-priced resting entry on the given side: lowest odds
// for backs, highest odds for lays, ties broken by earliest counter.
func (b *Book) Head(side Side) (Entry, bool) {
	tree := b.treeFor(side)
	if tree.Len() == 0 {
		return Entry{}, false
	}
	min := tree.Min().(*item)
	return Entry{Odds: min.odds, Counter: min.counter}, true
}

// Pending returns every resting entry on the given side, in book order.
func (b *Book) Pending(side Side) []Entry {
	tree := b.treeFor(side)
	out := make([]Entry, 0, tree.Len())
	tree.Ascend(func(i btree.Item) bool {
		it := i.(*item)
		out = append(out, Entry{Odds: it.odds, Counter: it.counter})
		return true
	})
	return out
}

// Len reports how many bets are resting on the given side.
func (b *Book) Len(side Side) int {
	return b.treeFor(side).Len()
}
