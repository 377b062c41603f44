package book

import "testing"

func TestInsertAndHeadBacksAscending(t *testing.T) {
	b := New()
	b.Insert(Backs, 1, 153)
	b.Insert(Backs, 2, 150)
	b.Insert(Backs, 3, 160)

	head, ok := b.Head(Backs)
	if !ok || head.Odds != 150 || head.Counter != 2 {
		t.Fatalf("want (150,2), got %+v ok=%v", head, ok)
	}
}

func TestInsertAndHeadLaysDescending(t *testing.T) {
	b := New()
	b.Insert(Lays, 1, 140)
	b.Insert(Lays, 2, 150)
	b.Insert(Lays, 3, 135)

	head, ok := b.Head(Lays)
	if !ok || head.Odds != 150 || head.Counter != 2 {
		t.Fatalf("want (150,2), got %+v ok=%v", head, ok)
	}
}

func TestTieBrokenByInsertionOrder(t *testing.T) {
	b := New()
	b.Insert(Backs, 2, 150)
	b.Insert(Backs, 5, 150)

	head, ok := b.Head(Backs)
	if !ok || head.Counter != 2 {
		t.Fatalf("want earliest counter 2 first, got %+v", head)
	}
}

func TestRemove(t *testing.T) {
	b := New()
	b.Insert(Backs, 1, 150)
	b.Insert(Backs, 2, 140)
	b.Remove(2)

	if b.Len(Backs) != 1 {
		t.Fatalf("want 1 entry left, got %d", b.Len(Backs))
	}
	head, _ := b.Head(Backs)
	if head.Counter != 1 {
		t.Fatalf("want remaining entry to be counter 1, got %+v", head)
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	b := New()
	b.Insert(Backs, 1, 150)
	b.Remove(99)
	if b.Len(Backs) != 1 {
		t.Fatalf("remove of unknown counter must not affect the book")
	}
}

func TestPendingOrder(t *testing.T) {
	b := New()
	b.Insert(Lays, 1, 140)
	b.Insert(Lays, 2, 150)
	b.Insert(Lays, 3, 140)

	got := b.Pending(Lays)
	want := []Entry{{150, 2}, {140, 1}, {140, 3}}
	if len(got) != len(want) {
		t.Fatalf("want %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: want %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestEmptyBookHeadMisses(t *testing.T) {
	b := New()
	if _, ok := b.Head(Backs); ok {
		t.Fatalf("empty book should not report a head")
	}
}
