package services

import (
	"dicehouse/domain/entities"
)

// BetLedger owns every bet record plus the pending-queue index. Bets are
// never deleted; terminal bets are only removed from the queue. The ledger is
// not safe for concurrent use — the lifecycle controller is its sole owner
// and serializes all access.
//
// Queue invariant: an id is in the queue iff its bet is Pending. Order inside
// the queue carries no meaning; removal swaps with the last entry.
type BetLedger struct {
	bets    map[uint64]*entities.Bet
	pending []uint64
	slots   map[uint64]int // id -> 1-indexed queue slot, 0/absent = not queued
	nextID  uint64
}

// NewBetLedger creates an empty ledger. Ids are assigned from 1.
func NewBetLedger() *BetLedger {
	return &BetLedger{
		bets:   make(map[uint64]*entities.Bet),
		slots:  make(map[uint64]int),
		nextID: 1,
	}
}

// Insert assigns the next id, stores the record and queues it as pending.
// Callers must fully validate the bet first: a stored bet is permanent.
func (l *BetLedger) Insert(bet *entities.Bet) uint64 {
	bet.ID = l.nextID
	l.nextID++

	l.bets[bet.ID] = bet
	l.pending = append(l.pending, bet.ID)
	l.slots[bet.ID] = len(l.pending)

	return bet.ID
}

// Get returns the bet record for id, or nil if it was never created.
func (l *BetLedger) Get(id uint64) *entities.Bet {
	return l.bets[id]
}

// RemoveFromPending drops id from the queue via swap-and-pop. No-op when the
// id is not queued, so exactly-once removal per terminal transition is cheap
// to enforce.
func (l *BetLedger) RemoveFromPending(id uint64) {
	slot := l.slots[id]
	if slot == 0 {
		return
	}

	last := len(l.pending)
	if slot != last {
		moved := l.pending[last-1]
		l.pending[slot-1] = moved
		l.slots[moved] = slot
	}

	l.pending = l.pending[:last-1]
	delete(l.slots, id)
}

// PendingCount returns the current queue length.
func (l *BetLedger) PendingCount() int {
	return len(l.pending)
}

// PendingAt returns the queued id at position i (0-based). Sweepers that
// remove the current entry must re-examine position i, since the last entry
// swaps into it.
func (l *BetLedger) PendingAt(i int) uint64 {
	return l.pending[i]
}

// IsPendingQueued reports whether id currently sits in the queue.
func (l *BetLedger) IsPendingQueued(id uint64) bool {
	return l.slots[id] != 0
}

// requeue restores a bet to the pending queue after a failed terminal
// transition (external transfer failure rolled back). Position is not
// preserved; the queue is unordered.
func (l *BetLedger) requeue(id uint64) {
	if l.slots[id] != 0 {
		return
	}
	l.pending = append(l.pending, id)
	l.slots[id] = len(l.pending)
}
