// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package ir

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// LocalStore is the append-only vector of slots produced while evaluating
// a sequence of top-level calls, plus the GC-barrier stack and call-depth
// counter that scope a mark-compact collection to the frame that is
// currently returning. A LocalStore is owned by exactly one logical
// thread of evaluation; it is not safe for concurrent use.
type LocalStore struct {
	slots      []Slot
	gcBarriers []int
	callDepth  int

	limit int // CallDepthLimit, cached from Config

	// id correlates this store's diagnostic log lines across a host
	// that runs many LocalStores concurrently (one per goroutine).
	// It has no effect on evaluation semantics.
	id string
}

// NewLocalStore creates an empty local store. A nil cfg uses
// DefaultConfig.
func NewLocalStore(cfg *Config) *LocalStore {
	cfg = cfg.orDefault()
	return &LocalStore{
		slots: make([]Slot, 0, cfg.InitialLocalCapacity),
		id:    uuid.New().String(),
		limit: cfg.CallDepthLimit,
	}
}

// ID returns the store's diagnostic correlation id.
func (l *LocalStore) ID() string { return l.id }

// Len reports the current number of live slots.
func (l *LocalStore) Len() int { return len(l.slots) }

// Slot returns a copy of the slot at addr. It panics if addr is out of
// range.
func (l *LocalStore) Slot(addr LocalAddr) Slot {
	if int(addr) >= len(l.slots) {
		panic(fmt.Sprintf("ir: local address %d out of range (len=%d)", addr, len(l.slots)))
	}
	return l.slots[addr]
}

// CreateSlot appends slot to the local store and returns its address. No
// deduplication occurs here — deduplication of local slots, if a frontend
// wants it, is the frontend's prerogative (the global store performs its
// own hash-consing of whole native blocks, which is a separate concern).
func (l *LocalStore) CreateSlot(slot Slot) LocalAddr {
	slot.annotation = false
	l.slots = append(l.slots, slot)
	return LocalAddr(len(l.slots) - 1)
}

// pushGCBarrier records the current slot count as the floor below which a
// matching popGCBarrier must not reclaim.
func (l *LocalStore) pushGCBarrier() {
	l.gcBarriers = append(l.gcBarriers, len(l.slots))
}

// popGCBarrier pops the most recently pushed barrier and runs the
// mark-compact collector (see gc.go) over the suffix of slots above it,
// retaining exactly the supplied roots (and any implicit roots). roots is
// rewritten in place with each retained address's post-compaction value.
//
// Popping with no matching push is a fatal internal-invariant violation:
// it can only happen from a caller bypassing Evaluate's own push/pop
// bracketing.
func (l *LocalStore) popGCBarrier(roots []LocalAddr) {
	n := len(l.gcBarriers)
	if n == 0 {
		log.Printf("ir[%s]: %v", l.id, ErrBarrierUnderflow)
		panic(ErrBarrierUnderflow)
	}
	start := l.gcBarriers[n-1]
	l.gcBarriers = l.gcBarriers[:n-1]
	end := len(l.slots)
	final := markCompact(l.slots, start, end, roots)
	l.slots = l.slots[:final]
}

// barrierDepth reports how many GC barriers are currently pushed; tests
// use this to assert barrier balance across Evaluate calls.
func (l *LocalStore) barrierDepth() int { return len(l.gcBarriers) }
