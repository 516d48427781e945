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

import "testing"

func TestMarkCompactReclaimsUnreachableSuffix(t *testing.T) {
	// Index 0 is dead (nothing points to it); index 1 is a leaf kept
	// alive only because the root at index 2 (a Lambda, whose operand0
	// is a local-address reference) points to it.
	slots := []Slot{
		MakeSlot(SlotCaptured, 0, 0, 0), // 0: dead
		MakeSlot(SlotCaptured, 0, 0, 0), // 1: alive leaf
		MakeSlot(SlotLambda, 1, 0, 0),   // 2: alive root; references 1
	}
	roots := []LocalAddr{2}
	final := markCompact(slots, 0, len(slots), roots)

	if final != 2 {
		t.Fatalf("final = %d, want 2 (slot 0 reclaimed)", final)
	}
	if roots[0] != 1 {
		t.Fatalf("remapped root = %d, want 1", roots[0])
	}
	if slots[0].Type != SlotCaptured {
		t.Fatalf("survivor 0 (former leaf) corrupted: %+v", slots[0])
	}
	if slots[1].Type != SlotLambda || slots[1].Operand0 != 0 {
		t.Fatalf("survivor 1 (remapped root) corrupted: %+v", slots[1])
	}
}

func TestMarkCompactNoRootsTruncatesToBarrier(t *testing.T) {
	slots := []Slot{
		MakeSlot(SlotCaptured, 0, 0, 0),
		MakeSlot(SlotCaptured, 0, 0, 0),
	}
	final := markCompact(slots, 1, 2, nil)
	if final != 1 {
		t.Fatalf("final = %d, want 1 (truncate to barrier)", final)
	}
}

func TestMarkCompactImplicitRootSurvivesWithoutExplicitMark(t *testing.T) {
	// Slot 0 is an implicit root that nothing references; slot 1 is the
	// only explicit root, so the scan below it still reaches slot 0.
	slots := []Slot{
		MakeSlot(SlotError, uint16(ErrorInvalidInstruction), 0, 0), // 0: implicit root, unreferenced
		MakeSlot(SlotCaptured, 0, 0, 0),                            // 1: explicit root
	}
	final := markCompact(slots, 0, 2, []LocalAddr{1})
	if final != 2 {
		t.Fatalf("final = %d, want 2 (implicit root retained)", final)
	}
}

func TestMarkCompactPreservesOrder(t *testing.T) {
	// Two independent live chains; compaction must keep survivors in
	// their original relative order.
	slots := []Slot{
		MakeSlot(SlotCaptured, 0, 0, 0), // 0: leaf A
		MakeSlot(SlotLambda, 0, 0, 0),   // 1: root A, references 0
		MakeSlot(SlotCaptured, 0, 0, 0), // 2: leaf B
		MakeSlot(SlotLambda, 2, 0, 0),   // 3: root B, references 2
	}
	roots := []LocalAddr{1, 3}
	final := markCompact(slots, 0, len(slots), roots)
	if final != 4 {
		t.Fatalf("final = %d, want 4 (everything reachable)", final)
	}
	if roots[0] != 1 || roots[1] != 3 {
		t.Fatalf("roots reordered unexpectedly: %v", roots)
	}
}

func TestMarkCompactRootBelowBarrierIsLeftAlone(t *testing.T) {
	slots := []Slot{
		MakeSlot(SlotLambda, 0, 0, 0), // 0: pre-existing, below the barrier
		MakeSlot(SlotCaptured, 0, 0, 0), // 1: created during this call, unreachable
	}
	roots := []LocalAddr{0}
	final := markCompact(slots, 1, 2, roots)
	if final != 1 {
		t.Fatalf("final = %d, want 1 (nothing above the barrier survives)", final)
	}
	if roots[0] != 0 {
		t.Fatalf("root below barrier was remapped: %d", roots[0])
	}
}

func TestMarkCompactRootAboveEndPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range root")
		}
	}()
	slots := []Slot{MakeSlot(SlotCaptured, 0, 0, 0)}
	markCompact(slots, 0, 1, []LocalAddr{5})
}
