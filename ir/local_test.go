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

func TestLocalStoreCreateSlotAppendsAndClearsAnnotation(t *testing.T) {
	l := NewLocalStore(nil)
	s := MakeSlot(SlotLambda, 1, 2, 3)
	s.annotation = true
	addr := l.CreateSlot(s)
	if addr != 0 {
		t.Fatalf("first CreateSlot address = %d, want 0", addr)
	}
	got := l.Slot(addr)
	if got.annotation {
		t.Fatal("CreateSlot must clear the annotation bit")
	}
	if got.Operand0 != 1 || got.Operand1 != 2 || got.Operand2 != 3 {
		t.Fatalf("slot operands corrupted: %+v", got)
	}
}

func TestLocalStoreSlotOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading an out-of-range local address")
		}
	}()
	l := NewLocalStore(nil)
	l.Slot(0)
}

func TestLocalStoreBarrierBalance(t *testing.T) {
	l := NewLocalStore(nil)
	if l.barrierDepth() != 0 {
		t.Fatalf("fresh store barrier depth = %d, want 0", l.barrierDepth())
	}
	l.pushGCBarrier()
	l.CreateSlot(MakeSlot(SlotCaptured, 0, 0, 0))
	if l.barrierDepth() != 1 {
		t.Fatalf("barrier depth = %d, want 1", l.barrierDepth())
	}
	root := l.CreateSlot(MakeSlot(SlotADT, 0, 0, 0))
	l.popGCBarrier([]LocalAddr{root})
	if l.barrierDepth() != 0 {
		t.Fatalf("barrier depth after pop = %d, want 0", l.barrierDepth())
	}
}

func TestLocalStorePopGCBarrierUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() != ErrBarrierUnderflow {
			t.Fatalf("expected ErrBarrierUnderflow, got %v", recover())
		}
	}()
	l := NewLocalStore(nil)
	l.popGCBarrier(nil)
}

func TestNewLocalStoreHasUniqueID(t *testing.T) {
	a := NewLocalStore(nil)
	b := NewLocalStore(nil)
	if a.ID() == "" || b.ID() == "" {
		t.Fatal("LocalStore.ID() must not be empty")
	}
	if a.ID() == b.ID() {
		t.Fatal("two independently created LocalStores must not share an id")
	}
}

func TestEvaluateCallDepthBalance(t *testing.T) {
	g := NewGlobalStore(nil)
	l := NewLocalStore(nil)
	block := g.CreateNativeBlock(BlockLambda, []Slot{MakeSlot(SlotCaptured, 0, 0, 0)})
	g.Evaluate(l, EvalFlags{}, block, 0, 0, nil)
	if l.callDepth != 0 {
		t.Fatalf("callDepth after a top-level Evaluate = %d, want 0", l.callDepth)
	}
}

func TestEvaluateCallDepthExceededPanics(t *testing.T) {
	g := NewGlobalStore(&Config{CallDepthLimit: 2})
	l := NewLocalStore(&Config{CallDepthLimit: 2})

	var self GlobalAddr
	self = g.CreateForeignBlock(func(g2 *GlobalStore, l2 *LocalStore, _ GlobalAddr, argumentAddr LocalAddr, _ bool) (LocalAddr, LocalAddr) {
		r := g2.Call(l2, self, argumentAddr)
		return r, r
	}, nil)

	defer func() {
		if recover() != ErrCallDepthExceeded {
			t.Fatalf("expected ErrCallDepthExceeded, got %v", recover())
		}
	}()
	arg := l.CreateSlot(MakeSlot(SlotADT, 0, 0, 0))
	g.Call(l, self, arg)
}
