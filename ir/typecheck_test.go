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

func TestIsOfTypeIdentity(t *testing.T) {
	g := NewGlobalStore(nil)
	local := NewLocalStore(nil)
	addr := local.CreateSlot(MakeSlot(SlotLambda, 0, 0, 0))
	if !g.IsOfType(local, addr, addr) {
		t.Fatal("a slot must inhabit itself")
	}
}

func TestIsOfTypeConstructorForms(t *testing.T) {
	g := NewGlobalStore(nil)
	local := NewLocalStore(nil)

	pi := local.CreateSlot(MakeSlot(SlotPi, 0, 0, 0))
	lambda := local.CreateSlot(MakeSlot(SlotLambda, 0, 0, 0))
	if !g.IsOfType(local, lambda, pi) {
		t.Fatal("a Lambda value should inhabit a Pi type")
	}

	sigmaType := local.CreateSlot(MakeSlot(SlotSigma, 0, 0, 0))
	sigmaValue := local.CreateSlot(MakeSlot(SlotSigma, 0, 0, 0))
	if !g.IsOfType(local, sigmaValue, sigmaType) {
		t.Fatal("a Sigma value should inhabit a Sigma type")
	}

	adtType := local.CreateSlot(MakeSlot(SlotADT, 0, 0, 0))
	adtValue := local.CreateSlot(MakeSlot(SlotADT, 0, 0, 0))
	if !g.IsOfType(local, adtValue, adtType) {
		t.Fatal("an ADT value should inhabit an ADT type")
	}
}

func TestIsOfTypeMismatch(t *testing.T) {
	g := NewGlobalStore(nil)
	local := NewLocalStore(nil)

	adtType := local.CreateSlot(MakeSlot(SlotADT, 0, 0, 0))
	lambda := local.CreateSlot(MakeSlot(SlotLambda, 0, 0, 0))
	if g.IsOfType(local, lambda, adtType) {
		t.Fatal("a Lambda value should not inhabit an ADT type")
	}

	pi := local.CreateSlot(MakeSlot(SlotPi, 0, 0, 0))
	errSlot := local.CreateSlot(MakeSlot(SlotError, uint16(ErrorInvalidInstruction), 0, 0))
	if g.IsOfType(local, errSlot, pi) {
		t.Fatal("an Error value should not inhabit any type by constructor form")
	}
}
