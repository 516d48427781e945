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

// IsOfType decides whether the slot at addr inhabits the type denoted by
// the slot at typeAddr. This core only needs the minimum contract used to
// gate argument binding: identity always passes, and otherwise a value's
// constructor kind must match the type's form (a Lambda inhabits a Pi, a
// pair-shaped Sigma value inhabits a Sigma type, an ADT value inhabits
// its ADT type). A richer equality theory — up to whatever the
// frontend's type theory actually demands — is explicitly out of scope:
// this is only ever asked to gate a single Argument binding, where a
// mismatch degrades to Error(TypeChecking) rather than propagating a
// richer diagnosis.
func (g *GlobalStore) IsOfType(local *LocalStore, addr, typeAddr LocalAddr) bool {
	if addr == typeAddr {
		return true
	}
	value := local.Slot(addr)
	typ := local.Slot(typeAddr)
	switch value.Type {
	case SlotLambda:
		return typ.Type == SlotPi
	case SlotSigma:
		return typ.Type == SlotSigma
	case SlotADT:
		return typ.Type == SlotADT
	default:
		return false
	}
}
