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

// slotDescriptor is the static metadata for one slot type: which of the
// three operand positions hold a local-address reference, and whether
// slots of this type are retained by the GC even without an explicit root
// mark (an "implicit root" — e.g. constructors that model an externally
// observable value).
type slotDescriptor struct {
	operandIsLocal [3]bool
	implicitRoot   bool
}

// descriptors is indexed by SlotType and must stay in lockstep with the
// SlotType enumeration in slot.go.
var descriptors = [numSlotTypes]slotDescriptor{
	SlotArgument:         {operandIsLocal: [3]bool{false, false, false}},
	SlotCaptured:         {operandIsLocal: [3]bool{false, false, false}},
	SlotSelf:             {operandIsLocal: [3]bool{false, false, false}, implicitRoot: true},
	SlotUnresolvedSymbol: {operandIsLocal: [3]bool{false, false, false}},
	SlotError:            {operandIsLocal: [3]bool{false, false, false}, implicitRoot: true},
	SlotLambda:           {operandIsLocal: [3]bool{true, false, false}},
	SlotPi:               {operandIsLocal: [3]bool{true, true, false}},
	SlotSigma:            {operandIsLocal: [3]bool{true, true, false}},
	SlotADT:              {operandIsLocal: [3]bool{true, false, false}, implicitRoot: true},
	SlotCallCapture:      {operandIsLocal: [3]bool{true, true, false}},
}

// operandIsLocalAddress reports whether operand position pos (0, 1, or 2)
// of a slot of the given type is a local-store address, as opposed to an
// immediate small integer. It is a pure, constant-time lookup.
func operandIsLocalAddress(t SlotType, pos int) bool {
	return descriptors[t].operandIsLocal[pos]
}

// isImplicitRoot reports whether slots of type t are retained by the GC
// even when not reachable from an explicit root: Self closures and Error
// terminals are observable results in their own right, and ADT values
// carry nominal identity that must survive regardless of structural
// reachability from the call's declared roots. The collector only scans
// up to the highest explicit root above the barrier, so an implicit root
// above that point, or in a range with no explicit root at all, is
// reclaimed.
func isImplicitRoot(t SlotType) bool {
	return descriptors[t].implicitRoot
}

// slotTypeForBlock maps a block's kind to the slot type materialized when
// that block is treated as a value (e.g. a Self-closure, or the default
// construction of a block's result). ForeignFunction and Lambda share a
// value-level representation: the evaluator does not distinguish a
// native closure from a foreign callback once either has been turned
// into a value.
func slotTypeForBlock(t BlockType) SlotType {
	switch t {
	case BlockLambda, BlockForeignFunction:
		return SlotLambda
	case BlockPi:
		return SlotPi
	case BlockSigma:
		return SlotSigma
	case BlockADT:
		return SlotADT
	default:
		panic(ErrUnknownBlockType)
	}
}
