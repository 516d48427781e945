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

import "fmt"

// EvalFlags selects which of the optional evaluation inputs are present.
type EvalFlags struct {
	HasArgument bool
	HasCaptured bool
}

// Evaluate instantiates calleeAddr's prototype slots into local, resolving
// Argument/Captured/Self/ordinary operands relative to the current call
// frame, and returns the address of the result slot. If outFinalArgument
// is non-nil, *outFinalArgument is set to the local address of the last
// Argument binding encountered while materializing the block, which is
// useful to a caller that wants to know exactly which concrete value was
// consumed as "the" argument of a (possibly argument-free) block.
//
// Evaluate pushes a GC barrier on entry and pops it on exit, retaining
// the result (and, if requested, the final argument), the slots they
// reference, and any implicit roots below them; every other slot created
// while materializing the callee is reclaimed. It panics on
// any fatal internal-invariant violation: calleeAddr out of range, a
// capture-chain walk that runs into a non-capture slot, an unrecognized
// block type, or recursion deeper than the store's documented call-depth
// limit.
func (g *GlobalStore) Evaluate(local *LocalStore, flags EvalFlags, calleeAddr GlobalAddr, argumentAddr, captureAddr LocalAddr, outFinalArgument *LocalAddr) LocalAddr {
	blk := g.block(calleeAddr) // panics ErrGlobalAddressInvalid if out of range

	local.callDepth++
	if local.callDepth > local.limit {
		local.callDepth--
		panic(ErrCallDepthExceeded)
	}
	local.pushGCBarrier()

	var result, finalArgument LocalAddr

	if !blk.isNative() {
		result, finalArgument = blk.foreign.callback(g, local, calleeAddr, argumentAddr, outFinalArgument != nil)
	} else {
		result, finalArgument = g.evaluateNative(local, flags, blk.native, calleeAddr, argumentAddr, captureAddr)
	}

	local.callDepth--

	roots := []LocalAddr{result}
	if outFinalArgument != nil {
		roots = append(roots, finalArgument)
	}
	local.popGCBarrier(roots)
	result = roots[0]
	if outFinalArgument != nil {
		finalArgument = roots[1]
		*outFinalArgument = finalArgument
	}
	return result
}

// Call is a thin alias for Evaluate with only an argument bound and no
// capture chain, and no interest in the final-argument address.
func (g *GlobalStore) Call(local *LocalStore, calleeAddr GlobalAddr, argumentAddr LocalAddr) LocalAddr {
	return g.Evaluate(local, EvalFlags{HasArgument: true}, calleeAddr, argumentAddr, 0, nil)
}

func (g *GlobalStore) evaluateNative(local *LocalStore, flags EvalFlags, nb *nativeBlock, calleeAddr GlobalAddr, argumentAddr, captureAddr LocalAddr) (result, finalArgument LocalAddr) {
	protos := nb.slots
	remap := make([]LocalAddr, len(protos))
	lastIndex := len(protos) - 1

	for i, proto := range protos {
		var operands [3]uint16
		for j := 0; j < 3; j++ {
			v := proto.operand(j)
			if operandIsLocalAddress(proto.Type, j) {
				v = uint16(remap[v])
			}
			operands[j] = v
		}

		stop := false
		switch proto.Type {
		case SlotUnresolvedSymbol, SlotError:
			remap[i] = local.CreateSlot(MakeSlot(SlotError, uint16(ErrorInvalidInstruction), 0, 0))
			stop = true

		case SlotArgument:
			if operands[0] != 0 {
				panic(fmt.Errorf("ir: malformed prototype: Argument.operand0 must be 0, got %d", operands[0]))
			}
			if flags.HasArgument {
				remap[i] = argumentAddr
			} else {
				remap[i] = local.CreateSlot(MakeSlot(SlotArgument, uint16(local.callDepth-1), operands[1], 0))
			}
			finalArgument = remap[i]

			if !g.IsOfType(local, remap[i], LocalAddr(operands[1])) {
				remap[i] = local.CreateSlot(MakeSlot(SlotError, uint16(ErrorTypeChecking), 0, 0))
				stop = true
			}

		case SlotCaptured:
			if flags.HasCaptured {
				remap[i] = walkCaptureChain(local, captureAddr, operands[0])
			} else {
				remap[i] = local.CreateSlot(MakeSlot(SlotCaptured, operands[0], 0, 0))
			}

		case SlotSelf:
			if local.callDepth > 1 {
				var capAddr LocalAddr
				if flags.HasCaptured {
					capAddr = captureAddr
				} else {
					capAddr = local.CreateSlot(MakeSlot(SlotCallCapture, 0, 0, 0))
				}
				remap[i] = local.CreateSlot(MakeSlot(slotTypeForBlock(nb.typ), uint16(capAddr), uint16(calleeAddr), 0))
				break
			}
			// At call depth 1 there is no enclosing frame to close
			// over: fall through to the default construction.
			fallthrough

		default:
			remap[i] = local.CreateSlot(MakeSlot(slotTypeForBlock(nb.typ), operands[0], operands[1], operands[2]))
		}

		if stop {
			lastIndex = i
			break
		}
	}

	result = remap[lastIndex]
	return result, finalArgument
}

// walkCaptureChain descends depth links along a SlotCallCapture chain
// starting at startAddr and returns the payload address of the cell it
// lands on. Depth 0 returns the payload of the starting cell itself.
// Encountering a non-capture slot mid-walk is a fatal internal-invariant
// violation.
func walkCaptureChain(local *LocalStore, startAddr LocalAddr, depth uint16) LocalAddr {
	cell := local.Slot(startAddr)
	for i := uint16(0); i < depth; i++ {
		if cell.Type != SlotCallCapture {
			panic(ErrCaptureChainBroken)
		}
		cell = local.Slot(cell.Captures())
	}
	if cell.Type != SlotCallCapture {
		panic(ErrCaptureChainBroken)
	}
	return cell.Captured()
}
