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

import "errors"

// These sentinels identify fatal internal-invariant violations: popping
// an unbalanced GC barrier, walking off the end of a capture chain, an
// out-of-range callee global address, an unrecognized block type
// reaching slotTypeForBlock, recursion past the configured call-depth
// limit, and a GC root at or above the local store's length. None of these can occur from a well-formed
// caller that respects the frontend's own construction contract — they
// are panics, not returned errors. They are still declared as ordinary
// errors (rather than bare panic(string)) so a host that wraps
// evaluation in recover() can errors.Is against them.
var (
	ErrBarrierUnderflow     = errors.New("ir: pop_barrier with no matching push")
	ErrCaptureChainBroken   = errors.New("ir: capture chain walk encountered a non-capture slot")
	ErrGlobalAddressInvalid = errors.New("ir: callee global address out of range")
	ErrUnknownBlockType     = errors.New("ir: slot_type_for_block: unknown block type")
	ErrCallDepthExceeded    = errors.New("ir: call-depth limit exceeded")
	ErrRootOutOfRange       = errors.New("ir: GC root address above the local store's current length")
)
