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

// markCompact reclaims the unreachable suffix of slots[start:end], keeping
// exactly the slots reachable from roots (plus any implicit roots),
// remapping every surviving local-address operand, and rewriting roots in
// place with their post-compaction addresses. It returns the new total
// slot count (i.e. the caller should truncate slots to this length).
//
// This is the direct translation of the source's CompactLocalGarbage: a
// mark phase that walks the reachable suffix descending so that every
// survivor's children are marked before the survivor itself is visited,
// followed by an ascending compaction pass that can rewrite operands
// in-place because forward (ascending) scan order guarantees an operand's
// target — which by construction of the local store always points to a
// strictly lower address — has already been placed.
func markCompact(slots []Slot, start, end int, roots []LocalAddr) int {
	maxUsed := start

	// Phase 1 — mark roots and find the highest reachable address. A
	// root is allowed to reference a slot below start (e.g. the result
	// of a call that just passed an already-existing address straight
	// through without creating anything new) — only the upper bound is
	// a hard invariant, matching the source's own root assertion. Marks
	// below start are skipped entirely: the propagation and compaction
	// passes below never look below start anyway, so marking there
	// would be pure inert bit-twiddling that leaves a stray annotation
	// set on a slot this GC cycle has no business touching.
	for _, r := range roots {
		if int(r) >= end {
			panic(ErrRootOutOfRange)
		}
		if int(r)+1 > maxUsed {
			maxUsed = int(r) + 1
		}
		if int(r) >= start {
			slots[r].annotation = true
		}
	}

	if maxUsed == start {
		// No roots above the barrier: everything above it is garbage.
		return start
	}

	final := start

	// Phase 1 continued — propagate retain marks. Descending order
	// guarantees each survivor's operands are marked before the scan
	// reaches them, so a single backward pass suffices even though a
	// slot only ever references strictly lower addresses.
	for i := maxUsed - 1; i >= start; i-- {
		s := slots[i]
		if !isImplicitRoot(s.Type) && !s.annotation {
			continue
		}
		final++
		for j := 0; j < 3; j++ {
			if !operandIsLocalAddress(s.Type, j) {
				continue
			}
			operand := int(s.operand(j))
			if operand < start {
				continue
			}
			slots[operand].annotation = true
		}
	}

	// Phase 2 — compact. remap[i-start] is the post-compaction address
	// of original address i, or the sentinel below if i was reclaimed.
	const unmapped = ^uint32(0)
	remap := make([]uint32, maxUsed-start)
	for i := range remap {
		remap[i] = unmapped
	}

	finalIndex := start
	for i := start; i < maxUsed; i++ {
		s := slots[i]
		if !isImplicitRoot(s.Type) && !s.annotation {
			continue
		}
		var operands [3]uint16
		for j := 0; j < 3; j++ {
			v := s.operand(j)
			// Operands below start point at slots this cycle never
			// moves, so they keep their address.
			if operandIsLocalAddress(s.Type, j) && int(v) >= start {
				v = uint16(remap[int(v)-start])
			}
			operands[j] = v
		}
		remap[i-start] = uint32(finalIndex)
		slots[finalIndex] = MakeSlot(s.Type, operands[0], operands[1], operands[2])
		finalIndex++
	}

	// Phase 3 — update roots. Roots below start were never touched by
	// compaction and keep their original address.
	for i, r := range roots {
		if int(r) >= start {
			roots[i] = LocalAddr(remap[int(r)-start])
		}
	}

	// Phase 4 is the caller's truncation of slots to finalIndex==final.
	return final
}
