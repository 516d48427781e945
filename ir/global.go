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
	"golang.org/x/exp/slices"

	"github.com/dchest/siphash"
)

// BlockType is the kind of code a global-store block holds.
type BlockType uint8

const (
	BlockLambda BlockType = iota
	BlockPi
	BlockSigma
	BlockADT
	BlockForeignFunction
)

func (t BlockType) String() string {
	switch t {
	case BlockLambda:
		return "Lambda"
	case BlockPi:
		return "Pi"
	case BlockSigma:
		return "Sigma"
	case BlockADT:
		return "ADT"
	case BlockForeignFunction:
		return "ForeignFunction"
	default:
		return "BlockType(?)"
	}
}

// ForeignCallback is invoked when the evaluator dispatches to a foreign
// block. It receives the same context Evaluate itself would use; the
// userdata given to CreateForeignBlock is stored with the block but is not
// passed to the callback. It must return the result local address and,
// if wantFinalArgument is set, the final-argument local address. A
// callback must not retain or publish any local address beyond its own
// return.
type ForeignCallback func(g *GlobalStore, l *LocalStore, calleeAddr GlobalAddr, argumentAddr LocalAddr, wantFinalArgument bool) (result LocalAddr, finalArgument LocalAddr)

type nativeBlock struct {
	typ    BlockType
	slots  []Slot
	digest uint64
}

type foreignBlock struct {
	callback ForeignCallback
	userdata any
}

// block is a tagged variant, not a dynamic-dispatch interface: native and
// foreign blocks are few enough and different enough in shape that an
// interface would buy nothing but indirection.
type block struct {
	typ     BlockType
	native  *nativeBlock
	foreign *foreignBlock
}

func (b *block) isNative() bool { return b.foreign == nil }

// GlobalStore is the vector of blocks (native or foreign), mutated only by
// the two block-creation operations; it grows monotonically for the
// lifetime of a run — blocks are never deleted. Reads are safe under
// single-threaded use; sharing a GlobalStore across goroutines requires
// an external mutex.
type GlobalStore struct {
	blocks  []block
	buckets map[uint64][]GlobalAddr // digest -> candidate addresses, non-ADT native blocks only
}

// hashConsKey0, hashConsKey1 are the fixed siphash key used to bucket
// native-block prototype sequences for hash-consing. This hash is an
// internal lookup accelerator, never a security boundary, so a
// well-known fixed key (the same convention the pack uses for its own
// internal redaction hash, expr/redact.go's k0, k1 = 0, 1) is
// appropriate.
const (
	hashConsKey0 uint64 = 0
	hashConsKey1 uint64 = 1
)

// NewGlobalStore creates an empty global store. A nil cfg uses
// DefaultConfig.
func NewGlobalStore(cfg *Config) *GlobalStore {
	cfg = cfg.orDefault()
	return &GlobalStore{
		blocks:  make([]block, 0, cfg.InitialGlobalCapacity),
		buckets: make(map[uint64][]GlobalAddr),
	}
}

// Len reports the number of blocks currently registered.
func (g *GlobalStore) Len() int { return len(g.blocks) }

func slotDigestBytes(slots []Slot) []byte {
	buf := make([]byte, 0, len(slots)*7)
	for _, s := range slots {
		buf = append(buf,
			byte(s.Type),
			byte(s.Operand0), byte(s.Operand0>>8),
			byte(s.Operand1), byte(s.Operand1>>8),
			byte(s.Operand2), byte(s.Operand2>>8),
		)
	}
	return buf
}

func slotsEqual(a, b []Slot) bool {
	return slices.EqualFunc(a, b, func(x, y Slot) bool {
		return x.Type == y.Type && x.Operand0 == y.Operand0 && x.Operand1 == y.Operand1 && x.Operand2 == y.Operand2
	})
}

// CreateNativeBlock registers a native block of the given type and
// prototype slot sequence, returning its global address. The prototype
// sequence must hold at least one slot; the last prototype slot is the
// block's result.
//
// Unless typ is BlockADT, an existing block of the same type with a
// byte-identical prototype sequence is returned instead of creating a
// duplicate (hash-consing). ADTs are exempt — their identity is nominal,
// so two structurally identical ADT definitions still receive distinct
// addresses.
//
// The prototype slots are copied; the caller's slice may be reused
// afterward.
func (g *GlobalStore) CreateNativeBlock(typ BlockType, slots []Slot) GlobalAddr {
	if typ == BlockForeignFunction {
		panic("ir: CreateNativeBlock called with BlockForeignFunction; use CreateForeignBlock")
	}
	if len(slots) == 0 {
		panic("ir: CreateNativeBlock requires at least one prototype slot")
	}

	if typ != BlockADT {
		digest := siphash.Hash(hashConsKey0, hashConsKey1, slotDigestBytes(slots))
		for _, addr := range g.buckets[digest] {
			b := &g.blocks[addr]
			if b.typ == typ && slotsEqual(b.native.slots, slots) {
				return addr
			}
		}
		addr := g.appendNative(typ, slots, digest)
		g.buckets[digest] = append(g.buckets[digest], addr)
		return addr
	}

	// ADTs are never deduplicated and never enter buckets, so a lookup
	// for a non-ADT block never lands on one; the digest is still stored
	// on the block.
	digest := siphash.Hash(hashConsKey0, hashConsKey1, slotDigestBytes(slots))
	return g.appendNative(typ, slots, digest)
}

func (g *GlobalStore) appendNative(typ BlockType, slots []Slot, digest uint64) GlobalAddr {
	addr := GlobalAddr(len(g.blocks))
	g.blocks = append(g.blocks, block{
		typ: typ,
		native: &nativeBlock{
			typ:    typ,
			slots:  slices.Clone(slots),
			digest: digest,
		},
	})
	return addr
}

// CreateForeignBlock registers a foreign callback block. Foreign blocks
// carry opaque state and are never deduplicated.
func (g *GlobalStore) CreateForeignBlock(callback ForeignCallback, userdata any) GlobalAddr {
	addr := GlobalAddr(len(g.blocks))
	g.blocks = append(g.blocks, block{
		typ:     BlockForeignFunction,
		foreign: &foreignBlock{callback: callback, userdata: userdata},
	})
	return addr
}

func (g *GlobalStore) block(addr GlobalAddr) *block {
	if int(addr) >= len(g.blocks) {
		panic(ErrGlobalAddressInvalid)
	}
	return &g.blocks[addr]
}

// BlockType reports the type of the block at addr.
func (g *GlobalStore) BlockType(addr GlobalAddr) BlockType {
	return g.block(addr).typ
}

// NativeSlots returns a copy of the prototype slot sequence of the native
// block at addr, or ok=false if that block is foreign. It exists for
// read-only external tooling (see package snapshot); the evaluator itself
// never needs to expose a block's prototypes.
func (g *GlobalStore) NativeSlots(addr GlobalAddr) (slots []Slot, ok bool) {
	b := g.block(addr)
	if !b.isNative() {
		return nil, false
	}
	return slices.Clone(b.native.slots), true
}
